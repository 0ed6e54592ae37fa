package store

import (
	"context"
	"fmt"
	"strings"

	"catalogsync/internal/catalog"
	"catalogsync/internal/services"
)

// UpsertSeason inserts or updates the season keyed by (title, number).
func (s *Store) UpsertSeason(ctx context.Context, rec SeasonRecord) (int64, error) {
	if rec.TitleID <= 0 || rec.Number <= 0 {
		return 0, services.Wrap(services.ErrValidation, "store", "upsert season",
			fmt.Sprintf("invalid title id %d or season number %d", rec.TitleID, rec.Number), nil)
	}
	name := strings.TrimSpace(rec.Title)
	if name == "" {
		name = catalog.SeasonTitle(rec.Number)
	}

	now := s.dialect.nowExpr
	query := `INSERT INTO seasons (title_id, season_number, title, episode_count, created_at, updated_at)
	VALUES (?, ?, ?, ?, ` + now + `, ` + now + `)
	ON CONFLICT (title_id, season_number) DO UPDATE SET
		title = excluded.title,
		episode_count = excluded.episode_count,
		updated_at = excluded.updated_at
	RETURNING id`
	id, err := s.returningID(ctx, query, rec.TitleID, rec.Number, name, rec.EpisodeCount)
	if err != nil {
		return 0, fmt.Errorf("upsert season %d of title %d: %w", rec.Number, rec.TitleID, err)
	}
	return id, nil
}

// UpsertEpisode inserts or updates the episode keyed by (season, number).
func (s *Store) UpsertEpisode(ctx context.Context, rec EpisodeRecord) (int64, error) {
	if rec.SeasonID <= 0 || rec.Number <= 0 {
		return 0, services.Wrap(services.ErrValidation, "store", "upsert episode",
			fmt.Sprintf("invalid season id %d or episode number %d", rec.SeasonID, rec.Number), nil)
	}
	name := strings.TrimSpace(rec.Title)
	if name == "" {
		name = fmt.Sprintf("Episode %d", rec.Number)
	}

	now := s.dialect.nowExpr
	query := `INSERT INTO episodes (season_id, episode_number, title, imdb_id, release_date, rating, created_at, updated_at)
	VALUES (?, ?, ?, ?, ` + s.dialect.dateParam + `, ?, ` + now + `, ` + now + `)
	ON CONFLICT (season_id, episode_number) DO UPDATE SET
		title = excluded.title,
		imdb_id = COALESCE(excluded.imdb_id, episodes.imdb_id),
		release_date = excluded.release_date,
		rating = excluded.rating,
		updated_at = excluded.updated_at
	RETURNING id`
	id, err := s.returningID(ctx, query,
		rec.SeasonID,
		rec.Number,
		name,
		nullableString(rec.IMDbID),
		nullableDate(rec.ReleaseDate),
		nullableFloat(rec.Rating),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert episode %d of season %d: %w", rec.Number, rec.SeasonID, err)
	}
	return id, nil
}

func (s *Store) seasonSummaries(ctx context.Context, titleID int64) ([]SeasonSummary, error) {
	query := `SELECT s.season_number, s.title, s.episode_count, COUNT(e.id)
	FROM seasons s
	LEFT JOIN episodes e ON e.season_id = s.id
	WHERE s.title_id = ?
	GROUP BY s.id, s.season_number, s.title, s.episode_count
	ORDER BY s.season_number ASC`
	rows, err := s.query(ctx, query, titleID)
	if err != nil {
		return nil, fmt.Errorf("list seasons for title %d: %w", titleID, err)
	}
	defer rows.Close()

	var seasons []SeasonSummary
	for rows.Next() {
		var summary SeasonSummary
		if err := rows.Scan(&summary.Number, &summary.Title, &summary.EpisodeCount, &summary.EpisodesStored); err != nil {
			return nil, err
		}
		seasons = append(seasons, summary)
	}
	return seasons, rows.Err()
}
