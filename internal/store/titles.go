package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"catalogsync/internal/catalog"
	"catalogsync/internal/services"
)

const titleColumns = "id, imdb_id, tmdb_id, title, synopsis, release_date, year, rating, runtime, poster_path, backdrop_path, quality, kind, total_seasons, views, created_at, updated_at, country"

// UpsertTitle inserts or updates the title keyed by IMDb ID and returns its row
// id. The views counter is never touched; empty artwork and a zero TMDB ID keep
// the stored values.
func (s *Store) UpsertTitle(ctx context.Context, rec TitleRecord) (int64, error) {
	if strings.TrimSpace(rec.IMDbID) == "" {
		return 0, services.Wrap(services.ErrValidation, "store", "upsert title", "imdb id is required", nil)
	}
	quality := rec.Quality
	if quality == "" {
		quality = catalog.DefaultQuality
	}
	kind := rec.Kind
	if kind == "" {
		kind = catalog.KindMovie
	}

	now := s.dialect.nowExpr
	query := `INSERT INTO titles (imdb_id, tmdb_id, title, synopsis, release_date, year, rating, runtime,
		poster_path, backdrop_path, quality, kind, total_seasons, country, created_at, updated_at)
	VALUES (?, ?, ?, ?, ` + s.dialect.dateParam + `, ?, ?, ?, ?, ?, ?, ?, ?, ?, ` + now + `, ` + now + `)
	ON CONFLICT (imdb_id) DO UPDATE SET
		tmdb_id = COALESCE(excluded.tmdb_id, titles.tmdb_id),
		title = excluded.title,
		synopsis = excluded.synopsis,
		release_date = excluded.release_date,
		year = excluded.year,
		rating = excluded.rating,
		runtime = excluded.runtime,
		poster_path = COALESCE(excluded.poster_path, titles.poster_path),
		backdrop_path = COALESCE(excluded.backdrop_path, titles.backdrop_path),
		quality = excluded.quality,
		kind = excluded.kind,
		total_seasons = excluded.total_seasons,
		country = excluded.country,
		updated_at = excluded.updated_at
	RETURNING id`

	id, err := s.returningID(ctx, query,
		strings.TrimSpace(rec.IMDbID),
		nullableID(rec.TMDBID),
		rec.Title,
		nullableString(rec.Synopsis),
		nullableDate(rec.ReleaseDate),
		nullableString(rec.Year),
		nullableFloat(rec.Rating),
		nullableString(rec.Runtime),
		nullableString(rec.PosterPath),
		nullableString(rec.BackdropPath),
		string(quality),
		string(kind),
		rec.TotalSeasons,
		nullableString(rec.Country),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert title %s: %w", rec.IMDbID, err)
	}
	return id, nil
}

// GetTitle loads one title with its lookups and season summaries.
func (s *Store) GetTitle(ctx context.Context, imdbID string) (*Title, error) {
	rows, err := s.query(ctx, "SELECT "+titleColumns+" FROM titles WHERE imdb_id = ?", strings.TrimSpace(imdbID))
	if err != nil {
		return nil, fmt.Errorf("get title %s: %w", imdbID, err)
	}
	titles, err := scanTitles(rows)
	if err != nil {
		return nil, fmt.Errorf("get title %s: %w", imdbID, err)
	}
	if len(titles) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "get title", fmt.Sprintf("no title with imdb id %q", imdbID), nil)
	}
	title := titles[0]

	for _, lookup := range []Lookup{Genres, Actors, Countries} {
		names, err := s.linkedNames(ctx, lookup, title.ID)
		if err != nil {
			return nil, err
		}
		switch lookup {
		case Genres:
			title.Genres = names
		case Actors:
			title.Actors = names
		case Countries:
			title.Countries = names
		}
	}

	if title.Kind == catalog.KindSeries {
		if title.Seasons, err = s.seasonSummaries(ctx, title.ID); err != nil {
			return nil, err
		}
	}
	return &title, nil
}

// ListTitles returns titles of one kind in the requested order.
func (s *Store) ListTitles(ctx context.Context, opts ListOptions) ([]Title, error) {
	var orderBy string
	switch opts.Order {
	case OrderLatest:
		orderBy = "release_date DESC NULLS LAST, id DESC"
	case OrderTrending:
		orderBy = "views DESC, updated_at DESC, id DESC"
	case OrderTitle, "":
		orderBy = "title ASC, id ASC"
	default:
		return nil, services.Wrap(services.ErrValidation, "store", "list titles", fmt.Sprintf("unknown order %q", opts.Order), nil)
	}

	query := "SELECT " + titleColumns + " FROM titles"
	args := []any{}
	if opts.Kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(opts.Kind))
	}
	query += " ORDER BY " + orderBy + " LIMIT ?"
	args = append(args, clampLimit(opts.Limit))

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	return scanTitles(rows)
}

// SimilarTitles returns titles of the same kind that share at least one genre
// with imdbID, most shared genres first.
func (s *Store) SimilarTitles(ctx context.Context, imdbID string, limit int) ([]Title, error) {
	query := `SELECT ` + prefixColumns("t", titleColumns) + `
	FROM titles t
	JOIN title_genres tg ON tg.title_id = t.id
	JOIN title_genres src ON src.genre_id = tg.genre_id
	JOIN titles origin ON origin.id = src.title_id
	WHERE origin.imdb_id = ? AND t.id <> origin.id AND t.kind = origin.kind
	GROUP BY ` + prefixColumns("t", titleColumns) + `
	ORDER BY COUNT(*) DESC, t.rating DESC NULLS LAST, t.id ASC
	LIMIT ?`
	rows, err := s.query(ctx, query, strings.TrimSpace(imdbID), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("similar titles %s: %w", imdbID, err)
	}
	return scanTitles(rows)
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func scanTitles(rows *sql.Rows) ([]Title, error) {
	defer rows.Close()
	var titles []Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		titles = append(titles, *title)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return titles, nil
}

func scanTitle(scanner interface{ Scan(dest ...any) error }) (*Title, error) {
	var (
		title        Title
		tmdbID       sql.NullInt64
		synopsis     sql.NullString
		releaseDate  sql.NullString
		year         sql.NullString
		rating       sql.NullFloat64
		runtime      sql.NullString
		posterPath   sql.NullString
		backdropPath sql.NullString
		quality      string
		kind         string
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		country      sql.NullString
	)
	if err := scanner.Scan(
		&title.ID,
		&title.IMDbID,
		&tmdbID,
		&title.Title,
		&synopsis,
		&releaseDate,
		&year,
		&rating,
		&runtime,
		&posterPath,
		&backdropPath,
		&quality,
		&kind,
		&title.TotalSeasons,
		&title.Views,
		&createdRaw,
		&updatedRaw,
		&country,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "store", "scan title", "no rows", err)
		}
		return nil, err
	}

	title.TMDBID = tmdbID.Int64
	title.Synopsis = synopsis.String
	title.ReleaseDate = dateString(releaseDate)
	title.Year = year.String
	title.Rating = floatPtr(rating)
	title.Runtime = runtime.String
	title.PosterPath = posterPath.String
	title.BackdropPath = backdropPath.String
	title.Quality = catalog.Quality(quality)
	title.Kind = catalog.Kind(kind)
	title.Country = country.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		title.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		title.UpdatedAt = updated
	}
	return &title, nil
}
