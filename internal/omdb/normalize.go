package omdb

import (
	"math"
	"strconv"
	"strings"
	"time"

	upstream "github.com/Digital-Shane/omdb"

	"catalogsync/internal/catalog"
)

const (
	sentinel       = "N/A"
	releasedLayout = "02 Jan 2006"
)

// absent reports whether a provider string carries no value.
func absent(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || strings.EqualFold(trimmed, sentinel)
}

func text(value string) string {
	if absent(value) {
		return ""
	}
	return strings.TrimSpace(value)
}

// list splits a comma-separated provider field, dropping blanks and sentinels.
// Duplicates are preserved.
func list(value string) []string {
	if absent(value) {
		return nil
	}
	parts := upstream.SplitAndTrim(value)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if absent(part) {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func date(value string) *time.Time {
	if absent(value) {
		return nil
	}
	parsed, err := time.Parse(releasedLayout, strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &parsed
}

// rating parses a one-decimal score; absent or unparsable values yield nil.
func rating(value string) *float64 {
	if absent(value) {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
		return nil
	}
	score := math.Round(float64(upstream.ParseRating(value))*10) / 10
	return &score
}

func count(value string) int {
	if absent(value) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func kind(value string) catalog.Kind {
	if strings.EqualFold(strings.TrimSpace(value), string(catalog.KindSeries)) {
		return catalog.KindSeries
	}
	return catalog.KindMovie
}

func normalizeTitle(p titlePayload) *catalog.NormalizedTitle {
	title := &catalog.NormalizedTitle{
		IMDbID:      text(p.IMDbID),
		Title:       text(p.Title),
		Synopsis:    text(p.Plot),
		ReleaseDate: date(p.Released),
		Year:        text(p.Year),
		Rating:      rating(p.IMDbRating),
		Runtime:     text(p.Runtime),
		Kind:        kind(p.Type),
		Country:     text(p.Country),
		Countries:   list(p.Country),
		Genres:      list(p.Genre),
		Actors:      list(p.Actors),
	}
	if title.Kind == catalog.KindSeries {
		title.TotalSeasons = count(p.TotalSeasons)
	}
	// The provider has no backdrop field; the poster doubles as backdrop source.
	if poster := text(p.Poster); poster != "" {
		title.PosterURL = poster
		title.BackdropURL = poster
	}
	return title
}

func normalizeSeason(number int, p seasonPayload) *catalog.NormalizedSeason {
	season := &catalog.NormalizedSeason{
		Number:       number,
		Title:        catalog.SeasonTitle(number),
		EpisodeCount: len(p.Episodes),
		Episodes:     make([]catalog.NormalizedEpisode, 0, len(p.Episodes)),
	}
	for _, ep := range p.Episodes {
		season.Episodes = append(season.Episodes, catalog.NormalizedEpisode{
			Number:      count(ep.Episode),
			Title:       text(ep.Title),
			IMDbID:      text(ep.IMDbID),
			ReleaseDate: date(ep.Released),
			Rating:      rating(ep.IMDbRating),
		})
	}
	return season
}
