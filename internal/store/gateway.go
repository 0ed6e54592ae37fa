package store

import (
	"context"
	"time"

	"catalogsync/internal/catalog"
)

// Gateway is the write surface the importer depends on.
type Gateway interface {
	UpsertTitle(ctx context.Context, rec TitleRecord) (int64, error)
	FindOrCreate(ctx context.Context, lookup Lookup, name string) (int64, error)
	Link(ctx context.Context, lookup Lookup, titleID, lookupID int64) error
	UpsertSeason(ctx context.Context, rec SeasonRecord) (int64, error)
	UpsertEpisode(ctx context.Context, rec EpisodeRecord) (int64, error)
	RepairSequences(ctx context.Context) error
}

// Reader is the read surface backing the catalog endpoints.
type Reader interface {
	GetTitle(ctx context.Context, imdbID string) (*Title, error)
	ListTitles(ctx context.Context, opts ListOptions) ([]Title, error)
	SimilarTitles(ctx context.Context, imdbID string, limit int) ([]Title, error)
}

// Lookup identifies one of the find-or-create entity tables.
type Lookup int

const (
	Genres Lookup = iota
	Actors
	Countries
)

type lookupTables struct {
	table     string
	joinTable string
	joinKey   string
}

var lookupSchema = map[Lookup]lookupTables{
	Genres:    {table: "genres", joinTable: "title_genres", joinKey: "genre_id"},
	Actors:    {table: "actors", joinTable: "title_actors", joinKey: "actor_id"},
	Countries: {table: "countries", joinTable: "title_countries", joinKey: "country_id"},
}

func (l Lookup) String() string {
	if t, ok := lookupSchema[l]; ok {
		return t.table
	}
	return "unknown"
}

// TitleRecord is the write model for a movie or series row, keyed by IMDbID.
// Empty artwork paths and a zero TMDBID keep whatever the row already holds.
type TitleRecord struct {
	IMDbID       string
	TMDBID       int64
	Title        string
	Synopsis     string
	ReleaseDate  *time.Time
	Year         string
	Rating       *float64
	Runtime      string
	PosterPath   string
	BackdropPath string
	Quality      catalog.Quality
	Kind         catalog.Kind
	TotalSeasons int
	Country      string
}

// SeasonRecord is keyed by (TitleID, Number).
type SeasonRecord struct {
	TitleID      int64
	Number       int
	Title        string
	EpisodeCount int
}

// EpisodeRecord is keyed by (SeasonID, Number).
type EpisodeRecord struct {
	SeasonID    int64
	Number      int
	Title       string
	IMDbID      string
	ReleaseDate *time.Time
	Rating      *float64
}

// Title is the read model returned by Reader.
type Title struct {
	ID           int64           `json:"id"`
	IMDbID       string          `json:"imdbId"`
	TMDBID       int64           `json:"tmdbId,omitempty"`
	Title        string          `json:"title"`
	Synopsis     string          `json:"synopsis,omitempty"`
	ReleaseDate  string          `json:"releaseDate,omitempty"`
	Year         string          `json:"year,omitempty"`
	Rating       *float64        `json:"rating,omitempty"`
	Runtime      string          `json:"runtime,omitempty"`
	PosterPath   string          `json:"posterPath,omitempty"`
	BackdropPath string          `json:"backdropPath,omitempty"`
	Quality      catalog.Quality `json:"quality"`
	Kind         catalog.Kind    `json:"kind"`
	TotalSeasons int             `json:"totalSeasons,omitempty"`
	Country      string          `json:"country,omitempty"`
	Views        int64           `json:"views"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	Genres    []string        `json:"genres,omitempty"`
	Actors    []string        `json:"actors,omitempty"`
	Countries []string        `json:"countries,omitempty"`
	Seasons   []SeasonSummary `json:"seasons,omitempty"`
}

// SeasonSummary reports the provider episode count next to the stored one.
type SeasonSummary struct {
	Number         int    `json:"number"`
	Title          string `json:"title"`
	EpisodeCount   int    `json:"episodeCount"`
	EpisodesStored int    `json:"episodesStored"`
}

// Order selects the listing sort.
type Order string

const (
	OrderTitle    Order = "title"
	OrderLatest   Order = "latest"
	OrderTrending Order = "trending"
)

// ListOptions filters a title listing. A zero Limit uses DefaultListLimit.
type ListOptions struct {
	Kind  catalog.Kind
	Order Order
	Limit int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
