package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes movies from series.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ParseKind accepts movie/series in any case.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindMovie:
		return KindMovie, nil
	case KindSeries:
		return KindSeries, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want movie or series)", value)
	}
}

// Quality is the release quality label stored on a title.
type Quality string

const (
	QualityCAM Quality = "CAM"
	QualityHD  Quality = "HD"
	QualityFHD Quality = "FHD"
	Quality4K  Quality = "4K"

	DefaultQuality = QualityHD
)

// ParseQuality normalizes a quality label. Empty input yields DefaultQuality.
func ParseQuality(value string) (Quality, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	switch Quality(trimmed) {
	case "":
		return DefaultQuality, nil
	case QualityCAM, QualityHD, QualityFHD, Quality4K:
		return Quality(trimmed), nil
	default:
		return "", fmt.Errorf("unknown quality %q (want CAM, HD, FHD or 4K)", value)
	}
}

// NormalizedTitle is a provider title with sentinels removed.
type NormalizedTitle struct {
	IMDbID       string
	TMDBID       int64
	Title        string
	Synopsis     string
	ReleaseDate  *time.Time
	Year         string
	Rating       *float64
	Runtime      string
	PosterURL    string
	BackdropURL  string
	Kind         Kind
	TotalSeasons int
	Country      string
	Countries    []string
	Genres       []string
	Actors       []string
}

// NormalizedSeason is one season listing with its episodes in provider order.
type NormalizedSeason struct {
	Number       int
	Title        string
	EpisodeCount int
	Episodes     []NormalizedEpisode
}

// NormalizedEpisode is one entry of a season listing. Number is 0 when the
// provider value could not be parsed.
type NormalizedEpisode struct {
	Number      int
	Title       string
	IMDbID      string
	ReleaseDate *time.Time
	Rating      *float64
}

// SeasonTitle is the display title used when the provider supplies none.
func SeasonTitle(number int) string {
	return fmt.Sprintf("Season %d", number)
}
