package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// FakeOMDb is a scripted OMDb-compatible server for tests.
type FakeOMDb struct {
	URL string

	mu       sync.Mutex
	titles   map[string]map[string]string
	seasons  map[string]map[int][]map[string]string
	failures map[string][]int
	hits     map[string]int
}

// NewFakeOMDb starts a fake provider and registers cleanup.
func NewFakeOMDb(t testing.TB) *FakeOMDb {
	t.Helper()

	fake := &FakeOMDb{
		titles:   make(map[string]map[string]string),
		seasons:  make(map[string]map[int][]map[string]string),
		failures: make(map[string][]int),
		hits:     make(map[string]int),
	}
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(srv.Close)
	fake.URL = srv.URL + "/"
	return fake
}

// AddMovie registers a movie with a couple of genres and actors.
func (f *FakeOMDb) AddMovie(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[id] = map[string]string{
		"Title":      title,
		"Year":       "1999",
		"Released":   "31 Mar 1999",
		"Runtime":    "120 min",
		"Genre":      "Action, Sci-Fi",
		"Actors":     "Ada Lovelace, Alan Turing",
		"Plot":       title + " plot",
		"Country":    "United States",
		"Poster":     "N/A",
		"imdbRating": "7.5",
		"imdbID":     id,
		"Type":       "movie",
		"Response":   "True",
	}
}

// AddSeries registers a series whose season n has episodesPerSeason[n-1]
// episodes. A negative count leaves that season unknown to the provider.
func (f *FakeOMDb) AddSeries(id, title string, episodesPerSeason ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[id] = map[string]string{
		"Title":        title,
		"Year":         "2008-2013",
		"Released":     "20 Jan 2008",
		"Genre":        "Drama",
		"Actors":       "Grace Hopper",
		"Country":      "United States",
		"Poster":       "N/A",
		"imdbRating":   "9.1",
		"imdbID":       id,
		"Type":         "series",
		"totalSeasons": strconv.Itoa(len(episodesPerSeason)),
		"Response":     "True",
	}
	seasons := make(map[int][]map[string]string, len(episodesPerSeason))
	for i, n := range episodesPerSeason {
		if n < 0 {
			continue
		}
		number := i + 1
		episodes := make([]map[string]string, 0, n)
		for e := 1; e <= n; e++ {
			episodes = append(episodes, map[string]string{
				"Title":      fmt.Sprintf("Episode %d", e),
				"Released":   "N/A",
				"Episode":    strconv.Itoa(e),
				"imdbRating": "N/A",
				"imdbID":     fmt.Sprintf("%ss%02de%02d", id, number, e),
			})
		}
		seasons[number] = episodes
	}
	f.seasons[id] = seasons
}

// FailNext makes the next len(statuses) title lookups for id answer with the
// given HTTP statuses, in order.
func (f *FakeOMDb) FailNext(id string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[id] = append(f.failures[id], statuses...)
}

// Hits reports how many title lookups reached the server for id.
func (f *FakeOMDb) Hits(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[id]
}

func (f *FakeOMDb) serve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	id := query.Get("i")
	seasonParam := query.Get("Season")

	f.mu.Lock()
	if seasonParam == "" {
		f.hits[id]++
		if queued := f.failures[id]; len(queued) > 0 {
			status := queued[0]
			f.failures[id] = queued[1:]
			f.mu.Unlock()
			http.Error(w, http.StatusText(status), status)
			return
		}
	}
	title, titleOK := f.titles[id]
	var episodes []map[string]string
	seasonOK := false
	if seasonParam != "" {
		if number, err := strconv.Atoi(seasonParam); err == nil {
			episodes, seasonOK = f.seasons[id][number]
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case seasonParam == "" && titleOK:
		_ = json.NewEncoder(w).Encode(title)
	case seasonParam == "":
		_ = json.NewEncoder(w).Encode(map[string]string{"Response": "False", "Error": "Incorrect IMDb ID."})
	case seasonOK:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Title":        title["Title"],
			"Season":       seasonParam,
			"totalSeasons": title["totalSeasons"],
			"Episodes":     episodes,
			"Response":     "True",
		})
	default:
		_ = json.NewEncoder(w).Encode(map[string]string{"Response": "False", "Error": "Series or season not found!"})
	}
}
