package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"catalogsync/internal/catalog"
	"catalogsync/internal/services"
	"catalogsync/internal/store"
)

type fakeGateway struct {
	mu sync.Mutex

	titles   map[string]store.TitleRecord
	titleIDs map[string]int64
	lookups  map[string]int64
	links    map[string]struct{}
	seasons  map[string]int64
	episodes map[string]store.EpisodeRecord
	nextID   int64

	failLookup  map[string]bool
	failSeason  map[int]bool
	failEpisode map[int]bool
	failTitle   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		titles:      make(map[string]store.TitleRecord),
		titleIDs:    make(map[string]int64),
		lookups:     make(map[string]int64),
		links:       make(map[string]struct{}),
		seasons:     make(map[string]int64),
		episodes:    make(map[string]store.EpisodeRecord),
		failLookup:  make(map[string]bool),
		failSeason:  make(map[int]bool),
		failEpisode: make(map[int]bool),
	}
}

var errInjected = errors.New("injected failure")

func (g *fakeGateway) id() int64 {
	g.nextID++
	return g.nextID
}

func (g *fakeGateway) UpsertTitle(_ context.Context, rec store.TitleRecord) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failTitle != nil {
		return 0, g.failTitle
	}
	g.titles[rec.IMDbID] = rec
	if id, ok := g.titleIDs[rec.IMDbID]; ok {
		return id, nil
	}
	id := g.id()
	g.titleIDs[rec.IMDbID] = id
	return id, nil
}

func (g *fakeGateway) FindOrCreate(_ context.Context, lookup store.Lookup, name string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failLookup[name] {
		return 0, errInjected
	}
	key := lookup.String() + ":" + catalog.LookupKey(name)
	if id, ok := g.lookups[key]; ok {
		return id, nil
	}
	id := g.id()
	g.lookups[key] = id
	return id, nil
}

func (g *fakeGateway) Link(_ context.Context, lookup store.Lookup, titleID, lookupID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.links[fmt.Sprintf("%s:%d:%d", lookup, titleID, lookupID)] = struct{}{}
	return nil
}

func (g *fakeGateway) UpsertSeason(_ context.Context, rec store.SeasonRecord) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSeason[rec.Number] {
		return 0, errInjected
	}
	key := fmt.Sprintf("%d:%d", rec.TitleID, rec.Number)
	if id, ok := g.seasons[key]; ok {
		return id, nil
	}
	id := g.id()
	g.seasons[key] = id
	return id, nil
}

func (g *fakeGateway) UpsertEpisode(_ context.Context, rec store.EpisodeRecord) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failEpisode[rec.Number] {
		return 0, errInjected
	}
	g.episodes[fmt.Sprintf("%d:%d", rec.SeasonID, rec.Number)] = rec
	return g.id(), nil
}

func (g *fakeGateway) RepairSequences(context.Context) error { return nil }

type fakeFetcher struct {
	titles    map[string]*catalog.NormalizedTitle
	seasons   map[int]*catalog.NormalizedSeason
	seasonErr map[int]error
	calls     int
}

func (f *fakeFetcher) FetchTitle(_ context.Context, id string) (*catalog.NormalizedTitle, error) {
	f.calls++
	title, ok := f.titles[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "fake", "fetch title", id, nil)
	}
	clone := *title
	return &clone, nil
}

func (f *fakeFetcher) FetchSeason(_ context.Context, _ string, number int) (*catalog.NormalizedSeason, error) {
	if err := f.seasonErr[number]; err != nil {
		return nil, err
	}
	season, ok := f.seasons[number]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "fake", "fetch season", "", nil)
	}
	return season, nil
}

type fakeImages struct {
	path  string
	calls []string
}

func (f *fakeImages) StoreImage(_ context.Context, sourceURL, name string) string {
	f.calls = append(f.calls, name)
	return f.path
}

type fakeResolver struct {
	id  int64
	err error
}

func (f fakeResolver) FindByIMDbID(context.Context, string, catalog.Kind) (int64, error) {
	return f.id, f.err
}

func episodes(numbers ...int) []catalog.NormalizedEpisode {
	out := make([]catalog.NormalizedEpisode, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, catalog.NormalizedEpisode{Number: n, Title: fmt.Sprintf("Episode %d", n)})
	}
	return out
}

func season(number int, eps ...int) *catalog.NormalizedSeason {
	return &catalog.NormalizedSeason{
		Number:       number,
		Title:        catalog.SeasonTitle(number),
		EpisodeCount: len(eps),
		Episodes:     episodes(eps...),
	}
}
