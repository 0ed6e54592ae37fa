package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalogsync/internal/auth"
	"catalogsync/internal/bulk"
	"catalogsync/internal/cache"
	"catalogsync/internal/catalog"
	"catalogsync/internal/importer"
	"catalogsync/internal/logging"
	"catalogsync/internal/metrics"
	"catalogsync/internal/omdb"
	"catalogsync/internal/services"
	"catalogsync/internal/store"
	"catalogsync/internal/testsupport"
)

type importerStub struct {
	calls int
	err   error
}

func (s *importerStub) Import(_ context.Context, id, _ string) (*importer.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &importer.Result{Success: true, ExternalID: id, Title: "The Matrix", Kind: catalog.KindMovie}, nil
}

type bulkStub struct {
	got bulk.Request
}

func (b *bulkStub) Run(_ context.Context, req bulk.Request) (*bulk.Report, error) {
	b.got = req
	if len(req.ExternalIDs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "bulk", "run", "no ids", nil)
	}
	return &bulk.Report{Success: true, Imported: len(req.ExternalIDs), Total: len(req.ExternalIDs)}, nil
}

type fixture struct {
	handler  http.Handler
	importer *importerStub
	bulk     *bulkStub
	store    *store.Store
	cache    *cache.Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("tok"))
	st := testsupport.MustOpenStore(t, cfg)
	f := &fixture{
		importer: &importerStub{},
		bulk:     &bulkStub{},
		store:    st,
		cache:    cache.New(cfg.Cache.TTL(), cfg.Cache.CleanupInterval()),
	}
	srv := NewServer(cfg, Deps{
		Importer: f.importer,
		Bulk:     f.bulk,
		Reader:   st,
		Cache:    f.cache,
		Metrics:  metrics.New(),
		Auth:     auth.New(cfg.Server.Token, nil),
		Health:   st,
	}, logging.NewNop())
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer tok")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestImportRequiresAuth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/import", `{"externalId":"tt0133093"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if f.importer.calls != 0 {
		t.Fatal("importer should not run without auth")
	}
}

func TestImportSuccess(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/import", `{"externalId":"tt0133093","quality":"HD"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res importer.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.Title != "The Matrix" {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestImportErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{services.Wrap(services.ErrValidation, "importer", "import", "external id is required", nil), http.StatusBadRequest, ""},
		{&omdb.ProviderError{Operation: "title lookup", Message: "Incorrect IMDb ID.", Kind: services.ErrNotFound}, http.StatusNotFound, "Incorrect IMDb ID."},
		{&omdb.ProviderError{Operation: "title lookup", Status: 503, Message: "down", Kind: services.ErrTransient}, http.StatusServiceUnavailable, "down"},
		{&omdb.ProviderError{Operation: "title lookup", Message: "decode response", Kind: services.ErrPermanent}, http.StatusUnprocessableEntity, "decode response"},
		{context.Canceled, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		f := newFixture(t)
		f.importer.err = tt.err
		rec := f.do(http.MethodPost, "/import", `{"externalId":"tt1"}`, true)
		if rec.Code != tt.status {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.status, rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error == "" {
			t.Fatalf("%v: expected error message", tt.err)
		}
		if tt.detail != "" && body.Detail != tt.detail {
			t.Fatalf("%v: expected detail %q, got %q", tt.err, tt.detail, body.Detail)
		}
	}
}

func TestImportRejectsMalformedBody(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodPost, "/import", `{not json`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBulkImport(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/bulk-import", `{"externalIds":["tt1","tt2"],"kind":"series","quality":"FHD"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.bulk.got.Kind != "series" || len(f.bulk.got.ExternalIDs) != 2 || f.bulk.got.Quality != "FHD" {
		t.Fatalf("unexpected request forwarded %+v", f.bulk.got)
	}
	var report bulk.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Imported != 2 {
		t.Fatalf("unexpected report %+v", report)
	}

	if rec := f.do(http.MethodPost, "/bulk-import", `{"externalIds":[],"kind":"movie"}`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
}

func TestListTitlesUsesCache(t *testing.T) {
	f := newFixture(t)
	testsupport.MustUpsertTitle(t, f.store, store.TitleRecord{IMDbID: "tt1", Title: "Alpha", Kind: catalog.KindMovie, Quality: catalog.QualityHD})

	rec := f.do(http.MethodGet, "/titles?kind=movie&limit=5", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := f.cache.Get("titles:movie:5"); !ok {
		t.Fatal("expected response to be cached")
	}

	testsupport.MustUpsertTitle(t, f.store, store.TitleRecord{IMDbID: "tt2", Title: "Beta", Kind: catalog.KindMovie, Quality: catalog.QualityHD})
	cached := f.do(http.MethodGet, "/titles?kind=movie&limit=5", "", false)
	if cached.Body.String() != rec.Body.String() {
		t.Fatal("expected cached body before invalidation")
	}

	for _, pattern := range bulk.InvalidationPatterns(catalog.KindMovie) {
		if _, err := f.cache.Invalidate(pattern); err != nil {
			t.Fatalf("Invalidate: %v", err)
		}
	}
	fresh := f.do(http.MethodGet, "/titles?kind=movie&limit=5", "", false)
	var resp listResponse
	if err := json.Unmarshal(fresh.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Titles) != 2 {
		t.Fatalf("expected 2 titles after invalidation, got %d", len(resp.Titles))
	}
}

func TestListTitlesValidatesQuery(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodGet, "/titles?kind=episode", "", false); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad kind, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/titles/latest?kind=movie&limit=abc", "", false); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestGetTitle(t *testing.T) {
	f := newFixture(t)
	testsupport.MustUpsertTitle(t, f.store, store.TitleRecord{IMDbID: "tt0133093", Title: "The Matrix", Kind: catalog.KindMovie, Quality: catalog.QualityHD})

	rec := f.do(http.MethodGet, "/titles/tt0133093", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"title":"The Matrix"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	if rec := f.do(http.MethodGet, "/titles/tt404", "", false); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if _, ok := f.cache.Get("title:tt404"); ok {
		t.Fatal("errors must not be cached")
	}
}

func TestSimilarReturnsEmptyList(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/titles/tt1/similar", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"titles":[]}` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodGet, "/healthz", "", false); rec.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", rec.Code)
	}
	f.do(http.MethodGet, "/titles?kind=movie", "", false)
	rec := f.do(http.MethodGet, "/metrics", "", false)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "catalogsync_cache_requests_total") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}
}
