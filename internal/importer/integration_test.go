package importer_test

import (
	"context"
	"testing"

	"catalogsync/internal/importer"
	"catalogsync/internal/logging"
	"catalogsync/internal/omdb"
	"catalogsync/internal/testsupport"
)

func TestImportSeriesIntoSQLite(t *testing.T) {
	provider := testsupport.NewFakeOMDb(t)
	provider.AddSeries("tt0903747", "Breaking Bad", 3, -1, 2)

	cfg := testsupport.NewConfig(t, testsupport.WithOMDbURL(provider.URL), testsupport.WithArtworkDisabled())
	st := testsupport.MustOpenStore(t, cfg)
	client, err := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL)
	if err != nil {
		t.Fatalf("omdb.New: %v", err)
	}
	svc := importer.New(st, client,
		importer.WithLockPath(cfg.ImportLockPath()),
		importer.WithLogger(logging.NewNop()),
	)

	ctx := context.Background()
	first, err := svc.Import(ctx, "tt0903747", "FHD")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if first.SeasonsImported != 2 || first.SeasonsSkipped != 1 || first.EpisodesImported != 5 {
		t.Fatalf("unexpected counters %+v", first)
	}

	second, err := svc.Import(ctx, "tt0903747", "FHD")
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if second.TitleID != first.TitleID {
		t.Fatalf("re-import created a new title row: %d vs %d", second.TitleID, first.TitleID)
	}

	title, err := st.GetTitle(ctx, "tt0903747")
	if err != nil {
		t.Fatalf("GetTitle: %v", err)
	}
	if len(title.Seasons) != 2 {
		t.Fatalf("expected 2 stored seasons, got %d", len(title.Seasons))
	}
	if title.Seasons[0].EpisodesStored != 3 || title.Seasons[1].Number != 3 || title.Seasons[1].EpisodesStored != 2 {
		t.Fatalf("unexpected season summaries %+v", title.Seasons)
	}
	if len(title.Genres) != 1 || title.Genres[0] != "Drama" {
		t.Fatalf("unexpected genres %v", title.Genres)
	}
}
