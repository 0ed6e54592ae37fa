package main

import (
	"strings"
	"testing"

	"catalogsync/internal/bulk"
)

func TestRenderBulkReport(t *testing.T) {
	report := &bulk.Report{
		Success:  true,
		Imported: 1,
		Failed:   1,
		Skipped:  2,
		Total:    4,
		Results: bulk.Results{
			Success: []bulk.ItemSuccess{{ExternalID: "tt0133093", Title: "The Matrix", Attempts: 1}},
			Failed:  []bulk.ItemFailure{{ExternalID: "tt9999999", Error: "title not found", Detail: "Incorrect IMDb ID.", Attempts: 1}},
		},
	}

	plain := renderBulkReport(report, false)
	requireContains(t, plain, "Imported 1 of 4, 1 failed, 2 skipped over batch cap")
	requireContains(t, plain, "title not found: Incorrect IMDb ID.")
	if strings.Contains(plain, ansiReset) {
		t.Fatal("plain output contains colour codes")
	}

	colored := renderBulkReport(report, true)
	requireContains(t, colored, ansiGreen+"imported"+ansiReset)
	requireContains(t, colored, ansiRed+"failed"+ansiReset)
}

func TestRenderBulkReportEmpty(t *testing.T) {
	out := renderBulkReport(&bulk.Report{Success: true}, false)
	if out != "Imported 0 of 0\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	requireContains(t, out, "only")
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty render without headers")
	}
}
