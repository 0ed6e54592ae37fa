package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"catalogsync/internal/auth"
	"catalogsync/internal/bulk"
	"catalogsync/internal/catalog"
	"catalogsync/internal/config"
	"catalogsync/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var quality string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "import <imdb-id>",
		Short: "Import one title and its seasons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				result, err := a.importer.Import(cmd.Context(), args[0], quality)
				if err != nil {
					return fmt.Errorf("import %s: %w", strings.TrimSpace(args[0]), err)
				}
				if jsonOut {
					return writeJSON(cmd, result)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderImportResult(result))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Quality label (HD, FHD, 4K, CAM)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newBulkImportCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var quality string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "bulk-import <imdb-id>...",
		Short: "Import a batch of titles with retries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				runCtx := withConfiguredCredentials(cmd.Context(), a.cfg)
				report, err := a.bulk.Run(runCtx, bulk.Request{
					ExternalIDs: args,
					Kind:        kind,
					Quality:     quality,
				})
				if err != nil {
					return fmt.Errorf("bulk import: %w", err)
				}
				if jsonOut {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderBulkReport(report, shouldColorize(out)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Title kind shared by the batch (movie or series)")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Quality label (HD, FHD, 4K, CAM)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func newRepairSequencesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "repair-sequences",
		Short: "Realign id counters with the stored rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app) error {
				if err := a.store.RepairSequences(cmd.Context()); err != nil {
					return fmt.Errorf("repair sequences: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sequences repaired (%s)\n", a.store.Backend())
				return nil
			})
		},
	}
}

// withConfiguredCredentials lets the HTTP loopback dispatcher authenticate
// with the configured API token when the batch runs from the terminal.
func withConfiguredCredentials(ctx context.Context, cfg *config.Config) context.Context {
	token := strings.TrimSpace(cfg.Server.Token)
	if token == "" {
		return ctx
	}
	return auth.WithCredentials(ctx, auth.Credentials{Authorization: "Bearer " + token})
}

func renderImportResult(result *importer.Result) string {
	rows := [][]string{
		{"IMDb ID", result.ExternalID},
		{"Title", result.Title},
		{"Kind", string(result.Kind)},
		{"Catalog ID", strconv.FormatInt(result.TitleID, 10)},
		{"Complete", yesNo(result.Success)},
	}
	if result.Kind == catalog.KindSeries {
		rows = append(rows,
			[]string{"Seasons imported", strconv.Itoa(result.SeasonsImported)},
			[]string{"Seasons skipped", strconv.Itoa(result.SeasonsSkipped)},
			[]string{"Episodes imported", strconv.Itoa(result.EpisodesImported)},
			[]string{"Episodes failed", strconv.Itoa(result.EpisodesFailed)},
		)
	}
	if result.LinkFailures > 0 {
		rows = append(rows, []string{"Link failures", strconv.Itoa(result.LinkFailures)})
	}
	if result.CorrelationID != "" {
		rows = append(rows, []string{"Correlation ID", result.CorrelationID})
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}) + "\n"
}
