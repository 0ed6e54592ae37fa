package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"catalogsync/internal/bulk"
)

const (
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
)

func renderBulkReport(report *bulk.Report, colorize bool) string {
	var b strings.Builder

	summary := fmt.Sprintf("Imported %d of %d", report.Imported, report.Total)
	if report.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", report.Failed)
	}
	if report.Skipped > 0 {
		summary += fmt.Sprintf(", %d skipped over batch cap", report.Skipped)
	}
	b.WriteString(summary)
	b.WriteString("\n")

	rows := make([][]string, 0, len(report.Results.Success)+len(report.Results.Failed))
	for _, item := range report.Results.Success {
		rows = append(rows, []string{
			item.ExternalID,
			paint("imported", ansiGreen, colorize),
			item.Title,
			strconv.Itoa(item.SeasonsImported),
			strconv.Itoa(item.EpisodesImported),
			strconv.Itoa(item.Attempts),
		})
	}
	for _, item := range report.Results.Failed {
		message := item.Error
		if item.Detail != "" && item.Detail != item.Error {
			message = item.Error + ": " + item.Detail
		}
		rows = append(rows, []string{
			item.ExternalID,
			paint("failed", ansiRed, colorize),
			message,
			"",
			"",
			strconv.Itoa(item.Attempts),
		})
	}
	if len(rows) == 0 {
		return b.String()
	}

	b.WriteString(renderTable(
		[]string{"IMDb ID", "Status", "Title / Error", "Seasons", "Episodes", "Attempts"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	b.WriteString("\n")
	return b.String()
}

func paint(value, color string, colorize bool) string {
	if !colorize {
		return value
	}
	return color + value + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
