package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"vibewatch/models"
	"vibewatch/services/scraper"
)

// renderResults prints one row per result in the order given. limit <= 0
// prints everything.
func renderResults(w io.Writer, results []models.TorrentResult, limit int) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	table := tablewriter.NewWriter(w)
	if err := table.Append([]string{"#", "Name", "Quality", "Size", "Seeds", "Peers", "Source"}); err != nil {
		return fmt.Errorf("append header row: %w", err)
	}
	for i, row := range scraper.Rows(results) {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			truncate(row.Name, maxNameWidth),
			row.Quality.Label,
			row.Size,
			strconv.Itoa(row.Seeds),
			strconv.Itoa(row.Peers),
			row.Source,
		}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return table.Render()
}

// renderSummary prints what each source contributed.
func renderSummary(w io.Writer, report scraper.SearchReport) error {
	table := tablewriter.NewWriter(w)
	if err := table.Append([]string{"Source", "Results", "Took", "Error"}); err != nil {
		return fmt.Errorf("append header row: %w", err)
	}
	for _, o := range report.Outcomes {
		if err := table.Append([]string{
			o.Source,
			strconv.Itoa(o.Count),
			fmt.Sprintf("%dms", o.TookMs),
			o.Error,
		}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d results from %d sources (%d failed)\n",
		len(report.Results), len(report.Outcomes), report.Failed)
	return err
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
