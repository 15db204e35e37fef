// Command torrentsearch runs one aggregate torrent search with the scrapers
// configured in settings.json and prints the merged results as a table.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"vibewatch/config"
	"vibewatch/services/scraper"
)

const (
	defaultLimit   = 25
	defaultTimeout = 30 * time.Second
	maxNameWidth   = 70
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:      "torrentsearch",
		Usage:     "Search every configured torrent source and print the merged results",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to settings.json",
				EnvVars: []string{"VIBEWATCH_CONFIG"},
				Value:   "cache/settings.json",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of rows to print (0 prints all)",
				Value:   defaultLimit,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall deadline for the search",
				Value: defaultTimeout,
			},
			&cli.StringSliceFlag{
				Name:  "source",
				Usage: "Only query scrapers with this name; repeatable",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the detailed report as JSON instead of tables",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Show scraper log output",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("torrentsearch failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a search query is required")
	}
	if !c.Bool("verbose") {
		log.SetOutput(io.Discard)
	}

	mgr := config.NewManager(c.String("config"))
	settings, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	settings.ApplyEnv()

	if only := c.StringSlice("source"); len(only) > 0 {
		settings.TorrentScrapers = filterScrapers(settings.TorrentScrapers, only)
	}

	registry := scraper.BuildFromConfig(settings)
	if registry.Len() == 0 {
		return errors.New("no enabled torrent scrapers in " + mgr.Path())
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	defer cancel()

	report := registry.SearchAllDetailed(ctx, query)

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if err := renderResults(os.Stdout, report.Results, c.Int("limit")); err != nil {
		return err
	}
	fmt.Println()
	if err := renderSummary(os.Stdout, report); err != nil {
		return err
	}
	if report.Failed == len(report.Outcomes) {
		return fmt.Errorf("every source failed: %w", report.Err())
	}
	return nil
}

func filterScrapers(all []config.TorrentScraperConfig, names []string) []config.TorrentScraperConfig {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	kept := make([]config.TorrentScraperConfig, 0, len(all))
	for _, s := range all {
		if _, ok := wanted[strings.ToLower(s.Name)]; ok {
			kept = append(kept, s)
		}
	}
	return kept
}
