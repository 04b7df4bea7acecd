package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/wyhuang/guba-signal/internal/analyze"
	"github.com/wyhuang/guba-signal/internal/crawl"
	internaldb "github.com/wyhuang/guba-signal/internal/db"
)

func main() {
	app := &cli.App{
		Name:  "guba-signal",
		Usage: "crawl stock forum posts and distill them into a trading signal",
		Commands: []*cli.Command{
			{
				Name:   "crawl",
				Usage:  "Fetch a stock's forum listing pages and export the posts",
				Action: crawl.CrawlAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "stock",
						Aliases: []string{"s"},
						Usage:   "stock code to crawl, e.g. 002594",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "yaml config file layered under the flags",
					},
					&cli.IntFlag{
						Name:  "start-page",
						Usage: "first listing page to fetch",
					},
					&cli.IntFlag{
						Name:  "end-page",
						Usage: "last listing page to fetch",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "directory for CSV exports",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "only log errors",
					},
				},
			},
			{
				Name:   "analyze",
				Usage:  "Score a crawl session's posts and aggregate a signal",
				Action: analyze.AnalyzeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "stock",
						Aliases: []string{"s"},
						Usage:   "analyze the stock's most recent session",
					},
					&cli.IntFlag{
						Name:  "session",
						Usage: "analyze a specific session ID",
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "how many top-engagement posts to score",
					},
					&cli.BoolFlag{
						Name:  "with-content",
						Usage: "fetch post bodies to enrich remote classification",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "directory for analysis reports",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "only log errors",
					},
				},
			},
			{
				Name:  "db",
				Usage: "Inspect the crawl database",
				Subcommands: []*cli.Command{
					{
						Name:   "sessions",
						Usage:  "List crawl sessions",
						Action: internaldb.SessionsAction,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Usage: "show at most N sessions",
								Value: 20,
							},
						},
					},
					{
						Name:      "session",
						Usage:     "Show one session and its posts",
						ArgsUsage: "<id>",
						Action:    internaldb.SessionAction,
					},
					{
						Name:   "purge-cache",
						Usage:  "Clear persisted classification results",
						Action: internaldb.PurgeCacheAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
