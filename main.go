package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/complexportal/internal/common"
	"github.com/dtnitsch/complexportal/internal/datasets"
	dbactions "github.com/dtnitsch/complexportal/internal/db"
	"github.com/dtnitsch/complexportal/internal/export"
	"github.com/dtnitsch/complexportal/internal/quickstart"
	"github.com/dtnitsch/complexportal/models"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		// Errors carrying an exit code are handled inside RunContext.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(common.ExitFailure)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "complexportal",
		Usage:     "Convert the Complex Portal complex list into BEL namespace and graph artifacts",
		ArgsUsage: "[OUTPUT]",
		Description: "Fetches the Complex Portal TSV, caches it with a .bak of the previous copy, " +
			"and writes a BEL namespace (default) or graph stamped with the cache digest. " +
			"Nothing is written when OUTPUT already carries the current digest.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   models.DefaultConfigFile,
				Usage:   "YAML config file (optional unless set explicitly)",
				EnvVars: []string{"COMPLEXPORTAL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "url",
				Value: models.DefaultURL,
				Usage: "Remote TSV (http, https or ftp)",
			},
			&cli.StringFlag{
				Name:  "cache",
				Value: models.DefaultCachePath,
				Usage: "Local cache file; the previous copy is kept as <cache>.bak",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: models.DefaultTimeout,
				Usage: "Fetch deadline; on expiry the cached copy is used",
			},
			&cli.StringFlag{
				Name:  "digest",
				Value: models.DefaultDigestAlgorithm,
				Usage: "Digest algorithm: sha256 or blake3",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Value: models.DefaultChunkSize,
				Usage: "Read and hash chunk size in bytes",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Skip the fetch and use the cached copy",
			},
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Record fetch attempts in the database",
			},
			&cli.StringFlag{
				Name:  "db",
				Value: models.DefaultDBPath,
				Usage: "SQLite database path",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output",
			},
		},
		Action: export.NamespaceAction,
		Commands: []*cli.Command{
			{
				Name:      "namespace",
				Aliases:   []string{"ns"},
				Usage:     "Write the BEL namespace to OUTPUT (default stdout)",
				ArgsUsage: "[OUTPUT]",
				Action:    export.NamespaceAction,
			},
			{
				Name:      "graph",
				Usage:     "Write the BEL graph script to OUTPUT (default stdout)",
				ArgsUsage: "[OUTPUT]",
				Action:    export.GraphAction,
			},
			{
				Name:   "datasets",
				Usage:  "List species tables on the Complex Portal index page",
				Action: datasets.DatasetsAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "urls",
						Usage: "Print download URLs only",
					},
				},
			},
			{
				Name:  "db",
				Usage: "Load and inspect complexes in SQLite",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Create the database schema",
						Action: dbactions.InitAction,
					},
					{
						Name:   "populate",
						Usage:  "Load the cached table into the database",
						Action: dbactions.PopulateAction,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Reload even if the digest matches the stored version",
							},
						},
					},
					{
						Name:   "summarize",
						Usage:  "Print counts for the loaded dataset",
						Action: dbactions.SummarizeAction,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "format",
								Value: "yaml",
								Usage: "Output format: yaml or json",
							},
						},
					},
					{
						Name:   "fetches",
						Usage:  "List recorded fetch attempts",
						Action: dbactions.FetchesAction,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Value: 20,
								Usage: "Maximum rows (0 for all)",
							},
						},
					},
					{
						Name:      "show",
						Usage:     "Show the participants of a complex",
						ArgsUsage: "ACCESSION",
						Action:    dbactions.ShowAction,
					},
				},
			},
			{
				Name:   "quickstart",
				Usage:  "Print a YAML cheat-sheet",
				Action: quickstart.QuickstartAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "section",
						Usage: "Print a single section",
					},
				},
			},
		},
	}
}
