package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dtnitsch/complexportal/internal/common"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// InitAction creates the schema if it does not exist yet.
func InitAction(c *cli.Context) error {
	if err := noArgs(c); err != nil {
		return err
	}
	database, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		return common.ExitError(fmt.Errorf("failed to initialize schema: %w", err))
	}
	fmt.Fprintf(c.App.Writer, "Database initialized at %s\n", database.Path())
	return nil
}

// PopulateAction refreshes the cache and loads its complexes into the
// database, replacing the previous load.
func PopulateAction(c *cli.Context) error {
	if err := noArgs(c); err != nil {
		return err
	}
	database, config, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()
	logger := common.NewLogger(c)

	p, cleanup, err := common.NewPipeline(c, config, logger)
	if err != nil {
		return common.ExitError(err)
	}
	defer cleanup()
	if p.Recorder == nil {
		p.Recorder = database
	}

	populated, err := database.IsPopulated()
	if err != nil {
		return common.ExitError(err)
	}
	version, _, err := p.Refresh(c.Context)
	if err != nil {
		return common.ExitError(err)
	}
	if populated && !c.Bool("force") {
		summary, err := database.Summarize()
		if err != nil {
			return common.ExitError(err)
		}
		if version == summary.Version {
			fmt.Fprintf(c.App.ErrWriter, "`%s` has not changed; exiting\n", config.URL)
			fmt.Fprintf(c.App.ErrWriter, "use --force to reload %s\n", database.Path())
			return nil
		}
	}

	records, err := p.Parser.Open(p.Cache.Path())
	if err != nil {
		return common.ExitError(err)
	}
	defer records.Close()

	result, err := database.Populate(records, version)
	if err != nil {
		return common.ExitError(fmt.Errorf("failed to populate database: %w", err))
	}
	if result.Skipped > 0 {
		logger.Warn("skipped malformed rows", "count", result.Skipped)
	}
	logger.Info("populated database", "path", database.Path(), "load_id", result.LoadID, "version", version)

	fmt.Fprintf(c.App.Writer, "Loaded %d complexes with %d participants (version %s)\n",
		result.Complexes, result.Participants, version)
	return nil
}

// SummarizeAction prints counts for the loaded dataset as yaml or json.
func SummarizeAction(c *cli.Context) error {
	if err := noArgs(c); err != nil {
		return err
	}
	database, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	summary, err := database.Summarize()
	if err != nil {
		return common.ExitError(err)
	}

	var out []byte
	switch format := c.String("format"); format {
	case "yaml", "":
		out, err = yaml.Marshal(summary)
	case "json":
		out, err = json.MarshalIndent(summary, "", "  ")
		out = append(out, '\n')
	default:
		return cli.Exit(fmt.Sprintf("unsupported format %q (expected yaml or json)", format), common.ExitUsage)
	}
	if err != nil {
		return common.ExitError(fmt.Errorf("failed to marshal summary: %w", err))
	}
	_, err = c.App.Writer.Write(out)
	return err
}

// FetchesAction lists recorded download attempts, newest first.
func FetchesAction(c *cli.Context) error {
	if err := noArgs(c); err != nil {
		return err
	}
	database, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	fetches, err := database.ListFetches(c.Int("limit"))
	if err != nil {
		return common.ExitError(err)
	}

	out := c.App.Writer
	if len(fetches) == 0 {
		fmt.Fprintln(out, "No fetches recorded")
		fmt.Fprintf(out, "\nTip: Use '--record' with namespace or graph to track fetches\n")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-20s %-8s %-14s %-12s %s\n", "ID", "Fetched", "Status", "Error", "Size", "Digest")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, f := range fetches {
		status := "ok"
		if !f.Success {
			status = "failed"
		}
		digest := f.Digest
		if len(digest) > 16 {
			digest = digest[:16]
		}
		fmt.Fprintf(out, "%-6d %-20s %-8s %-14s %-12d %s\n",
			f.FetchID,
			f.FetchedAt.Format("2006-01-02 15:04:05"),
			status,
			f.ErrorType,
			f.SizeBytes,
			digest,
		)
	}
	fmt.Fprintf(out, "\nTotal: %d fetches\n", len(fetches))
	return nil
}

// ShowAction prints the participants of one complex.
func ShowAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(fmt.Sprintf("requires exactly 1 argument: ACCESSION, got %d", c.NArg()), common.ExitUsage)
	}
	accession := c.Args().First()

	database, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	participants, err := database.GetComplexParticipants(accession)
	if err != nil {
		return common.ExitError(err)
	}
	if len(participants) == 0 {
		return cli.Exit(fmt.Sprintf("complex %s not found", accession), common.ExitFailure)
	}

	fmt.Fprintf(c.App.Writer, "%s (%d participants)\n", accession, len(participants))
	fmt.Fprintln(c.App.Writer, strings.Repeat("-", 40))
	for i, p := range participants {
		fmt.Fprintf(c.App.Writer, "%2d. %s\n", i+1, p)
	}
	return nil
}
