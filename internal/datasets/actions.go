package datasets

import (
	"fmt"
	"path"
	"strings"

	"github.com/dtnitsch/complexportal/internal/common"
	"github.com/dtnitsch/complexportal/pkg/fetcher"
	"github.com/urfave/cli/v2"
)

// DatasetsAction lists the species tables published on the Complex Portal
// index page. With --urls only the download URLs are printed.
func DatasetsAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.Exit(fmt.Sprintf("datasets takes no arguments, got %d", c.NArg()), common.ExitUsage)
	}
	config, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), common.ExitUsage)
	}
	logger := common.NewLogger(c)

	f := fetcher.NewFetcher(config.ChunkSize, config.Timeout)
	logger.Info("listing datasets", "index_url", config.IndexURL)
	datasets, err := f.ListDatasets(c.Context, config.IndexURL)
	if err != nil {
		return common.ExitError(fmt.Errorf("failed to list datasets: %w", err))
	}

	out := c.App.Writer
	if len(datasets) == 0 {
		fmt.Fprintln(out, "No datasets found")
		return nil
	}

	if c.Bool("urls") {
		for _, d := range datasets {
			fmt.Fprintln(out, d.URL)
		}
		return nil
	}

	fmt.Fprintf(out, "%-40s %s\n", "Name", "URL")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, d := range datasets {
		marker := ""
		if path.Base(d.URL) == path.Base(config.URL) {
			marker = " *"
		}
		fmt.Fprintf(out, "%-40s %s%s\n", d.Name, d.URL, marker)
	}
	fmt.Fprintf(out, "\nTotal: %d datasets (* = configured url)\n", len(datasets))
	fmt.Fprintf(out, "\nTip: Use 'complexportal --url <URL> namespace' to convert another species\n")
	return nil
}
