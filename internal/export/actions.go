package export

import (
	"github.com/dtnitsch/complexportal/internal/common"
	"github.com/dtnitsch/complexportal/models"
	"github.com/dtnitsch/complexportal/pkg/graph"
	"github.com/dtnitsch/complexportal/pkg/namespace"
	"github.com/dtnitsch/complexportal/pkg/pipeline"
	"github.com/urfave/cli/v2"
)

// NamespaceAction writes the BEL namespace of complex accessions to the
// optional OUTPUT argument, or stdout.
func NamespaceAction(c *cli.Context) error {
	return run(c, func(config *models.Config) pipeline.Emitter {
		return namespace.NewEmitter(config.Namespace)
	})
}

// GraphAction writes complexes and their components as a BEL script.
func GraphAction(c *cli.Context) error {
	return run(c, func(config *models.Config) pipeline.Emitter {
		return &graph.Emitter{
			Name:  config.Namespace.Name,
			Field: config.Namespace.IdentifierField,
		}
	})
}

func run(c *cli.Context, newEmitter func(*models.Config) pipeline.Emitter) error {
	// Argument count is checked before anything touches the network or disk.
	output, err := common.OutputArg(c)
	if err != nil {
		return err
	}

	config, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), common.ExitUsage)
	}
	logger := common.NewLogger(c)

	p, cleanup, err := common.NewPipeline(c, config, logger)
	if err != nil {
		return common.ExitError(err)
	}
	defer cleanup()

	e := newEmitter(config)
	result, err := p.Run(c.Context, output, e)
	if err != nil {
		logger.Error("run failed", "kind", e.Kind(), "error", err)
		return common.ExitError(err)
	}

	logger.Info("done",
		"kind", e.Kind(),
		"digest", result.Digest,
		"fetched", result.Fetched,
		"unchanged", result.Unchanged,
		"skipped_rows", result.Skipped,
	)
	return nil
}
