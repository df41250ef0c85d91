package db

import (
	"fmt"

	"github.com/dtnitsch/complexportal/internal/common"
	"github.com/dtnitsch/complexportal/models"
	dbpkg "github.com/dtnitsch/complexportal/pkg/db"
	"github.com/urfave/cli/v2"
)

// openDatabase loads config and opens the database it names.
func openDatabase(c *cli.Context) (*dbpkg.DB, *models.Config, error) {
	config, err := common.LoadConfig(c)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), common.ExitUsage)
	}
	database, err := dbpkg.Open(config.DBPath)
	if err != nil {
		return nil, nil, common.ExitError(fmt.Errorf("failed to open database: %w", err))
	}
	return database, config, nil
}

func noArgs(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.Exit(fmt.Sprintf("%s takes no arguments, got %d", c.Command.Name, c.NArg()), common.ExitUsage)
	}
	return nil
}
