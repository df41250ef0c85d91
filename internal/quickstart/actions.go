package quickstart

import (
	"fmt"

	"github.com/dtnitsch/complexportal/internal/common"
	"github.com/dtnitsch/complexportal/pkg/help"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// QuickstartAction prints the cheat-sheet. With --section only that key is
// printed.
func QuickstartAction(c *cli.Context) error {
	section := c.String("section")
	if section == "" {
		_, err := fmt.Fprint(c.App.Writer, help.ColdstartYAML)
		return err
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal([]byte(help.ColdstartYAML), &doc); err != nil {
		return fmt.Errorf("failed to parse quickstart: %w", err)
	}
	node, ok := doc[section]
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown section %q", section), common.ExitUsage)
	}
	out, err := yaml.Marshal(map[string]*yaml.Node{section: &node})
	if err != nil {
		return fmt.Errorf("failed to marshal section: %w", err)
	}
	_, err = c.App.Writer.Write(out)
	return err
}
