package commands

import (
	"fmt"

	"github.com/leapstack-labs/crickflat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the CSV exports into the sink",
		Long: `Read matches.csv and deliveries.csv from the export directory and replace
the sink tables with their rows. Empty fields load as NULL.

Use this to rebuild the sink from a previous export without re-reading the
source documents.`,
		Example: `  crickflat load
  crickflat load --export-dir processing --database cricket.db`,
		Args: cobra.NoArgs,
		RunE: runLoad,
	}
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cmdCtx.Engine.LoadExports(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]int{
			"match_rows":    res.MatchRows,
			"delivery_rows": res.DeliveryRows,
		})
	}

	r.Success(fmt.Sprintf("Loaded %d matches and %d deliveries into %s",
		res.MatchRows, res.DeliveryRows, cmdCtx.Cfg.Target.Type))
	return nil
}
