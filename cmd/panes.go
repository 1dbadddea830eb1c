package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagPanesList   bool
	flagPanesFilter string
)

var panesCmd = &cobra.Command{
	Use:   "panes",
	Short: "Show the multiplexer fallback report",
	Long: `Print the report the bot sends when no screenshot can be taken: the
multiplexer sessions and the last lines of the most relevant panes.

With --list, print one pane target per line instead. Optionally filter by
session name using a regex pattern.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if flagPanesList {
			m, err := getMultiplexer()(ctx)
			if err != nil {
				return err
			}
			panes, err := m.ListPanes(ctx, flagPanesFilter)
			if err != nil {
				return fmt.Errorf("failed to list panes: %w", err)
			}
			for _, p := range panes {
				fmt.Fprintln(cmd.OutOrStdout(), p.Target)
			}
			return nil
		}

		a, err := newAgent(cfg, nil)
		if err != nil {
			return err
		}
		report, err := a.reporter.Report(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.Text(0))
		return nil
	},
}

func init() {
	panesCmd.Flags().BoolVar(&flagPanesList, "list", false, "list pane targets only")
	panesCmd.Flags().StringVar(&flagPanesFilter, "filter", "", "regex pattern to filter by session name (with --list)")
	rootCmd.AddCommand(panesCmd)
}
