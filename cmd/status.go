package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timvw/hostshot/internal/sysinfo"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the host summary sent for /status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), sysinfo.Report(sysinfo.Collect()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
