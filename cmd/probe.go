package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show the detected environment and capture methods",
	Long: `Classify the host and list every capture method in priority order,
marking which apply here and which have their tools installed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newAgent(cfg, nil)
		if err != nil {
			return err
		}

		c := a.probe.Classify(ctx)
		st := newPrinter().Styles
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, st.Title.Render("Environment"))
		fmt.Fprintf(out, "  os       %s\n", c.OS)
		fmt.Fprintf(out, "  context  %s\n", c.Context)
		fmt.Fprintf(out, "  display  %s", c.Display)
		if c.DisplayName != "" {
			fmt.Fprintf(out, " %s", st.Dim.Render("("+c.DisplayName+")"))
		}
		fmt.Fprintln(out)
		if c.KernelRelease != "" {
			fmt.Fprintf(out, "  kernel   %s\n", st.Dim.Render(c.KernelRelease))
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, st.Title.Render("Capture methods"))
		for _, m := range a.registry.Inspect(ctx, c) {
			variants := make([]string, len(m.Variants))
			for i, v := range m.Variants {
				variants[i] = v.String()
			}
			name := fmt.Sprintf("%-18s", m.Name)
			vs := strings.Join(variants, ",")
			switch {
			case !m.Applies:
				fmt.Fprintf(out, "  %s %s %s\n", st.Dim.Render("-"), st.Dim.Render(name), st.Dim.Render("n/a "+vs))
			case m.Available:
				fmt.Fprintf(out, "  %s %s %s\n", st.Good.Render("✓"), st.Name.Render(name), vs)
			default:
				fmt.Fprintf(out, "  %s %s %s\n", st.Bad.Render("✗"), st.Name.Render(name), vs+st.Dim.Render(" (not installed)"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
