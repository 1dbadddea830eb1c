package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/hostshot/internal/handler"
	"github.com/timvw/hostshot/internal/model"
)

var (
	flagCaptureOutput string
	flagCaptureCompat bool
)

var errNoImage = errors.New("no screenshot captured")

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take a screenshot locally",
	Long: `Run the same capture chain the bot uses and write the image to a file.

When no capture method works, the multiplexer report (or the explanation of
what failed) is printed instead and the command exits non-zero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tel := initTelemetry(ctx)
		defer shutdownTelemetry(tel)

		a, err := newAgent(cfg, tel.Metrics)
		if err != nil {
			return err
		}

		variant := model.VariantScreen
		if flagCaptureCompat {
			variant = model.VariantCompat
		}
		action := a.handler.Handle(ctx, handler.Request{Variant: variant})

		p := newPrinter()
		if action.Kind == model.SendText {
			fmt.Fprintln(cmd.OutOrStdout(), action.Text)
			return errNoImage
		}

		path := flagCaptureOutput
		if path == "" {
			path = action.Filename
		}
		if err := os.WriteFile(path, action.Data, 0o644); err != nil {
			return fmt.Errorf("writing screenshot: %w", err)
		}
		p.Success("%s (%d bytes, %s)", path, len(action.Data), action.Caption)
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVarP(&flagCaptureOutput, "output", "o", "", "output file (default: screenshot-<timestamp>.png)")
	captureCmd.Flags().BoolVar(&flagCaptureCompat, "compat", false, "only use methods that cross the WSL boundary (like /wsl_screenshot)")
	rootCmd.AddCommand(captureCmd)
}
