package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/hostshot/internal/config"
	"github.com/timvw/hostshot/internal/logging"
	"github.com/timvw/hostshot/internal/mux"
	telem "github.com/timvw/hostshot/internal/otel"
)

var (
	// Global flags.
	flagConfig  string
	flagMux     string
	flagVerbose bool
	flagJSON    bool
	flagTheme   string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hostshot",
	Short: "Remote screenshot and diagnostics agent",
	Long: `hostshot is a diagnostic agent that answers chat commands with screenshots
and host information.

It works out what kind of machine it runs on (native, WSL, X11, Wayland,
headless) and tries every capture method that fits, in order. When no image
can be taken it reports what the terminal multiplexer shows instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if flagMux != "" {
			cfg.Multiplexer = flagMux
		}

		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger := logging.Setup(level, flagJSON || cfg.LogFormat == "json", os.Stderr)
		if cfg.ConfigFile != "" {
			logger.Debug("config loaded", "path", cfg.ConfigFile)
		}

		telem.Version = Version
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", envOrDefault("HOSTSHOT_CONFIG", ""), "config file (default: .hostshot.yaml or ~/.config/hostshot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagMux, "mux", "", "terminal multiplexer for the fallback report: tmux, zellij (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "log as JSON")
	rootCmd.PersistentFlags().StringVar(&flagTheme, "theme", envOrDefault("HOSTSHOT_THEME", "dark"), "color theme for terminal output: dark, light")
}

// getMultiplexer returns a detector for the configured or auto-detected
// multiplexer.
func getMultiplexer() func(ctx context.Context) (mux.Multiplexer, error) {
	name := cfg.Multiplexer
	if name == "" {
		return mux.Detect
	}
	return func(context.Context) (mux.Multiplexer, error) {
		return mux.FromName(name)
	}
}

func newPrinter() *logging.Printer {
	p := logging.NewPrinter()
	p.Styles = logging.NewStyles(logging.ThemeByName(flagTheme))
	return p
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
