package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bankrot-check/internal/components/configutil"
	"bankrot-check/internal/components/telemetry"

	"github.com/spf13/cobra"
)

const serviceName = "bankrot-check"

var verbose *bool
var telemetryConfig *string

var providers telemetry.Providers

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
	telemetryConfig = rootCmd.PersistentFlags().String("telemetry", "telemetry.json5", "The OTLP export config, ignored if missing.")
}

var rootCmd = &cobra.Command{
	Use:   "bankrot-check",
	Short: "bankrot-check looks people up in the federal bankruptcy registry.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)
		if *verbose {
			slog.DebugContext(cmd.Context(), "verbose logging enabled")
		}

		cfg, err := configutil.ReadConfig[telemetry.Config](*telemetryConfig)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read telemetry config: %w", err)
		}
		providers, err = telemetry.Setup(cmd.Context(), serviceName, cfg)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		telemetry.InstrumentPerfStats(cmd.Context())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := providers.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
