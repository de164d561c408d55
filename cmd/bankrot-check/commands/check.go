package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bankrot-check/internal/batch"
	"bankrot-check/internal/components/chrono"
	"bankrot-check/internal/components/serviceutil"
	"bankrot-check/internal/components/telemetry"
	"bankrot-check/internal/registry"
	"bankrot-check/internal/roster"
	"bankrot-check/internal/store"

	"github.com/spf13/cobra"
)

var checkConfig *string

func init() {
	flags := checkCmd.Flags()
	checkConfig = flags.String("config", "bankrot.json5", "The config file, ignored if missing.")
	flags.StringP("input", "i", defaultInput, "The roster workbook to check.")
	flags.StringP("output", "o", "", "The output file or libsql url, defaults to a timestamped file in --output-dir.")
	flags.String("output-dir", defaultOutputDir, "The directory timestamped output files are created in.")
	flags.String("store", string(store.KindXLSX), "The output kind, xlsx or sqlite.")
	flags.IntP("workers", "w", 1, "The number of people checked at the same time.")
	flags.String("proxy", "", "An http(s) or socks5 proxy url.")
	flags.Float64("rate-limit", 0, "The max requests per second per worker, 0 for unlimited.")
	flags.Int("max-attempts", registry.DefaultMaxAttempts, "The max requests made for one person.")
	flags.String("dump-dir", "", "Write every HTTP exchange to this directory.")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [--input <roster.xlsx>] [--output <result.xlsx>]",
	Short: "Checks every person of a roster and writes the results.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(*checkConfig)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		err = cfg.applyFlags(cmd.Flags())
		if err != nil {
			serviceutil.Fatal("failed to read flags", err)
		}
		cfg = cfg.withDefaults()

		summary, err := runCheck(cmd.Context(), cfg, chrono.NewStandardImpl(nil))
		if errors.Is(err, context.Canceled) {
			slog.Warn("check interrupted", "checked", len(summary.Results))
		} else if err != nil {
			serviceutil.Fatal("check failed", err)
		}

		summary.Render(os.Stdout)
	},
}

func runCheck(ctx context.Context, cfg Config, clock chrono.API) (batch.Summary, error) {
	tel := telemetry.SlogAPI{}

	subjects, err := roster.Load(cfg.Input)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("load roster: %w", err)
	}
	slog.Info("roster loaded", "path", cfg.Input, "people", len(subjects))

	location := cfg.outputLocation(clock)
	if !isURL(location) {
		err = os.MkdirAll(filepath.Dir(location), 0777)
		if err != nil {
			return batch.Summary{}, fmt.Errorf("create output dir: %w", err)
		}
	}
	out, err := store.Open(store.Kind(cfg.Store), location, tel)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("open output: %w", err)
	}
	defer out.Close()

	summary, err := batch.Run(ctx, subjects, batch.Options{
		Workers:    cfg.Workers,
		NewChecker: sessionFactory(cfg, tel),
		Store:      out,
		Telemetry:  tel,
	})
	slog.Info("results written", "output", location, "seconds", summary.Duration.Seconds())
	return summary, err
}

func sessionFactory(cfg Config, tel telemetry.API) func(worker int) (batch.Checker, error) {
	return func(worker int) (batch.Checker, error) {
		opts := cfg.sessionOptions()
		opts.Telemetry = tel
		if cfg.DumpDir != "" {
			output, err := telemetry.NewFilesystemOutput(filepath.Join(cfg.DumpDir, fmt.Sprintf("worker_%d", worker)))
			if err != nil {
				return nil, fmt.Errorf("create dump dir: %w", err)
			}
			opts.Messages = output
		}
		session, err := registry.NewSession(opts)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}
