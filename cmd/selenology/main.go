// selenology runs two builds of selene over a corpus of Lua repositories and
// writes an HTML report of how their output differs.
//
// Usage:
//
//	selenology [--manifest repos.toml] [--jobs N] [--keep-going] > report.html
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spachava753/selenology/internal/config"
	"github.com/spachava753/selenology/internal/executor"
	"github.com/spachava753/selenology/internal/logging"
	"github.com/spachava753/selenology/internal/models"
	"github.com/spachava753/selenology/internal/report"
)

// errEntriesFailed marks a keep-going run that completed with failures.
var errEntriesFailed = errors.New("one or more entries failed")

type options struct {
	manifest    string
	envFile     string
	jobs        int
	keepGoing   bool
	timeout     time.Duration
	granularity string
	cleanup     bool
	dockerImage string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	defaults := config.DefaultRunConfig()
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "selenology",
		Short: "Compare selene output between two builds across a corpus of repositories",
		Long: "selenology snapshots every repository in the corpus, runs the old and new selene\n" +
			"binaries over each one and writes an HTML diff of their output to stdout.\n\n" +
			"Binaries and the scratch directory come from SELENE_OLD, SELENE_NEW and\n" +
			"CLONE_DIRECTORY, optionally loaded from a .env file.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.manifest, "manifest", "", "corpus manifest (.toml, .yaml); defaults to the built-in corpus")
	f.StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment")
	f.IntVar(&opts.jobs, "jobs", defaults.Jobs, "entries to process concurrently")
	f.BoolVar(&opts.keepGoing, "keep-going", defaults.KeepGoing, "report failed entries and continue")
	f.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "per-command timeout (0 disables)")
	f.StringVar(&opts.granularity, "granularity", string(defaults.Granularity), "diff granularity: line or char")
	f.BoolVar(&opts.cleanup, "cleanup", defaults.Cleanup, "remove each snapshot after it is reported")
	f.StringVar(&opts.dockerImage, "docker-image", defaults.DockerImage, "run the tools inside this container image")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if err := logging.Setup(opts.logLevel); err != nil {
		return err
	}

	cfg, err := config.ValidateRunConfig(models.RunConfig{
		Jobs:        opts.jobs,
		KeepGoing:   opts.keepGoing,
		Timeout:     opts.timeout,
		Granularity: models.Granularity(opts.granularity),
		Cleanup:     opts.cleanup,
		DockerImage: opts.dockerImage,
	})
	if err != nil {
		return err
	}

	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}
	env, err := config.LoadEnvConfig()
	if err != nil {
		return err
	}

	w := report.NewWriter(os.Stdout)
	result, err := executor.RunFromConfig(ctx, env, cfg, opts.manifest, w)
	if result != nil {
		slog.Info("run finished",
			"fragments", w.Fragments(),
			"total", result.TotalEntries,
			"unchanged", result.UnchangedEntries,
			"changed", result.ChangedEntries,
			"failed", result.FailedEntries,
			"skipped", result.SkippedEntries,
			"cancelled", result.Cancelled,
			"duration_sec", fmt.Sprintf("%.2f", result.TotalDurationSec))
	}
	if err != nil {
		return err
	}
	if result.FailedEntries > 0 {
		return errEntriesFailed
	}
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("interrupt received, shutting down", "signal", sig)
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)

	signal.Stop(sigChan)
	cancel()

	if err != nil {
		var entryErr *models.EntryError
		if errors.As(err, &entryErr) {
			slog.Error("run failed", "id", entryErr.ID, "phase", entryErr.Phase, "type", entryErr.Type, "error", entryErr.Err)
		} else {
			slog.Error("run failed", "error", err)
		}
		os.Exit(1)
	}
}
