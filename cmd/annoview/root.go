package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dshills/annomodel/internal/app"
	"github.com/dshills/annomodel/internal/config"
	"github.com/dshills/annomodel/internal/logging"
	"github.com/dshills/annomodel/internal/renderer/backend"
)

var (
	configPath string
	listOnly   bool
	noDiff     bool
)

var rootCmd = &cobra.Command{
	Use:   "annoview [flags] FILE",
	Short: "View a file with its annotations in the gutter",
	Long: `annoview shows a file with a sign column for TODO-style task markers,
uncommitted git changes and bookmarks, plus an overview ruler on the right.

Keys: j/k or arrows move, g/G jump to the ends, b toggles a bookmark,
n goes to the next bookmark, d deletes the current line, r refreshes the
diff, q quits.

When standard output is not a terminal the annotations are listed instead.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.Flags().BoolVarP(&listOnly, "list", "l", false, "List annotations and exit")
	rootCmd.Flags().BoolVar(&noDiff, "no-diff", false, "Do not read git diff marks")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	viewer, err := app.Open(args[0], cfg, app.WithLogger(log))
	if err != nil {
		return err
	}
	defer viewer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !noDiff {
		diffCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := viewer.RefreshDiff(diffCtx); err != nil {
			log.Warn("diff marks unavailable: %v", err)
		}
		cancel()
	}

	if listOnly || !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		viewer.Tasks().Flush()
		return viewer.List(cmd.OutOrStdout())
	}
	return view(ctx, viewer, log)
}

func view(ctx context.Context, viewer *app.Application, log *logging.Logger) error {
	term, err := backend.NewTerminal()
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}
	if err := term.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer term.Fini()

	if configPath != "" {
		w, err := config.Watch(configPath, func(cfg config.Config, err error) {
			if err != nil {
				log.Warn("config reload: %v", err)
				return
			}
			viewer.ApplyConfig(cfg)
			log.Info("config reloaded")
			term.Interrupt()
		})
		if err != nil {
			log.Warn("not watching %s: %v", configPath, err)
		} else {
			defer w.Close()
		}
	}

	return viewer.Run(ctx, term)
}

// openLog opens the configured log file. Without one, logging is off:
// the terminal belongs to the viewer.
func openLog(cfg config.Config) (*logging.Logger, func(), error) {
	if cfg.Log.File == "" {
		return logging.Null(), func() {}, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: f,
		Prefix: "annoview",
	})
	return log, func() { _ = f.Close() }, nil
}
