package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cwbudde/circleopt/internal/config"
	"github.com/cwbudde/circleopt/internal/solve"
	"github.com/cwbudde/circleopt/internal/store"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
	dataDir    string
	cfg        config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "circleopt",
	Short: "Find every optimum and root of periodic functions",
	Long: `circleopt locates all critical points and zero crossings of a smooth
function on the circle, and single critical points of functions on the line.
It also intersects circles on the unit sphere, runs YAML problem batches and
serves solve jobs over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.Server.DataDir = dataDir
		}

		level, err := config.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stderr, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Base directory for stored results")
}

// newSolver builds a solver from the loaded config. Results are stored under
// the data directory only when persist is set.
func newSolver(persist bool) (*solve.Solver, error) {
	var st *store.FSStore
	if persist {
		var err error
		st, err = store.NewFSStore(cfg.Server.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create result store: %w", err)
		}
	}
	return solve.New(cfg, st), nil
}

func openStore() (*store.FSStore, error) {
	st, err := store.NewFSStore(cfg.Server.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create result store: %w", err)
	}
	return st, nil
}
