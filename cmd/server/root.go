package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/webgis-dashboard/internal/config"
	"github.com/jengzang/webgis-dashboard/internal/database"
	"github.com/jengzang/webgis-dashboard/internal/logger"
	"github.com/jengzang/webgis-dashboard/internal/repository"
)

// app carries what PersistentPreRunE initialised to the subcommands
type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "webgis",
		Short: "WebGIS retail map dashboard backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path (default: ./config.yaml)")

	cmd.AddCommand(
		newServeCommand(a),
		newExportCommand(a),
		newStatsCommand(a),
		newImportCommand(a),
	)
	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	return logger.Init(logger.Options{
		Development: cfg.Log.Development,
		Level:       cfg.Log.Level,
		Path:        cfg.Log.Path,
	})
}

// source opens the configured dataset backend. The returned func releases it.
func (a *app) source() (repository.Source, func(), error) {
	data := a.cfg.Data
	if data.Backend != config.BackendQuery {
		return repository.NewFileSource(data.PointsPath, data.GridPath), func() {}, nil
	}

	db, err := database.Open(database.Config{Driver: data.Driver, DSN: data.DSN})
	if err != nil {
		return nil, nil, err
	}
	name := fmt.Sprintf("%s:%s", data.Driver, data.DSN)
	closer := func() {
		if err := db.Close(); err != nil {
			logger.L().Warn("failed to close database", zap.Error(err))
		}
	}
	return repository.NewQuerySource(name, db, data.PointsQuery, data.GridQuery), closer, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
