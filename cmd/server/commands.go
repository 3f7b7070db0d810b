package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/webgis-dashboard/internal/chart"
	"github.com/jengzang/webgis-dashboard/internal/database"
	"github.com/jengzang/webgis-dashboard/internal/dataset"
	"github.com/jengzang/webgis-dashboard/internal/logger"
	"github.com/jengzang/webgis-dashboard/internal/repository"
	"github.com/jengzang/webgis-dashboard/internal/service"
)

func (a *app) dashboard() (*service.DashboardService, func(), error) {
	src, closer, err := a.source()
	if err != nil {
		return nil, nil, err
	}
	palette := a.cfg.BrandPalette()
	return service.NewDashboardService(dataset.NewLoader(palette, nil), src, palette), closer, nil
}

func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func newExportCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the grid layer as a GeoJSON FeatureCollection",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.dashboard()
			if err != nil {
				return err
			}
			defer closer()

			lyr, err := svc.GridLayer(commandContext(cmd))
			if err != nil {
				return err
			}

			w, done, err := outputWriter(out)
			if err != nil {
				return err
			}
			if err := json.NewEncoder(w).Encode(lyr.Data); err != nil {
				done()
				return fmt.Errorf("failed to write geojson: %w", err)
			}
			logger.L().Info("grid exported", zap.Int("features", lyr.Len()), zap.String("out", out))
			return done()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func newStatsCommand(a *app) *cobra.Command {
	var (
		asJSON    bool
		chartPath string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print convenience store totals per county",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.dashboard()
			if err != nil {
				return err
			}
			defer closer()

			ctx := commandContext(cmd)
			v, err := svc.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(v); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "縣市\t總店數")
				for _, t := range v.Table {
					fmt.Fprintf(tw, "%s\t%d\n", t.CountyName, t.ConvenienceStoreCount)
				}
				fmt.Fprintf(tw, "合計\t%d\n", v.Summary.Total)
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			if chartPath == "" {
				return nil
			}
			face, err := chart.FindFace(a.cfg.Chart.FontPath)
			if err != nil {
				return err
			}
			svc.SetChartFace(face)
			w, done, err := outputWriter(chartPath)
			if err != nil {
				return err
			}
			if err := svc.WriteChart(ctx, w); err != nil {
				done()
				return err
			}
			return done()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().StringVar(&chartPath, "chart", "", "also write the bar chart PNG to this file")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var pointsPath, gridPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the CSV datasets into the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			data := a.cfg.Data
			if pointsPath == "" {
				pointsPath = data.PointsPath
			}
			if gridPath == "" {
				gridPath = data.GridPath
			}

			src := repository.NewFileSource(pointsPath, gridPath)
			points, err := src.ReadPoints(ctx)
			if err != nil {
				return err
			}
			grid, err := src.ReadGrid(ctx)
			if err != nil {
				return err
			}

			db, err := database.Open(database.Config{Driver: data.Driver, DSN: data.DSN})
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := repository.Stage(ctx, db, data.Driver, points, grid)
			if err != nil {
				return err
			}
			logger.L().Info("datasets imported",
				zap.String("driver", data.Driver),
				zap.Int("points", res.Points),
				zap.Int("cells", res.Cells))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d points, %d grid cells\n", res.Points, res.Cells)
			return nil
		},
	}
	cmd.Flags().StringVar(&pointsPath, "points", "", "points CSV (default: data.points_path)")
	cmd.Flags().StringVar(&gridPath, "grid", "", "grid CSV (default: data.grid_path)")
	return cmd
}
