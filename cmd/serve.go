package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xmin-city/xmin/internal/category"
	"github.com/xmin-city/xmin/internal/config"
	"github.com/xmin-city/xmin/internal/district"
	"github.com/xmin-city/xmin/internal/grid"
	"github.com/xmin-city/xmin/internal/overpass"
	"github.com/xmin-city/xmin/internal/poi"
	"github.com/xmin-city/xmin/internal/resilience"
	"github.com/xmin-city/xmin/internal/routing"
	"github.com/xmin-city/xmin/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the accessibility API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rules, err := loadRules(cfg)
		if err != nil {
			return err
		}

		departure, err := cfg.Routing.DepartureTime()
		if err != nil {
			return err
		}

		// Grid and district loads are independent disk work.
		var (
			cells     *grid.Store
			districts *district.Store
		)
		var g errgroup.Group
		g.Go(func() error {
			var err error
			cells, err = loadGrid(cfg)
			return err
		})
		g.Go(func() error {
			var err error
			districts, err = district.Load(cfg.Data.DistrictsShp, cfg.Data.DistrictIDField)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("reference data loaded",
			zap.Int("grid_cells", cells.Len()),
			zap.Int("districts", districts.Len()),
		)

		source := overpass.NewClient(cfg.Overpass.URL, rules, overpassBBox(cfg),
			overpass.WithQueryTimeout(cfg.Overpass.TimeoutSecs),
			overpass.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Overpass.TimeoutSecs+30) * time.Second}),
		)
		router := routing.NewClient(cfg.Routing.URL,
			routing.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Routing.TimeoutSecs) * time.Second}),
		)

		ready := &server.Readiness{}
		cache := poi.NewCache()

		// Warm the POI cache in the background; the API answers 503 until the
		// state is published.
		go func() {
			err := cache.Warm(ctx, source, poi.WarmConfig{
				Categories: rules.Categories(),
				Cooldown:   time.Duration(cfg.Overpass.CooldownSecs) * time.Second,
				Policy:     retryPolicy(cfg.Overpass.Retry),
			})
			if err != nil {
				zap.L().Error("poi warmup aborted", zap.Error(err))
				return
			}
			ready.Publish(&server.State{
				Grid:             cells,
				Districts:        districts,
				POIs:             cache,
				Rules:            rules,
				Routing:          router,
				Modes:            cfg.Modes,
				Departure:        departure,
				RoutingTimeout:   time.Duration(cfg.Routing.TimeoutSecs) * time.Second,
				GridLimitDefault: cfg.API.GridLimitDefault,
				GridLimitMax:     cfg.API.GridLimitMax,
			})
			zap.L().Info("poi warmup complete, serving requests",
				zap.Int("pois", cache.Len()),
			)
		}()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.NewRouter(ready),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func loadRules(cfg *config.Config) (*category.RuleSet, error) {
	if cfg.Categories.File == "" {
		return category.Default(), nil
	}
	return category.Load(cfg.Categories.File)
}

func loadGrid(cfg *config.Config) (*grid.Store, error) {
	switch cfg.Data.GridSource {
	case "sqlite":
		return grid.LoadSQLite(cfg.Data.GridSQLite, cfg.Grid.CellSizeM)
	case "csv":
		return grid.LoadCSV(cfg.Data.GridCSV, cfg.Grid.CellSizeM)
	default:
		return nil, eris.Errorf("unknown grid source %q (want csv or sqlite)", cfg.Data.GridSource)
	}
}

func overpassBBox(cfg *config.Config) overpass.BBox {
	b := cfg.Overpass.BBox
	return overpass.BBox{South: b[0], West: b[1], North: b[2], East: b[3]}
}

func retryPolicy(rc config.RetryConfig) resilience.Policy {
	return resilience.Policy{
		ShortAttempts: rc.ShortAttempts,
		ShortDelay:    time.Duration(rc.ShortDelaySecs) * time.Second,
		LongDelay:     time.Duration(rc.LongDelaySecs) * time.Second,
		MaxAttempts:   rc.MaxAttempts,
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
