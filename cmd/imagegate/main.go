package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/basel-ax/imagegate/internal/api"
	"github.com/basel-ax/imagegate/internal/config"
	"github.com/basel-ax/imagegate/internal/domain"
	"github.com/basel-ax/imagegate/internal/infrastructure/infip"
	"github.com/basel-ax/imagegate/internal/logging"
	"github.com/basel-ax/imagegate/internal/metrics"
	"github.com/basel-ax/imagegate/internal/repository"
	"github.com/basel-ax/imagegate/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(runMain(os.Args[1:]))
}

// runMain returns the process exit code so deferred cleanup runs before exit
func runMain(args []string) int {
	// Parse command line flags
	flags := flag.NewFlagSet("imagegate", flag.ContinueOnError)
	verbose := flags.Bool("verbose", false, "Enable verbose development logging")
	runServer := flags.Bool("serve", false, "Serve the HTTP API")
	runProbe := flags.Bool("probe", false, "Run both diagnostic probes once and print the results")
	runCron := flags.Bool("cron", false, "Run the models probe on PROBE_SCHEDULE")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if !*runServer && !*runProbe && !*runCron {
		fmt.Fprintln(os.Stderr, "Please specify at least one mode to run: -serve, -probe, or -cron")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, modes{serve: *runServer, probe: *runProbe, cron: *runCron}, os.Stdout); err != nil {
		logger.Error("exiting with error", zap.Error(err))
		return 1
	}
	logger.Info("shut down gracefully")
	return 0
}

type modes struct {
	serve bool
	probe bool
	cron  bool
}

type app struct {
	generation  *service.GenerationService
	models      *service.ModelRegistry
	history     *service.HistoryService
	diagnostics *service.Diagnostics
	metrics     *metrics.Collector
	closers     []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// build wires the services from configuration
func build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	collector := metrics.NewCollector("imagegate")
	client := infip.NewClient(cfg.InfipBaseURL, cfg.InfipAPIKey, cfg.UpstreamTimeout, logger)

	a := &app{metrics: collector}

	var historySource domain.HistorySource = client
	if cfg.HistoryBackend == config.HistoryBackendPostgres {
		logger.Info("initializing database connection", zap.String("host", cfg.DB.Host), zap.String("database", cfg.DB.Database))
		db, err := sql.Open("postgres", cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db)
		historySource = repository.NewHistorySource(repository.NewPostgresHistoryRepository(db), cfg.HistoryLimit)
		logger.Info("database connection established")
	}

	a.generation = service.NewGenerationService(client, cfg, collector, logger)

	// Successful listings widen the set of model ids used as metric labels
	lister := domain.ModelListerFunc(func(ctx context.Context) ([]domain.ModelDescriptor, error) {
		models, err := client.ListModels(ctx)
		if err == nil && len(models) > 0 {
			a.generation.RememberModels(models)
		}
		return models, err
	})
	a.models = service.NewModelRegistry(lister, collector, logger)
	a.history = service.NewHistoryService(historySource, collector, logger)
	a.diagnostics = service.NewDiagnostics(client, cfg.DiagnosticTimeout, collector, logger)
	return a, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, m modes, out io.Writer) error {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if m.probe {
		if err := printProbes(ctx, a.diagnostics, out); err != nil {
			return err
		}
		if !m.serve && !m.cron {
			return nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if m.serve {
		server := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: api.NewHandler(gctx, api.Dependencies{
				Generator:   a.generation,
				Models:      a.models,
				History:     a.history,
				Diagnostics: a.diagnostics,
				Metrics:     a.metrics,
				Logger:      logger,
			}, api.Options{
				GenerateRPS:   cfg.GenerateRPS,
				GenerateBurst: cfg.GenerateBurst,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if m.cron {
		g.Go(func() error {
			return runProbeSchedule(gctx, cfg.ProbeSchedule, a.diagnostics, logger)
		})
	}

	return g.Wait()
}

type probeReport struct {
	Connection domain.DiagnosticResult `json:"connection"`
	Models     domain.DiagnosticResult `json:"models"`
}

// printProbes runs both diagnostics once and writes them as indented JSON
func printProbes(ctx context.Context, diag *service.Diagnostics, out io.Writer) error {
	report := probeReport{
		Connection: diag.TestConnection(ctx),
		Models:     diag.TestModelsEndpoint(ctx),
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write probe report: %w", err)
	}
	return nil
}
