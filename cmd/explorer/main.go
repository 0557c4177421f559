// Command explorer serves the narrative MPG explorer over HTTP and NATS.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/WessleyAI/mpg-narrative/engine/dataset"
	"github.com/WessleyAI/mpg-narrative/engine/domain"
	"github.com/WessleyAI/mpg-narrative/engine/narrative"
	"github.com/WessleyAI/mpg-narrative/engine/render"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
	"github.com/WessleyAI/mpg-narrative/pkg/config"
	"github.com/WessleyAI/mpg-narrative/pkg/metrics"
	"github.com/WessleyAI/mpg-narrative/pkg/mid"
	"github.com/WessleyAI/mpg-narrative/pkg/resilience"
)

const healthService = "mpg.explorer"

func main() {
	cfg := config.Load()
	flag.StringVar(&cfg.Dataset, "dataset", cfg.Dataset, "CSV path, http(s) URL, postgres:// or neo4j:// location")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	flag.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS server URL (empty disables NATS)")
	flag.BoolVar(&cfg.DismissOnExplore, "dismiss", cfg.DismissOnExplore, "hide annotations once an exploration control is used")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("explorer exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met := metrics.New()
	met.CollectRuntime(ctx, "mpg", 15*time.Second)

	// --- Dataset ---
	src, err := dataset.Open(cfg.Dataset, dataset.Options{Timeout: cfg.FetchTimeout, Attempts: cfg.FetchRetries})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDatasetLoad, err)
	}
	loadStart := time.Now()
	ds, err := dataset.Load(ctx, src)
	if err != nil {
		return err
	}
	met.Gauge("mpg_dataset_rows", "Vehicle rows loaded").Set(int64(len(ds.Records)))
	met.Gauge("mpg_dataset_makes", "Distinct manufacturers").Set(int64(len(ds.Makes)))
	logger.Info("dataset loaded", "source", cfg.Dataset, "rows", len(ds.Records), "makes", len(ds.Makes), "took", time.Since(loadStart))

	// --- NATS (optional) ---
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL, nats.Name("mpg-explorer"), nats.MaxReconnects(-1))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
	}

	// --- Session and sinks ---
	latest := &render.Latest{}
	page := render.NewSVG()
	sinks := render.Multi{latest, page}
	if nc != nil {
		breaker := resilience.NewBreaker(resilience.BreakerOpts{
			FailThreshold: 5,
			Timeout:       10 * time.Second,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn("frame publisher breaker", "from", from.String(), "to", to.String())
			},
		})
		sinks = append(sinks, render.NewNATS(nc, cfg.FrameSubject(), render.WithBreaker(breaker)))
	}
	session, err := narrative.NewSession(ds.Engine(), scene.Default(), sinks,
		narrative.WithLogger(logger),
		narrative.WithMetrics(met),
		narrative.WithDismissOnExplore(cfg.DismissOnExplore),
	)
	if err != nil {
		return err
	}
	if err := session.Start(ctx); err != nil {
		return err
	}
	logger.Info("session started", "session", session.ID())

	if nc != nil {
		sub, err := serveCommands(nc, cfg.CommandSubject(), session)
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer sub.Unsubscribe()
		logger.Info("nats command handler ready", "subject", cfg.CommandSubject(), "frames", cfg.FrameSubject())
	}

	// --- gRPC health ---
	hs := health.NewServer()
	hs.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	// --- HTTP ---
	srv := &server{session: session, latest: latest, page: page, log: logger}
	mux := srv.routes()
	var metricsSrv *http.Server
	if cfg.MetricsPort == "" {
		mux.Handle("GET /metrics", met.Handler())
	} else {
		metricsSrv = &http.Server{Addr: ":" + cfg.MetricsPort, Handler: met.Handler(), ReadTimeout: 5 * time.Second}
	}
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.Metrics(met),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("mpg-explorer"),
		mid.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)),
	)
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 3)
	go func() {
		logger.Info("grpc health server starting", "port", cfg.GRPCPort)
		errCh <- gs.Serve(lis)
	}()
	go func() {
		logger.Info("http server starting", "port", cfg.Port)
		errCh <- httpSrv.ListenAndServe()
	}()
	if metricsSrv != nil {
		go func() {
			logger.Info("metrics server starting", "port", cfg.MetricsPort)
			errCh <- metricsSrv.ListenAndServe()
		}()
	}

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	hs.Shutdown()
	gs.GracefulStop()
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if metricsSrv != nil {
		metricsSrv.Shutdown(shutCtx)
	}
	return httpSrv.Shutdown(shutCtx)
}
