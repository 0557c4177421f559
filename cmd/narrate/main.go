// Command narrate walks the MPG narrative in a terminal. It runs the
// controller in-process, or drives a remote explorer over NATS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/mpg-narrative/engine/control"
	"github.com/WessleyAI/mpg-narrative/engine/dataset"
	"github.com/WessleyAI/mpg-narrative/engine/narrative"
	"github.com/WessleyAI/mpg-narrative/engine/render"
	"github.com/WessleyAI/mpg-narrative/engine/scene"
	"github.com/WessleyAI/mpg-narrative/pkg/config"
	"github.com/WessleyAI/mpg-narrative/pkg/natsutil"
)

func main() {
	cfg := config.Load()
	remote := flag.Bool("remote", false, "drive the explorer at -nats instead of running locally")
	follow := flag.Bool("follow", false, "with -remote, print every frame the explorer publishes and accept no input")
	width := flag.Int("width", 60, "bar width in columns")
	flag.StringVar(&cfg.Dataset, "dataset", cfg.Dataset, "CSV path, http(s) URL, postgres:// or neo4j:// location")
	flag.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS server URL")
	flag.StringVar(&cfg.SubjectPrefix, "prefix", cfg.SubjectPrefix, "NATS subject prefix")
	flag.Parse()

	// Logs go to stderr so they do not interleave with the chart.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	text := render.NewText(os.Stdout, *width)
	var err error
	switch {
	case *remote || *follow:
		err = runRemote(ctx, cfg, text, *follow)
	default:
		err = runLocal(ctx, cfg, text, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("narrate failed", "err", err)
		os.Exit(1)
	}
}

func runLocal(ctx context.Context, cfg *config.Config, text *render.Text, logger *slog.Logger) error {
	src, err := dataset.Open(cfg.Dataset, dataset.Options{Timeout: cfg.FetchTimeout, Attempts: cfg.FetchRetries})
	if err != nil {
		return err
	}
	ds, err := dataset.Load(ctx, src)
	if err != nil {
		return err
	}
	session, err := narrative.NewSession(ds.Engine(), scene.Default(), nil,
		narrative.WithLogger(logger),
		narrative.WithDismissOnExplore(cfg.DismissOnExplore),
	)
	if err != nil {
		return err
	}
	if err := session.Start(ctx); err != nil {
		return err
	}
	exec := func(ctx context.Context, e narrative.Event) (narrative.Frame, error) {
		return control.Apply(ctx, session, e)
	}
	return repl(ctx, os.Stdin, os.Stdout, exec, text)
}

func runRemote(ctx context.Context, cfg *config.Config, text *render.Text, follow bool) error {
	if cfg.NATSURL == "" {
		return errors.New("remote mode needs -nats or NATS_URL")
	}
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("mpg-narrate"))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	if follow {
		sub, err := natsutil.Subscribe(nc, cfg.FrameSubject(), func(ctx context.Context, f narrative.Frame) {
			if err := text.Render(ctx, f); err != nil {
				slog.Warn("render failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer sub.Unsubscribe()
		<-ctx.Done()
		return ctx.Err()
	}

	exec := func(ctx context.Context, e narrative.Event) (narrative.Frame, error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return natsutil.Request[control.Request, narrative.Frame](ctx, nc, cfg.CommandSubject(), control.NewRequest(e))
	}
	return repl(ctx, os.Stdin, os.Stdout, exec, text)
}
