package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	mid "TrendPulse/internal/middleware"
	"TrendPulse/internal/service/stream"
	"TrendPulse/internal/usecase"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	pkgkafka "TrendPulse/pkg/kafka"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	http      *xhttp.Server
	collector *usecase.TrendCollector
	pipeline  *mid.IngestPipeline
	hub       *stream.Hub

	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler
	jobs     *queue.RedisQueue
	closers  []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

type Option func(*App)

// WithConsumer runs a Kafka consumer for h alongside the HTTP server.
func WithConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.kh = h
	}
}

// WithJobQueue runs the background job workers.
func WithJobQueue(q *queue.RedisQueue) Option {
	return func(a *App) { a.jobs = q }
}

// WithCloser registers a resource closed last during shutdown, in reverse order.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *logger.Logger,
	srv *xhttp.Server,
	collector *usecase.TrendCollector,
	pipe *mid.IngestPipeline,
	hub *stream.Hub,
	opts ...Option,
) *App {
	a := &App{
		cfg:       cfg,
		log:       lgr,
		http:      srv,
		collector: collector,
		pipeline:  pipe,
		hub:       hub,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.start(ctx); err != nil {
		a.shutdown()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	a.shutdown()
	return nil
}

func (a *App) start(ctx context.Context) error {
	a.pipeline.Start(ctx)

	if a.jobs != nil {
		if err := a.jobs.Start(ctx); err != nil {
			return err
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka ingestion enabled", logger.String("topic", a.kh.Topic()))
	}

	if a.cfg.Collector.Enabled {
		go a.collector.Run(ctx, a.cfg.Collector.Interval)
		a.log.Info("scheduled collection enabled", logger.Duration("interval", a.cfg.Collector.Interval))
	}

	return a.http.Start()
}

// shutdown stops producers of work before the sinks they feed.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.http.ShutdownTimeout())
	defer cancel()

	if err := a.http.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}
	if a.hub != nil {
		_ = a.hub.Close()
	}
	if a.consumer != nil && a.kh != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", logger.Error(err))
		}
	}
	if a.jobs != nil {
		if err := a.jobs.Stop(ctx); err != nil {
			a.log.Warn("job queue stop error", logger.Error(err))
		}
	}
	a.pipeline.Stop()
	if n := a.pipeline.Buffered(); n > 0 {
		a.log.Warn("unflushed trend batches dropped", logger.Int("batches", n))
	}

	// flushes pending log batches through the producer before it closes
	a.log.RemoveCollector()

	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", logger.String("resource", nc.name), logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
