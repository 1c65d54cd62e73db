// Package app runs a component application. It composes the container,
// executes the application's workloads under a context that is canceled on
// SIGINT or SIGTERM, and closes the container once the workloads have
// returned, so that every owned component is disposed on every exit path.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/deep-rent/components/component"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout is the default duration to wait for the workloads to return
// after a shutdown has been initiated.
const DefaultTimeout = 10 * time.Second

// Runnable is a workload of the application. It receives a context that is
// canceled when a shutdown signal arrives, and the composed container from
// which it obtains its components.
type Runnable func(ctx context.Context, c *component.Container) error

type config struct {
	logger  *slog.Logger
	timeout time.Duration
	signals []os.Signal
	ctx     context.Context
}

// Option configures the application runner.
type Option func(*config)

// WithLogger sets the logger of the runner. If not set, the runner defaults
// to slog.Default(). A nil value will be ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets how long the runner waits for the workloads after a
// shutdown has been initiated. Non-positive durations are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSignals sets the OS signals that trigger a shutdown. If not used, it
// defaults to SIGTERM and SIGINT.
func WithSignals(signals ...os.Signal) Option {
	return func(c *config) {
		if len(signals) > 0 {
			c.signals = signals
		}
	}
}

// WithContext sets the parent context of the runner. Canceling it triggers a
// shutdown. A nil value will be ignored.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// Run is RunAll with a single workload.
func Run(c *component.Container, fn Runnable, opts ...Option) error {
	return RunAll(c, []Runnable{fn}, opts...)
}

// RunAll composes the container (if it is not composed yet) and runs all
// workloads concurrently. It blocks until every workload has returned, a
// shutdown signal is caught, or the parent context is canceled. The first
// workload to fail cancels the others.
//
// A workload returning context.Canceled after a shutdown is a clean exit.
// Panics are recovered and reported as errors. Once the workloads are done,
// or the shutdown timeout expires, the container is closed and its disposal
// errors are returned along with any workload error.
func RunAll(c *component.Container, fns []Runnable, opts ...Option) (err error) {
	cfg := config{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		signals: []os.Signal{syscall.SIGTERM, syscall.SIGINT},
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	defer func() {
		if cerr := c.Close(); cerr != nil {
			cfg.logger.Error("Failed to close container", slog.Any("error", cerr))
			err = multierr.Append(err, cerr)
		}
	}()
	c.Compose()

	ctx, cancel := signal.NotifyContext(cfg.ctx, cfg.signals...)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return protect(gctx, c, fn) })
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	cfg.logger.Info("Application started", slog.String("container", c.Name()))

	select {
	case err := <-done:
		if err = filter(err); err != nil {
			return fmt.Errorf("encountered an application error: %w", err)
		}
		cfg.logger.Info("Application stopped")
		return nil

	case <-ctx.Done():
		cfg.logger.Info("Shutdown signal received, initiating graceful shutdown")

		timer := time.NewTimer(cfg.timeout)
		defer timer.Stop()

		select {
		case err := <-done:
			if err = filter(err); err != nil {
				return fmt.Errorf("error occurred during shutdown: %w", err)
			}
			cfg.logger.Info("Shutdown completed successfully")
			return nil
		case <-timer.C:
			return fmt.Errorf("shutdown timed out after %v", cfg.timeout)
		}
	}
}

// protect runs fn and converts a panic into an error carrying the stack.
func protect(ctx context.Context, c *component.Container, fn Runnable) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("application panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return fn(ctx, c)
}

// filter drops context.Canceled, which workloads commonly return when they
// honor a shutdown.
func filter(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
