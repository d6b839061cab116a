// Package cli implements the schulze command-line interface.
//
// # Commands
//
//   - evaluate: load an election file, rank the candidates and print the
//     tiers as styled text or JSON, optionally writing a Graphviz diagram
//   - serve: expose evaluation over HTTP with Prometheus metrics
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-schulze/infrastructure/cache"
	"github.com/ahrav/go-schulze/infrastructure/middleware"
	"github.com/ahrav/go-schulze/internal/application"
	"github.com/ahrav/go-schulze/internal/ports"
)

const (
	// appName is the command name shown in help and version output.
	appName = "schulze"

	// defaultCacheTTL bounds how long evaluated outcomes stay cached.
	defaultCacheTTL = time.Hour

	// defaultMemoryCacheSize is the outcome cache size of serve without Redis.
	defaultMemoryCacheSize = 512
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version. main
// calls it with values injected through -ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// services bundles what a command needs to load and evaluate elections.
type services struct {
	loader  *application.ElectionLoader
	engine  *application.Engine
	closers []io.Closer
}

// servicesOptions selects the optional parts of the services.
type servicesOptions struct {
	redisAddr   string
	memoryCache int
	registerer  prometheus.Registerer
}

// newServices wires the loader and engine. With a Redis address outcomes
// are cached in Redis behind a circuit breaker; otherwise a positive memoryCache enables an
// in-process cache. A non-nil registerer enables Prometheus metrics.
func newServices(ctx context.Context, opts servicesOptions) (*services, error) {
	var metrics ports.MetricsCollector
	if opts.registerer != nil {
		metrics = middleware.NewPrometheusMetrics(opts.registerer)
	}

	loader, err := application.NewElectionLoader(application.NewDefaultUnitRegistry(), metrics)
	if err != nil {
		return nil, err
	}

	svc := &services{loader: loader}
	engineOpts := []application.EngineOption{application.WithMetrics(metrics)}

	switch {
	case opts.redisAddr != "":
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{Addr: opts.redisAddr})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		svc.closers = append(svc.closers, store)
		breaker := cache.NewBreakerStore(store, cache.DefaultMaxFailures, cache.DefaultCooldown)
		engineOpts = append(engineOpts, application.WithCache(breaker, "redis", defaultCacheTTL))
	case opts.memoryCache > 0:
		store := cache.NewMemoryStore(opts.memoryCache)
		engineOpts = append(engineOpts, application.WithCache(store, "memory", defaultCacheTTL))
	}

	svc.engine = application.NewEngine(engineOpts...)
	return svc, nil
}

// Close releases held connections.
func (s *services) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
