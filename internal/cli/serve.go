package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-schulze/infrastructure/middleware"
	"github.com/ahrav/go-schulze/internal/application"
	"github.com/ahrav/go-schulze/internal/ports"
)

// maxBodyBytes caps the size of an election submitted over HTTP.
const maxBodyBytes = 4 << 20

type serveOptions struct {
	addr    string
	rate    float64
	burst   int
	redis   string
	timeout time.Duration
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve election evaluation over HTTP",
		Long: `Serve starts an HTTP server with these routes:

  POST /v1/evaluate   evaluate the election in the body (YAML, JSON or TOML)
  GET  /healthz       liveness check
  GET  /metrics       Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().Float64Var(&opts.rate, "rate", 10, "sustained evaluations per second")
	cmd.Flags().IntVar(&opts.burst, "burst", 20, "evaluations allowed in a burst")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "maximum time spent evaluating one election")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for the shared outcome cache (host:port)")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	logger := loggerFromContext(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := newServices(ctx, servicesOptions{
		redisAddr:   opts.redis,
		memoryCache: defaultMemoryCacheSize,
		registerer:  registry,
	})
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           newRouter(svc, logger, registry, rate.Limit(opts.rate), opts.burst, opts.timeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", opts.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handlers serves the HTTP API.
type handlers struct {
	svc    *services
	logger *log.Logger
	// timeout bounds one evaluation; zero means no bound.
	timeout time.Duration
}

// newRouter builds the HTTP routes. Only evaluation is rate limited.
func newRouter(
	svc *services,
	logger *log.Logger,
	gatherer prometheus.Gatherer,
	limit rate.Limit,
	burst int,
	timeout time.Duration,
) http.Handler {
	h := &handlers{svc: svc, logger: logger, timeout: timeout}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limit, burst))
		r.Post("/v1/evaluate", h.evaluate)
	})

	return r
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}

// evaluate loads the election in the request body and returns its
// outcome. Configuration problems are 400s; elections that load but
// cannot be evaluated, such as a ballot naming an unknown candidate
// under a strict unit, are 422s. Evaluations that outrun the server
// timeout are 503s.
func (h *handlers) evaluate(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	election, err := h.svc.loader.LoadFromReader(ctx, body, requestFormat(r))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.svc.engine.Evaluate(ctx, election)
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn("evaluation timed out", "election", election.Name, "timeout", h.timeout)
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("%w: %v", ports.ErrTimeout, err).Error())
		return
	}
	if err != nil {
		h.logger.Warn("evaluation failed", "election", election.Name, "err", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// requestFormat picks the election format from the Content-Type header.
// JSON is valid YAML, so anything that is not TOML is read as YAML.
func requestFormat(r *http.Request) application.Format {
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "toml") {
		return application.FormatTOML
	}
	return application.FormatYAML
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
