package server

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/integrail/pagegen/pkg/metrics"
	"github.com/integrail/pagegen/pkg/relay"
)

//go:embed web/index.html
var indexHTML []byte

const GeneratePath = "/generate-landing-page"

type Options struct {
	AllowedOrigins []string // CORS origins allowed to call the relay from a browser
	WebForm        bool     // serve the web form front-end at "/"
}

// New constructs the relay's HTTP handler.
func New(opts Options, svc relay.Service, m *metrics.Metrics, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}
	for _, mw := range middlewareChain(log) {
		r.Use(mw)
	}

	r.Post(GeneratePath, GenerateHandler(svc, m, log))
	r.Get("/healthz", HealthHandler(log))
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	if opts.WebForm {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(indexHTML)
		})
	}
	return r
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, log zerolog.Logger, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("relay listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "failed to serve on %s", addr)
	case <-ctx.Done():
		log.Info().Msg("shutting down relay")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrapf(err, "failed to shut down relay")
		}
		return nil
	}
}
