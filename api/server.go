package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/thisisjab/usersearch/engine"
	"github.com/thisisjab/usersearch/entity"
	"github.com/thisisjab/usersearch/querier"
	"golang.org/x/time/rate"
)

// SearchEngine is the part of engine.Engine the api serves.
type SearchEngine interface {
	Tables() []entity.Table
	Compile(table string, req querier.SearchRequest) (querier.Result, error)
	Search(ctx context.Context, table string, req querier.SearchRequest, limit int) (engine.SearchResult, error)
}

type server struct {
	cfg     Config
	logger  *slog.Logger
	engine  SearchEngine
	limiter *rate.Limiter
}

func NewServer(cfg Config, logger *slog.Logger, eng SearchEngine) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &server{
		cfg:    cfg,
		logger: logger,
		engine: eng,
	}

	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	return s, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)
	mux.HandleFunc("GET /api/tables", s.listTablesHandler)
	mux.HandleFunc("POST /api/tables/{table}/compile", s.compileHandler)
	mux.HandleFunc("POST /api/tables/{table}/search", s.searchHandler)

	return s.recoverPanicMiddleware(s.requestIDMiddleware(s.requestLoggerMiddleware(s.rateLimitMiddleware(s.corsMiddleware(mux)))))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && serverErr != http.ErrServerClosed {
		return serverErr
	}

	return nil
}
