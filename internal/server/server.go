// Package server exposes the upload store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/store"
)

const (
	DefaultListen         = ":3000"
	DefaultPrefix         = "uploads"
	DefaultMaxUploadBytes = 10 << 20
)

// Config controls the HTTP surface. Zero values select the defaults.
type Config struct {
	Listen string
	// Prefix is the URL segment files are served under, normally the
	// uploads directory name.
	Prefix string
	// ClientHosts are the origins allowed by CORS. Empty allows any origin.
	ClientHosts    []string
	MaxUploadBytes int64
}

func (c Config) withDefaults() Config {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return c
}

// Server serves uploads from a store.
type Server struct {
	cfg   Config
	store store.Store
}

func New(st store.Store, cfg Config) *Server {
	return &Server{cfg: cfg.withDefaults(), store: st}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOptions := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		MaxAge:         300,
	}
	if hosts := nonEmpty(s.cfg.ClientHosts); len(hosts) > 0 {
		corsOptions.AllowedOrigins = hosts
	}
	r.Use(cors.Handler(corsOptions))

	prefix := "/" + s.cfg.Prefix
	r.Post("/upload", HandleUpload(s.store, prefix, s.cfg.MaxUploadBytes))
	r.Get("/list-uploads", HandleList(s.store, prefix))
	r.Route(prefix+"/{filename}", func(r chi.Router) {
		r.Get("/", HandleGet(s.store))
		r.Delete("/", HandleDelete(s.store))
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.cfg.Listen).Info("starting server")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	case <-ctx.Done():
	}
	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
