// Package server serves the host page and runs analyses for browser and API
// clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/dyike/tickerview/internal/analysis"
	"github.com/dyike/tickerview/internal/page"
)

// Server wires the page template, the analyzer and the HTTP routes.
type Server struct {
	analyzer analysis.Analyzer
	template *page.Template
	regions  page.Regions
	limiter  *rate.Limiter
	addr     string
	http     *http.Server
}

type Option func(*Server)

// WithRateLimit throttles analysis routes to rps requests per second. Zero
// disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRegions maps slots to the element ids of a custom host page.
func WithRegions(regions page.Regions) Option {
	return func(s *Server) { s.regions = regions }
}

func New(addr string, analyzer analysis.Analyzer, tmpl *page.Template, opts ...Option) (*Server, error) {
	if tmpl == nil {
		tmpl = page.DefaultTemplate()
	}
	s := &Server{
		analyzer: analyzer,
		template: tmpl,
		regions:  page.DefaultRegions(),
		addr:     addr,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Fail at startup rather than per request if the page lacks a region.
	if _, err := s.bind(); err != nil {
		return nil, err
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// bind parses a fresh page and binds its regions.
func (s *Server) bind() (*page.View, error) {
	p, err := s.template.New()
	if err != nil {
		return nil, err
	}
	view, err := page.Bind(p, s.regions)
	if err != nil {
		return nil, fmt.Errorf("bind page: %w", err)
	}
	return view, nil
}

// ListenAndServe blocks until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("HTTP server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("HTTP server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
