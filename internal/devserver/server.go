// Package devserver serves the build directory with live reload.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	serrors "git.home.luguber.info/inful/sitesmith/internal/errors"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

type Options struct {
	Root        string
	Addr        string
	CurrentDocs string
	Hub         *Hub
	// Registry enables /metrics when set.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

type Server struct {
	opts Options
	srv  *http.Server
	ln   net.Listener
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Hub == nil {
		opts.Hub = NewHub(nil, 0)
	}
	return &Server{opts: opts}
}

// Hub returns the live reload hub the server pushes through.
func (s *Server) Hub() *Hub { return s.opts.Hub }

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/livereload", s.opts.Hub.ServeSSE)
	mux.HandleFunc("/livereload/ws", s.opts.Hub.ServeWS)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(ClientScript))
	})
	if s.opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	}

	files := http.FileServer(http.Dir(s.opts.Root))
	mux.Handle("/", InjectScript(DocsLatest(s.opts.CurrentDocs, HTMLFallback(s.opts.Root, noCache(files)))))
	return mux
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return serrors.Wrap(err, serrors.CategoryServer, serrors.SeverityFatal, "listen").
			WithContext("addr", s.opts.Addr)
	}
	s.ln = ln
	// Streams are long lived, so no write timeout.
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 120 * time.Second}

	go func() {
		if serveErr := s.srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.opts.Logger.Error("Dev server error", logfields.Error(serveErr))
		}
	}()
	s.opts.Logger.Info("Dev server listening", logfields.URL("http://"+ln.Addr().String()), logfields.Path(s.opts.Root))
	return nil
}

// Addr is the bound address, useful when Options.Addr used port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.opts.Addr
	}
	return s.ln.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	s.opts.Hub.Shutdown()
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return serrors.Wrap(err, serrors.CategoryServer, serrors.SeverityError, "shutdown dev server")
	}
	return nil
}
