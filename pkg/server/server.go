// Package server exposes the autosave slot, diagram export and VHDL
// generation over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/ha1tch/fsm-designer/pkg/config"
	"github.com/ha1tch/fsm-designer/pkg/diagram"
	"github.com/ha1tch/fsm-designer/pkg/store"
	"github.com/ha1tch/fsm-designer/pkg/vhdl"
)

const maxBody = 10 << 20

// Converter turns the snapshot file at path into VHDL.
type Converter func(ctx context.Context, path string) ([]byte, error)

// CommandConverter runs command with the snapshot path appended as its
// last argument and returns its standard output.
func CommandConverter(command string, timeout time.Duration) Converter {
	return func(ctx context.Context, path string) ([]byte, error) {
		args := strings.Fields(command)
		if len(args) == 0 {
			return nil, errors.New("no converter command configured")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
		}
		return out, nil
	}
}

// Server serves the fsmd HTTP API.
type Server struct {
	store     store.Store
	key       string
	export    diagram.ExportOptions
	convert   Converter
	limiter   *rate.Limiter
	maxWidth  int
	maxHeight int
	logger    *log.Logger
	addr      string
	startedAt time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithConverter replaces the converter built from the config.
func WithConverter(c Converter) Option {
	return func(s *Server) { s.convert = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server over st using the server, store and export
// sections of cfg.
func New(cfg *config.Config, st store.Store, opts ...Option) (*Server, error) {
	exportOpts, err := cfg.ExportOptions()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:     st,
		key:       cfg.Store.Key,
		export:    exportOpts,
		convert:   CommandConverter(cfg.Server.Converter, cfg.Server.ConverterTimeout()),
		maxWidth:  cfg.Server.MaxExportWidth,
		maxHeight: cfg.Server.MaxExportHeight,
		logger:    log.Default(),
		addr:      cfg.Server.Addr,
		startedAt: time.Now(),
	}
	if s.key == "" {
		s.key = "fsm"
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), max(cfg.Server.Burst, 1))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimit)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/autosave", s.handleGetAutosave)
		r.Put("/autosave", s.handlePutAutosave)
		r.Post("/export/{format}", s.handleExport)
	})
	r.Post("/genhdl", s.handleGenHDL)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok %s\n", time.Since(s.startedAt).Round(time.Second))
}

func (s *Server) handleGetAutosave(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Get(r.Context(), s.key)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "no autosave", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("autosave read failed", "err", err)
		http.Error(w, "autosave unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", diagram.FormatJSON.ContentType())
	w.Write(data)
}

func (s *Server) handlePutAutosave(w http.ResponseWriter, r *http.Request) {
	b, ok := s.readBackup(w, r.Body)
	if !ok {
		return
	}
	data, err := b.JSON(false)
	if err == nil {
		err = s.store.Set(r.Context(), s.key, data)
	}
	if err != nil {
		s.logger.Error("autosave write failed", "err", err)
		http.Error(w, "autosave unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := diagram.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	b, ok := s.readBackup(w, r.Body)
	if !ok {
		return
	}

	opts := s.export
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("width")); err == nil && v > 0 {
		opts.Width = v
	}
	if v, err := strconv.Atoi(q.Get("height")); err == nil && v > 0 {
		opts.Height = v
	}
	opts.Title = q.Get("title")
	if s.maxWidth > 0 && opts.Width > s.maxWidth {
		http.Error(w, fmt.Sprintf("width %d exceeds limit %d", opts.Width, s.maxWidth), http.StatusBadRequest)
		return
	}
	if s.maxHeight > 0 && opts.Height > s.maxHeight {
		http.Error(w, fmt.Sprintf("height %d exceeds limit %d", opts.Height, s.maxHeight), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := diagram.FromBackup(b).Export(&buf, format, opts); err != nil {
		s.logger.Error("export failed", "format", format, "err", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=fsm%s", format.Ext()))
	w.Write(buf.Bytes())
}

func (s *Server) handleGenHDL(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	fsm := r.FormValue("fsm")
	if fsm == "" {
		http.Error(w, "missing fsm field", http.StatusBadRequest)
		return
	}

	f, err := os.CreateTemp("", "genhdl")
	if err != nil {
		s.logger.Error("genhdl temp file", "err", err)
		http.Error(w, "converter unavailable", http.StatusInternalServerError)
		return
	}
	defer os.Remove(f.Name())
	_, err = f.WriteString(fsm)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.logger.Error("genhdl temp file", "err", err)
		http.Error(w, "converter unavailable", http.StatusInternalServerError)
		return
	}

	out, err := s.convert(r.Context(), f.Name())
	if err != nil {
		s.logger.Error("converter failed", "err", err)
		http.Error(w, "converter failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+vhdl.Filename)
	w.Header().Set("Connection", "close")
	w.Write(bytes.TrimRight(out, "\n"))
}

func (s *Server) readBackup(w http.ResponseWriter, body io.Reader) (*diagram.Backup, bool) {
	data, err := io.ReadAll(io.LimitReader(body, maxBody))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return nil, false
	}
	b, err := diagram.ParseBackup(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return b, true
}
