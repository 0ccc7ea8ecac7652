package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ahamadey27/wake-app/geo"
	"github.com/ahamadey27/wake-app/lookout"
	"github.com/ahamadey27/wake-app/metrics"
	"github.com/ahamadey27/wake-app/tides"
)

const SHUTDOWN_TIMEOUT = 10 // seconds

type Portal struct {
	ListenAddr string `json:"listenAddr" yaml:"listenAddr"`
	HtmlDir    string `json:"htmlDir" yaml:"htmlDir"`
}

// Server is the web surface over one lookout. It remembers the most recent
// scan so the map and search endpoints can serve without re-streaming.
type Server struct {
	portal Portal
	query  lookout.Query
	look   *lookout.Lookout
	tides  *tides.Client
	logger *slog.Logger

	started time.Time
	scanMu  sync.Mutex
	last    atomic.Pointer[scanView]
	lastIdx atomic.Pointer[lookout.GeoIndex]
}

// scanView is a scan result with each approach paired to the tide nearest
// its arrival, which is what the page actually renders.
type scanView struct {
	*lookout.Result
	Approaches []annotatedApproach `json:"approaches"`
}

type annotatedApproach struct {
	lookout.Approach
	Tide *tides.Prediction `json:"tide,omitempty"`
}

func NewServer(p Portal, q lookout.Query, look *lookout.Lookout, tc *tides.Client, logger *slog.Logger) *Server {
	return &Server{
		portal:  p,
		query:   q,
		look:    look,
		tides:   tc,
		logger:  logger,
		started: time.Now().UTC(),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	staticDir := filepath.Join(s.portal.HtmlDir, "static")
	staticFs := http.FileServer(http.Dir(staticDir))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFs))

	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /api/scan", s.scan)
	mux.HandleFunc("GET /api/lastscan", s.lastScan)
	mux.HandleFunc("GET /api/vessels/{sw}/{ne}", s.vesselsInBox)
	mux.HandleFunc("GET /api/search/{query}", s.search)
	mux.HandleFunc("GET /api/tides/{date}", s.tidesByDay)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.Handle("GET /metrics", metrics.Handler())

	var handler http.Handler = mux
	handler = loggingMiddleware(s.logger)(handler)
	handler = metrics.Middleware(handler)
	return handler
}

// ListenAndServe runs the portal until ctx is done, then drains connections.
func (s *Server) ListenAndServe(ctx context.Context) {
	server := &http.Server{
		Addr:              s.portal.ListenAddr,
		Handler:           s.routes(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// No write timeout: a scan response is only written after the
		// scan's own budget elapses, which can be minutes.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", "error", err)
		}
	}()

	<-ctx.Done()

	serverCtx, cancel := context.WithTimeout(context.Background(), time.Duration(SHUTDOWN_TIMEOUT)*time.Second)
	defer cancel()
	if err := server.Shutdown(serverCtx); err != nil {
		s.logger.Error("http server failed to shutdown", "error", err)
	}
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	indexTemplate := filepath.Join(s.portal.HtmlDir, "templates", "index.html")
	tmpl, err := template.New("index.html").ParseFiles(indexTemplate)
	if err != nil {
		s.logger.Error("could not parse index template", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	data := struct {
		Query         lookout.Query
		BudgetSeconds int
	}{
		Query:         s.query,
		BudgetSeconds: int(s.query.Budget() / time.Second),
	}

	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("could not execute index template", "error", err)
	}
}

// scan runs one approach scan and returns its full result. Scans hold the
// stream connection for the whole budget, so only one runs at a time; a
// second request while one is in flight gets 429 rather than queueing.
func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	if !s.scanMu.TryLock() {
		http.Error(w, "a scan is already running", http.StatusTooManyRequests)
		return
	}
	defer s.scanMu.Unlock()

	res, err := s.look.Scan(r.Context(), s.query)
	if err != nil {
		s.logger.Error("scan failed", "error", err)
		http.Error(w, "scan failed: configuration error", http.StatusInternalServerError)
		return
	}

	view := s.annotate(r.Context(), res)
	s.last.Store(view)
	s.lastIdx.Store(lookout.NewGeoIndex(res.Sightings))

	writeJSON(w, view, s.logger)
}

// annotate pairs each approach with the tide prediction nearest its arrival.
// Best effort: a tide service failure leaves the approaches bare rather than
// spoiling the scan.
func (s *Server) annotate(ctx context.Context, res *lookout.Result) *scanView {
	view := &scanView{
		Result:     res,
		Approaches: make([]annotatedApproach, 0, len(res.Approaches)),
	}

	var preds []tides.Prediction
	if n := len(res.Approaches); n > 0 {
		var err error
		// Approaches are ranked by arrival, so the first and last bound
		// the days the readings must cover.
		preds, err = s.tides.Predictions(ctx, res.Approaches[0].Eta, res.Approaches[n-1].Eta)
		if err != nil {
			s.logger.Warn("tide annotation unavailable", "error", err)
		}
	}

	for _, a := range res.Approaches {
		av := annotatedApproach{Approach: a}
		if p, ok := tides.Nearest(preds, a.Eta); ok {
			av.Tide = &p
		}
		view.Approaches = append(view.Approaches, av)
	}
	return view
}

func (s *Server) lastScan(w http.ResponseWriter, _ *http.Request) {
	res := s.last.Load()
	if res == nil {
		http.Error(w, "no scan has run yet", http.StatusNotFound)
		return
	}
	writeJSON(w, res, s.logger)
}

func (s *Server) vesselsInBox(w http.ResponseWriter, r *http.Request) {
	idx := s.lastIdx.Load()
	if idx == nil {
		http.Error(w, "no scan has run yet", http.StatusNotFound)
		return
	}

	sw, err := parsePoint(r.PathValue("sw"))
	if err != nil {
		http.Error(w, "sw corner must be lat,lon", http.StatusBadRequest)
		return
	}
	ne, err := parsePoint(r.PathValue("ne"))
	if err != nil {
		http.Error(w, "ne corner must be lat,lon", http.StatusBadRequest)
		return
	}

	writeJSON(w, idx.InBox(sw, ne), s.logger)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	res := s.last.Load()
	if res == nil {
		http.Error(w, "no scan has run yet", http.StatusNotFound)
		return
	}
	writeJSON(w, lookout.SearchSightings(res.Sightings, r.PathValue("query")), s.logger)
}

func (s *Server) tidesByDay(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	preds, err := s.tides.Predictions(r.Context(), day, day)
	if err != nil {
		s.logger.Error("tide fetch failed", "error", err)
		http.Error(w, "tide service unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, preds, s.logger)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}, s.logger)
}

func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func parsePoint(s string) (geo.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("want lat,lon, got %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, err
	}

	return geo.Point{Lat: lat, Lon: lon}, nil
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			level := slog.LevelInfo
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
