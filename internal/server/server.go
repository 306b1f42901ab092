// Package server exposes stored analysis results over a small JSON API for
// the dashboard.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/storage"
)

// Server serves the read-only dashboard API over the stored output trees.
type Server struct {
	cfg    config.Server
	paths  config.Paths
	router chi.Router
}

// New builds the server and its routes.
func New(cfg config.Server, paths config.Paths) *Server {
	s := &Server{cfg: cfg, paths: paths}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/dates", s.handleDates)
		r.Get("/analyses", s.handleAnalyses)
		r.Get("/groups", s.handleGroups)
		r.Get("/data", s.handleData)
		r.Get("/funds", s.handleFunds)
	})

	s.router = r
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving the API on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Info().Str("addr", s.cfg.Addr).Msg("dashboard listening")
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var dateParamRe = regexp.MustCompile(`^\d{8}$`)

// validDate confines the date parameter to the YYYYMMDD directory names the
// storage tree uses.
func validDate(date string) bool {
	return dateParamRe.MatchString(date)
}

// validName rejects values that could escape the storage tree when joined
// into a path.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// handleDates lists dates that have analysis results, newest first.
func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	dates, err := storage.ListDates(s.paths.AnalysisDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// handleAnalyses lists the (analysis, group) result pairs for one date.
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !validDate(date) {
		writeError(w, http.StatusBadRequest, errors.New("date must be YYYYMMDD"))
		return
	}
	pairs, err := storage.ListAnalyses(s.paths.AnalysisDir, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	type item struct {
		Analysis string `json:"analysis"`
		Group    string `json:"group"`
	}
	items := make([]item, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, item{Analysis: p[0], Group: p[1]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "analyses": items})
}

// handleGroups lists the fund-document groups scraped on one date.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !validDate(date) {
		writeError(w, http.StatusBadRequest, errors.New("date must be YYYYMMDD"))
		return
	}
	groups, err := storage.ListGroups(s.paths.OutputDir, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "groups": groups})
}

// handleData returns one stored aggregation result.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, analysis, group := q.Get("date"), q.Get("analysis"), q.Get("group")
	if !validDate(date) {
		writeError(w, http.StatusBadRequest, errors.New("date must be YYYYMMDD"))
		return
	}
	if !validName(analysis) || !validName(group) {
		writeError(w, http.StatusBadRequest, errors.New("invalid analysis or group parameter"))
		return
	}
	res, err := storage.LoadAggregation(s.paths.AnalysisDir, date, analysis, group)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, errors.New("no result for that date, analysis and group"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleFunds returns the raw fund documents stored for one date and group.
func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, group := q.Get("date"), q.Get("group")
	if !validDate(date) {
		writeError(w, http.StatusBadRequest, errors.New("date must be YYYYMMDD"))
		return
	}
	if !validName(group) {
		writeError(w, http.StatusBadRequest, errors.New("invalid group parameter"))
		return
	}
	docs, err := storage.LoadFundDocuments(s.paths.OutputDir, date, group)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "group": group, "funds": docs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	log.Warn().Int("status", status).Err(err).Msg("request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
