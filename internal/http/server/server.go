package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/matthewgall/pricer/internal/aggregator"
	"github.com/matthewgall/pricer/internal/config"
	"github.com/matthewgall/pricer/internal/models"
	"github.com/matthewgall/pricer/internal/platforms"
	"github.com/matthewgall/pricer/internal/roi"
	"github.com/matthewgall/pricer/internal/version"
)

const (
	maxRequestBodyBytes = 1 << 20
	minSearchLength     = 2
	priceDataHeader     = "X-Price-Data"

	missingQueryMessage  = "Missing required parameter: query or upc"
	missingFieldsMessage = "Missing required fields: marketValue and costPaid"
)

// PriceService answers cached price lookups.
type PriceService interface {
	GetOrCompute(ctx context.Context, query, platform string) models.AggregateResult
	Stats(ctx context.Context) (aggregator.CacheStats, int, error)
}

// Searcher returns title suggestions. It never fails; errors degrade to an
// empty list.
type Searcher interface {
	SearchCatalog(ctx context.Context, query, platform string) []models.Suggestion
}

type Server struct {
	config *config.Config
	router *chi.Mux
	prices PriceService
	search Searcher
	now    func() time.Time
}

func New(cfg *config.Config, prices PriceService, search Searcher) *Server {
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		prices: prices,
		search: search,
		now:    time.Now,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.maxBodyMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/price", s.handlePrice)
		r.Get("/search", s.handleSearch)
		r.Post("/calculate-roi", s.handleCalculateROI)
		r.Get("/platforms", s.handlePlatforms)
		r.Get("/conditions", s.handleConditions)
		r.Get("/cache-stats", s.handleCacheStats)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	allowed := s.config.App.AllowedOrigins
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(allowed, origin) {
		return origin
	}
	return ""
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data: https:; style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; font-src 'self' https://fonts.gstatic.com; script-src 'self' 'unsafe-inline'; connect-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) maxBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > maxRequestBodyBytes {
			respondError(w, http.StatusRequestEntityTooLarge, "Request too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(err),
					"stack", string(debug.Stack()),
				)
				respondError(w, http.StatusInternalServerError, "internal_server_error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "not_found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"version":   version.Version,
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("upc"))
	}
	if query == "" {
		respondError(w, http.StatusBadRequest, missingQueryMessage)
		return
	}
	platform := strings.TrimSpace(r.URL.Query().Get("platform"))

	result := s.prices.GetOrCompute(r.Context(), query, platform)
	if !result.HasPrice() {
		w.Header().Set(priceDataHeader, "none")
	}
	slog.InfoContext(r.Context(), "price lookup",
		"query", query,
		"platform", platform,
		"cached", result.Cached,
		"has_price", result.HasPrice(),
	)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	suggestions := []models.Suggestion{}
	if utf8.RuneCountInString(q) >= minSearchLength {
		if found := s.search.SearchCatalog(r.Context(), q, r.URL.Query().Get("platform")); found != nil {
			suggestions = found
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (s *Server) handleCalculateROI(w http.ResponseWriter, r *http.Request) {
	var input roi.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			respondError(w, http.StatusRequestEntityTooLarge, "Request too large")
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, missingFieldsMessage)
		default:
			respondError(w, http.StatusBadRequest, "Invalid JSON body")
		}
		return
	}

	result, err := roi.CalculateROI(input)
	if err != nil {
		if errors.Is(err, roi.ErrMissingInput) {
			respondError(w, http.StatusBadRequest, missingFieldsMessage)
			return
		}
		slog.ErrorContext(r.Context(), "roi calculation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Calculation failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"platforms": platforms.Searchable()})
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"conditions": models.Conditions()})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, keys, err := s.prices.Stats(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "cache stats unavailable", "error", err)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stats": stats,
		"keys":  keys,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("encode json response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
