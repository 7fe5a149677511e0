// Package api exposes the HTTP interface for the catalog crawler: scrape
// triggers under /v1/scrape and read endpoints over the persisted catalog.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/config"
	"github.com/shelfscan/catalog-crawler/internal/metrics"
	"github.com/shelfscan/catalog-crawler/internal/scraper"
)

const defaultJobListLimit = 50

// Stores bundles the read-side store dependencies of the server.
type Stores struct {
	Navigations catalog.NavigationStore
	Categories  catalog.CategoryStore
	Products    catalog.ProductStore
	Details     catalog.ProductDetailStore
	Reviews     catalog.ReviewStore
	Jobs        catalog.JobStore
}

// Server wires HTTP handlers to the scrape orchestrator and stores.
type Server struct {
	router  chi.Router
	scraper *scraper.Scraper
	stores  Stores
	cfg     config.Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(sc *scraper.Scraper, stores Stores, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		scraper: sc,
		stores:  stores,
		cfg:     cfg,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/scrape", func(r chi.Router) {
			r.Post("/navigation", s.scrapeNavigation)
			r.Post("/categories", s.scrapeCategories)
			r.Post("/products", s.scrapeProducts)
			r.Post("/product-detail", s.scrapeProductDetail)
		})

		// Scrape triggers run the fetch synchronously and are exempt from
		// the read timeout.
		r.Group(func(r chi.Router) {
			r.Use(timeoutMiddleware(30 * time.Second))

			r.Get("/navigations", s.listNavigations)
			r.Get("/navigations/{navigation_id}", s.getNavigation)
			r.Get("/navigations/{navigation_id}/categories", s.listCategories)
			r.Get("/categories/{category_id}", s.getCategory)
			r.Get("/categories/{category_id}/products", s.listProducts)
			r.Get("/products", s.getProductBySourceID)
			r.Get("/products/{product_id}", s.getProduct)
			r.Get("/products/{product_id}/detail", s.getProductDetail)
			r.Get("/products/{product_id}/reviews", s.listReviews)
			r.Get("/jobs", s.listJobs)
			r.Get("/jobs/{job_id}", s.getJob)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The job store is hit on every scrape; if it answers, we are ready.
	if _, err := s.stores.Jobs.List(r.Context(), 1); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "job store unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type scrapeCategoriesRequest struct {
	NavigationID string `json:"navigation_id"`
}

type scrapeProductsRequest struct {
	CategoryID string `json:"category_id"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

type scrapeProductDetailRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) scrapeNavigation(w http.ResponseWriter, r *http.Request) {
	navs, err := s.scraper.ScrapeNavigation(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"navigations": nonNil(navs)})
}

func (s *Server) scrapeCategories(w http.ResponseWriter, r *http.Request) {
	var req scrapeCategoriesRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	cats, err := s.scraper.ScrapeCategories(r.Context(), req.NavigationID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": nonNil(cats)})
}

func (s *Server) scrapeProducts(w http.ResponseWriter, r *http.Request) {
	var req scrapeProductsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.CategoryID == "" {
		s.writeError(w, http.StatusBadRequest, "category_id required")
		return
	}
	products, err := s.scraper.ScrapeProducts(r.Context(), req.CategoryID, req.Page, req.Limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"products": nonNil(products)})
}

func (s *Server) scrapeProductDetail(w http.ResponseWriter, r *http.Request) {
	var req scrapeProductDetailRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ProductID == "" {
		s.writeError(w, http.StatusBadRequest, "product_id required")
		return
	}
	detail, err := s.scraper.ScrapeProductDetail(r.Context(), req.ProductID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"detail": detail})
}

func (s *Server) listNavigations(w http.ResponseWriter, r *http.Request) {
	if slug := r.URL.Query().Get("slug"); slug != "" {
		nav, err := s.stores.Navigations.GetBySlug(r.Context(), slug)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"navigations": []catalog.Navigation{nav}})
		return
	}
	navs, err := s.stores.Navigations.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"navigations": nonNil(navs)})
}

func (s *Server) getNavigation(w http.ResponseWriter, r *http.Request) {
	nav, err := s.stores.Navigations.GetByID(r.Context(), chi.URLParam(r, "navigation_id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"navigation": nav})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	navigationID := chi.URLParam(r, "navigation_id")
	if _, err := s.stores.Navigations.GetByID(r.Context(), navigationID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	if slug := r.URL.Query().Get("slug"); slug != "" {
		cat, err := s.stores.Categories.GetBySlug(r.Context(), navigationID, slug)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"categories": []catalog.Category{cat}})
		return
	}
	cats, err := s.stores.Categories.ListByNavigation(r.Context(), navigationID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": nonNil(cats)})
}

func (s *Server) getProductBySourceID(w http.ResponseWriter, r *http.Request) {
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		s.writeError(w, http.StatusBadRequest, "source_id required")
		return
	}
	p, err := s.stores.Products.GetBySourceID(r.Context(), sourceID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := s.stores.Categories.GetByID(r.Context(), chi.URLParam(r, "category_id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"category": cat})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "category_id")
	if _, err := s.stores.Categories.GetByID(r.Context(), categoryID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", scraper.DefaultProductPageSize)
	if page < 1 || limit < 1 {
		s.writeError(w, http.StatusBadRequest, "page and limit must be >= 1")
		return
	}
	products, err := s.stores.Products.ListByCategory(r.Context(), categoryID, limit, (page-1)*limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"products": nonNil(products),
		"page":     page,
		"limit":    limit,
	})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.stores.Products.GetByID(r.Context(), chi.URLParam(r, "product_id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (s *Server) getProductDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.stores.Details.GetByProduct(r.Context(), chi.URLParam(r, "product_id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"detail": detail})
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	if _, err := s.stores.Products.GetByID(r.Context(), productID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	reviews, err := s.stores.Reviews.ListByProduct(r.Context(), productID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"reviews": nonNil(reviews)})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultJobListLimit)
	if limit < 1 {
		s.writeError(w, http.StatusBadRequest, "limit must be >= 1")
		return
	}
	jobList, err := s.stores.Jobs.List(r.Context(), limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"jobs": nonNil(jobList)})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.stores.Jobs.Get(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// writeStoreError maps store errors to HTTP statuses. Unknown entities come
// back as ErrNotFound from every store.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
