package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	cataloguc "github.com/kailas-cloud/imagedex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/imagedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/imagedex/internal/usecase/search"
)

// Error response codes.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeNotFound          = "not_found"
	codeSummarizerError   = "summarizer_unavailable"
	codeSummaryExhausted  = "summary_exhausted"
	codeStorageError      = "storage_error"
	codeSearchUnavailable = "search_unavailable"
	codeInternalError     = "internal_error"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the catalog over HTTP.
type Server struct {
	catalog       *cataloguc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxUploadMB   int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	catalog *cataloguc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	maxUploadMB int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalog:     catalog,
		search:      search,
		health:      health,
		logger:      logger,
		maxUploadMB: maxUploadMB,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrSummaryExhausted, http.StatusBadGateway, codeSummaryExhausted),
		sentinelHandler(domain.ErrSummarizerUnavailable, http.StatusBadGateway, codeSummarizerError),
		sentinelHandler(domain.ErrBlobStore, http.StatusInternalServerError, codeStorageError),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusBadGateway, codeSearchUnavailable),
	}
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/images", s.UploadImage)
	r.Get("/images", s.ListImages)
	r.Get("/images/{id}", s.GetImage)
	r.Delete("/images/{id}", s.DeleteImage)
	r.Get("/search", s.SearchImages)
	r.Post("/admin/reindex", s.Reindex)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// assetResponse is the public projection of a cataloged asset.
type assetResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MediaType string    `json:"media_type"`
	Summary   string    `json:"summary"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
}

func assetToResponse(a *domain.Asset) assetResponse {
	keywords := a.Keywords()
	if keywords == nil {
		keywords = []string{}
	}
	return assetResponse{
		ID:        a.ID(),
		Name:      a.Name(),
		MediaType: a.MediaType(),
		Summary:   a.Summary(),
		Keywords:  keywords,
		CreatedAt: time.UnixMilli(a.CreatedAt()).UTC(),
	}
}

// UploadImage handles POST /images (multipart form, "image" file field).
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.maxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, `multipart field "image" is required`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "read upload: "+err.Error())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	asset, err := s.catalog.Ingest(r.Context(), data, name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/images/"+asset.ID())
	writeJSON(w, http.StatusCreated, assetToResponse(&asset))
}

// GetImage handles GET /images/{id}.
func (s *Server) GetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asset, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assetToResponse(&asset))
}

// ListImages handles GET /images.
func (s *Server) ListImages(w http.ResponseWriter, r *http.Request) {
	assets, err := s.catalog.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]assetResponse, len(assets))
	for i := range assets {
		items[i] = assetToResponse(&assets[i])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}

// DeleteImage handles DELETE /images/{id}.
func (s *Server) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchImages handles GET /search?q=.
func (s *Server) SearchImages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	hits, err := s.search.Query(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": hits,
		"total": len(hits),
	})
}

// Reindex handles POST /admin/reindex.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	indexed, failed, err := s.catalog.Reindex(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"indexed": indexed,
		"failed":  failed,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidInput,
		domain.ErrSummaryExhausted,
		domain.ErrSummarizerUnavailable,
		domain.ErrBlobStore,
		domain.ErrSearchUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
