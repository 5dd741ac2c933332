// Package api serves the dashboard figures as a JSON API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"hsedash/app"
	"hsedash/domain/finding"
	"hsedash/internal"
	"hsedash/internal/errors"
	"hsedash/internal/filter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is the dashboard query surface served over HTTP.
type Service interface {
	Dashboard(ctx context.Context, sel finding.Selection) (*app.Dashboard, error)
	Findings(ctx context.Context, sel finding.Selection) ([]finding.Finding, error)
	Objects(ctx context.Context, sel finding.Selection, parent string, limit int) (*app.ObjectsView, error)
	Options(ctx context.Context) (filter.Choices, error)
	Reload(ctx context.Context) (finding.Views, error)
}

var _ Service = (*app.DashboardService)(nil)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidSelection, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeEmptySource:
		return http.StatusServiceUnavailable
	case errors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Body converts err to its response body. Errors without a code are
// reported as INTERNAL_ERROR.
func Body(err error) ErrorBody {
	if !errors.IsAppError(err) {
		return ErrorBody{Code: errors.CodeInternalError, Message: err.Error()}
	}
	return ErrorBody{Code: errors.GetCode(err), Message: err.Error()}
}

// EmptySourceError is returned for dashboards computed without data.
func EmptySourceError(d *app.Dashboard) error {
	msg := "no findings data available"
	if len(d.Diagnostics) > 0 {
		msg = d.Diagnostics[0].Message
	}
	return errors.New(errors.CodeEmptySource, msg)
}

// Handler routes the JSON API with chi.
type Handler struct {
	router  *chi.Mux
	service Service
	logger  *internal.Logger
}

// NewHandler creates the API handler.
func NewHandler(service Service, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	h := &Handler{router: chi.NewRouter(), service: service, logger: logger}

	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.Recoverer)
	h.router.Use(middleware.Compress(5))

	h.router.Get("/health", h.handleHealth)
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/options", h.handleOptions)
		r.Get("/findings", h.handleFindings)
		r.Get("/objects", h.handleObjects)
		r.Post("/reload", h.handleReload)
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseSelection(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	d, err := h.service.Dashboard(r.Context(), sel)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if d.SourceEmpty {
		h.writeError(w, EmptySourceError(d))
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	choices, err := h.service.Options(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, choices)
}

func (h *Handler) handleFindings(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseSelection(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	rows, err := h.service.Findings(r.Context(), sel)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(rows), "findings": rows})
}

func (h *Handler) handleObjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := ParseSelection(q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := ParseLimit(q, "limit")
	if err != nil {
		h.writeError(w, err)
		return
	}
	view, err := h.service.Objects(r.Context(), sel, q.Get("parent"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Reload(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot_id":  views.SnapshotID,
		"findings":     len(views.Master),
		"object_rows":  len(views.Exploded),
		"source_empty": views.SourceEmpty,
		"diagnostics":  views.Diagnostics,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("[API] failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Error("[API] %v", err)
	}
	h.writeJSON(w, status, map[string]ErrorBody{"error": Body(err)})
}
