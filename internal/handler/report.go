package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quillblog/internal/httputil"
	"quillblog/internal/model"
	"quillblog/internal/service"
	"quillblog/internal/transport/http/middleware"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Create handles POST /comments/{id}/reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := parseIDParam(w, r, "id", "comment ID")
	if !ok {
		return
	}

	var req model.CreateReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.reportService.Report(r.Context(), commentID, userID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, report)
}

// List handles GET /admin/reports?status&page&limit
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	status := model.ReportStatus(r.URL.Query().Get("status"))
	result, err := h.reportService.List(r.Context(), status, page)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Resolve handles POST /admin/reports/{id}/resolve
func (h *ReportHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid report ID")
		return
	}

	var req model.ResolveReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.reportService.Resolve(r.Context(), reportID, adminID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
