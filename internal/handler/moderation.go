package handler

import (
	"context"
	"net/http"
	"strings"

	"quillblog/internal/httputil"
	"quillblog/internal/model"
	"quillblog/internal/service"
)

// ModerationHandler serves the admin comment endpoints.
type ModerationHandler struct {
	moderationService *service.ModerationService
}

func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// List handles GET /admin/comments?status&post_id&author_id&root_id&q&page&limit
func (h *ModerationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	filter, err := parseCommentFilter(r)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	result, err := h.moderationService.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Trash handles GET /admin/comments/trash
func (h *ModerationHandler) Trash(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	result, err := h.moderationService.ListTrash(r.Context(), page)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Stats handles GET /admin/comments/stats
func (h *ModerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.moderationService.Stats(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// Approve handles POST /admin/comments/{id}/approve
func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.moderationService.Approve)
}

// Reject handles POST /admin/comments/{id}/reject
func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.moderationService.Reject)
}

// Restore handles POST /admin/comments/{id}/restore
func (h *ModerationHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.moderationService.Restore)
}

// Pin handles POST /admin/comments/{id}/pin
func (h *ModerationHandler) Pin(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.moderationService.TogglePin)
}

// SoftDelete handles DELETE /admin/comments/{id}
func (h *ModerationHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.moderationService.SoftDelete)
}

// PermanentDelete handles DELETE /admin/comments/{id}/permanent
func (h *ModerationHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	commentID, ok := parseIDParam(w, r, "id", "comment ID")
	if !ok {
		return
	}

	if err := h.moderationService.PermanentDelete(r.Context(), commentID); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchApprove handles POST /admin/comments/batch/approve
func (h *ModerationHandler) BatchApprove(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.moderationService.BatchApprove)
}

// BatchReject handles POST /admin/comments/batch/reject
func (h *ModerationHandler) BatchReject(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.moderationService.BatchReject)
}

// BatchDelete handles POST /admin/comments/batch/delete
func (h *ModerationHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.moderationService.BatchSoftDelete)
}

// BatchRestore handles POST /admin/comments/batch/restore
func (h *ModerationHandler) BatchRestore(w http.ResponseWriter, r *http.Request) {
	h.batch(w, r, h.moderationService.BatchRestore)
}

func (h *ModerationHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (*model.Comment, error)) {
	commentID, ok := parseIDParam(w, r, "id", "comment ID")
	if !ok {
		return
	}

	comment, err := op(r.Context(), commentID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

func (h *ModerationHandler) batch(w http.ResponseWriter, r *http.Request, op func(context.Context, []int64) *model.BatchResult) {
	var req model.BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := model.Validate(req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, op(r.Context(), req.IDs))
}

func parseCommentFilter(r *http.Request) (model.CommentFilter, error) {
	q := r.URL.Query()
	filter := model.CommentFilter{Keyword: strings.TrimSpace(q.Get("q"))}

	switch status := model.CommentStatus(strings.ToUpper(q.Get("status"))); status {
	case "", model.StatusPending, model.StatusApproved:
		filter.Status = status
	default:
		return filter, model.ValidationError("status must be PENDING or APPROVED")
	}

	var err error
	if filter.PostID, err = parseOptionalID(r, "post_id"); err != nil {
		return filter, err
	}
	if filter.AuthorID, err = parseOptionalID(r, "author_id"); err != nil {
		return filter, err
	}
	if filter.RootID, err = parseOptionalID(r, "root_id"); err != nil {
		return filter, err
	}
	return filter, nil
}
