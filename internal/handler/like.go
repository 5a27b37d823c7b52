package handler

import (
	"net/http"
	"strconv"

	"quillblog/internal/httputil"
	"quillblog/internal/service"
	"quillblog/internal/transport/http/middleware"
)

type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// Toggle handles POST /comments/{id}/like
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := parseIDParam(w, r, "id", "comment ID")
	if !ok {
		return
	}

	result, err := h.likeService.Toggle(r.Context(), commentID, userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Status handles GET /comments/likes?ids=1,2,3
// Responds with {"likes": {"1": true, "2": false, ...}}.
func (h *LikeHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	liked, err := h.likeService.GetStatus(r.Context(), userID, ids)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	out := make(map[string]bool, len(liked))
	for id, v := range liked {
		out[strconv.FormatInt(id, 10)] = v
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"likes": out})
}
