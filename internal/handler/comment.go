package handler

import (
	"net/http"

	"quillblog/internal/httputil"
	"quillblog/internal/model"
	"quillblog/internal/service"
	"quillblog/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles POST /posts/{postId}/comments
// Creates a comment, or a reply when parent_id is set.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	postID, ok := parseIDParam(w, r, "postId", "post ID")
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Create(r.Context(), postID, userID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Update handles PATCH /comments/{id}
// Only the author may edit.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := parseIDParam(w, r, "id", "comment ID")
	if !ok {
		return
	}

	var req model.UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Edit(r.Context(), commentID, userID, req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// List handles GET /posts/{postId}/comments
// Returns the public thread of a post; is_liked is filled for signed-in viewers.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, ok := parseIDParam(w, r, "postId", "post ID")
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	viewerID, _ := middleware.GetUserIDFromContext(r.Context())
	comments, err := h.commentService.ListPostComments(r.Context(), postID, viewerID, page)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comments)
}
