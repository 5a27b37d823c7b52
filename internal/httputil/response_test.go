package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quillblog/internal/model"
)

func TestWriteServiceError_MapsKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", model.ErrContentTooLong, http.StatusBadRequest, ErrCodeValidation, model.ErrContentTooLong.Error()},
		{"unauthorized", model.ErrAuthRequired, http.StatusUnauthorized, ErrCodeUnauthorized, model.ErrAuthRequired.Error()},
		{"not found", model.ErrCommentNotFound, http.StatusNotFound, ErrCodeNotFound, model.ErrCommentNotFound.Error()},
		{"invalid state", model.ErrNotTrashed, http.StatusConflict, ErrCodeInvalidState, model.ErrNotTrashed.Error()},
		{"invalid operation", model.ErrCannotPinReply, http.StatusUnprocessableEntity, ErrCodeInvalidOperation, model.ErrCannotPinReply.Error()},
		{"wrapped", fmt.Errorf("resolve: %w", model.ErrReportNotPending), http.StatusConflict, ErrCodeInvalidState, "resolve: " + model.ErrReportNotPending.Error()},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, ErrCodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			WriteServiceError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if body.Error.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Error.Message, tt.wantMsg)
			}
		})
	}
}
