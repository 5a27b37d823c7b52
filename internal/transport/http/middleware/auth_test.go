package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quillblog/internal/httputil"
	"quillblog/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// echoIdentity writes the identity it sees so tests can assert on it.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	role, _ := GetRoleFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "role": role})
})

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Error.Code
}

func TestAuthMiddleware(t *testing.T) {
	valid := signToken(t, jwt.MapClaims{"user_id": 7, "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	expired := signToken(t, jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)
	wrongKey := signToken(t, jwt.MapClaims{"user_id": 7}, "other")
	noUser := signToken(t, jwt.MapClaims{"role": "admin"}, testSecret)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantCode   string
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: valid}) }, http.StatusOK, ""},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized, httputil.ErrCodeUnauthorized},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, http.StatusUnauthorized, model.CodeTokenExpired},
		{"wrong key", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+wrongKey) }, http.StatusUnauthorized, model.CodeTokenInvalid},
		{"no user claim", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+noUser) }, http.StatusUnauthorized, model.CodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			AuthMiddleware(testSecret)(echoIdentity).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if code := errorCode(t, rec); code != tt.wantCode {
					t.Errorf("code = %q, want %q", code, tt.wantCode)
				}
				return
			}
			var body struct {
				UserID int64  `json:"user_id"`
				Role   string `json:"role"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.UserID != 7 || body.Role != model.RoleAdmin {
				t.Errorf("identity = %+v", body)
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	valid := signToken(t, jwt.MapClaims{"user_id": 3}, testSecret)

	t.Run("anonymous passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		var sawUser bool
		OptionalAuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sawUser = GetUserIDFromContext(r.Context())
		})).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK || sawUser {
			t.Errorf("status = %d sawUser = %v", rec.Code, sawUser)
		}
	})

	t.Run("token attaches user with default role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		rec := httptest.NewRecorder()

		var userID int64
		var role string
		OptionalAuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ = GetUserIDFromContext(r.Context())
			role, _ = GetRoleFromContext(r.Context())
		})).ServeHTTP(rec, req)

		if userID != 3 || role != model.RoleUser {
			t.Errorf("user = %d role = %q", userID, role)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	user := signToken(t, jwt.MapClaims{"user_id": 3, "role": "user"}, testSecret)
	admin := signToken(t, jwt.MapClaims{"user_id": 1, "role": "admin"}, testSecret)
	h := AuthMiddleware(testSecret)(RequireAdmin(echoIdentity))

	for token, want := range map[string]int{user: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("status = %d, want %d", rec.Code, want)
		}
	}
}
