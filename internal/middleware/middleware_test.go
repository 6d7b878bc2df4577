package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newRouter(exposeInternal bool) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(discard), RequestID(), Logger(discard, "/health"), ErrorHandler(discard, exposeInternal))
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	r := newRouter(false)
	r.GET("/bills", func(c *gin.Context) {
		_ = c.Error(apperror.Validation("job_id is required").WithDetail("field", "job_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bills", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, apperror.CodeValidation, body.Code)
	assert.Equal(t, "job_id is required", body.Message)
	assert.Equal(t, "job_id", body.Details["field"])
}

func TestErrorHandlerInternalMessage(t *testing.T) {
	tests := []struct {
		name           string
		exposeInternal bool
		wantMessage    string
	}{
		{"production hides cause", false, "an internal error occurred"},
		{"development shows cause", true, "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(tt.exposeInternal)
			r.GET("/boom", func(c *gin.Context) {
				_ = c.Error(errors.New("disk full"))
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, tt.wantMessage, decode(t, w).Message)
		})
	}
}

func TestRecovery(t *testing.T) {
	r := newRouter(false)
	r.GET("/panic", func(c *gin.Context) { panic("nil map") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, decode(t, w).Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(false)
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}

func authRouter(t *testing.T) (*gin.Engine, *service.TokenManager) {
	t.Helper()
	tokens := service.NewTokenManager("test-secret", time.Minute, time.Hour)
	auth := NewAuth(tokens, false)

	r := newRouter(false)
	api := r.Group("/api", auth.RequireAuth())
	api.GET("/me", func(c *gin.Context) {
		actor, ok := service.ActorFrom(c.Request.Context())
		require.True(t, ok)
		c.String(http.StatusOK, actor.Username)
	})
	api.DELETE("/jobs/:id", RequireRole(model.RoleAdmin, model.RoleManager), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, tokens
}

func issue(t *testing.T, tokens *service.TokenManager, role string) string {
	t.Helper()
	token, _, err := tokens.Issue(&model.User{Base: model.Base{ID: uuid.New()}, Username: "ravi", Role: role})
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	r, tokens := authRouter(t)

	tests := []struct {
		name       string
		prepare    func(req *http.Request)
		wantStatus int
	}{
		{"missing token", func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong scheme", func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized},
		{"garbage token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer abc") }, http.StatusUnauthorized},
		{"bearer header", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+issue(t, tokens, model.RoleStaff))
		}, http.StatusOK},
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: issue(t, tokens, model.RoleStaff)})
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "ravi", w.Body.String())
			} else {
				assert.Equal(t, apperror.CodeUnauthorized, decode(t, w).Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r, tokens := authRouter(t)

	for role, want := range map[string]int{
		model.RoleAdmin:   http.StatusNoContent,
		model.RoleManager: http.StatusNoContent,
		model.RoleStaff:   http.StatusForbidden,
	} {
		t.Run(role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/jobs/"+uuid.NewString(), nil)
			req.Header.Set("Authorization", "Bearer "+issue(t, tokens, role))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, want, w.Code)
		})
	}
}

func TestTokenCookies(t *testing.T) {
	auth := NewAuth(service.NewTokenManager("s", time.Minute, time.Hour), true)
	r := gin.New()
	r.POST("/signin", func(c *gin.Context) {
		auth.SetTokenCookies(c, "a", "r", time.Minute, time.Hour)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/signin", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, ck := range cookies {
		assert.True(t, ck.HttpOnly)
		assert.True(t, ck.Secure)
		assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
	}
}
