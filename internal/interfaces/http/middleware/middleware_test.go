package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
	"github.com/shopcore/ecommerce-backend/internal/pkg/logger"
	"github.com/shopcore/ecommerce-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type accountsFunc func(ctx context.Context, userID uint) error

func (f accountsFunc) CheckActive(ctx context.Context, userID uint) error { return f(ctx, userID) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, jwt *auth.JWTManager, userID uint, role string) string {
	t.Helper()
	pair, err := jwt.GeneratePair(userID, "u@example.com", role)
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func TestRequireAuth(t *testing.T) {
	jwt := auth.NewJWTManager(testutil.Config())
	r := gin.New()
	r.GET("/me", RequireAuth(jwt, nil), func(c *gin.Context) {
		id, _ := GetUserIDFromContext(c)
		role, _ := GetRoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, jwt, 42, "admin"))
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42,"role":"admin"}`, w.Body.String())
}

func TestRequireAuthConsultsAccounts(t *testing.T) {
	jwt := auth.NewJWTManager(testutil.Config())
	blocked := accountsFunc(func(context.Context, uint) error { return apperror.Forbidden("account is blocked") })

	r := gin.New()
	r.GET("/me", RequireAuth(jwt, blocked), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, jwt, 1, "user"))
	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"account is blocked"}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	jwt := auth.NewJWTManager(testutil.Config())
	r := gin.New()
	r.GET("/admin", RequireAuth(jwt, nil), RequireRoles("admin", "superadmin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/bare", RequireRoles("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for role, want := range map[string]int{
		"user":       http.StatusForbidden,
		"admin":      http.StatusNoContent,
		"superadmin": http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", bearer(t, jwt, 1, role))
		assert.Equal(t, want, serve(r, req).Code, role)
	}

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/bare", nil)).Code)
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{apperror.NotFound("cart not found"), http.StatusNotFound, `{"error":"cart not found"}`},
		{apperror.Conflict("coupon already used"), http.StatusConflict, `{"error":"coupon already used"}`},
		{apperror.InvalidState("order cannot be cancelled"), http.StatusBadRequest, `{"error":"order cannot be cancelled"}`},
		{apperror.Upstream("payment", errors.New("boom")), http.StatusBadGateway, `{"error":"payment request failed"}`},
		{apperror.Upstream("email", context.DeadlineExceeded), http.StatusGatewayTimeout, `{"error":"email timed out"}`},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tt := range tests {
		r := gin.New()
		r.Use(ErrorHandler(logger.Discard()))
		r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
		assert.JSONEq(t, tt.body, w.Body.String())
	}
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logger.Discard()))
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
		_ = c.Error(errors.New("late"))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(HeaderRequestID)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(HeaderRequestID))
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("1234"))
	assert.Equal(t, http.StatusOK, serve(r, small).Code)

	big := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, big).Code)
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(time.Second))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	assert.JSONEq(t, `{"deadline":true}`, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String())
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.Use(RateLimit(1, client, logger.Discard()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := testutil.Config()
	cfg.Security.CORSAllowedOrigins = []string{"http://localhost:3000", "*.shop.example"}

	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://admin.shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}
