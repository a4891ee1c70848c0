package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/shopcore/ecommerce-backend/internal/pkg/logger"
	"github.com/shopcore/ecommerce-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.Discard()))
	return r
}

func TestIDParam(t *testing.T) {
	r := newRouter()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, want := range map[string]int{
		"/items/12":  http.StatusOK,
		"/items/0":   http.StatusBadRequest,
		"/items/-1":  http.StatusBadRequest,
		"/items/abc": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	r := newRouter()
	r.GET("/", func(c *gin.Context) {
		if _, ok := currentUser(c); ok {
			c.Status(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"User not authenticated"}`, w.Body.String())
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func TestUploadsSingle(t *testing.T) {
	cfg := testutil.Config()
	cfg.Upload.MaxSize = 16
	u := uploads{config: cfg.Upload}

	r := newRouter()
	r.POST("/", func(c *gin.Context) {
		upload, err := u.single(c, "image")
		if err != nil {
			fail(c, err)
			return
		}
		if upload == nil {
			c.JSON(http.StatusOK, gin.H{"file": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"file": upload.Filename, "size": upload.Size})
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := serve(multipartRequest(t, "image", "logo.PNG", []byte("tiny")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"file":"logo.PNG","size":4}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, serve(multipartRequest(t, "image", "run.exe", []byte("tiny"))).Code)
	assert.Equal(t, http.StatusBadRequest, serve(multipartRequest(t, "image", "big.png", bytes.Repeat([]byte("x"), 32))).Code)

	w = serve(multipartRequest(t, "other", "logo.png", []byte("tiny")))
	assert.JSONEq(t, `{"file":null}`, w.Body.String())

	w = serve(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.JSONEq(t, `{"file":null}`, w.Body.String())
}
