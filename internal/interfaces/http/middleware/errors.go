// internal/interfaces/http/middleware/errors.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Client errors show their message; server errors are logged and hidden.
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.WithFields(logrus.Fields{
				"request_id": c.GetString(ContextRequestID),
				"path":       c.FullPath(),
				"kind":       apperror.KindOf(err).String(),
			}).WithError(err).Error("Request failed")
		}

		c.JSON(status, gin.H{"error": apperror.Message(err)})
	}
}
