package middleware

import (
	"errors"
	"net/http"

	"go-jobalert-scheduler/internal/delivery/http/response"
	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/apperror"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logger.Log.Warn("Request failed", "path", c.FullPath(), "status", appErr.Code, "error", appErr.Err)
			}
			response.Error(c, appErr.Code, appErr.Message, nil)
			return
		}

		// internal details stay in the log
		logger.Log.Error("Internal Server Error",
			"path", c.FullPath(),
			"request_id", c.GetString(string(domain.KeyRequestID)),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
