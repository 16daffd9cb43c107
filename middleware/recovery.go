package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/AnTengye/projectbrief/model"
	"github.com/AnTengye/projectbrief/pkg/logger"
	"github.com/gin-gonic/gin"
)

// errorBody is the banner-shaped body of middleware-generated errors.
func errorBody(c *gin.Context, msg string) gin.H {
	return gin.H{
		"banner":     model.ErrorBanner(msg),
		"request_id": GetRequestID(c),
	}
}

// Recovery middleware recovers from panics and answers with an error banner
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(c, "Internal server error"))
			}
		}()

		c.Next()
	}
}
