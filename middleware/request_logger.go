package middleware

import (
	"net/url"
	"strconv"
	"time"

	"github.com/AnTengye/projectbrief/pkg/logger"
	"github.com/AnTengye/projectbrief/pkg/metrics"
	"github.com/gin-gonic/gin"
)

const redacted = "REDACTED"

// RequestLogger logs every request and records the HTTP metrics. Values of
// the redact query keys never reach the log.
func RequestLogger(redact ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactQuery(c.Request.URL.Query(), redact)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// route template keeps label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if query != "" {
			attrs = append(attrs, "query", query)
		}

		log := logger.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			log.Error("request completed", attrs...)
		case status >= 400:
			log.Warn("request completed", attrs...)
		default:
			log.Info("request completed", attrs...)
		}
	}
}

func redactQuery(values url.Values, keys []string) string {
	if len(values) == 0 {
		return ""
	}
	for _, k := range keys {
		if _, ok := values[k]; ok {
			values.Set(k, redacted)
		}
	}
	return values.Encode()
}
