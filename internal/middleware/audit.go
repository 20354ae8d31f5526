package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AuditMiddleware writes one structured log entry per state-changing
// request.
type AuditMiddleware struct {
	log logrus.FieldLogger
}

// NewAuditMiddleware creates a new audit middleware instance
func NewAuditMiddleware(log logrus.FieldLogger) *AuditMiddleware {
	return &AuditMiddleware{log: log}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseStatus is the status the client will see once echo's error
// handler has run.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// AuditMutations logs POST, PUT, PATCH and DELETE requests. Reads pass
// through untouched.
func (m *AuditMiddleware) AuditMutations() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isMutation(req.Method) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			status := responseStatus(c, err)

			entry := m.log.WithFields(logrus.Fields{
				"method":     req.Method,
				"route":      c.Path(),
				"path":       req.URL.Path,
				"status":     status,
				"latency_ms": time.Since(start).Milliseconds(),
				"remote_ip":  c.RealIP(),
			})
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				entry = entry.WithField("request_id", id)
			}
			if version, ok := c.Get("api_version").(string); ok {
				entry = entry.WithField("api_version", version)
			}

			switch {
			case status >= http.StatusInternalServerError:
				entry.WithError(err).Error("mutation failed")
			case status >= http.StatusBadRequest:
				entry.Warn("mutation rejected")
			default:
				entry.Info("mutation applied")
			}
			return err
		}
	}
}
