package apitest

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const userEmailKey = "userEmail"

// bearerAuth resolves the bearer token to a registered user and stores the
// user's email in the context.
func (s *Server) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			s.log.Warn("Middleware: Authorization header is missing")
			errorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			s.log.Warnf("Middleware: Invalid Authorization header format: %s", authHeader)
			errorResponse(c, http.StatusUnauthorized, "Invalid Authorization header format")
			c.Abort()
			return
		}

		rawToken := parts[1]
		email, ok := s.users.lookupToken(rawToken)
		if !ok {
			s.log.Warnf("Middleware: Unknown token %s...", rawToken[:min(8, len(rawToken))])
			errorResponse(c, http.StatusUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		c.Set(userEmailKey, email)
		c.Next()
	}
}

// recordRequests stores every request, including its body, before routing.
func (s *Server) recordRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.record(Request{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Authorization: c.GetHeader("Authorization"),
			RequestID:     c.GetHeader("X-Request-ID"),
			Body:          string(body),
		})
		c.Next()
	}
}

// injectFailures answers with a queued failure for the route, if any.
func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := s.takeFailure(c.Request.Method, c.Request.URL.Path)
		if !ok {
			c.Next()
			return
		}
		s.log.Debugf("Middleware: Injecting %d for %s %s", f.Status, c.Request.Method, c.Request.URL.Path)
		c.Data(f.Status, f.contentType(), []byte(f.Body))
		c.Abort()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})
		if reqID := c.GetHeader("X-Request-ID"); reqID != "" {
			entry = entry.WithField("request_id", reqID)
		}

		switch {
		case statusCode >= 500:
			entry.Error("Request completed with server error")
		case statusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Debug("Request completed successfully")
		}
	}
}
