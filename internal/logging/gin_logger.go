package logging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// RequestIDHeader is set on every response.
	RequestIDHeader = "X-Request-ID"

	ginRequestIDKey = "__request_id__"
)

type requestIDKey struct{}

// GenerateRequestID returns the first 8 hex characters of a random UUID.
func GenerateRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the request id stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// FromContext returns a log entry tagged with the request id of ctx.
func FromContext(ctx context.Context) *log.Entry {
	entry := log.NewEntry(log.StandardLogger())
	if id := GetRequestID(ctx); id != "" {
		entry = entry.WithField("request_id", id)
	}
	return entry
}

// GinLogger assigns a request id to every request and logs method, path,
// status and latency once the handler chain completes.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := GenerateRequestID()
		c.Set(ginRequestIDKey, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		if latency > time.Minute {
			latency = latency.Truncate(time.Second)
		} else {
			latency = latency.Truncate(time.Millisecond)
		}

		statusCode := c.Writer.Status()
		line := fmt.Sprintf("%3d | %13v | %15s | %-7s \"%s\"", statusCode, latency, c.ClientIP(), c.Request.Method, path)
		if errMsg := c.Errors.ByType(gin.ErrorTypePrivate).String(); errMsg != "" {
			line = line + " | " + strings.TrimSpace(errMsg)
		}

		entry := log.WithField("request_id", requestID)
		switch {
		case statusCode >= http.StatusInternalServerError:
			entry.Error(line)
		case statusCode >= http.StatusBadRequest:
			entry.Warn(line)
		default:
			entry.Info(line)
		}
	}
}

// GinRecovery turns a handler panic into a 500 with the service's error
// body and logs the stack.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
			panic(http.ErrAbortHandler)
		}

		FromContext(c.Request.Context()).
			WithField("error", recovered).
			Errorf("panic recovered on %s %s\n%s", c.Request.Method, c.Request.URL.Path, debug.Stack())

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"detail": "An error occurred: internal server error",
		})
	})
}
