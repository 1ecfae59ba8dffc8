package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/godilite/krishi-gateway/internal/apierror"
)

// RequestLogger logs one line per request once the response is written.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request rejected", fields...)
		default:
			logger.Info("HTTP request completed", fields...)
		}
	}
}

// Instrument records request counts and latency per matched route.
func Instrument(rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rec.ObserveRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// Recovery turns a handler panic into a 500 envelope.
func Recovery(logger *zap.Logger, now func() time.Time) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic while handling request",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"))

		env := apierror.Translate(errors.New("internal server error"), c.Request.URL.Path, now())
		c.AbortWithStatusJSON(env.Status, env)
	})
}

// ErrorHandler renders the last error attached to the context as the
// response envelope, unless the handler already wrote a response.
func ErrorHandler(logger *zap.Logger, rec Recorder, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		kind := apierror.KindOf(err)
		env := apierror.Translate(err, c.Request.URL.Path, now())
		rec.CountError(kind.String())

		fields := []zap.Field{
			zap.String("kind", kind.String()),
			zap.String("path", env.Path),
			zap.Int("status", env.Status),
			zap.Error(err),
		}
		switch kind {
		case apierror.KindUnclassified, apierror.KindDownstreamServer:
			logger.Error("request failed", fields...)
		default:
			logger.Info("request rejected", fields...)
		}

		c.JSON(env.Status, env)
	}
}
