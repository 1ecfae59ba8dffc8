// Package httpapi is the gateway's HTTP surface: gin routes, handlers and the
// middleware that renders every failure as an error envelope.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/godilite/krishi-gateway/internal/apierror"
)

type routerOptions struct {
	basePath       string
	logger         *zap.Logger
	recorder       Recorder
	metricsHandler http.Handler
	now            func() time.Time
}

type RouterOption func(*routerOptions)

// WithBasePath mounts the API routes under path (default "/api").
func WithBasePath(path string) RouterOption {
	return func(o *routerOptions) { o.basePath = path }
}

func WithLogger(logger *zap.Logger) RouterOption {
	return func(o *routerOptions) { o.logger = logger }
}

// WithMetrics installs the request instrumentation and serves handler on
// GET /metrics.
func WithMetrics(rec Recorder, handler http.Handler) RouterOption {
	return func(o *routerOptions) {
		o.recorder = rec
		o.metricsHandler = handler
	}
}

// WithClock fixes envelope timestamps in tests.
func WithClock(now func() time.Time) RouterOption {
	return func(o *routerOptions) { o.now = now }
}

// NewRouter builds the gin engine. Call gin.SetMode before this in
// production.
func NewRouter(h *Handlers, opts ...RouterOption) *gin.Engine {
	o := &routerOptions{
		basePath: "/api",
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.Named("http")

	r := gin.New()
	r.Use(
		RequestLogger(logger),
		Instrument(o.recorder),
		Recovery(logger, o.now),
		ErrorHandler(logger, o.recorder, o.now),
	)

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apierror.NotFound("No route for " + c.Request.Method + " " + c.Request.URL.Path))
	})

	r.GET("/healthz", h.Healthz)
	if o.metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(o.metricsHandler))
	}

	api := r.Group(o.basePath)
	{
		api.POST("/recommend-crop", h.RecommendCrop)
		api.POST("/disease/detect", h.DetectDisease)

		farmer := api.Group("/farmer")
		farmer.POST("/signup", h.Signup)
		farmer.POST("/login", h.Login)
		farmer.GET("/dashboard", h.Dashboard)

		feedback := api.Group("/feedback")
		feedback.POST("", h.SubmitFeedback)
		feedback.GET("/analytics", h.FeedbackAnalytics)
	}

	return r
}
