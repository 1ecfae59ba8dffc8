package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/krishi-gateway/internal/service"
	"github.com/godilite/krishi-gateway/internal/validation"
	"github.com/godilite/krishi-gateway/pkg/cache"
)

const (
	defaultCacheDuration = 10 * time.Minute
	healthTimeout        = 2 * time.Second

	// ImageForwardFailure is the fixed body of every failed disease upload.
	ImageForwardFailure = "Error forwarding image"
)

type CacheKeyType string

const cacheKeyDashboard CacheKeyType = "farmer:dashboard"

type Handlers struct {
	farmers  FarmerService
	feedback FeedbackService
	crops    CropService
	disease  DiseaseService
	store    Pinger

	cache    Cacher
	sfGroup  singleflight.Group
	cacheTTL time.Duration
	logger   *zap.Logger
}

type Deps struct {
	Farmers  FarmerService
	Feedback FeedbackService
	Crops    CropService
	Disease  DiseaseService
	Store    Pinger
	Cache    Cacher
}

// NewHandlers wires the HTTP handlers. A nil cache disables caching.
func NewHandlers(deps Deps, logger *zap.Logger, ttl time.Duration) *Handlers {
	if deps.Farmers == nil || deps.Feedback == nil || deps.Crops == nil || deps.Disease == nil {
		panic("nil service provided to NewHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	c := deps.Cache
	if c == nil {
		c = cache.Noop{}
	}
	return &Handlers{
		farmers:  deps.Farmers,
		feedback: deps.Feedback,
		crops:    deps.Crops,
		disease:  deps.Disease,
		store:    deps.Store,
		cache:    c,
		cacheTTL: ttl,
		logger:   logger.Named("http-handler"),
	}
}

// bindJSON decodes the body into dst, reporting decode failures as
// validation errors on the context.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(validation.DecodeError(err))
		return false
	}
	return true
}

func (h *Handlers) RecommendCrop(c *gin.Context) {
	var req service.RecommendationRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.crops.Recommend(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DetectDisease relays the uploaded "image" part. Every failure answers with
// the same plain-text 500; the cause is only logged.
func (h *Handlers) DetectDisease(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		h.imageFailure(c, "read upload", err)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.imageFailure(c, "open upload", err)
		return
	}
	defer file.Close()

	det, err := h.disease.Detect(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.imageFailure(c, "forward upload", err)
		return
	}
	c.Data(http.StatusOK, det.ContentType, det.Body)
}

func (h *Handlers) imageFailure(c *gin.Context, step string, err error) {
	h.logger.Error("disease detection failed", zap.String("step", step), zap.Error(err))
	c.String(http.StatusInternalServerError, ImageForwardFailure)
}

func (h *Handlers) Signup(c *gin.Context) {
	var req service.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.farmers.Signup(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handlers) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.farmers.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func dashboardKey(email string) string {
	return string(cacheKeyDashboard) + ":" + strings.ToLower(strings.TrimSpace(email))
}

// Dashboard serves profiles through the read-through cache. Profiles never
// change after signup, so entries only expire by TTL.
func (h *Handlers) Dashboard(c *gin.Context) {
	var q service.DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validation.DecodeError(err))
		return
	}

	profile, err := FindAndCache(c.Request.Context(), h.cache, &h.sfGroup, dashboardKey(q.Email), h.cacheTTL, h.logger,
		func(ctx context.Context) (service.FarmerProfile, error) {
			return h.farmers.Dashboard(ctx, q)
		})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var req service.FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.feedback.Submit(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// FeedbackAnalytics is recomputed on every call and never cached.
func (h *Handlers) FeedbackAnalytics(c *gin.Context) {
	stats, err := h.feedback.Analytics(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Healthz is the liveness probe; it also pings the record store when one
// is wired.
func (h *Handlers) Healthz(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := h.store.PingContext(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
