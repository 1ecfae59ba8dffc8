package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/godilite/krishi-gateway/internal/analytics"
	"github.com/godilite/krishi-gateway/internal/inference"
	"github.com/godilite/krishi-gateway/internal/repository/models"
	"github.com/godilite/krishi-gateway/internal/service"
)

// Cacher defines the interface for cache operations. A miss is redis.Nil.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type FarmerService interface {
	Signup(ctx context.Context, req service.SignupRequest) (service.FarmerProfile, error)
	Login(ctx context.Context, req service.LoginRequest) (service.LoginResponse, error)
	Dashboard(ctx context.Context, q service.DashboardQuery) (service.FarmerProfile, error)
}

type FeedbackService interface {
	Submit(ctx context.Context, req service.FeedbackRequest) (models.Feedback, error)
	Analytics(ctx context.Context) (analytics.Stats, error)
}

type CropService interface {
	Recommend(ctx context.Context, req service.RecommendationRequest) (inference.CropRecommendation, error)
}

type DiseaseService interface {
	Detect(ctx context.Context, filename string, image io.Reader) (inference.Detection, error)
}

// Pinger reports whether the record store is reachable; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Recorder receives request and error observations; *metrics.Metrics
// satisfies it.
type Recorder interface {
	ObserveRequest(route, method string, code int, elapsed time.Duration)
	CountError(kind string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (nopRecorder) CountError(string)                                 {}
