package service

import (
	"context"
	"io"

	"github.com/godilite/krishi-gateway/internal/inference"
	"github.com/godilite/krishi-gateway/internal/repository/models"
)

// FarmerRepository is the account side of the record store.
type FarmerRepository interface {
	Insert(ctx context.Context, f models.Farmer) error
	// FindByEmail returns models.ErrNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (models.Farmer, error)
	Count(ctx context.Context) (int64, error)
}

// FeedbackRepository is the feedback side of the record store.
type FeedbackRepository interface {
	Insert(ctx context.Context, f models.Feedback) error
	FindAll(ctx context.Context) ([]models.Feedback, error)
}

// InferenceClient is the outbound port to the ML inference service.
type InferenceClient interface {
	RecommendCrop(ctx context.Context, features inference.CropFeatures) (inference.CropRecommendation, error)
	DetectDisease(ctx context.Context, filename string, image io.Reader) (inference.Detection, error)
}
