package mocks

import (
	"context"
	"errors"
	"io"

	"github.com/godilite/krishi-gateway/internal/inference"
	"github.com/godilite/krishi-gateway/internal/repository/models"
)

// MockFarmerRepository is a function-field implementation of
// service.FarmerRepository.
type MockFarmerRepository struct {
	InsertFunc      func(ctx context.Context, f models.Farmer) error
	FindByEmailFunc func(ctx context.Context, email string) (models.Farmer, error)
	CountFunc       func(ctx context.Context) (int64, error)
}

func (m *MockFarmerRepository) Insert(ctx context.Context, f models.Farmer) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, f)
	}
	return errors.New("InsertFunc not implemented")
}

func (m *MockFarmerRepository) FindByEmail(ctx context.Context, email string) (models.Farmer, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return models.Farmer{}, errors.New("FindByEmailFunc not implemented")
}

func (m *MockFarmerRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, errors.New("CountFunc not implemented")
}

// MockFeedbackRepository is a function-field implementation of
// service.FeedbackRepository.
type MockFeedbackRepository struct {
	InsertFunc  func(ctx context.Context, f models.Feedback) error
	FindAllFunc func(ctx context.Context) ([]models.Feedback, error)
}

func (m *MockFeedbackRepository) Insert(ctx context.Context, f models.Feedback) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, f)
	}
	return errors.New("InsertFunc not implemented")
}

func (m *MockFeedbackRepository) FindAll(ctx context.Context) ([]models.Feedback, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, errors.New("FindAllFunc not implemented")
}

// MockInferenceClient is a function-field implementation of
// service.InferenceClient.
type MockInferenceClient struct {
	RecommendCropFunc func(ctx context.Context, features inference.CropFeatures) (inference.CropRecommendation, error)
	DetectDiseaseFunc func(ctx context.Context, filename string, image io.Reader) (inference.Detection, error)
}

func (m *MockInferenceClient) RecommendCrop(ctx context.Context, features inference.CropFeatures) (inference.CropRecommendation, error) {
	if m.RecommendCropFunc != nil {
		return m.RecommendCropFunc(ctx, features)
	}
	return inference.CropRecommendation{}, errors.New("RecommendCropFunc not implemented")
}

func (m *MockInferenceClient) DetectDisease(ctx context.Context, filename string, image io.Reader) (inference.Detection, error) {
	if m.DetectDiseaseFunc != nil {
		return m.DetectDiseaseFunc(ctx, filename, image)
	}
	return inference.Detection{}, errors.New("DetectDiseaseFunc not implemented")
}
