package mocks

import (
	"context"
	"errors"
	"io"

	"github.com/godilite/krishi-gateway/internal/analytics"
	"github.com/godilite/krishi-gateway/internal/inference"
	"github.com/godilite/krishi-gateway/internal/repository/models"
	"github.com/godilite/krishi-gateway/internal/service"
)

// MockFarmerService is a function-field implementation of the handler
// layer's FarmerService.
type MockFarmerService struct {
	SignupFunc    func(ctx context.Context, req service.SignupRequest) (service.FarmerProfile, error)
	LoginFunc     func(ctx context.Context, req service.LoginRequest) (service.LoginResponse, error)
	DashboardFunc func(ctx context.Context, q service.DashboardQuery) (service.FarmerProfile, error)
}

func (m *MockFarmerService) Signup(ctx context.Context, req service.SignupRequest) (service.FarmerProfile, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, req)
	}
	return service.FarmerProfile{}, errors.New("SignupFunc not implemented")
}

func (m *MockFarmerService) Login(ctx context.Context, req service.LoginRequest) (service.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return service.LoginResponse{}, errors.New("LoginFunc not implemented")
}

func (m *MockFarmerService) Dashboard(ctx context.Context, q service.DashboardQuery) (service.FarmerProfile, error) {
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx, q)
	}
	return service.FarmerProfile{}, errors.New("DashboardFunc not implemented")
}

type MockFeedbackService struct {
	SubmitFunc    func(ctx context.Context, req service.FeedbackRequest) (models.Feedback, error)
	AnalyticsFunc func(ctx context.Context) (analytics.Stats, error)
}

func (m *MockFeedbackService) Submit(ctx context.Context, req service.FeedbackRequest) (models.Feedback, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return models.Feedback{}, errors.New("SubmitFunc not implemented")
}

func (m *MockFeedbackService) Analytics(ctx context.Context) (analytics.Stats, error) {
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx)
	}
	return analytics.Stats{}, errors.New("AnalyticsFunc not implemented")
}

type MockCropService struct {
	RecommendFunc func(ctx context.Context, req service.RecommendationRequest) (inference.CropRecommendation, error)
}

func (m *MockCropService) Recommend(ctx context.Context, req service.RecommendationRequest) (inference.CropRecommendation, error) {
	if m.RecommendFunc != nil {
		return m.RecommendFunc(ctx, req)
	}
	return inference.CropRecommendation{}, errors.New("RecommendFunc not implemented")
}

type MockDiseaseService struct {
	DetectFunc func(ctx context.Context, filename string, image io.Reader) (inference.Detection, error)
}

func (m *MockDiseaseService) Detect(ctx context.Context, filename string, image io.Reader) (inference.Detection, error) {
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, filename, image)
	}
	return inference.Detection{}, errors.New("DetectFunc not implemented")
}
