package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/godilite/krishi-gateway/internal/inference"
	"github.com/godilite/krishi-gateway/internal/validation"
)

// CropService forwards validated feature vectors to the recommender.
type CropService struct {
	client    InferenceClient
	validator *validation.Validator
	logger    *zap.Logger
}

func NewCropService(client InferenceClient, v *validation.Validator, logger *zap.Logger) *CropService {
	if client == nil {
		panic("inference client must not be nil")
	}
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CropService{client: client, validator: v, logger: logger}
}

// Recommend validates req and relays the recommender's top crops.
func (s *CropService) Recommend(ctx context.Context, req RecommendationRequest) (inference.CropRecommendation, error) {
	if err := s.validator.Struct(req); err != nil {
		return inference.CropRecommendation{}, err
	}

	rec, err := s.client.RecommendCrop(ctx, req.Features())
	if err != nil {
		return inference.CropRecommendation{}, fmt.Errorf("recommend crop: %w", err)
	}

	if len(rec.TopCrops) > 0 {
		s.logger.Debug("crop recommended",
			zap.String("crop", rec.TopCrops[0].Crop),
			zap.Float64("confidence", rec.TopCrops[0].Confidence))
	}
	return rec, nil
}

// DiseaseService relays a leaf image to the disease classifier.
type DiseaseService struct {
	client InferenceClient
	logger *zap.Logger
}

func NewDiseaseService(client InferenceClient, logger *zap.Logger) *DiseaseService {
	if client == nil {
		panic("inference client must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiseaseService{client: client, logger: logger}
}

// Detect forwards image under its original filename and returns the
// classifier's raw answer.
func (s *DiseaseService) Detect(ctx context.Context, filename string, image io.Reader) (inference.Detection, error) {
	det, err := s.client.DetectDisease(ctx, filename, image)
	if err != nil {
		s.logger.Error("error forwarding image", zap.String("filename", filename), zap.Error(err))
		return inference.Detection{}, fmt.Errorf("detect disease in %q: %w", filename, err)
	}
	return det, nil
}
