package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godilite/krishi-gateway/internal/analytics"
	"github.com/godilite/krishi-gateway/internal/repository/models"
	"github.com/godilite/krishi-gateway/internal/validation"
)

// FeedbackService stores feedback and computes its statistics.
type FeedbackService struct {
	feedback  FeedbackRepository
	farmers   FarmerRepository
	validator *validation.Validator
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

type FeedbackOption func(*FeedbackService)

// WithAnalyticsLocation sets the zone used for weekday trend labels.
func WithAnalyticsLocation(loc *time.Location) FeedbackOption {
	return func(s *FeedbackService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithFeedbackClock(now func() time.Time) FeedbackOption {
	return func(s *FeedbackService) { s.now = now }
}

func NewFeedbackService(feedback FeedbackRepository, farmers FarmerRepository, v *validation.Validator, logger *zap.Logger, opts ...FeedbackOption) *FeedbackService {
	if feedback == nil || farmers == nil {
		panic("repositories must not be nil")
	}
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &FeedbackService{
		feedback:  feedback,
		farmers:   farmers,
		validator: v,
		logger:    logger,
		loc:       time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores one feedback record and returns it with its server-assigned
// id and timestamp.
func (s *FeedbackService) Submit(ctx context.Context, req FeedbackRequest) (models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Feedback{}, err
	}

	record := models.Feedback{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Rating:    *req.Rating,
		Category:  strings.TrimSpace(req.Category),
		Message:   req.Message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.feedback.Insert(ctx, record); err != nil {
		return models.Feedback{}, fmt.Errorf("save feedback: %w", err)
	}

	s.logger.Debug("feedback stored",
		zap.String("feedback_id", record.ID),
		zap.Int("rating", record.Rating),
		zap.String("category", record.Category))
	return record, nil
}

// Analytics reads the feedback set once and derives every statistic from
// that single snapshot.
func (s *FeedbackService) Analytics(ctx context.Context) (analytics.Stats, error) {
	snapshot, err := s.feedback.FindAll(ctx)
	if err != nil {
		return analytics.Stats{}, fmt.Errorf("load feedback: %w", err)
	}

	users, err := s.farmers.Count(ctx)
	if err != nil {
		return analytics.Stats{}, fmt.Errorf("count farmers: %w", err)
	}

	stats := analytics.Aggregate(snapshot, users, analytics.WithLocation(s.loc))

	s.logger.Debug("feedback analytics computed",
		zap.Int("total", stats.TotalFeedback),
		zap.Float64("avg_rating", stats.AvgRating),
		zap.Int64("users", stats.UsersCount))
	return stats, nil
}
