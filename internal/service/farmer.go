package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/godilite/krishi-gateway/internal/apierror"
	"github.com/godilite/krishi-gateway/internal/repository/models"
	"github.com/godilite/krishi-gateway/internal/validation"
)

// FarmerService handles signup, login and the dashboard lookup.
type FarmerService struct {
	farmers   FarmerRepository
	validator *validation.Validator
	logger    *zap.Logger
	cost      int
	now       func() time.Time

	// dummyHash is compared against on unknown emails so both login
	// failures cost one bcrypt comparison.
	dummyHash []byte
}

type FarmerOption func(*FarmerService)

// WithBcryptCost overrides bcrypt.DefaultCost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) FarmerOption {
	return func(s *FarmerService) { s.cost = cost }
}

func WithFarmerClock(now func() time.Time) FarmerOption {
	return func(s *FarmerService) { s.now = now }
}

func NewFarmerService(farmers FarmerRepository, v *validation.Validator, logger *zap.Logger, opts ...FarmerOption) *FarmerService {
	if farmers == nil {
		panic("farmer repository must not be nil")
	}
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &FarmerService{
		farmers:   farmers,
		validator: v,
		logger:    logger,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("krishi-placeholder"), s.cost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt cost %d: %v", s.cost, err))
	}
	s.dummyHash = hash
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a new account. A duplicate email is a conflict; a racing
// duplicate that slips past the lookup is rejected by the store's unique
// index as a persistence failure.
func (s *FarmerService) Signup(ctx context.Context, req SignupRequest) (FarmerProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return FarmerProfile{}, err
	}

	email := normalizeEmail(req.Email)

	_, err := s.farmers.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return FarmerProfile{}, apierror.Conflict(MsgEmailTaken)
	case !errors.Is(err, models.ErrNotFound):
		return FarmerProfile{}, fmt.Errorf("look up farmer: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return FarmerProfile{}, apierror.FieldViolation("password", "password must be at most 72 bytes")
	}
	if err != nil {
		return FarmerProfile{}, fmt.Errorf("hash password: %w", err)
	}

	farmer := models.Farmer{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Location:     strings.TrimSpace(req.Location),
		JoinedDate:   strings.TrimSpace(req.JoinedDate),
		PhoneNumber:  req.PhoneNumber,
		FarmSize:     strings.TrimSpace(req.FarmSize),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.farmers.Insert(ctx, farmer); err != nil {
		return FarmerProfile{}, fmt.Errorf("save farmer: %w", err)
	}

	s.logger.Info("farmer registered", zap.String("farmer_id", farmer.ID))
	return profileOf(farmer), nil
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *FarmerService) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return LoginResponse{}, err
	}

	farmer, err := s.farmers.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return LoginResponse{}, fmt.Errorf("look up farmer: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return LoginResponse{}, apierror.Unauthenticated(MsgInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(farmer.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("login rejected", zap.String("farmer_id", farmer.ID))
		return LoginResponse{}, apierror.Unauthenticated(MsgInvalidCredentials)
	}

	return LoginResponse{Name: farmer.Name, Email: farmer.Email}, nil
}

// Dashboard returns the profile registered under the queried email.
func (s *FarmerService) Dashboard(ctx context.Context, q DashboardQuery) (FarmerProfile, error) {
	if err := s.validator.Struct(q); err != nil {
		return FarmerProfile{}, err
	}

	farmer, err := s.farmers.FindByEmail(ctx, normalizeEmail(q.Email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return FarmerProfile{}, apierror.NotFound(MsgFarmerNotFound)
		}
		return FarmerProfile{}, fmt.Errorf("look up farmer: %w", err)
	}
	return profileOf(farmer), nil
}
