package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/godilite/krishi-gateway/internal/apierror"
	"github.com/godilite/krishi-gateway/internal/repository/models"
	"github.com/godilite/krishi-gateway/internal/service/mocks"
	"github.com/godilite/krishi-gateway/internal/validation"
)

var signupTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newFarmerService(repo FarmerRepository) *FarmerService {
	return NewFarmerService(repo, validation.New(), zap.NewNop(),
		WithBcryptCost(bcrypt.MinCost),
		WithFarmerClock(func() time.Time { return signupTime }))
}

func validSignup() SignupRequest {
	return SignupRequest{
		Name:        "Ravi Kumar",
		Email:       "Ravi@Example.com",
		Password:    "s3cret",
		Location:    "Nashik",
		JoinedDate:  "2025-06-01",
		PhoneNumber: "+919876543210",
		FarmSize:    "4 acres",
	}
}

func requireKind(t *testing.T, err error, kind apierror.Kind) *apierror.Error {
	t.Helper()
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr), "expected *apierror.Error, got %v", err)
	require.Equal(t, kind, apiErr.Kind)
	return apiErr
}

func TestNewFarmerService(t *testing.T) {
	t.Run("nil repository panics", func(t *testing.T) {
		assert.Panics(t, func() { NewFarmerService(nil, nil, nil) })
	})

	t.Run("nil collaborators get defaults", func(t *testing.T) {
		s := NewFarmerService(&mocks.MockFarmerRepository{}, nil, nil, WithBcryptCost(bcrypt.MinCost))
		assert.NotNil(t, s.validator)
		assert.NotNil(t, s.logger)
		assert.NotEmpty(t, s.dummyHash)
	})
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a hashed account", func(t *testing.T) {
		var stored models.Farmer
		repo := &mocks.MockFarmerRepository{
			FindByEmailFunc: func(_ context.Context, email string) (models.Farmer, error) {
				assert.Equal(t, "ravi@example.com", email)
				return models.Farmer{}, models.ErrNotFound
			},
			InsertFunc: func(_ context.Context, f models.Farmer) error {
				stored = f
				return nil
			},
		}

		profile, err := newFarmerService(repo).Signup(ctx, validSignup())
		require.NoError(t, err)

		assert.NotEmpty(t, profile.ID)
		assert.Equal(t, "ravi@example.com", profile.Email)
		assert.Equal(t, signupTime, profile.CreatedAt)
		assert.Equal(t, stored.ID, profile.ID)
		assert.NotEqual(t, "s3cret", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		repo := &mocks.MockFarmerRepository{
			FindByEmailFunc: func(context.Context, string) (models.Farmer, error) {
				return models.Farmer{ID: "existing"}, nil
			},
			InsertFunc: func(context.Context, models.Farmer) error {
				t.Fatal("insert must not be called for a duplicate")
				return nil
			},
		}

		_, err := newFarmerService(repo).Signup(ctx, validSignup())
		apiErr := requireKind(t, err, apierror.KindConflict)
		assert.Equal(t, MsgEmailTaken, apiErr.Message)
	})

	t.Run("racing duplicate surfaces the store's persistence failure", func(t *testing.T) {
		repo := &mocks.MockFarmerRepository{
			FindByEmailFunc: func(context.Context, string) (models.Farmer, error) {
				return models.Farmer{}, models.ErrNotFound
			},
			InsertFunc: func(context.Context, models.Farmer) error {
				return apierror.Persistence(errors.New("UNIQUE constraint failed: farmers.email"))
			},
		}

		_, err := newFarmerService(repo).Signup(ctx, validSignup())
		requireKind(t, err, apierror.KindPersistence)
		assert.Contains(t, err.Error(), "save farmer")
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		repo := &mocks.MockFarmerRepository{
			FindByEmailFunc: func(context.Context, string) (models.Farmer, error) {
				return models.Farmer{}, errors.New("database is locked")
			},
		}

		_, err := newFarmerService(repo).Signup(ctx, validSignup())
		require.Error(t, err)
		assert.Equal(t, apierror.KindUnclassified, apierror.KindOf(err))
		assert.Contains(t, err.Error(), "database is locked")
	})

	t.Run("invalid fields are reported together", func(t *testing.T) {
		req := validSignup()
		req.Name = "   "
		req.Email = "not-an-email"
		req.PhoneNumber = "12345"

		_, err := newFarmerService(&mocks.MockFarmerRepository{}).Signup(ctx, req)
		apiErr := requireKind(t, err, apierror.KindValidation)
		assert.Equal(t, map[string]string{
			"name":        "name is required",
			"email":       "email must be a valid email address",
			"phoneNumber": "Invalid Indian phone number",
		}, apiErr.Fields)
	})

	t.Run("phone without country code is accepted", func(t *testing.T) {
		req := validSignup()
		req.PhoneNumber = "9876543210"
		repo := &mocks.MockFarmerRepository{
			FindByEmailFunc: func(context.Context, string) (models.Farmer, error) { return models.Farmer{}, models.ErrNotFound },
			InsertFunc:      func(context.Context, models.Farmer) error { return nil },
		}

		_, err := newFarmerService(repo).Signup(ctx, req)
		assert.NoError(t, err)
	})

	t.Run("password longer than bcrypt allows", func(t *testing.T) {
		req := validSignup()
		req.Password = strings.Repeat("x", 73)
		repo := &mocks.MockFarmerRepository{
			FindByEmailFunc: func(context.Context, string) (models.Farmer, error) { return models.Farmer{}, models.ErrNotFound },
		}

		_, err := newFarmerService(repo).Signup(ctx, req)
		apiErr := requireKind(t, err, apierror.KindValidation)
		assert.Contains(t, apiErr.Fields, "password")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mocks.MockFarmerRepository{
		FindByEmailFunc: func(_ context.Context, email string) (models.Farmer, error) {
			if email == "ravi@example.com" {
				return models.Farmer{ID: "f1", Name: "Ravi Kumar", Email: email, PasswordHash: string(hash)}, nil
			}
			return models.Farmer{}, models.ErrNotFound
		},
	}
	svc := newFarmerService(repo)

	t.Run("correct credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "RAVI@example.com", Password: "s3cret"})
		require.NoError(t, err)
		assert.Equal(t, LoginResponse{Name: "Ravi Kumar", Email: "ravi@example.com"}, resp)
	})

	t.Run("wrong password and unknown email are identical", func(t *testing.T) {
		_, wrongPass := svc.Login(ctx, LoginRequest{Email: "ravi@example.com", Password: "nope"})
		_, unknown := svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "s3cret"})

		a := requireKind(t, wrongPass, apierror.KindUnauthenticated)
		b := requireKind(t, unknown, apierror.KindUnauthenticated)
		assert.Equal(t, MsgInvalidCredentials, a.Message)
		assert.Equal(t, a.Error(), b.Error())
	})

	t.Run("missing password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "ravi@example.com"})
		apiErr := requireKind(t, err, apierror.KindValidation)
		assert.Equal(t, map[string]string{"password": "password is required"}, apiErr.Fields)
	})
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockFarmerRepository{
		FindByEmailFunc: func(_ context.Context, email string) (models.Farmer, error) {
			if email == "ravi@example.com" {
				return models.Farmer{ID: "f1", Name: "Ravi Kumar", Email: email, PasswordHash: "secret-hash", Location: "Nashik"}, nil
			}
			return models.Farmer{}, models.ErrNotFound
		},
	}
	svc := newFarmerService(repo)

	t.Run("known email", func(t *testing.T) {
		profile, err := svc.Dashboard(ctx, DashboardQuery{Email: "ravi@example.com"})
		require.NoError(t, err)
		assert.Equal(t, FarmerProfile{ID: "f1", Name: "Ravi Kumar", Email: "ravi@example.com", Location: "Nashik"}, profile)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Dashboard(ctx, DashboardQuery{Email: "ghost@example.com"})
		apiErr := requireKind(t, err, apierror.KindNotFound)
		assert.Equal(t, MsgFarmerNotFound, apiErr.Message)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := svc.Dashboard(ctx, DashboardQuery{})
		apiErr := requireKind(t, err, apierror.KindValidation)
		assert.Equal(t, map[string]string{"email": "email is required"}, apiErr.Fields)
	})
}
