package service

import (
	"time"

	"github.com/godilite/krishi-gateway/internal/inference"
	"github.com/godilite/krishi-gateway/internal/repository/models"
)

// RecommendationRequest uses pointers so a missing or null feature is
// distinguishable from zero.
type RecommendationRequest struct {
	N           *float64 `json:"N" validate:"required,gte=0"`
	P           *float64 `json:"P" validate:"required,gte=0"`
	K           *float64 `json:"K" validate:"required,gte=0"`
	Temperature *float64 `json:"temperature" validate:"required"`
	Humidity    *float64 `json:"humidity" validate:"required"`
	PH          *float64 `json:"ph" validate:"required"`
	Rainfall    *float64 `json:"rainfall" validate:"required"`
}

// Features must only be called on a validated request.
func (r RecommendationRequest) Features() inference.CropFeatures {
	return inference.CropFeatures{
		N:           *r.N,
		P:           *r.P,
		K:           *r.K,
		Temperature: *r.Temperature,
		Humidity:    *r.Humidity,
		PH:          *r.PH,
		Rainfall:    *r.Rainfall,
	}
}

type SignupRequest struct {
	Name        string `json:"name" validate:"notblank"`
	Email       string `json:"email" validate:"notblank,email"`
	Password    string `json:"password" validate:"notblank"`
	Location    string `json:"location" validate:"notblank"`
	JoinedDate  string `json:"joinedDate" validate:"notblank"`
	PhoneNumber string `json:"phoneNumber" validate:"notblank,in_phone"`
	FarmSize    string `json:"farmSize" validate:"notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type LoginResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type DashboardQuery struct {
	Email string `form:"email" validate:"notblank"`
}

// FarmerProfile is an account as shown to clients: everything but the
// password hash.
type FarmerProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Location    string    `json:"location"`
	JoinedDate  string    `json:"joinedDate"`
	PhoneNumber string    `json:"phoneNumber"`
	FarmSize    string    `json:"farmSize"`
	CreatedAt   time.Time `json:"createdAt"`
}

func profileOf(f models.Farmer) FarmerProfile {
	return FarmerProfile{
		ID:          f.ID,
		Name:        f.Name,
		Email:       f.Email,
		Location:    f.Location,
		JoinedDate:  f.JoinedDate,
		PhoneNumber: f.PhoneNumber,
		FarmSize:    f.FarmSize,
		CreatedAt:   f.CreatedAt,
	}
}

type FeedbackRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"notblank,email"`
	Rating   *int   `json:"rating" validate:"required,min=1,max=5"`
	Category string `json:"category" validate:"notblank"`
	Message  string `json:"message" validate:"notblank,max=1000"`
}
