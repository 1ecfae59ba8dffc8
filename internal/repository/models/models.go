package models

import "time"

// Farmer is a registered account. PasswordHash never leaves the service.
type Farmer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Location     string    `json:"location"`
	JoinedDate   string    `json:"joinedDate"`
	PhoneNumber  string    `json:"phoneNumber"`
	FarmSize     string    `json:"farmSize"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Feedback is an immutable feedback record.
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
