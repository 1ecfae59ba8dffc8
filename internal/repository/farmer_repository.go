package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/godilite/krishi-gateway/internal/repository/models"
)

type FarmerRepository struct {
	db *sql.DB
}

func NewFarmerRepository(db *sql.DB) *FarmerRepository {
	return &FarmerRepository{db: db}
}

// Insert stores a new account. A duplicate email violates the unique index
// and is reported as a persistence failure.
func (r *FarmerRepository) Insert(ctx context.Context, f models.Farmer) error {
	const query = `
		INSERT INTO farmers (id, name, email, password_hash, location, joined_date, phone_number, farm_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Name, f.Email, f.PasswordHash, f.Location, f.JoinedDate, f.PhoneNumber, f.FarmSize, formatTime(f.CreatedAt))
	if err != nil {
		return wrapWriteError("insert farmer", err)
	}
	return nil
}

// FindByEmail returns models.ErrNotFound when no account uses email.
func (r *FarmerRepository) FindByEmail(ctx context.Context, email string) (models.Farmer, error) {
	const query = `
		SELECT id, name, email, password_hash, location, joined_date, phone_number, farm_size, created_at
		FROM farmers
		WHERE email = ?
	`

	var (
		f       models.Farmer
		created string
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&f.ID, &f.Name, &f.Email, &f.PasswordHash, &f.Location, &f.JoinedDate, &f.PhoneNumber, &f.FarmSize, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Farmer{}, models.ErrNotFound
		}
		return models.Farmer{}, fmt.Errorf("query FindByEmail: %w", err)
	}

	if f.CreatedAt, err = parseTime(created); err != nil {
		return models.Farmer{}, fmt.Errorf("parse created_at of farmer %s: %w", f.ID, err)
	}
	return f, nil
}

// Count returns the number of registered accounts.
func (r *FarmerRepository) Count(ctx context.Context) (int64, error) {
	var count sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM farmers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("query Count farmers: %w", err)
	}
	return count.Int64, nil
}
