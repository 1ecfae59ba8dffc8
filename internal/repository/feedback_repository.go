package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/godilite/krishi-gateway/internal/repository/models"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert stores a new feedback record.
func (r *FeedbackRepository) Insert(ctx context.Context, f models.Feedback) error {
	const query = `
		INSERT INTO feedback (id, name, email, rating, category, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Name, f.Email, f.Rating, f.Category, f.Message, formatTime(f.CreatedAt))
	if err != nil {
		return wrapWriteError("insert feedback", err)
	}
	return nil
}

// FindAll returns every feedback record, oldest first.
func (r *FeedbackRepository) FindAll(ctx context.Context) ([]models.Feedback, error) {
	const query = `
		SELECT id, name, email, rating, category, message, created_at
		FROM feedback
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query FindAll feedback: %w", err)
	}
	defer rows.Close()

	var results []models.Feedback
	for rows.Next() {
		var (
			f       models.Feedback
			created string
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Rating, &f.Category, &f.Message, &created); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		if f.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parse created_at of feedback %s: %w", f.ID, err)
		}
		results = append(results, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return results, nil
}
