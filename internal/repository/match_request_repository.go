package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/repository/base"
	"github.com/Freeeeeet/mealmate/internal/timeslot"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRequestRepository struct {
	*base.Repository
}

func NewMatchRequestRepository(pool *pgxpool.Pool) *MatchRequestRepository {
	return &MatchRequestRepository{Repository: base.NewRepository(pool)}
}

// Create stores the request verbatim.
func (r *MatchRequestRepository) Create(ctx context.Context, req *model.MatchRequest) error {
	query := `
		INSERT INTO match_requests
			(requester_id, meal_type, request_date, preferred_time_start, preferred_time_end, preferred_location, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		req.RequesterID,
		req.MealType,
		req.RequestDate.Time,
		req.PreferredTimeStart,
		req.PreferredTimeEnd,
		req.PreferredLocation,
		req.Message,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create match request: %w", err)
	}

	return nil
}

func (r *MatchRequestRepository) GetByID(ctx context.Context, id int64) (*model.MatchRequest, error) {
	query := `
		SELECT id, requester_id, meal_type, request_date, preferred_time_start, preferred_time_end,
		       preferred_location, message, created_at
		FROM match_requests
		WHERE id = $1
	`

	var (
		req  model.MatchRequest
		date time.Time
	)
	err := r.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.RequesterID,
		&req.MealType,
		&date,
		&req.PreferredTimeStart,
		&req.PreferredTimeEnd,
		&req.PreferredLocation,
		&req.Message,
		&req.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get match request by id: %w", err)
	}
	req.RequestDate = timeslot.NewDate(date)

	return &req, nil
}
