package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/repository/base"
	"github.com/Freeeeeet/mealmate/internal/timeslot"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const matchColumns = `m.id, m.request_id, m.user1_id, m.user2_id, m.meal_type, m.meal_date, m.meal_time,
	m.location, m.status, m.created_at, m.updated_at`

type MatchRepository struct {
	*base.Repository
}

func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{Repository: base.NewRepository(pool)}
}

func (r *MatchRepository) Create(ctx context.Context, match *model.Match) error {
	query := `
		INSERT INTO matches (request_id, user1_id, user2_id, meal_type, meal_date, meal_time, location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		match.RequestID,
		match.User1ID,
		match.User2ID,
		match.MealType,
		match.MealDate.Time,
		match.MealTime,
		match.Location,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*model.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE m.id = $1`

	var match model.Match
	err := scanMatch(r.QueryRow(ctx, query, id), &match)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get match by id: %w", err)
	}

	return &match, nil
}

// UpdateStatus writes status unconditionally; the previous status is not checked.
func (r *MatchRepository) UpdateStatus(ctx context.Context, id int64, status model.MatchStatus) error {
	affected, err := r.ExecAffected(ctx, `
		UPDATE matches
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}

	if affected == 0 {
		return model.ErrNotFound
	}

	return nil
}

// HasActive reports whether the user takes part in a pending or confirmed
// match for the date and meal type.
func (r *MatchRepository) HasActive(ctx context.Context, userID int64, date timeslot.Date, mealType model.MealType) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM matches
			WHERE (user1_id = $1 OR user2_id = $1)
			  AND meal_date = $2
			  AND meal_type = $3
			  AND status IN ('pending', 'confirmed')
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, userID, date.Time, mealType).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active match: %w", err)
	}

	return exists, nil
}

// ListDetailsByUser returns the user's matches joined with both participants
// and the originating request, newest first.
func (r *MatchRepository) ListDetailsByUser(ctx context.Context, userID int64) ([]*model.MatchDetails, error) {
	query := `
		SELECT ` + matchColumns + `,
		       u1.name, u1.email, u1.phone,
		       u2.name, u2.email, u2.phone,
		       mr.preferred_location, mr.message
		FROM matches m
		JOIN users u1 ON u1.id = m.user1_id
		JOIN users u2 ON u2.id = m.user2_id
		JOIN match_requests mr ON mr.id = m.request_id
		WHERE m.user1_id = $1 OR m.user2_id = $1
		ORDER BY m.created_at DESC, m.id DESC
	`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get matches by user: %w", err)
	}
	defer rows.Close()

	details := make([]*model.MatchDetails, 0)
	for rows.Next() {
		var (
			d        model.MatchDetails
			mealDate time.Time
		)
		err := rows.Scan(
			&d.ID,
			&d.RequestID,
			&d.User1ID,
			&d.User2ID,
			&d.MealType,
			&mealDate,
			&d.MealTime,
			&d.Location,
			&d.Status,
			&d.CreatedAt,
			&d.UpdatedAt,
			&d.User1Name,
			&d.User1Email,
			&d.User1Phone,
			&d.User2Name,
			&d.User2Email,
			&d.User2Phone,
			&d.PreferredLocation,
			&d.Message,
		)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		d.MealDate = timeslot.NewDate(mealDate)
		details = append(details, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return details, nil
}

func scanMatch(row pgx.Row, m *model.Match) error {
	var mealDate time.Time
	err := row.Scan(
		&m.ID,
		&m.RequestID,
		&m.User1ID,
		&m.User2ID,
		&m.MealType,
		&mealDate,
		&m.MealTime,
		&m.Location,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	m.MealDate = timeslot.NewDate(mealDate)
	return nil
}
