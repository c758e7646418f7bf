package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/repository/base"
	"github.com/Freeeeeet/mealmate/internal/timeslot"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, phone, university, created_at, updated_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (name, email, phone, university)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.University,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.QueryRow(ctx, query, email))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// UpdateContact overwrites the contact fields; university stays as registered.
func (r *UserRepository) UpdateContact(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, phone = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query, user.Name, user.Phone, user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return model.ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// ListCandidates returns users of the requester's university, other than
// the requester, who hold no pending or confirmed match for the given
// date and meal type. Ordered by id.
func (r *UserRepository) ListCandidates(ctx context.Context, requesterID int64, date timeslot.Date, mealType model.MealType) ([]*model.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.phone, u.university, u.created_at, u.updated_at
		FROM users u
		JOIN users requester ON requester.id = $1
		WHERE u.university = requester.university
		  AND u.id <> requester.id
		  AND NOT EXISTS (
			SELECT 1 FROM matches m
			WHERE (m.user1_id = u.id OR m.user2_id = u.id)
			  AND m.meal_date = $2
			  AND m.meal_type = $3
			  AND m.status IN ('pending', 'confirmed')
		  )
		ORDER BY u.id
	`

	rows, err := r.Query(ctx, query, requesterID, date.Time, mealType)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.University,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
