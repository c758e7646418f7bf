package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const courseColumns = `id, timetable_id, course_name, professor, day_of_week, start_time, end_time, location, created_at`

// TimetableRepository stores schedule snapshots and their course blocks.
type TimetableRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewTimetableRepository(pool *pgxpool.Pool, logger *zap.Logger) *TimetableRepository {
	return &TimetableRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// Replace deletes the user's snapshot for the semester and inserts tt with
// its courses. Call it inside a transaction so the swap is atomic.
func (r *TimetableRepository) Replace(ctx context.Context, tt *model.Timetable) error {
	deleted, err := r.ExecAffected(ctx,
		`DELETE FROM timetables WHERE user_id = $1 AND semester = $2`,
		tt.UserID, tt.Semester,
	)
	if err != nil {
		return fmt.Errorf("delete previous timetable: %w", err)
	}

	err = r.QueryRow(ctx, `
		INSERT INTO timetables (user_id, semester, image_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, tt.UserID, tt.Semester, tt.ImageURL).Scan(&tt.ID, &tt.CreatedAt, &tt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}

	for _, course := range tt.Courses {
		course.TimetableID = tt.ID
		err := r.QueryRow(ctx, `
			INSERT INTO courses (timetable_id, course_name, professor, day_of_week, start_time, end_time, location)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`,
			course.TimetableID,
			course.CourseName,
			course.Professor,
			course.DayOfWeek,
			course.StartTime,
			course.EndTime,
			course.Location,
		).Scan(&course.ID, &course.CreatedAt)
		if err != nil {
			return fmt.Errorf("create course: %w", err)
		}
	}

	r.logger.Debug("Timetable replaced",
		zap.Int64("user_id", tt.UserID),
		zap.String("semester", tt.Semester),
		zap.Int64("deleted", deleted),
		zap.Int("courses", len(tt.Courses)),
	)

	return nil
}

// ListByUser returns every snapshot of the user, newest first, with courses
// in insertion order.
func (r *TimetableRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Timetable, error) {
	rows, err := r.Query(ctx, `
		SELECT id, user_id, semester, image_url, created_at, updated_at
		FROM timetables
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("get timetables by user: %w", err)
	}
	defer rows.Close()

	var timetables []*model.Timetable
	byID := make(map[int64]*model.Timetable)
	ids := make([]int64, 0)
	for rows.Next() {
		tt := &model.Timetable{Courses: []*model.Course{}}
		err := rows.Scan(&tt.ID, &tt.UserID, &tt.Semester, &tt.ImageURL, &tt.CreatedAt, &tt.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan timetable: %w", err)
		}
		timetables = append(timetables, tt)
		byID[tt.ID] = tt
		ids = append(ids, tt.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timetables: %w", err)
	}

	if len(ids) == 0 {
		return []*model.Timetable{}, nil
	}

	courses, err := r.queryCourses(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE timetable_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		if tt, ok := byID[c.TimetableID]; ok {
			tt.Courses = append(tt.Courses, c)
		}
	}

	return timetables, nil
}

// CoursesForDay returns the course blocks on dayOfWeek from the user's most
// recent snapshot.
func (r *TimetableRepository) CoursesForDay(ctx context.Context, userID int64, dayOfWeek int) ([]*model.Course, error) {
	return r.queryCourses(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE day_of_week = $2
		  AND timetable_id = (
			SELECT id FROM timetables
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		  )
		ORDER BY start_time, id
	`, userID, dayOfWeek)
}

func (r *TimetableRepository) queryCourses(ctx context.Context, query string, args ...any) ([]*model.Course, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*model.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, nil
}

func scanCourse(row pgx.Row) (*model.Course, error) {
	var c model.Course
	err := row.Scan(
		&c.ID,
		&c.TimetableID,
		&c.CourseName,
		&c.Professor,
		&c.DayOfWeek,
		&c.StartTime,
		&c.EndTime,
		&c.Location,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
