package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/mealmate/internal/app"
	"github.com/Freeeeeet/mealmate/internal/config"
	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/repository/base"
	"github.com/Freeeeeet/mealmate/internal/service"
	"github.com/Freeeeeet/mealmate/internal/timeslot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// These tests need a disposable Postgres database in TEST_DB_DSN.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))
	require.NoError(t, migrator.Close())

	_, err = pool.Exec(ctx, `TRUNCATE matches, match_requests, courses, timetables, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

func mustDate(t *testing.T, s string) timeslot.Date {
	t.Helper()
	d, err := timeslot.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func createUser(t *testing.T, repo *UserRepository, name, university string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.ac.kr", University: university}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func createMatch(t *testing.T, pool *pgxpool.Pool, requester, candidate *model.User, date timeslot.Date) *model.Match {
	t.Helper()
	ctx := context.Background()

	req := &model.MatchRequest{
		RequesterID:        requester.ID,
		MealType:           model.MealTypeLunch,
		RequestDate:        date,
		PreferredTimeStart: timeslot.MustParseClock("12:00"),
		PreferredTimeEnd:   timeslot.MustParseClock("13:00"),
		PreferredLocation:  "Cafeteria",
		Message:            "hello",
	}
	require.NoError(t, NewMatchRequestRepository(pool).Create(ctx, req))

	m := &model.Match{
		RequestID: req.ID,
		User1ID:   requester.ID,
		User2ID:   candidate.ID,
		MealType:  model.MealTypeLunch,
		MealDate:  date,
		MealTime:  req.PreferredTimeStart,
		Location:  req.PreferredLocation,
		Status:    model.MatchStatusPending,
	}
	require.NoError(t, NewMatchRepository(pool).Create(ctx, m))
	return m
}

func TestUserRepository(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	u := createUser(t, repo, "kim", "Seoul Univ")
	assert.NotZero(t, u.ID)

	got, err := repo.GetByEmail(ctx, "kim@example.ac.kr")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	phone := "010-0000-0000"
	got.Name, got.Phone = "Kim", &phone
	require.NoError(t, repo.UpdateContact(ctx, got))

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kim", got.Name)
	require.NotNil(t, got.Phone)
	assert.Equal(t, phone, *got.Phone)

	_, err = repo.GetByEmail(ctx, "nobody@example.ac.kr")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListCandidatesExcludesActiveMatches(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	matches := NewMatchRepository(pool)
	ctx := context.Background()

	a := createUser(t, users, "a", "Seoul Univ")
	b := createUser(t, users, "b", "Seoul Univ")
	c := createUser(t, users, "c", "Seoul Univ")
	createUser(t, users, "x", "Other Univ")

	monday := mustDate(t, "2025-03-10")
	m := createMatch(t, pool, a, b, monday)

	candidates, err := users.ListCandidates(ctx, c.ID, monday, model.MealTypeLunch)
	require.NoError(t, err)
	assert.Empty(t, candidates, "a and b hold a pending lunch on 2025-03-10")

	candidates, err = users.ListCandidates(ctx, c.ID, monday, model.MealTypeDinner)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, a.ID, candidates[0].ID)
	assert.Equal(t, b.ID, candidates[1].ID)

	busy, err := matches.HasActive(ctx, b.ID, monday, model.MealTypeLunch)
	require.NoError(t, err)
	assert.True(t, busy)

	require.NoError(t, matches.UpdateStatus(ctx, m.ID, model.MatchStatusCancelled))

	busy, err = matches.HasActive(ctx, b.ID, monday, model.MealTypeLunch)
	require.NoError(t, err)
	assert.False(t, busy)

	candidates, err = users.ListCandidates(ctx, c.ID, monday, model.MealTypeLunch)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestMatchRepositoryDetailsAndStatus(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	matches := NewMatchRepository(pool)
	ctx := context.Background()

	a := createUser(t, users, "a", "Seoul Univ")
	b := createUser(t, users, "b", "Seoul Univ")
	first := createMatch(t, pool, a, b, mustDate(t, "2025-03-10"))
	second := createMatch(t, pool, a, b, mustDate(t, "2025-03-11"))

	details, err := matches.ListDetailsByUser(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, second.ID, details[0].ID)
	assert.Equal(t, first.ID, details[1].ID)
	assert.Equal(t, "a", details[0].User1Name)
	assert.Equal(t, "b", details[0].User2Name)
	assert.Equal(t, "Cafeteria", details[0].PreferredLocation)
	assert.Equal(t, "hello", details[0].Message)
	assert.Equal(t, "12:00", details[0].MealTime.String())
	assert.Equal(t, "2025-03-11", details[0].MealDate.String())

	req, err := NewMatchRequestRepository(pool).GetByID(ctx, second.RequestID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, req.RequesterID)
	assert.Equal(t, "2025-03-11", req.RequestDate.String())
	assert.Equal(t, "13:00", req.PreferredTimeEnd.String())

	_, err = NewMatchRequestRepository(pool).GetByID(ctx, 424242)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, matches.UpdateStatus(ctx, first.ID, model.MatchStatusConfirmed))
	require.NoError(t, matches.UpdateStatus(ctx, first.ID, model.MatchStatusCancelled))
	got, err := matches.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusCancelled, got.Status)

	assert.ErrorIs(t, matches.UpdateStatus(ctx, 424242, model.MatchStatusConfirmed), model.ErrNotFound)
}

func TestTimetableReplaceRoundTrip(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	timetables := NewTimetableRepository(pool, zap.NewNop())
	tx := base.NewTxManager(pool, zap.NewNop())
	ctx := context.Background()

	u := createUser(t, users, "p", "Seoul Univ")
	c := timeslot.MustParseClock

	replace := func(semester string, courses ...*model.Course) {
		t.Helper()
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			return timetables.Replace(ctx, &model.Timetable{UserID: u.ID, Semester: semester, ImageURL: "https://demo-timetable/x", Courses: courses})
		})
		require.NoError(t, err)
	}

	replace("2025-1",
		&model.Course{CourseName: "Old", DayOfWeek: 1, StartTime: c("09:00"), EndTime: c("10:30")},
		&model.Course{CourseName: "Old 2", DayOfWeek: 2, StartTime: c("11:00"), EndTime: c("12:00")},
	)
	replace("2025-1",
		&model.Course{CourseName: "New", DayOfWeek: 1, StartTime: c("13:00"), EndTime: c("14:30")},
	)

	list, err := timetables.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Courses, 1)
	assert.Equal(t, "New", list[0].Courses[0].CourseName)
	assert.Equal(t, c("13:00"), list[0].Courses[0].StartTime)

	monday, err := timetables.CoursesForDay(ctx, u.ID, 1)
	require.NoError(t, err)
	require.Len(t, monday, 1)
	assert.Equal(t, "New", monday[0].CourseName)

	tuesday, err := timetables.CoursesForDay(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, tuesday)
}

func TestTxManagerLockSerializesSlot(t *testing.T) {
	pool := testPool(t)
	tx := base.NewTxManager(pool, zap.NewNop())
	ctx := context.Background()

	key := model.SlotKey{UserID: 1, MealDate: mustDate(t, "2025-03-10"), MealType: model.MealTypeLunch}.String()

	var (
		mu     sync.Mutex
		inside int
		peak   int
		wg     sync.WaitGroup
	)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.WithinTx(ctx, func(ctx context.Context) error {
				if err := tx.Lock(ctx, key); err != nil {
					return err
				}
				mu.Lock()
				inside++
				if inside > peak {
					peak = inside
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
	assert.Error(t, tx.Lock(ctx, key), "locking outside a transaction is an error")
}

// barrierUsers holds every caller of ListCandidates until all of them have
// listed, so concurrent requests read candidates before anyone writes.
type barrierUsers struct {
	*UserRepository
	listed *sync.WaitGroup
}

func (u barrierUsers) ListCandidates(ctx context.Context, requesterID int64, date timeslot.Date, mealType model.MealType) ([]*model.User, error) {
	users, err := u.UserRepository.ListCandidates(ctx, requesterID, date, mealType)
	u.listed.Done()
	u.listed.Wait()
	return users, err
}

func TestSerializedMatchingMutualRequesters(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	matches := NewMatchRepository(pool)
	ctx := context.Background()

	a := createUser(t, users, "a", "Seoul Univ")
	c := createUser(t, users, "c", "Seoul Univ")

	start := mustDate(t, "2025-03-10")
	for i := 0; i < 10; i++ {
		var listed sync.WaitGroup
		listed.Add(2)

		svc := service.NewMatchService(
			barrierUsers{UserRepository: users, listed: &listed},
			NewTimetableRepository(pool, zap.NewNop()),
			NewMatchRequestRepository(pool),
			matches,
			base.NewTxManager(pool, zap.NewNop()),
			config.MatchModeSerialized,
			time.UTC,
			zap.NewNop(),
		)

		date := timeslot.NewDate(start.Time.AddDate(0, 0, 7*i))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, requester := range []*model.User{a, c} {
			wg.Add(1)
			go func(j int, id int64) {
				defer wg.Done()
				_, errs[j] = svc.SubmitRequest(ctx, service.SubmitRequestInput{
					RequesterID:        id,
					MealType:           "lunch",
					RequestDate:        date.String(),
					PreferredTimeStart: "12:00",
					PreferredTimeEnd:   "13:00",
				})
			}(j, requester.ID)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		var n int
		err := pool.QueryRow(ctx, `
			SELECT count(*) FROM matches
			WHERE meal_date = $1 AND status IN ('pending', 'confirmed')
		`, date.Time).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "week %d: a and c must be matched exactly once", i)
	}
}
