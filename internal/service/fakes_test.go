package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/timeslot"
)

// memDB is an in-memory stand-in for the Postgres repositories. Matches
// follow read committed: a transaction sees committed rows plus its own
// pending ones, and other transactions see them only after commit.
type memDB struct {
	mu sync.Mutex

	users      map[int64]*model.User
	timetables []*model.Timetable
	requests   []*model.MatchRequest
	matches    []*model.Match // committed

	nextID int64

	// hooks and injected failures
	afterListCandidates func()
	coursesErr          func(userID int64) error
	createMatchErr      error

	slotLocks sync.Map // string -> *sync.Mutex
}

func newMemDB() *memDB {
	return &memDB{users: make(map[int64]*model.User)}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

// users

func (db *memDB) Create(ctx context.Context, user *model.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	user.ID = db.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	db.users[user.ID] = &cp
	return nil
}

func (db *memDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (db *memDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (db *memDB) UpdateContact(ctx context.Context, user *model.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[user.ID]
	if !ok {
		return model.ErrNotFound
	}
	u.Name, u.Phone = user.Name, user.Phone
	return nil
}

// visibleMatchesLocked returns committed matches plus those pending in the
// transaction carried by ctx.
func (db *memDB) visibleMatchesLocked(ctx context.Context) []*model.Match {
	st, ok := ctx.Value(memTxKey{}).(*memTxState)
	if !ok || len(st.pending) == 0 {
		return db.matches
	}
	out := make([]*model.Match, 0, len(db.matches)+len(st.pending))
	out = append(out, db.matches...)
	return append(out, st.pending...)
}

func (db *memDB) hasActiveLocked(ctx context.Context, userID int64, date timeslot.Date, mealType model.MealType) bool {
	for _, m := range db.visibleMatchesLocked(ctx) {
		if m.Involves(userID) && m.MealDate.Equal(date) && m.MealType == mealType && m.Status.IsActive() {
			return true
		}
	}
	return false
}

func (db *memDB) ListCandidates(ctx context.Context, requesterID int64, date timeslot.Date, mealType model.MealType) ([]*model.User, error) {
	db.mu.Lock()
	requester, ok := db.users[requesterID]
	if !ok {
		db.mu.Unlock()
		return nil, model.ErrNotFound
	}

	var out []*model.User
	for _, u := range db.users {
		if u.ID == requesterID || u.University != requester.University {
			continue
		}
		if db.hasActiveLocked(ctx, u.ID, date, mealType) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	hook := db.afterListCandidates
	db.mu.Unlock()

	// map order is random; the service must not depend on it
	if hook != nil {
		hook()
	}
	return out, nil
}

// timetables

func (db *memDB) Replace(ctx context.Context, tt *model.Timetable) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	kept := db.timetables[:0]
	for _, existing := range db.timetables {
		if existing.UserID == tt.UserID && existing.Semester == tt.Semester {
			continue
		}
		kept = append(kept, existing)
	}
	db.timetables = kept

	tt.ID = db.id()
	tt.CreatedAt = time.Now()
	tt.UpdatedAt = tt.CreatedAt
	for _, c := range tt.Courses {
		c.ID = db.id()
		c.TimetableID = tt.ID
	}
	db.timetables = append(db.timetables, tt)
	return nil
}

func (db *memDB) ListByUser(ctx context.Context, userID int64) ([]*model.Timetable, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*model.Timetable
	for i := len(db.timetables) - 1; i >= 0; i-- {
		if db.timetables[i].UserID == userID {
			out = append(out, db.timetables[i])
		}
	}
	return out, nil
}

func (db *memDB) CoursesForDay(ctx context.Context, userID int64, dayOfWeek int) ([]*model.Course, error) {
	if db.coursesErr != nil {
		if err := db.coursesErr(userID); err != nil {
			return nil, err
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *model.Timetable
	for _, tt := range db.timetables {
		if tt.UserID == userID {
			latest = tt
		}
	}
	if latest == nil {
		return nil, nil
	}

	var out []*model.Course
	for _, c := range latest.Courses {
		if c.DayOfWeek == dayOfWeek {
			out = append(out, c)
		}
	}
	return out, nil
}

// seedCourses stores a timetable for the user directly.
func (db *memDB) seedCourses(userID int64, courses ...*model.Course) {
	_ = db.Replace(context.Background(), &model.Timetable{UserID: userID, Semester: "2025-1", Courses: courses})
}

// match requests and matches

type memRequests struct{ db *memDB }

func (r memRequests) Create(ctx context.Context, req *model.MatchRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	req.ID = r.db.id()
	req.CreatedAt = time.Now()
	cp := *req
	r.db.requests = append(r.db.requests, &cp)
	return nil
}

type memMatches struct{ db *memDB }

func (r memMatches) Create(ctx context.Context, match *model.Match) error {
	db := r.db
	if db.createMatchErr != nil {
		return db.createMatchErr
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	match.ID = db.id()
	match.CreatedAt = time.Now()
	match.UpdatedAt = match.CreatedAt
	cp := *match

	if st, ok := ctx.Value(memTxKey{}).(*memTxState); ok {
		st.pending = append(st.pending, &cp)
		return nil
	}
	db.matches = append(db.matches, &cp)
	return nil
}

func (r memMatches) UpdateStatus(ctx context.Context, id int64, status model.MatchStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, m := range r.db.matches {
		if m.ID == id {
			m.Status = status
			m.UpdatedAt = time.Now()
			return nil
		}
	}
	return model.ErrNotFound
}

func (r memMatches) HasActive(ctx context.Context, userID int64, date timeslot.Date, mealType model.MealType) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.db.hasActiveLocked(ctx, userID, date, mealType), nil
}

func (r memMatches) ListDetailsByUser(ctx context.Context, userID int64) ([]*model.MatchDetails, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*model.MatchDetails
	for _, m := range r.db.matches {
		if !m.Involves(userID) {
			continue
		}
		u1, u2 := r.db.users[m.User1ID], r.db.users[m.User2ID]
		out = append(out, &model.MatchDetails{
			Match:      *m,
			User1Name:  u1.Name,
			User1Email: u1.Email,
			User2Name:  u2.Name,
			User2Email: u2.Email,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// transactions

type memTxKey struct{}

type memTxState struct {
	locks   []*sync.Mutex
	pending []*model.Match
}

type memTx struct{ db *memDB }

// WithinTx publishes pending matches when fn succeeds and drops them when
// it fails. Slot locks are released after the commit.
func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTxState); ok {
		return fn(ctx)
	}

	st := &memTxState{}
	err := fn(context.WithValue(ctx, memTxKey{}, st))

	if err == nil {
		t.db.mu.Lock()
		t.db.matches = append(t.db.matches, st.pending...)
		t.db.mu.Unlock()
	}

	for i := len(st.locks) - 1; i >= 0; i-- {
		st.locks[i].Unlock()
	}
	return err
}

func (t memTx) Lock(ctx context.Context, key string) error {
	st, ok := ctx.Value(memTxKey{}).(*memTxState)
	if !ok {
		return errors.New("lock outside transaction")
	}
	m, _ := t.db.slotLocks.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	st.locks = append(st.locks, mu)
	return nil
}
