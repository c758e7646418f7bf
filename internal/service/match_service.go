package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/mealmate/internal/config"
	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/timeslot"
	"go.uber.org/zap"
)

// CandidateStore lists users eligible for a slot.
type CandidateStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ListCandidates(ctx context.Context, requesterID int64, date timeslot.Date, mealType model.MealType) ([]*model.User, error)
}

// CourseReader returns a user's classes on a weekday (0 = Sunday).
type CourseReader interface {
	CoursesForDay(ctx context.Context, userID int64, dayOfWeek int) ([]*model.Course, error)
}

type MatchRequestStore interface {
	Create(ctx context.Context, req *model.MatchRequest) error
}

type MatchStore interface {
	Create(ctx context.Context, match *model.Match) error
	UpdateStatus(ctx context.Context, id int64, status model.MatchStatus) error
	HasActive(ctx context.Context, userID int64, date timeslot.Date, mealType model.MealType) (bool, error)
	ListDetailsByUser(ctx context.Context, userID int64) ([]*model.MatchDetails, error)
}

// Transactor runs fn in one transaction carried by ctx. Lock takes a
// transaction-scoped lock on key and must be called inside WithinTx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Lock(ctx context.Context, key string) error
}

type MatchService struct {
	users    CandidateStore
	courses  CourseReader
	requests MatchRequestStore
	matches  MatchStore
	tx       Transactor
	mode     config.MatchMode
	location *time.Location
	logger   *zap.Logger
}

func NewMatchService(
	users CandidateStore,
	courses CourseReader,
	requests MatchRequestStore,
	matches MatchStore,
	tx Transactor,
	mode config.MatchMode,
	location *time.Location,
	logger *zap.Logger,
) *MatchService {
	if location == nil {
		location = time.UTC
	}
	return &MatchService{
		users:    users,
		courses:  courses,
		requests: requests,
		matches:  matches,
		tx:       tx,
		mode:     mode,
		location: location,
		logger:   logger,
	}
}

type SubmitRequestInput struct {
	RequesterID        int64
	MealType           string
	RequestDate        string
	PreferredTimeStart string
	PreferredTimeEnd   string
	PreferredLocation  string
	Message            string
}

type SubmitResult struct {
	Request *model.MatchRequest
	Matches []*model.CreatedMatch
}

func (s *MatchService) parseRequest(in SubmitRequestInput) (*model.MatchRequest, error) {
	var v validator

	v.require(in.RequesterID > 0, "requester_id is required")

	mealType := model.MealType(strings.ToLower(strings.TrimSpace(in.MealType)))
	v.require(mealType.Valid(), "meal_type must be %q or %q", model.MealTypeLunch, model.MealTypeDinner)

	date, err := timeslot.ParseDate(strings.TrimSpace(in.RequestDate), s.location)
	if err != nil {
		v.addf("request_date: %v", err)
	}

	start, errStart := timeslot.ParseClock(strings.TrimSpace(in.PreferredTimeStart))
	if errStart != nil {
		v.addf("preferred_time_start: %v", errStart)
	}
	end, errEnd := timeslot.ParseClock(strings.TrimSpace(in.PreferredTimeEnd))
	if errEnd != nil {
		v.addf("preferred_time_end: %v", errEnd)
	}
	if errStart == nil && errEnd == nil {
		v.require(start < end, "preferred_time_start must be before preferred_time_end")
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	return &model.MatchRequest{
		RequesterID:        in.RequesterID,
		MealType:           mealType,
		RequestDate:        date,
		PreferredTimeStart: start,
		PreferredTimeEnd:   end,
		PreferredLocation:  strings.TrimSpace(in.PreferredLocation),
		Message:            strings.TrimSpace(in.Message),
	}, nil
}

// SubmitRequest records the request and then pairs the requester with every
// eligible candidate whose classes, like the requester's, leave the window
// free. One pending match is created per surviving candidate.
//
// The request row is kept even when discovery fails afterwards.
func (s *MatchService) SubmitRequest(ctx context.Context, in SubmitRequestInput) (*SubmitResult, error) {
	req, err := s.parseRequest(in)
	if err != nil {
		return nil, err
	}

	requester, err := s.users.GetByID(ctx, req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("get requester %d: %w", req.RequesterID, err)
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create match request: %w", err)
	}

	s.logger.Info("Match request created",
		zap.Int64("request_id", req.ID),
		zap.Int64("requester_id", requester.ID),
		zap.String("meal_type", string(req.MealType)),
		zap.String("date", req.RequestDate.String()),
		zap.String("window", fmt.Sprintf("%s-%s", req.PreferredTimeStart, req.PreferredTimeEnd)),
	)

	matches, err := s.discover(ctx, req)
	if err != nil {
		s.logger.Error("Match discovery failed",
			zap.Int64("request_id", req.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("discover matches for request %d: %w", req.ID, err)
	}

	s.logger.Info("Match discovery finished",
		zap.Int64("request_id", req.ID),
		zap.Int("matches", len(matches)),
		zap.String("mode", string(s.mode)),
	)

	return &SubmitResult{Request: req, Matches: matches}, nil
}

func (s *MatchService) discover(ctx context.Context, req *model.MatchRequest) ([]*model.CreatedMatch, error) {
	dayOfWeek := req.RequestDate.DayOfWeek()
	window := req.Window()

	var created []*model.CreatedMatch

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created = nil

		requesterCourses, err := s.courses.CoursesForDay(ctx, req.RequesterID, dayOfWeek)
		if err != nil {
			return fmt.Errorf("get requester courses: %w", err)
		}
		requesterIntervals := model.Intervals(requesterCourses)

		candidates, err := s.users.ListCandidates(ctx, req.RequesterID, req.RequestDate, req.MealType)
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}

		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

		if s.mode == config.MatchModeSerialized {
			if err := s.lockSlots(ctx, req, candidates); err != nil {
				return err
			}
		}

		for _, candidate := range candidates {
			if s.mode == config.MatchModeSerialized {
				busy, err := s.matches.HasActive(ctx, candidate.ID, req.RequestDate, req.MealType)
				if err != nil {
					return fmt.Errorf("recheck slot of candidate %d: %w", candidate.ID, err)
				}
				if busy {
					s.logger.Debug("Candidate matched concurrently, skipped",
						zap.Int64("request_id", req.ID),
						zap.Int64("candidate_id", candidate.ID),
					)
					continue
				}
			}

			candidateCourses, err := s.courses.CoursesForDay(ctx, candidate.ID, dayOfWeek)
			if err != nil {
				return fmt.Errorf("get courses of candidate %d: %w", candidate.ID, err)
			}

			if timeslot.HasConflict(requesterIntervals, model.Intervals(candidateCourses), window.Start, window.End) {
				s.logger.Debug("Candidate rejected by class conflict",
					zap.Int64("request_id", req.ID),
					zap.Int64("candidate_id", candidate.ID),
				)
				continue
			}

			match := &model.Match{
				RequestID: req.ID,
				User1ID:   req.RequesterID,
				User2ID:   candidate.ID,
				MealType:  req.MealType,
				MealDate:  req.RequestDate,
				MealTime:  req.PreferredTimeStart,
				Location:  req.PreferredLocation,
				Status:    model.MatchStatusPending,
			}

			if err := s.matches.Create(ctx, match); err != nil {
				return fmt.Errorf("create match with candidate %d: %w", candidate.ID, err)
			}

			created = append(created, &model.CreatedMatch{
				Match:     *match,
				Candidate: candidate.Contact(),
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// lockSlots takes the slot locks of the requester and every candidate for
// the rest of the transaction, in ascending user id. Including the requester
// serializes two requesters that list each other as candidates.
func (s *MatchService) lockSlots(ctx context.Context, req *model.MatchRequest, candidates []*model.User) error {
	ids := make([]int64, 0, len(candidates)+1)
	ids = append(ids, req.RequesterID)
	for _, c := range candidates {
		if c.ID != req.RequesterID {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		key := model.SlotKey{UserID: id, MealDate: req.RequestDate, MealType: req.MealType}
		if err := s.tx.Lock(ctx, key.String()); err != nil {
			return fmt.Errorf("lock slot %s: %w", key, err)
		}
	}
	return nil
}

// SetStatus moves a match to confirmed or cancelled. Any current status is
// accepted and the last write wins.
func (s *MatchService) SetStatus(ctx context.Context, matchID int64, status string) error {
	next := model.MatchStatus(strings.ToLower(strings.TrimSpace(status)))
	if next != model.MatchStatusConfirmed && next != model.MatchStatusCancelled {
		return &ValidationError{Problems: []string{
			fmt.Sprintf("status must be %q or %q", model.MatchStatusConfirmed, model.MatchStatusCancelled),
		}}
	}
	if matchID <= 0 {
		return &ValidationError{Problems: []string{"match id must be positive"}}
	}

	if err := s.matches.UpdateStatus(ctx, matchID, next); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("match %d: %w", matchID, err)
		}
		return fmt.Errorf("update match status: %w", err)
	}

	s.logger.Info("Match status updated",
		zap.Int64("match_id", matchID),
		zap.String("status", string(next)),
	)

	return nil
}

// ListForUser returns every match the user takes part in, newest first.
func (s *MatchService) ListForUser(ctx context.Context, userID int64) ([]*model.MatchDetails, error) {
	details, err := s.matches.ListDetailsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches of user %d: %w", userID, err)
	}
	if details == nil {
		details = []*model.MatchDetails{}
	}
	return details, nil
}
