package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/mealmate/internal/analyzer"
	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/storage"
	"github.com/Freeeeeet/mealmate/internal/timeslot"
	"go.uber.org/zap"
)

type TimetableStore interface {
	Replace(ctx context.Context, tt *model.Timetable) error
	ListByUser(ctx context.Context, userID int64) ([]*model.Timetable, error)
}

// UserGetter resolves a user id.
type UserGetter interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TxRunner runs fn in one transaction carried by ctx.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const (
	defaultCourseName = "Unknown course"
	defaultDayOfWeek  = 1
	defaultStartTime  = "09:00"
	defaultEndTime    = "10:30"
)

type TimetableService struct {
	users      UserGetter
	timetables TimetableStore
	tx         TxRunner
	images     storage.ImageStore
	analyzer   analyzer.Analyzer
	logger     *zap.Logger
}

func NewTimetableService(
	users UserGetter,
	timetables TimetableStore,
	tx TxRunner,
	images storage.ImageStore,
	courseAnalyzer analyzer.Analyzer,
	logger *zap.Logger,
) *TimetableService {
	return &TimetableService{
		users:      users,
		timetables: timetables,
		tx:         tx,
		images:     images,
		analyzer:   courseAnalyzer,
		logger:     logger,
	}
}

type AnalyzeInput struct {
	UserID      int64
	Semester    string
	Image       []byte
	ContentType string
}

type AnalyzeResult struct {
	Timetable *model.Timetable
	Message   string
}

// Analyze stores the image, extracts the class blocks and replaces the
// user's snapshot for the semester with them. A failed analysis or upload
// degrades to fallback data instead of failing the call.
func (s *TimetableService) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error) {
	semester := strings.TrimSpace(in.Semester)

	var v validator
	v.require(len(in.Image) > 0, "image is required")
	v.require(in.UserID > 0, "userId is required")
	v.require(semester != "", "semester is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("get user %d: %w", in.UserID, err)
	}

	key := storage.TimetableKey(in.UserID, semester, in.ContentType)
	imageURL, err := s.images.Put(ctx, key, in.ContentType, in.Image)
	if err != nil {
		s.logger.Warn("Image upload failed, using demo url",
			zap.Int64("user_id", in.UserID),
			zap.String("key", key),
			zap.Error(err),
		)
		imageURL = storage.DemoURL(key)
	}

	message := s.analyzer.Message()
	records, err := s.analyzer.Analyze(ctx, analyzer.Image{Data: in.Image, ContentType: in.ContentType})
	if err != nil {
		s.logger.Warn("Timetable analysis failed, using fallback courses",
			zap.Int64("user_id", in.UserID),
			zap.Error(err),
		)
		records = analyzer.FallbackCourses()
		message = analyzer.FallbackMessage
	}

	tt := &model.Timetable{
		UserID:   in.UserID,
		Semester: semester,
		ImageURL: imageURL,
		Courses:  s.normalizeCourses(records),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.timetables.Replace(ctx, tt)
	})
	if err != nil {
		return nil, fmt.Errorf("replace timetable: %w", err)
	}

	s.logger.Info("Timetable saved",
		zap.Int64("user_id", in.UserID),
		zap.Int64("timetable_id", tt.ID),
		zap.String("semester", semester),
		zap.Int("courses", len(tt.Courses)),
	)

	return &AnalyzeResult{Timetable: tt, Message: message}, nil
}

// normalizeCourses fills defaults for missing fields and drops blocks that
// still are not well formed.
func (s *TimetableService) normalizeCourses(records []analyzer.CourseRecord) []*model.Course {
	courses := make([]*model.Course, 0, len(records))

	for _, rec := range records {
		name := strings.TrimSpace(rec.CourseName)
		if name == "" {
			name = defaultCourseName
		}

		day := defaultDayOfWeek
		if rec.DayOfWeek != nil {
			day = *rec.DayOfWeek
		}

		start, errStart := timeslot.ParseClock(orDefault(rec.StartTime, defaultStartTime))
		end, errEnd := timeslot.ParseClock(orDefault(rec.EndTime, defaultEndTime))

		if day < 0 || day > 6 || errStart != nil || errEnd != nil || start >= end {
			s.logger.Warn("Dropping malformed course",
				zap.String("course_name", name),
				zap.Int("day_of_week", day),
				zap.String("start_time", rec.StartTime),
				zap.String("end_time", rec.EndTime),
			)
			continue
		}

		courses = append(courses, &model.Course{
			CourseName: name,
			Professor:  strings.TrimSpace(rec.Professor),
			DayOfWeek:  day,
			StartTime:  start,
			EndTime:    end,
			Location:   strings.TrimSpace(rec.Location),
		})
	}

	return courses
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

// ListForUser returns the user's snapshots, newest first.
func (s *TimetableService) ListForUser(ctx context.Context, userID int64) ([]*model.Timetable, error) {
	timetables, err := s.timetables.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list timetables of user %d: %w", userID, err)
	}
	if timetables == nil {
		timetables = []*model.Timetable{}
	}
	return timetables, nil
}
