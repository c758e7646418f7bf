// Package api serves the MealMate JSON API.
package api

import (
	"context"

	"github.com/Freeeeeet/mealmate/internal/model"
	"github.com/Freeeeeet/mealmate/internal/service"
	"go.uber.org/zap"
)

type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email string) (*model.User, error)
}

type TimetableService interface {
	Analyze(ctx context.Context, in service.AnalyzeInput) (*service.AnalyzeResult, error)
	ListForUser(ctx context.Context, userID int64) ([]*model.Timetable, error)
}

type MatchService interface {
	SubmitRequest(ctx context.Context, in service.SubmitRequestInput) (*service.SubmitResult, error)
	SetStatus(ctx context.Context, matchID int64, status string) error
	ListForUser(ctx context.Context, userID int64) ([]*model.MatchDetails, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	userService      UserService
	timetableService TimetableService
	matchService     MatchService
	db               Pinger
	maxUploadBytes   int64
	logger           *zap.Logger
}

func NewHandlers(
	userService UserService,
	timetableService TimetableService,
	matchService MatchService,
	db Pinger,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:      userService,
		timetableService: timetableService,
		matchService:     matchService,
		db:               db,
		maxUploadBytes:   maxUploadBytes,
		logger:           logger,
	}
}
