package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/mealmate/internal/model"
	"go.uber.org/zap"
)

// UserStore is the user persistence used by UserService.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateContact(ctx context.Context, user *model.User) error
}

// ErrUserNotExist is returned by Login for an unknown email.
var ErrUserNotExist = fmt.Errorf("user does not exist: %w", model.ErrNotFound)

type UserService struct {
	userRepo UserStore
	logger   *zap.Logger
}

func NewUserService(userRepo UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

type RegisterInput struct {
	Name       string
	Email      string
	Phone      *string
	University string
}

// Register creates the user, or refreshes the contact fields of the user
// already registered under the same email. University is never changed.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	university := strings.TrimSpace(in.University)

	var v validator
	v.require(name != "", "name is required")
	v.require(email != "", "email is required")
	v.require(email == "" || strings.Contains(email, "@"), "email %q is malformed", email)
	v.require(university != "", "university is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	phone := in.Phone
	if phone != nil {
		trimmed := strings.TrimSpace(*phone)
		if trimmed == "" {
			phone = nil
		} else {
			phone = &trimmed
		}
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if existingUser != nil {
		existingUser.Name = name
		existingUser.Phone = phone

		if err := s.userRepo.UpdateContact(ctx, existingUser); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Info("User updated",
			zap.Int64("user_id", existingUser.ID),
			zap.String("email", email),
		)

		return existingUser, nil
	}

	user := &model.User{
		Name:       name,
		Email:      email,
		Phone:      phone,
		University: university,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", email),
		zap.String("university", university),
	)

	return user, nil
}

// Login looks the user up by email. There is no password check.
func (s *UserService) Login(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &ValidationError{Problems: []string{"email is required"}}
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrUserNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
