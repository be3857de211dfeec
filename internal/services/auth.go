package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/models"
	"qc-tracker/backend/internal/repositories"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

type CreateUserInput struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     models.Role `json:"role" validate:"required,role"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error)
}

type AuthServiceImpl struct {
	users      repositories.UserRepository
	throttle   LoginThrottle
	bcryptCost int
	log        logrus.FieldLogger
}

func NewAuthService(store repositories.Store, throttle LoginThrottle, bcryptCost int, log logrus.FieldLogger) *AuthServiceImpl {
	if throttle == nil {
		throttle = NoopThrottle{}
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthServiceImpl{
		users:      store.Users(),
		throttle:   throttle,
		bcryptCost: bcryptCost,
		log:        log.WithField("service", "auth"),
	}
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks the password against the stored bcrypt hash. It issues no session
// or token. Failed attempts count against the email's throttle window.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	entry := s.log.WithField("email", email)
	allowed, err := s.throttle.Allow(ctx, email)
	if err != nil {
		entry.WithError(err).Warn("login throttle unavailable")
	} else if !allowed {
		entry.Warn("login blocked by throttle")
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.recordFailure(ctx, entry, email)
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(user.PasswordHash, password) {
		s.recordFailure(ctx, entry, email)
		return nil, ErrInvalidCredentials
	}

	if err := s.throttle.Reset(ctx, email); err != nil {
		entry.WithError(err).Warn("failed to reset login throttle")
	}
	entry.WithField("user_id", user.ID).Info("user logged in")
	return user, nil
}

func (s *AuthServiceImpl) recordFailure(ctx context.Context, entry logrus.FieldLogger, email string) {
	entry.Info("failed login attempt")
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		entry.WithError(err).Warn("failed to record login failure")
	}
}

func (s *AuthServiceImpl) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           models.NewID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.Validation("email", "a user with email %s already exists", in.Email)
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user created")
	return user, nil
}
