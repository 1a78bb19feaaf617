// Package auth registers users and verifies their passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"blog/internal/models"
)

// UserStore is the slice of models.Store the credential service needs.
type UserStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service struct {
	users  UserStore
	hasher *Hasher
	log    *zap.Logger
	// decoy is checked against when the email is unknown so that both
	// failure paths do the same hashing work.
	decoy string
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func NewService(users UserStore, hasher *Hasher, log *zap.Logger) (*Service, error) {
	decoy, err := hasher.Hash("decoy")
	if err != nil {
		return nil, err
	}
	return &Service{users: users, hasher: hasher, log: log, decoy: decoy}, nil
}

// Register creates a user with a hashed password. It fails with
// models.ErrDuplicateEmail when the email is taken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("email, password and name are required: %w", models.ErrValidation)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, in.Email, in.Name, hash)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			s.log.Info("registration with existing email", zap.String("email", in.Email))
		}
		return nil, err
	}
	s.log.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Verify returns the user owning email if password matches. It fails with
// models.ErrUnknownEmail or models.ErrInvalidPassword.
func (s *Service) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.hasher.Check(s.decoy, password)
		return nil, models.ErrUnknownEmail
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Check(user.PasswordHash, password) {
		s.log.Info("password mismatch", zap.Int64("user_id", user.ID))
		return nil, models.ErrInvalidPassword
	}
	return user, nil
}
