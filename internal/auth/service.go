package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/hongminglow/expense-api/internal/apperr"
	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/models/dto"
	"github.com/hongminglow/expense-api/internal/storage"
)

const msgPasswordTooLong = "Password must be at most 72 bytes."

// Service owns the signup and login flows.
type Service struct {
	users  *Directory
	tokens *TokenManager
}

func NewService(users *Directory, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Signup registers a new user and returns a token for it.
func (s *Service) Signup(ctx context.Context, req dto.SignupRequest) (dto.AuthResponse, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		return dto.AuthResponse{}, apperr.InvalidInput("Name, email, and password are required.")
	}
	if len(req.Password) > MaxPasswordBytes {
		return dto.AuthResponse{}, apperr.InvalidInput(msgPasswordTooLong)
	}

	_, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return dto.AuthResponse{}, apperr.InvalidInput("Email is already in use.")
	case !errors.Is(err, storage.ErrNotFound):
		return dto.AuthResponse{}, apperr.Internal(err)
	}

	user, err := s.users.Create(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			return dto.AuthResponse{}, apperr.InvalidInput("Email is already in use.")
		case errors.Is(err, ErrPasswordTooLong):
			return dto.AuthResponse{}, apperr.InvalidInput(msgPasswordTooLong)
		}
		return dto.AuthResponse{}, apperr.Internal(err)
	}
	return s.respond(user)
}

// Login checks credentials without revealing which of them was wrong.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return dto.AuthResponse{}, apperr.InvalidInput("Email and password are required.")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return dto.AuthResponse{}, apperr.Unauthenticated("Invalid email or password.")
		}
		return dto.AuthResponse{}, apperr.Internal(err)
	}
	if !s.users.VerifyPassword(user, req.Password) {
		return dto.AuthResponse{}, apperr.Unauthenticated("Invalid email or password.")
	}
	return s.respond(user)
}

func (s *Service) respond(user models.User) (dto.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return dto.AuthResponse{}, apperr.Internal(err)
	}
	return dto.AuthResponse{ID: user.ID, Name: user.Name, Email: user.Email, Token: token}, nil
}
