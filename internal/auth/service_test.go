package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/hongminglow/expense-api/internal/apperr"
	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/models/dto"
	"github.com/hongminglow/expense-api/internal/storage"
	"github.com/hongminglow/expense-api/internal/storage/memory"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	tokens *TokenManager
	svc    *Service
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.tokens = newTestTokens()
	s.svc = NewService(NewDirectory(s.store), s.tokens)
}

func (s *AuthServiceSuite) signup(name, email, password string) (dto.AuthResponse, error) {
	return s.svc.Signup(s.ctx, dto.SignupRequest{Name: name, Email: email, Password: password})
}

func (s *AuthServiceSuite) TestSignupIssuesTokenAndHashesPassword() {
	resp, err := s.signup("Grace", "  Grace@Example.com ", "hopper-123")
	s.Require().NoError(err)
	s.Equal("Grace", resp.Name)
	s.Equal("grace@example.com", resp.Email)

	subject, err := s.tokens.Verify(resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.ID, subject)

	stored, err := s.store.FindByID(s.ctx, resp.ID)
	s.Require().NoError(err)
	s.NotEqual("hopper-123", stored.PasswordHash)
	s.True(CheckPassword("hopper-123", stored.PasswordHash))
}

func (s *AuthServiceSuite) TestSignupRequiresAllFields() {
	for _, req := range []dto.SignupRequest{
		{Email: "a@example.com", Password: "pw"},
		{Name: "A", Password: "pw"},
		{Name: "A", Email: "a@example.com"},
		{Name: "   ", Email: "a@example.com", Password: "pw"},
	} {
		_, err := s.svc.Signup(s.ctx, req)
		s.assertAppErr(err, http.StatusBadRequest, "Name, email, and password are required.")
	}
}

func (s *AuthServiceSuite) TestSignupRejectsOverlongPassword() {
	_, err := s.signup("Long", "long@example.com", strings.Repeat("p", 80))
	s.assertAppErr(err, http.StatusBadRequest, "Password must be at most 72 bytes.")

	_, err = s.store.FindByEmail(s.ctx, "long@example.com")
	s.ErrorIs(err, storage.ErrNotFound)

	_, err = s.signup("Edge", "edge@example.com", strings.Repeat("p", MaxPasswordBytes))
	s.NoError(err)
}

func (s *AuthServiceSuite) TestSignupRejectsDuplicateEmail() {
	_, err := s.signup("First", "dup@example.com", "pw-one")
	s.Require().NoError(err)

	_, err = s.signup("Second", "DUP@example.com", "pw-two")
	s.assertAppErr(err, http.StatusBadRequest, "Email is already in use.")
}

func (s *AuthServiceSuite) TestLogin() {
	created, err := s.signup("Linus", "linus@example.com", "correct-horse")
	s.Require().NoError(err)

	resp, err := s.svc.Login(s.ctx, dto.LoginRequest{Email: "Linus@example.com", Password: "correct-horse"})
	s.Require().NoError(err)
	s.Equal(created.ID, resp.ID)
	s.NotEmpty(resp.Token)
}

func (s *AuthServiceSuite) TestLoginFailuresAreIndistinguishable() {
	_, err := s.signup("Linus", "linus@example.com", "correct-horse")
	s.Require().NoError(err)

	_, wrongPassword := s.svc.Login(s.ctx, dto.LoginRequest{Email: "linus@example.com", Password: "battery-staple"})
	_, unknownEmail := s.svc.Login(s.ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})

	s.assertAppErr(wrongPassword, http.StatusUnauthorized, "Invalid email or password.")
	s.assertAppErr(unknownEmail, http.StatusUnauthorized, "Invalid email or password.")
}

func (s *AuthServiceSuite) TestLoginRequiresFields() {
	_, err := s.svc.Login(s.ctx, dto.LoginRequest{Email: "linus@example.com"})
	s.assertAppErr(err, http.StatusBadRequest, "Email and password are required.")
}

func (s *AuthServiceSuite) assertAppErr(err error, status int, message string) {
	s.T().Helper()
	s.Require().Error(err)
	appErr := apperr.From(err)
	s.Equal(status, appErr.Status)
	s.Equal(message, appErr.Message)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func TestDirectoryVerifyPassword(t *testing.T) {
	users := NewDirectory(memory.New())
	user, err := users.Create(context.Background(), "Ken", "ken@example.com", "unix-forever")
	require.NoError(t, err)

	assert.True(t, users.VerifyPassword(user, "unix-forever"))
	assert.False(t, users.VerifyPassword(user, "unix-never"))
	assert.False(t, users.VerifyPassword(models.User{}, "unix-forever"))
}

func userIdentity(id uuid.UUID) models.Identity {
	return models.Identity{ID: id, Name: "ctx", Email: "ctx@example.com"}
}
