package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 characters")
	ErrUserExists         = errors.New("user with this email already exists")
)

// Session is what a successful sign-up or sign-in hands back to the client.
type Session struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
}

type Service struct {
	users  repo.UserRepository
	hasher *PasswordHasher
	tokens *TokenManager
}

func NewService(users repo.UserRepository, hasher *PasswordHasher, tokens *TokenManager) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < 8 {
		return Session{}, ErrWeakPassword
	}
	if len(password) > 72 {
		return Session{}, ErrPasswordTooLong
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, repo.ErrorConflict) {
		return Session{}, ErrUserExists
	}
	if err != nil {
		return Session{}, err
	}

	return s.session(user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repo.ErrorNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

// Resolve maps a session token to the caller's identity. Bad, expired or
// orphaned tokens yield ErrUnauthenticated; store failures are returned as is.
func (s *Service) Resolve(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrUnauthenticated
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, repo.ErrorNotFound) {
		return model.Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return model.Identity{}, err
	}

	return model.Identity{UserID: user.ID, Email: user.Email}, nil
}

// SessionTTL is the cookie lifetime in seconds.
func (s *Service) SessionTTL() int64 {
	return s.tokens.TTL()
}

func (s *Service) session(user model.User) (Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.tokens.TTL(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
