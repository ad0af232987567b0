package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coinview/exchange/internal/db"
	"github.com/coinview/exchange/internal/models"
)

// UserStore is the slice of the user repository the auth flows need.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserResponse is the public projection of a user. It never carries the
// password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by both signup and signin.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// Service composes the password hasher, the token service, and the user
// repository into the signup and signin flows.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	tokens *TokenService
	log    zerolog.Logger
}

// NewService creates a new auth service.
func NewService(users UserStore, hasher PasswordHasher, tokens *TokenService, log zerolog.Logger) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens, log: log}
}

// Signup registers a new user and issues a token for it.
//
// The existence pre-check and the insert are not one transaction: two
// concurrent signups for the same email can both pass the check. The unique
// constraint on users.email catches the loser, and that violation maps to
// the same ErrEmailTaken as the pre-check. If token issuance fails after the
// insert, the user row persists; the caller may sign in normally.
func (s *Service) Signup(ctx context.Context, email, password string) (*AuthResponse, error) {
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, digest)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return &AuthResponse{User: publicUser(user), Token: token}, nil
}

// Signin verifies credentials and issues a token. Unknown email, wrong
// password, and an unreadable stored digest all collapse into
// ErrInvalidCredentials.
func (s *Service) Signin(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Str("user_id", user.ID.String()).Err(err).Msg("credential digest could not be verified")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResponse{User: publicUser(user), Token: token}, nil
}

func publicUser(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}
