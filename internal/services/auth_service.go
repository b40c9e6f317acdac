package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/nroberts/authsvc/internal/auth"
	"github.com/nroberts/authsvc/internal/models"
	"github.com/nroberts/authsvc/internal/store"
)

var (
	// ErrEmailTaken is returned by Register when the email is already in use.
	ErrEmailTaken = errors.New("user already exists")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so callers cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken covers every token failure: bad signature, expired,
	// malformed, or a token whose user no longer exists.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthServiceProvider defines the interface for the authentication service.
type AuthServiceProvider interface {
	Register(ctx context.Context, email, password string) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	VerifyToken(ctx context.Context, token string) (models.User, error)
}

// AuthResult is returned by Register and Login: the public view of the
// account plus a bearer token for it.
type AuthResult struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// AuthService implements registration, login and token verification over
// a user store and a token manager.
type AuthService struct {
	users  store.UserStore
	tokens *auth.TokenManager
	cost   int
}

// NewAuthService creates a new AuthService. cost is the bcrypt work
// factor; config.Load keeps production values at bcrypt.DefaultCost or
// above, tests may pass bcrypt.MinCost.
func NewAuthService(users store.UserStore, tokens *auth.TokenManager, cost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, cost: cost}
}

// Register creates a new account and returns it with a fresh token.
//
// The FindByEmail pre-check only exists to give a fast, friendly error;
// the store's unique constraint is what actually prevents duplicates, so
// a duplicate insert that slips past the check (concurrent registration)
// is mapped to ErrEmailTaken as well.
func (s *AuthService) Register(ctx context.Context, email, password string) (AuthResult, error) {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return AuthResult{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("looking up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.Insert(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("inserting user: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generating token: %w", err)
	}

	return AuthResult{User: user.Public(), Token: token}, nil
}

// Login verifies credentials and returns the account with a fresh token.
// An unknown email and a wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("looking up email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generating token: %w", err)
	}

	return AuthResult{User: user.Public(), Token: token}, nil
}

// VerifyToken validates a bearer token and returns the full user record
// it belongs to. Every failure mode is collapsed into ErrInvalidToken;
// the underlying cause is only logged.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return models.User{}, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		log.Debug().Err(err).Str("user_id", claims.UserID).Msg("Token references unknown user")
		return models.User{}, ErrInvalidToken
	}

	return user, nil
}

var _ AuthServiceProvider = (*AuthService)(nil)
