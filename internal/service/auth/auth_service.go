package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/identity"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type AuthUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*Result, error)
	Login(ctx context.Context, email, password string) (*Result, error)
	Refresh(ctx context.Context, refreshToken string) (*Result, error)
	Logout(ctx context.Context, accessToken string) error
	Authenticate(ctx context.Context, accessToken string) (*identity.User, error)
}

// Provider is the subset of the identity provider client the auth flow needs.
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*identity.User, error)
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type Result struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"`
	User         *domain.User `json:"user"`
}

type AuthService struct {
	provider Provider
	users    repository.UserRepository
	log      *zap.Logger
}

func NewAuthService(provider Provider, users repository.UserRepository, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{provider: provider, users: users, log: log}
}

// Register signs the user up with the provider and mirrors the profile locally.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Result, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	switch {
	case input.Email == "" || !strings.Contains(input.Email, "@"):
		return nil, errs.Validation("a valid email is required")
	case len(input.Password) < minPasswordLength:
		return nil, errs.Validation("password must be at least %d characters", minPasswordLength)
	case input.FirstName == "" || input.LastName == "":
		return nil, errs.Validation("first and last name are required")
	}

	_, err := s.users.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, errs.Conflict("user with this email already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, errs.Internal("failed to check existing user", err)
	}

	session, err := s.provider.SignUp(ctx, input.Email, input.Password, map[string]any{
		"first_name": input.FirstName,
		"last_name":  input.LastName,
		"phone":      input.Phone,
	})
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:        session.User.ID,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errs.Conflict("user with this email already exists")
		}
		return nil, errs.Internal("failed to save user profile", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return newResult(session, user), nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Result, error) {
	if email == "" || password == "" {
		return nil, errs.Validation("email and password are required")
	}
	session, err := s.provider.SignIn(ctx, strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		return nil, err
	}
	return newResult(session, s.profile(ctx, &session.User)), nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	if refreshToken == "" {
		return nil, errs.Validation("refresh token is required")
	}
	session, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return newResult(session, s.profile(ctx, &session.User)), nil
}

func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errs.Unauthorized("missing access token")
	}
	return s.provider.SignOut(ctx, accessToken)
}

// Authenticate resolves a bearer token to the provider user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*identity.User, error) {
	if accessToken == "" {
		return nil, errs.Unauthorized("missing access token")
	}
	return s.provider.GetUser(ctx, accessToken)
}

// profile returns the local profile, falling back to what the provider knows when the
// profile row is missing.
func (s *AuthService) profile(ctx context.Context, u *identity.User) *domain.User {
	local, err := s.users.GetByID(ctx, u.ID)
	if err == nil {
		return local
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("profile lookup failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	fallback := &domain.User{ID: u.ID, Email: u.Email}
	if v, ok := u.Metadata["first_name"].(string); ok {
		fallback.FirstName = v
	}
	if v, ok := u.Metadata["last_name"].(string); ok {
		fallback.LastName = v
	}
	return fallback
}

func newResult(session *identity.Session, user *domain.User) *Result {
	return &Result{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		User:         user,
	}
}

var _ AuthUseCase = (*AuthService)(nil)
