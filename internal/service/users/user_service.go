package users

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/identity"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"go.uber.org/zap"
)

const minNewPasswordLength = 8

type UserUseCase interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error)
	BookingHistory(ctx context.Context, userID string) ([]domain.Booking, error)
	ChangePassword(ctx context.Context, email, current, next string) error
}

type PasswordProvider interface {
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	UpdatePassword(ctx context.Context, accessToken, password string) error
}

type UserService struct {
	users    repository.UserRepository
	bookings repository.BookingRepository
	provider PasswordProvider
	log      *zap.Logger
	now      func() time.Time
}

func NewUserService(users repository.UserRepository, bookings repository.BookingRepository, provider PasswordProvider, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, bookings: bookings, provider: provider, log: log, now: time.Now}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errs.NotFound("user profile not found")
	}
	if err != nil {
		return nil, errs.Internal("failed to load profile", err)
	}
	return u, nil
}

// UpdateProfile writes only the non-empty fields of patch.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return u, nil
	}

	patch.Apply(u)
	u.UpdatedAt = s.now()
	updated, err := s.users.Update(ctx, u)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errs.NotFound("user profile not found")
	}
	if err != nil {
		return nil, errs.Internal("failed to update profile", err)
	}
	return updated, nil
}

func (s *UserService) BookingHistory(ctx context.Context, userID string) ([]domain.Booking, error) {
	list, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Internal("failed to load booking history", err)
	}
	return list, nil
}

// ChangePassword re-authenticates with the current password and sets the new one with
// the fresh session.
func (s *UserService) ChangePassword(ctx context.Context, email, current, next string) error {
	if current == "" {
		return errs.Validation("current password is required")
	}
	if len(next) < minNewPasswordLength {
		return errs.Validation("new password must be at least %d characters", minNewPasswordLength)
	}

	session, err := s.provider.SignIn(ctx, email, current)
	if err != nil {
		if errs.Is(err, errs.KindUnauthorized) {
			return errs.Unauthorized("current password is incorrect")
		}
		return err
	}
	if err := s.provider.UpdatePassword(ctx, session.AccessToken, next); err != nil {
		return err
	}
	s.log.Info("password changed", zap.String("user_id", session.User.ID))
	return nil
}

var _ UserUseCase = (*UserService)(nil)
