package booking

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxPassengers = 9

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
	CompleteArrivedBookings(ctx context.Context) ([]domain.Booking, error)
}

type Mailer interface {
	SendBookingConfirmation(ctx context.Context, to string, booking *domain.Booking, eTicket string) error
	SendBookingUpdate(ctx context.Context, to string, booking *domain.Booking) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Broadcaster pushes live updates to connected SSE clients.
type Broadcaster interface {
	SendBookingUpdate(ctx context.Context, bookingID string, update any) error
	SendFlightUpdate(ctx context.Context, flightID string, update any) error
}

type FlightCache interface {
	InvalidateFlights(ctx context.Context) error
}

type CreateBookingInput struct {
	UserID          string
	FlightID        string
	ReturnFlightID  string
	CabinClass      domain.CabinClass
	Passengers      []domain.Passenger
	SpecialRequests string
}

type CreateBookingResult struct {
	Booking *domain.Booking `json:"booking"`
	ETicket string          `json:"eTicket"`
}

type BookingService struct {
	bookings     repository.BookingRepository
	flights      repository.FlightRepository
	users        repository.UserRepository
	mailer       Mailer
	producer     Producer
	bookingTopic string
	relay        Broadcaster
	cache        FlightCache
	log          *zap.Logger
	now          func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithMailer(m Mailer) BookingServiceOption {
	return func(s *BookingService) {
		s.mailer = m
	}
}

func WithEvents(p Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = p
		s.bookingTopic = topic
	}
}

func WithRelay(r Broadcaster) BookingServiceOption {
	return func(s *BookingService) {
		s.relay = r
	}
}

func WithFlightCache(c FlightCache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = c
	}
}

func WithLogger(l *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = l
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	users repository.UserRepository,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		flights:  flights,
		users:    users,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	fare, err := s.flights.GetFare(ctx, input.FlightID, input.CabinClass)
	switch {
	case errors.Is(err, repository.ErrNoPrice):
		return nil, errs.Validation("no price found for this flight and cabin class")
	case errors.Is(err, repository.ErrNoSeatInfo):
		return nil, errs.Validation("no seat info found for this flight and cabin class")
	case err != nil:
		return nil, errs.Internal("failed to load fare", err)
	}

	count := len(input.Passengers)
	if fare.AvailableSeats < count {
		return nil, errs.Validation("not enough seats available")
	}

	reference, err := NewReference()
	if err != nil {
		return nil, errs.Internal("failed to generate booking reference", err)
	}

	booking := &domain.Booking{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		FlightID:        input.FlightID,
		ReturnFlightID:  input.ReturnFlightID,
		CabinClass:      input.CabinClass,
		TotalPriceCents: fare.PriceCents * int64(count),
		Status:          domain.BookingStatusPending,
		Reference:       reference,
		SpecialRequests: input.SpecialRequests,
		Passengers:      make([]domain.Passenger, count),
	}
	for i, p := range input.Passengers {
		p.ID = uuid.NewString()
		p.BookingID = booking.ID
		booking.Passengers[i] = p
	}

	change, err := s.bookings.Create(ctx, booking)
	switch {
	case errors.Is(err, repository.ErrInsufficientSeats):
		return nil, errs.Validation("not enough seats available")
	case errors.Is(err, repository.ErrNoSeatInfo):
		return nil, errs.Validation("no seat info found for this flight and cabin class")
	case err != nil:
		return nil, errs.Internal("failed to create booking", err)
	}

	eTicket := ETicket(booking.ID, s.now())
	s.log.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("reference", booking.Reference),
		zap.String("flight_id", booking.FlightID),
		zap.Int("passengers", count),
		zap.Int("available_seats", change.AvailableSeats))

	s.notifyOwner(ctx, booking, func(to string) error {
		return s.mailer.SendBookingConfirmation(ctx, to, booking, eTicket)
	})
	s.publish(ctx, kafka.EventBookingCreated, booking)
	s.broadcast(ctx, booking, &change)

	return &CreateBookingResult{Booking: booking, ETicket: eTicket}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "failed to load booking")
	}
	return b, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	list, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Internal("failed to list bookings", err)
	}
	return list, nil
}

// UpdateBooking patches status and special requests. A move to cancelled goes through
// CancelBooking so the seats are returned.
func (s *BookingService) UpdateBooking(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "failed to load booking")
	}

	if patch.Status != nil {
		next := *patch.Status
		switch {
		case !next.Valid():
			return nil, errs.Validation("unknown booking status %q", next)
		case next == current.Status:
			patch.Status = nil
		case !current.Status.CanTransition(next):
			return nil, errs.Conflict("cannot change booking status from %s to %s", current.Status, next)
		case next == domain.BookingStatusCancelled:
			cancelled, err := s.cancel(ctx, current)
			if err != nil {
				return nil, err
			}
			if patch.SpecialRequests == nil {
				return cancelled, nil
			}
			current, patch.Status = cancelled, nil
		}
	}
	if patch.Status == nil && patch.SpecialRequests == nil {
		return current, nil
	}

	updated, err := s.bookings.Update(ctx, id, current.Status, patch)
	if err != nil {
		return nil, mapRepoErr(err, "failed to update booking")
	}

	s.log.Info("booking updated", zap.String("booking_id", id), zap.String("status", string(updated.Status)))
	s.notifyOwner(ctx, updated, func(to string) error {
		return s.mailer.SendBookingUpdate(ctx, to, updated)
	})
	s.publish(ctx, kafka.EventBookingUpdated, updated)
	s.broadcast(ctx, updated, nil)
	return updated, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "failed to load booking")
	}
	return s.cancel(ctx, current)
}

func (s *BookingService) cancel(ctx context.Context, current *domain.Booking) (*domain.Booking, error) {
	if current.Status.Terminal() {
		return nil, errs.Conflict("booking is already %s", current.Status)
	}

	cancelled, change, err := s.bookings.Cancel(ctx, current)
	if err != nil {
		return nil, mapRepoErr(err, "failed to cancel booking")
	}

	s.log.Info("booking cancelled",
		zap.String("booking_id", cancelled.ID),
		zap.Int("seats_released", change.Delta),
		zap.Int("available_seats", change.AvailableSeats))
	s.notifyOwner(ctx, cancelled, func(to string) error {
		return s.mailer.SendBookingUpdate(ctx, to, cancelled)
	})
	s.publish(ctx, kafka.EventBookingCancelled, cancelled)
	s.broadcast(ctx, cancelled, &change)
	return cancelled, nil
}

// CompleteArrivedBookings marks confirmed bookings whose flight has landed as completed.
func (s *BookingService) CompleteArrivedBookings(ctx context.Context) ([]domain.Booking, error) {
	completed, err := s.bookings.CompleteArrivedBefore(ctx, s.now())
	if err != nil {
		return nil, errs.Internal("failed to complete bookings", err)
	}
	for i := range completed {
		b := &completed[i]
		s.publish(ctx, kafka.EventBookingCompleted, b)
		s.broadcast(ctx, b, nil)
	}
	return completed, nil
}

func validateInput(input CreateBookingInput) error {
	switch {
	case input.UserID == "":
		return errs.Unauthorized("user is required")
	case input.FlightID == "":
		return errs.Validation("flight id is required")
	case len(input.Passengers) == 0:
		return errs.Validation("at least one passenger is required")
	case len(input.Passengers) > MaxPassengers:
		return errs.Validation("at most %d passengers per booking", MaxPassengers)
	case !input.CabinClass.Valid():
		return errs.Validation("unknown cabin class %q", input.CabinClass)
	}
	for i, p := range input.Passengers {
		if p.FirstName == "" || p.LastName == "" {
			return errs.Validation("passenger %d: first and last name are required", i+1)
		}
		if p.DateOfBirth == "" {
			return errs.Validation("passenger %d: date of birth is required", i+1)
		}
		if _, err := time.Parse(time.DateOnly, p.DateOfBirth); err != nil {
			return errs.Validation("passenger %d: date of birth must be YYYY-MM-DD", i+1)
		}
		if p.Nationality == "" {
			return errs.Validation("passenger %d: nationality is required", i+1)
		}
		if p.Age != nil && (*p.Age < 0 || *p.Age > 120) {
			return errs.Validation("passenger %d: age must be between 0 and 120", i+1)
		}
	}
	return nil
}

func mapRepoErr(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errs.NotFound("booking not found")
	case errors.Is(err, repository.ErrStatusChanged):
		return errs.Conflict("booking was modified concurrently, retry")
	}
	return errs.Internal(message, err)
}

// notifyOwner looks up the booking owner's email and runs send. Failures are only logged.
func (s *BookingService) notifyOwner(ctx context.Context, b *domain.Booking, send func(to string) error) {
	if s.mailer == nil || s.users == nil {
		return
	}
	owner, err := s.users.GetByID(ctx, b.UserID)
	if err != nil {
		s.log.Warn("booking email skipped: owner lookup failed", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	if err := send(owner.Email); err != nil {
		s.log.Warn("booking email failed", zap.String("booking_id", b.ID), zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, b, s.now())
	if err := s.producer.Publish(ctx, s.bookingTopic, b.ID, event); err != nil {
		s.log.Warn("failed to publish booking event", zap.String("type", eventType), zap.String("booking_id", b.ID), zap.Error(err))
	}
}

func (s *BookingService) broadcast(ctx context.Context, b *domain.Booking, change *domain.SeatChange) {
	if change != nil && s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.Warn("failed to invalidate flights cache", zap.Error(err))
		}
	}
	if s.relay == nil {
		return
	}
	update := map[string]any{
		"status":            b.Status,
		"bookingReference": b.Reference,
		"userId":            b.UserID,
	}
	if err := s.relay.SendBookingUpdate(ctx, b.ID, update); err != nil {
		s.log.Warn("failed to broadcast booking update", zap.String("booking_id", b.ID), zap.Error(err))
	}
	if change == nil {
		return
	}
	seats := map[string]any{
		"cabinClass":     change.CabinClass,
		"availableSeats": change.AvailableSeats,
	}
	if err := s.relay.SendFlightUpdate(ctx, change.FlightID, seats); err != nil {
		s.log.Warn("failed to broadcast flight update", zap.String("flight_id", change.FlightID), zap.Error(err))
	}
}

var _ BookingUseCase = (*BookingService)(nil)
