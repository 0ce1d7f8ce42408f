package kafka

import (
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingUpdated   = "booking_updated"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
)

type BookingEvent struct {
	Type            string    `json:"type"`
	BookingID       string    `json:"bookingId"`
	Reference       string    `json:"bookingReference"`
	UserID          string    `json:"userId"`
	FlightID        string    `json:"flightId"`
	CabinClass      string    `json:"cabinClass"`
	Passengers      int       `json:"passengers"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	Status          string    `json:"status"`
	OccurredAt      time.Time `json:"occurredAt"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:            eventType,
		BookingID:       b.ID,
		Reference:       b.Reference,
		UserID:          b.UserID,
		FlightID:        b.FlightID,
		CabinClass:      string(b.CabinClass),
		Passengers:      b.SeatCount(),
		TotalPriceCents: b.TotalPriceCents,
		Status:          string(b.Status),
		OccurredAt:      at,
	}
}
