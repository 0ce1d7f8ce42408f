package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanTransition reports whether a booking in status s may move to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Passenger struct {
	ID              string `json:"id"`
	BookingID       string `json:"bookingId"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	DateOfBirth     string `json:"dateOfBirth"`
	Nationality     string `json:"nationality"`
	PassportNumber  string `json:"passportNumber,omitempty"`
	NationalID      string `json:"aadhaarNumber,omitempty"`
	Age             *int   `json:"age,omitempty"`
	SeatNumber      string `json:"seatNumber,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

type Booking struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	FlightID        string        `json:"flightId"`
	ReturnFlightID  string        `json:"returnFlightId,omitempty"`
	CabinClass      CabinClass    `json:"cabinClass"`
	TotalPriceCents int64         `json:"totalPriceCents"`
	Status          BookingStatus `json:"status"`
	Reference       string        `json:"bookingReference"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	Passengers      []Passenger   `json:"passengers"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// SeatCount is the number of seats the booking holds on its flight.
func (b *Booking) SeatCount() int {
	return len(b.Passengers)
}

// BookingPatch carries the fields of a partial booking update. Nil fields are left untouched.
type BookingPatch struct {
	Status          *BookingStatus
	SpecialRequests *string
}
