package domain

import "time"

type CabinClass string

const (
	CabinEconomy        CabinClass = "ECONOMY"
	CabinPremiumEconomy CabinClass = "PREMIUM_ECONOMY"
	CabinBusiness       CabinClass = "BUSINESS"
	CabinFirst          CabinClass = "FIRST"
)

func (c CabinClass) Valid() bool {
	switch c {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusDelayed   FlightStatus = "delayed"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusDeparted  FlightStatus = "departed"
	FlightStatusArrived   FlightStatus = "arrived"
)

// Fare is the price and remaining seat pool of one cabin on one flight.
type Fare struct {
	CabinClass     CabinClass `json:"cabinClass"`
	PriceCents     int64      `json:"priceCents"`
	AvailableSeats int        `json:"availableSeats"`
}

type Flight struct {
	ID              string       `json:"id"`
	FlightNumber    string       `json:"flightNumber"`
	Airline         string       `json:"airline"`
	Aircraft        string       `json:"aircraft"`
	Origin          string       `json:"origin"`
	Destination     string       `json:"destination"`
	DepartureTime   time.Time    `json:"departureTime"`
	ArrivalTime     time.Time    `json:"arrivalTime"`
	DurationMinutes int          `json:"durationMinutes"`
	Status          FlightStatus `json:"status"`
	Fares           []Fare       `json:"fares"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// Fare returns the fare for the given cabin, if the flight sells it.
func (f *Flight) Fare(cabin CabinClass) (Fare, bool) {
	for _, fare := range f.Fares {
		if fare.CabinClass == cabin {
			return fare, true
		}
	}
	return Fare{}, false
}

// SeatChange is the outcome of a seat adjustment on a flight+cabin pool.
type SeatChange struct {
	FlightID       string     `json:"flightId"`
	CabinClass     CabinClass `json:"cabinClass"`
	Delta          int        `json:"delta"`
	AvailableSeats int        `json:"availableSeats"`
}
