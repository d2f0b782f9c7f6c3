package domain

import (
	"fmt"
	"strings"
	"time"
)

// Flight is a scheduled flight. TotalSeats is the remaining bookable seats,
// not the airplane capacity, and only the inventory manager mutates it.
type Flight struct {
	ID                   int64     `json:"id" db:"id"`
	FlightNumber         string    `json:"flightNumber" db:"flight_number"`
	AirplaneID           int64     `json:"airplaneId" db:"airplane_id"`
	DepartureAirportCode string    `json:"departureAirportCode" db:"departure_airport_code"`
	ArrivalAirportCode   string    `json:"arrivalAirportCode" db:"arrival_airport_code"`
	DepartureTime        time.Time `json:"departureTime" db:"departure_time"`
	ArrivalTime          time.Time `json:"arrivalTime" db:"arrival_time"`
	Price                int       `json:"price" db:"price"`
	BoardingGate         *string   `json:"boardingGate,omitempty" db:"boarding_gate"`
	TotalSeats           int       `json:"totalSeats" db:"total_seats"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}

// Validate checks the business rules for a new flight.
func (f *Flight) Validate() error {
	switch {
	case strings.TrimSpace(f.FlightNumber) == "":
		return fmt.Errorf("%w: flight number is required", ErrValidation)
	case f.AirplaneID <= 0:
		return fmt.Errorf("%w: airplaneId is required", ErrValidation)
	case f.DepartureAirportCode == "" || f.ArrivalAirportCode == "":
		return fmt.Errorf("%w: departure and arrival airport codes are required", ErrValidation)
	case strings.EqualFold(f.DepartureAirportCode, f.ArrivalAirportCode):
		return fmt.Errorf("%w: departure and arrival airports must differ", ErrValidation)
	case f.DepartureTime.IsZero() || f.ArrivalTime.IsZero():
		return fmt.Errorf("%w: departure and arrival times are required", ErrValidation)
	case f.DepartureTime.After(f.ArrivalTime):
		return fmt.Errorf("%w: departure time cannot be greater than arrival time", ErrValidation)
	case f.Price < 0 || f.Price > MaxCount:
		return fmt.Errorf("%w: price must be between 0 and %d", ErrValidation, MaxCount)
	case f.TotalSeats < 0 || f.TotalSeats > MaxCount:
		return fmt.Errorf("%w: totalSeats must be between 0 and %d", ErrValidation, MaxCount)
	}
	return nil
}

// FlightDetails is a search result: the flight with its airplane and both
// airports resolved.
type FlightDetails struct {
	Flight
	Airplane         Airplane       `json:"airplaneDetails"`
	DepartureAirport AirportDetails `json:"departureAirport"`
	ArrivalAirport   AirportDetails `json:"arrivalAirport"`
}

type AirportDetails struct {
	Airport
	City City `json:"cityDetails"`
}
