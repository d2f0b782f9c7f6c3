package domain

import (
	"fmt"
	"strings"
	"time"
)

const MaxAirplaneCapacity = 1000

type Airplane struct {
	ID          int64     `json:"id" db:"id"`
	ModelNumber string    `json:"modelNumber" db:"model_number"`
	Capacity    int       `json:"capacity" db:"capacity"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

func (a *Airplane) Validate() error {
	if strings.TrimSpace(a.ModelNumber) == "" {
		return fmt.Errorf("%w: model number is required", ErrValidation)
	}
	if a.Capacity <= 0 || a.Capacity > MaxAirplaneCapacity {
		return fmt.Errorf("%w: capacity must be between 1 and %d", ErrValidation, MaxAirplaneCapacity)
	}
	return nil
}

type City struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (c *City) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: city name is required", ErrValidation)
	}
	return nil
}

type Airport struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CityID    int64     `json:"cityId" db:"city_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (a *Airport) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return fmt.Errorf("%w: airport name is required", ErrValidation)
	case strings.TrimSpace(a.Code) == "":
		return fmt.Errorf("%w: airport code is required", ErrValidation)
	case a.CityID <= 0:
		return fmt.Errorf("%w: airport cityId is required", ErrValidation)
	}
	return nil
}
