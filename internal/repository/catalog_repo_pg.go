package repository

import "github.com/Domenick1991/flightbooking/internal/domain"

var (
	airplaneColumns = []string{"id", "model_number", "capacity", "created_at", "updated_at"}
	cityColumns     = []string{"id", "name", "created_at", "updated_at"}
	airportColumns  = []string{"id", "name", "code", "address", "city_id", "created_at", "updated_at"}
)

type AirplaneRepository struct {
	*CRUD[domain.Airplane]
}

func NewAirplaneRepository(db DB) *AirplaneRepository {
	return &AirplaneRepository{CRUD: NewCRUD(db, "airplanes", airplaneColumns, func(a *domain.Airplane) map[string]any {
		return map[string]any{"model_number": a.ModelNumber, "capacity": a.Capacity}
	})}
}

type CityRepository struct {
	*CRUD[domain.City]
}

func NewCityRepository(db DB) *CityRepository {
	return &CityRepository{CRUD: NewCRUD(db, "cities", cityColumns, func(c *domain.City) map[string]any {
		return map[string]any{"name": c.Name}
	})}
}

type AirportRepository struct {
	*CRUD[domain.Airport]
}

func NewAirportRepository(db DB) *AirportRepository {
	return &AirportRepository{CRUD: NewCRUD(db, "airports", airportColumns, func(a *domain.Airport) map[string]any {
		return map[string]any{"name": a.Name, "code": a.Code, "address": a.Address, "city_id": a.CityID}
	})}
}
