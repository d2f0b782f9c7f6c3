package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/filter"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var flightColumns = []string{
	"id", "flight_number", "airplane_id", "departure_airport_code", "arrival_airport_code",
	"departure_time", "arrival_time", "price", "boarding_gate", "total_seats", "created_at", "updated_at",
}

var sortColumns = map[filter.SortField]string{
	filter.SortDepartureTime: "flights.departure_time",
	filter.SortArrivalTime:   "flights.arrival_time",
	filter.SortPrice:         "flights.price",
	filter.SortTotalSeats:    "flights.total_seats",
	filter.SortFlightNumber:  "flights.flight_number",
}

// searchColumns is the select list of Search, in scanFlightDetails order.
var searchColumns = concat(
	qualify("flights", flightColumns),
	qualify("airplanes", airplaneColumns),
	qualify("dep", airportColumns),
	qualify("dep_city", cityColumns),
	qualify("arr", airportColumns),
	qualify("arr_city", cityColumns),
)

// Inner joins: flights whose airplane or airports are gone are not listed.
var searchJoins = []string{
	"airplanes ON airplanes.id = flights.airplane_id",
	"airports dep ON dep.code = flights.departure_airport_code",
	"cities dep_city ON dep_city.id = dep.city_id",
	"airports arr ON arr.code = flights.arrival_airport_code",
	"cities arr_city ON arr_city.id = arr.city_id",
}

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) (*domain.Flight, error)
	Get(ctx context.Context, id int64) (*domain.Flight, error)
	Destroy(ctx context.Context, id int64) error
	Search(ctx context.Context, f filter.FlightFilter, order filter.SortOrder) ([]domain.FlightDetails, error)
}

// SeatStore opens transactions that can lock a single flight row.
type SeatStore interface {
	BeginSeatTx(ctx context.Context) (SeatTx, error)
}

// SeatTx is one database transaction. LockFlight takes an exclusive row lock
// held until Commit or Rollback and returns domain.ErrNotFound when the row
// does not exist.
type SeatTx interface {
	LockFlight(ctx context.Context, flightID int64) (*domain.Flight, error)
	UpdateTotalSeats(ctx context.Context, flight *domain.Flight) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type PGFlightRepository struct {
	*CRUD[domain.Flight]
	lockTimeout time.Duration
}

// NewFlightRepository returns a repository whose seat transactions give up
// waiting for a row lock after lockTimeout. Zero waits indefinitely.
func NewFlightRepository(db DB, lockTimeout time.Duration) *PGFlightRepository {
	return &PGFlightRepository{
		CRUD: NewCRUD(db, "flights", flightColumns, func(f *domain.Flight) map[string]any {
			return map[string]any{
				"flight_number":          f.FlightNumber,
				"airplane_id":            f.AirplaneID,
				"departure_airport_code": strings.ToUpper(f.DepartureAirportCode),
				"arrival_airport_code":   strings.ToUpper(f.ArrivalAirportCode),
				"departure_time":         f.DepartureTime,
				"arrival_time":           f.ArrivalTime,
				"price":                  f.Price,
				"boarding_gate":          f.BoardingGate,
				"total_seats":            f.TotalSeats,
			}
		}),
		lockTimeout: lockTimeout,
	}
}

// Search returns matching flights with their airplane and airports.
func (r *PGFlightRepository) Search(ctx context.Context, f filter.FlightFilter, order filter.SortOrder) ([]domain.FlightDetails, error) {
	q := r.sb.Select(searchColumns...).From("flights")
	for _, join := range searchJoins {
		q = q.Join(join)
	}
	if !f.IsEmpty() {
		q = q.Where(Predicates(f))
	}
	sqlStr, args, err := q.OrderBy(OrderBy(order)...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build flight search sql: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, mapError(err)
	}
	flights, err := pgx.CollectRows(rows, scanFlightDetails)
	if err != nil {
		return nil, mapError(err)
	}
	return flights, nil
}

func scanFlightDetails(row pgx.CollectableRow) (domain.FlightDetails, error) {
	var d domain.FlightDetails
	f, a := &d.Flight, &d.Airplane
	dep, arr := &d.DepartureAirport, &d.ArrivalAirport
	err := row.Scan(
		&f.ID, &f.FlightNumber, &f.AirplaneID, &f.DepartureAirportCode, &f.ArrivalAirportCode,
		&f.DepartureTime, &f.ArrivalTime, &f.Price, &f.BoardingGate, &f.TotalSeats, &f.CreatedAt, &f.UpdatedAt,
		&a.ID, &a.ModelNumber, &a.Capacity, &a.CreatedAt, &a.UpdatedAt,
		&dep.ID, &dep.Name, &dep.Code, &dep.Address, &dep.CityID, &dep.CreatedAt, &dep.UpdatedAt,
		&dep.City.ID, &dep.City.Name, &dep.City.CreatedAt, &dep.City.UpdatedAt,
		&arr.ID, &arr.Name, &arr.Code, &arr.Address, &arr.CityID, &arr.CreatedAt, &arr.UpdatedAt,
		&arr.City.ID, &arr.City.Name, &arr.City.CreatedAt, &arr.City.UpdatedAt,
	)
	return d, err
}

// Predicates renders the filter as a conjunction over flights columns.
// Codes are compared upper-cased because they are stored that way.
func Predicates(f filter.FlightFilter) sq.And {
	var and sq.And
	if f.Route != nil {
		and = append(and,
			sq.Eq{"flights.departure_airport_code": strings.ToUpper(f.Route.DepartureAirportCode)},
			sq.Eq{"flights.arrival_airport_code": strings.ToUpper(f.Route.ArrivalAirportCode)},
		)
	}
	if f.Price != nil {
		and = append(and, sq.Expr("flights.price BETWEEN ? AND ?", f.Price.Min, f.Price.Max))
	}
	if f.MinSeats != nil {
		and = append(and, sq.GtOrEq{"flights.total_seats": *f.MinSeats})
	}
	if f.Departure != nil {
		and = append(and,
			sq.GtOrEq{"flights.departure_time": f.Departure.From},
			sq.Lt{"flights.departure_time": f.Departure.To},
		)
	}
	return and
}

// OrderBy maps sort keys to columns. id is appended so paging over equal
// keys is stable.
func OrderBy(order filter.SortOrder) []string {
	clauses := make([]string, 0, len(order)+1)
	for _, k := range order {
		col, ok := sortColumns[k.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, col+" "+string(k.Direction))
	}
	return append(clauses, "flights.id ASC")
}

func qualify(table string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = table + "." + c
	}
	return out
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

const (
	setLockTimeoutSQL = `SELECT set_config('lock_timeout', $1, true)`

	lockFlightSQL = `SELECT id, flight_number, airplane_id, departure_airport_code, arrival_airport_code, departure_time, arrival_time, price, boarding_gate, total_seats, created_at, updated_at FROM flights WHERE id = $1 FOR UPDATE`

	updateTotalSeatsSQL = `UPDATE flights SET total_seats = $1, updated_at = now() WHERE id = $2 RETURNING updated_at`
)

func (r *PGFlightRepository) BeginSeatTx(ctx context.Context) (SeatTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, setLockTimeoutSQL, fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())); err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("set lock timeout: %w", mapError(err))
		}
	}
	return &pgSeatTx{tx: tx}, nil
}

type pgSeatTx struct {
	tx pgx.Tx
}

func (t *pgSeatTx) LockFlight(ctx context.Context, flightID int64) (*domain.Flight, error) {
	rows, err := t.tx.Query(ctx, lockFlightSQL, flightID)
	if err != nil {
		return nil, mapError(err)
	}
	flight, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[domain.Flight])
	if err != nil {
		return nil, mapError(err)
	}
	return flight, nil
}

func (t *pgSeatTx) UpdateTotalSeats(ctx context.Context, flight *domain.Flight) error {
	err := t.tx.QueryRow(ctx, updateTotalSeatsSQL, flight.TotalSeats, flight.ID).Scan(&flight.UpdatedAt)
	return mapError(err)
}

func (t *pgSeatTx) Commit(ctx context.Context) error {
	return mapError(t.tx.Commit(ctx))
}

// Rollback is a no-op after Commit.
func (t *pgSeatTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return mapError(err)
}

var (
	_ FlightRepository = (*PGFlightRepository)(nil)
	_ SeatStore        = (*PGFlightRepository)(nil)
)
