// Package filter turns loosely typed flight search parameters into a
// normalized predicate and sort descriptor. It performs no I/O and is safe
// for concurrent use.
package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// Recognized query parameters. Anything else is ignored.
const (
	ParamTrips      = "trips"
	ParamPrice      = "price"
	ParamTravellers = "travellers"
	ParamTripDate   = "tripDate"
	ParamSort       = "sort"
)

const (
	DefaultPriceCeiling = 20000
	tripDateLayout      = "2006-01-02"
)

type Route struct {
	DepartureAirportCode string
	ArrivalAirportCode   string
}

// IntRange is inclusive on both ends.
type IntRange struct {
	Min int
	Max int
}

// TimeRange is half-open: From <= t < To.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// FlightFilter holds the predicates of one search, combined with AND.
// A nil field means no filtering on that dimension.
type FlightFilter struct {
	Route     *Route
	Price     *IntRange
	MinSeats  *int
	Departure *TimeRange
}

func (f FlightFilter) IsEmpty() bool {
	return f.Route == nil && f.Price == nil && f.MinSeats == nil && f.Departure == nil
}

type Builder struct {
	priceCeiling int
	loc          *time.Location
}

// NewBuilder returns a builder that fills a missing price maximum with
// priceCeiling and interprets trip dates in loc. A nil loc means UTC.
// Parsed numbers never exceed domain.MaxCount.
func NewBuilder(priceCeiling int, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	priceCeiling = min(priceCeiling, domain.MaxCount)
	return &Builder{priceCeiling: priceCeiling, loc: loc}
}

// Build returns either a fully valid descriptor or a single error wrapping
// domain.ErrInvalidFilter.
func (b *Builder) Build(raw map[string]string) (FlightFilter, SortOrder, error) {
	var f FlightFilter

	if v := raw[ParamTrips]; v != "" {
		route, err := parseTrips(v)
		if err != nil {
			return FlightFilter{}, nil, err
		}
		f.Route = route
	}

	if v := raw[ParamPrice]; v != "" {
		price, err := b.parsePrice(v)
		if err != nil {
			return FlightFilter{}, nil, err
		}
		f.Price = price
	}

	if v := raw[ParamTravellers]; v != "" {
		n, err := parseCount(v)
		if err != nil {
			return FlightFilter{}, nil, invalid(ParamTravellers, v, err.Error())
		}
		f.MinSeats = &n
	}

	if v := raw[ParamTripDate]; v != "" {
		start, err := time.ParseInLocation(tripDateLayout, strings.TrimSpace(v), b.loc)
		if err != nil {
			return FlightFilter{}, nil, invalid(ParamTripDate, v, "must be YYYY-MM-DD")
		}
		f.Departure = &TimeRange{From: start, To: start.AddDate(0, 0, 1)}
	}

	var order SortOrder
	if v := raw[ParamSort]; v != "" {
		var err error
		if order, err = parseSort(v); err != nil {
			return FlightFilter{}, nil, err
		}
	}

	return f, order, nil
}

func parseTrips(v string) (*Route, error) {
	dep, arr, ok := strings.Cut(v, "-")
	if !ok {
		return nil, invalid(ParamTrips, v, "expected DEP-ARR")
	}
	dep, arr = strings.TrimSpace(dep), strings.TrimSpace(arr)
	if !isAirportCode(dep) || !isAirportCode(arr) {
		return nil, invalid(ParamTrips, v, "airport codes must be alphanumeric")
	}
	if strings.EqualFold(dep, arr) {
		return nil, invalid(ParamTrips, v, "departure and arrival must differ")
	}
	return &Route{DepartureAirportCode: dep, ArrivalAirportCode: arr}, nil
}

func (b *Builder) parsePrice(v string) (*IntRange, error) {
	lo, hi, ok := strings.Cut(v, "-")
	if !ok {
		return nil, invalid(ParamPrice, v, "expected MIN-MAX")
	}
	r := IntRange{Min: 0, Max: b.priceCeiling}
	if lo = strings.TrimSpace(lo); lo != "" {
		n, err := parseCount(lo)
		if err != nil {
			return nil, invalid(ParamPrice, v, "minimum "+err.Error())
		}
		r.Min = n
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		n, err := parseCount(hi)
		if err != nil {
			return nil, invalid(ParamPrice, v, "maximum "+err.Error())
		}
		r.Max = n
	}
	if r.Min > r.Max {
		return nil, invalid(ParamPrice, v, fmt.Sprintf("minimum %d exceeds maximum %d", r.Min, r.Max))
	}
	return &r, nil
}

// parseCount accepts integers in [0, domain.MaxCount].
func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > domain.MaxCount {
		return 0, fmt.Errorf("must be an integer between 0 and %d", domain.MaxCount)
	}
	return n, nil
}

func isAirportCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func invalid(param, value, reason string) error {
	return fmt.Errorf("%w: %s=%q: %s", domain.ErrInvalidFilter, param, value, reason)
}

// Values flattens url.Values to the first value of each key.
func Values(q url.Values) map[string]string {
	raw := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			raw[k] = vs[0]
		}
	}
	return raw
}

// CacheKey renders a canonical form of the descriptor. Equal descriptors
// produce equal keys.
func CacheKey(f FlightFilter, order SortOrder) string {
	var sb strings.Builder
	if f.Route != nil {
		fmt.Fprintf(&sb, "trips=%s-%s;", strings.ToUpper(f.Route.DepartureAirportCode), strings.ToUpper(f.Route.ArrivalAirportCode))
	}
	if f.Price != nil {
		fmt.Fprintf(&sb, "price=%d-%d;", f.Price.Min, f.Price.Max)
	}
	if f.MinSeats != nil {
		fmt.Fprintf(&sb, "seats>=%d;", *f.MinSeats)
	}
	if f.Departure != nil {
		fmt.Fprintf(&sb, "dep=%d-%d;", f.Departure.From.Unix(), f.Departure.To.Unix())
	}
	sb.WriteString("sort=")
	sb.WriteString(order.String())
	return sb.String()
}
