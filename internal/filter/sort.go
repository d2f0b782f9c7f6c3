package filter

import (
	"strings"
)

type SortField string

const (
	SortDepartureTime SortField = "departureTime"
	SortArrivalTime   SortField = "arrivalTime"
	SortPrice         SortField = "price"
	SortTotalSeats    SortField = "totalSeats"
	SortFlightNumber  SortField = "flightNumber"
)

var sortFields = map[SortField]struct{}{
	SortDepartureTime: {},
	SortArrivalTime:   {},
	SortPrice:         {},
	SortTotalSeats:    {},
	SortFlightNumber:  {},
}

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

type SortKey struct {
	Field     SortField
	Direction Direction
}

// SortOrder is applied in order; the first key is the primary key.
type SortOrder []SortKey

func (o SortOrder) String() string {
	parts := make([]string, len(o))
	for i, k := range o {
		parts[i] = string(k.Field) + "_" + string(k.Direction)
	}
	return strings.Join(parts, ",")
}

// parseSort reads "field_DIR,field_DIR". When a field repeats, its first
// occurrence wins and later ones are dropped.
func parseSort(v string) (SortOrder, error) {
	tokens := strings.Split(v, ",")
	order := make(SortOrder, 0, len(tokens))
	seen := make(map[SortField]struct{}, len(tokens))

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		i := strings.LastIndex(tok, "_")
		if i <= 0 || i == len(tok)-1 {
			return nil, invalid(ParamSort, v, "expected field_ASC or field_DESC")
		}

		field := SortField(tok[:i])
		if _, ok := sortFields[field]; !ok {
			return nil, invalid(ParamSort, v, "unknown sort field "+string(field))
		}
		dir := Direction(strings.ToUpper(tok[i+1:]))
		if dir != Asc && dir != Desc {
			return nil, invalid(ParamSort, v, "unknown sort direction "+tok[i+1:])
		}

		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		order = append(order, SortKey{Field: field, Direction: dir})
	}
	return order, nil
}
