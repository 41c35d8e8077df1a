package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownColumn is returned when a query names a column the table does
// not expose.
var ErrUnknownColumn = errors.New("unknown column")

type filter struct {
	column string
	value  any
}

type order struct {
	column string
	desc   bool
}

// Query is a filter/sort/limit predicate over one table. Filters are
// equality matches joined with AND.
type Query struct {
	filters []filter
	orders  []order
	limit   int
}

// NewQuery returns an empty query that selects every row.
func NewQuery() Query {
	return Query{}
}

// Eq adds an equality filter.
func (q Query) Eq(column string, value any) Query {
	q.filters = append(append([]filter(nil), q.filters...), filter{column: column, value: value})
	return q
}

// OrderBy appends a sort key. Keys apply in the order they were added.
func (q Query) OrderBy(column string, desc bool) Query {
	q.orders = append(append([]order(nil), q.orders...), order{column: column, desc: desc})
	return q
}

// Limit caps the number of rows returned. Zero means no limit.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// build renders the query as a SELECT over table. Column names are checked
// against allowed because they are interpolated into the statement.
func (q Query) build(table, cols string, allowed map[string]bool) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	args := make([]any, 0, len(q.filters)+1)
	for i, f := range q.filters {
		if !allowed[f.column] {
			return "", nil, fmt.Errorf("%s.%s: %w", table, f.column, ErrUnknownColumn)
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(f.column)
		sb.WriteString(" = ?")
		args = append(args, f.value)
	}

	for i, o := range q.orders {
		if !allowed[o.column] {
			return "", nil, fmt.Errorf("%s.%s: %w", table, o.column, ErrUnknownColumn)
		}
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(o.column)
		if o.desc {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}

	if q.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.limit)
	}

	return sb.String(), args, nil
}

func columnSet(cols string) map[string]bool {
	set := make(map[string]bool)
	for _, c := range strings.Split(cols, ",") {
		set[strings.TrimSpace(c)] = true
	}
	return set
}
