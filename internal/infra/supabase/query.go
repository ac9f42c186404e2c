package supabase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query builds a PostgREST table path with filters, ordering and paging.
type Query struct {
	table  string
	params url.Values
	orders []string
}

// From starts a query on table.
func From(table string) *Query {
	return &Query{table: table, params: url.Values{}}
}

// Select sets the column list, including embedded resources.
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", compact(columns))
	return q
}

func (q *Query) filter(column, op, value string) *Query {
	q.params.Add(column, op+"."+value)
	return q
}

// Eq filters column = value.
func (q *Query) Eq(column, value string) *Query { return q.filter(column, "eq", value) }

// Gte filters column >= value.
func (q *Query) Gte(column, value string) *Query { return q.filter(column, "gte", value) }

// Lte filters column <= value.
func (q *Query) Lte(column, value string) *Query { return q.filter(column, "lte", value) }

// In filters column to one of values. Characters that delimit a PostgREST
// list are dropped from each value. An empty list adds no filter.
func (q *Query) In(column string, values []string) *Query {
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(stripDelims(v)); v != "" {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return q
	}
	return q.filter(column, "in", "("+strings.Join(clean, ",")+")")
}

// Or adds a disjunction such as "name.ilike.*x*,description.ilike.*x*".
func (q *Query) Or(expr string) *Query {
	q.params.Add("or", "("+expr+")")
	return q
}

// Order appends a sort key.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit caps the number of rows.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Offset skips n rows.
func (q *Query) Offset(n int) *Query {
	q.params.Set("offset", strconv.Itoa(n))
	return q
}

// String renders the path relative to /rest/v1/.
func (q *Query) String() string {
	params := url.Values{}
	for k, v := range q.params {
		params[k] = v
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if len(params) == 0 {
		return q.table
	}
	return q.table + "?" + params.Encode()
}

// ilikeTerm wraps a search term for an ilike filter, dropping characters
// that would break the PostgREST or-expression.
func ilikeTerm(s string) string {
	s = strings.ReplaceAll(stripDelims(s), "*", "")
	return "*" + strings.TrimSpace(s) + "*"
}

func stripDelims(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '"':
			return -1
		}
		return r
	}, s)
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// parseContentRange reads the total from "0-9/42" or "*/0". Unknown totals
// ("0-9/*") yield -1.
func parseContentRange(v string) int {
	i := strings.LastIndexByte(v, '/')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(v[i+1:])
	if err != nil {
		return -1
	}
	return n
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return fmt.Sprint(i)
}
