package database

import (
	"fmt"
	"sitecraft/models"
	"strings"
	"time"
)

const (
	columnIsPublished = "is_published"
	columnCreatedAt   = "created_at"
	columnUpdatedAt   = "updated_at"

	// searchDocument is the text a published project is matched against.
	searchDocument = "name || ' ' || initial_prompt"
)

// QueryBuilder collects parameterized WHERE conditions. Column names and
// documents passed to it are trusted SQL; values always become arguments.
type QueryBuilder struct {
	conditions []string
	args       []any
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// bind records value as the next argument and returns its placeholder number.
func (qb *QueryBuilder) bind(value any) int {
	qb.args = append(qb.args, value)
	return len(qb.args)
}

func (qb *QueryBuilder) AddCondition(column string, value any) {
	qb.conditions = append(qb.conditions, fmt.Sprintf("%s = $%d", column, qb.bind(value)))
}

// AddTimeRange bounds column by whichever ends of r are set.
func (qb *QueryBuilder) AddTimeRange(column string, r TimeRange) {
	if !r.Start.IsZero() {
		qb.conditions = append(qb.conditions, fmt.Sprintf("%s >= $%d", column, qb.bind(r.Start)))
	}
	if !r.End.IsZero() {
		qb.conditions = append(qb.conditions, fmt.Sprintf("%s <= $%d", column, qb.bind(r.End)))
	}
}

// AddFullTextSearch matches document against a tsquery argument and
// returns the placeholder used so callers can rank by it.
func (qb *QueryBuilder) AddFullTextSearch(document, searchQuery string) int {
	n := qb.bind(searchQuery)
	qb.conditions = append(qb.conditions,
		fmt.Sprintf("to_tsvector('english', %s) @@ to_tsquery('english', $%d)", document, n))
	return n
}

func (qb *QueryBuilder) WhereClause() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

func (qb *QueryBuilder) Args() []any {
	return qb.args
}

func (qb *QueryBuilder) NextArgNum() int {
	return len(qb.args) + 1
}

// TimeRange is an optional creation-time window. A zero bound is open.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// ParseTimeRange reads RFC 3339 bounds; empty strings leave that end open.
// Errors wrap models.ErrInvalidQuery.
func ParseTimeRange(start, end string) (TimeRange, error) {
	var r TimeRange
	var err error

	if start != "" {
		if r.Start, err = parseRFC3339(start); err != nil {
			return TimeRange{}, fmt.Errorf("invalid start_time %q: %w", start, models.ErrInvalidQuery)
		}
	}
	if end != "" {
		if r.End, err = parseRFC3339(end); err != nil {
			return TimeRange{}, fmt.Errorf("invalid end_time %q: %w", end, models.ErrInvalidQuery)
		}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return TimeRange{}, fmt.Errorf("end_time is before start_time: %w", models.ErrInvalidQuery)
	}
	return r, nil
}

// NormalizePage applies the listing defaults: a missing limit becomes
// DefaultPageLimit, a large one is capped at MaxPageLimit, and a negative
// offset becomes zero.
func NormalizePage(limit, offset int) (int, int) {
	return validateLimit(limit, DefaultPageLimit, MaxPageLimit), validateOffset(offset)
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func validateLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func validateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
