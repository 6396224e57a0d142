// internal/domain/schedule/expression.go
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedExpression = errors.New("malformed time expression")
	ErrFieldOutOfRange     = errors.New("time expression field out of range")
)

const wildcard = -1

type field struct {
	name     string
	min, max int
}

// Order is minute, hour, day-of-month, month, day-of-week (0 = Sunday).
var fields = [5]field{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

// Expression is a parsed five-field time expression. Each field holds either
// a literal value or the wildcard.
type Expression struct {
	values [5]int
}

// ParseExpression accepts exactly five whitespace-separated fields, each either
// "*" or a non-negative base-10 integer. Ranges, lists and steps are rejected.
func ParseExpression(raw string) (Expression, error) {
	var expr Expression

	parts := strings.Fields(raw)
	if len(parts) != len(fields) {
		return expr, fmt.Errorf("%w: expected %d fields, got %d in %q", ErrMalformedExpression, len(fields), len(parts), raw)
	}

	for i, part := range parts {
		if part == "*" {
			expr.values[i] = wildcard
			continue
		}
		if !isDigits(part) {
			return expr, fmt.Errorf("%w: %s field %q is neither '*' nor a number", ErrMalformedExpression, fields[i].name, part)
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return expr, fmt.Errorf("%w: %s field %q: %v", ErrMalformedExpression, fields[i].name, part, err)
		}
		if v < fields[i].min || v > fields[i].max {
			return expr, fmt.Errorf("%w: %s=%d not in [%d,%d]", ErrFieldOutOfRange, fields[i].name, v, fields[i].min, fields[i].max)
		}
		expr.values[i] = v
	}

	return expr, nil
}

// Matches reports whether every non-wildcard field equals the corresponding
// component of t, evaluated in t's location.
func (e Expression) Matches(t time.Time) bool {
	components := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, v := range e.values {
		if v != wildcard && v != components[i] {
			return false
		}
	}
	return true
}

// String renders the expression back to its canonical five-field form.
func (e Expression) String() string {
	out := make([]string, len(e.values))
	for i, v := range e.values {
		if v == wildcard {
			out[i] = "*"
		} else {
			out[i] = strconv.Itoa(v)
		}
	}
	return strings.Join(out, " ")
}

// Matches parses raw and tests it against t. A parse failure never matches;
// the error is returned so callers can report it.
func Matches(raw string, t time.Time) (bool, error) {
	expr, err := ParseExpression(raw)
	if err != nil {
		return false, err
	}
	return expr.Matches(t), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
