package schedule

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpression_Valid(t *testing.T) {
	t.Parallel()

	cases := []string{
		"* * * * *",
		"0 9 * * *",
		"30 8 15 6 1",
		"59 23 31 12 6",
		"05 07 * * 0",
		"  0   9  *  *  *  ",
	}
	for _, raw := range cases {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			_, err := ParseExpression(raw)
			require.NoError(t, err)
		})
	}
}

func TestParseExpression_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want error
	}{
		{"x y z", ErrMalformedExpression},
		{"", ErrMalformedExpression},
		{"* * * *", ErrMalformedExpression},
		{"* * * * * *", ErrMalformedExpression},
		{"1-5 * * * *", ErrMalformedExpression},
		{"1,2 * * * *", ErrMalformedExpression},
		{"*/5 * * * *", ErrMalformedExpression},
		{"-1 * * * *", ErrMalformedExpression},
		{"+5 * * * *", ErrMalformedExpression},
		{"a * * * *", ErrMalformedExpression},
		{"60 * * * *", ErrFieldOutOfRange},
		{"* 24 * * *", ErrFieldOutOfRange},
		{"* * 0 * *", ErrFieldOutOfRange},
		{"* * * 13 *", ErrFieldOutOfRange},
		{"* * * * 7", ErrFieldOutOfRange},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			_, err := ParseExpression(tc.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	// 2024-06-03 is a Monday.
	at := func(h, m int) time.Time { return time.Date(2024, 6, 3, h, m, 0, 0, time.UTC) }

	cases := []struct {
		name string
		raw  string
		t    time.Time
		want bool
	}{
		{"daily 09:00 matches", "0 9 * * *", at(9, 0), true},
		{"daily 09:00 not at 09:01", "0 9 * * *", at(9, 1), false},
		{"daily 09:00 not at 08:00", "0 9 * * *", at(8, 0), false},
		{"all wildcards", "* * * * *", at(13, 37), true},
		{"day of month", "0 9 3 * *", at(9, 0), true},
		{"wrong day of month", "0 9 4 * *", at(9, 0), false},
		{"month", "0 9 * 6 *", at(9, 0), true},
		{"wrong month", "0 9 * 7 *", at(9, 0), false},
		{"monday is 1", "0 9 * * 1", at(9, 0), true},
		{"sunday is 0", "0 9 * * 0", at(9, 0), false},
		{"leading zeros", "00 09 03 06 01", at(9, 0), true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Matches(tc.raw, tc.t)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatches_SundayIsZero(t *testing.T) {
	t.Parallel()

	sunday := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Sunday, sunday.Weekday())

	got, err := Matches("0 10 * * 0", sunday)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMatches_UsesInstantLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	instant := time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC).In(loc) // 09:00 local

	got, err := Matches("0 9 * * *", instant)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMatches_MalformedNeverMatches(t *testing.T) {
	t.Parallel()

	got, err := Matches("x y z", time.Now())
	assert.False(t, got)
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestExpression_String(t *testing.T) {
	t.Parallel()

	expr, err := ParseExpression(" 05  9 * *  1 ")
	require.NoError(t, err)
	assert.Equal(t, "5 9 * * 1", expr.String())
}

func TestDefinition_FiredWithin(t *testing.T) {
	t.Parallel()

	fired := time.Date(2024, 6, 3, 8, 30, 0, 0, time.UTC)
	def := &Definition{LastFired: sql.NullTime{Time: fired, Valid: true}}

	assert.True(t, def.FiredWithin(fired))
	assert.True(t, def.FiredWithin(fired.Add(30*time.Second)))
	assert.True(t, def.FiredWithin(fired.Add(59*time.Second)))
	assert.False(t, def.FiredWithin(fired.Add(time.Minute)))
	assert.False(t, def.FiredWithin(fired.Add(24*time.Hour)))
	assert.True(t, def.FiredWithin(fired.Add(-time.Hour)), "lastFired in the future blocks firing")

	assert.False(t, (&Definition{}).FiredWithin(fired), "never fired")
}
