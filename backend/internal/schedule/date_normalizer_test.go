package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.October, 15, 9, 0, 0, 0, time.UTC) }
}

func TestDateNormalizer_SerialRoundTrip(t *testing.T) {
	n := NewDateNormalizer(fixedClock(2025))

	want := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 45678).Format(DisplayLayout)

	assert.Equal(t, want, n.Normalize(45678))
	assert.Equal(t, want, n.Normalize(45678.0))
	assert.Equal(t, want, n.Normalize("45678"))
	assert.Equal(t, "01/21/2025", want)
	assert.Equal(t, float64(45678), TimeToSerial(SerialToTime(45678)))
}

func TestDateNormalizer_Formats(t *testing.T) {
	n := NewDateNormalizer(fixedClock(2025))

	cases := []struct {
		in   string
		want string
	}{
		{"01/05/2025", "01/05/2025"},
		{"1/5/2025", "01/05/2025"},
		{"1/5/25", "01/05/2025"},
		{"01-05-2025", "01/05/2025"},
		{"2025-01-05", "01/05/2025"},
		{"22-Nov", "11/22/2025"},
		{"22 November", "11/22/2025"},
		{"Nov 22, 2024", "11/22/2024"},
		{"22-Nov-2024", "11/22/2024"},
		{"  45292  ", "01/01/2024"},
	}
	for _, tc := range cases {
		got, ok := n.Resolve(tc.in)
		assert.True(t, ok, "Resolve(%q) 应识别", tc.in)
		assert.Equal(t, tc.want, got, "Resolve(%q)", tc.in)
	}
}

func TestDateNormalizer_TimeValue(t *testing.T) {
	n := NewDateNormalizer(nil)
	d := time.Date(2025, time.March, 9, 13, 30, 0, 0, time.UTC)

	assert.Equal(t, "03/09/2025", n.Normalize(d))
	assert.Equal(t, "", n.Normalize(time.Time{}))
}

func TestDateNormalizer_EmptyInput(t *testing.T) {
	n := NewDateNormalizer(nil)

	for _, in := range []any{nil, "", "   ", 0} {
		got, ok := n.Resolve(in)
		assert.True(t, ok)
		assert.Equal(t, "", got)
	}
}

func TestDateNormalizer_UnparseableKeepsRaw(t *testing.T) {
	n := NewDateNormalizer(fixedClock(2025))

	for _, in := range []string{"next friday", "31-Feb", "13/45/2025", "TBD"} {
		got, ok := n.Resolve(in)
		assert.False(t, ok, "Resolve(%q) 不应识别", in)
		assert.Equal(t, in, got)
	}
}

func TestDateNormalizer_NonFiniteAndOutOfRangeSerials(t *testing.T) {
	n := NewDateNormalizer(fixedClock(2025))

	for _, in := range []string{"inf", "Infinity", "-inf", "NaN", "1e308", "2958466"} {
		got, ok := n.Resolve(in)
		assert.False(t, ok, "Resolve(%q) 不应按序列号识别", in)
		assert.Equal(t, in, got)
	}

	for _, f := range []float64{math.Inf(1), math.NaN(), 1e308} {
		_, ok := n.Resolve(f)
		assert.False(t, ok, "Resolve(%v) 不应按序列号识别", f)
	}

	got, ok := n.Resolve(float64(maxSerial))
	assert.True(t, ok)
	assert.Equal(t, "12/31/9999", got)
}

func TestParseDisplayDate(t *testing.T) {
	d, ok := ParseDisplayDate("01/05/2025")
	assert.True(t, ok)
	assert.Equal(t, time.Sunday, d.Weekday())

	_, ok = ParseDisplayDate("TBD")
	assert.False(t, ok)
	_, ok = ParseDisplayDate("")
	assert.False(t, ok)
}
