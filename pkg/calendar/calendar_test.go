package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthBounds(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", m.First().String())
	assert.Equal(t, "2024-02-29", m.Last().String())
	assert.Equal(t, "2024-03", m.Next().String())

	dec, err := ParseMonth("2023-12")
	require.NoError(t, err)
	assert.Equal(t, "2024-01", dec.Next().String())
	assert.True(t, dec.Contains(NewDate(2023, time.December, 31)))
	assert.False(t, dec.Contains(NewDate(2024, time.January, 1)))
}

func TestParseMonthRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "2024-13", "24-01", "2024/01", "2024-1"} {
		_, err := ParseMonth(raw)
		assert.Error(t, err, raw)
	}
}

func TestDateJSONAndScan(t *testing.T) {
	d, err := ParseDate("2024-05-07")
	require.NoError(t, err)

	raw, err := json.Marshal(struct {
		Date Date `json:"date"`
	}{Date: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-05-07"}`, string(raw))

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)))
	assert.True(t, scanned.Equal(d))

	require.NoError(t, scanned.Scan("2024-05-07T00:00:00Z"))
	assert.True(t, scanned.Equal(d))

	value, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-05-07", value)
}

func TestDateAtAppliesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	d := NewDate(2024, time.May, 7)
	start := d.At(TimeOfDay{Hour: 9, Minute: 30}, loc)
	assert.Equal(t, time.Date(2024, 5, 7, 6, 30, 0, 0, time.UTC), start.UTC())
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:05")
	require.NoError(t, err)
	assert.Equal(t, 8*60+5, tod.Minutes())
	assert.Equal(t, "08:05", tod.String())

	tod, err = ParseTimeOfDay("23:59:00")
	require.NoError(t, err)
	assert.Equal(t, "23:59", tod.String())

	for _, raw := range []string{"24:00", "8:05", "12:60", "ab:cd"} {
		_, err := ParseTimeOfDay(raw)
		assert.Error(t, err, raw)
	}
}
