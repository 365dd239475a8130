package gnsstime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goblimey/go-rinex/utils"
)

// TestEpochFormat checks that the GPS epoch itself is rendered correctly.
func TestEpochFormat(t *testing.T) {
	assert.Equal(t, "1980 01 06 00 00 00.000000", FromGPSNanos(0).String())
	assert.Equal(t, "1980 01 06 00 00 00.0000000", FromGPSNanos(0).Format(7))
	assert.Equal(t, 0, FromGPSNanos(0).Week())
	assert.Equal(t, 0.0, FromGPSNanos(0).SecondsOfWeek())
}

// TestFormat checks the calendar rendering of some times, including the
// fraction of a second.
func TestFormat(t *testing.T) {
	// 2023-05-14 00:00:05.123456789 GPS time is week 2262, 5.123456789
	// seconds into the week.
	const week = 2262
	nanos := int64(week)*utils.NanosPerWeek + 5123456789

	gpsTime := FromGPSNanos(nanos)

	assert.Equal(t, "2023 05 14 00 00 05.123456", gpsTime.Format(6))
	assert.Equal(t, "2023 05 14 00 00 05.1234567", gpsTime.Format(7))
	assert.Equal(t, "2023 05 14 00 00 05.123456789", gpsTime.Format(9))
	assert.Equal(t, week, gpsTime.Week())
	assert.InDelta(t, 5.123456789, gpsTime.SecondsOfWeek(), 1e-9)

	// The fraction is truncated, so 59.9999999 seconds does not become 60.
	nearlyAMinute := FromGPSNanos(59999999999)
	assert.Equal(t, "1980 01 06 00 00 59.999999", nearlyAMinute.String())
}

// TestCalendarOverManyYears checks that the calendar conversion works for
// times far from the epoch, beyond the range of a single time.Duration
// step of whole seconds.
func TestCalendarOverManyYears(t *testing.T) {
	want := time.Date(2200, time.March, 1, 12, 0, 0, 0, time.UTC)
	seconds := int64(want.Sub(Epoch.AddDate(100, 0, 0))/time.Second) +
		int64(Epoch.AddDate(100, 0, 0).Sub(Epoch)/time.Second)

	got := FromGPSNanos(seconds * int64(utils.NanosPerSecond)).Calendar()

	assert.True(t, want.Equal(got), "want %v, got %v", want, got)
}

// TestBeidou checks that BeiDou time is GPS time plus 14 seconds.
func TestBeidou(t *testing.T) {
	values := []int64{0, 1, 123456789, int64(2000) * utils.NanosPerWeek, utils.NanosPerWeek - 1}
	for _, v := range values {
		want := FromGPSNanos(v + 14*int64(utils.NanosPerSecond))
		got := FromBeidouNanos(v)
		assert.Equal(t, want, got)
		assert.Equal(t, want.String(), got.String())
	}
}

// TestGlonass checks that GLONASS conversion is refused.
func TestGlonass(t *testing.T) {
	_, err := FromGlonassTimeOfDay(1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGlonassUnsupported))
}

// TestFromClock checks the conversion of a hardware clock reading.
func TestFromClock(t *testing.T) {
	var testData = []struct {
		Description string
		TimeNanos   int64
		FullBias    int64
		Bias        float64
		WantNanos   int64
		WantSub     float64
	}{
		{"no bias", 1000, -2000, 0, 3000, 0},
		{"positive bias", 1000, -2000, 0.25, 2999, 0.75},
		{"negative bias", 1000, -2000, -0.25, 3000, 0.25},
		{"whole bias", 1000, -2000, 2, 2998, 0},
		{"large", 5000000, -1367182818000000000, 0.5, 1367182818004999999, 0.5},
	}

	for _, td := range testData {
		got := FromClock(td.TimeNanos, td.FullBias, td.Bias)
		assert.Equal(t, td.WantNanos, got.Nanos, td.Description)
		assert.InDelta(t, td.WantSub, got.SubNanos, 1e-9, td.Description)
	}
}

// TestAdd checks Add with positive, negative and fractional values.
func TestAdd(t *testing.T) {
	start := Time{Nanos: 100, SubNanos: 0.75}

	got := start.Add(0.5)
	assert.Equal(t, int64(101), got.Nanos)
	assert.InDelta(t, 0.25, got.SubNanos, 1e-12)

	got = start.Add(-1.5)
	assert.Equal(t, int64(99), got.Nanos)
	assert.InDelta(t, 0.25, got.SubNanos, 1e-12)
}

// TestNegativeTime checks that times before the epoch are handled with
// floor arithmetic.
func TestNegativeTime(t *testing.T) {
	before := FromGPSNanos(-1)
	assert.Equal(t, -1, before.Week())
	assert.InDelta(t, float64(utils.NanosPerWeek-1), before.NanosOfWeek(), 1)
	assert.Equal(t, "1980 01 05 23 59 59.999999", before.String())
}

// TestCorrectWeekCrossover checks the week rollover correction.
func TestCorrectWeekCrossover(t *testing.T) {
	week := float64(utils.NanosPerWeek)
	transit := 70e6 // 70 milliseconds.

	var testData = []struct {
		Description string
		Delta       float64
		Want        float64
		WantOK      bool
	}{
		{"normal", transit, transit, true},
		{"receive time rolled over", transit - week, transit, true},
		{"transmit time rolled over", transit + week, transit, true},
		{"two weeks", transit + 2*week, transit, true},
		{"just under the limit", 9.9e9, 9.9e9, true},
		{"implausible", 20e9, 20e9, false},
		{"implausible after correction", 20e9 - week, 20e9, false},
		{"negative implausible", -11e9, -11e9, false},
	}

	for _, td := range testData {
		got, ok := CorrectWeekCrossover(td.Delta)
		assert.Equal(t, td.WantOK, ok, td.Description)
		assert.InDelta(t, td.Want, got, 1e-3, td.Description)
	}
}

// TestCorrectCrossoverShortPeriod checks the correction with a period of
// 100 milliseconds, as used by the Galileo E1C secondary code.
func TestCorrectCrossoverShortPeriod(t *testing.T) {
	got, ok := CorrectCrossover(95e6, 100e6)
	assert.True(t, ok)
	assert.InDelta(t, -5e6, got, 1e-3)

	got, ok = CorrectCrossover(30e6, 100e6)
	assert.True(t, ok)
	assert.InDelta(t, 30e6, got, 1e-3)
}
