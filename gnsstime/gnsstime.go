// The gnsstime package handles GPS time as used in RINEX files.
//
// A receiver's hardware clock counts nanoseconds from some arbitrary start
// point.  The receiver also reports the difference between that count and
// true GPS time as a "full bias" (whole nanoseconds) and a "bias" (a
// fraction of a nanosecond), so
//
//	GPS time = hardware time - (full bias + bias)
//
// GPS time counts from the GPS epoch, midnight at the start of Sunday
// 6th January 1980, and ignores leap seconds.  It's usually presented as a
// week number and an offset into the week.
//
// BeiDou time (BDT) is GPS time minus 14 seconds.  GLONASS time of day is
// Moscow time (UTC plus three hours) and depends on the leap second count,
// which this package doesn't track, so GLONASS conversion is not supported.
package gnsstime

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goblimey/go-rinex/utils"
)

// ErrGlonassUnsupported is returned for any attempt to convert a GLONASS
// time of day.
var ErrGlonassUnsupported = errors.New("conversion of GLONASS time of day is not supported")

// Epoch is the start of GPS time.
var Epoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// MaxResidualNanos is the largest transit time difference that is still
// plausible after week crossover correction.
const MaxResidualNanos = 10 * utils.NanosPerSecond

// Time is a GPS time, the number of whole nanoseconds since the GPS epoch
// plus a sub-nanosecond fraction in the range [0, 1).
type Time struct {
	Nanos    int64   `json:"nanos" yaml:"nanos"`
	SubNanos float64 `json:"sub_nanos,omitempty" yaml:"sub_nanos,omitempty"`
}

// FromGPSNanos creates a Time from a count of nanoseconds since the GPS
// epoch.
func FromGPSNanos(nanos int64) Time {
	return Time{Nanos: nanos}
}

// FromBeidouNanos creates a Time from a count of nanoseconds of BeiDou time.
// The BeiDou offset is applied before any other arithmetic, so the result is
// the same as FromGPSNanos(nanos + 14 seconds).
func FromBeidouNanos(nanos int64) Time {
	return FromGPSNanos(nanos + utils.BeidouToGPSSeconds*int64(utils.NanosPerSecond))
}

// FromGlonassTimeOfDay would convert a GLONASS time of day but it's not
// supported.
func FromGlonassTimeOfDay(nanos int64) (Time, error) {
	return Time{}, ErrGlonassUnsupported
}

// FromClock converts a hardware clock reading to GPS time.  The full bias
// is normally negative and very large, so the whole nanoseconds are
// handled as integers and only the bias is treated as floating point.
func FromClock(timeNanos, fullBiasNanos int64, biasNanos float64) Time {
	whole := timeNanos - fullBiasNanos
	wholeBias := math.Floor(biasNanos)
	sub := biasNanos - wholeBias
	// Subtracting the bias: whole - wholeBias - sub.
	nanos := whole - int64(wholeBias)
	if sub > 0 {
		nanos--
		sub = 1 - sub
	}
	return Time{Nanos: nanos, SubNanos: sub}
}

// Add returns the time plus the given number of nanoseconds, which may be
// fractional or negative.
func (t Time) Add(nanos float64) Time {
	whole := math.Floor(nanos)
	sub := t.SubNanos + (nanos - whole)
	result := Time{Nanos: t.Nanos + int64(whole), SubNanos: sub}
	if result.SubNanos >= 1 {
		result.Nanos++
		result.SubNanos--
	}
	return result
}

// Week returns the GPS week number.
func (t Time) Week() int {
	return int(floorDiv(t.Nanos, utils.NanosPerWeek))
}

// NanosOfWeek returns the time since the start of the GPS week in
// nanoseconds, including the sub-nanosecond part.
func (t Time) NanosOfWeek() float64 {
	week := floorDiv(t.Nanos, utils.NanosPerWeek)
	return float64(t.Nanos-week*utils.NanosPerWeek) + t.SubNanos
}

// SecondsOfWeek returns the time since the start of the GPS week in
// seconds.
func (t Time) SecondsOfWeek() float64 {
	return t.NanosOfWeek() / utils.NanosPerSecond
}

// Calendar returns the whole seconds of the time as a calendar date and time
// in the GPS time scale (no leap seconds are applied).  The result is in
// the UTC location so that it formats without any offset.
func (t Time) Calendar() time.Time {
	seconds := floorDiv(t.Nanos, int64(utils.NanosPerSecond))
	// Step through the seconds in chunks that fit in a time.Duration.
	const chunk = int64(100 * 365 * 24 * 3600)
	result := Epoch
	for seconds > chunk {
		result = result.Add(time.Duration(chunk) * time.Second)
		seconds -= chunk
	}
	for seconds < -chunk {
		result = result.Add(-time.Duration(chunk) * time.Second)
		seconds += chunk
	}
	return result.Add(time.Duration(seconds) * time.Second)
}

// Fraction returns the fraction of a second as an integer with the given
// number of digits (1 to 9), truncated, so 0.1234567 with 6 digits gives
// 123456.
func (t Time) Fraction(digits int) int64 {
	if digits < 1 {
		digits = 1
	}
	if digits > 9 {
		digits = 9
	}

	fraction := floorMod(t.Nanos, int64(utils.NanosPerSecond))
	for i := 9; i > digits; i-- {
		fraction /= 10
	}
	return fraction
}

// Format returns the time as "yyyy mm dd HH MM SS.f" where the fraction of
// a second has the given number of digits (1 to 9).  The whole seconds come
// from Calendar and the fraction is formatted separately and appended.  It's
// truncated, not rounded, so the seconds never roll over to 60.
func (t Time) Format(digits int) string {
	if digits < 1 {
		digits = 1
	}
	if digits > 9 {
		digits = 9
	}
	return fmt.Sprintf("%s.%0*d", t.Calendar().Format("2006 01 02 15 04 05"), digits, t.Fraction(digits))
}

// String returns the time in the format used by Format, with microseconds.
func (t Time) String() string {
	return t.Format(6)
}

// CorrectCrossover handles the rollover of a periodic time value.  The
// difference between a receive time and a transmit time should be a small
// positive number (the transit time, around 70 milliseconds) but if the two
// times are taken from either side of the start of a new period (for
// example the start of the GPS week), it will be wrong by one period.  If
// the difference is more than half a period, the nearest whole number of
// periods is removed.  The second result is false if the corrected
// difference is still more than 10 seconds, meaning that the times are
// implausible and the value derived from them should not be used.
func CorrectCrossover(deltaNanos, periodNanos float64) (float64, bool) {
	if periodNanos > 0 && math.Abs(deltaNanos) > periodNanos/2 {
		periods := math.Round(deltaNanos / periodNanos)
		deltaNanos -= periods * periodNanos
	}
	if math.Abs(deltaNanos) > MaxResidualNanos {
		return deltaNanos, false
	}
	return deltaNanos, true
}

// CorrectWeekCrossover is CorrectCrossover for the GPS week.
func CorrectWeekCrossover(deltaNanos float64) (float64, bool) {
	return CorrectCrossover(deltaNanos, float64(utils.NanosPerWeek))
}

// floorDiv divides, rounding towards minus infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod returns the remainder of floorDiv, which has the sign of b.
func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
