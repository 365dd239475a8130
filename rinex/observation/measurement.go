// The observation package converts raw GNSS measurements into the epoch records
// of a RINEX 3.03 observation file.
//
// A receiver (or a phone's location subsystem) reports a hardware clock
// reading once per epoch plus one measurement per signal tracked.  Each
// measurement gives the time at which the signal was transmitted according
// to the satellite, the accumulated delta range (the carrier phase in
// metres), the pseudorange rate and the carrier to noise density.  From
// these the encoder derives the four RINEX observables:
//
//	pseudorange    (receive time - transmit time) * speed of light
//	carrier phase  accumulated delta range / wavelength
//	Doppler        -pseudorange rate / wavelength
//	signal         carrier to noise density, as given
//
// Two independent checks decide which observables are valid.  The tracking
// state must show that the receiver has decoded enough of the navigation
// message to know the full transmit time (see SyncValid), otherwise the
// pseudorange is blank.  The accumulated delta range state must have its
// valid bit set (see CarrierPhaseValid), otherwise the carrier phase is
// blank.  The Doppler and signal strength are always given.
//
// A blank observable is written as sixteen spaces, never as zero, so
// "not observed" can be told apart from "observed as zero".
package observation

import (
	"errors"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/gnsstime"
	"github.com/goblimey/go-rinex/utils"
)

// Epoch flags.
const (
	// FlagOK marks a normal epoch.
	FlagOK = 0

	// FlagPowerFailure marks the first epoch after a power failure.
	FlagPowerFailure = 1
)

// ErrEventRecordNotImplemented is returned for any epoch flag other than
// FlagOK or FlagPowerFailure.
var ErrEventRecordNotImplemented = errors.New("RINEX event records are not implemented")

// ErrNoFullBias is returned when the clock has no full bias, so GPS time
// can't be computed.
var ErrNoFullBias = errors.New("the receiver clock has no full bias value")

// Clock is a reading of the receiver's hardware clock.
type Clock struct {
	// TimeNanos is the hardware clock in nanoseconds from an arbitrary
	// start point.
	TimeNanos int64 `json:"time_nanos" yaml:"time_nanos"`

	// FullBiasNanos is the difference between TimeNanos and GPS time in
	// whole nanoseconds.  It's only meaningful if HasFullBias is set.
	FullBiasNanos int64 `json:"full_bias_nanos" yaml:"full_bias_nanos"`

	// HasFullBias is true if the receiver supplied FullBiasNanos.
	HasFullBias bool `json:"has_full_bias" yaml:"has_full_bias"`

	// BiasNanos is the sub-nanosecond part of the bias.
	BiasNanos float64 `json:"bias_nanos" yaml:"bias_nanos"`
}

// GPSTime returns the clock reading as GPS time.
func (c *Clock) GPSTime() (gnsstime.Time, error) {
	if !c.HasFullBias {
		return gnsstime.Time{}, ErrNoFullBias
	}
	return gnsstime.FromClock(c.TimeNanos, c.FullBiasNanos, c.BiasNanos), nil
}

// Measurement is the raw measurement of one signal from one satellite.
type Measurement struct {
	Constellation utils.Constellation `json:"constellation" yaml:"constellation"`
	Svid          int                 `json:"svid" yaml:"svid"`

	// CarrierFrequencyHz is only meaningful if HasCarrierFrequency is set.
	CarrierFrequencyHz  float64 `json:"carrier_frequency_hz,omitempty" yaml:"carrier_frequency_hz,omitempty"`
	HasCarrierFrequency bool    `json:"has_carrier_frequency" yaml:"has_carrier_frequency"`

	// TimeOffsetNanos is the time at which the measurement was taken
	// relative to the clock reading of the epoch.
	TimeOffsetNanos float64 `json:"time_offset_nanos" yaml:"time_offset_nanos"`

	// State is the tracking state bitmask (utils.State...).
	State uint32 `json:"state" yaml:"state"`

	// ReceivedSvTimeNanos is the transmit time of the signal according to
	// the satellite.  What it counts depends on the tracking state - time of
	// week, time of day, or time within a shorter period.
	ReceivedSvTimeNanos int64 `json:"received_sv_time_nanos" yaml:"received_sv_time_nanos"`

	Cn0DbHz float64 `json:"cn0_dbhz" yaml:"cn0_dbhz"`

	// PseudorangeRateMetersPerSecond is positive when the satellite is
	// moving away from the receiver.
	PseudorangeRateMetersPerSecond float64 `json:"pseudorange_rate_mps" yaml:"pseudorange_rate_mps"`

	AccumulatedDeltaRangeMeters float64 `json:"accumulated_delta_range_m" yaml:"accumulated_delta_range_m"`

	// AccumulatedDeltaRangeState is the ADR state bitmask
	// (utils.ADRState...).
	AccumulatedDeltaRangeState uint32 `json:"adr_state" yaml:"adr_state"`
}

// Label returns the carrier label of the measurement.
func (m *Measurement) Label() carrier.Label {
	return carrier.Classify(m.Constellation, m.Svid, m.CarrierFrequencyHz, m.HasCarrierFrequency)
}

// Wavelength returns the carrier wavelength in metres.  If the frequency is
// not known the GPS L1 wavelength is assumed.
func (m *Measurement) Wavelength() float64 {
	return carrier.Wavelength(m.CarrierFrequencyHz, m.HasCarrierFrequency)
}

// SatelliteID returns the RINEX satellite identifier, for example "E11".
func (m *Measurement) SatelliteID() string {
	return utils.SatelliteID(m.Constellation, m.Svid)
}

// Epoch is a clock reading and the measurements taken with it.
type Epoch struct {
	Clock        Clock         `json:"clock" yaml:"clock"`
	Measurements []Measurement `json:"measurements" yaml:"measurements"`

	// Flag is the RINEX epoch flag, FlagOK or FlagPowerFailure.
	Flag int `json:"flag" yaml:"flag"`
}
