// The signal package holds the status report for one signal (one carrier
// frequency) from one satellite, as supplied by a receiver or by the
// location subsystem of a phone.  A satellite that broadcasts on several
// frequencies produces one report per frequency.
package signal

import (
	"fmt"
	"math"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/utils"
)

// NoData is the carrier to noise density value that means "not measured".
const NoData = 0.0

// Status is the report for one signal.
type Status struct {
	// Constellation is the GNSS constellation of the satellite.
	Constellation utils.Constellation `json:"constellation" yaml:"constellation"`

	// Svid is the satellite ID - the PRN for GPS, Galileo, BeiDou and SBAS,
	// the slot number for GLONASS.
	Svid int `json:"svid" yaml:"svid"`

	// CarrierFrequencyHz is the carrier frequency of the signal.  It's only
	// meaningful if HasCarrierFrequency is set.
	CarrierFrequencyHz float64 `json:"carrier_frequency_hz,omitempty" yaml:"carrier_frequency_hz,omitempty"`

	// HasCarrierFrequency is true if the source supplied the frequency.
	HasCarrierFrequency bool `json:"has_carrier_frequency" yaml:"has_carrier_frequency"`

	// CN0DbHz is the carrier to noise density in dB-Hz, or NoData.
	CN0DbHz float64 `json:"cn0_dbhz" yaml:"cn0_dbhz"`

	// UsedInFix is true if the signal contributed to the latest position fix.
	UsedInFix bool `json:"used_in_fix" yaml:"used_in_fix"`

	AzimuthDegrees   float64 `json:"azimuth_degrees" yaml:"azimuth_degrees"`
	ElevationDegrees float64 `json:"elevation_degrees" yaml:"elevation_degrees"`

	HasAlmanac   bool `json:"has_almanac" yaml:"has_almanac"`
	HasEphemeris bool `json:"has_ephemeris" yaml:"has_ephemeris"`

	// State is the tracking state bitmask (see the utils.State constants).
	State uint32 `json:"state,omitempty" yaml:"state,omitempty"`

	// ADRState is the accumulated delta range state bitmask (see the
	// utils.ADRState constants).
	ADRState uint32 `json:"adr_state,omitempty" yaml:"adr_state,omitempty"`
}

// HasCN0 returns true if the signal has a valid carrier to noise density.
func (status *Status) HasCN0() bool {
	return !math.IsNaN(status.CN0DbHz) && status.CN0DbHz > NoData
}

// Label returns the carrier label of the signal.
func (status *Status) Label() carrier.Label {
	return carrier.Classify(status.Constellation, status.Svid,
		status.CarrierFrequencyHz, status.HasCarrierFrequency)
}

// SatelliteID returns the RINEX identifier of the satellite, for example
// "G05".
func (status *Status) SatelliteID() string {
	return utils.SatelliteID(status.Constellation, status.Svid)
}

// String returns a readable version of the status, for example
//
//	G05 L1 1575.420 MHz cn0 45.2 used az 123.0 el 45.0 AE
//
// The last field shows "A" if the satellite has an almanac and "E" if it has
// an ephemeris.
func (status *Status) String() string {
	frequency := "no frequency"
	if status.HasCarrierFrequency {
		frequency = fmt.Sprintf("%.3f MHz", status.CarrierFrequencyHz/1e6)
	}

	cn0 := "no cn0"
	if status.HasCN0() {
		cn0 = fmt.Sprintf("cn0 %.1f", status.CN0DbHz)
	}

	used := "not used"
	if status.UsedInFix {
		used = "used"
	}

	flags := ""
	if status.HasAlmanac {
		flags += "A"
	}
	if status.HasEphemeris {
		flags += "E"
	}
	if len(flags) == 0 {
		flags = "-"
	}

	return fmt.Sprintf("%s %s %s %s %s az %.1f el %.1f %s",
		status.SatelliteID(), status.Label(), frequency, cn0, used,
		status.AzimuthDegrees, status.ElevationDegrees, flags)
}
