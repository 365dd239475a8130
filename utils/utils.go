// The utils package contains constants and general-purpose functions shared
// by the satellite status and RINEX packages.
package utils

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/goblimey/go-tools/dailylogger"
)

// Constellation identifies a GNSS constellation.  The values follow the
// numbering used by the Android location API, which is the most common
// source of raw measurements.
type Constellation int

const (
	ConstellationUnknown Constellation = 0
	ConstellationGPS     Constellation = 1
	ConstellationSBAS    Constellation = 2
	ConstellationGlonass Constellation = 3
	ConstellationQZSS    Constellation = 4
	ConstellationBeidou  Constellation = 5
	ConstellationGalileo Constellation = 6
	ConstellationIRNSS   Constellation = 7
)

// Constellations lists the known constellations in the order that RINEX
// headers present them.
var Constellations = []Constellation{
	ConstellationGPS,
	ConstellationGlonass,
	ConstellationGalileo,
	ConstellationBeidou,
	ConstellationQZSS,
	ConstellationIRNSS,
	ConstellationSBAS,
}

var constellationNames = map[Constellation]string{
	ConstellationUnknown: "Unknown",
	ConstellationGPS:     "GPS",
	ConstellationSBAS:    "SBAS",
	ConstellationGlonass: "GLONASS",
	ConstellationQZSS:    "QZSS",
	ConstellationBeidou:  "BeiDou",
	ConstellationGalileo: "Galileo",
	ConstellationIRNSS:   "IRNSS",
}

// RINEX satellite system identifiers.
var constellationLetters = map[Constellation]byte{
	ConstellationGPS:     'G',
	ConstellationSBAS:    'S',
	ConstellationGlonass: 'R',
	ConstellationQZSS:    'J',
	ConstellationBeidou:  'C',
	ConstellationGalileo: 'E',
	ConstellationIRNSS:   'I',
}

// String returns the name of the constellation, for example "GPS".
func (c Constellation) String() string {
	name, ok := constellationNames[c]
	if !ok {
		return fmt.Sprintf("Constellation(%d)", int(c))
	}
	return name
}

// Letter returns the RINEX satellite system letter, for example 'G' for GPS.
// An unknown constellation gives a space.
func (c Constellation) Letter() byte {
	letter, ok := constellationLetters[c]
	if !ok {
		return ' '
	}
	return letter
}

// MarshalText renders the constellation by name, so JSON and YAML
// documents carry readable values.
func (c Constellation) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts a constellation name, a RINEX letter or an Android
// constellation number.
func (c *Constellation) UnmarshalText(text []byte) error {
	constellation, err := ParseConstellation(string(text))
	if err != nil {
		return err
	}
	*c = constellation
	return nil
}

// ParseConstellation converts a name ("GPS", "Galileo" ...), a RINEX system
// letter ("G", "E" ...) or an Android constellation number ("1", "6" ...)
// to a Constellation.  Names are not case sensitive.  "NAVSTAR" is accepted
// as an alias for GPS.
func ParseConstellation(s string) (Constellation, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "NAVSTAR") {
		return ConstellationGPS, nil
	}
	for c, name := range constellationNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	if len(s) == 1 {
		for c, letter := range constellationLetters {
			if s[0] == letter {
				return c, nil
			}
		}
		if s[0] >= '0' && s[0] <= '7' {
			return Constellation(s[0] - '0'), nil
		}
	}

	return ConstellationUnknown, errors.New("unknown constellation " + s)
}

// SatelliteID returns the RINEX satellite identifier, the system letter
// followed by a two digit number, for example "G05".  SBAS satellites are
// numbered by PRN minus 100 and QZSS satellites by PRN minus 192.
func SatelliteID(constellation Constellation, svid int) string {
	switch {
	case constellation == ConstellationSBAS && svid >= 100:
		svid -= 100
	case constellation == ConstellationQZSS && svid >= 193:
		svid -= 192
	}
	return fmt.Sprintf("%c%02d", constellation.Letter(), svid)
}

// SpeedOfLightMS is the speed of light in metres per second.
const SpeedOfLightMS = 299792458.0

// Carrier frequencies in Hz.  The names follow the signal names used by each
// constellation.  Galileo and BeiDou reuse some of the GPS frequencies under
// different names - GPS L5 is Galileo E5a is BeiDou B2a.

// FreqL1 is the GPS L1, Galileo E1, QZSS L1, SBAS L1 and BeiDou B1C frequency.
const FreqL1 float64 = 1.57542e9

// FreqL2 is the GPS and QZSS L2 frequency.
const FreqL2 float64 = 1.22760e9

// FreqL3 is the GPS L3 (nuclear detonation detection) frequency.
const FreqL3 float64 = 1.38105e9

// FreqL4 is the GPS L4 (ionospheric research) frequency.
const FreqL4 float64 = 1.379913e9

// FreqL5 is the GPS/QZSS/IRNSS/SBAS L5, Galileo E5a and BeiDou B2a frequency.
const FreqL5 float64 = 1.17645e9

// FreqE6 is the Galileo E6 and QZSS L6 (LEX) frequency.
const FreqE6 float64 = 1.27875e9

// FreqE5b is the Galileo E5b frequency, also BeiDou B2 (B2I/B2b).
const FreqE5b float64 = 1.20714e9

// FreqE5 is the Galileo E5 (E5a+b AltBOC) frequency.
const FreqE5 float64 = 1.191795e9

// FreqL1Glonass is the GLONASS G1 base frequency, channel zero.
const FreqL1Glonass float64 = 1.60200e9

// BiasFreq1Glonass is the G1 channel spacing (Hz per channel number).
const BiasFreq1Glonass float64 = 0.56250e6

// FreqL2Glonass is the GLONASS G2 base frequency.
const FreqL2Glonass float64 = 1.24600e9

// BiasFreq2Glonass is the G2 channel spacing (Hz per channel number).
const BiasFreq2Glonass float64 = 0.43750e6

// FreqL3Glonass is the GLONASS G3 (CDMA) frequency.
const FreqL3Glonass float64 = 1.202025e9

// FreqB1Beidou is the BeiDou B1 (B1I) frequency.
const FreqB1Beidou float64 = 1.561098e9

// FreqB1_2Beidou is the BeiDou B1-2 frequency.
const FreqB1_2Beidou float64 = 1.589742e9

// FreqB3Beidou is the BeiDou B3 frequency.
const FreqB3Beidou float64 = 1.26852e9

// FreqSIRNSS is the IRNSS S-band frequency.
const FreqSIRNSS float64 = 2.492028e9

// WavelengthL1 is the GPS L1 carrier wavelength in metres, used when the
// frequency of a signal is not known.
const WavelengthL1 = SpeedOfLightMS / FreqL1

// Time.

// NanosPerSecond is the number of nanoseconds in a second.
const NanosPerSecond = 1e9

// SecondsPerWeek is the number of seconds in a week.
const SecondsPerWeek = 7 * 24 * 3600

// NanosPerWeek is the number of nanoseconds in a week.
const NanosPerWeek int64 = SecondsPerWeek * NanosPerSecond

// NanosPerDay is the number of nanoseconds in a day.
const NanosPerDay int64 = 24 * 3600 * NanosPerSecond

// GPSLeapSeconds is the duration that GPS time is ahead of UTC in
// seconds, correct from the start of 2017/01/01.
const GPSLeapSeconds = 18

// BeidouToGPSSeconds converts BeiDou time (BDT) to GPS time.  BDT started
// on 2006-01-01 when GPS time was 14 leap seconds ahead of UTC and, like
// GPS time, it ignores later leap seconds, so BDT + 14 s = GPST.
const BeidouToGPSSeconds = 14

// Tracking state bits reported with a raw measurement.  The values are the
// ones defined by the Android GnssMeasurement class.
const (
	StateUnknown              uint32 = 0
	StateCodeLock             uint32 = 1 << 0
	StateBitSync              uint32 = 1 << 1
	StateSubframeSync         uint32 = 1 << 2
	StateTOWDecoded           uint32 = 1 << 3
	StateMsecAmbiguous        uint32 = 1 << 4
	StateSymbolSync           uint32 = 1 << 5
	StateGlonassStringSync    uint32 = 1 << 6
	StateGlonassTODDecoded    uint32 = 1 << 7
	StateBeidouD2BitSync      uint32 = 1 << 8
	StateBeidouD2SubframeSync uint32 = 1 << 9
	StateGalileoE1BCCodeLock  uint32 = 1 << 10
	StateGalileoE1C2ndCode    uint32 = 1 << 11
	StateGalileoE1BPageSync   uint32 = 1 << 12
	StateSBASSync             uint32 = 1 << 13
	StateTOWKnown             uint32 = 1 << 14
	StateGlonassTODKnown      uint32 = 1 << 15
	State2ndCodeLock          uint32 = 1 << 16
)

// Accumulated delta range state bits.
const (
	ADRStateUnknown           uint32 = 0
	ADRStateValid             uint32 = 1 << 0
	ADRStateReset             uint32 = 1 << 1
	ADRStateCycleSlip         uint32 = 1 << 2
	ADRStateHalfCycleResolved uint32 = 1 << 3
	ADRStateHalfCycleReported uint32 = 1 << 4
)

// GetDailyLogger gets a daily log file in the given directory which can be
// written to as a logger (each line decorated with filename, date, time,
// etc).  The file names start with the given name, for example
// "rinexconv.2024-08-31.log".
func GetDailyLogger(directory, name string) *log.Logger {
	if len(directory) == 0 {
		directory = "logs"
	}
	dailyLog := dailylogger.New(directory, name+".", ".log")
	logFlags := log.LstdFlags | log.Lshortfile | log.Lmicroseconds
	return log.New(dailyLog, name, logFlags)
}
