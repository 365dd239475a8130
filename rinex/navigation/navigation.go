// The navigation package writes broadcast ephemerides as RINEX 3.03 navigation
// records.
//
// Each record is eight lines.  The first gives the satellite, the time of
// clock and the three clock correction terms.  The other seven are the
// broadcast orbit lines, each indented by four spaces and carrying up to
// four values.  Every value is written in scientific notation with a
// twelve digit mantissa and a two digit exponent, for example
// "-1.234567890123E-05".
//
// GPS, Galileo, BeiDou, QZSS and IRNSS ephemerides share the Keplerian
// layout.  GLONASS and SBAS broadcast positions and velocities instead and
// are not supported.
package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goblimey/go-rinex/gnsstime"
	"github.com/goblimey/go-rinex/utils"
)

// ErrUnsupportedConstellation is returned for an ephemeris that doesn't use
// the Keplerian layout.
var ErrUnsupportedConstellation = errors.New("navigation records are not supported for this constellation")

// orbitIndent starts each broadcast orbit line.
const orbitIndent = "    "

// Ephemeris holds the broadcast orbit and clock parameters of one
// satellite.  Times of week are in seconds in the satellite's own time
// system.  Angles are in radians.
type Ephemeris struct {
	Constellation utils.Constellation `json:"constellation" yaml:"constellation"`
	Svid          int                 `json:"svid" yaml:"svid"`

	// TOC is the time of clock as GPS time.  BeiDou records show it in
	// BeiDou time.
	TOC gnsstime.Time `json:"toc" yaml:"toc"`

	ClockBias      float64 `json:"af0" yaml:"af0"`
	ClockDrift     float64 `json:"af1" yaml:"af1"`
	ClockDriftRate float64 `json:"af2" yaml:"af2"`

	// IODE is the issue of data (IODnav for Galileo, AODE for BeiDou).
	IODE   float64 `json:"iode" yaml:"iode"`
	Crs    float64 `json:"crs" yaml:"crs"`
	DeltaN float64 `json:"delta_n" yaml:"delta_n"`
	M0     float64 `json:"m0" yaml:"m0"`

	Cuc          float64 `json:"cuc" yaml:"cuc"`
	Eccentricity float64 `json:"e" yaml:"e"`
	Cus          float64 `json:"cus" yaml:"cus"`
	SqrtA        float64 `json:"sqrt_a" yaml:"sqrt_a"`

	Toe    float64 `json:"toe" yaml:"toe"`
	Cic    float64 `json:"cic" yaml:"cic"`
	Omega0 float64 `json:"omega0" yaml:"omega0"`
	Cis    float64 `json:"cis" yaml:"cis"`

	I0       float64 `json:"i0" yaml:"i0"`
	Crc      float64 `json:"crc" yaml:"crc"`
	Omega    float64 `json:"omega" yaml:"omega"`
	OmegaDot float64 `json:"omega_dot" yaml:"omega_dot"`

	IDot float64 `json:"idot" yaml:"idot"`

	// Codes is the codes on L2 for GPS and QZSS and the data sources for
	// Galileo.
	Codes   float64 `json:"codes" yaml:"codes"`
	Week    float64 `json:"week" yaml:"week"`
	L2PFlag float64 `json:"l2p_flag" yaml:"l2p_flag"`

	// Accuracy is the SV accuracy (URA) in metres, SISA for Galileo.
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
	Health   float64 `json:"health" yaml:"health"`

	// TGD is the group delay (BGD E5a/E1 for Galileo, TGD1 for BeiDou).
	TGD float64 `json:"tgd" yaml:"tgd"`

	// TGD2 is the BGD E5b/E1 for Galileo and TGD2 for BeiDou.
	TGD2 float64 `json:"tgd2" yaml:"tgd2"`

	// IODC is the issue of data clock (AODC for BeiDou).
	IODC float64 `json:"iodc" yaml:"iodc"`

	TransmissionTime float64 `json:"transmission_time" yaml:"transmission_time"`

	// FitInterval is the curve fit interval in hours.
	FitInterval float64 `json:"fit_interval" yaml:"fit_interval"`
}

// Field returns a value in the 19 character scientific format.
func Field(value float64) string {
	return fmt.Sprintf("%19.12E", value)
}

// Encode returns the eight lines of the navigation record.  The values are
// not checked.
func Encode(eph *Ephemeris) (string, error) {
	switch eph.Constellation {
	case utils.ConstellationGPS, utils.ConstellationGalileo, utils.ConstellationBeidou,
		utils.ConstellationQZSS, utils.ConstellationIRNSS:
	default:
		return "", fmt.Errorf("%s %w", eph.Constellation, ErrUnsupportedConstellation)
	}

	toc := eph.TOC
	if eph.Constellation == utils.ConstellationBeidou {
		toc = toc.Add(-utils.BeidouToGPSSeconds * utils.NanosPerSecond)
	}
	cal := toc.Calendar()

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-3s %04d %02d %02d %02d %02d %02d",
		utils.SatelliteID(eph.Constellation, eph.Svid),
		cal.Year(), int(cal.Month()), cal.Day(), cal.Hour(), cal.Minute(), cal.Second()))
	writeValues(&sb, eph.ClockBias, eph.ClockDrift, eph.ClockDriftRate)

	orbit(&sb, eph.IODE, eph.Crs, eph.DeltaN, eph.M0)
	orbit(&sb, eph.Cuc, eph.Eccentricity, eph.Cus, eph.SqrtA)
	orbit(&sb, eph.Toe, eph.Cic, eph.Omega0, eph.Cis)
	orbit(&sb, eph.I0, eph.Crc, eph.Omega, eph.OmegaDot)

	l2pFlag := 0.0
	if eph.Constellation == utils.ConstellationGPS || eph.Constellation == utils.ConstellationQZSS {
		l2pFlag = eph.L2PFlag
	}
	orbit(&sb, eph.IDot, eph.Codes, eph.Week, l2pFlag)

	var lastOfSeventh float64
	switch eph.Constellation {
	case utils.ConstellationGalileo, utils.ConstellationBeidou:
		lastOfSeventh = eph.TGD2
	case utils.ConstellationGPS, utils.ConstellationQZSS:
		lastOfSeventh = eph.IODC
	}
	orbit(&sb, eph.Accuracy, eph.Health, eph.TGD, lastOfSeventh)

	var fit float64
	switch eph.Constellation {
	case utils.ConstellationGPS:
		fit = eph.FitInterval
	case utils.ConstellationQZSS:
		// QZSS gives a flag: 0 for two hours, 1 for more.
		if eph.FitInterval > 2 {
			fit = 1
		}
	case utils.ConstellationBeidou:
		fit = eph.IODC
	}
	orbit(&sb, eph.TransmissionTime, fit)

	return sb.String(), nil
}

// orbit writes one broadcast orbit line.
func orbit(sb *strings.Builder, values ...float64) {
	sb.WriteString(orbitIndent)
	writeValues(sb, values...)
}

// writeValues writes the values and ends the line.
func writeValues(sb *strings.Builder, values ...float64) {
	for _, value := range values {
		sb.WriteString(Field(value))
	}
	sb.WriteString("\n")
}
