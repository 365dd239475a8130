// The carrier package resolves a signal's carrier frequency to the short name of
// the band it belongs to, for example 1575.42 MHz from a GPS satellite is
// "L1" and the same frequency from a Galileo satellite is "E1".
//
// Receivers report frequencies as floating point values with some jitter,
// so the frequencies are matched within a tolerance rather than exactly.
// Each constellation has a small table of bands sorted by frequency.  A
// lookup is a binary search for the first band whose upper bound is at or
// above the frequency, followed by a scan of the (at most two) overlapping
// candidates, choosing the one whose centre is closest.
package carrier

import (
	"math"
	"sort"

	"github.com/goblimey/go-rinex/utils"
)

// Label is the canonical short name of a carrier band.
type Label string

// Unknown means that the signal has a carrier frequency but it doesn't
// match any band used by its constellation.
const Unknown Label = "UNKNOWN"

// Unsupported means that the source didn't supply a carrier frequency.
const Unsupported Label = "UNSUPPORTED"

// The band names.  Some names are shared between constellations, for
// example QZSS and GPS both use L1, L2 and L5.
const (
	L1   Label = "L1"
	L2   Label = "L2"
	L3   Label = "L3"
	L4   Label = "L4"
	L5   Label = "L5"
	L6   Label = "L6"
	E1   Label = "E1"
	E5   Label = "E5"
	E5a  Label = "E5a"
	E5b  Label = "E5b"
	E6   Label = "E6"
	B1   Label = "B1"
	B1_2 Label = "B1-2"
	B1C  Label = "B1C"
	B2   Label = "B2"
	B2a  Label = "B2a"
	B3   Label = "B3"
	S    Label = "S"
)

// ToleranceMHz is the maximum distance between a reported frequency and
// the centre frequency of a band.
const ToleranceMHz = 1.0

// IsSentinel returns true if the label is Unknown or Unsupported rather
// than the name of a band.
func (label Label) IsSentinel() bool {
	return label == Unknown || label == Unsupported
}

// band is one entry in a frequency table.  Frequencies are in MHz.
type band struct {
	label  Label
	centre float64
	low    float64
	high   float64
}

// point creates a band centred on one frequency.
func point(label Label, frequencyHz float64) band {
	centre := frequencyHz / 1e6
	return band{label: label, centre: centre, low: centre - ToleranceMHz, high: centre + ToleranceMHz}
}

// channels creates a band covering the FDMA channels of a GLONASS signal.
func channels(label Label, baseHz, spacingHz float64, lowChannel, highChannel int) band {
	low := (baseHz + float64(lowChannel)*spacingHz) / 1e6
	high := (baseHz + float64(highChannel)*spacingHz) / 1e6
	return band{label: label, centre: baseHz / 1e6, low: low - ToleranceMHz, high: high + ToleranceMHz}
}

// GLONASS FDMA channel numbers run from -7 to +6 in the current plan.  Older
// satellites used up to +13, so the tables accept the wider range.
const glonassLowestChannel = -7
const glonassHighestChannel = 13

// bandTables maps each constellation to its bands, sorted by lower bound
// (done by init).
var bandTables = map[utils.Constellation][]band{
	utils.ConstellationGPS: {
		point(L1, utils.FreqL1),
		point(L2, utils.FreqL2),
		point(L3, utils.FreqL3),
		point(L4, utils.FreqL4),
		point(L5, utils.FreqL5),
	},
	utils.ConstellationGlonass: {
		channels(L1, utils.FreqL1Glonass, utils.BiasFreq1Glonass, glonassLowestChannel, glonassHighestChannel),
		channels(L2, utils.FreqL2Glonass, utils.BiasFreq2Glonass, glonassLowestChannel, glonassHighestChannel),
		point(L3, utils.FreqL3Glonass),
		point(L5, utils.FreqL5),
	},
	utils.ConstellationGalileo: {
		point(E1, utils.FreqL1),
		point(E5a, utils.FreqL5),
		point(E5b, utils.FreqE5b),
		point(E5, utils.FreqE5),
		point(E6, utils.FreqE6),
	},
	utils.ConstellationBeidou: {
		point(B1, utils.FreqB1Beidou),
		point(B1_2, utils.FreqB1_2Beidou),
		point(B1C, utils.FreqL1),
		point(B2, utils.FreqE5b),
		point(B2a, utils.FreqL5),
		point(B3, utils.FreqB3Beidou),
	},
	utils.ConstellationQZSS: {
		point(L1, utils.FreqL1),
		point(L2, utils.FreqL2),
		point(L5, utils.FreqL5),
		point(L6, utils.FreqE6),
	},
	utils.ConstellationIRNSS: {
		point(L5, utils.FreqL5),
		point(S, utils.FreqSIRNSS),
	},
	utils.ConstellationSBAS: {
		point(L1, utils.FreqL1),
		point(L5, utils.FreqL5),
	},
}

// primaryBands gives the band(s) that every receiver tracks for each
// constellation.
var primaryBands = map[utils.Constellation][]Label{
	utils.ConstellationGPS:     {L1},
	utils.ConstellationGlonass: {L1},
	utils.ConstellationGalileo: {E1},
	utils.ConstellationBeidou:  {B1, B1C},
	utils.ConstellationQZSS:    {L1},
	utils.ConstellationIRNSS:   {L5},
	utils.ConstellationSBAS:    {L1},
}

func init() {
	for _, table := range bandTables {
		sort.Slice(table, func(i, j int) bool { return table[i].low < table[j].low })
	}
}

// Classify returns the label of the band that carries a signal.  If the
// source didn't supply a frequency the result is Unsupported.  If the
// frequency doesn't match any band used by the constellation, the result
// is Unknown.  For SBAS satellites the PRN (svid) identifies the operator
// and the frequency must be one of the bands that operator broadcasts.
func Classify(constellation utils.Constellation, svid int, frequencyHz float64, hasFrequency bool) Label {
	if !hasFrequency {
		return Unsupported
	}

	table, ok := bandTables[constellation]
	if !ok {
		return Unknown
	}

	label := lookup(table, frequencyHz/1e6)
	if label == Unknown {
		return Unknown
	}

	if constellation == utils.ConstellationSBAS {
		if !SbasTypeFromPRN(svid).Broadcasts(label) {
			return Unknown
		}
	}

	return label
}

// lookup finds the band containing the frequency (MHz) in a sorted table.
func lookup(table []band, mhz float64) Label {
	if math.IsNaN(mhz) || math.IsInf(mhz, 0) {
		return Unknown
	}

	// The tables are sorted by lower bound and the bands are narrow, so the
	// upper bounds are sorted too.
	first := sort.Search(len(table), func(i int) bool { return table[i].high >= mhz })

	result := Unknown
	bestDistance := math.MaxFloat64
	for i := first; i < len(table) && table[i].low <= mhz; i++ {
		distance := math.Abs(mhz - table[i].centre)
		if distance < bestDistance {
			bestDistance = distance
			result = table[i].label
		}
	}

	return result
}

// IsPrimary returns true if the label is the primary band of the given
// constellation - L1 for GPS, E1 for Galileo and so on.  Other bands (L5,
// E5a, B2a ...) are secondary.  The sentinel labels are never primary.
func IsPrimary(label Label, constellation utils.Constellation) bool {
	for _, primary := range primaryBands[constellation] {
		if label == primary {
			return true
		}
	}
	return false
}

// Wavelength returns the carrier wavelength in metres.  If the frequency is
// not known, it returns the GPS L1 wavelength.
func Wavelength(frequencyHz float64, hasFrequency bool) float64 {
	if !hasFrequency || frequencyHz <= 0 {
		return utils.WavelengthL1
	}
	return utils.SpeedOfLightMS / frequencyHz
}
