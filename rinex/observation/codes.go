package observation

import (
	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/utils"
)

// bandCodes gives the RINEX 3.03 band number and tracking attribute for
// each carrier band, for example "1C" for GPS L1 C/A.  The observation
// types are formed by prefixing these with C (pseudorange), L (carrier
// phase), D (Doppler) and S (signal strength).
var bandCodes = map[utils.Constellation]map[carrier.Label]string{
	utils.ConstellationGPS: {
		carrier.L1: "1C",
		carrier.L2: "2L",
		carrier.L5: "5Q",
	},
	utils.ConstellationGlonass: {
		carrier.L1: "1C",
		carrier.L2: "2C",
		carrier.L3: "3Q",
	},
	utils.ConstellationGalileo: {
		carrier.E1:  "1C",
		carrier.E5a: "5Q",
		carrier.E5b: "7Q",
		carrier.E5:  "8Q",
		carrier.E6:  "6C",
	},
	utils.ConstellationBeidou: {
		carrier.B1:  "2I",
		carrier.B1C: "1P",
		carrier.B2:  "7I",
		carrier.B2a: "5P",
		carrier.B3:  "6I",
	},
	utils.ConstellationQZSS: {
		carrier.L1: "1C",
		carrier.L2: "2L",
		carrier.L5: "5Q",
		carrier.L6: "6L",
	},
	utils.ConstellationIRNSS: {
		carrier.L5: "5A",
		carrier.S:  "9A",
	},
	utils.ConstellationSBAS: {
		carrier.L1: "1C",
		carrier.L5: "5I",
	},
}

// observablePrefixes are the observation type letters in the order that
// the observables appear for each band.
var observablePrefixes = []string{"C", "L", "D", "S"}

// DefaultBands gives the band recorded for each constellation if the
// encoder is not told otherwise - the primary band.
var DefaultBands = map[utils.Constellation][]carrier.Label{
	utils.ConstellationGPS:     {carrier.L1},
	utils.ConstellationGlonass: {carrier.L1},
	utils.ConstellationGalileo: {carrier.E1},
	utils.ConstellationBeidou:  {carrier.B1},
	utils.ConstellationQZSS:    {carrier.L1},
	utils.ConstellationIRNSS:   {carrier.L5},
	utils.ConstellationSBAS:    {carrier.L1},
}

// BandCode returns the band number and attribute for a band of a
// constellation.  The second result is false if the band has no RINEX
// code.
func BandCode(constellation utils.Constellation, label carrier.Label) (string, bool) {
	codes, ok := bandCodes[constellation]
	if !ok {
		return "", false
	}
	code, ok := codes[label]
	return code, ok
}

// ObservationCodes returns the four observation types for a band, for
// example "C1C", "L1C", "D1C", "S1C".
func ObservationCodes(constellation utils.Constellation, label carrier.Label) []string {
	code, ok := BandCode(constellation, label)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(observablePrefixes))
	for _, prefix := range observablePrefixes {
		result = append(result, prefix+code)
	}
	return result
}
