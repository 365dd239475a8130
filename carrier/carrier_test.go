package carrier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goblimey/go-rinex/utils"
)

// TestClassify checks that Classify resolves the frequencies of each
// constellation to the right label, with and without jitter.
func TestClassify(t *testing.T) {
	var testData = []struct {
		Description   string
		Constellation utils.Constellation
		Svid          int
		FrequencyHz   float64
		Want          Label
	}{
		{"GPS L1", utils.ConstellationGPS, 5, 1575420000.0, L1},
		{"GPS L1 jitter", utils.ConstellationGPS, 5, 1575420000.0 + 900000, L1},
		{"GPS L2", utils.ConstellationGPS, 5, 1227600000.0, L2},
		{"GPS L3", utils.ConstellationGPS, 5, 1381050000.0, L3},
		{"GPS L4", utils.ConstellationGPS, 5, 1379913000.0, L4},
		{"GPS L5", utils.ConstellationGPS, 5, 1176450000.0, L5},
		{"GPS outside tolerance", utils.ConstellationGPS, 5, 1575420000.0 + 1100000, Unknown},
		{"GPS E6 is not GPS", utils.ConstellationGPS, 5, 1278750000.0, Unknown},
		{"GLONASS L1 channel 0", utils.ConstellationGlonass, 1, 1602000000.0, L1},
		{"GLONASS L1 channel -7", utils.ConstellationGlonass, 1, 1598062500.0, L1},
		{"GLONASS L1 channel 6", utils.ConstellationGlonass, 1, 1605375000.0, L1},
		{"GLONASS L2 channel 3", utils.ConstellationGlonass, 1, 1247312500.0, L2},
		{"GLONASS L3", utils.ConstellationGlonass, 1, 1202025000.0, L3},
		{"GLONASS L5", utils.ConstellationGlonass, 1, 1176450000.0, L5},
		{"GLONASS GPS L1", utils.ConstellationGlonass, 1, 1575420000.0, Unknown},
		{"Galileo E1", utils.ConstellationGalileo, 11, 1575420000.0, E1},
		{"Galileo E5a", utils.ConstellationGalileo, 11, 1176450000.0, E5a},
		{"Galileo E5b", utils.ConstellationGalileo, 11, 1207140000.0, E5b},
		{"Galileo E5", utils.ConstellationGalileo, 11, 1191795000.0, E5},
		{"Galileo E6", utils.ConstellationGalileo, 11, 1278750000.0, E6},
		{"BeiDou B1", utils.ConstellationBeidou, 19, 1561098000.0, B1},
		{"BeiDou B1-2", utils.ConstellationBeidou, 19, 1589742000.0, B1_2},
		{"BeiDou B1C", utils.ConstellationBeidou, 19, 1575420000.0, B1C},
		{"BeiDou B2", utils.ConstellationBeidou, 19, 1207140000.0, B2},
		{"BeiDou B2a", utils.ConstellationBeidou, 19, 1176450000.0, B2a},
		{"BeiDou B3", utils.ConstellationBeidou, 19, 1268520000.0, B3},
		{"QZSS L1", utils.ConstellationQZSS, 193, 1575420000.0, L1},
		{"QZSS L2", utils.ConstellationQZSS, 193, 1227600000.0, L2},
		{"QZSS L5", utils.ConstellationQZSS, 193, 1176450000.0, L5},
		{"QZSS L6", utils.ConstellationQZSS, 193, 1278750000.0, L6},
		{"IRNSS L5", utils.ConstellationIRNSS, 2, 1176450000.0, L5},
		{"IRNSS S", utils.ConstellationIRNSS, 2, 2492028000.0, S},
		{"IRNSS L1", utils.ConstellationIRNSS, 2, 1575420000.0, Unknown},
		{"WAAS L1", utils.ConstellationSBAS, 131, 1575420000.0, L1},
		{"WAAS L5", utils.ConstellationSBAS, 131, 1176450000.0, L5},
		{"EGNOS L5", utils.ConstellationSBAS, 123, 1176450000.0, L5},
		{"SDCM L1", utils.ConstellationSBAS, 125, 1575420000.0, L1},
		{"SDCM has no L5", utils.ConstellationSBAS, 125, 1176450000.0, Unknown},
		{"KASS has no L5", utils.ConstellationSBAS, 134, 1176450000.0, Unknown},
		{"unassigned SBAS L1", utils.ConstellationSBAS, 150, 1575420000.0, L1},
		{"unassigned SBAS L5", utils.ConstellationSBAS, 150, 1176450000.0, Unknown},
		{"unknown constellation", utils.ConstellationUnknown, 1, 1575420000.0, Unknown},
		{"zero frequency", utils.ConstellationGPS, 5, 0, Unknown},
		{"NaN frequency", utils.ConstellationGPS, 5, math.NaN(), Unknown},
	}

	for _, td := range testData {
		got := Classify(td.Constellation, td.Svid, td.FrequencyHz, true)
		assert.Equal(t, td.Want, got, td.Description)
	}
}

// TestClassifyUnsupported checks that a missing frequency always gives
// Unsupported, whatever the frequency value says.
func TestClassifyUnsupported(t *testing.T) {
	for _, c := range utils.Constellations {
		got := Classify(c, 1, 1575420000.0, false)
		assert.Equal(t, Unsupported, got, c.String())
	}
}

// TestClassifyIsDeterministic checks that repeated classification of the
// same input always gives the same answer.
func TestClassifyIsDeterministic(t *testing.T) {
	frequencies := []float64{1575420000.0, 1176450000.0, 1602562500.0, 1380500000.0, 1.0}
	for _, c := range utils.Constellations {
		for _, f := range frequencies {
			first := Classify(c, 131, f, true)
			for i := 0; i < 10; i++ {
				assert.Equal(t, first, Classify(c, 131, f, true))
			}
		}
	}
}

// TestOverlappingBands checks that a frequency between GPS L3 and L4,
// which are less than two tolerances apart, goes to the nearer band.
func TestOverlappingBands(t *testing.T) {
	assert.Equal(t, L4, Classify(utils.ConstellationGPS, 1, 1380200000.0, true))
	assert.Equal(t, L3, Classify(utils.ConstellationGPS, 1, 1380700000.0, true))
}

// TestIsPrimary checks IsPrimary.
func TestIsPrimary(t *testing.T) {
	var testData = []struct {
		Label         Label
		Constellation utils.Constellation
		Want          bool
	}{
		{L1, utils.ConstellationGPS, true},
		{L5, utils.ConstellationGPS, false},
		{L2, utils.ConstellationGPS, false},
		{L1, utils.ConstellationGlonass, true},
		{L2, utils.ConstellationGlonass, false},
		{E1, utils.ConstellationGalileo, true},
		{E5a, utils.ConstellationGalileo, false},
		{E5b, utils.ConstellationGalileo, false},
		{B1, utils.ConstellationBeidou, true},
		{B1C, utils.ConstellationBeidou, true},
		{B2a, utils.ConstellationBeidou, false},
		{L1, utils.ConstellationQZSS, true},
		{L5, utils.ConstellationQZSS, false},
		{L1, utils.ConstellationSBAS, true},
		{L5, utils.ConstellationSBAS, false},
		{L5, utils.ConstellationIRNSS, true},
		{S, utils.ConstellationIRNSS, false},
		{Unknown, utils.ConstellationGPS, false},
		{Unsupported, utils.ConstellationGPS, false},
	}

	for _, td := range testData {
		got := IsPrimary(td.Label, td.Constellation)
		assert.Equal(t, td.Want, got, "%s %v", td.Label, td.Constellation)
	}
}

// TestSbasTypeFromPRN checks the operator lookup.
func TestSbasTypeFromPRN(t *testing.T) {
	assert.Equal(t, SbasWAAS, SbasTypeFromPRN(131))
	assert.Equal(t, SbasEGNOS, SbasTypeFromPRN(136))
	assert.Equal(t, SbasGAGAN, SbasTypeFromPRN(127))
	assert.Equal(t, SbasMSAS, SbasTypeFromPRN(137))
	assert.Equal(t, SbasSDCM, SbasTypeFromPRN(140))
	assert.Equal(t, SbasUnknown, SbasTypeFromPRN(5))
	assert.Equal(t, "EGNOS", SbasEGNOS.String())
}

// TestWavelength checks Wavelength, including the L1 default.
func TestWavelength(t *testing.T) {
	assert.InDelta(t, 0.190293673, Wavelength(utils.FreqL1, true), 1e-9)
	assert.InDelta(t, 0.254828049, Wavelength(utils.FreqL5, true), 1e-9)
	assert.Equal(t, utils.WavelengthL1, Wavelength(0, true))
	assert.Equal(t, utils.WavelengthL1, Wavelength(utils.FreqL5, false))
}
