package observation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/gnsstime"
	"github.com/goblimey/go-rinex/rinex/header"
	"github.com/goblimey/go-rinex/utils"
)

// FieldLength is the width of one observable: a 14.3 number, the loss of
// lock indicator and the signal strength indicator.
const FieldLength = 16

// blankField is written for an observable that's not available.
var blankField = strings.Repeat(" ", FieldLength)

// largestField is the magnitude limit of a value that fits in 14.3 format.
const largestField = 1e9

// EpochReport describes what happened to the measurements of an epoch.
type EpochReport struct {
	// Satellites is the number of satellite lines written.
	Satellites int

	// Skipped holds measurements on a band that's not recorded for the
	// constellation, including those with an unknown carrier frequency.
	Skipped []Measurement

	// Duplicates holds measurements for a band of a satellite that
	// already had one in the same epoch.  The first is used.
	Duplicates []Measurement

	// BlankPseudoranges counts the pseudoranges not written.
	BlankPseudoranges int

	// BlankCarrierPhases counts the carrier phases not written.
	BlankCarrierPhases int
}

// Encoder writes epochs.  Each constellation has a list of bands and each
// band produces four observables (pseudorange, carrier phase, Doppler,
// signal strength) in the satellite's line, in the order given by
// ObservationTypes.
type Encoder struct {
	bands map[utils.Constellation][]carrier.Label
}

// New creates an Encoder recording the given bands.  Bands that have no
// RINEX code for the constellation are ignored.  If bands is empty the
// primary band of each constellation is recorded.
func New(bands map[utils.Constellation][]carrier.Label) *Encoder {
	if len(bands) == 0 {
		bands = DefaultBands
	}

	encoder := Encoder{bands: make(map[utils.Constellation][]carrier.Label)}
	for constellation, labels := range bands {
		list := make([]carrier.Label, 0, len(labels))
		seen := make(map[carrier.Label]interface{})
		for _, label := range labels {
			if _, ok := BandCode(constellation, label); !ok {
				continue
			}
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = nil
			list = append(list, label)
		}
		if len(list) > 0 {
			encoder.bands[constellation] = list
		}
	}
	return &encoder
}

// Bands returns the bands recorded for the constellation.
func (e *Encoder) Bands(constellation utils.Constellation) []carrier.Label {
	return e.bands[constellation]
}

// ObservationTypes returns the observation types of each constellation,
// for the SYS / # / OBS TYPES header block.
func (e *Encoder) ObservationTypes() map[utils.Constellation][]string {
	result := make(map[utils.Constellation][]string)
	for constellation, labels := range e.bands {
		types := make([]string, 0, len(labels)*len(observablePrefixes))
		for _, label := range labels {
			types = append(types, ObservationCodes(constellation, label)...)
		}
		result[constellation] = types
	}
	return result
}

// Encode returns the RINEX text of an epoch: the epoch line followed by
// one line per satellite.
func (e *Encoder) Encode(epoch *Epoch) (string, error) {
	text, _, err := e.EncodeWithReport(epoch)
	return text, err
}

// satelliteLine collects the measurements of one satellite, one per
// recorded band.
type satelliteLine struct {
	id           string
	measurements []*Measurement
}

// EncodeWithReport is Encode, also returning a report of measurements
// that were skipped and observables that were left blank.  An epoch flag
// other than FlagOK or FlagPowerFailure gives ErrEventRecordNotImplemented
// and no text.
func (e *Encoder) EncodeWithReport(epoch *Epoch) (string, *EpochReport, error) {
	if epoch.Flag != FlagOK && epoch.Flag != FlagPowerFailure {
		return "", nil, ErrEventRecordNotImplemented
	}

	epochTime, err := epoch.Clock.GPSTime()
	if err != nil {
		return "", nil, err
	}

	report := EpochReport{
		Skipped:    make([]Measurement, 0),
		Duplicates: make([]Measurement, 0),
	}

	lines := make([]*satelliteLine, 0)
	index := make(map[string]*satelliteLine)

	for i := range epoch.Measurements {
		m := &epoch.Measurements[i]

		slot, ok := e.slotFor(m)
		if !ok {
			report.Skipped = append(report.Skipped, *m)
			continue
		}

		id := m.SatelliteID()
		line, ok := index[id]
		if !ok {
			line = &satelliteLine{
				id:           id,
				measurements: make([]*Measurement, len(e.bands[m.Constellation])),
			}
			index[id] = line
			lines = append(lines, line)
		}

		if line.measurements[slot] != nil {
			report.Duplicates = append(report.Duplicates, *m)
			continue
		}
		line.measurements[slot] = m
	}

	var sb strings.Builder
	sb.WriteString(EpochLine(epochTime, epoch.Flag, len(lines)))
	for _, line := range lines {
		sb.WriteString(line.id)
		for _, m := range line.measurements {
			if m == nil {
				sb.WriteString(strings.Repeat(blankField, len(observablePrefixes)))
				continue
			}
			sb.WriteString(observables(epochTime, m, &report))
		}
		sb.WriteString("\n")
	}
	report.Satellites = len(lines)

	return sb.String(), &report, nil
}

// slotFor returns the position of the measurement's band in the list of
// bands recorded for its constellation.  A measurement with no carrier
// frequency is taken to be on the first band.
func (e *Encoder) slotFor(m *Measurement) (int, bool) {
	bands, ok := e.bands[m.Constellation]
	if !ok {
		return 0, false
	}
	label := m.Label()
	if label == carrier.Unsupported {
		return 0, true
	}
	for i, band := range bands {
		if band == label {
			return i, true
		}
	}
	return 0, false
}

// observables returns the four fields of a measurement.
func observables(epochTime gnsstime.Time, m *Measurement, report *EpochReport) string {
	wavelength := m.Wavelength()

	pseudorange, pseudorangeOK := Pseudorange(epochTime, m)
	if !pseudorangeOK {
		report.BlankPseudoranges++
	}

	phaseOK := CarrierPhaseValid(m)
	if !phaseOK {
		report.BlankCarrierPhases++
	}
	phase := m.AccumulatedDeltaRangeMeters / wavelength

	doppler := -m.PseudorangeRateMetersPerSecond / wavelength

	return Field(pseudorange, pseudorangeOK, ' ') +
		Field(phase, phaseOK, LossOfLockIndicator(m)) +
		Field(doppler, true, ' ') +
		Field(m.Cn0DbHz, true, ' ')
}

// Field returns one observable, right justified in 14 characters with 3
// decimal places, followed by the loss of lock indicator and a blank
// signal strength indicator.  If the value is not available or too big for
// the field, the result is sixteen spaces.
func Field(value float64, available bool, lli byte) string {
	if !available || math.IsNaN(value) || math.Abs(value) >= largestField {
		return blankField
	}
	return fmt.Sprintf("%14.3f%c ", value, lli)
}

// EpochLine returns the line that starts an epoch:
//
//	> 2023 05 14 12 30 45.1234567  0 12
//
// The seconds have seven decimal places, truncated.  RINEX 3.03 defines
// the epoch seconds as F11.7, one digit more than Time.String gives.
func EpochLine(t gnsstime.Time, flag, satellites int) string {
	cal := t.Calendar()
	return fmt.Sprintf("> %04d %02d %02d %02d %02d %2d.%07d  %d%3d\n",
		cal.Year(), int(cal.Month()), cal.Day(), cal.Hour(), cal.Minute(), cal.Second(),
		t.Fraction(7), flag, satellites)
}

// GlonassSlots returns the frequency channel of each GLONASS satellite
// that has an L1 or L2 measurement with a carrier frequency, for the
// GLONASS SLOT / FRQ # header block.  The result is in slot order.
// Satellites whose slot is not known are ignored.
func GlonassSlots(measurements []Measurement) []header.GlonassSlot {
	channels := make(map[int]int)
	for i := range measurements {
		m := &measurements[i]
		if m.Constellation != utils.ConstellationGlonass || !m.HasCarrierFrequency {
			continue
		}
		if m.Svid < 1 || m.Svid > 24 {
			continue
		}
		var channel float64
		switch m.Label() {
		case carrier.L1:
			channel = (m.CarrierFrequencyHz - utils.FreqL1Glonass) / utils.BiasFreq1Glonass
		case carrier.L2:
			channel = (m.CarrierFrequencyHz - utils.FreqL2Glonass) / utils.BiasFreq2Glonass
		default:
			continue
		}
		channels[m.Svid] = int(math.Round(channel))
	}

	result := make([]header.GlonassSlot, 0, len(channels))
	for slot, channel := range channels {
		result = append(result, header.GlonassSlot{Slot: slot, Channel: channel})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slot < result[j].Slot })
	return result
}
