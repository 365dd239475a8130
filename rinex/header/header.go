// The header package produces the header blocks of RINEX 3.03 observation and
// navigation files.
//
// Every header line has a 60 character data zone followed by a label in
// columns 61-80, for example
//
//	     3.03           OBSERVATION DATA    M: Mixed            RINEX VERSION / TYPE
//
// Some blocks (SYS / # / OBS TYPES, GLONASS SLOT / FRQ # and GLONASS
// COD/PHS/BIS) carry a list of items.  Items are added to the data zone
// until the next one would take it past 60 characters, then a continuation
// line is started.
package header

import (
	"fmt"
	"strings"

	"github.com/goblimey/go-tools/clock"

	"github.com/goblimey/go-rinex/gnsstime"
	"github.com/goblimey/go-rinex/utils"
)

// Version is the RINEX format version produced.
const Version = 3.03

// DataZoneLength is the width of the data part of a header line.
const DataZoneLength = 60

// Header labels.
const (
	LabelVersionType     = "RINEX VERSION / TYPE"
	LabelRunBy           = "PGM / RUN BY / DATE"
	LabelComment         = "COMMENT"
	LabelMarkerName      = "MARKER NAME"
	LabelMarkerNumber    = "MARKER NUMBER"
	LabelMarkerType      = "MARKER TYPE"
	LabelObserverAgency  = "OBSERVER / AGENCY"
	LabelReceiver        = "REC # / TYPE / VERS"
	LabelAntenna         = "ANT # / TYPE"
	LabelApproxPosition  = "APPROX POSITION XYZ"
	LabelAntennaDelta    = "ANTENNA: DELTA H/E/N"
	LabelObsTypes        = "SYS / # / OBS TYPES"
	LabelSignalStrength  = "SIGNAL STRENGTH UNIT"
	LabelInterval        = "INTERVAL"
	LabelTimeOfFirstObs  = "TIME OF FIRST OBS"
	LabelGlonassSlots    = "GLONASS SLOT / FRQ #"
	LabelGlonassBiases   = "GLONASS COD/PHS/BIS"
	LabelLeapSeconds     = "LEAP SECONDS"
	LabelEndOfHeader     = "END OF HEADER"
	runDateLayout        = "20060102 150405 UTC"
	defaultProgramName   = "go-rinex"
	defaultSignalUnit    = "DBHZ"
	observationFileType  = "OBSERVATION DATA"
	navigationFileType   = "N: GNSS NAV DATA"
	mixedSatelliteSystem = "M: Mixed"
)

// GlonassSlot gives the frequency channel number of a GLONASS satellite.
type GlonassSlot struct {
	Slot    int `json:"slot" yaml:"slot"`
	Channel int `json:"channel" yaml:"channel"`
}

// GlonassBias is the code-phase bias correction of one GLONASS
// observation type, for example C1C.
type GlonassBias struct {
	Code string  `json:"code" yaml:"code"`
	Bias float64 `json:"bias" yaml:"bias"`
}

// ObsHeader holds the contents of an observation file header.
type ObsHeader struct {
	Program  string
	RunBy    string
	Comments []string

	MarkerName   string
	MarkerNumber string
	MarkerType   string

	Observer string
	Agency   string

	ReceiverNumber  string
	ReceiverType    string
	ReceiverVersion string

	AntennaNumber string
	AntennaType   string

	// ApproxPosition is the approximate marker position (ECEF X, Y, Z in
	// metres).
	ApproxPosition [3]float64

	// AntennaDelta is the antenna height and its east and north eccentricity
	// in metres.
	AntennaDelta [3]float64

	// ObservationTypes gives the observation codes for each constellation
	// in the order that they appear in the data lines.
	ObservationTypes map[utils.Constellation][]string

	// SignalStrengthUnit defaults to DBHZ.
	SignalStrengthUnit string

	// Interval is the observation interval in seconds.  Zero means no
	// INTERVAL line.
	Interval float64

	FirstObservation gnsstime.Time

	GlonassSlots  []GlonassSlot
	GlonassBiases []GlonassBias
}

// NavHeader holds the contents of a navigation file header.
type NavHeader struct {
	Program  string
	RunBy    string
	Comments []string

	// LeapSeconds is the current difference between GPS time and UTC.
	// Zero means no LEAP SECONDS line.
	LeapSeconds int
}

// Builder creates header blocks.  The PGM / RUN BY / DATE line carries the
// time given by the clock.
type Builder struct {
	Clock clock.Clock
}

// New creates a Builder.
func New(c clock.Clock) *Builder {
	return &Builder{Clock: c}
}

// Line returns one header line with the body in the data zone and the
// label in columns 61-80.  A body longer than 60 characters is truncated.
func Line(body, label string) string {
	if len(body) > DataZoneLength {
		body = body[:DataZoneLength]
	}
	return fmt.Sprintf("%-60s%-20s\n", body, label)
}

// wrap produces a block of lines carrying a list of items.  The first line
// starts with first, the continuation lines with continuation.  A new line
// is started whenever the next item would take the data zone past 60
// characters.
func wrap(first, continuation string, items []string, label string) string {
	var sb strings.Builder
	line := first
	for _, item := range items {
		if len(line)+len(item) > DataZoneLength {
			sb.WriteString(Line(line, label))
			line = continuation
		}
		line += item
	}
	sb.WriteString(Line(line, label))
	return sb.String()
}

// Observation returns the header of an observation file.
func (b *Builder) Observation(h *ObsHeader) string {
	var sb strings.Builder

	sb.WriteString(versionLine(observationFileType, mixedSatelliteSystem))
	sb.WriteString(b.runByLine(h.Program, h.RunBy))
	sb.WriteString(comments(h.Comments))

	sb.WriteString(Line(h.MarkerName, LabelMarkerName))
	if len(h.MarkerNumber) > 0 {
		sb.WriteString(Line(fmt.Sprintf("%-20.20s", h.MarkerNumber), LabelMarkerNumber))
	}
	if len(h.MarkerType) > 0 {
		sb.WriteString(Line(fmt.Sprintf("%-20.20s", h.MarkerType), LabelMarkerType))
	}
	sb.WriteString(Line(fmt.Sprintf("%-20.20s%-40.40s", h.Observer, h.Agency), LabelObserverAgency))
	sb.WriteString(Line(fmt.Sprintf("%-20.20s%-20.20s%-20.20s",
		h.ReceiverNumber, h.ReceiverType, h.ReceiverVersion), LabelReceiver))
	sb.WriteString(Line(fmt.Sprintf("%-20.20s%-20.20s", h.AntennaNumber, h.AntennaType), LabelAntenna))
	sb.WriteString(Line(fmt.Sprintf("%14.4f%14.4f%14.4f",
		h.ApproxPosition[0], h.ApproxPosition[1], h.ApproxPosition[2]), LabelApproxPosition))
	sb.WriteString(Line(fmt.Sprintf("%14.4f%14.4f%14.4f",
		h.AntennaDelta[0], h.AntennaDelta[1], h.AntennaDelta[2]), LabelAntennaDelta))

	sb.WriteString(ObservationTypes(h.ObservationTypes))

	unit := h.SignalStrengthUnit
	if len(unit) == 0 {
		unit = defaultSignalUnit
	}
	sb.WriteString(Line(fmt.Sprintf("%-20.20s", unit), LabelSignalStrength))

	if h.Interval > 0 {
		sb.WriteString(Line(fmt.Sprintf("%10.3f", h.Interval), LabelInterval))
	}

	sb.WriteString(TimeOfFirstObservation(h.FirstObservation))

	if len(h.GlonassSlots) > 0 {
		sb.WriteString(GlonassSlots(h.GlonassSlots))
	}
	if len(h.GlonassBiases) > 0 {
		sb.WriteString(GlonassBiases(h.GlonassBiases))
	}

	sb.WriteString(Line("", LabelEndOfHeader))

	return sb.String()
}

// Navigation returns the header of a navigation file.
func (b *Builder) Navigation(h *NavHeader) string {
	var sb strings.Builder

	sb.WriteString(versionLine(navigationFileType, mixedSatelliteSystem))
	sb.WriteString(b.runByLine(h.Program, h.RunBy))
	sb.WriteString(comments(h.Comments))
	if h.LeapSeconds != 0 {
		sb.WriteString(Line(fmt.Sprintf("%6d", h.LeapSeconds), LabelLeapSeconds))
	}
	sb.WriteString(Line("", LabelEndOfHeader))

	return sb.String()
}

// versionLine returns the RINEX VERSION / TYPE line.  The file type starts
// in column 21 and the satellite system in column 41.
func versionLine(fileType, system string) string {
	return Line(fmt.Sprintf("%9.2f%-11s%-20s%-20s", Version, "", fileType, system), LabelVersionType)
}

// runByLine returns the PGM / RUN BY / DATE line, stamped with the current
// time in UTC.
func (b *Builder) runByLine(program, runBy string) string {
	if len(program) == 0 {
		program = defaultProgramName
	}
	date := b.Clock.Now().UTC().Format(runDateLayout)
	return Line(fmt.Sprintf("%-20.20s%-20.20s%-20.20s", program, runBy, date), LabelRunBy)
}

// comments returns a COMMENT line for each comment.  Long comments are
// truncated.
func comments(list []string) string {
	var sb strings.Builder
	for _, comment := range list {
		sb.WriteString(Line(comment, LabelComment))
	}
	return sb.String()
}

// ObservationTypes returns the SYS / # / OBS TYPES block: for each
// constellation that has observation types, the system letter, the number
// of types and the types, thirteen to a line.
func ObservationTypes(types map[utils.Constellation][]string) string {
	var sb strings.Builder
	for _, c := range utils.Constellations {
		list, ok := types[c]
		if !ok || len(list) == 0 {
			continue
		}
		items := make([]string, 0, len(list))
		for _, code := range list {
			items = append(items, fmt.Sprintf(" %3s", code))
		}
		sb.WriteString(wrap(fmt.Sprintf("%c  %3d", c.Letter(), len(list)), "      ", items, LabelObsTypes))
	}
	return sb.String()
}

// TimeOfFirstObservation returns the TIME OF FIRST OBS line.  The seconds
// have seven decimal places, truncated.
func TimeOfFirstObservation(t gnsstime.Time) string {
	cal := t.Calendar()
	body := fmt.Sprintf("  %04d    %02d    %02d    %02d    %02d   %02d.%07d     GPS",
		cal.Year(), int(cal.Month()), cal.Day(), cal.Hour(), cal.Minute(), cal.Second(), t.Fraction(7))
	return Line(body, LabelTimeOfFirstObs)
}

// GlonassSlots returns the GLONASS SLOT / FRQ # block, the number of
// satellites followed by the slot and frequency channel of each, eight to a
// line.
func GlonassSlots(slots []GlonassSlot) string {
	items := make([]string, 0, len(slots))
	for _, slot := range slots {
		items = append(items, fmt.Sprintf("R%02d %2d ", slot.Slot, slot.Channel))
	}
	return wrap(fmt.Sprintf("%3d ", len(slots)), "    ", items, LabelGlonassSlots)
}

// GlonassBiases returns the GLONASS COD/PHS/BIS block.
func GlonassBiases(biases []GlonassBias) string {
	items := make([]string, 0, len(biases))
	for _, bias := range biases {
		items = append(items, fmt.Sprintf(" %3s %8.3f", bias.Code, bias.Bias))
	}
	return wrap("", "", items, LabelGlonassBiases)
}
