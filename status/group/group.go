// The group package aggregates a snapshot of signal status reports into a set
// of satellites, each holding its signals by carrier band, plus metadata
// summarising what the receiver can see and use: how many signals and
// satellites are in view and in use, which constellations and bands are
// present and whether any satellite is being received on more than one
// frequency.
//
// Signals that can't be placed are kept in diagnostic lists rather than
// dropped.  A signal whose carrier frequency doesn't match any known band
// goes in UnknownCarrierStatuses.  A second signal claiming the same band
// of the same satellite in one snapshot indicates a defect upstream and
// goes in DuplicateCarrierStatuses.  Every input signal ends up in exactly
// one place - a satellite or one of the two lists.
//
// Usage:
//
//	g := group.Aggregate(statuses, slog.LevelInfo)
//	if g.Metadata.IsDualFrequencyPerSatInUse {
//	    ...
//	}
//	fmt.Println(g.String())
//
// Each call builds a new Group.  Nothing is shared between calls.
package group

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/status/satellite"
	"github.com/goblimey/go-rinex/status/signal"
	"github.com/goblimey/go-rinex/utils"
)

// Metadata summarises a snapshot.
type Metadata struct {
	// NumSignalsInView is the number of signals with a valid carrier to
	// noise density (excluding those with an unknown carrier).
	NumSignalsInView int

	// NumSignalsUsed is the number of signals used in the fix (excluding
	// those with an unknown carrier).
	NumSignalsUsed int

	// NumSatsInView is the number of satellites with at least one signal in
	// view.
	NumSatsInView int

	// NumSatsUsed is the number of satellites with at least one signal used
	// in the fix.
	NumSatsUsed int

	// Sets of the constellations, SBAS operators and carrier labels seen.
	// SBAS carrier labels are kept apart from the others.
	SupportedConstellations    map[utils.Constellation]interface{}
	SupportedSbasTypes         map[carrier.SbasType]interface{}
	SupportedCarrierLabels     map[carrier.Label]interface{}
	SupportedSbasCarrierLabels map[carrier.Label]interface{}

	// UnknownCarrierStatuses holds the signals whose frequency matched no
	// band, in arrival order.
	UnknownCarrierStatuses []signal.Status

	// DuplicateCarrierStatuses holds the signals that arrived for a band
	// that the satellite already had, in arrival order.
	DuplicateCarrierStatuses []signal.Status

	// IsDualFrequencyPerSatInView is true if any satellite has signals on
	// two or more identified bands.
	IsDualFrequencyPerSatInView bool

	// IsDualFrequencyPerSatInUse is true if any satellite has signals used
	// in the fix on two or more identified bands.
	IsDualFrequencyPerSatInUse bool

	// IsNonPrimaryCarrierFreqInView is true if any signal is on a band other
	// than the primary band of its constellation (L5, E5a and so on).
	IsNonPrimaryCarrierFreqInView bool

	// IsNonPrimaryCarrierFreqInUse is true if any signal used in the fix is
	// on a non-primary band.
	IsNonPrimaryCarrierFreqInUse bool
}

// Group holds the satellites found in one snapshot and the metadata.
type Group struct {
	// Satellites in the order they were first seen.
	Satellites []*satellite.Satellite

	Metadata Metadata

	// LogLevel controls the data output by String.
	LogLevel slog.Level

	index map[satellite.Key]*satellite.Satellite
}

// newGroup creates an empty Group.
func newGroup(logLevel slog.Level) *Group {
	return &Group{
		Satellites: make([]*satellite.Satellite, 0),
		Metadata: Metadata{
			SupportedConstellations:    make(map[utils.Constellation]interface{}),
			SupportedSbasTypes:         make(map[carrier.SbasType]interface{}),
			SupportedCarrierLabels:     make(map[carrier.Label]interface{}),
			SupportedSbasCarrierLabels: make(map[carrier.Label]interface{}),
			UnknownCarrierStatuses:     make([]signal.Status, 0),
			DuplicateCarrierStatuses:   make([]signal.Status, 0),
		},
		LogLevel: logLevel,
		index:    make(map[satellite.Key]*satellite.Satellite),
	}
}

// Aggregate builds a Group from a snapshot of signal reports.  The input is
// copied, so the caller may reuse it.  An empty snapshot gives an empty
// Group with all counts zero.
func Aggregate(signals []signal.Status, logLevel slog.Level) *Group {
	g := newGroup(logLevel)
	md := &g.Metadata

	// The satellites hold pointers into this copy.
	statuses := make([]signal.Status, len(signals))
	copy(statuses, signals)

	for i := range statuses {
		status := &statuses[i]

		label := status.Label()
		if label == carrier.Unknown {
			md.UnknownCarrierStatuses = append(md.UnknownCarrierStatuses, *status)
			continue
		}

		g.recordSupport(status, label)

		if status.HasCN0() {
			md.NumSignalsInView++
		}
		if status.UsedInFix {
			md.NumSignalsUsed++
		}

		// Duplicates count here too.
		if !label.IsSentinel() && !carrier.IsPrimary(label, status.Constellation) {
			md.IsNonPrimaryCarrierFreqInView = true
			if status.UsedInFix {
				md.IsNonPrimaryCarrierFreqInUse = true
			}
		}

		sat := g.findOrCreate(status.Constellation, status.Svid)

		wasInView := sat.NumInView() > 0
		wasUsed := sat.NumUsed() > 0

		if !sat.Add(status, label) {
			md.DuplicateCarrierStatuses = append(md.DuplicateCarrierStatuses, *status)
			continue
		}

		if !wasInView && sat.NumInView() > 0 {
			md.NumSatsInView++
		}
		if !wasUsed && sat.NumUsed() > 0 {
			md.NumSatsUsed++
		}

		if sat.NumCarrierLabels(false) > 1 {
			md.IsDualFrequencyPerSatInView = true
		}
		if sat.NumCarrierLabels(true) > 1 {
			md.IsDualFrequencyPerSatInUse = true
		}

	}

	return g
}

// recordSupport adds the signal's constellation (or SBAS operator) and
// carrier label to the supported sets.
func (g *Group) recordSupport(status *signal.Status, label carrier.Label) {
	md := &g.Metadata
	md.SupportedConstellations[status.Constellation] = nil

	if status.Constellation == utils.ConstellationSBAS {
		md.SupportedSbasTypes[carrier.SbasTypeFromPRN(status.Svid)] = nil
		if !label.IsSentinel() {
			md.SupportedSbasCarrierLabels[label] = nil
		}
		return
	}

	if !label.IsSentinel() {
		md.SupportedCarrierLabels[label] = nil
	}
}

// findOrCreate returns the satellite with the given key, creating it if
// necessary.
func (g *Group) findOrCreate(constellation utils.Constellation, svid int) *satellite.Satellite {
	key := satellite.Key{Constellation: constellation, Svid: svid}
	sat, ok := g.index[key]
	if !ok {
		sat = satellite.New(constellation, svid, g.LogLevel)
		g.index[key] = sat
		g.Satellites = append(g.Satellites, sat)
	}
	return sat
}

// Satellite returns the satellite with the given constellation and ID, or
// nil if it's not in the group.
func (g *Group) Satellite(constellation utils.Constellation, svid int) *satellite.Satellite {
	return g.index[satellite.Key{Constellation: constellation, Svid: svid}]
}

// NumStoredSignals returns the number of signals held by the satellites.
func (g *Group) NumStoredSignals() int {
	n := 0
	for _, sat := range g.Satellites {
		n += len(sat.Signals)
	}
	return n
}

// String returns a readable summary of the group.  At debug level it also
// lists every satellite and signal and the diagnostic lists.
func (g *Group) String() string {
	md := &g.Metadata
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("satellites: %d in view, %d used; signals: %d in view, %d used\n",
		md.NumSatsInView, md.NumSatsUsed, md.NumSignalsInView, md.NumSignalsUsed))

	constellations := make([]string, 0, len(md.SupportedConstellations))
	for _, c := range utils.Constellations {
		if _, ok := md.SupportedConstellations[c]; ok {
			constellations = append(constellations, c.String())
		}
	}
	sb.WriteString(fmt.Sprintf("constellations: %s\n", strings.Join(constellations, " ")))

	sb.WriteString(fmt.Sprintf("carrier labels: %s\n", labelList(md.SupportedCarrierLabels)))

	if len(md.SupportedSbasTypes) > 0 {
		sbasTypes := make([]string, 0, len(md.SupportedSbasTypes))
		for sbasType := range md.SupportedSbasTypes {
			sbasTypes = append(sbasTypes, sbasType.String())
		}
		sort.Strings(sbasTypes)
		sb.WriteString(fmt.Sprintf("SBAS: %s, carrier labels: %s\n",
			strings.Join(sbasTypes, " "), labelList(md.SupportedSbasCarrierLabels)))
	}

	sb.WriteString(fmt.Sprintf("dual frequency: in view %v, in use %v\n",
		md.IsDualFrequencyPerSatInView, md.IsDualFrequencyPerSatInUse))
	sb.WriteString(fmt.Sprintf("non-primary carrier: in view %v, in use %v\n",
		md.IsNonPrimaryCarrierFreqInView, md.IsNonPrimaryCarrierFreqInUse))
	sb.WriteString(fmt.Sprintf("unknown carrier signals: %d, duplicate carrier signals: %d\n",
		len(md.UnknownCarrierStatuses), len(md.DuplicateCarrierStatuses)))

	if g.LogLevel == slog.LevelDebug {
		for _, sat := range g.Satellites {
			sb.WriteString(sat.String())
			sb.WriteString("\n")
		}
		for i := range md.UnknownCarrierStatuses {
			sb.WriteString("unknown carrier: " + md.UnknownCarrierStatuses[i].String() + "\n")
		}
		for i := range md.DuplicateCarrierStatuses {
			sb.WriteString("duplicate carrier: " + md.DuplicateCarrierStatuses[i].String() + "\n")
		}
	}

	return sb.String()
}

// labelList returns the labels in the set in alphabetical order, or "none".
func labelList(set map[carrier.Label]interface{}) string {
	if len(set) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, string(label))
	}
	sort.Strings(labels)
	return strings.Join(labels, " ")
}
