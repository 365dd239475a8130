// The satellite package holds the signals received from one satellite in one
// snapshot, one signal per carrier band.
package satellite

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/status/signal"
	"github.com/goblimey/go-rinex/utils"
)

// Key identifies a satellite.
type Key struct {
	Constellation utils.Constellation
	Svid          int
}

// Satellite holds the signals from one satellite, keyed by carrier label.
type Satellite struct {
	Constellation utils.Constellation

	// Svid is the satellite ID within the constellation.
	Svid int

	// SbasType is the operator of an SBAS satellite.  For other
	// constellations it's SbasUnknown.
	SbasType carrier.SbasType

	// Signals maps the carrier label to the signal received on that band.
	Signals map[carrier.Label]*signal.Status

	// Labels lists the keys of Signals in the order they were added.
	Labels []carrier.Label

	// LogLevel controls the data output by String.
	LogLevel slog.Level
}

// New creates a Satellite with no signals.
func New(constellation utils.Constellation, svid int, logLevel slog.Level) *Satellite {
	sat := Satellite{
		Constellation: constellation,
		Svid:          svid,
		Signals:       make(map[carrier.Label]*signal.Status),
		Labels:        make([]carrier.Label, 0, 2),
		LogLevel:      logLevel,
	}
	if constellation == utils.ConstellationSBAS {
		sat.SbasType = carrier.SbasTypeFromPRN(svid)
	}
	return &sat
}

// Key returns the key of the satellite.
func (sat *Satellite) Key() Key {
	return Key{Constellation: sat.Constellation, Svid: sat.Svid}
}

// ID returns the RINEX identifier of the satellite, for example "G05".
func (sat *Satellite) ID() string {
	return utils.SatelliteID(sat.Constellation, sat.Svid)
}

// Add stores the signal under the given label.  If the satellite already
// has a signal with that label, the new one is not stored and the result
// is false.
func (sat *Satellite) Add(status *signal.Status, label carrier.Label) bool {
	if _, exists := sat.Signals[label]; exists {
		return false
	}
	sat.Signals[label] = status
	sat.Labels = append(sat.Labels, label)
	return true
}

// NumInView returns the number of stored signals with a valid carrier to
// noise density.
func (sat *Satellite) NumInView() int {
	n := 0
	for _, status := range sat.Signals {
		if status.HasCN0() {
			n++
		}
	}
	return n
}

// NumUsed returns the number of stored signals used in the fix.
func (sat *Satellite) NumUsed() int {
	n := 0
	for _, status := range sat.Signals {
		if status.UsedInFix {
			n++
		}
	}
	return n
}

// NumCarrierLabels returns the number of stored signals whose label is a
// real band rather than Unsupported.  If usedOnly is set, only signals used
// in the fix are counted.
func (sat *Satellite) NumCarrierLabels(usedOnly bool) int {
	n := 0
	for label, status := range sat.Signals {
		if label.IsSentinel() {
			continue
		}
		if usedOnly && !status.UsedInFix {
			continue
		}
		n++
	}
	return n
}

// String returns a readable version of the satellite.  At debug level each
// signal is shown on its own line.
func (sat *Satellite) String() string {
	var sb strings.Builder

	labels := make([]string, 0, len(sat.Labels))
	for _, label := range sat.Labels {
		labels = append(labels, string(label))
	}

	sb.WriteString(fmt.Sprintf("%s %s", sat.ID(), strings.Join(labels, ",")))
	if sat.Constellation == utils.ConstellationSBAS {
		sb.WriteString(" " + sat.SbasType.String())
	}
	sb.WriteString(fmt.Sprintf(" in view %d used %d", sat.NumInView(), sat.NumUsed()))

	if sat.LogLevel == slog.LevelDebug {
		for _, label := range sat.Labels {
			sb.WriteString("\n    ")
			sb.WriteString(sat.Signals[label].String())
		}
	}

	return sb.String()
}
