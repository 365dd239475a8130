package observation

import (
	"math"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/gnsstime"
	"github.com/goblimey/go-rinex/utils"
)

// MaxPseudorangeMetres is the largest plausible pseudorange.  GNSS orbits
// are all well within 40,000 km of the Earth's surface.
const MaxPseudorangeMetres = 40000000.0

// Ambiguity periods of the received satellite time.
const (
	periodWeek             = float64(utils.NanosPerWeek)
	periodDay              = float64(utils.NanosPerDay)
	periodGalileoSecondary = 100 * 1e6
)

// ruleKey selects a sync rule.  The band is empty except for Galileo, where
// the E1 and E5 signals have different rules.
type ruleKey struct {
	constellation utils.Constellation
	band          carrier.Label
}

// syncRule gives the tracking state bits that must all be set for the
// received satellite time to be unambiguous and the period over which it
// is then unambiguous.  If override is not nil, it's consulted first and
// may supply a different rule for the measurement.
type syncRule struct {
	required    uint32
	periodNanos float64
	override    func(m *Measurement) (syncRule, bool)
}

var weekRule = syncRule{
	required:    utils.StateCodeLock | utils.StateTOWDecoded,
	periodNanos: periodWeek,
}

var syncRules = map[ruleKey]syncRule{
	{utils.ConstellationGPS, ""}:   weekRule,
	{utils.ConstellationQZSS, ""}:  weekRule,
	{utils.ConstellationIRNSS, ""}: weekRule,
	{utils.ConstellationSBAS, ""}:  weekRule,
	{utils.ConstellationGlonass, ""}: {
		required:    utils.StateCodeLock | utils.StateGlonassTODDecoded,
		periodNanos: periodDay,
	},
	{utils.ConstellationBeidou, ""}: {
		required:    utils.StateCodeLock | utils.StateTOWDecoded,
		periodNanos: periodWeek,
		override:    beidouGeoRule,
	},
	{utils.ConstellationGalileo, carrier.E1}: {
		required:    utils.StateGalileoE1BCCodeLock | utils.StateTOWDecoded,
		periodNanos: periodWeek,
		override:    galileoSecondaryCodeRule,
	},
	{utils.ConstellationGalileo, carrier.E5}: weekRule,
}

// galileoSecondaryCodeRule applies to Galileo E1 signals with the E1C
// secondary code lock bit set.  The received time is then only known to
// within 100 milliseconds, which is enough to give the transit time.
func galileoSecondaryCodeRule(m *Measurement) (syncRule, bool) {
	if m.State&utils.StateGalileoE1C2ndCode == 0 {
		return syncRule{}, false
	}
	return syncRule{
		required:    utils.StateGalileoE1BCCodeLock | utils.StateGalileoE1C2ndCode,
		periodNanos: periodGalileoSecondary,
	}, true
}

// beidouGeoRule applies to the BeiDou geostationary satellites, which
// broadcast the D2 navigation message and report D2 bit sync.
func beidouGeoRule(m *Measurement) (syncRule, bool) {
	if !isBeidouGeo(m.Svid) {
		return syncRule{}, false
	}
	return syncRule{
		required:    utils.StateCodeLock | utils.StateBeidouD2BitSync | utils.StateTOWDecoded,
		periodNanos: periodWeek,
	}, true
}

// isBeidouGeo returns true for the PRNs reserved for BeiDou geostationary
// satellites.
func isBeidouGeo(svid int) bool {
	return (svid >= 1 && svid <= 5) || (svid >= 59 && svid <= 63)
}

// keyFor returns the rule key for a measurement.
func keyFor(m *Measurement) ruleKey {
	if m.Constellation != utils.ConstellationGalileo {
		return ruleKey{constellation: m.Constellation}
	}
	if m.Label() == carrier.E1 {
		return ruleKey{constellation: m.Constellation, band: carrier.E1}
	}
	return ruleKey{constellation: m.Constellation, band: carrier.E5}
}

// ruleFor returns the sync rule that applies to the measurement.  The
// second result is false if there is none, for example for an unknown
// constellation.
func ruleFor(m *Measurement) (syncRule, bool) {
	rule, ok := syncRules[keyFor(m)]
	if !ok {
		return syncRule{}, false
	}
	if rule.override != nil {
		if alternative, ok := rule.override(m); ok {
			return alternative, true
		}
	}
	return rule, true
}

// SyncValid returns true if the tracking state shows that the received
// satellite time of the measurement can be used to compute a pseudorange.
// The millisecond ambiguity bit makes any measurement invalid.
func SyncValid(m *Measurement) bool {
	if m.State&utils.StateMsecAmbiguous != 0 {
		return false
	}
	rule, ok := ruleFor(m)
	if !ok {
		return false
	}
	return m.State&rule.required == rule.required
}

// CarrierPhaseValid returns true if the accumulated delta range is valid.
func CarrierPhaseValid(m *Measurement) bool {
	return m.AccumulatedDeltaRangeState&utils.ADRStateValid != 0
}

// LossOfLockIndicator returns the RINEX LLI character for the carrier
// phase: bit 0 is set if the phase was reset or a cycle slip was detected,
// bit 1 if there is an unresolved half cycle ambiguity.  If neither
// applies the result is a space.
func LossOfLockIndicator(m *Measurement) byte {
	state := m.AccumulatedDeltaRangeState
	lli := 0
	if state&(utils.ADRStateReset|utils.ADRStateCycleSlip) != 0 {
		lli |= 1
	}
	if state&utils.ADRStateHalfCycleReported != 0 && state&utils.ADRStateHalfCycleResolved == 0 {
		lli |= 2
	}
	if lli == 0 {
		return ' '
	}
	return byte('0' + lli)
}

// Pseudorange returns the pseudorange in metres given the GPS time of the
// epoch.  The second result is false if the pseudorange is not available:
// the measurement is not in sync, the constellation is GLONASS (whose time
// of day can't be converted), the transmit time is too far from the
// receive time even after allowing for rollover, or the result is negative
// or implausibly large.
func Pseudorange(epochTime gnsstime.Time, m *Measurement) (float64, bool) {
	if m.Constellation == utils.ConstellationGlonass {
		return 0, false
	}
	if !SyncValid(m) {
		return 0, false
	}
	rule, _ := ruleFor(m)

	receive := epochTime.Add(m.TimeOffsetNanos).NanosOfWeek()

	transmit := float64(m.ReceivedSvTimeNanos)
	if m.Constellation == utils.ConstellationBeidou {
		transmit += utils.BeidouToGPSSeconds * utils.NanosPerSecond
	}

	transit, ok := transitTime(receive, transmit, rule.periodNanos)
	if !ok {
		return 0, false
	}

	pseudorange := transit / utils.NanosPerSecond * utils.SpeedOfLightMS
	if pseudorange < 0 || pseudorange > MaxPseudorangeMetres {
		return 0, false
	}
	return pseudorange, true
}

// transitTime returns the receive time minus the transmit time, allowing
// for the rollover of a periodic transmit time.  Periods shorter than the
// plausible residual (such as the Galileo 100 millisecond secondary code)
// are reduced into the range [0, period).
func transitTime(receive, transmit, periodNanos float64) (float64, bool) {
	delta := receive - transmit
	if periodNanos < gnsstime.MaxResidualNanos {
		delta = math.Mod(delta, periodNanos)
		if delta < 0 {
			delta += periodNanos
		}
		return delta, true
	}
	return gnsstime.CorrectCrossover(delta, periodNanos)
}
