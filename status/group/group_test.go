package group

import (
	"log/slog"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/kylelemons/godebug/diff"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/status/signal"
	"github.com/goblimey/go-rinex/utils"
)

const freqL1 = 1575420000.0
const freqL5 = 1176450000.0

func gps(svid int, frequency float64, cn0 float64, used bool) signal.Status {
	return signal.Status{
		Constellation:       utils.ConstellationGPS,
		Svid:                svid,
		CarrierFrequencyHz:  frequency,
		HasCarrierFrequency: true,
		CN0DbHz:             cn0,
		UsedInFix:           used,
	}
}

// TestEmpty checks that an empty snapshot gives an empty group.
func TestEmpty(t *testing.T) {
	for _, input := range [][]signal.Status{nil, {}} {
		g := Aggregate(input, slog.LevelInfo)

		if g == nil {
			t.Fatal("nil group")
		}

		want := newGroup(slog.LevelInfo).Metadata
		if d := cmp.Diff(want, g.Metadata); d != "" {
			t.Errorf("metadata differs (-want +got):\n%s", d)
		}
		if len(g.Satellites) != 0 {
			t.Errorf("want no satellites, got %d", len(g.Satellites))
		}
	}
}

// TestDuplicateCarrier checks that a second signal on the same band of the
// same satellite goes to the duplicate list and the satellite is only
// counted once.
func TestDuplicateCarrier(t *testing.T) {
	first := gps(5, freqL1, 40, true)
	second := gps(5, freqL1, 38, true)

	g := Aggregate([]signal.Status{first, second}, slog.LevelInfo)

	sat := g.Satellite(utils.ConstellationGPS, 5)
	if sat == nil {
		t.Fatal("satellite G05 missing")
	}
	stored, ok := sat.Signals[carrier.L1]
	if !ok {
		t.Fatal("no L1 signal")
	}
	if stored.CN0DbHz != 40 {
		t.Errorf("the first signal should be kept, got cn0 %f", stored.CN0DbHz)
	}

	md := g.Metadata
	if len(md.DuplicateCarrierStatuses) != 1 {
		t.Fatalf("want 1 duplicate, got %d", len(md.DuplicateCarrierStatuses))
	}
	if md.DuplicateCarrierStatuses[0] != second {
		t.Errorf("want the second signal in the duplicate list, got %v",
			md.DuplicateCarrierStatuses[0])
	}
	if md.NumSatsUsed != 1 {
		t.Errorf("want 1 satellite used, got %d", md.NumSatsUsed)
	}
	if md.NumSatsInView != 1 {
		t.Errorf("want 1 satellite in view, got %d", md.NumSatsInView)
	}
	if md.NumSignalsUsed != 2 {
		t.Errorf("want 2 signals used, got %d", md.NumSignalsUsed)
	}
	if md.IsDualFrequencyPerSatInView {
		t.Error("a duplicate is not a second frequency")
	}
}

// TestUnknownCarrier checks that a signal with an unrecognised frequency
// goes to the unknown list and is not counted.
func TestUnknownCarrier(t *testing.T) {
	odd := gps(7, 1500000000.0, 40, true)

	g := Aggregate([]signal.Status{odd}, slog.LevelInfo)

	md := g.Metadata
	if len(md.UnknownCarrierStatuses) != 1 {
		t.Fatalf("want 1 unknown, got %d", len(md.UnknownCarrierStatuses))
	}
	if len(g.Satellites) != 0 {
		t.Errorf("want no satellites, got %d", len(g.Satellites))
	}
	if md.NumSignalsInView != 0 || md.NumSignalsUsed != 0 {
		t.Errorf("unknown signals should not be counted, got %d in view, %d used",
			md.NumSignalsInView, md.NumSignalsUsed)
	}
}

// TestMetadata checks the metadata of a mixed snapshot.
func TestMetadata(t *testing.T) {
	galileoE5a := signal.Status{
		Constellation:       utils.ConstellationGalileo,
		Svid:                11,
		CarrierFrequencyHz:  freqL5,
		HasCarrierFrequency: true,
		CN0DbHz:             30,
	}
	waas := signal.Status{
		Constellation:       utils.ConstellationSBAS,
		Svid:                131,
		CarrierFrequencyHz:  freqL1,
		HasCarrierFrequency: true,
		CN0DbHz:             35,
	}
	noFrequency := signal.Status{
		Constellation: utils.ConstellationGlonass,
		Svid:          4,
		CN0DbHz:       25,
		UsedInFix:     true,
	}

	input := []signal.Status{
		gps(5, freqL1, 40, true),
		gps(5, freqL5, 35, true),
		gps(7, freqL1, 0, false), // Not in view.
		galileoE5a,
		waas,
		noFrequency,
	}

	g := Aggregate(input, slog.LevelInfo)

	want := Metadata{
		NumSignalsInView: 5,
		NumSignalsUsed:   3,
		NumSatsInView:    4,
		NumSatsUsed:      2,
		SupportedConstellations: map[utils.Constellation]interface{}{
			utils.ConstellationGPS:     nil,
			utils.ConstellationGalileo: nil,
			utils.ConstellationSBAS:    nil,
			utils.ConstellationGlonass: nil,
		},
		SupportedSbasTypes: map[carrier.SbasType]interface{}{carrier.SbasWAAS: nil},
		SupportedCarrierLabels: map[carrier.Label]interface{}{
			carrier.L1:  nil,
			carrier.L5:  nil,
			carrier.E5a: nil,
		},
		SupportedSbasCarrierLabels:    map[carrier.Label]interface{}{carrier.L1: nil},
		UnknownCarrierStatuses:        []signal.Status{},
		DuplicateCarrierStatuses:      []signal.Status{},
		IsDualFrequencyPerSatInView:   true,
		IsDualFrequencyPerSatInUse:    true,
		IsNonPrimaryCarrierFreqInView: true,
		IsNonPrimaryCarrierFreqInUse:  true,
	}

	if d := cmp.Diff(want, g.Metadata); d != "" {
		t.Errorf("metadata differs (-want +got):\n%s", d)
	}

	glonass := g.Satellite(utils.ConstellationGlonass, 4)
	if glonass == nil {
		t.Fatal("R04 missing")
	}
	if _, ok := glonass.Signals[carrier.Unsupported]; !ok {
		t.Error("R04 should hold its signal under UNSUPPORTED")
	}
}

// TestNonPrimaryNotUsed checks that a non-primary signal that's not used
// sets the in-view flag but not the in-use flag.
func TestNonPrimaryNotUsed(t *testing.T) {
	g := Aggregate([]signal.Status{gps(9, freqL5, 30, false), gps(9, freqL1, 40, true)},
		slog.LevelInfo)

	if !g.Metadata.IsNonPrimaryCarrierFreqInView {
		t.Error("want non-primary in view")
	}
	if g.Metadata.IsNonPrimaryCarrierFreqInUse {
		t.Error("want non-primary not in use")
	}
	if !g.Metadata.IsDualFrequencyPerSatInView {
		t.Error("want dual frequency in view")
	}
	if g.Metadata.IsDualFrequencyPerSatInUse {
		t.Error("want dual frequency not in use")
	}
}

// TestDuplicateFlags checks the counts and flags when a duplicate signal
// differs from the one stored.  The non-primary flags follow every labelled
// signal but the satellite counts follow the stored signals only.
func TestDuplicateFlags(t *testing.T) {
	testData := []struct {
		description       string
		input             []signal.Status
		wantInView        bool
		wantInUse         bool
		wantSignalsInView int
		wantSignalsUsed   int
		wantSatsInView    int
		wantSatsUsed      int
	}{
		{
			"duplicate non-primary used in fix",
			[]signal.Status{gps(5, freqL5, 30, false), gps(5, freqL5, 35, true)},
			true, true, 2, 1, 1, 0,
		},
		{
			"stored non-primary used, duplicate not",
			[]signal.Status{gps(5, freqL5, 30, true), gps(5, freqL5, 28, false)},
			true, true, 2, 1, 1, 1,
		},
		{
			"duplicate primary used in fix",
			[]signal.Status{gps(5, freqL1, 40, false), gps(5, freqL1, 42, true)},
			false, false, 2, 1, 1, 0,
		},
	}

	for _, td := range testData {
		t.Run(td.description, func(t *testing.T) {
			g := Aggregate(td.input, slog.LevelInfo)
			md := g.Metadata

			if len(md.DuplicateCarrierStatuses) != 1 {
				t.Fatalf("want 1 duplicate, got %d", len(md.DuplicateCarrierStatuses))
			}
			if md.DuplicateCarrierStatuses[0] != td.input[1] {
				t.Errorf("want the second signal in the duplicate list, got %v",
					md.DuplicateCarrierStatuses[0])
			}
			if md.IsNonPrimaryCarrierFreqInView != td.wantInView {
				t.Errorf("want non-primary in view %v, got %v", td.wantInView, md.IsNonPrimaryCarrierFreqInView)
			}
			if md.IsNonPrimaryCarrierFreqInUse != td.wantInUse {
				t.Errorf("want non-primary in use %v, got %v", td.wantInUse, md.IsNonPrimaryCarrierFreqInUse)
			}
			if md.NumSignalsInView != td.wantSignalsInView {
				t.Errorf("want %d signals in view, got %d", td.wantSignalsInView, md.NumSignalsInView)
			}
			if md.NumSignalsUsed != td.wantSignalsUsed {
				t.Errorf("want %d signals used, got %d", td.wantSignalsUsed, md.NumSignalsUsed)
			}
			if md.NumSatsInView != td.wantSatsInView {
				t.Errorf("want %d satellites in view, got %d", td.wantSatsInView, md.NumSatsInView)
			}
			if md.NumSatsUsed != td.wantSatsUsed {
				t.Errorf("want %d satellites used, got %d", td.wantSatsUsed, md.NumSatsUsed)
			}
		})
	}
}

// TestOrderIsPreserved checks that satellites and labels keep their
// arrival order.
func TestOrderIsPreserved(t *testing.T) {
	g := Aggregate([]signal.Status{
		gps(12, freqL5, 30, false),
		gps(3, freqL1, 30, false),
		gps(12, freqL1, 30, false),
	}, slog.LevelInfo)

	got := make([]string, 0)
	for _, sat := range g.Satellites {
		got = append(got, sat.ID())
		for _, label := range sat.Labels {
			got = append(got, string(label))
		}
	}
	want := []string{"G12", "L5", "L1", "G03", "L1"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("order differs (-want +got):\n%s", d)
	}
}

// randomSnapshot creates a snapshot with a mixture of good, unknown,
// unsupported and duplicated signals.
func randomSnapshot(r *rand.Rand) []signal.Status {
	frequencies := []float64{freqL1, freqL5, 1227600000.0, 1500000000.0, 1207140000.0}
	constellations := []utils.Constellation{
		utils.ConstellationGPS, utils.ConstellationGalileo, utils.ConstellationBeidou,
		utils.ConstellationSBAS, utils.ConstellationGlonass,
	}

	n := r.Intn(40)
	result := make([]signal.Status, n)
	for i := range result {
		result[i] = signal.Status{
			Constellation:       constellations[r.Intn(len(constellations))],
			Svid:                120 + r.Intn(15),
			CarrierFrequencyHz:  frequencies[r.Intn(len(frequencies))],
			HasCarrierFrequency: r.Intn(5) != 0,
			CN0DbHz:             float64(r.Intn(3) * 20),
			UsedInFix:           r.Intn(2) == 0,
		}
	}
	return result
}

// TestProperties checks the invariants of Aggregate over many random
// snapshots: every signal is accounted for exactly once, satellite counts
// never exceed signal counts and the dual frequency flag is set exactly
// when a satellite has two identified bands.
func TestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for run := 0; run < 500; run++ {
		input := randomSnapshot(r)
		g := Aggregate(input, slog.LevelInfo)
		md := g.Metadata

		total := g.NumStoredSignals() + len(md.UnknownCarrierStatuses) + len(md.DuplicateCarrierStatuses)
		if total != len(input) {
			t.Fatalf("run %d: %d signals in, %d accounted for", run, len(input), total)
		}

		if md.NumSatsInView > md.NumSignalsInView {
			t.Fatalf("run %d: %d sats in view > %d signals", run, md.NumSatsInView, md.NumSignalsInView)
		}
		if md.NumSatsUsed > md.NumSignalsUsed {
			t.Fatalf("run %d: %d sats used > %d signals", run, md.NumSatsUsed, md.NumSignalsUsed)
		}

		dual := false
		for _, sat := range g.Satellites {
			labels := 0
			for label := range sat.Signals {
				if !label.IsSentinel() {
					labels++
				}
			}
			if labels >= 2 {
				dual = true
			}
		}
		if dual != md.IsDualFrequencyPerSatInView {
			t.Fatalf("run %d: want dual frequency %v, got %v", run, dual, md.IsDualFrequencyPerSatInView)
		}

		// Aggregating the same input again gives the same result.
		again := Aggregate(input, slog.LevelInfo)
		if d := cmp.Diff(md, again.Metadata, cmpopts.EquateEmpty()); d != "" {
			t.Fatalf("run %d: results differ:\n%s", run, d)
		}
	}
}

// TestString checks the readable summary at info and debug level.
func TestString(t *testing.T) {
	input := []signal.Status{
		gps(5, freqL1, 40, true),
		gps(5, freqL5, 35, false),
		gps(5, freqL5, 33, false),
		gps(8, 1500000000.0, 20, false),
	}

	const wantInfo = `satellites: 1 in view, 1 used; signals: 3 in view, 1 used
constellations: GPS
carrier labels: L1 L5
dual frequency: in view true, in use false
non-primary carrier: in view true, in use false
unknown carrier signals: 1, duplicate carrier signals: 1
`

	g := Aggregate(input, slog.LevelInfo)
	got := g.String()
	if got != wantInfo {
		t.Errorf("results differ:\n%s", diff.Diff(wantInfo, got))
	}

	const wantDebug = wantInfo + `G05 L1,L5 in view 2 used 1
    G05 L1 1575.420 MHz cn0 40.0 used az 0.0 el 0.0 -
    G05 L5 1176.450 MHz cn0 35.0 not used az 0.0 el 0.0 -
unknown carrier: G08 UNKNOWN 1500.000 MHz cn0 20.0 not used az 0.0 el 0.0 -
duplicate carrier: G05 L5 1176.450 MHz cn0 33.0 not used az 0.0 el 0.0 -
`

	g = Aggregate(input, slog.LevelDebug)
	got = g.String()
	if got != wantDebug {
		t.Errorf("results differ:\n%s", diff.Diff(wantDebug, got))
	}
}
