package nmeasource

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/status/signal"
	"github.com/goblimey/go-rinex/utils"
)

const testStream = `$GPGSV,2,1,05,05,40,083,46,07,17,308,41,12,07,344,,33,22,228,38*7C
$GPGSV,2,2,05,65,60,120,30*49
garbage
$GLGSV,1,1,02,05,45,100,35,67,10,200,20*64
$GAGSV,1,1,01,11,55,010,42*5E
$GNGSA,A,3,05,07,67,,,,,,,,,,2.5,1.3,2.1*29
$GAGSA,A,3,11,,,,,,,,,,,,2.5,1.3,2.1*25
$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47
$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A
$GPGSV,1,1,01,05,40,083,44*00
$GPGSV,1,1,01,05,40,083,44*42
`

func status(constellation utils.Constellation, svid int, cn0, az, el float64, used bool) signal.Status {
	return signal.Status{
		Constellation:    constellation,
		Svid:             svid,
		CN0DbHz:          cn0,
		AzimuthDegrees:   az,
		ElevationDegrees: el,
		UsedInFix:        used,
	}
}

// TestIdentify checks the mapping from talker and NMEA ID to satellite.
func TestIdentify(t *testing.T) {
	var testData = []struct {
		Talker            string
		ID                int
		WantConstellation utils.Constellation
		WantSvid          int
	}{
		{TalkerGPS, 5, utils.ConstellationGPS, 5},
		{TalkerGPS, 33, utils.ConstellationSBAS, 120},
		{TalkerGPS, 65, utils.ConstellationGlonass, 1},
		{TalkerGlonass, 5, utils.ConstellationGlonass, 5},
		{TalkerGlonass, 88, utils.ConstellationGlonass, 24},
		{TalkerGalileo, 11, utils.ConstellationGalileo, 11},
		{TalkerCombined, 311, utils.ConstellationGalileo, 11},
		{TalkerBeidou, 7, utils.ConstellationBeidou, 7},
		{TalkerBeidouBD, 61, utils.ConstellationBeidou, 61},
		{TalkerCombined, 407, utils.ConstellationBeidou, 7},
		{TalkerQZSS, 2, utils.ConstellationQZSS, 194},
		{TalkerCombined, 194, utils.ConstellationQZSS, 194},
		{TalkerCombined, 200, utils.ConstellationQZSS, 200},
		{TalkerCombined, 201, utils.ConstellationBeidou, 1},
		{TalkerCombined, 202, utils.ConstellationBeidou, 2},
		{TalkerQZSS, 10, utils.ConstellationQZSS, 202},
		{TalkerIRNSS, 3, utils.ConstellationIRNSS, 3},
		{TalkerCombined, 131, utils.ConstellationSBAS, 131},
		{TalkerCombined, 100, utils.ConstellationUnknown, 100},
		{TalkerCombined, 0, utils.ConstellationUnknown, 0},
	}

	for _, td := range testData {
		constellation, svid := Identify(td.Talker, td.ID)
		if constellation != td.WantConstellation || svid != td.WantSvid {
			t.Errorf("%s %d: want %v %d, got %v %d",
				td.Talker, td.ID, td.WantConstellation, td.WantSvid, constellation, svid)
		}
	}
}

// TestHandle checks that the stream gives one snapshot per fix plus the
// one in progress at EOF, and that bad sentences are counted.
func TestHandle(t *testing.T) {
	var logBuffer bytes.Buffer
	systemLog := log.New(&logBuffer, "", 0)

	snapshotChan := make(chan []signal.Status, 10)
	source := New(snapshotChan, systemLog)

	err := source.Handle(context.Background(), strings.NewReader(testStream))
	if err != nil {
		t.Fatal(err)
	}

	snapshots := make([][]signal.Status, 0)
	for snapshot := range snapshotChan {
		snapshots = append(snapshots, snapshot)
	}

	want := [][]signal.Status{
		{
			status(utils.ConstellationGPS, 5, 46, 83, 40, true),
			status(utils.ConstellationGPS, 7, 41, 308, 17, true),
			status(utils.ConstellationGPS, 12, 0, 344, 7, false),
			status(utils.ConstellationSBAS, 120, 38, 228, 22, false),
			status(utils.ConstellationGlonass, 1, 30, 120, 60, false),
			status(utils.ConstellationGlonass, 5, 35, 100, 45, false),
			status(utils.ConstellationGlonass, 3, 20, 200, 10, true),
			status(utils.ConstellationGalileo, 11, 42, 10, 55, true),
		},
		{
			status(utils.ConstellationGPS, 5, 44, 83, 40, false),
		},
	}

	if d := cmp.Diff(want, snapshots); d != "" {
		t.Errorf("snapshots differ (-want +got):\n%s", d)
	}

	if source.BadSentences != 1 {
		t.Errorf("want 1 bad sentence, got %d", source.BadSentences)
	}
	if logBuffer.Len() == 0 {
		t.Error("want the bad sentence logged")
	}
}

// TestLabels checks that NMEA signals have no carrier frequency and so
// are labelled Unsupported.
func TestLabels(t *testing.T) {
	s := status(utils.ConstellationGPS, 5, 46, 83, 40, true)
	if s.Label() != carrier.Unsupported {
		t.Errorf("want %s, got %s", carrier.Unsupported, s.Label())
	}
}

// TestCancel checks that Handle stops when the context is cancelled.
func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snapshotChan := make(chan []signal.Status, 10)
	source := New(snapshotChan, nil)

	err := source.Handle(ctx, strings.NewReader(testStream))
	if err != context.Canceled {
		t.Errorf("want %v, got %v", context.Canceled, err)
	}

	if _, ok := <-snapshotChan; ok {
		t.Error("want the channel closed with no snapshots")
	}
}
