// The nmeasource package builds snapshots of signal status reports from an
// NMEA 0183 stream, for receivers that don't supply raw measurements.
//
// GSV sentences give the satellites in view with their elevation, azimuth
// and SNR.  GSA sentences give the satellites used in the fix.  A GGA or
// RMC sentence starts a new fix, so it closes the snapshot gathered since
// the last one.  NMEA doesn't give the carrier frequency, so every signal
// in a snapshot has the carrier label Unsupported.
//
// The constellation comes from the talker ID.  A "GN" talker (combined
// constellations) or a talker that isn't constellation specific is
// resolved using the NMEA satellite ID ranges.
package nmeasource

import (
	"bufio"
	"context"
	"io"
	"log"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/goblimey/go-rinex/status/signal"
	"github.com/goblimey/go-rinex/utils"
)

// Talker IDs.
const (
	TalkerGPS      = "GP"
	TalkerGlonass  = "GL"
	TalkerGalileo  = "GA"
	TalkerBeidou   = "GB"
	TalkerBeidouBD = "BD"
	TalkerQZSS     = "GQ"
	TalkerQZSSQZ   = "QZ"
	TalkerIRNSS    = "GI"
	TalkerCombined = "GN"
)

// idRange maps a range of NMEA satellite IDs to a constellation.  The svid
// is the NMEA ID plus the offset.
type idRange struct {
	first, last   int
	constellation utils.Constellation
	offset        int
}

// combinedRanges are the NMEA 4.x satellite ID ranges, plus the extended
// ranges used by u-blox receivers for Galileo and BeiDou.
// QZSS stops at 200 under a combined talker so that 201 and up are BeiDou.
var combinedRanges = []idRange{
	{1, 32, utils.ConstellationGPS, 0},
	{33, 64, utils.ConstellationSBAS, 87},
	{65, 96, utils.ConstellationGlonass, -64},
	{120, 158, utils.ConstellationSBAS, 0},
	{193, 200, utils.ConstellationQZSS, 0},
	{201, 263, utils.ConstellationBeidou, -200},
	{301, 336, utils.ConstellationGalileo, -300},
	{401, 463, utils.ConstellationBeidou, -400},
}

// Identify returns the constellation and svid of a satellite given the
// talker ID of the sentence and the NMEA satellite ID.  The constellation
// is ConstellationUnknown if the ID can't be placed.
func Identify(talker string, id int) (utils.Constellation, int) {
	switch talker {
	case TalkerGlonass:
		if id >= 1 && id <= 24 {
			return utils.ConstellationGlonass, id
		}
	case TalkerGalileo:
		if id >= 1 && id <= 36 {
			return utils.ConstellationGalileo, id
		}
	case TalkerBeidou, TalkerBeidouBD:
		if id >= 1 && id <= 63 {
			return utils.ConstellationBeidou, id
		}
	case TalkerQZSS, TalkerQZSSQZ:
		if id >= 1 && id <= 10 {
			return utils.ConstellationQZSS, id + 192
		}
	case TalkerIRNSS:
		if id >= 1 && id <= 14 {
			return utils.ConstellationIRNSS, id
		}
	}

	for _, r := range combinedRanges {
		if id >= r.first && id <= r.last {
			return r.constellation, id + r.offset
		}
	}

	return utils.ConstellationUnknown, id
}

// Collector gathers the sentences of one fix into a snapshot.
type Collector struct {
	statuses []signal.Status
	used     map[string]bool
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		statuses: make([]signal.Status, 0),
		used:     make(map[string]bool),
	}
}

// Add takes a parsed sentence.  If it closes a snapshot, the snapshot is
// returned, otherwise the result is nil.  Sentences other than GSV, GSA,
// GGA and RMC are ignored.
func (c *Collector) Add(sentence nmea.Sentence) []signal.Status {
	switch sentence.DataType() {
	case nmea.TypeGSV:
		gsv := sentence.(nmea.GSV)
		c.addSatellites(sentence.TalkerID(), gsv.Info)
	case nmea.TypeGSA:
		gsa := sentence.(nmea.GSA)
		c.addUsed(sentence.TalkerID(), gsa.SV)
	case nmea.TypeGGA, nmea.TypeRMC:
		return c.Flush()
	}
	return nil
}

// Flush returns the snapshot gathered so far, or nil if it's empty, and
// starts a new one.
func (c *Collector) Flush() []signal.Status {
	if len(c.statuses) == 0 {
		c.used = make(map[string]bool)
		return nil
	}

	snapshot := c.statuses
	for i := range snapshot {
		snapshot[i].UsedInFix = c.used[snapshot[i].SatelliteID()]
	}

	c.statuses = make([]signal.Status, 0)
	c.used = make(map[string]bool)
	return snapshot
}

func (c *Collector) addSatellites(talker string, info []nmea.GSVInfo) {
	for _, sv := range info {
		constellation, svid := Identify(talker, int(sv.SVPRNNumber))
		if constellation == utils.ConstellationUnknown {
			continue
		}
		c.statuses = append(c.statuses, signal.Status{
			Constellation:    constellation,
			Svid:             svid,
			CN0DbHz:          float64(sv.SNR),
			AzimuthDegrees:   float64(sv.Azimuth),
			ElevationDegrees: float64(sv.Elevation),
		})
	}
}

func (c *Collector) addUsed(talker string, ids []string) {
	for _, field := range ids {
		id, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			// Unused slots are empty.
			continue
		}
		constellation, svid := Identify(talker, id)
		if constellation == utils.ConstellationUnknown {
			continue
		}
		c.used[utils.SatelliteID(constellation, svid)] = true
	}
}

// Source reads an NMEA stream and issues snapshots.
type Source struct {
	SnapshotChan chan []signal.Status
	SystemLog    *log.Logger // Logs sentences that can't be parsed.  May be nil.

	// BadSentences counts the sentences that could not be parsed.
	BadSentences int
}

// New creates a Source.
func New(snapshotChan chan []signal.Status, systemLog *log.Logger) *Source {
	return &Source{SnapshotChan: snapshotChan, SystemLog: systemLog}
}

// Handle reads the stream until EOF or until the context is cancelled,
// sending each snapshot to the snapshot channel.  Lines that don't start
// with "$" are ignored.  The snapshot in progress at EOF is sent too.  The
// channel is closed on the way out.
func (source *Source) Handle(ctx context.Context, reader io.Reader) error {
	defer close(source.SnapshotChan)

	collector := NewCollector()
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			source.BadSentences++
			if source.SystemLog != nil {
				source.SystemLog.Printf("%v: %s", err, line)
			}
			continue
		}

		if snapshot := collector.Add(sentence); snapshot != nil {
			source.SnapshotChan <- snapshot
		}
	}

	if snapshot := collector.Flush(); snapshot != nil {
		source.SnapshotChan <- snapshot
	}

	return scanner.Err()
}
