package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"

	"github.com/goblimey/go-tools/clock"

	"github.com/goblimey/go-rinex/capture"
	"github.com/goblimey/go-rinex/config"
	"github.com/goblimey/go-rinex/rinex/header"
	"github.com/goblimey/go-rinex/rinex/navigation"
	"github.com/goblimey/go-rinex/rinex/observation"
	"github.com/goblimey/go-rinex/status/group"
	"github.com/goblimey/go-rinex/utils"
)

// Progress counts the records handled so far.
type Progress struct {
	Epochs            int
	Ephemerides       int
	Snapshots         int
	Rejected          int
	SkippedSignals    int
	DuplicateSignals  int
	BlankPseudoranges int
}

// Converter consumes capture records and writes a RINEX file, either an
// observation file from the epochs or a navigation file from the
// ephemerides.  Status snapshots are summarised in the event log.
type Converter struct {
	Conf       *config.Config
	Writer     io.Writer
	EventLog   *log.Logger // May be nil.
	LogLevel   slog.Level
	Navigation bool
	RunID      string

	encoder *observation.Encoder
	builder *header.Builder

	// mutex protects the fields below, which are read by the progress
	// reporter.
	mutex         sync.Mutex
	headerWritten bool
	progress      Progress
}

// NewConverter creates a Converter.  The clock supplies the date in the
// PGM / RUN BY / DATE header line.
func NewConverter(conf *config.Config, writer io.Writer, eventLog *log.Logger, c clock.Clock, runID string, navigationMode bool) (*Converter, error) {
	bands, err := conf.ObservationBands()
	if err != nil {
		return nil, err
	}
	level, err := conf.SlogLevel()
	if err != nil {
		return nil, err
	}

	converter := Converter{
		Conf:       conf,
		Writer:     writer,
		EventLog:   eventLog,
		LogLevel:   level,
		Navigation: navigationMode,
		RunID:      runID,
		encoder:    observation.New(bands),
		builder:    header.New(c),
	}
	return &converter, nil
}

// Consume receives records from the channel until it's closed.  After a
// write error it carries on draining the channel so that the sender isn't
// blocked, and returns the error at the end.
func (converter *Converter) Consume(records chan capture.Record) error {
	var writeError error
	for record := range records {
		if writeError != nil {
			continue
		}
		writeError = converter.Handle(&record)
		if writeError != nil {
			converter.logf("write failed - %v", writeError)
		}
	}
	return writeError
}

// Handle deals with one record.  Bad data is logged and counted.  The
// error is only set if the output can't be written.
func (converter *Converter) Handle(record *capture.Record) error {
	switch record.Kind {
	case capture.KindEpoch:
		if converter.Navigation {
			return nil
		}
		return converter.handleEpoch(record)
	case capture.KindEphemeris:
		if !converter.Navigation {
			return nil
		}
		return converter.handleEphemeris(record)
	case capture.KindStatus:
		converter.handleStatus(record)
	}
	return nil
}

func (converter *Converter) handleEpoch(record *capture.Record) error {
	epoch := record.Epoch

	text, report, err := converter.encoder.EncodeWithReport(epoch)
	if err != nil {
		converter.reject("line %d: epoch rejected - %v", record.LineNumber, err)
		return nil
	}

	converter.mutex.Lock()
	writeHeader := !converter.headerWritten
	converter.mutex.Unlock()

	if writeHeader {
		// EncodeWithReport has already checked the clock.
		firstObservation, _ := epoch.Clock.GPSTime()
		h := converter.Conf.ObsHeader(converter.encoder.ObservationTypes(), firstObservation,
			observation.GlonassSlots(epoch.Measurements), converter.runComment())
		if err := converter.write(converter.builder.Observation(h)); err != nil {
			return err
		}
	}

	if err := converter.write(text); err != nil {
		return err
	}

	converter.mutex.Lock()
	converter.progress.Epochs++
	converter.progress.SkippedSignals += len(report.Skipped)
	converter.progress.DuplicateSignals += len(report.Duplicates)
	converter.progress.BlankPseudoranges += report.BlankPseudoranges
	converter.mutex.Unlock()

	if converter.LogLevel == slog.LevelDebug {
		for i := range report.Skipped {
			m := &report.Skipped[i]
			converter.logf("line %d: %s %s not recorded", record.LineNumber, m.SatelliteID(), m.Label())
		}
		for i := range report.Duplicates {
			m := &report.Duplicates[i]
			converter.logf("line %d: %s %s duplicate", record.LineNumber, m.SatelliteID(), m.Label())
		}
	}

	return nil
}

func (converter *Converter) handleEphemeris(record *capture.Record) error {
	text, err := navigation.Encode(record.Ephemeris)
	if err != nil {
		if errors.Is(err, navigation.ErrUnsupportedConstellation) && converter.LogLevel != slog.LevelDebug {
			// Expected for GLONASS and SBAS.  Only counted.
			converter.mutex.Lock()
			converter.progress.Rejected++
			converter.mutex.Unlock()
			return nil
		}
		converter.reject("line %d: ephemeris rejected - %v", record.LineNumber, err)
		return nil
	}

	converter.mutex.Lock()
	writeHeader := !converter.headerWritten
	converter.mutex.Unlock()

	if writeHeader {
		h := converter.Conf.NavHeader(utils.GPSLeapSeconds, converter.runComment())
		if err := converter.write(converter.builder.Navigation(h)); err != nil {
			return err
		}
	}

	if err := converter.write(text); err != nil {
		return err
	}

	converter.mutex.Lock()
	converter.progress.Ephemerides++
	converter.mutex.Unlock()

	return nil
}

func (converter *Converter) handleStatus(record *capture.Record) {
	g := group.Aggregate(record.Statuses, converter.LogLevel)

	converter.mutex.Lock()
	converter.progress.Snapshots++
	converter.mutex.Unlock()

	converter.logf("line %d: satellite status\n%s", record.LineNumber, g.String())
}

// write writes the text and notes that the header has gone.
func (converter *Converter) write(text string) error {
	_, err := io.WriteString(converter.Writer, text)
	if err != nil {
		return err
	}
	converter.mutex.Lock()
	converter.headerWritten = true
	converter.mutex.Unlock()
	return nil
}

func (converter *Converter) runComment() string {
	return "run " + converter.RunID
}

// reject counts a rejected record and logs the reason.
func (converter *Converter) reject(format string, args ...interface{}) {
	converter.mutex.Lock()
	converter.progress.Rejected++
	converter.mutex.Unlock()
	converter.logf(format, args...)
}

func (converter *Converter) logf(format string, args ...interface{}) {
	if converter.EventLog != nil {
		converter.EventLog.Printf(format, args...)
	}
}

// Progress returns the counts so far.
func (converter *Converter) Progress() Progress {
	converter.mutex.Lock()
	defer converter.mutex.Unlock()
	return converter.progress
}

// String returns the progress counts in readable form.
func (p Progress) String() string {
	return fmt.Sprintf("%d epochs, %d ephemerides, %d status snapshots, %d rejected, "+
		"%d signals not recorded, %d duplicate signals, %d blank pseudoranges",
		p.Epochs, p.Ephemerides, p.Snapshots, p.Rejected,
		p.SkippedSignals, p.DuplicateSignals, p.BlankPseudoranges)
}

// LogProgress writes the progress counts to the event log.  It's run by
// the progress cron job.
func (converter *Converter) LogProgress() {
	converter.logf("run %s: %s", converter.RunID, converter.Progress())
}
