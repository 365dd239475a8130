// The capture package defines the capture stream, a file of JSON objects, one
// per line, recorded from a receiver or a phone.  Each object has a kind
// and a payload:
//
//	{"kind": "epoch", "epoch": {"clock": {...}, "measurements": [...], "flag": 0}}
//	{"kind": "ephemeris", "ephemeris": {"constellation": "GPS", "svid": 5, ...}}
//	{"kind": "status", "statuses": [{"constellation": "GPS", "svid": 5, ...}, ...]}
//
// Blank lines and lines starting with "#" are ignored.
//
// The Handler reads a stream and issues the records on a channel.  The
// stream may still be being written, so an EOF is not necessarily the end.
package capture

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/goblimey/go-rinex/rinex/navigation"
	"github.com/goblimey/go-rinex/rinex/observation"
	"github.com/goblimey/go-rinex/status/signal"
)

// Record kinds.
const (
	KindEpoch     = "epoch"
	KindEphemeris = "ephemeris"
	KindStatus    = "status"

	// KindStop tells the consumer to stop.  It's only used in testing.
	KindStop = "stop"
)

// Record is one line of the capture stream.
type Record struct {
	Kind      string                `json:"kind"`
	Epoch     *observation.Epoch    `json:"epoch,omitempty"`
	Ephemeris *navigation.Ephemeris `json:"ephemeris,omitempty"`
	Statuses  []signal.Status       `json:"statuses,omitempty"`

	// LineNumber is the line of the stream that the record came from.
	LineNumber int `json:"-"`
}

// Parse converts one line of the stream to a Record.  The record must have
// a known kind and the matching payload.
func Parse(line []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(line, &record); err != nil {
		return nil, err
	}

	switch record.Kind {
	case KindEpoch:
		if record.Epoch == nil {
			return nil, errors.New("epoch record with no epoch")
		}
	case KindEphemeris:
		if record.Ephemeris == nil {
			return nil, errors.New("ephemeris record with no ephemeris")
		}
	case KindStatus, KindStop:
	default:
		return nil, fmt.Errorf("unknown record kind %q", record.Kind)
	}

	return &record, nil
}

// Marshal returns the record as one line of the stream, including the
// newline.
func Marshal(record *Record) ([]byte, error) {
	line, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return append(line, '\n'), nil
}

// Handler reads a capture stream and sends the records to a channel.
type Handler struct {
	RecordChan         chan Record   // Records are issued on this channel.
	RetryIntervalOnEOF time.Duration // The time to wait between retries on EOF.
	EOFTimeout         time.Duration // Give up retrying after this time has elapsed.
	SystemLog          *log.Logger   // Logs bad lines.  May be nil.

	// BadLines counts the lines that could not be parsed.
	BadLines int

	lineNumber int
}

// New creates a handler.
func New(recordChan chan Record, retryIntervalOnEOF, eofTimeout time.Duration, systemLog *log.Logger) *Handler {
	handler := Handler{
		RecordChan:         recordChan,
		RetryIntervalOnEOF: retryIntervalOnEOF,
		EOFTimeout:         eofTimeout,
		SystemLog:          systemLog,
	}
	return &handler
}

// Handle reads the stream and sends each record to the record channel.  It
// returns the read error that stopped it, typically io.EOF, and closes the
// record channel on the way out.
func (handler *Handler) Handle(reader *bufio.Reader) error {
	defer close(handler.RecordChan)

	// An EOF is not necessarily fatal.  It can just mean that there is no
	// data to read just now, but there may be some in the future.  If the
	// EOFTimeout is zero, we stop at the first EOF.  If it's set, we retry
	// reads for that duration and then give up.  A line that was partly
	// read before an EOF is kept and completed by the following reads.

	// timeOfFirstEOF is set when the read has returned EOF one or more
	// times in a row.
	var timeOfFirstEOF *time.Time

	var pending []byte

	for {
		chunk, err := reader.ReadBytes('\n')
		if len(chunk) > 0 {
			timeOfFirstEOF = nil
			pending = append(pending, chunk...)
		}

		if err == nil {
			handler.processLine(pending)
			pending = nil
			continue
		}

		if err != io.EOF {
			return err
		}

		if handler.EOFTimeout == 0 {
			handler.processLine(pending)
			return err
		}

		if timeOfFirstEOF == nil {
			t := time.Now()
			timeOfFirstEOF = &t
			time.Sleep(handler.RetryIntervalOnEOF)
			continue
		}

		if time.Since(*timeOfFirstEOF) > handler.EOFTimeout {
			// The timeout has elapsed.  Give up.
			handler.processLine(pending)
			return err
		}

		time.Sleep(handler.RetryIntervalOnEOF)
	}
}

// processLine parses a line and sends the record.  Blank lines and
// comments are ignored.  Bad lines are logged and counted.
func (handler *Handler) processLine(line []byte) {
	if len(line) == 0 {
		return
	}
	handler.lineNumber++

	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] == '#' {
		return
	}

	record, err := Parse(trimmed)
	if err != nil {
		handler.BadLines++
		if handler.SystemLog != nil {
			handler.SystemLog.Printf("line %d: %v", handler.lineNumber, err)
		}
		return
	}
	record.LineNumber = handler.lineNumber

	handler.RecordChan <- *record
}
