// This is the core of the applications.  It contains functionality to read
// from an input file (typically either a capture file or a serial line
// connected to a logger that is writing capture records) and pass the
// records to a set of consumers.
package appcore

import (
	"bufio"
	"context"
	"io"

	"github.com/goblimey/go-rinex/capture"
	"github.com/goblimey/go-rinex/config"
)

type AppCore struct {
	Conf     *config.Config
	Channels []chan capture.Record
}

func New(conf *config.Config, channels []chan capture.Record) *AppCore {
	appCore := AppCore{Conf: conf, Channels: channels}
	return &appCore
}

// HandleRecords repeatedly searches for and reads the input file(s)
// specified in the config, converts the data to capture records and sends
// them to the channels.  If input is provided indefinitely, it will run
// until the context is cancelled.
//
// The input files may be the device names of a device that is sending data
// on a serial connection.  If the device is connecting on a serial USB
// connection and connectivity is lost and then restored, the device name
// this time may be different from the one used last time, so the config
// should specify all the possible device file names.
func (appCore *AppCore) HandleRecords(ctx context.Context) {

	// Loop until cancelled:  find and consume input files, read the data
	// from them and send the records to the channels.  When a data file is
	// exhausted, search for the next one and open it.
	for {
		r := config.WaitAndConnectToInput(ctx, appCore.Conf)
		if r == nil {
			// Cancelled.
			return
		}
		reader := bufio.NewReader(r)

		continueFlag := appCore.HandleRecordsUntilEOF(reader)

		if closer, ok := r.(io.Closer); ok {
			closer.Close()
		}

		if continueFlag == 1 {
			// Stop processing.  This is to allow a unit test to run this
			// function.  It should never happen in production.
			break
		}
	}
}

// HandleRecordsUntilEOF takes the given reader, creates a capture handler
// and runs it.
//
// Whenever it receives a record from the handler, it sends a copy to each
// of the AppCore's channels.  It's assumed that something is listening to
// each channel and doing something with the records, for example writing
// them to a RINEX file.
//
// In production the value returned is always 0 (continue).  In test the
// returned value may be 1 (stop).  If a caller that would normally run
// indefinitely receives a stop return, it should stop.
func (appCore *AppCore) HandleRecordsUntilEOF(reader *bufio.Reader) int {

	recordChan := make(chan capture.Record)

	handler := capture.New(recordChan, appCore.Conf.RetryIntervalOnEOF(),
		appCore.Conf.EOFTimeout(), appCore.Conf.SystemLog)

	// The handler dies when it encounters EOF and then the EOF timeout
	// expires.  On the way out it closes the record channel, which is how
	// we know that it's finished.
	go handler.Handle(reader)

	stop := 0
	for record := range recordChan {
		if stop == 1 {
			// Drain the channel so that the handler can finish.
			continue
		}

		if record.Kind == capture.KindStop {
			// We've received the stop record (which should only happen
			// in testing).  Tell the caller to stop.
			stop = 1
			continue
		}

		for i := range appCore.Channels {
			if appCore.Channels[i] != nil {
				appCore.Channels[i] <- record
			}
		}
	}

	return stop
}
