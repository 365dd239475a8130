// rinexconv reads a capture stream of raw GNSS measurements and writes a
// RINEX 3.03 file on the standard output.  By default it writes an
// observation file from the epochs in the stream.  With -nav it writes a
// navigation file from the ephemerides instead.  Satellite status
// snapshots in the stream are summarised in the event log.
//
// The input is the file named on the command line ("-" for the standard
// input).  If no file is named, the input is taken from the devices listed
// in the config file.  A receiver connected over serial USB can come and go
// and the tool waits for it to come back, so in that case it runs until
// it's interrupted.
//
// Each run is given a unique ID, which appears in a COMMENT line of the
// RINEX header and in the event log.  The event log is written to a daily
// file in the directory given by the config.  The number of records
// handled is written to the event log on the schedule given by the config
// ("@every 1m" by default).
//
// Usage:
//
//	rinexconv -c config.json [-nav] [-v] [file]
//
// Examples:
//
//	rinexconv -c rinex.yaml capture.jsonl >obs.23o
//
//	rinexconv --config rinex.json -nav - <capture.jsonl >nav.23p
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/goblimey/go-tools/clock"
	"github.com/google/uuid"
	"github.com/robfig/cron"

	"github.com/goblimey/go-rinex/apps/appcore"
	"github.com/goblimey/go-rinex/capture"
	"github.com/goblimey/go-rinex/config"
	"github.com/goblimey/go-rinex/utils"
)

const appName = "rinexconv"

func main() {

	// Get the name of the config file (mandatory).
	var configFileName string
	flag.StringVar(&configFileName, "c", "", "JSON or YAML config file")
	flag.StringVar(&configFileName, "config", "", "JSON or YAML config file")

	var navigationMode bool
	flag.BoolVar(&navigationMode, "nav", false, "write a navigation file")

	var verbose bool
	flag.BoolVar(&verbose, "v", false, "log in detail")

	flag.Parse()

	if len(configFileName) == 0 {
		os.Stderr.Write([]byte("missing config file: -c or --config\n"))
		os.Exit(-1)
	}

	// Until we have the config we don't know where the event log goes, so
	// any errors go to stderr.
	stderrLog := log.New(os.Stderr, appName+": ", log.LstdFlags)
	cfg, err := config.GetConfig(configFileName, stderrLog)
	if err != nil {
		stderrLog.Fatal(err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	eventLog := utils.GetDailyLogger(cfg.EventLogDirectory, appName)
	cfg.SystemLog = eventLog

	runID := uuid.New().String()

	converter, err := NewConverter(cfg, os.Stdout, eventLog, clock.NewSystemClock(), runID, navigationMode)
	if err != nil {
		stderrLog.Fatal(err)
	}

	var input io.Reader
	if flag.NArg() > 0 {
		input, err = openFile(flag.Arg(0))
		if err != nil {
			stderrLog.Fatalf("cannot open %s - %v", flag.Arg(0), err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, converter, input); err != nil {
		stderrLog.Fatal(err)
	}
}

// run starts the progress reporter and the converter and feeds the input
// to them.  If input is nil, the input devices in the config are used.
func run(ctx context.Context, cfg *config.Config, converter *Converter, input io.Reader) error {
	converter.logf("run %s: started", converter.RunID)

	progressReporter := cron.New()
	if err := progressReporter.AddFunc(cfg.ProgressSchedule, converter.LogProgress); err != nil {
		return err
	}
	progressReporter.Start()
	defer progressReporter.Stop()

	recordChan := make(chan capture.Record, 10)
	consumerDone := make(chan error)
	go func() {
		consumerDone <- converter.Consume(recordChan)
	}()

	core := appcore.New(cfg, []chan capture.Record{recordChan})
	if input != nil {
		core.HandleRecordsUntilEOF(bufio.NewReader(input))
	} else {
		core.HandleRecords(ctx)
	}

	close(recordChan)
	err := <-consumerDone

	converter.LogProgress()
	converter.logf("run %s: finished", converter.RunID)

	return err
}

// openFile opens the given file and returns a Reader connected
// to it.  If the file name is "-" it returns os.Stdin
func openFile(fileName string) (io.Reader, error) {
	if fileName == "-" {
		return os.Stdin, nil
	}

	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}

	return file, nil
}
