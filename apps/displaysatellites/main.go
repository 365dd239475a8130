// displaysatellites reads an NMEA 0183 stream from stdin or a file and
// writes a readable summary of the satellites that the receiver can see,
// one summary per fix.  Each summary gives the number of satellites and
// signals in view and in use and the constellations seen.  With -v each
// satellite and signal is listed too.
//
// NMEA doesn't give carrier frequencies, so the signals are not assigned
// to carrier bands and each satellite is shown with one UNSUPPORTED signal.
//
// For example:
//
//	fix 1
//	satellites: 2 in view, 1 used; signals: 2 in view, 1 used
//	constellations: GPS
//	carrier labels: none
//	dual frequency: in view false, in use false
//	non-primary carrier: in view false, in use false
//	unknown carrier signals: 0, duplicate carrier signals: 0
//
// Usage:
//
//	displaysatellites [-v] file
//
// Examples:
//
//	displaysatellites receiver.nmea
//
//	displaysatellites -v - # take input from the standard input channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/goblimey/go-rinex/nmeasource"
	"github.com/goblimey/go-rinex/status/group"
	"github.com/goblimey/go-rinex/status/signal"
)

func main() {

	var verbose bool
	flag.BoolVar(&verbose, "v", false, "list every satellite and signal")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalf("usage: %s [-v] file", os.Args[0])
	}
	appName := os.Args[0]

	fileName := flag.Arg(0)
	reader, openError := openFile(fileName)
	if openError != nil {
		log.Fatalf("%s: cannot open %s - %v", appName, fileName, openError)
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	systemLog := log.New(os.Stderr, appName+": ", log.LstdFlags)

	err := HandleSnapshots(context.Background(), reader, os.Stdout, logLevel, systemLog)
	if err != nil {
		log.Fatalf("%s: %v", appName, err)
	}

	os.Exit(0)
}

// HandleSnapshots reads the NMEA stream and writes a summary of each fix to
// the writer.
func HandleSnapshots(ctx context.Context, reader io.Reader, writer io.Writer, logLevel slog.Level, systemLog *log.Logger) error {

	snapshotChan := make(chan []signal.Status, 2)
	source := nmeasource.New(snapshotChan, systemLog)

	// The source closes the channel when it's finished, which stops the
	// display goroutine.
	displayDone := make(chan error)
	go func() {
		displayDone <- DisplaySnapshots(snapshotChan, writer, logLevel)
	}()

	readError := source.Handle(ctx, reader)
	displayError := <-displayDone

	if readError != nil {
		return readError
	}
	return displayError
}

// DisplaySnapshots receives snapshots from the given channel, aggregates
// each one and writes a readable summary to the writer.  It can be run in
// a goroutine.  After a write error it carries on draining the channel so
// that the sender isn't blocked.
func DisplaySnapshots(snapshotChan chan []signal.Status, writer io.Writer, logLevel slog.Level) error {
	var writeError error
	fix := 0
	for snapshot := range snapshotChan {
		if writeError != nil {
			continue
		}
		fix++
		g := group.Aggregate(snapshot, logLevel)
		display := fmt.Sprintf("fix %d\n%s\n", fix, g.String())
		_, writeError = writer.Write([]byte(display))
	}
	return writeError
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
