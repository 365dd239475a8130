// The config package reads the configuration of the RINEX tools from a JSON or
// YAML file.  The format is chosen by the file extension: ".yaml" or ".yml"
// for YAML, anything else for JSON.
//
// An example JSON config file:
//
//	{
//	    "input": ["/dev/ttyACM0", "/dev/ttyACM1", "capture.jsonl"],
//	    "timeout": 1,
//	    "sleep_time": 2,
//	    "wait_time_on_EOF_millis": 100,
//	    "timeout_on_EOF_seconds": 0,
//	    "event_log_directory": "logs",
//	    "log_level": "debug",
//	    "progress_schedule": "@every 1m",
//	    "bands": {"GPS": ["L1", "L5"], "Galileo": ["E1", "E5a"]},
//	    "header": {
//	        "run_by": "goblimey",
//	        "marker_name": "LEAT",
//	        "approx_position": [3978694.1, -12245.5, 4968722.2]
//	    }
//	}
//
// The input list names the files that may carry the capture stream.  A
// receiver connected over serial USB may appear as any of several devices,
// so WaitAndConnectToInput tries each in turn until one can be opened.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goblimey/go-rinex/carrier"
	"github.com/goblimey/go-rinex/gnsstime"
	"github.com/goblimey/go-rinex/rinex/header"
	"github.com/goblimey/go-rinex/utils"
)

// Config file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Defaults applied when the file doesn't set a value.
const (
	DefaultEventLogDirectory = "logs"
	DefaultLogLevel          = "info"
	DefaultProgressSchedule  = "@every 1m"
	DefaultSleepTime         = 1
)

// HeaderConfig holds the RINEX header values that the data stream doesn't
// supply.
type HeaderConfig struct {
	Program            string     `json:"program" yaml:"program"`
	RunBy              string     `json:"run_by" yaml:"run_by"`
	Comments           []string   `json:"comments" yaml:"comments"`
	MarkerName         string     `json:"marker_name" yaml:"marker_name"`
	MarkerNumber       string     `json:"marker_number" yaml:"marker_number"`
	MarkerType         string     `json:"marker_type" yaml:"marker_type"`
	Observer           string     `json:"observer" yaml:"observer"`
	Agency             string     `json:"agency" yaml:"agency"`
	ReceiverNumber     string     `json:"receiver_number" yaml:"receiver_number"`
	ReceiverType       string     `json:"receiver_type" yaml:"receiver_type"`
	ReceiverVersion    string     `json:"receiver_version" yaml:"receiver_version"`
	AntennaNumber      string     `json:"antenna_number" yaml:"antenna_number"`
	AntennaType        string     `json:"antenna_type" yaml:"antenna_type"`
	ApproxPosition     [3]float64 `json:"approx_position" yaml:"approx_position"`
	AntennaDelta       [3]float64 `json:"antenna_delta" yaml:"antenna_delta"`
	SignalStrengthUnit string     `json:"signal_strength_unit" yaml:"signal_strength_unit"`

	// Interval is the observation interval in seconds.
	Interval float64 `json:"interval" yaml:"interval"`

	GlonassBiases []header.GlonassBias `json:"glonass_biases" yaml:"glonass_biases"`
}

// Config contains the values from the config file and a pointer to the
// system log.  To support unit testing, functions that need to write to
// the log get it from the config.
type Config struct {
	// Filenames lists the possible sources of the input stream.
	Filenames []string `json:"input" yaml:"input"`

	// LostInputConnectionTimeout is the read timeout on an input device in
	// seconds.
	LostInputConnectionTimeout uint `json:"timeout" yaml:"timeout"`

	// LostInputConnectionSleepTime is the time to sleep between connection
	// attempts in seconds.
	LostInputConnectionSleepTime uint `json:"sleep_time" yaml:"sleep_time"`

	// WaitTimeOnEOF is the time to wait before retrying a read that
	// returned EOF, in milliseconds.
	WaitTimeOnEOF uint `json:"wait_time_on_EOF_millis" yaml:"wait_time_on_EOF_millis"`

	// TimeoutOnEOF is how long to keep retrying on EOF, in seconds.  Zero
	// means stop at the first EOF.
	TimeoutOnEOF uint `json:"timeout_on_EOF_seconds" yaml:"timeout_on_EOF_seconds"`

	EventLogDirectory string `json:"event_log_directory" yaml:"event_log_directory"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `json:"log_level" yaml:"log_level"`

	// ProgressSchedule is a cron spec controlling how often progress is
	// logged, for example "@every 1m".
	ProgressSchedule string `json:"progress_schedule" yaml:"progress_schedule"`

	// Bands maps a constellation name to the carrier bands recorded for it.
	Bands map[string][]string `json:"bands" yaml:"bands"`

	Header HeaderConfig `json:"header" yaml:"header"`

	// SystemLog is used for logging and can be nil.  It's not supplied in
	// the file.
	SystemLog *log.Logger `json:"-" yaml:"-"`

	// logging indicates that connection attempts should be logged.
	logging bool
}

// GetConfig gets the config from the given file.
func GetConfig(configFileName string, systemLog *log.Logger) (*Config, error) {
	file, err := os.Open(configFileName)
	if err != nil {
		em := fmt.Sprintf("[-] Cannot open config file: %s", err.Error())
		slog.Error(em)
		return nil, err
	}
	defer file.Close()

	return getConfigFromReader(file, FormatFor(configFileName), systemLog)
}

// FormatFor returns the config format implied by the file name.
func FormatFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// getConfigFromReader gets the config from the given reader.
func getConfigFromReader(configReader io.Reader, format string, systemLog *log.Logger) (*Config, error) {
	data, errRead := io.ReadAll(configReader)
	if errRead != nil {
		em := fmt.Sprintf("[-] Error reading config file: %s", errRead.Error())
		slog.Error(em)
		return nil, errRead
	}

	config, parseError := parseConfigFromBytes(data, format)
	if parseError != nil {
		em := fmt.Sprintf("[-] Not a valid config file: %s", parseError.Error())
		slog.Error(em)
		return nil, parseError
	}

	// Set the fields that are not set by the file.
	config.SystemLog = systemLog
	config.logging = systemLog != nil

	return config, nil
}

// parseConfigFromBytes parses the config, checks it and applies the
// defaults.
func parseConfigFromBytes(data []byte, format string) (*Config, error) {
	var config Config

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}

	if _, err := config.ObservationBands(); err != nil {
		return nil, err
	}

	if _, err := config.SlogLevel(); err != nil {
		return nil, err
	}

	config.applyDefaults()

	return &config, nil
}

// applyDefaults sets the values that the file left empty.
func (config *Config) applyDefaults() {
	if len(config.EventLogDirectory) == 0 {
		config.EventLogDirectory = DefaultEventLogDirectory
	}
	if len(config.LogLevel) == 0 {
		config.LogLevel = DefaultLogLevel
	}
	if len(config.ProgressSchedule) == 0 {
		config.ProgressSchedule = DefaultProgressSchedule
	}
	if config.LostInputConnectionSleepTime == 0 {
		config.LostInputConnectionSleepTime = DefaultSleepTime
	}
}

// SlogLevel returns the log level as a slog.Level.
func (config *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(config.LogLevel) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("unknown log level " + config.LogLevel)
	}
}

// ObservationBands converts the bands in the config to constellations and
// carrier labels.  The result is nil if no bands are given.
func (config *Config) ObservationBands() (map[utils.Constellation][]carrier.Label, error) {
	if len(config.Bands) == 0 {
		return nil, nil
	}

	result := make(map[utils.Constellation][]carrier.Label)
	for name, labels := range config.Bands {
		constellation, err := utils.ParseConstellation(name)
		if err != nil {
			return nil, err
		}
		for _, label := range labels {
			result[constellation] = append(result[constellation], carrier.Label(label))
		}
	}
	return result, nil
}

// ObsHeader returns an observation header built from the config plus the
// values that come from the data.
func (config *Config) ObsHeader(
	types map[utils.Constellation][]string,
	firstObservation gnsstime.Time,
	slots []header.GlonassSlot,
	comments ...string,
) *header.ObsHeader {
	h := &config.Header
	return &header.ObsHeader{
		Program:            h.Program,
		RunBy:              h.RunBy,
		Comments:           append(append([]string{}, h.Comments...), comments...),
		MarkerName:         h.MarkerName,
		MarkerNumber:       h.MarkerNumber,
		MarkerType:         h.MarkerType,
		Observer:           h.Observer,
		Agency:             h.Agency,
		ReceiverNumber:     h.ReceiverNumber,
		ReceiverType:       h.ReceiverType,
		ReceiverVersion:    h.ReceiverVersion,
		AntennaNumber:      h.AntennaNumber,
		AntennaType:        h.AntennaType,
		ApproxPosition:     h.ApproxPosition,
		AntennaDelta:       h.AntennaDelta,
		ObservationTypes:   types,
		SignalStrengthUnit: h.SignalStrengthUnit,
		Interval:           h.Interval,
		FirstObservation:   firstObservation,
		GlonassSlots:       slots,
		GlonassBiases:      h.GlonassBiases,
	}
}

// NavHeader returns a navigation header built from the config.
func (config *Config) NavHeader(leapSeconds int, comments ...string) *header.NavHeader {
	return &header.NavHeader{
		Program:     config.Header.Program,
		RunBy:       config.Header.RunBy,
		Comments:    append(append([]string{}, config.Header.Comments...), comments...),
		LeapSeconds: leapSeconds,
	}
}

// RetryIntervalOnEOF returns the time to wait between reads on EOF.
func (config *Config) RetryIntervalOnEOF() time.Duration {
	return time.Duration(config.WaitTimeOnEOF) * time.Millisecond
}

// EOFTimeout returns how long to keep retrying on EOF.
func (config *Config) EOFTimeout() time.Duration {
	return time.Duration(config.TimeoutOnEOF) * time.Second
}

// WaitAndConnectToInput tries repeatedly to connect to one of the input
// files.  It returns nil if the context is cancelled first.
func WaitAndConnectToInput(ctx context.Context, config *Config) io.Reader {
	for {
		reader := findInputDevice(ctx, config)
		if reader != nil {
			if config.logging {
				config.SystemLog.Println("waitAndConnect: connected to GNSS source")
			}
			return reader // Success!
		}
		if config.logging {
			config.SystemLog.Println(
				"waitAndConnectToInput: failed to connect to GNSS source.  Retrying")
		}

		sleepTime := time.Duration(config.LostInputConnectionSleepTime) * time.Second
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleepTime):
		}
	}
}

// findInputDevice returns a reader connected to the first of the input
// files that can be opened, or nil if none can.
func findInputDevice(ctx context.Context, config *Config) io.Reader {
	if ctx.Err() != nil {
		return nil
	}

	// The device names "/dev/ttyACM0" etc on a Raspberry Pi are used in
	// turn.  If the device loses power briefly, it comes back as the next
	// name in the list, so every connection attempt scans the whole list.
	file := getInputFile(config)
	if file == nil {
		return nil
	}
	return file
}

// getInputFile returns the first file in the list that it can open for
// reading, or nil.  A read timeout is set on the file if the config gives
// one.
func getInputFile(config *Config) *os.File {
	for _, name := range config.Filenames {
		file, err := os.Open(name)
		if err != nil {
			continue
		}
		if config.logging {
			config.SystemLog.Printf("getInputFile: found %s", name)
			// Turn off logging after the first successful scan.
			config.logging = false
		}
		if config.LostInputConnectionTimeout > 0 {
			deadline := time.Now().Add(time.Duration(config.LostInputConnectionTimeout) * time.Second)
			// Regular files have no deadline support and return an error here.
			file.SetReadDeadline(deadline)
		}
		return file
	}

	return nil
}
