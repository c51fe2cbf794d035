// Package config defines the analyzer's runtime configuration: CLI flags
// bound with cobra, with an optional JSON overlay file for settings that
// don't fit comfortably on a command line (the per-payload-type clock
// rate table).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"centrifuge/internal/centrifuge"
)

// OutputFormat selects the formatter used to render classified frames.
type OutputFormat string

const (
	FormatCompact OutputFormat = "compact"
	FormatDebug   OutputFormat = "debug"
	FormatJSON    OutputFormat = "json"
)

// Config is the fully resolved configuration for one analyzer run.
type Config struct {
	Version string `json:"version"`

	Device   string `json:"-"`
	ReadFile string `json:"-"`
	Promisc  bool   `json:"-"`

	LocalIP string `json:"-"`

	Verbosity centrifuge.Verbosity `json:"-"`
	Threads   int                  `json:"-"`

	OutputFormat OutputFormat `json:"-"`

	Discriminator centrifuge.DiscriminatorConfig `json:"-"`

	// ClockRates maps an RTP payload type to its sample rate in Hz, for
	// flow-loss estimation. Entries not present here fall back to
	// DefaultClockRate. JSON overlay only: there is no sane way to pass a
	// map of this shape on the command line.
	ClockRates map[uint8]uint32 `json:"clock_rates,omitempty"`

	// FrameDurationUs is the assumed per-packet frame duration in
	// microseconds, used alongside ClockRates for loss estimation.
	FrameDurationUs int64 `json:"frame_duration_us,omitempty"`

	MetricsAddr string `json:"-"`
}

const version = "1.0.0"

// rfc3551StaticClockRates pre-populates the narrowband codecs RFC 3551
// assigns a fixed (non-dynamic) payload type and an 8kHz clock, since
// those are the only payload types this analyzer can resolve without a
// prior SDP negotiation it never sees.
var rfc3551StaticClockRates = map[uint8]uint32{
	0: 8000, // PCMU
	3: 8000, // GSM
	4: 8000, // G723
	8: 8000, // PCMA
	9: 8000, // G722 (nominally 16kHz audio, 8kHz RTP clock per RFC 3551)
}

// Default returns a Config with the analyzer's documented defaults:
// parity port heuristic, compact output, quiet verbosity. Threads is left
// at zero here; the CLI's --threads flag supplies the one-worker-per-CPU
// default.
func Default() Config {
	rates := make(map[uint8]uint32, len(rfc3551StaticClockRates))
	for pt, rate := range rfc3551StaticClockRates {
		rates[pt] = rate
	}
	return Config{
		Version:         version,
		Verbosity:       centrifuge.VerbosityQuiet,
		OutputFormat:    FormatCompact,
		Discriminator:   centrifuge.DefaultDiscriminatorConfig(),
		ClockRates:      rates,
		FrameDurationUs: 20000,
		MetricsAddr:     ":9091",
	}
}

// ClockRateFor resolves the clock rate for an RTP payload type, falling
// back to the default (48kHz) for dynamic or unrecognized types.
func (c Config) ClockRateFor(pt uint8) uint32 {
	if rate, ok := c.ClockRates[pt]; ok {
		return rate
	}
	return 48000
}

// LoadOverlay merges a JSON overlay file's fields into cfg. Only fields
// meaningful to set outside the command line are read from it: payload
// type clock rates and the frame duration assumption.
func LoadOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config overlay: %w", err)
	}

	var overlay struct {
		ClockRates      map[uint8]uint32 `json:"clock_rates"`
		FrameDurationUs int64            `json:"frame_duration_us"`
	}
	if err := json.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config overlay: %w", err)
	}

	for pt, rate := range overlay.ClockRates {
		cfg.ClockRates[pt] = rate
	}
	if overlay.FrameDurationUs > 0 {
		cfg.FrameDurationUs = overlay.FrameDurationUs
	}
	return nil
}
