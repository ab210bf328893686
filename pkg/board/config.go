package board

import (
	"flag"
	"os"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/robotalks/mcuasync/pkg/env"
	"github.com/robotalks/mcuasync/pkg/fairshare"
)

// Config provides the options to set up a simulated board.
type Config struct {
	// ID identifies the board in telemetry, defaults to the machine ID.
	ID string
	// TelemetryURL selects where events go, empty drops them.
	// e.g. mqtt://host:port/topic-prefix, ws://host/path, file:///path, -
	TelemetryURL string

	SPILatency   time.Duration
	SPIJitter    time.Duration
	SPILoopback  bool
	SpuriousRate float64

	// Hold is how long a task keeps the shared value.
	Hold time.Duration
	// StartStep staggers the start of the contending tasks.
	StartStep time.Duration
	// Gap is the pause of the first task before its second access.
	Gap time.Duration
	// Capacity is the wait list length of the shared value.
	Capacity int

	// Clock drives all timing, not settable from flags.
	Clock clock.Clock
}

var defaultConfig = Config{
	SPILatency: 2 * time.Millisecond,
	SPIJitter:  500 * time.Microsecond,
	Hold:       time.Second,
	StartStep:  100 * time.Millisecond,
	Gap:        5 * time.Second,
	Capacity:   fairshare.DefaultCapacity,
}

func init() {
	if val := os.Getenv("MCU_TELEMETRY_URL"); val != "" {
		defaultConfig.TelemetryURL = val
	}
	if val := os.Getenv("MCU_BOARD_ID"); val != "" {
		defaultConfig.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Board ID, defaults to machine ID")
	flag.StringVar(&defaultConfig.TelemetryURL, "telemetry", defaultConfig.TelemetryURL, "Telemetry URL")
	flag.DurationVar(&defaultConfig.SPILatency, "spi-latency", defaultConfig.SPILatency, "Duration of a DMA transfer")
	flag.DurationVar(&defaultConfig.SPIJitter, "spi-jitter", defaultConfig.SPIJitter, "Max extra duration of a DMA transfer")
	flag.BoolVar(&defaultConfig.SPILoopback, "spi-loopback", defaultConfig.SPILoopback, "Loop transmitted bytes back")
	flag.Float64Var(&defaultConfig.SpuriousRate, "spurious-rate", defaultConfig.SpuriousRate, "Probability of spurious SPI interrupts")
	flag.DurationVar(&defaultConfig.Hold, "hold", defaultConfig.Hold, "Duration a task holds the shared value")
	flag.DurationVar(&defaultConfig.StartStep, "start-step", defaultConfig.StartStep, "Start delay between contending tasks")
	flag.DurationVar(&defaultConfig.Gap, "gap", defaultConfig.Gap, "Pause of task 1 between its accesses")
	flag.IntVar(&defaultConfig.Capacity, "capacity", defaultConfig.Capacity, "Max waiters on the shared value")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	if conf.ID == "" {
		conf.ID = env.BoardID()
	}
	return &conf
}
