package gpio

import (
	"context"
	"fmt"
	"time"

	"github.com/oakmoor-systems/doorcore/internal/door"
)

// Driver names accepted in configuration.
const (
	DriverPeriph = "periph"
	DriverMemory = "memory"
)

// Default edge debounce applied when config leaves it zero.
const defaultDebounce = 50 * time.Millisecond

// Config holds GPIO wiring and driver selection.
type Config struct {
	// Driver selects the implementation: "periph" or "memory".
	Driver string

	// OpenSwitchPin and ClosedSwitchPin are the reed-switch input pins
	// (BCM numbering on a Raspberry Pi).
	OpenSwitchPin   int
	ClosedSwitchPin int

	// RelayPin is the actuator relay output pin.
	RelayPin int

	// ActiveLow inverts the switch reading for normally-closed wiring:
	// when true, a low level means the switch is active.
	ActiveLow bool

	// Debounce suppresses edge deliveries closer together than this.
	Debounce time.Duration
}

// Interface is the full hardware surface the controller needs: synchronous
// sensor reads, the relay pulse, and an edge stream for the interrupt path.
type Interface interface {
	door.SensorReader
	door.Actuator

	// Watch delivers one value on edges per reed-switch transition until
	// ctx is cancelled. It blocks; run it in its own goroutine.
	Watch(ctx context.Context, edges chan<- struct{})

	// Close releases hardware resources.
	Close() error
}

// Open creates the configured driver.
func Open(cfg Config) (Interface, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	switch cfg.Driver {
	case DriverPeriph:
		return newPeriph(cfg)
	case DriverMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
