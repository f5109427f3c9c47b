package gpio

import (
	"context"
	"fmt"
	"sync"
	"time"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/oakmoor-systems/doorcore/internal/door"
)

// edgeWaitTimeout bounds each WaitForEdge call so the watcher goroutines
// notice context cancellation promptly.
const edgeWaitTimeout = time.Second

// periphIO is the real-hardware driver built on periph.io.
type periphIO struct {
	cfg        config
	openPin    pgpio.PinIO
	closedPin  pgpio.PinIO
	relayPin   pgpio.PinIO
	relayMu    sync.Mutex
	closedOnce sync.Once
	done       chan struct{}
}

// config is the subset of Config the driver keeps after validation.
type config struct {
	activeLow bool
	debounce  time.Duration
}

// newPeriph initialises the periph host and claims the three pins.
// Switch inputs use the internal pull-up with both-edge interrupts; the
// relay output starts released (low).
func newPeriph(cfg Config) (*periphIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	openPin, err := inputPin(cfg.OpenSwitchPin)
	if err != nil {
		return nil, err
	}
	closedPin, err := inputPin(cfg.ClosedSwitchPin)
	if err != nil {
		return nil, err
	}

	relayPin := gpioreg.ByName(fmt.Sprintf("GPIO%d", cfg.RelayPin))
	if relayPin == nil {
		return nil, fmt.Errorf("%w: GPIO%d", ErrPinNotFound, cfg.RelayPin)
	}
	if err := relayPin.Out(pgpio.Low); err != nil {
		return nil, fmt.Errorf("configuring relay pin GPIO%d: %w", cfg.RelayPin, err)
	}

	return &periphIO{
		cfg:       config{activeLow: cfg.ActiveLow, debounce: cfg.Debounce},
		openPin:   openPin,
		closedPin: closedPin,
		relayPin:  relayPin,
		done:      make(chan struct{}),
	}, nil
}

// inputPin claims a reed-switch pin as a pulled-up both-edge input.
func inputPin(pin int) (pgpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return nil, fmt.Errorf("%w: GPIO%d", ErrPinNotFound, pin)
	}
	if err := p.In(pgpio.PullUp, pgpio.BothEdges); err != nil {
		return nil, fmt.Errorf("configuring input pin GPIO%d: %w", pin, err)
	}
	return p, nil
}

// Read samples both reed switches synchronously.
func (p *periphIO) Read(_ context.Context) (door.SensorPair, error) {
	select {
	case <-p.done:
		return door.SensorPair{}, ErrClosed
	default:
	}
	return door.SensorPair{
		OpenSwitch:   p.level(p.openPin),
		ClosedSwitch: p.level(p.closedPin),
	}, nil
}

// level converts a pin reading to the logical switch state, honouring
// active-low wiring.
func (p *periphIO) level(pin pgpio.PinIO) bool {
	high := pin.Read() == pgpio.High
	if p.cfg.activeLow {
		return !high
	}
	return high
}

// Pulse holds the relay high for width, then releases it. The pulse always
// runs to completion once started; ctx is only honoured before the output
// goes high.
func (p *periphIO) Pulse(ctx context.Context, width time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	p.relayMu.Lock()
	defer p.relayMu.Unlock()

	if err := p.relayPin.Out(pgpio.High); err != nil {
		return fmt.Errorf("raising relay: %w", err)
	}
	time.Sleep(width)
	if err := p.relayPin.Out(pgpio.Low); err != nil {
		return fmt.Errorf("releasing relay: %w", err)
	}
	return nil
}

// Watch runs one watcher per reed switch and funnels debounced transitions
// into edges. It returns when ctx is cancelled or the driver is closed.
func (p *periphIO) Watch(ctx context.Context, edges chan<- struct{}) {
	var wg sync.WaitGroup
	for _, pin := range []pgpio.PinIO{p.openPin, p.closedPin} {
		wg.Add(1)
		go func(pin pgpio.PinIO) {
			defer wg.Done()
			p.watchPin(ctx, pin, edges)
		}(pin)
	}
	wg.Wait()
}

// watchPin blocks on hardware edge detection for a single pin.
func (p *periphIO) watchPin(ctx context.Context, pin pgpio.PinIO, edges chan<- struct{}) {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		default:
		}

		if !pin.WaitForEdge(edgeWaitTimeout) {
			continue // timeout, poll cancellation again
		}

		now := time.Now()
		if now.Sub(last) < p.cfg.debounce {
			continue
		}
		last = now

		select {
		case edges <- struct{}{}:
		case <-ctx.Done():
			return
		case <-p.done:
			return
		}
	}
}

// Close releases the pins and stops the watchers.
func (p *periphIO) Close() error {
	p.closedOnce.Do(func() {
		close(p.done)
		// Make sure the relay is released on shutdown.
		p.relayMu.Lock()
		_ = p.relayPin.Out(pgpio.Low)
		p.relayMu.Unlock()
		_ = p.openPin.Halt()
		_ = p.closedPin.Halt()
	})
	return nil
}
