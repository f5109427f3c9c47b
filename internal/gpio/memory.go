package gpio

import (
	"context"
	"sync"
	"time"

	"github.com/oakmoor-systems/doorcore/internal/door"
)

// Memory is the off-hardware driver. Sensor state is set programmatically
// and relay pulses are recorded instead of driving a pin. It backs tests
// and development on machines without GPIO.
type Memory struct {
	mu     sync.Mutex
	pair   door.SensorPair
	pulses []time.Duration
	edges  chan struct{}
	closed bool
}

// NewMemory creates a memory driver with both switches inactive.
func NewMemory() *Memory {
	return &Memory{edges: make(chan struct{}, 8)}
}

// Read returns the current simulated sensor pair.
func (m *Memory) Read(_ context.Context) (door.SensorPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return door.SensorPair{}, ErrClosed
	}
	return m.pair, nil
}

// Pulse records the pulse without sleeping for the full width.
func (m *Memory) Pulse(_ context.Context, width time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.pulses = append(m.pulses, width)
	return nil
}

// Watch forwards simulated edges until ctx is cancelled.
func (m *Memory) Watch(ctx context.Context, edges chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-m.edges:
			if !ok {
				return
			}
			select {
			case edges <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close stops the edge stream.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.edges)
	}
	return nil
}

// SetPair updates the simulated sensors and fires an edge, mimicking the
// hardware interrupt that accompanies a reed-switch transition.
func (m *Memory) SetPair(pair door.SensorPair) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	changed := m.pair != pair
	m.pair = pair
	m.mu.Unlock()

	if changed {
		select {
		case m.edges <- struct{}{}:
		default:
		}
	}
}

// Pulses returns the recorded pulse widths.
func (m *Memory) Pulses() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.pulses))
	copy(out, m.pulses)
	return out
}
