package door

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeSensors is a settable SensorReader for tests.
type fakeSensors struct {
	mu   sync.Mutex
	pair SensorPair
}

func (f *fakeSensors) Read(_ context.Context) (SensorPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pair, nil
}

func (f *fakeSensors) set(open, closed bool) {
	f.mu.Lock()
	f.pair = SensorPair{OpenSwitch: open, ClosedSwitch: closed}
	f.mu.Unlock()
}

// fakeActuator records pulses without sleeping.
type fakeActuator struct {
	mu     sync.Mutex
	pulses int
}

func (f *fakeActuator) Pulse(_ context.Context, _ time.Duration) error {
	f.mu.Lock()
	f.pulses++
	f.mu.Unlock()
	return nil
}

func (f *fakeActuator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulses
}

func newTestController(t *testing.T, protocol Protocol, pair SensorPair) (*Controller, *fakeSensors, *fakeActuator) {
	t.Helper()
	sensors := &fakeSensors{pair: pair}
	actuator := &fakeActuator{}
	c := New(Config{
		Protocol:    protocol,
		PulseWidth:  time.Millisecond,
		MoveTimeout: 50 * time.Millisecond,
	}, sensors, actuator)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return c, sensors, actuator
}

func drain(c *Controller) {
	for {
		select {
		case <-c.Events():
		default:
			return
		}
	}
}

func TestController_StartResolvesInitialStatus(t *testing.T) {
	tests := []struct {
		name string
		pair SensorPair
		want Status
	}{
		{"door open", SensorPair{OpenSwitch: true}, StatusOpen},
		{"door closed", SensorPair{ClosedSwitch: true}, StatusClosed},
		{"sensor fault", SensorPair{OpenSwitch: true, ClosedSwitch: true}, StatusError},
		{"between positions", SensorPair{}, StatusOpening},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestController(t, ProtocolDirectional, tt.pair)
			if got := c.Status(); got != tt.want {
				t.Errorf("Status() after Start = %v, want %v", got, tt.want)
			}

			select {
			case ev := <-c.Events():
				if ev.Source != SourceStartup || ev.Status != tt.want {
					t.Errorf("startup event = %+v, want source=startup status=%v", ev, tt.want)
				}
			default:
				t.Error("no startup event emitted")
			}
		})
	}
}

func TestController_LegacyCycle(t *testing.T) {
	c, _, actuator := newTestController(t, ProtocolLegacy, SensorPair{OpenSwitch: true})
	drain(c)

	want := []Status{StatusClosing, StatusOpening, StatusCancelled, StatusClosing}
	for i, w := range want {
		got, pulsed := c.Apply(context.Background(), CommandTrigger)
		if got != w || !pulsed {
			t.Fatalf("trigger %d: got (%v, %v), want (%v, true)", i+1, got, pulsed, w)
		}
	}
	if n := actuator.count(); n != len(want) {
		t.Errorf("actuator pulses = %d, want %d", n, len(want))
	}
}

func TestController_LegacyTriggerRefusedWhenFaulted(t *testing.T) {
	for _, pair := range []SensorPair{
		{OpenSwitch: true, ClosedSwitch: true}, // reed fault
	} {
		c, _, actuator := newTestController(t, ProtocolLegacy, pair)
		drain(c)

		got, pulsed := c.Apply(context.Background(), CommandTrigger)
		if got != StatusError || pulsed {
			t.Errorf("trigger while faulted: got (%v, %v), want (reed_error, false)", got, pulsed)
		}
		if actuator.count() != 0 {
			t.Error("actuator pulsed while faulted")
		}
	}
}

func TestController_LegacyTriggerRefusedWhenStuck(t *testing.T) {
	c, _, actuator := newTestController(t, ProtocolLegacy, SensorPair{ClosedSwitch: true})
	drain(c)

	c.Apply(context.Background(), CommandTrigger) // closed -> opening
	c.handleMoveTimeout(context.Background())     // still unsettled -> stuck
	if got := c.Status(); got != StatusStuck {
		t.Fatalf("status after move timeout = %v, want %v", got, StatusStuck)
	}

	before := actuator.count()
	got, pulsed := c.Apply(context.Background(), CommandTrigger)
	if got != StatusStuck || pulsed {
		t.Errorf("trigger while stuck: got (%v, %v), want (stuck, false)", got, pulsed)
	}
	if actuator.count() != before {
		t.Error("actuator pulsed while stuck")
	}
}

func TestController_DirectionalNoopAndMotion(t *testing.T) {
	tests := []struct {
		name       string
		pair       SensorPair
		cmd        Command
		wantStatus Status
		wantPulsed bool
	}{
		{"open while open is noop", SensorPair{OpenSwitch: true}, CommandOpen, StatusOpen, false},
		{"close while open moves", SensorPair{OpenSwitch: true}, CommandClose, StatusClosing, true},
		{"close while closed is noop", SensorPair{ClosedSwitch: true}, CommandClose, StatusClosed, false},
		{"open while closed moves", SensorPair{ClosedSwitch: true}, CommandOpen, StatusOpening, true},
		{"open while faulted is noop", SensorPair{OpenSwitch: true, ClosedSwitch: true}, CommandOpen, StatusError, false},
		{"close while faulted is noop", SensorPair{OpenSwitch: true, ClosedSwitch: true}, CommandClose, StatusError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, actuator := newTestController(t, ProtocolDirectional, tt.pair)
			drain(c)

			got, pulsed := c.Apply(context.Background(), tt.cmd)
			if got != tt.wantStatus || pulsed != tt.wantPulsed {
				t.Errorf("Apply(%v) = (%v, %v), want (%v, %v)", tt.cmd, got, pulsed, tt.wantStatus, tt.wantPulsed)
			}
			wantPulses := 0
			if tt.wantPulsed {
				wantPulses = 1
			}
			if actuator.count() != wantPulses {
				t.Errorf("actuator pulses = %d, want %d", actuator.count(), wantPulses)
			}
		})
	}
}

func TestController_DirectionalReversalMidMotion(t *testing.T) {
	c, sensors, _ := newTestController(t, ProtocolDirectional, SensorPair{OpenSwitch: true})
	drain(c)

	// Door leaves the open position.
	c.Apply(context.Background(), CommandClose)
	sensors.set(false, false)
	c.handleEdge(context.Background())
	if got := c.Status(); got != StatusClosing {
		t.Fatalf("status mid-close = %v, want %v", got, StatusClosing)
	}

	got, pulsed := c.Apply(context.Background(), CommandOpen)
	if got != StatusOpening || !pulsed {
		t.Errorf("reversal: got (%v, %v), want (opening, true)", got, pulsed)
	}
}

func TestController_DirectionalCancelThenEdgeKeepsCancelled(t *testing.T) {
	c, sensors, _ := newTestController(t, ProtocolDirectional, SensorPair{ClosedSwitch: true})
	drain(c)

	c.Apply(context.Background(), CommandOpen) // closed -> opening
	sensors.set(false, false)
	c.handleEdge(context.Background())

	got, pulsed := c.Apply(context.Background(), CommandClose)
	if got != StatusCancelled || !pulsed {
		t.Fatalf("countermand: got (%v, %v), want (cancelled, true)", got, pulsed)
	}

	// Transient unsettled edges must not reclassify the cancelled motion.
	c.handleEdge(context.Background())
	if got := c.Status(); got != StatusCancelled {
		t.Errorf("status after edge = %v, want %v", got, StatusCancelled)
	}
}

func TestController_RefreshIdempotent(t *testing.T) {
	c, _, actuator := newTestController(t, ProtocolDirectional, SensorPair{ClosedSwitch: true})
	drain(c)

	for i := 0; i < 5; i++ {
		got, pulsed := c.Apply(context.Background(), CommandRefresh)
		if got != StatusClosed || pulsed {
			t.Fatalf("refresh %d: got (%v, %v), want (closed, false)", i+1, got, pulsed)
		}
	}
	if actuator.count() != 0 {
		t.Error("refresh pulsed the actuator")
	}

	select {
	case ev := <-c.Events():
		t.Errorf("refresh with unchanged sensors emitted event %+v", ev)
	default:
	}
}

func TestController_InvalidAndEmptyCommandsAreNoops(t *testing.T) {
	c, _, actuator := newTestController(t, ProtocolDirectional, SensorPair{OpenSwitch: true})
	drain(c)

	for _, cmd := range []Command{CommandInvalid, CommandNone, CommandTrigger} {
		got, pulsed := c.Apply(context.Background(), cmd)
		if got != StatusOpen || pulsed {
			t.Errorf("Apply(%v) = (%v, %v), want (open, false)", cmd, got, pulsed)
		}
	}
	if actuator.count() != 0 {
		t.Error("no-op command pulsed the actuator")
	}
}

func TestController_MoveTimeoutEscalatesToStuck(t *testing.T) {
	c, _, _ := newTestController(t, ProtocolDirectional, SensorPair{ClosedSwitch: true})
	drain(c)

	c.Apply(context.Background(), CommandOpen)
	c.handleMoveTimeout(context.Background())

	if got := c.Status(); got != StatusStuck {
		t.Fatalf("status after timeout = %v, want %v", got, StatusStuck)
	}

	// Directional commands self-loop out of stuck: no pulse, no change.
	got, pulsed := c.Apply(context.Background(), CommandOpen)
	if got != StatusStuck || pulsed {
		t.Errorf("open while stuck: got (%v, %v), want (stuck, false)", got, pulsed)
	}
}

func TestController_MoveTimeoutCompletedMotionSettles(t *testing.T) {
	c, sensors, _ := newTestController(t, ProtocolDirectional, SensorPair{ClosedSwitch: true})
	drain(c)

	c.Apply(context.Background(), CommandOpen)
	sensors.set(true, false) // door reached open, edge was missed
	c.handleMoveTimeout(context.Background())

	if got := c.Status(); got != StatusOpen {
		t.Errorf("status after timeout with settled sensors = %v, want %v", got, StatusOpen)
	}
}

func TestController_RunServicesEdges(t *testing.T) {
	c, sensors, _ := newTestController(t, ProtocolDirectional, SensorPair{ClosedSwitch: true})
	drain(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	edges := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx, edges)
	}()

	c.Apply(context.Background(), CommandOpen)
	sensors.set(true, false)
	edges <- struct{}{}

	deadline := time.After(time.Second)
	for c.Status() != StatusOpen {
		select {
		case <-deadline:
			t.Fatal("Run did not resolve edge within 1s")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestController_MoveTimeoutFiresThroughRun(t *testing.T) {
	c, _, _ := newTestController(t, ProtocolDirectional, SensorPair{ClosedSwitch: true})
	drain(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	edges := make(chan struct{})
	go func() { _ = c.Run(ctx, edges) }()

	c.Apply(context.Background(), CommandOpen)

	deadline := time.After(time.Second)
	for c.Status() != StatusStuck {
		select {
		case <-deadline:
			t.Fatal("move timeout did not fire within 1s")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestController_EventQueueBounded(t *testing.T) {
	sensors := &fakeSensors{pair: SensorPair{ClosedSwitch: true}}
	c := New(Config{
		Protocol:    ProtocolDirectional,
		PulseWidth:  time.Millisecond,
		MoveTimeout: time.Minute,
		QueueSize:   1,
	}, sensors, &fakeActuator{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Queue holds the startup event; the next two emissions must not block.
	done := make(chan struct{})
	go func() {
		c.Apply(context.Background(), CommandOpen)  // closed -> opening
		c.Apply(context.Background(), CommandClose) // opening -> cancelled
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full event queue")
	}

	if c.SnapshotStats().DroppedEvents == 0 {
		t.Error("expected dropped events to be counted")
	}
}

func TestController_StatsSnapshot(t *testing.T) {
	c, _, _ := newTestController(t, ProtocolLegacy, SensorPair{OpenSwitch: true})
	drain(c)

	c.Apply(context.Background(), CommandTrigger)
	stats := c.SnapshotStats()
	if stats.Pulses != 1 {
		t.Errorf("stats.Pulses = %d, want 1", stats.Pulses)
	}
	if stats.Status != "closing" {
		t.Errorf("stats.Status = %q, want %q", stats.Status, "closing")
	}
	if !stats.MoveArmed {
		t.Error("stats.MoveArmed = false after trigger, want true")
	}
}
