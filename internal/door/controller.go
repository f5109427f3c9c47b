package door

import (
	"context"
	"sync"
	"time"
)

// Default controller tuning. Overridable via Config.
const (
	// DefaultPulseWidth is how long the relay output is held high per pulse.
	DefaultPulseWidth = 1000 * time.Millisecond

	// DefaultMoveTimeout is how long after a commanded motion the status is
	// forcibly re-resolved from sensors.
	DefaultMoveTimeout = 20 * time.Second

	// DefaultQueueSize is the bounded event queue capacity.
	DefaultQueueSize = 64
)

// SensorReader samples the two reed switches synchronously.
// Implementations live in the gpio package; a read must not block beyond the
// hardware access itself.
type SensorReader interface {
	Read(ctx context.Context) (SensorPair, error)
}

// Actuator drives the relay output. Pulse holds the output high for width,
// then releases it, blocking the caller for the full duration.
type Actuator interface {
	Pulse(ctx context.Context, width time.Duration) error
}

// Logger is the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds controller tuning.
type Config struct {
	// Protocol selects the command surface (legacy or directional).
	Protocol Protocol

	// PulseWidth is the relay hold time per pulse.
	PulseWidth time.Duration

	// MoveTimeout is the single absolute deadline after a commanded motion.
	MoveTimeout time.Duration

	// QueueSize is the bounded event queue capacity.
	QueueSize int
}

// Controller owns the door status and the move timer.
//
// It is the only mutator of either: sensor edges and the move timeout reach
// it through Run, commands through Apply. All methods are safe for
// concurrent use. The mutex is held across the actuator pulse, so at most
// one command is in flight and a pulse always runs to completion before its
// status change commits.
type Controller struct {
	cfg      Config
	sensors  SensorReader
	actuator Actuator
	logger   Logger

	mu       sync.Mutex
	status   Status
	deadline time.Time // zero when no move timeout is armed
	remote   bool      // current motion was commanded over the network
	pulses   uint64
	dropped  uint64

	events chan Event
	kick   chan struct{} // wakes Run after the deadline changes
}

// New creates a Controller. Zero config fields take the package defaults.
func New(cfg Config, sensors SensorReader, actuator Actuator) *Controller {
	if cfg.PulseWidth <= 0 {
		cfg.PulseWidth = DefaultPulseWidth
	}
	if cfg.MoveTimeout <= 0 {
		cfg.MoveTimeout = DefaultMoveTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	return &Controller{
		cfg:      cfg,
		sensors:  sensors,
		actuator: actuator,
		logger:   noopLogger{},
		events:   make(chan Event, cfg.QueueSize),
		kick:     make(chan struct{}, 1),
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// Start performs the one-time startup resolve so the controller never
// reports an uninitialised status. It must be called before Run or Apply.
func (c *Controller) Start(ctx context.Context) error {
	pair, err := c.sensors.Read(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.status = Resolve(pair, c.status)
	st := c.status
	c.mu.Unlock()

	c.emit(Event{Status: st, Previous: st, Source: SourceStartup, At: time.Now().UTC()})
	c.logger.Info("door status initialised", "status", st.Description())
	return nil
}

// Run services sensor edges and the move timeout until ctx is cancelled.
// edges delivers one value per reed-switch transition; the value itself
// carries no data, the live pair is sampled at resolve time.
func (c *Controller) Run(ctx context.Context, edges <-chan struct{}) error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		c.mu.Lock()
		deadline := c.deadline
		c.mu.Unlock()

		var timerC <-chan time.Time
		if !deadline.IsZero() {
			timer.Reset(time.Until(deadline))
			timerC = timer.C
		}

		fired := false
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-c.kick:
			// Deadline changed; re-evaluate.
		case _, ok := <-edges:
			if !ok {
				timer.Stop()
				return nil
			}
			c.handleEdge(ctx)
		case <-timerC:
			fired = true
			c.handleMoveTimeout(ctx)
		}

		if timerC != nil && !fired && !timer.Stop() {
			// Drain a fire that raced the other select arms.
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

// handleEdge is the interrupt path: resolve against live sensors and clear
// the move timer. It performs no I/O beyond the sensor read; publication
// happens via the bounded event queue.
func (c *Controller) handleEdge(ctx context.Context) {
	pair, err := c.sensors.Read(ctx)
	if err != nil {
		c.logger.Warn("sensor read failed on edge", "error", err)
		return
	}

	c.mu.Lock()
	prev := c.status
	next := Resolve(pair, prev)
	c.status = next
	c.deadline = time.Time{}
	if next.Settled() {
		c.remote = false
	}
	remote := c.remote
	c.mu.Unlock()

	// Legacy firmware audited every interrupt-driven resolve, changed or
	// not; directional audits transitions only.
	if next != prev || c.cfg.Protocol == ProtocolLegacy {
		c.emit(Event{Status: next, Previous: prev, Source: SourceInterrupt, Remote: remote, At: time.Now().UTC()})
	}
	c.logger.Debug("edge resolve",
		"open_switch", pair.OpenSwitch,
		"closed_switch", pair.ClosedSwitch,
		"previous", prev.Description(),
		"status", next.Description(),
	)
}

// handleMoveTimeout forces a re-resolve after the expected motion duration.
// Directional protocol clears the timer so a stale deadline cannot re-fire;
// legacy keeps re-arming until a sensor edge clears it, matching the
// original poll-loop behaviour without busy-waiting.
func (c *Controller) handleMoveTimeout(ctx context.Context) {
	pair, err := c.sensors.Read(ctx)
	if err != nil {
		c.logger.Warn("sensor read failed on move timeout", "error", err)
		return
	}

	c.mu.Lock()
	prev := c.status
	next := Resolve(pair, prev)
	if !pair.OpenSwitch && !pair.ClosedSwitch && prev != StatusCancelled {
		// Still between positions when the motion window expired: the
		// sensors cannot say which way the door was heading, only that it
		// never arrived.
		next = StatusStuck
	}
	c.status = next
	if c.cfg.Protocol == ProtocolDirectional {
		c.deadline = time.Time{}
	} else {
		c.deadline = time.Now().Add(c.cfg.MoveTimeout)
	}
	if next.Settled() {
		c.remote = false
	}
	remote := c.remote
	c.mu.Unlock()

	if next != prev {
		c.emit(Event{Status: next, Previous: prev, Source: SourceTimeout, Remote: remote, At: time.Now().UTC()})
	}
	c.logger.Debug("move timeout resolve",
		"previous", prev.Description(),
		"status", next.Description(),
	)
}

// Apply executes a parsed command and reports the resulting status and
// whether the relay was pulsed. Invalid and empty commands are no-ops, as
// are commands belonging to the other protocol.
func (c *Controller) Apply(ctx context.Context, cmd Command) (Status, bool) {
	switch cmd {
	case CommandRefresh:
		return c.refresh(ctx), false
	case CommandTrigger:
		if c.cfg.Protocol != ProtocolLegacy {
			return c.Status(), false
		}
		return c.trigger(ctx)
	case CommandOpen, CommandClose:
		if c.cfg.Protocol != ProtocolDirectional {
			return c.Status(), false
		}
		return c.move(ctx, cmd)
	default:
		return c.Status(), false
	}
}

// refresh re-resolves status from live sensors on behalf of a command.
// Under the directional protocol every command renews the move timer.
func (c *Controller) refresh(ctx context.Context) Status {
	pair, err := c.sensors.Read(ctx)
	if err != nil {
		c.logger.Warn("sensor read failed on refresh", "error", err)
		return c.Status()
	}

	c.mu.Lock()
	prev := c.status
	next := Resolve(pair, prev)
	c.status = next
	if c.cfg.Protocol == ProtocolDirectional && !c.deadline.IsZero() {
		c.deadline = time.Now().Add(c.cfg.MoveTimeout)
	}
	if next.Settled() {
		c.remote = false
	}
	c.mu.Unlock()
	c.wake()

	if next != prev {
		c.emit(Event{Status: next, Previous: prev, Source: SourceCommand, Remote: true, At: time.Now().UTC()})
	}
	return next
}

// trigger implements the legacy single-command protocol: refuse when
// faulted, otherwise pulse unconditionally, arm the move timer, and take
// the cyclic next status from the table.
func (c *Controller) trigger(ctx context.Context) (Status, bool) {
	c.mu.Lock()
	prev := c.status
	if prev.Faulted() {
		c.mu.Unlock()
		c.logger.Warn("trigger refused", "status", prev.Description())
		return prev, false
	}

	c.pulseLocked(ctx)
	c.deadline = time.Now().Add(c.cfg.MoveTimeout)
	next := transitions[prev].onTrigger
	c.status = next
	c.remote = true
	c.mu.Unlock()
	c.wake()

	c.emit(Event{Status: next, Previous: prev, Source: SourceCommand, Remote: true, Pulsed: true, At: time.Now().UTC()})
	return next, true
}

// move implements the directional protocol. The move timer is renewed
// before the table lookup; the relay is pulsed only when the command causes
// an actual transition, so an already-satisfied direction is a no-op. Fault
// states need no explicit guard here: their table rows self-loop, which
// means no transition and therefore no pulse.
func (c *Controller) move(ctx context.Context, cmd Command) (Status, bool) {
	c.mu.Lock()
	c.deadline = time.Now().Add(c.cfg.MoveTimeout)
	prev := c.status

	row := transitions[prev]
	next := row.onOpen
	if cmd == CommandClose {
		next = row.onClose
	}

	pulsed := next != prev
	if pulsed {
		c.pulseLocked(ctx)
		c.status = next
		c.remote = true
	}
	c.mu.Unlock()
	c.wake()

	if pulsed {
		c.emit(Event{Status: next, Previous: prev, Source: SourceCommand, Remote: true, Pulsed: true, At: time.Now().UTC()})
	}
	return next, pulsed
}

// pulseLocked fires the relay with c.mu held. Holding the lock for the full
// pulse width serialises commands and defers edge handling until the pulse
// completes, so status never commits mid-pulse. Actuator failures are
// logged, not propagated: the commanded status stands and the next resolve
// corrects it if the door never moved.
func (c *Controller) pulseLocked(ctx context.Context) {
	c.pulses++
	if err := c.actuator.Pulse(ctx, c.cfg.PulseWidth); err != nil {
		c.logger.Error("actuator pulse failed", "error", err)
	}
}

// emit places an event on the bounded queue without blocking. A full queue
// drops the event and counts it; dropping is preferable to stalling the
// edge path on downstream I/O.
func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.mu.Lock()
		c.dropped++
		n := c.dropped
		c.mu.Unlock()
		c.logger.Warn("event queue full, dropping event",
			"status", ev.Status.Description(),
			"source", string(ev.Source),
			"dropped_total", n,
		)
	}
}

// wake nudges Run to re-read the move deadline.
func (c *Controller) wake() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Events returns the receive side of the bounded event queue. A single
// drain goroutine should consume it and perform all downstream publishing
// (audit, MQTT, WebSocket, telemetry).
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Status returns the current door status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Description returns the wire token for the current status.
func (c *Controller) Description() string {
	return c.Status().Description()
}

// Protocol returns the active command protocol.
func (c *Controller) Protocol() Protocol {
	return c.cfg.Protocol
}

// Stats is a snapshot of controller counters.
type Stats struct {
	Status        string `json:"status"`
	Protocol      string `json:"protocol"`
	Pulses        uint64 `json:"pulses"`
	DroppedEvents uint64 `json:"dropped_events"`
	MoveArmed     bool   `json:"move_timer_armed"`
}

// SnapshotStats returns current counters for the API and health surfaces.
func (c *Controller) SnapshotStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Status:        c.status.Description(),
		Protocol:      c.cfg.Protocol.String(),
		Pulses:        c.pulses,
		DroppedEvents: c.dropped,
		MoveArmed:     !c.deadline.IsZero(),
	}
}
