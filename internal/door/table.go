package door

// SensorPair holds one synchronous sample of the two reed switches.
// True means the switch is active (magnet present at that end of travel).
// The pair is sampled at resolve time and never persisted.
type SensorPair struct {
	OpenSwitch   bool `json:"open_switch"`
	ClosedSwitch bool `json:"closed_switch"`
}

// transition is one row of the door transition table.
//
// expect identifies the status when the door is settled: a sampled pair that
// equals expect resolves to this row (subject to resolveOrder below). The
// next-status fields give the outcome of each command for a door currently
// in this status; onTrigger serves the legacy protocol, onOpen and onClose
// the directional one. Fault states self-loop in every column.
type transition struct {
	expect    SensorPair
	onTrigger Status
	onOpen    Status
	onClose   Status
}

// transitions is the complete transition table, indexed by Status.
//
// The three settled states own distinct sensor pairs: open is (1,0), closed
// is (0,1), and both-active (1,1) can only be a sensor fault. All in-motion
// states share the unsettled pair (0,0) and cannot be told apart by sensors
// alone; motion direction survives only through the previously commanded
// status, which is why Resolve defers to resolveOrder for that pair.
var transitions = [statusCount]transition{
	StatusOpen: {
		expect:    SensorPair{OpenSwitch: true, ClosedSwitch: false},
		onTrigger: StatusClosing,
		onOpen:    StatusOpen, // already satisfied, no pulse
		onClose:   StatusClosing,
	},
	StatusOpening: {
		expect:    SensorPair{},
		onTrigger: StatusCancelled,
		onOpen:    StatusOpening,
		onClose:   StatusCancelled, // countermanded mid-travel
	},
	StatusClosed: {
		expect:    SensorPair{OpenSwitch: false, ClosedSwitch: true},
		onTrigger: StatusOpening,
		onOpen:    StatusOpening,
		onClose:   StatusClosed,
	},
	StatusClosing: {
		expect:    SensorPair{},
		onTrigger: StatusOpening,
		onOpen:    StatusOpening, // direction reversal
		onClose:   StatusClosing,
	},
	StatusStuck: {
		expect:    SensorPair{},
		onTrigger: StatusStuck,
		onOpen:    StatusStuck,
		onClose:   StatusStuck,
	},
	StatusCancelled: {
		expect:    SensorPair{},
		onTrigger: StatusClosing,
		onOpen:    StatusOpening,
		onClose:   StatusClosing,
	},
	StatusError: {
		expect:    SensorPair{OpenSwitch: true, ClosedSwitch: true},
		onTrigger: StatusError,
		onOpen:    StatusError,
		onClose:   StatusError,
	},
}

// resolveOrder fixes the scan order for Resolve. The settled rows are
// disjoint, so order only matters for the shared unsettled pair: (0,0)
// resolves to the first in-motion row, StatusOpening. Stuck and Cancelled
// are never re-derived from sensors; they are only entered through the
// transition table or the move timeout, and Cancelled is preserved by the
// disambiguation rule in Resolve.
var resolveOrder = [statusCount]Status{
	StatusOpen,
	StatusOpening,
	StatusClosed,
	StatusClosing,
	StatusStuck,
	StatusCancelled,
	StatusError,
}

// Resolve derives the canonical status from a sampled sensor pair.
//
// For every pair except the unsettled (0,0) the result is a pure function of
// the pair alone. For (0,0) the previous status matters twice over: a
// cancelled motion stays cancelled rather than being reclassified as a
// generic opening, and otherwise the first in-motion row wins, relying on
// the command path to have set the true motion direction before motion
// began.
//
// Every pair in the sensor domain matches a row, so the fallback to
// StatusError is unreachable with healthy wiring; it exists so a widened or
// misread sensor domain degrades to a visible fault rather than undefined
// behaviour.
func Resolve(pair SensorPair, previous Status) Status {
	if previous == StatusCancelled && !pair.OpenSwitch && !pair.ClosedSwitch {
		return StatusCancelled
	}
	for _, s := range resolveOrder {
		if transitions[s].expect == pair {
			return s
		}
	}
	return StatusError
}
