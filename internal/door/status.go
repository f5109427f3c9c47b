package door

// Status enumerates the canonical door states.
//
// Exactly one status is current at any time. The zero value is StatusOpen;
// a Controller never reports a status before its startup resolve has run.
type Status int

// Door status values.
const (
	// StatusOpen means the door is settled at the fully open position.
	StatusOpen Status = iota

	// StatusOpening means the door was commanded open and has left the
	// closed position but not yet reached the open position.
	StatusOpening

	// StatusClosed means the door is settled at the fully closed position.
	StatusClosed

	// StatusClosing means the door was commanded closed and is in motion.
	StatusClosing

	// StatusStuck means a commanded motion did not complete within the
	// move timeout and the door is resting between positions.
	StatusStuck

	// StatusCancelled means an in-progress motion was countermanded before
	// it completed. The door is resting between positions.
	StatusCancelled

	// StatusError means both reed switches read active simultaneously,
	// which is physically impossible with healthy sensors.
	StatusError
)

// statusCount is the number of defined Status values. The transition and
// description tables are indexed by Status and sized by this constant.
const statusCount = 7

// descriptions holds the stable wire token for each status. These tokens are
// the external representation on every surface (HTTP, MQTT, line protocol)
// and must never change for a given status.
var descriptions = [statusCount]string{
	StatusOpen:      "open",
	StatusOpening:   "opening",
	StatusClosed:    "closed",
	StatusClosing:   "closing",
	StatusStuck:     "stuck",
	StatusCancelled: "cancelled",
	StatusError:     "reed_error",
}

// Description returns the stable wire token for the status.
// Out-of-range values report as the error token.
func (s Status) Description() string {
	if !s.Valid() {
		return descriptions[StatusError]
	}
	return descriptions[s]
}

// String implements fmt.Stringer using the wire token.
func (s Status) String() string {
	return s.Description()
}

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	return s >= 0 && int(s) < statusCount
}

// Faulted reports whether the door requires external attention before it
// will move again (stuck mid-travel or sensor fault).
func (s Status) Faulted() bool {
	return s == StatusStuck || s == StatusError
}

// Settled reports whether both sensors identify this status unambiguously.
// The remaining states all share the unsettled sensor pair and are
// distinguished only by commanded history.
func (s Status) Settled() bool {
	return s == StatusOpen || s == StatusClosed || s == StatusError
}

// ParseStatus maps a wire token back to its Status.
// The second return value is false for unrecognised tokens.
func ParseStatus(token string) (Status, bool) {
	for i, d := range descriptions {
		if d == token {
			return Status(i), true
		}
	}
	return StatusError, false
}
