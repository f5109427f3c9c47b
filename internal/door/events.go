package door

import "time"

// Source identifies which path produced a status event.
type Source string

// Event sources.
const (
	// SourceStartup is the one-time resolve when the controller starts.
	SourceStartup Source = "startup"

	// SourceInterrupt is a resolve driven by a sensor edge.
	SourceInterrupt Source = "interrupt"

	// SourceTimeout is a resolve forced by the move timeout.
	SourceTimeout Source = "timeout"

	// SourceCommand is a status change caused by an inbound command.
	SourceCommand Source = "command"
)

// Event records one observation of door status for the audit/publish drain.
//
// Events are produced on a bounded queue by the controller and consumed by a
// single drain goroutine; the producing paths never block on downstream I/O.
type Event struct {
	// Status is the door status after this observation.
	Status Status `json:"status"`

	// Previous is the status before it. Equal to Status for resolves that
	// confirmed the current state.
	Previous Status `json:"previous"`

	// Source is the path that produced the event.
	Source Source `json:"source"`

	// Remote is true when the motion under way (or the command itself)
	// originated from the network rather than a physical cause.
	Remote bool `json:"remote"`

	// Pulsed is true when this event's command pulsed the relay.
	Pulsed bool `json:"pulsed"`

	// At is the observation time (UTC).
	At time.Time `json:"at"`
}
