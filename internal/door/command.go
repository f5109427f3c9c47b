package door

import "fmt"

// Protocol selects which command surface the engine speaks.
// Both protocols share the transition table; they differ in the commands
// they recognise, the pulse decision, and move-timer bookkeeping.
type Protocol int

const (
	// ProtocolLegacy recognises a single "trigger" command that cycles the
	// door through its motion schedule. Triggers always pulse the relay
	// unless the door is stuck or faulted.
	ProtocolLegacy Protocol = iota

	// ProtocolDirectional recognises explicit "open" and "close" commands.
	// The relay is pulsed only when the command changes the status.
	ProtocolDirectional
)

// Protocol config tokens.
const (
	protocolLegacyToken      = "legacy"
	protocolDirectionalToken = "directional"
)

// ParseProtocol maps a configuration token to a Protocol.
func ParseProtocol(token string) (Protocol, error) {
	switch token {
	case protocolLegacyToken:
		return ProtocolLegacy, nil
	case protocolDirectionalToken:
		return ProtocolDirectional, nil
	default:
		return ProtocolLegacy, fmt.Errorf("unknown door protocol %q", token)
	}
}

// String returns the configuration token for the protocol.
func (p Protocol) String() string {
	if p == ProtocolDirectional {
		return protocolDirectionalToken
	}
	return protocolLegacyToken
}

// Command is a parsed inbound command.
type Command int

const (
	// CommandInvalid is any unrecognised command text. It is a silent
	// no-op: no status change, no pulse.
	CommandInvalid Command = iota

	// CommandNone is the empty command: report current status, no side
	// effects.
	CommandNone

	// CommandRefresh forces a re-resolve from live sensors.
	CommandRefresh

	// CommandTrigger is the legacy single motion command.
	CommandTrigger

	// CommandOpen requests the door open (directional protocol).
	CommandOpen

	// CommandClose requests the door closed (directional protocol).
	CommandClose
)

// String returns the wire token for the command.
func (c Command) String() string {
	switch c {
	case CommandNone:
		return ""
	case CommandRefresh:
		return "refresh"
	case CommandTrigger:
		return "trigger"
	case CommandOpen:
		return "open"
	case CommandClose:
		return "close"
	default:
		return "invalid"
	}
}

// commandTokens maps exact command text to commands, per protocol.
// Tokens outside the active protocol's table parse as CommandInvalid.
var commandTokens = map[Protocol]map[string]Command{
	ProtocolLegacy: {
		"refresh": CommandRefresh,
		"trigger": CommandTrigger,
	},
	ProtocolDirectional: {
		"refresh": CommandRefresh,
		"open":    CommandOpen,
		"close":   CommandClose,
	},
}

// ParseCommand maps inbound command text to a Command under the given
// protocol. Matching is exact: no trimming, no case folding. The empty
// string is the report-only command; anything unrecognised is
// CommandInvalid, which callers must treat as a no-op.
func ParseCommand(text string, protocol Protocol) Command {
	if text == "" {
		return CommandNone
	}
	if cmd, ok := commandTokens[protocol][text]; ok {
		return cmd
	}
	return CommandInvalid
}
