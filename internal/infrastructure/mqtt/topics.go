package mqtt

import "fmt"

// Topic prefixes for the doorcore MQTT surface.
//
// All topics live under a single prefix: doorcore/{category}/...
const (
	// TopicPrefix is the base for all doorcore topics.
	TopicPrefix = "doorcore"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "doorcore/system"
)

// Topics provides builders for doorcore MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.DoorStatus()
//	// Returns: "doorcore/door/status"
type Topics struct{}

// DoorStatus returns the topic that carries the door's current status.
// Published retained so late subscribers see the last known state.
//
// Example: doorcore/door/status
func (Topics) DoorStatus() string {
	return fmt.Sprintf("%s/door/status", TopicPrefix)
}

// DoorCommand returns the topic that accepts door commands.
// Payloads are bare command tokens for the active protocol.
//
// Example: doorcore/door/command
func (Topics) DoorCommand() string {
	return fmt.Sprintf("%s/door/command", TopicPrefix)
}

// DoorEvent returns the topic for full status-change event payloads.
// Unlike DoorStatus, events carry the previous status and source.
//
// Example: doorcore/door/event
func (Topics) DoorEvent() string {
	return fmt.Sprintf("%s/door/event", TopicPrefix)
}

// SystemStatus returns the system status topic.
// The LWT is registered against this topic so a crashed controller
// is reported offline by the broker.
//
// Example: doorcore/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTopics returns a pattern matching all doorcore topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: doorcore/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
