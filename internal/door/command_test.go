package door

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		protocol Protocol
		want     Command
	}{
		{"legacy refresh", "refresh", ProtocolLegacy, CommandRefresh},
		{"legacy trigger", "trigger", ProtocolLegacy, CommandTrigger},
		{"legacy rejects open", "open", ProtocolLegacy, CommandInvalid},
		{"legacy rejects close", "close", ProtocolLegacy, CommandInvalid},
		{"directional refresh", "refresh", ProtocolDirectional, CommandRefresh},
		{"directional open", "open", ProtocolDirectional, CommandOpen},
		{"directional close", "close", ProtocolDirectional, CommandClose},
		{"directional rejects trigger", "trigger", ProtocolDirectional, CommandInvalid},
		{"empty is report-only", "", ProtocolDirectional, CommandNone},
		{"unknown token", "jiggle", ProtocolDirectional, CommandInvalid},
		{"no case folding", "OPEN", ProtocolDirectional, CommandInvalid},
		{"no trimming", " open", ProtocolDirectional, CommandInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.text, tt.protocol); got != tt.want {
				t.Errorf("ParseCommand(%q, %v) = %v, want %v", tt.text, tt.protocol, got, tt.want)
			}
		})
	}
}

func TestParseProtocol(t *testing.T) {
	if p, err := ParseProtocol("legacy"); err != nil || p != ProtocolLegacy {
		t.Errorf("ParseProtocol(legacy) = %v, %v", p, err)
	}
	if p, err := ParseProtocol("directional"); err != nil || p != ProtocolDirectional {
		t.Errorf("ParseProtocol(directional) = %v, %v", p, err)
	}
	if _, err := ParseProtocol("bidirectional"); err == nil {
		t.Error("ParseProtocol(bidirectional) expected error, got nil")
	}
}
