// Package lineproto implements the raw TCP line protocol for doorcore.
//
// This is the legacy integration surface: a client connects, writes one
// command token per line, and reads back the door status token. The
// recognised tokens depend on the configured protocol ("trigger" for
// legacy installations, "open"/"close" for directional ones), plus
// "refresh" and the empty line, which reports status without side effects.
//
// The listener is plain TCP with per-read deadlines. Authentication is not
// part of this surface; deployments bind it to the loopback interface or a
// trusted control network and use the HTTP API elsewhere.
package lineproto
