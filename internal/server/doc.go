// Package server implements the Parley real-time session layer: persistent
// WebSocket connections, the authenticate handshake, single-room membership
// tracking, room-scoped fanout, and bounded history replay for joiners.
//
// The implementation is organized into specialized files for the hub,
// sessions, room membership, history, the protocol router, connection
// pumps, and HTTP wiring to keep the codebase maintainable and testable.
package server
