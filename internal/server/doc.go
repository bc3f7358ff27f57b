// Package server implements the HTTP and WebSocket transport for scrum poker.
//
// A single Hub owns every connection and the room registry. Clients send
// JSON actions (create-room, join-room, vote, reveal, clear, leave-room) that
// the hub applies one at a time; every resulting room state is pushed to the
// room's connections as a room-update envelope. The package also carries the
// configuration loader, logging setup, origin policy, and a small REST
// surface for creating and inspecting rooms.
package server
