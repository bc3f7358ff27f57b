// Package room implements planning-poker rooms: the process-wide registry that
// hands out room codes, and the per-room session that tracks participants,
// hidden votes, the facilitator, and the reveal flag.
//
// Every operation that changes a room sends the recomputed State to the
// room's connections through the injected Notifier. Votes stay out of the
// State until the facilitator reveals them.
package room
