package room

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// MaxNameLength caps display names, in runes.
const MaxNameLength = 64

// ConnID identifies a single client connection. The room package treats it as
// an opaque token.
type ConnID string

type participant struct {
	name string
	vote *string
	seq  uint64
}

// Room is the state of one estimation session. All fields are guarded by mu;
// every mutation and the broadcast that follows it happen under the lock, so
// clients observe updates in the order they were applied.
type Room struct {
	mu sync.Mutex

	code         Code
	facilitator  ConnID
	participants map[ConnID]*participant
	revealed     bool
	nextSeq      uint64

	// closed is set once the last participant leaves and the room has been
	// removed from the registry.
	closed bool
}

func newRoom(code Code) *Room {
	return &Room{
		code:         code,
		participants: make(map[ConnID]*participant),
	}
}

func (r *Room) join(conn ConnID, name string) State {
	if r.facilitator == "" {
		r.facilitator = conn
	}

	seq := r.nextSeq
	if prev, ok := r.participants[conn]; ok {
		seq = prev.seq
	} else {
		r.nextSeq++
	}
	r.participants[conn] = &participant{name: cleanName(name), seq: seq}

	return r.snapshot()
}

func (r *Room) vote(conn ConnID, value *string) error {
	if r.revealed {
		return ErrVotingClosed
	}
	p, ok := r.participants[conn]
	if !ok {
		return ErrNotParticipant
	}
	if value == nil {
		p.vote = nil
		return nil
	}
	v := *value
	p.vote = &v
	return nil
}

func (r *Room) reveal(conn ConnID) error {
	if conn != r.facilitator {
		return ErrNotFacilitator
	}
	r.revealed = true
	return nil
}

func (r *Room) clear(conn ConnID) error {
	if conn != r.facilitator {
		return ErrNotFacilitator
	}
	r.revealed = false
	for _, p := range r.participants {
		p.vote = nil
	}
	return nil
}

// leave removes conn and reports whether the room is now empty.
func (r *Room) leave(conn ConnID) (bool, error) {
	if _, ok := r.participants[conn]; !ok {
		return false, ErrNotParticipant
	}
	delete(r.participants, conn)

	if len(r.participants) == 0 {
		r.facilitator = ""
		return true, nil
	}
	if r.facilitator == conn {
		r.facilitator = r.joinOrder()[0]
	}
	return false, nil
}

// recipients lists every connection in the room, minus except when set.
func (r *Room) recipients(except ConnID) []ConnID {
	ids := make([]ConnID, 0, len(r.participants))
	for _, id := range r.joinOrder() {
		if id == except {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:MaxNameLength])
}
