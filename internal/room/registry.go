package room

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Notifier delivers a room snapshot to a set of connections. Delivery is
// fire-and-forget: Notify must not block and must not call back into the
// registry, since it runs while the room is locked.
type Notifier interface {
	Notify(recipients []ConnID, state State)
}

// Summary describes a live room without exposing any votes.
type Summary struct {
	Code         Code `json:"code"`
	Participants int  `json:"participants"`
	Revealed     bool `json:"revealed"`
}

// Registry owns every live room in the process.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[Code]*Room
	notifier Notifier
	newCode  CodeSource
}

// Option configures a Registry.
type Option func(*Registry)

// WithCodeSource replaces the random code generator.
func WithCodeSource(src CodeSource) Option {
	return func(r *Registry) {
		if src != nil {
			r.newCode = src
		}
	}
}

// NewRegistry creates an empty registry that reports room changes to n.
func NewRegistry(n Notifier, opts ...Option) *Registry {
	reg := &Registry{
		rooms:    make(map[Code]*Room),
		notifier: n,
		newCode:  RandomCode,
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Create registers an empty room under a code no live room is using. Nobody
// occupies the room until the first Join, who becomes the facilitator.
func (reg *Registry) Create() Code {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.newCode()
	for {
		if _, taken := reg.rooms[code]; !taken {
			break
		}
		code = reg.newCode()
	}
	reg.rooms[code] = newRoom(code)

	log.Debug().Str("room", code.String()).Int("rooms", len(reg.rooms)).Msg("room created")
	return code
}

// Lookup returns a summary of the room with the given code.
func (reg *Registry) Lookup(code Code) (Summary, error) {
	rm, err := reg.get(code)
	if err != nil {
		return Summary{}, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return Summary{}, ErrRoomNotFound
	}
	return Summary{Code: rm.code, Participants: len(rm.participants), Revealed: rm.revealed}, nil
}

// Len reports the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Join adds conn to the room under name and returns the room as the joiner
// sees it. Everyone else in the room is sent the same state.
func (reg *Registry) Join(code Code, conn ConnID, name string) (State, error) {
	var state State
	err := reg.with(code, func(rm *Room) error {
		state = rm.join(conn, name)
		reg.notify(rm.recipients(conn), state)
		return nil
	})
	return state, err
}

// Vote records value as conn's vote. A nil value withdraws the vote. Votes
// are only accepted before the reveal.
func (reg *Registry) Vote(code Code, conn ConnID, value *string) error {
	return reg.with(code, func(rm *Room) error {
		if err := rm.vote(conn, value); err != nil {
			return err
		}
		reg.notify(rm.recipients(""), rm.snapshot())
		return nil
	})
}

// Reveal exposes every vote. Only the facilitator may reveal.
func (reg *Registry) Reveal(code Code, conn ConnID) error {
	return reg.with(code, func(rm *Room) error {
		if err := rm.reveal(conn); err != nil {
			return err
		}
		reg.notify(rm.recipients(""), rm.snapshot())
		return nil
	})
}

// Clear hides the votes again and resets them for a new round. Only the
// facilitator may clear.
func (reg *Registry) Clear(code Code, conn ConnID) error {
	return reg.with(code, func(rm *Room) error {
		if err := rm.clear(conn); err != nil {
			return err
		}
		reg.notify(rm.recipients(""), rm.snapshot())
		return nil
	})
}

// Leave removes conn from the room. The facilitator role passes to the
// earliest-joined remaining participant; the room is deleted with its last
// participant.
func (reg *Registry) Leave(code Code, conn ConnID) error {
	return reg.with(code, func(rm *Room) error {
		empty, err := rm.leave(conn)
		if err != nil {
			return err
		}
		if empty {
			reg.delete(rm)
			return nil
		}
		reg.notify(rm.recipients(""), rm.snapshot())
		return nil
	})
}

// with runs fn on the live room for code while holding its lock.
func (reg *Registry) with(code Code, fn func(*Room) error) error {
	rm, err := reg.get(code)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return ErrRoomNotFound
	}
	return fn(rm)
}

func (reg *Registry) get(code Code) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rm, ok := reg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// delete drops rm from the registry. Callers must hold rm.mu.
func (reg *Registry) delete(rm *Room) {
	rm.closed = true

	reg.mu.Lock()
	if reg.rooms[rm.code] == rm {
		delete(reg.rooms, rm.code)
	}
	count := len(reg.rooms)
	reg.mu.Unlock()

	log.Debug().Str("room", rm.code.String()).Int("rooms", count).Msg("room deleted")
}

func (reg *Registry) notify(recipients []ConnID, state State) {
	if reg.notifier == nil || len(recipients) == 0 {
		return
	}
	reg.notifier.Notify(recipients, state)
}
