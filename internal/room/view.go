package room

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ParticipantView is one participant as seen by every client in the room.
type ParticipantView struct {
	ID       ConnID  `json:"id"`
	Name     string  `json:"name"`
	Vote     *string `json:"vote"`
	HasVoted bool    `json:"hasVoted"`
}

// State is the broadcast-ready snapshot of a room.
type State struct {
	ScrumMaster  *ConnID           `json:"scrumMaster"`
	Revealed     bool              `json:"revealed"`
	Participants []ParticipantView `json:"participants"`
	Average      *float64          `json:"average"`
}

// snapshot builds the view of r. Callers must hold r.mu.
func (r *Room) snapshot() State {
	ids := r.joinOrder()

	state := State{
		Revealed:     r.revealed,
		Participants: make([]ParticipantView, 0, len(ids)),
	}
	if r.facilitator != "" {
		facilitator := r.facilitator
		state.ScrumMaster = &facilitator
	}

	votes := make([]string, 0, len(ids))
	for _, id := range ids {
		p := r.participants[id]
		view := ParticipantView{
			ID:       id,
			Name:     p.name,
			HasVoted: p.vote != nil,
		}
		if r.revealed && p.vote != nil {
			vote := *p.vote
			view.Vote = &vote
			votes = append(votes, vote)
		}
		state.Participants = append(state.Participants, view)
	}

	if r.revealed {
		state.Average = Average(votes)
	}
	return state
}

// joinOrder returns participant IDs sorted by when they first joined.
func (r *Room) joinOrder() []ConnID {
	ids := make([]ConnID, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.participants[ids[i]].seq < r.participants[ids[j]].seq
	})
	return ids
}

// Average returns the mean of the numeric votes rounded to one decimal place,
// or nil when none of the votes is a number. Symbolic cards such as "?" are
// skipped rather than counted as zero.
func Average(votes []string) *float64 {
	var sum float64
	var n int
	for _, v := range votes {
		f, ok := parseVote(v)
		if !ok {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum/float64(n)*10) / 10
	return &avg
}

func parseVote(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
