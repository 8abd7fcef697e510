package seq

import (
	"fmt"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/state"
)

// DurationMismatchError reports a monoidal-category violation: a morphism
// whose lanes do not all share one duration.
type DurationMismatchError struct {
	Durations map[hw.Channel]uint64
}

func (e *DurationMismatchError) Error() string {
	return fmt.Sprintf("seq: all lanes must share one duration, got %d distinct lane lengths", len(uniqueDurations(e.Durations)))
}

func uniqueDurations(m map[hw.Channel]uint64) map[uint64]struct{} {
	seen := make(map[uint64]struct{})
	for _, d := range m {
		seen[d] = struct{}{}
	}
	return seen
}

// Morphism is a typed, time-bounded transformation over a set of channels:
// a map from channel to that channel's Lane. Every lane must have the same
// total duration (the monoidal-category requirement spec §3 states).
// Morphisms are immutable once constructed; composition always produces a
// new Morphism.
type Morphism struct {
	Lanes map[hw.Channel]Lane
}

// NewMorphism validates that every lane shares one duration and returns the
// resulting Morphism.
func NewMorphism(lanes map[hw.Channel]Lane) (*Morphism, error) {
	if len(lanes) == 0 {
		return &Morphism{Lanes: map[hw.Channel]Lane{}}, nil
	}
	durations := make(map[hw.Channel]uint64, len(lanes))
	var want uint64
	first := true
	for ch, lane := range lanes {
		d := lane.TotalDuration()
		durations[ch] = d
		if first {
			want = d
			first = false
		} else if d != want {
			return nil, &DurationMismatchError{Durations: durations}
		}
	}
	return &Morphism{Lanes: lanes}, nil
}

// FromAtomic lifts a single AtomicOp into a single-channel Morphism.
func FromAtomic(op AtomicOp) *Morphism {
	return &Morphism{Lanes: map[hw.Channel]Lane{op.Channel: NewLane(op)}}
}

// TotalDuration returns the common lane duration, or 0 for an empty
// morphism.
func (m *Morphism) TotalDuration() uint64 {
	for _, lane := range m.Lanes {
		return lane.TotalDuration()
	}
	return 0
}

// Channels returns the set of channels this morphism touches.
func (m *Morphism) Channels() []hw.Channel {
	chs := make([]hw.Channel, 0, len(m.Lanes))
	for ch := range m.Lanes {
		chs = append(chs, ch)
	}
	return chs
}

// LanesByBoard groups this morphism's lanes by the board each channel
// belongs to.
func (m *Morphism) LanesByBoard() map[hw.Board]map[hw.Channel]Lane {
	result := make(map[hw.Board]map[hw.Channel]Lane)
	for ch, lane := range m.Lanes {
		byCh, ok := result[ch.Board]
		if !ok {
			byCh = make(map[hw.Channel]Lane)
			result[ch.Board] = byCh
		}
		byCh[ch] = lane
	}
	return result
}

// Domain returns, for each channel, the state its first operation starts
// from. A channel with an empty lane is omitted.
func (m *Morphism) Domain() map[hw.Channel]state.State {
	out := make(map[hw.Channel]state.State, len(m.Lanes))
	for ch, lane := range m.Lanes {
		if len(lane.Ops) > 0 {
			out[ch] = lane.Ops[0].Start
		}
	}
	return out
}

// Codomain returns, for each channel, the state its last operation ends in.
func (m *Morphism) Codomain() map[hw.Channel]state.State {
	out := make(map[hw.Channel]state.State, len(m.Lanes))
	for ch, lane := range m.Lanes {
		if len(lane.Ops) > 0 {
			out[ch] = lane.Ops[len(lane.Ops)-1].End
		}
	}
	return out
}

// String renders a compact per-board summary, in the spirit of the
// debug views hand-authored control sequences are often printed through.
func (m *Morphism) String() string {
	if len(m.Lanes) == 0 {
		return "EmptyMorphism"
	}
	byBoard := m.LanesByBoard()
	out := ""
	for board, lanes := range byBoard {
		out += fmt.Sprintf("%s[%d channels]", board, len(lanes))
	}
	return fmt.Sprintf("Morphism(%s, %dc)", out, m.TotalDuration())
}

// DebugLanes renders one line per channel listing its operation sequence,
// for interactive inspection of a composed plan before compiling it.
func (m *Morphism) DebugLanes() string {
	out := fmt.Sprintf("Lanes (%d cycles):\n", m.TotalDuration())
	for ch, lane := range m.Lanes {
		out += fmt.Sprintf("  %-20s | ", ch)
		for i, op := range lane.Ops {
			if i > 0 {
				out += " -> "
			}
			out += op.Code.String()
		}
		out += "\n"
	}
	return out
}
