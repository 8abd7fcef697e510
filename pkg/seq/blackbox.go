package seq

import (
	"fmt"

	"github.com/catseq-lab/catseqc/pkg/dispatch"
	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/state"
)

// StatePair is the (start, end) boundary of one channel's participation in
// a black-box operation.
type StatePair struct {
	Start, End state.State
}

// BlackBoxPayload is the AtomicOp.Payload carried by every op an
// OpOpaqueUserBlock morphism produces: the handle to invoke and the
// arguments it was captured with, plus free-form metadata (e.g. loop
// iteration counters) the caller wants preserved through compilation.
type BlackBoxPayload struct {
	Func     dispatch.BlockFunc
	Args     []any
	Kwargs   map[string]any
	Metadata map[string]any
}

// NewBlackBox builds a multi-channel, potentially multi-board morphism
// wrapping a single opaque, fixed-duration block of board-specific work.
// channelStates maps every channel participating in the block to its
// (start, end) state pair; boardFuncs supplies, per board, the dispatch
// handle the compiler must invoke for that board's share of the block.
// The compiler treats [timestamp, timestamp+durationCycles) on every board
// touched here as reserved: any other operation overlapping it is a
// BlackBoxConflictError.
func NewBlackBox(
	channelStates map[hw.Channel]StatePair,
	durationCycles uint64,
	boardFuncs map[hw.Board]dispatch.BlockFunc,
	args []any,
	kwargs map[string]any,
	metadata map[string]any,
) (*Morphism, error) {
	if len(channelStates) == 0 {
		return nil, fmt.Errorf("seq: NewBlackBox requires at least one channel")
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	lanes := make(map[hw.Channel]Lane, len(channelStates))
	for ch, pair := range channelStates {
		fn, ok := boardFuncs[ch.Board]
		if !ok {
			return nil, fmt.Errorf("seq: channel %s belongs to board %s, but no dispatch handle was supplied for that board", ch, ch.Board)
		}
		op := AtomicOp{
			Channel:        ch,
			Start:          pair.Start,
			End:            pair.End,
			DurationCycles: durationCycles,
			Code:           OpOpaqueUserBlock,
			Payload: BlackBoxPayload{
				Func:     fn,
				Args:     args,
				Kwargs:   kwargs,
				Metadata: metadata,
			},
		}
		lanes[ch] = NewLane(op)
	}
	return NewMorphism(lanes)
}
