// Package compose implements the three morphism composition operators the
// spec's algebra is built from: strict serial (@), auto-inferring serial
// (>>), and parallel (|). Grounded on the legacy Python reference's
// strict_compose_morphisms / auto_compose_morphisms / parallel_compose_morphisms
// in morphism.py, reworked into Go value semantics and, for parallel
// composition, the redesigned duration-padding behavior rather than the
// legacy reject-on-mismatch rule.
package compose

import (
	"fmt"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/seq"
	"github.com/catseq-lab/catseqc/pkg/state"
)

// ChannelOverlapError reports that two morphisms being composed in parallel
// share one or more channels, violating disjointness.
type ChannelOverlapError struct {
	Channels []hw.Channel
}

func (e *ChannelOverlapError) Error() string {
	return fmt.Sprintf("compose: channel overlap in parallel composition: %v", e.Channels)
}

// StateMismatchError reports that a channel's end-state on the left side of
// a serial composition does not equal its start-state on the right side.
type StateMismatchError struct {
	Channel hw.Channel
	End     state.State
	Start   state.State
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("compose: state mismatch on channel %s: end state %s does not match start state %s", e.Channel, e.End, e.Start)
}

// UnknownChannelError reports that a dict-form auto-serial composition named
// a channel the left-hand morphism does not have a lane for.
type UnknownChannelError struct {
	Channel hw.Channel
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("compose: unknown channel %s in dictionary composition", e.Channel)
}

// lastNonIdentityState returns the state a channel's lane is effectively in
// after skipping trailing identity (pure time-holding) ops, and whether the
// lane had any op at all.
func lastNonIdentityState(lane seq.Lane) (state.State, bool) {
	for i := len(lane.Ops) - 1; i >= 0; i-- {
		if lane.Ops[i].Code != seq.OpIdentity {
			return lane.Ops[i].End, true
		}
	}
	if len(lane.Ops) > 0 {
		return lane.Ops[len(lane.Ops)-1].End, true
	}
	return nil, false
}

func firstState(lane seq.Lane) (state.State, bool) {
	if len(lane.Ops) == 0 {
		return nil, false
	}
	return lane.Ops[0].Start, true
}

func unionChannels(a, b map[hw.Channel]seq.Lane) []hw.Channel {
	seen := make(map[hw.Channel]struct{}, len(a)+len(b))
	out := make([]hw.Channel, 0, len(a)+len(b))
	for ch := range a {
		if _, ok := seen[ch]; !ok {
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	for ch := range b {
		if _, ok := seen[ch]; !ok {
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	return out
}

// Serial implements the strict (@) operator: every channel shared between
// first and second must have first's end-state structurally equal to
// second's start-state. Channels present on only one side are padded on the
// other with an identity op holding that channel's active state for the
// other morphism's total duration.
func Serial(first, second *seq.Morphism) (*seq.Morphism, error) {
	firstEnd := make(map[hw.Channel]state.State, len(first.Lanes))
	for ch, lane := range first.Lanes {
		if st, ok := lastNonIdentityState(lane); ok {
			firstEnd[ch] = st
		}
	}
	secondStart := make(map[hw.Channel]state.State, len(second.Lanes))
	for ch, lane := range second.Lanes {
		if st, ok := firstState(lane); ok {
			secondStart[ch] = st
		}
	}

	for ch, end := range firstEnd {
		if start, ok := secondStart[ch]; ok {
			if !end.Equal(start) {
				return nil, &StateMismatchError{Channel: ch, End: end, Start: start}
			}
		}
	}

	resultLanes := make(map[hw.Channel]seq.Lane, len(first.Lanes)+len(second.Lanes))
	for _, ch := range unionChannels(first.Lanes, second.Lanes) {
		firstLane, hasFirst := first.Lanes[ch]
		secondLane, hasSecond := second.Lanes[ch]

		if !hasFirst {
			st := secondStart[ch]
			firstLane = seq.NewLane(seq.NewIdentity(ch, st, first.TotalDuration()))
		}
		if !hasSecond {
			st := firstEnd[ch]
			secondLane = seq.NewLane(seq.NewIdentity(ch, st, second.TotalDuration()))
		}
		resultLanes[ch] = firstLane.Concat(secondLane)
	}
	return seq.NewMorphism(resultLanes)
}

// AutoSerial implements the auto-inferring (>>) operator. It behaves like
// Serial, except that wherever second's start-state for a channel is the
// same variant as first's end-state for that channel, the start-state is
// rewritten to first's end-state before the equality check — the state
// that must match is inferred rather than demanded verbatim.
func AutoSerial(first, second *seq.Morphism) (*seq.Morphism, error) {
	firstEnd := make(map[hw.Channel]state.State, len(first.Lanes))
	for ch, lane := range first.Lanes {
		if st, ok := lastNonIdentityState(lane); ok {
			firstEnd[ch] = st
		}
	}

	rewritten := make(map[hw.Channel]seq.Lane, len(second.Lanes))
	for ch, lane := range second.Lanes {
		end, hasEnd := firstEnd[ch]
		if !hasEnd || len(lane.Ops) == 0 {
			rewritten[ch] = lane
			continue
		}
		leadOp := lane.Ops[0]
		if sameVariant(end, leadOp.Start) {
			ops := make([]seq.AtomicOp, len(lane.Ops))
			copy(ops, lane.Ops)
			ops[0].Start = end
			rewritten[ch] = seq.NewLane(ops...)
		} else {
			rewritten[ch] = lane
		}
	}

	return Serial(first, &seq.Morphism{Lanes: rewritten})
}

// sameVariant reports whether a and b are the same concrete state variant,
// i.e. whether a's end-state uniquely determines b's start-state for the
// purpose of >>'s rewrite rule.
func sameVariant(a, b state.State) bool {
	switch a.(type) {
	case state.Digital:
		_, ok := b.(state.Digital)
		return ok
	case state.WFUninitialized:
		_, ok := b.(state.WFUninitialized)
		return ok
	case state.WFReady:
		_, ok := b.(state.WFReady)
		return ok
	case state.WFActive:
		_, ok := b.(state.WFActive)
		return ok
	default:
		return false
	}
}

// Builder is a per-channel continuation used by AutoSerialDict: given a
// channel's current end-state, it produces the morphism to append on that
// channel.
type Builder func(current state.State) (*seq.Morphism, error)

// AutoSerialDict implements the dictionary form of >>: `first >> {channel:
// builder, ...}`. Every listed channel's builder runs against that
// channel's current end-state in first; channels of first that are not
// listed are padded with identity to the longest resulting branch duration,
// then the whole thing is concatenated onto first.
func AutoSerialDict(first *seq.Morphism, builders map[hw.Channel]Builder) (*seq.Morphism, error) {
	branches := make(map[hw.Channel]*seq.Morphism, len(builders))
	var maxDuration uint64
	for ch, build := range builders {
		lane, ok := first.Lanes[ch]
		if !ok {
			return nil, &UnknownChannelError{Channel: ch}
		}
		current, _ := lastNonIdentityState(lane)
		branch, err := build(current)
		if err != nil {
			return nil, err
		}
		branches[ch] = branch
		if d := branch.TotalDuration(); d > maxDuration {
			maxDuration = d
		}
	}

	second := make(map[hw.Channel]seq.Lane, len(first.Lanes))
	for ch := range first.Lanes {
		branch, listed := branches[ch]
		if !listed {
			continue
		}
		lane, ok := branch.Lanes[ch]
		if !ok {
			continue
		}
		if d := lane.TotalDuration(); d < maxDuration {
			st, _ := lastNonIdentityState(lane)
			lane = lane.Concat(seq.NewLane(seq.NewIdentity(ch, st, maxDuration-d)))
		}
		second[ch] = lane
	}
	for ch, lane := range first.Lanes {
		if _, listed := second[ch]; listed {
			continue
		}
		st, _ := lastNonIdentityState(lane)
		second[ch] = seq.NewLane(seq.NewIdentity(ch, st, maxDuration))
	}

	secondMorphism, err := seq.NewMorphism(second)
	if err != nil {
		return nil, err
	}
	return Serial(first, secondMorphism)
}

// Parallel implements the (|) operator: left and right must touch disjoint
// channels. The shorter operand has every lane padded with a trailing
// identity op (holding that lane's end-state) until both operands share one
// duration; the result is the union of their lanes.
func Parallel(left, right *seq.Morphism) (*seq.Morphism, error) {
	var overlap []hw.Channel
	for ch := range left.Lanes {
		if _, ok := right.Lanes[ch]; ok {
			overlap = append(overlap, ch)
		}
	}
	if len(overlap) > 0 {
		return nil, &ChannelOverlapError{Channels: overlap}
	}

	leftDuration, rightDuration := left.TotalDuration(), right.TotalDuration()
	target := leftDuration
	if rightDuration > target {
		target = rightDuration
	}

	resultLanes := make(map[hw.Channel]seq.Lane, len(left.Lanes)+len(right.Lanes))
	for ch, lane := range left.Lanes {
		resultLanes[ch] = padToDuration(ch, lane, target)
	}
	for ch, lane := range right.Lanes {
		resultLanes[ch] = padToDuration(ch, lane, target)
	}
	return seq.NewMorphism(resultLanes)
}

func padToDuration(ch hw.Channel, lane seq.Lane, target uint64) seq.Lane {
	d := lane.TotalDuration()
	if d >= target {
		return lane
	}
	st, ok := lastNonIdentityState(lane)
	if !ok {
		return lane
	}
	return lane.Concat(seq.NewLane(seq.NewIdentity(ch, st, target-d)))
}

// Op is a binary composition operator, the shape Serial, AutoSerial, and
// Parallel all share.
type Op func(a, b *seq.Morphism) (*seq.Morphism, error)

// Chain folds op left-to-right across morphisms in a single loop rather
// than by recursion, so chains of 10^4-10^5 compositions do not overflow
// the native call stack.
func Chain(op Op, morphisms []*seq.Morphism) (*seq.Morphism, error) {
	if len(morphisms) == 0 {
		return &seq.Morphism{Lanes: map[hw.Channel]seq.Lane{}}, nil
	}
	acc := morphisms[0]
	for _, next := range morphisms[1:] {
		var err error
		acc, err = op(acc, next)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
