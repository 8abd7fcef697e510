// Package compiler implements the five-pass pipeline that turns a root
// morphism into a deterministic, per-board instruction stream: event
// extraction, cost/epoch analysis, late-as-possible pipelining, pure
// validation, and final emission. Grounded throughout on the teacher's
// multi-pass optimizer package (pkg/optimizer's named-phase structs and
// sequential Phase-N comments) generalized from Z80 instruction scheduling
// to RWG control-sequence compilation.
package compiler

import "fmt"

// LogicalTimestamp locates an event within the compiler's epoch-segmented
// timeline. Timestamps from different epochs are incomparable; every
// arithmetic or ordering operation between them fails with a
// CrossEpochError rather than silently comparing offsets across a sync
// barrier.
type LogicalTimestamp struct {
	Epoch        uint32
	OffsetCycles uint64
}

// CrossEpochError reports an attempt to compare or subtract timestamps
// from two different epochs.
type CrossEpochError struct {
	EpochA, EpochB uint32
}

func (e *CrossEpochError) Error() string {
	return fmt.Sprintf("compiler: cross-epoch arithmetic between epoch %d and epoch %d", e.EpochA, e.EpochB)
}

// Less reports whether t sorts before other, failing if they belong to
// different epochs.
func (t LogicalTimestamp) Less(other LogicalTimestamp) (bool, error) {
	if t.Epoch != other.Epoch {
		return false, &CrossEpochError{EpochA: t.Epoch, EpochB: other.Epoch}
	}
	return t.OffsetCycles < other.OffsetCycles, nil
}

// Sub returns t - other in cycles, failing if they belong to different
// epochs.
func (t LogicalTimestamp) Sub(other LogicalTimestamp) (int64, error) {
	if t.Epoch != other.Epoch {
		return 0, &CrossEpochError{EpochA: t.Epoch, EpochB: other.Epoch}
	}
	return int64(t.OffsetCycles) - int64(other.OffsetCycles), nil
}

// Add returns a new timestamp in the same epoch, offset by cycles.
func (t LogicalTimestamp) Add(cycles uint64) LogicalTimestamp {
	return LogicalTimestamp{Epoch: t.Epoch, OffsetCycles: t.OffsetCycles + cycles}
}

func (t LogicalTimestamp) String() string {
	return fmt.Sprintf("epoch%d+%d", t.Epoch, t.OffsetCycles)
}
