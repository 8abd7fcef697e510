package compiler

import (
	"fmt"

	"github.com/catseq-lab/catseqc/pkg/hw"
)

// SerialViolationError reports two wf_load_coeffs events on the same board
// whose scheduled intervals overlap.
type SerialViolationError struct {
	Board        hw.Board
	EventA, EventB LogicalTimestamp
}

func (e *SerialViolationError) Error() string {
	return fmt.Sprintf("compiler: serial LOAD violation on board %s: intervals starting at %s and %s overlap", e.Board, e.EventA, e.EventB)
}

// DeadlineViolationError reports a LOAD whose cost pushes it past its
// paired PLAY's start.
type DeadlineViolationError struct {
	Board               hw.Board
	LoadEnd, PlayStart LogicalTimestamp
}

func (e *DeadlineViolationError) Error() string {
	return fmt.Sprintf("compiler: deadline violation on board %s: load ends at %s, after play starts at %s", e.Board, e.LoadEnd, e.PlayStart)
}

// TimingInconsistencyError reports a non-monotonic or negative timestamp
// in a board's scheduled event list.
type TimingInconsistencyError struct {
	Board   hw.Board
	Details string
}

func (e *TimingInconsistencyError) Error() string {
	return fmt.Sprintf("compiler: timing inconsistency on board %s: %s", e.Board, e.Details)
}

// CrossEpochPipeliningError reports a LOAD scheduled too close to the
// start of the epoch following its PLAY's epoch: a pipelining leak across
// a sync barrier.
type CrossEpochPipeliningError struct {
	Board          hw.Board
	Load           LogicalTimestamp
	PrecedingEpoch uint32
}

func (e *CrossEpochPipeliningError) Error() string {
	return fmt.Sprintf("compiler: load at %s on board %s pipelines across the sync barrier ending epoch %d", e.Load, e.Board, e.PrecedingEpoch)
}

// BlackBoxConflictError reports another operation overlapping an opaque
// user block's declared, authoritative duration window on the same board.
type BlackBoxConflictError struct {
	Board         hw.Board
	BlockStart    LogicalTimestamp
	BlockDuration uint64
}

func (e *BlackBoxConflictError) Error() string {
	return fmt.Sprintf("compiler: operation overlaps opaque user block [%s, +%d) on board %s", e.BlockStart, e.BlockDuration, e.Board)
}
