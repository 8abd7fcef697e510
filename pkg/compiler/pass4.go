package compiler

import (
	"fmt"
	"sort"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/seq"
)

// crossEpochPipeliningMargin is the cycle window, measured from the start
// of the epoch a rescheduled LOAD ended up in, inside which a LOAD whose
// PLAY lived in the preceding epoch is considered to have bled across the
// sync barrier rather than having pipelined cleanly within its own epoch.
const crossEpochPipeliningMargin = 100

// validateBoard implements Pass 4: pure checks run after scheduling, with
// no further mutation of the event list.
func validateBoard(board hw.Board, events []*event) error {
	if err := validateSerialLoads(board, events); err != nil {
		return err
	}
	if err := validateDeadlines(board, events); err != nil {
		return err
	}
	if err := validateMonotonicity(board, events); err != nil {
		return err
	}
	if err := validateCrossEpochPipelining(board, events); err != nil {
		return err
	}
	if err := validateBlackBoxConflicts(board, events); err != nil {
		return err
	}
	return nil
}

// validateBlackBoxConflicts checks every opaque user block's declared,
// authoritative duration window [AbsoluteCycle, AbsoluteCycle+Duration)
// against every other event on the same board: spec §9 reserves that
// window for the block alone, so anything else overlapping it — a digital
// pulse, a waveform update, another block — is a conflict the compiler
// must reject rather than silently interleave.
func validateBlackBoxConflicts(board hw.Board, events []*event) error {
	for _, block := range events {
		if block.Op.Code != seq.OpOpaqueUserBlock {
			continue
		}
		blockStart := block.AbsoluteCycle
		blockEnd := blockStart + block.Op.DurationCycles
		for _, other := range events {
			if other == block {
				continue
			}
			otherStart := other.AbsoluteCycle
			otherEnd := otherStart + other.CostCycles
			if otherStart < blockEnd && otherEnd > blockStart {
				return &BlackBoxConflictError{Board: board, BlockStart: block.Timestamp, BlockDuration: block.Op.DurationCycles}
			}
		}
	}
	return nil
}

func validateSerialLoads(board hw.Board, events []*event) error {
	var loads []*event
	for _, ev := range events {
		if ev.isLoad() {
			loads = append(loads, ev)
		}
	}
	sort.Slice(loads, func(i, j int) bool { return loads[i].AbsoluteCycle < loads[j].AbsoluteCycle })
	for i := 1; i < len(loads); i++ {
		prevEnd := loads[i-1].AbsoluteCycle + loads[i-1].CostCycles
		if loads[i].AbsoluteCycle < prevEnd {
			return &SerialViolationError{Board: board, EventA: loads[i-1].Timestamp, EventB: loads[i].Timestamp}
		}
	}
	return nil
}

func validateDeadlines(board hw.Board, events []*event) error {
	for _, pair := range identifyPipelinePairs(events) {
		if pair.Play == nil {
			continue
		}
		loadEnd := pair.Load.AbsoluteCycle + pair.Load.CostCycles
		if loadEnd > pair.Play.AbsoluteCycle {
			return &DeadlineViolationError{Board: board, LoadEnd: pair.Load.Timestamp, PlayStart: pair.Play.Timestamp}
		}
	}
	return nil
}

// validateMonotonicity checks that scheduling never reordered a
// timing-critical event relative to the others: walking events back in
// Pass 1's own (pre-rescheduling) chronological order via SequenceIndex,
// every event except a wf_load_coeffs — the only op_code schedulePipelining
// is allowed to move — must still sit at an absolute cycle no earlier than
// the previous such event. A regression here means Pass 3 moved something
// it had no business moving.
func validateMonotonicity(board hw.Board, events []*event) error {
	for _, ev := range events {
		// Scheduling clamps every move at cycle 0; a timestamp this large
		// can only be the result of uint64 underflow during rescheduling.
		if ev.Timestamp.OffsetCycles > 1<<63 {
			return &TimingInconsistencyError{Board: board, Details: fmt.Sprintf("event at absolute cycle %d carries an underflowed offset", ev.AbsoluteCycle)}
		}
	}

	ordered := make([]*event, len(events))
	copy(ordered, events)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SequenceIndex < ordered[j].SequenceIndex })

	var lastCycle uint64
	var haveLast bool
	for _, ev := range ordered {
		if ev.isLoad() {
			continue
		}
		if haveLast && ev.AbsoluteCycle < lastCycle {
			return &TimingInconsistencyError{Board: board, Details: fmt.Sprintf("event originally at sequence position %d regressed to cycle %d, before a chronologically earlier event", ev.SequenceIndex, ev.AbsoluteCycle)}
		}
		lastCycle = ev.AbsoluteCycle
		haveLast = true
	}
	return nil
}

func validateCrossEpochPipelining(board hw.Board, events []*event) error {
	for _, pair := range identifyPipelinePairs(events) {
		if pair.Play == nil {
			continue
		}
		load, play := pair.Load, pair.Play
		if load.Timestamp.Epoch == play.Timestamp.Epoch+1 && load.Timestamp.OffsetCycles < crossEpochPipeliningMargin {
			return &CrossEpochPipeliningError{Board: board, Load: load.Timestamp, PrecedingEpoch: play.Timestamp.Epoch}
		}
	}
	return nil
}
