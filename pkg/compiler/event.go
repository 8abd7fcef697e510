package compiler

import (
	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/isa"
	"github.com/catseq-lab/catseqc/pkg/seq"
)

// event is the internal pipeline record populated incrementally across
// passes: Pass 1 allocates it out of an arena.Arena[event] (see
// extractEvents) and sets everything but Timestamp.Epoch (left at 0, the
// flattened absolute-cycle view) and CostCycles; Pass 2 assigns the real
// epoch and cost; Pass 3 may rewrite Timestamp for pipelined loads; Pass 5
// reads it one last time to decide wait insertion.
type event struct {
	Board         hw.Board
	Channel       hw.Channel
	Op            seq.AtomicOp
	AbsoluteCycle uint64
	Timestamp     LogicalTimestamp
	Instructions  []isa.Instruction
	CostCycles    uint64

	// SequenceIndex is this event's position in Pass 1's own chronological
	// (absolute-cycle, channel) ordering, assigned once by extractEvents
	// and never touched again. Pass 3 is the only pass that moves an
	// event's AbsoluteCycle, and it only ever does so for wf_load_coeffs
	// events; SequenceIndex lets Pass 4 tell a genuine reordering bug
	// apart from an expected, sanctioned LOAD reschedule.
	SequenceIndex int
}

func (e *event) isLoad() bool {
	return e.Op.Code == seq.OpWFLoadCoeffs
}

func (e *event) isPlay() bool {
	return e.Op.Code == seq.OpWFUpdateParams
}

func (e *event) isSyncMaster() bool {
	return e.Op.Code == seq.OpSyncMaster
}

func (e *event) isSyncSlave() bool {
	return e.Op.Code == seq.OpSyncSlave
}
