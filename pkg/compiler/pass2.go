package compiler

import (
	"sort"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/isa"
	"github.com/catseq-lab/catseqc/pkg/seq"
)

// assignEpochs implements Pass 2's epoch half: a global chronological scan
// over every board's events, splitting the timeline at every cycle where a
// sync_master event on the master board coincides with at least one
// sync_slave event on another board. Events at the barrier cycle keep the
// epoch that is ending; everything strictly later moves into the next
// epoch.
func assignEpochs(byBoard map[hw.Board][]*event) {
	masterCycles := make(map[uint64]bool)
	slaveCycles := make(map[uint64]bool)
	for board, events := range byBoard {
		for _, ev := range events {
			if ev.isSyncMaster() && board == hw.MainBoard {
				masterCycles[ev.AbsoluteCycle] = true
			}
			if ev.isSyncSlave() && board != hw.MainBoard {
				slaveCycles[ev.AbsoluteCycle] = true
			}
		}
	}

	var barriers []uint64
	for cycle := range masterCycles {
		if slaveCycles[cycle] {
			barriers = append(barriers, cycle)
		}
	}
	sort.Slice(barriers, func(i, j int) bool { return barriers[i] < barriers[j] })

	epochOf := func(cycle uint64) uint32 {
		idx := sort.Search(len(barriers), func(i int) bool { return barriers[i] >= cycle })
		return uint32(idx)
	}
	epochStart := func(epoch uint32) uint64 {
		if epoch == 0 {
			return 0
		}
		return barriers[epoch-1]
	}

	for _, events := range byBoard {
		for _, ev := range events {
			epoch := epochOf(ev.AbsoluteCycle)
			ev.Timestamp = LogicalTimestamp{
				Epoch:        epoch,
				OffsetCycles: ev.AbsoluteCycle - epochStart(epoch),
			}
		}
	}
}

// computeCosts implements Pass 2's cost half: every event with
// instructions is costed by invoking asm (if present) to encode and
// disassemble them, summing per-opcode cycles from costTable. An opaque
// user block's declared duration is authoritative and is never
// recomputed from the assembler, per the design note that a black box's
// timing is not this compiler's to infer. With no assembler, every other
// event costs 0 (the documented offline mode).
func computeCosts(byBoard map[hw.Board][]*event, asm isa.Assembler, costTable isa.CostTable) error {
	for _, events := range byBoard {
		for _, ev := range events {
			if ev.Op.Code == seq.OpOpaqueUserBlock {
				ev.CostCycles = ev.Op.DurationCycles
				continue
			}
			if len(ev.Instructions) == 0 || asm == nil {
				ev.CostCycles = 0
				continue
			}
			asm.Clear()
			for _, instr := range ev.Instructions {
				if err := asm.Emit(instr); err != nil {
					return err
				}
			}
			lines, err := asm.Disassemble(ev.Board)
			if err != nil {
				return err
			}
			ev.CostCycles = uint64(isa.CostOf(lines, costTable))
		}
	}
	return nil
}
