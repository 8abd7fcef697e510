package compiler

import (
	"sort"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/isa"
	"github.com/catseq-lab/catseqc/pkg/seq"
)

// emit implements Pass 5: it resolves every WAIT_TIME_PLACEHOLDER against
// the global maximum end-time plus the safety margin, then walks each
// board's events in deterministic order inserting explicit wait_cycles
// instructions wherever the board sits idle between events.
func emit(byBoard map[hw.Board][]*event, safetyMargin uint64) map[hw.Board][]isa.Instruction {
	var tMax uint64
	for _, events := range byBoard {
		for _, ev := range events {
			if end := ev.AbsoluteCycle + ev.CostCycles; end > tMax {
				tMax = end
			}
		}
	}
	masterWait := tMax + safetyMargin

	boards := make([]hw.Board, 0, len(byBoard))
	for board := range byBoard {
		boards = append(boards, board)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i] < boards[j] })

	result := make(map[hw.Board][]isa.Instruction, len(byBoard))
	for _, board := range boards {
		events := append([]*event(nil), byBoard[board]...)
		sort.Slice(events, func(i, j int) bool {
			if events[i].AbsoluteCycle != events[j].AbsoluteCycle {
				return events[i].AbsoluteCycle < events[j].AbsoluteCycle
			}
			iInit := events[i].Op.Code == seq.OpWFBoardInit
			jInit := events[j].Op.Code == seq.OpWFBoardInit
			if iInit != jInit {
				return iInit
			}
			return channelLess(events[i].Channel, events[j].Channel)
		})

		var out []isa.Instruction
		var boardFreeAt uint64
		for _, ev := range events {
			t := ev.AbsoluteCycle
			if t > boardFreeAt {
				out = append(out, isa.Instruction{
					Board:    board,
					FuncCode: isa.FuncWaitCycles,
					Args:     []any{t - boardFreeAt},
				})
			}
			for _, instr := range ev.Instructions {
				out = append(out, instr.WithResolvedWait(masterWait))
			}
			if t > boardFreeAt {
				boardFreeAt = t
			}
			boardFreeAt += ev.CostCycles
		}
		result[board] = out
	}
	return result
}
