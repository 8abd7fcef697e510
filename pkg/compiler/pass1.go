package compiler

import (
	"sort"

	"github.com/catseq-lab/catseqc/pkg/arena"
	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/isa"
	"github.com/catseq-lab/catseqc/pkg/seq"
	"github.com/catseq-lab/catseqc/pkg/state"
)

// rawOp is one non-identity atomic op lifted out of its lane, with the
// absolute cycle cursor it starts at.
type rawOp struct {
	Channel       hw.Channel
	Op            seq.AtomicOp
	AbsoluteCycle uint64
}

func channelLess(a, b hw.Channel) bool {
	if a.Board != b.Board {
		return a.Board < b.Board
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.LocalID < b.LocalID
}

// collectRawOps walks every lane once, discarding identity ops (they exist
// only to carry time), and returns every other op with its absolute cycle
// position, sorted deterministically by (cycle, channel) regardless of the
// morphism's internal map iteration order.
func collectRawOps(m *seq.Morphism) []rawOp {
	var all []rawOp
	for ch, lane := range m.Lanes {
		var cursor uint64
		for _, op := range lane.Ops {
			if op.Code != seq.OpIdentity {
				all = append(all, rawOp{Channel: ch, Op: op, AbsoluteCycle: cursor})
			}
			cursor += op.DurationCycles
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].AbsoluteCycle != all[j].AbsoluteCycle {
			return all[i].AbsoluteCycle < all[j].AbsoluteCycle
		}
		return channelLess(all[i].Channel, all[j].Channel)
	})
	return all
}

type groupKey struct {
	Board hw.Board
	Cycle uint64
	Class seq.OpCode
}

// extractEvents implements Pass 1: it flattens the root morphism to a
// per-board chronological event list with absolute cycle timestamps, and
// translates each event's op_code into instruction records, merging
// co-occurring operations at the same (board, timestamp) per the rules in
// spec §4.2.
//
// Every event record is bump-allocated out of a single arena.Arena[event]
// sized to len(raws) — an exact upper bound, since grouping only ever
// merges multiple raw ops into one event, never splits one into several.
// Allocation therefore never exceeds the pre-sized capacity, so the arena
// never reallocates its backing slice and every *event handed to later
// passes stays valid for the pipeline's lifetime.
func extractEvents(m *seq.Morphism) (map[hw.Board][]*event, error) {
	raws := collectRawOps(m)
	evArena := arena.New[event](len(raws))

	groups := make(map[groupKey][]rawOp)
	var groupOrder []groupKey
	var singletons []*event

	for _, r := range raws {
		switch r.Op.Code {
		case seq.OpDigitalInit, seq.OpWFBoardInit, seq.OpSyncSlave, seq.OpOpaqueUserBlock:
			key := groupKey{Board: r.Channel.Board, Cycle: r.AbsoluteCycle, Class: r.Op.Code}
			if _, ok := groups[key]; !ok {
				groupOrder = append(groupOrder, key)
			}
			groups[key] = append(groups[key], r)
		case seq.OpDigitalOn, seq.OpDigitalOff:
			key := groupKey{Board: r.Channel.Board, Cycle: r.AbsoluteCycle, Class: seq.OpDigitalOn}
			if _, ok := groups[key]; !ok {
				groupOrder = append(groupOrder, key)
			}
			groups[key] = append(groups[key], r)
		case seq.OpWFUpdateParams:
			key := groupKey{Board: r.Channel.Board, Cycle: r.AbsoluteCycle, Class: seq.OpWFUpdateParams}
			if _, ok := groups[key]; !ok {
				groupOrder = append(groupOrder, key)
			}
			groups[key] = append(groups[key], r)
		default:
			val, err := translateSingleton(r)
			if err != nil {
				return nil, err
			}
			singletons = append(singletons, evArena.Get(evArena.Alloc(val)))
		}
	}

	byBoard := make(map[hw.Board][]*event)
	for _, ev := range singletons {
		byBoard[ev.Board] = append(byBoard[ev.Board], ev)
	}
	for _, key := range groupOrder {
		members := groups[key]
		sort.Slice(members, func(i, j int) bool { return channelLess(members[i].Channel, members[j].Channel) })
		val := translateGroup(key, members)
		ev := evArena.Get(evArena.Alloc(val))
		byBoard[ev.Board] = append(byBoard[ev.Board], ev)
	}

	for board, events := range byBoard {
		sort.Slice(events, func(i, j int) bool {
			if events[i].AbsoluteCycle != events[j].AbsoluteCycle {
				return events[i].AbsoluteCycle < events[j].AbsoluteCycle
			}
			return channelLess(events[i].Channel, events[j].Channel)
		})
		for i, ev := range events {
			ev.SequenceIndex = i
		}
		byBoard[board] = events
	}
	return byBoard, nil
}

func maskBit(localID uint16) uint32 { return 1 << localID }

func translateSingleton(r rawOp) (event, error) {
	ev := event{
		Board:         r.Channel.Board,
		Channel:       r.Channel,
		Op:            r.Op,
		AbsoluteCycle: r.AbsoluteCycle,
		Timestamp:     LogicalTimestamp{Epoch: 0, OffsetCycles: r.AbsoluteCycle},
	}
	switch r.Op.Code {
	case seq.OpWFSetCarrier:
		end := r.Op.End.(state.WFReady)
		ev.Instructions = []isa.Instruction{{
			Board:    r.Channel.Board,
			FuncCode: isa.FuncSetCarrier,
			Args:     []any{r.Channel.LocalID, end.CarrierHz},
		}}
	case seq.OpWFLoadCoeffs:
		end := r.Op.End.(state.WFActive)
		instrs := make([]isa.Instruction, 0, len(end.Pending))
		for _, tone := range end.Pending {
			instrs = append(instrs, isa.Instruction{
				Board:    r.Channel.Board,
				FuncCode: isa.FuncLoadWF,
				Args:     []any{r.Channel.LocalID, tone},
			})
		}
		ev.Instructions = instrs
	case seq.OpWFRFSwitch:
		end := r.Op.End.(state.WFActive)
		stateMask := uint32(0)
		if !end.RFOn {
			stateMask = maskBit(r.Channel.LocalID)
		}
		ev.Instructions = []isa.Instruction{{
			Board:    r.Channel.Board,
			FuncCode: isa.FuncRFSwitch,
			Args:     []any{maskBit(r.Channel.LocalID), stateMask},
		}}
	case seq.OpSyncMaster:
		ev.Instructions = []isa.Instruction{{
			Board:    r.Channel.Board,
			FuncCode: isa.FuncTrigSlave,
			Args:     []any{isa.WaitTimePlaceholder, r.Channel.LocalID},
		}}
	default:
		// identity never reaches here; every other op_code is handled by
		// translateGroup via extractEvents' switch above.
	}
	return ev, nil
}

func translateGroup(key groupKey, members []rawOp) event {
	rep := members[0]
	ev := event{
		Board:         key.Board,
		Channel:       rep.Channel,
		Op:            rep.Op,
		AbsoluteCycle: key.Cycle,
		Timestamp:     LogicalTimestamp{Epoch: 0, OffsetCycles: key.Cycle},
	}

	switch key.Class {
	case seq.OpDigitalInit:
		var mask, direction uint32
		for _, m := range members {
			mask |= maskBit(m.Channel.LocalID)
			if m.Op.End.(state.Digital).Level == state.DigitalHigh {
				direction |= maskBit(m.Channel.LocalID)
			}
		}
		ev.Instructions = []isa.Instruction{{
			Board:    key.Board,
			FuncCode: isa.FuncTTLConfig,
			Args:     []any{mask, direction},
		}}
	case seq.OpDigitalOn:
		var mask, bits uint32
		for _, m := range members {
			mask |= maskBit(m.Channel.LocalID)
			if m.Op.Code == seq.OpDigitalOn {
				bits |= maskBit(m.Channel.LocalID)
			}
			ev.Op = m.Op
		}
		ev.Instructions = []isa.Instruction{{
			Board:    key.Board,
			FuncCode: isa.FuncTTLSet,
			Args:     []any{mask, bits},
		}}
	case seq.OpWFBoardInit:
		ev.Instructions = []isa.Instruction{{Board: key.Board, FuncCode: isa.FuncWFInit}}
	case seq.OpWFUpdateParams:
		var mask uint32
		for _, m := range members {
			mask |= maskBit(m.Channel.LocalID)
		}
		ev.Instructions = []isa.Instruction{{
			Board:    key.Board,
			FuncCode: isa.FuncPlay,
			Args:     []any{mask, mask},
		}}
	case seq.OpSyncSlave:
		ev.Instructions = []isa.Instruction{{
			Board:    key.Board,
			FuncCode: isa.FuncWaitMaster,
			Args:     []any{rep.Channel.LocalID},
		}}
	case seq.OpOpaqueUserBlock:
		payload := rep.Op.Payload.(seq.BlackBoxPayload)
		namedArgs := make(map[string]any, len(payload.Kwargs)+1)
		for k, v := range payload.Kwargs {
			namedArgs[k] = v
		}
		namedArgs[isa.DispatchFuncKey] = payload.Func
		ev.Instructions = []isa.Instruction{{
			Board:     key.Board,
			FuncCode:  isa.FuncUserBlock,
			Args:      payload.Args,
			NamedArgs: namedArgs,
		}}
	}
	return ev
}
