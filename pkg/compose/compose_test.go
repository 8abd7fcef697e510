package compose

import (
	"testing"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/seq"
	"github.com/catseq-lab/catseqc/pkg/state"
)

func mustChannel(t *testing.T, board hw.Board, kind hw.Kind, id uint16) hw.Channel {
	t.Helper()
	ch, err := hw.NewChannel(board, kind, id)
	if err != nil {
		t.Fatalf("NewChannel: %v", err)
	}
	return ch
}

func TestSerialConcatenatesMatchingStates(t *testing.T) {
	ch := mustChannel(t, hw.MainBoard, hw.Digital, 0)
	on := seq.FromAtomic(seq.NewDigitalOn(ch, state.Digital{Level: state.DigitalLow}))
	off := seq.FromAtomic(seq.NewDigitalOff(ch, state.Digital{Level: state.DigitalHigh}))

	result, err := Serial(on, off)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lane := result.Lanes[ch]
	if len(lane.Ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(lane.Ops))
	}
	if result.TotalDuration() != 2 {
		t.Errorf("expected total duration 2, got %d", result.TotalDuration())
	}
}

func TestSerialRejectsStateMismatch(t *testing.T) {
	ch := mustChannel(t, hw.MainBoard, hw.Digital, 0)
	// onFromUninitialized ends in DigitalHigh, but off declares it starts
	// from DigitalLow: the two disagree and Serial must reject it.
	onFromUninitialized := seq.FromAtomic(seq.NewDigitalOn(ch, state.Digital{Level: state.DigitalUninitialized}))
	off := seq.FromAtomic(seq.NewDigitalOff(ch, state.Digital{Level: state.DigitalLow}))

	_, err := Serial(onFromUninitialized, off)
	if err == nil {
		t.Fatal("expected a state mismatch error")
	}
	if _, ok := err.(*StateMismatchError); !ok {
		t.Errorf("expected *StateMismatchError, got %T: %v", err, err)
	}
}

func TestSerialPadsMissingChannelWithIdentity(t *testing.T) {
	chA := mustChannel(t, hw.MainBoard, hw.Digital, 0)
	chB := mustChannel(t, hw.MainBoard, hw.Digital, 1)

	onA := seq.FromAtomic(seq.NewDigitalOn(chA, state.Digital{Level: state.DigitalLow}))
	onB := seq.FromAtomic(seq.NewDigitalOn(chB, state.Digital{Level: state.DigitalLow}))

	left, err := Parallel(onA, onB)
	if err != nil {
		t.Fatalf("unexpected error building parallel base: %v", err)
	}

	// second only touches chA; chB must be identity-padded.
	offA := seq.FromAtomic(seq.NewDigitalOff(chA, state.Digital{Level: state.DigitalHigh}))

	result, err := Serial(left, offA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	laneB := result.Lanes[chB]
	if len(laneB.Ops) != 2 {
		t.Fatalf("expected chB padded to 2 ops, got %d", len(laneB.Ops))
	}
	if laneB.Ops[1].Code != seq.OpIdentity {
		t.Errorf("expected padding op to be identity, got %s", laneB.Ops[1].Code)
	}
	if result.TotalDuration() != 2 {
		t.Errorf("expected total duration 2, got %d", result.TotalDuration())
	}
}

func TestAutoSerialRewritesCompatibleStartState(t *testing.T) {
	ch := mustChannel(t, hw.MainBoard, hw.Waveform, 0)
	setCarrier := seq.FromAtomic(seq.NewWFSetCarrier(ch, 100e6))

	// Declare an inaccurate WFReady start state; AutoSerial should rewrite
	// it to match setCarrier's actual end-state since both are WFReady.
	loadOp, err := seq.NewWFLoadCoeffs(ch, state.WFReady{CarrierHz: 0}, nil)
	if err != nil {
		t.Fatalf("NewWFLoadCoeffs: %v", err)
	}
	load := seq.FromAtomic(loadOp)

	result, err := AutoSerial(setCarrier, load)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lane := result.Lanes[ch]
	if !lane.Ops[1].Start.Equal(state.WFReady{CarrierHz: 100e6}) {
		t.Errorf("expected rewritten start state to match carrier, got %s", lane.Ops[1].Start)
	}
}

func TestParallelRejectsOverlappingChannels(t *testing.T) {
	ch := mustChannel(t, hw.MainBoard, hw.Digital, 0)
	a := seq.FromAtomic(seq.NewDigitalOn(ch, state.Digital{Level: state.DigitalLow}))
	b := seq.FromAtomic(seq.NewDigitalOff(ch, state.Digital{Level: state.DigitalLow}))

	_, err := Parallel(a, b)
	if err == nil {
		t.Fatal("expected ChannelOverlapError")
	}
	if _, ok := err.(*ChannelOverlapError); !ok {
		t.Errorf("expected *ChannelOverlapError, got %T", err)
	}
}

func TestParallelPadsShorterOperandToMatchDuration(t *testing.T) {
	chA := mustChannel(t, hw.MainBoard, hw.Digital, 0)
	chB := mustChannel(t, hw.MainBoard, hw.Digital, 1)

	short := seq.FromAtomic(seq.NewDigitalOn(chA, state.Digital{Level: state.DigitalLow}))
	long, err := Serial(
		seq.FromAtomic(seq.NewDigitalOn(chB, state.Digital{Level: state.DigitalLow})),
		seq.FromAtomic(seq.NewDigitalOff(chB, state.Digital{Level: state.DigitalHigh})),
	)
	if err != nil {
		t.Fatalf("unexpected error building long operand: %v", err)
	}

	result, err := Parallel(short, long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalDuration() != long.TotalDuration() {
		t.Fatalf("expected padded duration %d, got %d", long.TotalDuration(), result.TotalDuration())
	}
	laneA := result.Lanes[chA]
	if len(laneA.Ops) != 2 || laneA.Ops[1].Code != seq.OpIdentity {
		t.Errorf("expected chA padded with a trailing identity op, got %v", laneA.Ops)
	}
}

func TestAutoSerialDictAppliesBuildersPerChannel(t *testing.T) {
	chA := mustChannel(t, hw.MainBoard, hw.Digital, 0)
	chB := mustChannel(t, hw.MainBoard, hw.Digital, 1)

	base, err := Parallel(
		seq.FromAtomic(seq.NewDigitalOn(chA, state.Digital{Level: state.DigitalLow})),
		seq.FromAtomic(seq.NewDigitalOn(chB, state.Digital{Level: state.DigitalLow})),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := AutoSerialDict(base, map[hw.Channel]Builder{
		chA: func(current state.State) (*seq.Morphism, error) {
			d := current.(state.Digital)
			return seq.FromAtomic(seq.NewDigitalOff(chA, d)), nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	laneA := result.Lanes[chA]
	laneB := result.Lanes[chB]
	if len(laneA.Ops) != 2 {
		t.Fatalf("expected chA to have 2 ops, got %d", len(laneA.Ops))
	}
	if len(laneB.Ops) != 2 || laneB.Ops[1].Code != seq.OpIdentity {
		t.Errorf("expected chB padded with identity since it was not listed, got %v", laneB.Ops)
	}
}

func TestAutoSerialDictRejectsUnknownChannel(t *testing.T) {
	chA := mustChannel(t, hw.MainBoard, hw.Digital, 0)
	chOther := mustChannel(t, hw.MainBoard, hw.Digital, 9)
	base := seq.FromAtomic(seq.NewDigitalOn(chA, state.Digital{Level: state.DigitalLow}))

	_, err := AutoSerialDict(base, map[hw.Channel]Builder{
		chOther: func(current state.State) (*seq.Morphism, error) {
			return seq.FromAtomic(seq.NewDigitalOff(chOther, current.(state.Digital))), nil
		},
	})
	if err == nil {
		t.Fatal("expected UnknownChannelError")
	}
	if _, ok := err.(*UnknownChannelError); !ok {
		t.Errorf("expected *UnknownChannelError, got %T", err)
	}
}

func TestChainFoldsLeftToRightIteratively(t *testing.T) {
	ch := mustChannel(t, hw.MainBoard, hw.Digital, 0)
	morphisms := []*seq.Morphism{
		seq.FromAtomic(seq.NewDigitalOn(ch, state.Digital{Level: state.DigitalLow})),
	}
	cur := state.DigitalHigh
	for i := 0; i < 2000; i++ {
		var op seq.AtomicOp
		if cur == state.DigitalHigh {
			op = seq.NewDigitalOff(ch, state.Digital{Level: state.DigitalHigh})
			cur = state.DigitalLow
		} else {
			op = seq.NewDigitalOn(ch, state.Digital{Level: state.DigitalLow})
			cur = state.DigitalHigh
		}
		morphisms = append(morphisms, seq.FromAtomic(op))
	}

	result, err := Chain(Serial, morphisms)
	if err != nil {
		t.Fatalf("unexpected error chaining 2001 morphisms: %v", err)
	}
	if result.TotalDuration() != uint64(len(morphisms)) {
		t.Errorf("expected duration %d, got %d", len(morphisms), result.TotalDuration())
	}
}
