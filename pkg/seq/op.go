// Package seq implements the core data model: atomic operations, lanes, and
// morphisms built from them. Values in this package are immutable once
// constructed; composition (package compose) only ever produces new
// morphisms, structurally sharing the lanes of its inputs.
package seq

import (
	"fmt"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/state"
)

// OpCode is the 16-bit, closed enumeration of atomic operation kinds. The
// numeric values are part of the wire-stable ABI (spec §6) and must not be
// renumbered.
type OpCode uint16

const (
	OpIdentity        OpCode = 0x00
	OpDigitalInit     OpCode = 0x10
	OpDigitalOn       OpCode = 0x11
	OpDigitalOff      OpCode = 0x12
	OpWFBoardInit     OpCode = 0x20
	OpWFSetCarrier    OpCode = 0x21
	OpWFLoadCoeffs    OpCode = 0x22
	OpWFUpdateParams  OpCode = 0x23
	OpWFRFSwitch      OpCode = 0x24
	OpSyncMaster      OpCode = 0x30
	OpSyncSlave       OpCode = 0x31
	OpOpaqueUserBlock OpCode = 0x40
)

func (c OpCode) String() string {
	switch c {
	case OpIdentity:
		return "IDENTITY"
	case OpDigitalInit:
		return "TTL_INIT"
	case OpDigitalOn:
		return "TTL_ON"
	case OpDigitalOff:
		return "TTL_OFF"
	case OpWFBoardInit:
		return "WF_INIT"
	case OpWFSetCarrier:
		return "WF_SET_CARRIER"
	case OpWFLoadCoeffs:
		return "WF_LOAD"
	case OpWFUpdateParams:
		return "WF_PLAY"
	case OpWFRFSwitch:
		return "WF_RF_SWITCH"
	case OpSyncMaster:
		return "SYNC_MASTER"
	case OpSyncSlave:
		return "SYNC_SLAVE"
	case OpOpaqueUserBlock:
		return "USER_BLOCK"
	default:
		return fmt.Sprintf("OpCode(0x%02x)", uint16(c))
	}
}

// Criticality says whether the scheduler may move an operation in time.
type Criticality uint8

const (
	TimingCritical Criticality = iota
	TimingFlexible
)

// timingFlexible is the closed set of op codes the scheduler (pass 3) may
// reschedule. Every other code is timing-critical: it must execute at the
// timestamp the event extractor assigned it.
var timingFlexible = map[OpCode]bool{
	OpDigitalInit:  true,
	OpWFBoardInit:  true,
	OpWFSetCarrier: true,
	OpWFLoadCoeffs: true,
}

// Classify returns whether c may be rescheduled by the pipelining pass.
func (c OpCode) Classify() Criticality {
	if timingFlexible[c] {
		return TimingFlexible
	}
	return TimingCritical
}

// AtomicOp is the immutable, minimal unit of a control sequence: a single
// channel's transition from one state to another over a fixed number of
// cycles.
type AtomicOp struct {
	Channel        hw.Channel
	Start          state.State
	End            state.State
	DurationCycles uint64
	Code           OpCode
	Payload        any
}

func (op AtomicOp) String() string {
	return fmt.Sprintf("%s@%s(%dc)", op.Code, op.Channel, op.DurationCycles)
}

// NewIdentity creates a pure time-holding operation that preserves st on
// channel ch for duration cycles. Identity operations never translate to
// an instruction; they exist only to carry time during composition.
func NewIdentity(ch hw.Channel, st state.State, duration uint64) AtomicOp {
	return AtomicOp{Channel: ch, Start: st, End: st, DurationCycles: duration, Code: OpIdentity}
}

// NewDigitalInit creates a TTL direction/initialization operation.
func NewDigitalInit(ch hw.Channel, initial state.DigitalLevel) AtomicOp {
	return AtomicOp{
		Channel:        ch,
		Start:          state.Digital{Level: state.DigitalUninitialized},
		End:            state.Digital{Level: initial},
		DurationCycles: 2,
		Code:           OpDigitalInit,
	}
}

// NewDigitalOn creates a TTL-high operation.
func NewDigitalOn(ch hw.Channel, start state.Digital) AtomicOp {
	return AtomicOp{
		Channel:        ch,
		Start:          start,
		End:            state.Digital{Level: state.DigitalHigh},
		DurationCycles: 1,
		Code:           OpDigitalOn,
	}
}

// NewDigitalOff creates a TTL-low operation.
func NewDigitalOff(ch hw.Channel, start state.Digital) AtomicOp {
	return AtomicOp{
		Channel:        ch,
		Start:          start,
		End:            state.Digital{Level: state.DigitalLow},
		DurationCycles: 1,
		Code:           OpDigitalOff,
	}
}

// NewWFBoardInit creates the once-per-board RWG initialization operation.
// The channel stays uninitialized until a carrier is set.
func NewWFBoardInit(ch hw.Channel) AtomicOp {
	return AtomicOp{
		Channel:        ch,
		Start:          state.WFUninitialized{},
		End:            state.WFUninitialized{},
		DurationCycles: 1,
		Code:           OpWFBoardInit,
	}
}

// NewWFSetCarrier creates a carrier-frequency configuration operation.
func NewWFSetCarrier(ch hw.Channel, carrierHz float64) AtomicOp {
	return AtomicOp{
		Channel:        ch,
		Start:          state.WFUninitialized{},
		End:            state.WFReady{CarrierHz: carrierHz},
		DurationCycles: 1,
		Code:           OpWFSetCarrier,
	}
}

// NewWFLoadCoeffs stages params to be played on the next RWG_UPDATE_PARAMS.
// start must be WFReady or WFActive; an error is returned otherwise.
func NewWFLoadCoeffs(ch hw.Channel, start state.State, params []state.ToneParams) (AtomicOp, error) {
	var end state.WFActive
	switch s := start.(type) {
	case state.WFReady:
		end = state.WFActive{CarrierHz: s.CarrierHz, RFOn: false, Snapshot: nil, Pending: params}
	case state.WFActive:
		end = state.WFActive{CarrierHz: s.CarrierHz, RFOn: s.RFOn, Snapshot: s.Snapshot, Pending: params}
	default:
		return AtomicOp{}, fmt.Errorf("seq: WF_LOAD_COEFFS must start from WFReady or WFActive, got %T", start)
	}
	return AtomicOp{
		Channel:        ch,
		Start:          start,
		End:            end,
		DurationCycles: 1,
		Code:           OpWFLoadCoeffs,
	}, nil
}

// NewWFUpdateParams creates the operation that triggers playback of
// previously-loaded tone parameters, transitioning the channel from start
// to end over duration cycles (the visible waveform-segment length).
func NewWFUpdateParams(ch hw.Channel, start, end state.State, duration uint64) AtomicOp {
	return AtomicOp{
		Channel:        ch,
		Start:          start,
		End:            end,
		DurationCycles: duration,
		Code:           OpWFUpdateParams,
	}
}

// NewWFRFSwitch toggles RF output on or off on an already-active channel.
func NewWFRFSwitch(ch hw.Channel, start state.WFActive, rfOn bool) AtomicOp {
	end := start
	end.RFOn = rfOn
	return AtomicOp{
		Channel:        ch,
		Start:          start,
		End:            end,
		DurationCycles: 1,
		Code:           OpWFRFSwitch,
	}
}

// NewSyncMaster creates the master side of a global synchronization
// barrier on ch.
func NewSyncMaster(ch hw.Channel, st state.State) AtomicOp {
	return AtomicOp{Channel: ch, Start: st, End: st, DurationCycles: 0, Code: OpSyncMaster}
}

// NewSyncSlave creates the slave side of a global synchronization barrier
// on ch.
func NewSyncSlave(ch hw.Channel, st state.State) AtomicOp {
	return AtomicOp{Channel: ch, Start: st, End: st, DurationCycles: 0, Code: OpSyncSlave}
}
