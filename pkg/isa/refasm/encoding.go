package refasm

import (
	"github.com/catseq-lab/catseqc/pkg/isa"
	"github.com/catseq-lab/catseqc/pkg/state"
)

// encoding is one FuncCode's representative Z80 opcode sequence: the
// mnemonic names used in the disassembly, paired byte-for-byte with the
// machine code the CPU core actually steps through to measure a cost. For
// most function codes, operand values never affect the encoding — real ISA
// cost models charge by opcode shape, not by the argument's runtime value.
// isa.FuncLoadWF is the one exception: its cost depends on the loaded
// tone's ramping order (see loadWFStaticEncoding below).
type encoding struct {
	mnemonics []string
	bytes     []byte
}

// opcodeTable maps each FuncCode Pass 1 can produce to its representative
// Z80 encoding. Chosen so that each function's relative cost roughly
// tracks how much hardware work it stands in for: single-register writes
// (ttl_set, rf_switch) are a single OUT; multi-field programming takes
// several instructions (load_waveform: LD/OUT/INC triples; set_carrier: a
// 16-bit immediate load and store).
var opcodeTable = map[isa.FuncCode]encoding{
	isa.FuncTTLConfig: {
		mnemonics: []string{"ld a,n", "out (n),a"},
		bytes:     []byte{0x3E, 0x00, 0xD3, 0x00},
	},
	isa.FuncTTLSet: {
		mnemonics: []string{"out (n),a"},
		bytes:     []byte{0xD3, 0x01},
	},
	isa.FuncWFInit: {
		mnemonics: []string{"ld a,n", "out (n),a", "out (n),a"},
		bytes:     []byte{0x3E, 0x00, 0xD3, 0x02, 0xD3, 0x02},
	},
	isa.FuncSetCarrier: {
		mnemonics: []string{"ld hl,nn", "ld (nn),hl"},
		bytes:     []byte{0x21, 0x00, 0x00, 0x22, 0x00, 0x40},
	},
	// FuncLoadWF's table entry is the general (ramped) encoding: two
	// LD/OUT/INC triples, used for any ramp order above 0. A tone with
	// RequiredRampingOrder() == 0 is encoded instead by
	// loadWFStaticEncoding below, which skips the second triple.
	isa.FuncLoadWF: {
		mnemonics: []string{"ld a,(hl)", "out (n),a", "inc hl", "ld a,(hl)", "out (n),a", "inc hl"},
		bytes:     []byte{0x7E, 0xD3, 0x03, 0x23, 0x7E, 0xD3, 0x03, 0x23},
	},
	isa.FuncPlay: {
		mnemonics: []string{"ld a,n", "out (n),a"},
		bytes:     []byte{0x3E, 0x00, 0xD3, 0x04},
	},
	isa.FuncRFSwitch: {
		mnemonics: []string{"out (n),a"},
		bytes:     []byte{0xD3, 0x05},
	},
	isa.FuncTrigSlave: {
		mnemonics: []string{"ld hl,nn", "out (n),a"},
		bytes:     []byte{0x21, 0x00, 0x00, 0xD3, 0x06},
	},
	isa.FuncWaitMaster: {
		mnemonics: []string{"in a,(n)"},
		bytes:     []byte{0xDB, 0x06},
	},
	isa.FuncUserBlock: {
		// The compiler treats a black box's declared duration as
		// authoritative (spec §9); this encoding never contributes to
		// Pass 2's cost sum in practice, but a harmless NOP keeps the
		// table total.
		mnemonics: []string{"nop"},
		bytes:     []byte{0x00},
	},
}

// loadWFStaticEncoding is the cheaper isa.FuncLoadWF encoding used when the
// loaded tone's RequiredRampingOrder() is 0: a static (non-ramped)
// frequency/amplitude pair needs only one LD/OUT/INC triple, not the two
// the general encoding above uses for every ramped tone.
var loadWFStaticEncoding = encoding{
	mnemonics: []string{"ld a,(hl)", "out (n),a", "inc hl"},
	bytes:     []byte{0x7E, 0xD3, 0x03, 0x23},
}

// encodingFor picks instr's representative encoding, special-casing
// isa.FuncLoadWF to consult the tone's RequiredRampingOrder: an order-0
// (static) tone costs less to program than a ramped one.
func encodingFor(instr isa.Instruction) (encoding, bool) {
	if instr.FuncCode == isa.FuncLoadWF {
		for _, arg := range instr.Args {
			tone, ok := arg.(state.ToneParams)
			if !ok {
				continue
			}
			if tone.RequiredRampingOrder() == 0 {
				return loadWFStaticEncoding, true
			}
			break
		}
	}
	enc, ok := opcodeTable[instr.FuncCode]
	return enc, ok
}
