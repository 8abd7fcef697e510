package refasm

import (
	"fmt"

	"github.com/remogatto/z80"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/isa"
)

const scratchOrigin uint16 = 0x8000

// boardScratch is one board's CPU core and accumulated disassembly since
// the last Clear.
type boardScratch struct {
	cpu    *z80.Z80
	memory *Memory
	ports  *Ports
	cursor uint16
	lines  []isa.AsmLine
}

func newBoardScratch() *boardScratch {
	memory := newMemory()
	ports := newPorts()
	cpu := z80.NewZ80(memory, ports)
	cpu.SetPC(scratchOrigin)
	return &boardScratch{cpu: cpu, memory: memory, ports: ports, cursor: scratchOrigin}
}

func (b *boardScratch) reset() {
	b.cpu.Reset()
	b.cpu.SetPC(scratchOrigin)
	for i := range b.memory.data {
		b.memory.data[i] = 0
	}
	b.cursor = scratchOrigin
	b.lines = b.lines[:0]
}

// Assembler is the reference isa.Assembler backed by a real Z80 core per
// board, one instance of which can be handed to the compiler as its cost
// oracle via compiler.WithAssembler.
type Assembler struct {
	boards map[hw.Board]*boardScratch
}

// New creates an empty reference assembler.
func New() *Assembler {
	return &Assembler{boards: make(map[hw.Board]*boardScratch)}
}

func (a *Assembler) scratchFor(board hw.Board) *boardScratch {
	s, ok := a.boards[board]
	if !ok {
		s = newBoardScratch()
		a.boards[board] = s
	}
	return s
}

// Clear resets every board's scratch CPU and accumulated disassembly.
func (a *Assembler) Clear() {
	for _, s := range a.boards {
		s.reset()
	}
}

// Emit encodes instr's representative opcode sequence into instr.Board's
// scratch memory and steps the CPU through it, recording the measured
// per-opcode T-state cost.
func (a *Assembler) Emit(instr isa.Instruction) error {
	enc, ok := encodingFor(instr)
	if !ok {
		return fmt.Errorf("refasm: no reference encoding registered for func code %q", instr.FuncCode)
	}

	s := a.scratchFor(instr.Board)
	start := s.cursor
	for i, b := range enc.bytes {
		s.memory.WriteByte(start+uint16(i), b)
	}
	s.cursor = start + uint16(len(enc.bytes))

	s.cpu.SetPC(start)
	pc := start
	mnemIdx := 0
	for pc < s.cursor && mnemIdx < len(enc.mnemonics) {
		before := s.cpu.Tstates
		s.cpu.DoOpcode()
		used := int(s.cpu.Tstates - before)
		pc = s.cpu.PC()
		s.lines = append(s.lines, isa.AsmLine{
			Mnemonic: enc.mnemonics[mnemIdx],
			Cycles:   used,
		})
		mnemIdx++
	}
	return nil
}

// Disassemble returns every AsmLine recorded for board since the last
// Clear.
func (a *Assembler) Disassemble(board hw.Board) ([]isa.AsmLine, error) {
	s, ok := a.boards[board]
	if !ok {
		return nil, nil
	}
	out := make([]isa.AsmLine, len(s.lines))
	copy(out, s.lines)
	return out, nil
}

var _ isa.Assembler = (*Assembler)(nil)
