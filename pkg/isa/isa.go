// Package isa defines the boundary between the compiler and the
// hardware-specific instruction assembler: the Instruction record Pass 1
// produces, the Assembler collaborator Pass 2 costs instructions through,
// and the fallback cost table used when an assembler reports no hard
// cycle counts of its own. Grounded on the teacher's pkg/z80asm (the
// Assembler/AssemblerError/ListingLine shapes) and pkg/codegen.Backend
// (the registry-of-named-implementations pattern, reused here for
// FuncCode's string-keyed identity rather than a closed Go enum, since the
// function-code set is owned by the external assembler, not this package).
package isa

import (
	"fmt"

	"github.com/catseq-lab/catseqc/pkg/hw"
)

// FuncCode names an instruction's hardware function. Unlike seq.OpCode,
// this set is not closed in this package: it is whatever the owning
// Assembler understands, per spec §6 ("out of scope: the hardware-specific
// assembly emitter"). The compiler only ever constructs the function codes
// documented in Pass 1's translation rules.
type FuncCode string

const (
	FuncTTLConfig  FuncCode = "ttl_config"
	FuncTTLSet     FuncCode = "ttl_set"
	FuncWaitCycles FuncCode = "wait_cycles"
	FuncWFInit     FuncCode = "wf_init"
	FuncSetCarrier FuncCode = "set_carrier"
	FuncLoadWF     FuncCode = "load_waveform"
	FuncPlay       FuncCode = "play"
	FuncRFSwitch   FuncCode = "rf_switch"
	FuncTrigSlave  FuncCode = "trig_slave"
	FuncWaitMaster FuncCode = "wait_master"
	FuncUserBlock  FuncCode = "user_block"
)

// waitPlaceholder is the type of the sentinel Value Pass 1 emits in place of a
// trig_slave's wait-time argument, before Pass 5 knows the global maximum
// end-time.
type waitPlaceholder struct{}

// WaitTimePlaceholder is the single instance of the Pass-5-resolved
// sentinel value.
var WaitTimePlaceholder any = waitPlaceholder{}

// IsWaitPlaceholder reports whether v is the WAIT_TIME_PLACEHOLDER
// sentinel.
func IsWaitPlaceholder(v any) bool {
	_, ok := v.(waitPlaceholder)
	return ok
}

// DispatchFuncKey is the well-known Instruction.NamedArgs key a
// FuncUserBlock instruction carries its dispatch.BlockFunc callable under.
// isa deliberately does not import pkg/dispatch — it stays decoupled from
// the compiler's callable-handle type — so a caller whose Assembler
// actually runs opaque blocks type-asserts NamedArgs[DispatchFuncKey] back
// to dispatch.BlockFunc itself.
const DispatchFuncKey = "dispatch"

// Instruction is the boundary record the compiler emits: a board, a
// function code, and the arguments the assembler needs to realise it.
type Instruction struct {
	Board     hw.Board
	FuncCode  FuncCode
	Args      []any
	NamedArgs map[string]any
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s.%s(%v, %v)", i.Board, i.FuncCode, i.Args, i.NamedArgs)
}

// WithResolvedWait returns a copy of i with every WAIT_TIME_PLACEHOLDER
// positional argument replaced by waitCycles.
func (i Instruction) WithResolvedWait(waitCycles uint64) Instruction {
	out := i
	if len(i.Args) > 0 {
		out.Args = make([]any, len(i.Args))
		copy(out.Args, i.Args)
		for idx, a := range out.Args {
			if IsWaitPlaceholder(a) {
				out.Args[idx] = waitCycles
			}
		}
	}
	return out
}

// AsmLine is one line of an Assembler's disassembly of an instruction's
// encoded form: the mnemonic, its operands, and optionally the exact
// hardware cycle count the assembler itself measured (0 meaning "unknown,
// consult the cost table").
type AsmLine struct {
	Mnemonic string
	Operands []string
	Cycles   int
}

// Assembler is the ISA cost oracle: an external collaborator (spec §6)
// that turns an Instruction into hardware encoding, and reports how many
// cycles that encoding costs. Pass 2 is the only caller. A nil Assembler
// puts the compiler into offline/degraded mode: every event except an
// opaque user block costs 0 and the scheduler becomes a no-op, per spec §7
// band 3.
type Assembler interface {
	// Clear resets any scratch encoding state between events.
	Clear()
	// Emit encodes one instruction's machine code into the scratch buffer.
	Emit(instr Instruction) error
	// Disassemble returns the encoded lines for board, in program order,
	// since the last Clear.
	Disassemble(board hw.Board) ([]AsmLine, error)
}

// CostTable maps an assembly mnemonic to its cycle cost, used as a
// fallback whenever an AsmLine does not carry its own measured Cycles.
// Per spec §9 Open Question 1, this is a tunable constant, not a hard
// spec: callers may override it via compiler.WithCostTable.
type CostTable map[string]int

// DefaultCostTable mirrors spec §4.3's documented estimate: most
// instructions cost one cycle, multiply costs four, divide/modulo costs
// eight. Mnemonics absent from the table cost one cycle, and CostOf adds
// four cycles to any line carrying a "p"/"P" (predicated/flag) operand.
var DefaultCostTable = CostTable{
	"mul":  4,
	"div":  8,
	"mod":  8,
}

const (
	defaultInstructionCost = 1
	predicatedFlagPenalty  = 4
)

// CostOf sums the cycle cost of lines using table as a fallback wherever a
// line did not carry its own measured Cycles.
func CostOf(lines []AsmLine, table CostTable) int {
	if table == nil {
		table = DefaultCostTable
	}
	total := 0
	for _, line := range lines {
		if line.Cycles > 0 {
			total += line.Cycles
			continue
		}
		cost, ok := table[line.Mnemonic]
		if !ok {
			cost = defaultInstructionCost
		}
		if hasPFlag(line.Operands) {
			cost += predicatedFlagPenalty
		}
		total += cost
	}
	return total
}

func hasPFlag(operands []string) bool {
	for _, op := range operands {
		if op == "p" || op == "P" {
			return true
		}
	}
	return false
}
