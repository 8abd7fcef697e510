package compiler

import (
	"fmt"
	"io"

	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/isa"
	"github.com/catseq-lab/catseqc/pkg/seq"
)

const defaultSafetyMargin uint64 = 100

// options collects the functional options Compile accepts. The zero value
// runs in offline/degraded mode: no assembler, the default cost table, no
// trace output, and the documented default safety margin.
type options struct {
	assembler    isa.Assembler
	costTable    isa.CostTable
	trace        io.Writer
	safetyMargin uint64
}

// Option configures a Compile call.
type Option func(*options)

// WithAssembler supplies the ISA cost oracle Pass 2 uses to measure
// instruction costs. Omitting it puts the compiler into offline mode:
// every event except an opaque user block (which always costs its
// declared duration) costs 0, and the scheduler becomes a no-op.
func WithAssembler(asm isa.Assembler) Option {
	return func(o *options) { o.assembler = asm }
}

// WithCostTable overrides the fallback per-mnemonic cost table consulted
// whenever an assembler's disassembly does not carry its own measured
// cycle count.
func WithCostTable(table isa.CostTable) Option {
	return func(o *options) { o.costTable = table }
}

// WithTrace directs a line-oriented progress log of each pass to w.
func WithTrace(w io.Writer) Option {
	return func(o *options) { o.trace = w }
}

// WithSafetyMargin overrides the default 100-cycle margin added to the
// master's resolved sync wait time.
func WithSafetyMargin(cycles uint64) Option {
	return func(o *options) { o.safetyMargin = cycles }
}

func resolveOptions(opts []Option) options {
	o := options{safetyMargin: defaultSafetyMargin, trace: io.Discard}
	for _, apply := range opts {
		apply(&o)
	}
	if o.trace == nil {
		o.trace = io.Discard
	}
	return o
}

func (o options) logf(format string, args ...any) {
	fmt.Fprintf(o.trace, format+"\n", args...)
}

// Compile runs the full five-pass pipeline over root and returns the
// final per-board instruction stream in emission order. The same
// morphism and the same cost oracle always compile to the same output.
func Compile(root *seq.Morphism, opts ...Option) (map[hw.Board][]isa.Instruction, error) {
	o := resolveOptions(opts)

	o.logf("pass1: extracting events from %d lanes", len(root.Lanes))
	byBoard, err := extractEvents(root)
	if err != nil {
		return nil, err
	}
	var total int
	for _, events := range byBoard {
		total += len(events)
	}
	o.logf("pass1: produced %d events across %d boards", total, len(byBoard))

	o.logf("pass2: assigning epochs and costs")
	assignEpochs(byBoard)
	if err := computeCosts(byBoard, o.assembler, o.costTable); err != nil {
		return nil, err
	}

	o.logf("pass3: scheduling pipelined loads")
	if o.assembler != nil {
		for board, events := range byBoard {
			schedulePipelining(events)
			o.logf("pass3: board %s rescheduled", board)
		}
	}

	o.logf("pass4: validating")
	for board, events := range byBoard {
		if err := validateBoard(board, events); err != nil {
			return nil, err
		}
	}

	o.logf("pass5: emitting final instruction stream")
	return emit(byBoard, o.safetyMargin), nil
}
