package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/catseq-lab/catseqc/pkg/compiler"
	"github.com/catseq-lab/catseqc/pkg/compose"
	"github.com/catseq-lab/catseqc/pkg/hw"
	"github.com/catseq-lab/catseqc/pkg/isa"
	"github.com/catseq-lab/catseqc/pkg/isa/refasm"
	"github.com/catseq-lab/catseqc/pkg/seq"
	"github.com/catseq-lab/catseqc/pkg/state"
	"github.com/spf13/cobra"
)

var (
	trace         bool
	useRefasm     bool
	safetyMargin  uint64
	holdCycles    uint64
)

var rootCmd = &cobra.Command{
	Use:   "catseqc",
	Short: "catseqc — morphism-algebra compiler for multi-board RWG control sequences",
	Long: `catseqc compiles control-sequence morphisms built from pkg/seq and
pkg/compose into a deterministic, per-board hardware instruction stream.

This binary does not parse a source language — spec.md leaves authoring
entirely to caller Go code. "compile" builds a small demonstration morphism
in-process and runs it through the five-pass pipeline; "costs" dumps the
active ISA cost table so a board integrator can sanity-check the oracle
Pass 2 will use.`,
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "compile a demonstration digital-pulse morphism and print its instruction stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := hw.NewChannel(hw.MainBoard, hw.Digital, 0)
		if err != nil {
			return err
		}
		root, err := demoPulse(ch, holdCycles)
		if err != nil {
			return fmt.Errorf("building demonstration morphism: %w", err)
		}

		var opts []compiler.Option
		if trace {
			opts = append(opts, compiler.WithTrace(os.Stderr))
		}
		if safetyMargin > 0 {
			opts = append(opts, compiler.WithSafetyMargin(safetyMargin))
		}
		if useRefasm {
			opts = append(opts, compiler.WithAssembler(refasm.New()))
		}

		out, err := compiler.Compile(root, opts...)
		if err != nil {
			return fmt.Errorf("compile error: %w", err)
		}
		printInstructions(out)
		return nil
	},
}

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "dump the default ISA cost table",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := make([]string, 0, len(isa.DefaultCostTable))
		for name := range isa.DefaultCostTable {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%-12s %d cycles\n", name, isa.DefaultCostTable[name])
		}
		return nil
	},
}

func demoPulse(ch hw.Channel, hold uint64) (*seq.Morphism, error) {
	init := seq.FromAtomic(seq.NewDigitalInit(ch, state.DigitalLow))
	on := seq.FromAtomic(seq.NewDigitalOn(ch, state.Digital{Level: state.DigitalLow}))
	wait := seq.FromAtomic(seq.NewIdentity(ch, state.Digital{Level: state.DigitalHigh}, hold))
	off := seq.FromAtomic(seq.NewDigitalOff(ch, state.Digital{Level: state.DigitalHigh}))
	return compose.Chain(compose.Serial, []*seq.Morphism{init, on, wait, off})
}

func printInstructions(out map[hw.Board][]isa.Instruction) {
	boards := make([]hw.Board, 0, len(out))
	for b := range out {
		boards = append(boards, b)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i] < boards[j] })

	for _, board := range boards {
		fmt.Printf("; board %s\n", board)
		for _, instr := range out[board] {
			fmt.Println(instr)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "print per-pass progress banners to stderr")
	rootCmd.PersistentFlags().BoolVar(&useRefasm, "assembler", false, "cost instructions with the real Z80 reference assembler instead of the offline zero-cost oracle")
	rootCmd.PersistentFlags().Uint64Var(&safetyMargin, "safety-margin", 0, "override the default 100-cycle master wait safety margin (0 keeps the default)")
	compileCmd.Flags().Uint64Var(&holdCycles, "hold-cycles", 2500, "number of cycles the demonstration pulse holds its TTL line high")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(costsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
