package isa

import "testing"

func TestCostOfUsesMeasuredCyclesWhenPresent(t *testing.T) {
	lines := []AsmLine{
		{Mnemonic: "nop", Cycles: 7},
		{Mnemonic: "unknown-mnemonic"},
	}
	got := CostOf(lines, nil)
	want := 7 + defaultInstructionCost
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestCostOfFallsBackToTableForMultiplyAndDivide(t *testing.T) {
	lines := []AsmLine{{Mnemonic: "mul"}, {Mnemonic: "div"}, {Mnemonic: "mod"}}
	got := CostOf(lines, nil)
	want := 4 + 8 + 8
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestCostOfAddsPFlagPenalty(t *testing.T) {
	lines := []AsmLine{{Mnemonic: "custom", Operands: []string{"p"}}}
	got := CostOf(lines, CostTable{"custom": 1})
	want := 1 + predicatedFlagPenalty
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestWithResolvedWaitReplacesPlaceholderOnly(t *testing.T) {
	instr := Instruction{
		FuncCode: FuncTrigSlave,
		Args:     []any{WaitTimePlaceholder, "sync-1"},
	}
	resolved := instr.WithResolvedWait(2600)
	if resolved.Args[0] != uint64(2600) {
		t.Errorf("expected placeholder resolved to 2600, got %v", resolved.Args[0])
	}
	if resolved.Args[1] != "sync-1" {
		t.Errorf("expected second arg untouched, got %v", resolved.Args[1])
	}
	if !IsWaitPlaceholder(instr.Args[0]) {
		t.Error("expected original instruction's placeholder to remain untouched")
	}
}
