// Package dispatch provides the typed handle table that stands in for
// first-class closures over the hardware assembler when an opaque user
// block (OpOpaqueUserBlock) needs to invoke board-specific code. Grounded
// on the teacher's pkg/meta.LuaEvaluator wrapper, which the same way gives
// compile-time code a scriptable escape hatch into the host language.
package dispatch

import (
	"fmt"

	"github.com/catseq-lab/catseqc/pkg/hw"
)

// Call is the context a BlockFunc is invoked with: the board it is running
// on, and the user-supplied positional/keyword arguments captured at the
// call site that created the black box.
type Call struct {
	Board hw.Board
	Args  []any
	Kwargs map[string]any
}

// BlockFunc is a user-defined board-specific callable. It does not return
// instructions directly — that is the hardware assembly emitter's job,
// entirely out of this compiler's scope — it only records whatever
// side effect the caller's table entry performs (e.g. appending to a log,
// or, for the Lua-scripted entries below, running a script).
type BlockFunc func(Call) error

// Table is a named registry of BlockFuncs, one entry per board function a
// USER_BLOCK operation might invoke.
type Table struct {
	entries map[string]BlockFunc
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{entries: make(map[string]BlockFunc)}
}

// Register adds or replaces the handle named name.
func (t *Table) Register(name string, fn BlockFunc) {
	t.entries[name] = fn
}

// Lookup returns the handle named name, or an error if none was registered.
func (t *Table) Lookup(name string) (BlockFunc, error) {
	fn, ok := t.entries[name]
	if !ok {
		return nil, fmt.Errorf("dispatch: no block function registered under %q", name)
	}
	return fn, nil
}

// Names returns every registered handle name, for diagnostics.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.entries))
	for name := range t.entries {
		out = append(out, name)
	}
	return out
}
