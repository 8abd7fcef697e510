package seq

// Lane is the immutable, ordered sequence of atomic operations on a single
// channel. Its total duration is the sum of its operations' durations.
type Lane struct {
	Ops []AtomicOp
}

// NewLane builds a Lane from ops. The slice is copied so the caller's
// backing array can be reused or mutated freely.
func NewLane(ops ...AtomicOp) Lane {
	cp := make([]AtomicOp, len(ops))
	copy(cp, ops)
	return Lane{Ops: cp}
}

// TotalDuration returns the sum of every operation's duration in cycles.
func (l Lane) TotalDuration() uint64 {
	var total uint64
	for _, op := range l.Ops {
		total += op.DurationCycles
	}
	return total
}

// Concat returns a new Lane with other's operations appended after l's.
func (l Lane) Concat(other Lane) Lane {
	combined := make([]AtomicOp, 0, len(l.Ops)+len(other.Ops))
	combined = append(combined, l.Ops...)
	combined = append(combined, other.Ops...)
	return Lane{Ops: combined}
}
