// Package state implements the closed, per-channel-kind tagged state
// variants that atomic operations transition between. States are compared
// structurally; the variant set is closed and every match over it in
// pkg/seq and pkg/compiler is exhaustive.
package state

import "math"

// State is the marker interface implemented by every channel state variant.
// It is intentionally closed: only this package may add implementations.
type State interface {
	isState()
	// Equal reports whether other is the same variant with equal fields.
	Equal(other State) bool
	String() string
}

const floatTolerance = 1e-9

func floatsEqual(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

func optFloatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return floatsEqual(*a, *b)
}

// --- Digital channel states ---

// DigitalLevel is the closed enum of TTL line states.
type DigitalLevel uint8

const (
	DigitalUninitialized DigitalLevel = iota
	DigitalLow
	DigitalHigh
)

func (l DigitalLevel) String() string {
	switch l {
	case DigitalUninitialized:
		return "uninitialized"
	case DigitalLow:
		return "low"
	case DigitalHigh:
		return "high"
	default:
		return "invalid"
	}
}

// Digital wraps a DigitalLevel as a State.
type Digital struct {
	Level DigitalLevel
}

func (Digital) isState() {}

func (d Digital) Equal(other State) bool {
	o, ok := other.(Digital)
	return ok && o.Level == d.Level
}

func (d Digital) String() string { return d.Level.String() }

// --- Waveform channel states ---

// Tone is an instantaneous, settled oscillator description: one sub-band
// generator's frequency, amplitude, and phase at a point in time.
type Tone struct {
	SBGID        int
	FrequencyHz  float64
	Amplitude    float64
	PhaseRad     float64
}

// Equal compares two tones field-by-field within floating-point tolerance.
func (t Tone) Equal(o Tone) bool {
	return t.SBGID == o.SBGID &&
		floatsEqual(t.FrequencyHz, o.FrequencyHz) &&
		floatsEqual(t.Amplitude, o.Amplitude) &&
		floatsEqual(t.PhaseRad, o.PhaseRad)
}

func tonesEqual(a, b []Tone) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ToneParams describes a dynamic (or static, if all higher-order
// coefficients are nil) waveform segment as Taylor-series coefficients for
// frequency and amplitude, to be loaded ahead of an RWG_UPDATE_PARAMS.
type ToneParams struct {
	SBGID        int
	FreqCoeffs   [4]*float64
	AmpCoeffs    [4]*float64
	InitialPhase *float64
	PhaseReset   bool
}

// RequiredRampingOrder returns the minimum Taylor order actually needed to
// realize these coefficients: 0 if both series are constant, up to 3 if a
// cubic term is present. Used by cost models that charge more for higher
// ramp orders.
func (p ToneParams) RequiredRampingOrder() int {
	nonZero := func(f *float64) bool {
		return f != nil && !floatsEqual(*f, 0)
	}
	if nonZero(p.FreqCoeffs[3]) || nonZero(p.AmpCoeffs[3]) {
		return 3
	}
	if nonZero(p.FreqCoeffs[2]) || nonZero(p.AmpCoeffs[2]) {
		return 2
	}
	if nonZero(p.FreqCoeffs[1]) || nonZero(p.AmpCoeffs[1]) {
		return 1
	}
	return 0
}

func coeffsEqual(a, b [4]*float64) bool {
	for i := range a {
		if !optFloatsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Equal compares two ToneParams field-by-field.
func (p ToneParams) Equal(o ToneParams) bool {
	return p.SBGID == o.SBGID &&
		coeffsEqual(p.FreqCoeffs, o.FreqCoeffs) &&
		coeffsEqual(p.AmpCoeffs, o.AmpCoeffs) &&
		optFloatsEqual(p.InitialPhase, o.InitialPhase) &&
		p.PhaseReset == o.PhaseReset
}

func toneParamsEqual(a, b []ToneParams) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// WFUninitialized is the state of a waveform channel before any carrier
// has been configured.
type WFUninitialized struct{}

func (WFUninitialized) isState() {}
func (WFUninitialized) Equal(other State) bool {
	_, ok := other.(WFUninitialized)
	return ok
}
func (WFUninitialized) String() string { return "wf_uninitialized" }

// WFReady is the state after a carrier frequency has been set but before
// any tone has been loaded and played.
type WFReady struct {
	CarrierHz float64
}

func (WFReady) isState() {}

func (r WFReady) Equal(other State) bool {
	o, ok := other.(WFReady)
	return ok && floatsEqual(o.CarrierHz, r.CarrierHz)
}

func (r WFReady) String() string { return "wf_ready" }

// WFActive is the state of a channel actively generating a waveform: a
// settled snapshot of currently-playing tones, plus whatever tone
// parameters have been loaded but not yet triggered (pending).
type WFActive struct {
	CarrierHz float64
	RFOn      bool
	Snapshot  []Tone
	Pending   []ToneParams
}

func (WFActive) isState() {}

func (a WFActive) Equal(other State) bool {
	o, ok := other.(WFActive)
	if !ok {
		return false
	}
	return floatsEqual(o.CarrierHz, a.CarrierHz) &&
		o.RFOn == a.RFOn &&
		tonesEqual(o.Snapshot, a.Snapshot) &&
		toneParamsEqual(o.Pending, a.Pending)
}

func (a WFActive) String() string { return "wf_active" }
