// Package refasm is the reference isa.Assembler: it stands in for the
// real hardware's instruction encoder by encoding each catseqc
// Instruction as a short, representative Z80 opcode sequence and running
// it on a real remogatto/z80 CPU core, reading the core's own Tstates
// counter back as the instruction's measured cycle cost. It exists so the
// compiler's Pass 2 can be exercised against a cycle-accurate cost source
// without depending on the proprietary RWG board's actual assembler.
// Grounded on the teacher's pkg/emulator/z80_remogatto.go, whose Memory
// and Ports types this file adapts (trimmed to what disassembly needs —
// no ROM protection, no self-modifying-code tracking, no port I/O).
package refasm

// Memory implements z80.MemoryAccessor: a flat, unprotected 64K address
// space used purely as scratch space to decode timing, never as a real
// program image.
type Memory struct {
	data [65536]byte
}

func newMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ReadByte(address uint16) byte {
	return m.data[address]
}

func (m *Memory) WriteByte(address uint16, value byte) {
	m.data[address] = value
}

func (m *Memory) ReadByteInternal(address uint16) byte {
	return m.ReadByte(address)
}

func (m *Memory) WriteByteInternal(address uint16, value byte) {
	m.WriteByte(address, value)
}

func (m *Memory) ContendRead(address uint16, time int)              {}
func (m *Memory) ContendReadNoMreq(address uint16, time int)        {}
func (m *Memory) ContendReadNoMreq_loop(address uint16, time int, count uint) {}
func (m *Memory) ContendWriteNoMreq(address uint16, time int)       {}
func (m *Memory) ContendWriteNoMreq_loop(address uint16, time int, count uint) {}

func (m *Memory) Read(address uint16) byte {
	return m.ReadByte(address)
}

func (m *Memory) Write(address uint16, value byte, protectROM bool) {
	m.WriteByte(address, value)
}

func (m *Memory) Data() []byte {
	return m.data[:]
}

// Ports implements z80.PortAccessor. Most catseqc instructions'
// representative encodings (encoding.go) are port-addressed (the hardware
// analog of an OUT-driven register write), but no port side effects matter
// for timing purposes, so every access is a no-op.
type Ports struct{}

func newPorts() *Ports { return &Ports{} }

func (p *Ports) ReadPort(address uint16) byte            { return 0xFF }
func (p *Ports) WritePort(address uint16, b byte)        {}
func (p *Ports) ReadPortInternal(address uint16, contend bool) byte { return p.ReadPort(address) }
func (p *Ports) WritePortInternal(address uint16, b byte, contend bool) {
	p.WritePort(address, b)
}
func (p *Ports) ContendPortPreio(address uint16)  {}
func (p *Ports) ContendPortPostio(address uint16) {}
