package boottest

// Halted is the panic value CPU.Idle uses to stop a test run.
type Halted struct{}

// CPU records "cpu.sp 0x%08x", "cpu.branch 0x%08x" and "cpu.idle". Branch
// returns to the caller, which simulates an application that returns. Idle
// panics with Halted so that the otherwise endless idle loop ends the run.
type CPU struct {
	Rec *Recorder

	// OnBranch, when set, is called instead of returning from Branch.
	OnBranch func(entry uint32)
}

// SetStackPointer implements boot.CPU.
func (c *CPU) SetStackPointer(sp uint32) {
	c.Rec.Record("cpu.sp 0x%08x", sp)
}

// Branch implements boot.CPU.
func (c *CPU) Branch(entry uint32) {
	c.Rec.Record("cpu.branch 0x%08x", entry)
	if c.OnBranch != nil {
		c.OnBranch(entry)
	}
}

// Idle implements boot.CPU.
func (c *CPU) Idle() {
	c.Rec.Record("cpu.idle")
	panic(Halted{})
}

// Memory is a sparse word-addressed memory. Reads record "mem.read 0x%08x";
// unset words read as the erased flash value 0xffffffff.
type Memory struct {
	Rec   *Recorder
	Words map[uint32]uint32
}

// NewVectorTable returns a memory holding a vector table at addr with the
// given initial stack pointer and reset handler.
func NewVectorTable(rec *Recorder, addr, sp, reset uint32) *Memory {
	return &Memory{Rec: rec, Words: map[uint32]uint32{
		addr:     sp,
		addr + 4: reset,
	}}
}

// ReadWord implements boot.Memory.
func (m *Memory) ReadWord(addr uint32) uint32 {
	m.Rec.Record("mem.read 0x%08x", addr)
	if v, ok := m.Words[addr]; ok {
		return v
	}
	return 0xffffffff
}

// RunToHalt calls fn and reports whether it ended in CPU.Idle. Any other
// panic is re-raised.
func RunToHalt(fn func()) (halted bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(Halted); !ok {
				panic(r)
			}
			halted = true
		}
	}()
	fn()
	return false
}
