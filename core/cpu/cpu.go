package cpu

import (
	"fmt"

	"github.com/corvidtech/pocketcore/core/addr"
	"github.com/corvidtech/pocketcore/core/memory"
)

// interruptVectors lists the fixed service routine addresses in priority
// order: VBlank, LCD STAT, Timer, Serial, Joypad.
var interruptVectors = [5]uint16{0x40, 0x48, 0x50, 0x58, 0x60}

// CPU holds the full register file and execution state of the Sharp
// LR35902 core. Registers are kept as flat bytes; Read16/Write16 in
// registers.go compose them into pairs for instructions that need it.
type CPU struct {
	bus *memory.MMU

	a, f uint8
	b, c uint8
	d, e uint8
	h, l uint8
	sp   uint16
	pc   uint16

	currentOpcode uint16

	// interruptsEnabled is the CPU's view of IME. EI arms eiPending instead
	// of setting this directly, modelling the one-instruction enable delay;
	// DI and a dispatched interrupt clear it immediately.
	interruptsEnabled bool
	eiPending         bool

	halted   bool
	haltBug  bool
	stopped  bool

	cycles uint64
}

// New returns a CPU wired to the given bus, with registers in their
// post-boot-ROM state. Callers that attach a boot ROM overlay should reset
// pc to 0 afterward.
func New(bus *memory.MMU) *CPU {
	return &CPU{
		bus: bus,
		pc:  0x0100,
		sp:  0xFFFE,
	}
}

func (c *CPU) GetPC() uint16 { return c.pc }
func (c *CPU) GetSP() uint16 { return c.sp }
func (c *CPU) GetA() uint8   { return c.a }
func (c *CPU) GetF() uint8   { return c.f }
func (c *CPU) GetB() uint8   { return c.b }
func (c *CPU) GetC() uint8   { return c.c }
func (c *CPU) GetD() uint8   { return c.d }
func (c *CPU) GetE() uint8   { return c.e }
func (c *CPU) GetH() uint8   { return c.h }
func (c *CPU) GetL() uint8   { return c.l }

// GetIME reports the CPU's current view of the interrupt master enable flag.
func (c *CPU) GetIME() bool { return c.interruptsEnabled }

// GetCycles returns the total number of cycles executed since reset.
func (c *CPU) GetCycles() uint64 { return c.cycles }

// IsHalted reports whether the CPU is currently parked in HALT.
func (c *CPU) IsHalted() bool { return c.halted }

// GetFlagString renders the Z/N/H/C flag letters, upper case when set.
func (c *CPU) GetFlagString() string {
	letter := func(set bool, ch byte) byte {
		if set {
			return ch
		}
		return '-'
	}
	return string([]byte{
		letter(c.isSetFlag(zeroFlag), 'Z'),
		letter(c.isSetFlag(subFlag), 'N'),
		letter(c.isSetFlag(halfCarryFlag), 'H'),
		letter(c.isSetFlag(carryFlag), 'C'),
	})
}

// SetPC forces the program counter, used to hand off from a boot ROM
// overlay or to service a debugger "reset" action.
func (c *CPU) SetPC(pc uint16) { c.pc = pc }

// Tick executes exactly one instruction's worth of CPU activity -
// servicing a pending interrupt, waking from HALT, or fetching and
// executing the next opcode - and returns the number of cycles it took.
func (c *CPU) Tick() int {
	if c.bus.BootActive() && c.pc == 0x0100 {
		c.bus.DisableBootROM()
	}

	if c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	if c.stopped {
		if c.bus.Read(addr.IF)&0x10 != 0 {
			c.stopped = false
		} else {
			c.bus.Tick(4)
			c.cycles += 4
			return 4
		}
	}

	if c.halted {
		pending := c.handleInterrupts()
		if pending {
			c.halted = false
			if !c.interruptsEnabled {
				c.haltBug = true
			}
		}
		c.bus.Tick(4)
		c.cycles += 4
		return 4
	}

	wasEnabled := c.interruptsEnabled
	if pending := c.handleInterrupts(); wasEnabled && pending {
		return 20
	}

	op := Decode(c)
	if c.currentOpcode > 0xFF {
		c.pc += 2
	} else {
		c.pc++
	}
	if c.haltBug {
		// HALT's IME=0 wake quirk: the CPU fails to advance past the
		// opcode it just "fetched", so the same byte is read again.
		c.pc--
		c.haltBug = false
	}

	cycles := op(c)
	if c.currentOpcode <= 0xFF {
		c.bus.Tick(cycles)
	}
	c.cycles += uint64(cycles)

	return cycles
}

// handleInterrupts checks IF&IE for a pending, enabled interrupt. It
// reports whether any bit is pending regardless of IME (callers use this
// to wake a halted CPU), but only pushes pc and jumps to the service
// routine when IME is actually set.
func (c *CPU) handleInterrupts() bool {
	ifReg := c.bus.Read(addr.IF)
	ieReg := c.bus.Read(addr.IE)
	pending := ifReg & ieReg & 0x1F
	if pending == 0 {
		return false
	}

	if !c.interruptsEnabled {
		return true
	}

	var bitIdx uint8
	for bitIdx = 0; bitIdx < 5; bitIdx++ {
		if pending&(1<<bitIdx) != 0 {
			break
		}
	}

	c.interruptsEnabled = false
	c.bus.Write(addr.IF, ifReg&^(1<<bitIdx))
	c.pushStack(c.pc)
	c.pc = interruptVectors[bitIdx]
	c.cycles += 20
	c.bus.Tick(20)

	return true
}

func (c *CPU) String() string {
	return fmt.Sprintf("PC:%04X SP:%04X A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X",
		c.pc, c.sp, c.a, c.f, c.b, c.c, c.d, c.e, c.h, c.l)
}
