package memory

import (
	"fmt"
	"log/slog"

	"github.com/corvidtech/pocketcore/core/addr"
	"github.com/corvidtech/pocketcore/core/audio"
	"github.com/corvidtech/pocketcore/core/bit"
	"github.com/corvidtech/pocketcore/core/serial"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionUnused
	regionIO
	regionHRAM
)

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// SerialPort is the minimal interface for a serial device connected to SB/SC.
// Implementations MUST only accept reads/writes to addr.SB and addr.SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
}

// MMU allows access to all memory mapped I/O and data/registers
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	APU       *audio.APU
	regionMap [256]memRegion

	joypadButtons uint8 // Actual state of buttons A/B/Start/Select, mapped to low bits of P1
	joypadDpad    uint8 // Actual state of d-pad directions, mapped to low bits of P1

	serial SerialPort
	timer  Timer

	bootROM    []byte
	bootActive bool

	// videoMode mirrors the PPU's current mode so non-supervisor OAM
	// accesses can be gated during modes 2 (OAM scan) and 3 (draw).
	videoMode uint8
}

// New creates a new memory unity with default data, i.e. nothing cartridge loaded.
// Equivalent to turning on a Gameboy without a cartridge in.
func New() *MMU {
	mmu := &MMU{
		memory:        make([]byte, 0x10000),
		cart:          NewCartridge(),
		APU:           audio.New(),
		joypadButtons: 0x0F,
		joypadDpad:    0x0F,
	}
	mmu.serial = serial.NewLogSink(func() { mmu.RequestInterrupt(addr.SerialInterrupt) })
	mmu.timer.TimerInterruptHandler = func() { mmu.RequestInterrupt(addr.TimerInterrupt) }
	initRegionMap(mmu)
	return mmu
}

// Tick advances any i/o that needs it, if any.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
	m.APU.Tick(cycles)
}

// SetTimerSeed initializes the internal timer divider seed and DIV register.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// LoadBootROM installs a 256-byte boot program, overlaid on
// 0x0000-0x00FF until the CPU's PC first reaches 0x0100. The underlying
// cartridge bytes are never touched - disabling the overlay is a flag
// flip, not a restore.
func (m *MMU) LoadBootROM(data []byte) error {
	if len(data) != 0x100 {
		return fmt.Errorf("boot ROM must be exactly 256 bytes, got %d", len(data))
	}
	m.bootROM = append([]byte(nil), data...)
	m.bootActive = true
	return nil
}

// BootActive reports whether the boot ROM overlay is still visible.
func (m *MMU) BootActive() bool { return m.bootActive }

// DisableBootROM switches visibility back to the cartridge's own bank 0.
func (m *MMU) DisableBootROM() { m.bootActive = false }

// SetVideoMode records the PPU's current mode so non-supervisor OAM
// accesses can be gated during modes 2 and 3.
func (m *MMU) SetVideoMode(mode uint8) { m.videoMode = mode }

// NewWithCartridge creates a new memory unit with the provided cartridge data loaded.
// Equivalent to turning on a Gameboy with a cartridge in.
func NewWithCartridge(cart *Cartridge) *MMU {
	mmu := New()
	mmu.cart = cart

	switch cart.mbcType {
	case NoMBCType:
		mmu.mbc = NewNoMBC(cart.data)
	case MBC1Type:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount)
	case MBC1MultiType:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount) // FIXME: add support for multicart
	case MBC2Type:
		mmu.mbc = NewMBC2(cart.data)
	case MBC3Type:
		mmu.mbc = NewMBC3(cart.data, cart.ramBankCount, cart.hasRTC, nil)
	case MBC5Type:
		mmu.mbc = NewMBC5(cart.data, cart.hasRumble, cart.ramBankCount)
	case MBCUnknownType:
		panic("unsupported MBC type: unknown")
	default:
		panic(fmt.Sprintf("unsupported MBC type: %d", cart.mbcType))
	}

	return mmu
}

// HasBattery reports whether the loaded cartridge persists its RAM.
func (m *MMU) HasBattery() bool {
	return m.cart != nil && m.cart.HasBattery()
}

// CartridgeFileStem returns the ROM filename stem used to key the
// battery-save file, set via SetCartridgeFileStem.
func (m *MMU) CartridgeFileStem() string {
	if m.cart == nil {
		return ""
	}
	return m.cart.FileStem()
}

// SetCartridgeFileStem records the loaded ROM's filename stem.
func (m *MMU) SetCartridgeFileStem(stem string) {
	if m.cart != nil {
		m.cart.SetFileStem(stem)
	}
}

// SaveRAM returns a copy of the cartridge's battery-backed RAM, or nil if
// the current MBC does not persist RAM.
func (m *MMU) SaveRAM() []byte {
	if bb, ok := m.mbc.(BatteryBacked); ok {
		return bb.SaveRAM()
	}
	return nil
}

// LoadRAM restores previously-saved battery-backed RAM into the current
// MBC. A length mismatch or a non-battery-backed MBC is a silent no-op:
// an absent or stale save file is never an error.
func (m *MMU) LoadRAM(data []byte) {
	if bb, ok := m.mbc.(BatteryBacked); ok {
		bb.LoadRAM(data)
	}
}

func initRegionMap(m *MMU) {
	// ROM: 0x0000-0x7FFF
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	// VRAM: 0x8000-0x9FFF
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	// External RAM: 0xA000-0xBFFF
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	// Work RAM: 0xC000-0xDFFF
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	// Echo RAM: 0xE000-0xFDFF
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	// OAM: 0xFE00-0xFE9F, Unused: 0xFEA0-0xFEFF
	m.regionMap[0xFE] = regionOAM
	// IO + HRAM: 0xFF00-0xFFFF
	m.regionMap[0xFF] = regionIO
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	interruptFlags := m.Read(addr.IF)

	var bitPos uint8
	switch interrupt {
	case addr.VBlankInterrupt:
		bitPos = 0
	case addr.LCDSTATInterrupt:
		bitPos = 1
	case addr.TimerInterrupt:
		bitPos = 2
	case addr.SerialInterrupt:
		bitPos = 3
	case addr.JoypadInterrupt:
		bitPos = 4
	default:
		panic(fmt.Sprintf("Unknown interrupt: 0x%02X", uint8(interrupt)))
	}

	newFlags := bit.Set(bitPos, interruptFlags)

	m.Write(addr.IF, newFlags)
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value = bit.Set(index, value)
	} else {
		value = bit.Reset(index, value)
	}
	m.Write(address, value)
}

// Read performs a non-supervisor access: subject to the boot-ROM overlay
// and to OAM blocking during PPU modes 2/3 (returns 0xFF, per hardware).
func (m *MMU) Read(address uint16) byte {
	if m.bootActive && address < 0x100 {
		return m.bootROM[address]
	}
	if m.regionMap[address>>8] == regionOAM && address <= 0xFE9F && (m.videoMode == 2 || m.videoMode == 3) {
		return 0xFF
	}
	return m.ReadSupervisor(address)
}

// ReadSupervisor bypasses the boot-ROM overlay and OAM gating; used by
// the PPU, timer, interrupt dispatch, and DMA to avoid contending with
// their own effects.
func (m *MMU) ReadSupervisor(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Reading from ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM, regionWRAM:
		return m.memory[address]
	case regionEcho:
		if address <= 0xFDFF {
			return m.memory[address-0x2000]
		}
		return m.memory[address-0x2000]
	case regionOAM:
		if address <= 0xFE9F {
			return m.memory[address]
		}
		// Unused area 0xFEA0-0xFEFF
		return m.memory[address]
	case regionIO:
		if address == addr.SB || address == addr.SC {
			return m.serial.Read(address)
		}
		if address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC {
			return m.timer.Read(address)
		}
		if address >= 0xFF10 && address <= 0xFF3F {
			return m.APU.ReadRegister(address)
		}
		// Just in case, we always read the upper 3 bits of IF as 1.
		// They're not used, but have caused me some headaches when checking for
		// when the halt bug triggers (IF != 0).
		if address == addr.IF {
			return m.memory[address] | 0xE0
		}
		if address >= 0xFF80 {
			// HRAM
			return m.memory[address]
		}
		// Other IO registers
		return m.memory[address]
	default:
		panic(fmt.Sprintf("Attempted read at unmapped address: 0x%X", address))
	}
}

// Write performs a non-supervisor access: OAM writes during PPU modes
// 2/3 are silently dropped, per hardware.
func (m *MMU) Write(address uint16, value byte) {
	if m.regionMap[address>>8] == regionOAM && address <= 0xFE9F && (m.videoMode == 2 || m.videoMode == 3) {
		return
	}
	m.WriteSupervisor(address, value)
}

// WriteSupervisor bypasses OAM gating; used by the PPU, timer, interrupt
// dispatch, and the DMA copy (which must reach OAM even during modes 2/3).
func (m *MMU) WriteSupervisor(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.mbc == nil {
			slog.Warn("Writing to ROM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionVRAM:
		m.memory[address] = value
	case regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Writing to external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionWRAM:
		m.memory[address] = value
	case regionEcho:
		if address <= 0xFDFF {
			m.memory[address-0x2000] = value
		}
	case regionOAM:
		if address <= 0xFE9F {
			m.memory[address] = value
		} else {
			// Unused area 0xFEA0-0xFEFF
			m.memory[address] = value
		}
	case regionIO:
		if address == addr.P1 {
			m.writeJoypad(value)
			return
		}
		if address == addr.SB || address == addr.SC {
			m.serial.Write(address, value)
			return
		}
		if address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC {
			m.timer.Write(address, value)
			return
		}
		if address >= 0xFF10 && address <= 0xFF3F {
			m.APU.WriteRegister(address, value)
			return
		}
		if address == addr.IF {
			// This goddamn register has its upper 3 bits always set as 1...
			// Beware if you're trying to match halt bug behavior.
			m.memory[address] = value | 0xE0
			return
		}
		if address == addr.DMA {
			sourceAddr := uint16(value) << 8
			// DMA transfer copies 160 bytes from source to OAM
			for i := range uint16(160) {
				m.memory[0xFE00+i] = m.ReadSupervisor(sourceAddr + i)
			}
			m.memory[address] = value
			return
		}
		if address >= 0xFF80 {
			// HRAM
			m.memory[address] = value
			return
		}
		// Other IO registers
		m.memory[address] = value
	default:
		panic(fmt.Sprintf("Attempted write at unmapped address: 0x%X", address))
	}
}

// updateJoypadRegister sets the joypad register (P1) according to selection bits
// and hardware (buttons) status.
//
// In real hw, this register is actually just a selector (bits 4-5) that control
// to which set of buttons the low bits (0-3) are mapped to.
//
// The mapping:
//   - if bit 4 is clear, bits 0-3 are mapped to the 4 d-pad directions
//   - if bit 5 is clear, bits 0-3 are mapped to A, B, Start, Select
//   - if both are clear, hw does an AND of both button sets
//   - if both are set, return 0x0F (high impedence state)
//
// This function is called whenever:
//   - there is a write to the P1 register (only set bits 4-5)
//   - a button is pressed or released (tracked separately)
//
// Note that 1 -> button released, 0 -> button pressed.
// Bits 6-7 are unused, they always read as 1 on real hardware.
func (m *MMU) updateJoypadRegister() {
	p1 := m.memory[addr.P1]
	result := uint8(0b11000000) // Bits 6-7 are always read as 1
	result |= p1 & 0b00110000   // Keep selection bits 4-5

	// A button group is selected if the corresponding bit is 0
	selectDpad := !bit.IsSet(4, p1)
	selectButtons := !bit.IsSet(5, p1)

	dpad := filterOpposingDirections(m.joypadDpad)

	switch {
	case selectButtons && !selectDpad:
		result |= m.joypadButtons & 0x0F
	case selectDpad && !selectButtons:
		result |= dpad & 0x0F
	case selectButtons && selectDpad:
		result |= m.joypadButtons & dpad & 0x0F
	default:
		// no selection
		result |= 0x0F
	}

	m.memory[addr.P1] = result
}

// filterOpposingDirections clears (releases) both bits of a simultaneously
// pressed opposing pair (Right+Left or Up+Down) so the guest never observes
// an impossible physical d-pad state. Bits follow HandleKeyPress's layout:
// 0=Right, 1=Left, 2=Up, 3=Down, active low.
func filterOpposingDirections(dpad uint8) uint8 {
	if !bit.IsSet(0, dpad) && !bit.IsSet(1, dpad) {
		dpad = bit.Set(0, dpad)
		dpad = bit.Set(1, dpad)
	}
	if !bit.IsSet(2, dpad) && !bit.IsSet(3, dpad) {
		dpad = bit.Set(2, dpad)
		dpad = bit.Set(3, dpad)
	}
	return dpad
}

func (m *MMU) writeJoypad(value uint8) {
	// Only bits 4-5 are writable (selection bits)
	m.memory[addr.P1] = value & 0b00110000
	m.updateJoypadRegister()
}

func (m *MMU) HandleKeyPress(key JoypadKey) {
	oldButtons := m.joypadButtons
	oldDpad := m.joypadDpad

	switch key {
	case JoypadRight:
		m.joypadDpad = bit.Reset(0, m.joypadDpad)
	case JoypadLeft:
		m.joypadDpad = bit.Reset(1, m.joypadDpad)
	case JoypadUp:
		m.joypadDpad = bit.Reset(2, m.joypadDpad)
	case JoypadDown:
		m.joypadDpad = bit.Reset(3, m.joypadDpad)
	case JoypadA:
		m.joypadButtons = bit.Reset(0, m.joypadButtons)
	case JoypadB:
		m.joypadButtons = bit.Reset(1, m.joypadButtons)
	case JoypadSelect:
		m.joypadButtons = bit.Reset(2, m.joypadButtons)
	case JoypadStart:
		m.joypadButtons = bit.Reset(3, m.joypadButtons)
	}

	buttonTransitions := oldButtons & ^m.joypadButtons
	dpadTransitions := oldDpad & ^m.joypadDpad
	if buttonTransitions|dpadTransitions != 0 {
		m.RequestInterrupt(addr.JoypadInterrupt)
	}

	m.updateJoypadRegister()
}

func (m *MMU) HandleKeyRelease(key JoypadKey) {
	switch key {
	case JoypadRight:
		m.joypadDpad = bit.Set(0, m.joypadDpad)
	case JoypadLeft:
		m.joypadDpad = bit.Set(1, m.joypadDpad)
	case JoypadUp:
		m.joypadDpad = bit.Set(2, m.joypadDpad)
	case JoypadDown:
		m.joypadDpad = bit.Set(3, m.joypadDpad)
	case JoypadA:
		m.joypadButtons = bit.Set(0, m.joypadButtons)
	case JoypadB:
		m.joypadButtons = bit.Set(1, m.joypadButtons)
	case JoypadSelect:
		m.joypadButtons = bit.Set(2, m.joypadButtons)
	case JoypadStart:
		m.joypadButtons = bit.Set(3, m.joypadButtons)
	}

	m.updateJoypadRegister()
}
