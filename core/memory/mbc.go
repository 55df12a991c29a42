package memory

import "time"

// MBC represents a Memory Bank Controller interface that all MBC types must implement
type MBC interface {
	// Read reads a byte from the specified address
	Read(addr uint16) uint8
	// Write writes a byte to the specified address, returns the written value
	Write(addr uint16, value uint8) uint8
}

// BatteryBacked is implemented by MBCs that can persist cartridge RAM
// across runs. The bus uses it to load a save file on construction and
// write one back on teardown, keyed by the ROM's filename stem.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

func romBankMask(rom []uint8) uint16 {
	banks := len(rom) / 0x4000
	if banks <= 1 {
		return 0
	}
	return uint16(banks - 1)
}

// NoMBC represents cartridges with no memory banking capabilities.
// These are typically smaller games (32KB or less) that fit entirely in the
// base memory region. The cartridge ROM is directly mapped to 0x0000-0x7FFF
// and cannot be banked/switched. These cartridges cannot have external RAM.
type NoMBC struct {
	rom []uint8 // ROM data
}

// NewNoMBC creates a new NoMBC controller
func NewNoMBC(romData []uint8) *NoMBC {
	return &NoMBC{
		rom: romData,
	}
}

func (m *NoMBC) Read(addr uint16) uint8 {
	// For NoMBC, we just read directly from ROM
	if int(addr) >= len(m.rom) {
		return 0xFF
	}
	return m.rom[addr]
}

func (m *NoMBC) Write(addr uint16, value uint8) uint8 {
	// NoMBC doesn't support writing to ROM
	return 0
}

// MBC1 is the first and most common MBC chip. Features include:
// - Supports up to 2MB ROM (125 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Bank 0 always mapped to 0x0000-0x3FFF
// - Switchable ROM bank at 0x4000-0x7FFF
// - Optional RAM banking at 0xA000-0xBFFF
// - Two banking modes:
//   - Mode 0 (ROM): Allows access to full ROM but only 8KB RAM
//   - Mode 1 (RAM): Restricts ROM banking but allows full RAM access
// - Optional battery backup for RAM persistence
type MBC1 struct {
	rom          []uint8
	ram          []uint8
	romBank      uint8
	ramBank      uint8
	ramEnabled   bool
	bankingMode  uint8
	hasBattery   bool
	ramBankCount uint8
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(romData []uint8, hasBattery bool, ramBankCount uint8) *MBC1 {
	ramSize := uint32(ramBankCount) * 0x2000 // 8KB per RAM bank
	return &MBC1{
		rom:          romData,
		ram:          make([]uint8, ramSize),
		romBank:      1,
		ramBank:      0,
		ramEnabled:   false,
		bankingMode:  0,
		hasBattery:   hasBattery,
		ramBankCount: ramBankCount,
	}
}

func (m *MBC1) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		// ROM Bank 0
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		// Switchable ROM Bank
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			// If bank would be out of bounds, wrap around
			offset = offset % uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		// RAM Bank
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			// If bank would be out of bounds, wrap around
			offset = offset % uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		// RAM Enable
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		// ROM Bank Number (lower 5 bits)
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = (m.romBank & 0x60) | bank
	case addr >= 0x4000 && addr <= 0x5FFF:
		// RAM Bank Number or Upper ROM Bank Number
		if m.bankingMode == 0 {
			// ROM Banking mode - value goes to upper bits of ROM bank
			m.romBank = (m.romBank & 0x1F) | ((value & 0x03) << 5)
		} else {
			// RAM Banking mode - value goes to RAM bank
			m.ramBank = value & 0x03
		}
	case addr >= 0x6000 && addr <= 0x7FFF:
		// Banking Mode Select
		m.bankingMode = value & 0x01
		if m.bankingMode == 1 {
			// When switching to RAM banking mode, clear the upper bits of ROM bank
			m.romBank &= 0x1F
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		// RAM Bank
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset = (offset % uint32(len(m.ram)))
		}
		m.ram[offset+uint32(addr-0xA000)] = value
	}
	return value
}

// SaveRAM returns a copy of the cartridge RAM for battery persistence.
func (m *MBC1) SaveRAM() []byte { return append([]byte(nil), m.ram...) }

// LoadRAM restores previously-saved cartridge RAM.
func (m *MBC1) LoadRAM(data []byte) { copy(m.ram, data) }

var _ BatteryBacked = (*MBC1)(nil)

// MBC2 is a simpler MBC chip with built-in RAM. Features include:
// - Supports up to 256KB ROM (16 16KB banks)
// - Built-in 512x4 bits RAM (not external)
// - RAM is enabled by writing 0x0A with address bit 8 clear; it reads 0xFF while disabled
// - ROM banking similar to MBC1 but simpler
// - The least significant bit of the upper address byte selects between
//   ROM banking and RAM access
// - RAM is limited to 4-bit values (upper 4 bits are ignored)
// - Optional battery backup for the built-in RAM
type MBC2 struct {
	rom        []uint8
	ram        []uint8 // 512x4 bits RAM
	romBank    uint8
	ramEnabled bool
	bankMask   uint16
}

// NewMBC2 creates a new MBC2 controller
func NewMBC2(romData []uint8) *MBC2 {
	return &MBC2{
		rom:      romData,
		ram:      make([]uint8, 512),
		romBank:  1,
		bankMask: romBankMask(romData),
	}
}

func (m *MBC2) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		idx := offset + uint32(addr-0x4000)
		if int(idx) >= len(m.rom) {
			idx %= uint32(len(m.rom))
		}
		return m.rom[idx]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		// Only the low 9 bits of the address are wired; the 512 half-bytes
		// mirror across the whole 0xA000-0xBFFF window.
		idx := (addr - 0xA000) & 0x1FF
		return m.ram[idx] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x3FFF:
		if addr&0x0100 == 0 {
			// RAM enable range
			m.ramEnabled = (value & 0x0F) == 0x0A
		} else {
			// ROM bank select (4 bits)
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			if m.bankMask != 0 {
				bank &= uint8(m.bankMask)
				if bank == 0 {
					bank = 1
				}
			}
			m.romBank = bank
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		idx := (addr - 0xA000) & 0x1FF
		m.ram[idx] = value & 0x0F
	}
	return value
}

// SaveRAM returns a copy of the built-in RAM for battery persistence.
func (m *MBC2) SaveRAM() []byte { return append([]byte(nil), m.ram...) }

// LoadRAM restores previously-saved built-in RAM.
func (m *MBC2) LoadRAM(data []byte) { copy(m.ram, data) }

var _ BatteryBacked = (*MBC2)(nil)

// rtcClock abstracts "now" so MBC3's latch sequence is testable without a
// wall-clock dependency; nil defaults to time.Now.
type rtcClock func() time.Time

// MBC3 is an advanced MBC chip with RTC support. Features include:
// - Supports up to 2MB ROM (128 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Real-Time Clock (RTC) functionality
// - RTC has 5 registers: Seconds, Minutes, Hours, Days (lower), Days (upper)/Flags
// - Similar banking to MBC1 but with different register layout
// - RAM and RTC can be battery backed
// - Used in games that needed to track real time (e.g. Pokémon Gold/Silver)
type MBC3 struct {
	rom        []uint8
	ram        []uint8
	rtc        [5]uint8 // latched RTC registers: seconds, minutes, hours, day-low, day-high/flags
	romBank    uint8
	ramBank    uint8 // also selects an RTC register when in [0x08, 0x0C]
	ramEnabled bool
	hasRTC     bool
	bankMask   uint16

	latchStep uint8 // tracks the 0x00-then-0x01 two-step latch sequence
	now       rtcClock
	epoch     time.Time // wall-clock instant the RTC was "started" at
}

// NewMBC3 creates a new MBC3 controller. now may be nil, in which case the
// real wall clock (time.Now) is used to compute latched RTC values.
func NewMBC3(romData []uint8, ramBankCount uint8, hasRTC bool, now func() time.Time) *MBC3 {
	ramSize := uint32(ramBankCount) * 0x2000
	if now == nil {
		now = time.Now
	}
	return &MBC3{
		rom:      romData,
		ram:      make([]uint8, ramSize),
		romBank:  1,
		hasRTC:   hasRTC,
		bankMask: romBankMask(romData),
		now:      now,
		epoch:    now(),
	}
}

func (m *MBC3) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		idx := offset + uint32(addr-0x4000)
		if int(idx) >= len(m.rom) {
			idx %= uint32(len(m.rom))
		}
		return m.rom[idx]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.rtc[m.ramBank-0x08]
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		if m.bankMask != 0 {
			masked := uint16(bank) & m.bankMask
			if masked == 0 {
				masked = 1
			}
			bank = uint8(masked)
		}
		m.romBank = bank
	case addr >= 0x4000 && addr <= 0x5FFF:
		m.ramBank = value
	case addr >= 0x6000 && addr <= 0x7FFF:
		// Two-step latch: a 0x00 write followed by a 0x01 write snapshots
		// the live clock into the RTC register view.
		if value == 0x00 {
			m.latchStep = 1
		} else if value == 0x01 && m.latchStep == 1 {
			m.latchRTC()
			m.latchStep = 0
		} else {
			m.latchStep = 0
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			m.rtc[m.ramBank-0x08] = value
			return value
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		m.ram[offset+uint32(addr-0xA000)] = value
	}
	return value
}

// latchRTC captures the elapsed time since construction into the
// seconds/minutes/hours/day-low/day-high register view.
func (m *MBC3) latchRTC() {
	elapsed := m.now().Sub(m.epoch)
	totalSeconds := int64(elapsed / time.Second)
	if totalSeconds < 0 {
		totalSeconds = 0
	}

	seconds := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := (totalSeconds / 3600) % 24
	days := totalSeconds / 86400

	m.rtc[0] = uint8(seconds)
	m.rtc[1] = uint8(minutes)
	m.rtc[2] = uint8(hours)
	m.rtc[3] = uint8(days & 0xFF)

	dayHigh := uint8((days >> 8) & 0x01)
	if days > 0x1FF {
		dayHigh |= 0x80 // day counter carry bit
	}
	m.rtc[4] = dayHigh
}

// SaveRAM returns a copy of the cartridge RAM (RTC registers are not
// persisted separately; they re-derive from the saved epoch on load).
func (m *MBC3) SaveRAM() []byte { return append([]byte(nil), m.ram...) }

// LoadRAM restores previously-saved cartridge RAM.
func (m *MBC3) LoadRAM(data []byte) { copy(m.ram, data) }

var _ BatteryBacked = (*MBC3)(nil)

// MBC5 is the most advanced MBC chip. Features include:
// - Supports up to 8MB ROM (512 16KB banks)
// - Up to 128KB RAM (16 8KB banks)
// - Simple ROM/RAM banking with no quirks (unlike MBC1)
// - 9-bit ROM bank number (allows all 512 banks to be directly accessed)
// - Optional rumble motor support
// - Used in Game Boy Color games that needed more ROM/RAM
// - Backwards compatible with Game Boy
type MBC5 struct {
	rom        []uint8
	ram        []uint8
	romBank    uint16 // MBC5 supports up to 512 ROM banks
	ramBank    uint8
	ramEnabled bool
	hasRumble  bool
	bankMask   uint16
}

// NewMBC5 creates a new MBC5 controller
func NewMBC5(romData []uint8, hasRumble bool, ramBankCount uint8) *MBC5 {
	ramSize := uint32(ramBankCount) * 0x2000
	return &MBC5{
		rom:       romData,
		ram:       make([]uint8, ramSize),
		romBank:   1,
		hasRumble: hasRumble,
		bankMask:  romBankMask(romData),
	}
}

func (m *MBC5) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		idx := offset + uint32(addr-0x4000)
		if int(idx) >= len(m.rom) {
			idx %= uint32(len(m.rom))
		}
		return m.rom[idx]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x2FFF:
		// Low 8 bits of the 9-bit ROM bank number. Unlike MBC1/2/3, bank 0
		// is permitted verbatim - no auto-promotion to 1.
		m.romBank = (m.romBank & 0x100) | uint16(value)
		m.applyRomBankMask()
	case addr >= 0x3000 && addr <= 0x3FFF:
		m.romBank = (m.romBank & 0xFF) | (uint16(value&0x01) << 8)
		m.applyRomBankMask()
	case addr >= 0x4000 && addr <= 0x5FFF:
		m.ramBank = value & 0x0F
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		m.ram[offset+uint32(addr-0xA000)] = value
	}
	return value
}

func (m *MBC5) applyRomBankMask() {
	if m.bankMask != 0 {
		m.romBank &= m.bankMask
	}
}

// SaveRAM returns a copy of the cartridge RAM for battery persistence.
func (m *MBC5) SaveRAM() []byte { return append([]byte(nil), m.ram...) }

// LoadRAM restores previously-saved cartridge RAM.
func (m *MBC5) LoadRAM(data []byte) { copy(m.ram, data) }

var _ BatteryBacked = (*MBC5)(nil)
