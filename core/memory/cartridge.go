package memory

import "github.com/corvidtech/pocketcore/core/util"

const titleLength = 11

const (
	entryPointAddress       = 0x100
	logoAddress             = 0x104
	titleAddress            = 0x134
	manufacturerCodeAddress = 0x13F
	cgbFlagAddress          = 0x143
	newLicenseCodeAddress   = 0x144
	sgbFlagAddress          = 0x146
	cartridgeTypeAddress    = 0x147
	romSizeAddress          = 0x148
	ramSizeAddress          = 0x149
	destinationCodeAddress  = 0x14A
	oldLicenseCodeAddress   = 0x14B
	versionNumberAddress    = 0x14C
	headerChecksumAddress   = 0x14D
	globalChecksumAddress   = 0x14E
)

// MBCType identifies which cartridge paging chip a ROM declares in its
// header, decoded from the cartridge-type byte at 0x147.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// ramBankCountForCode maps the RAM-size header byte (0x149) to the number
// of 8KB banks the cartridge declares.
func ramBankCountForCode(code uint8) uint8 {
	switch code {
	case 0x00:
		return 0
	case 0x01:
		return 1 // 2KB, partial bank; treated as a single bank of external RAM
	case 0x02:
		return 1 // 8KB
	case 0x03:
		return 4 // 32KB
	case 0x04:
		return 16 // 128KB
	case 0x05:
		return 8 // 64KB
	default:
		return 0
	}
}

// classifyCartType maps the cartridge-type header byte (0x147) to the MBC
// variant and feature flags (battery, RTC, rumble) it declares.
func classifyCartType(cartType uint8) (mbc MBCType, hasBattery, hasRTC, hasRumble bool) {
	switch cartType {
	case 0x00, 0x08, 0x09:
		return NoMBCType, cartType == 0x09, false, false
	case 0x01, 0x02:
		return MBC1Type, false, false, false
	case 0x03:
		return MBC1Type, true, false, false
	case 0x0B, 0x0C:
		return MBC1MultiType, false, false, false
	case 0x0D:
		return MBC1MultiType, true, false, false
	case 0x05:
		return MBC2Type, false, false, false
	case 0x06:
		return MBC2Type, true, false, false
	case 0x0F:
		return MBC3Type, true, true, false
	case 0x10:
		return MBC3Type, true, true, false
	case 0x11, 0x12:
		return MBC3Type, false, false, false
	case 0x13:
		return MBC3Type, true, false, false
	case 0x19, 0x1A:
		return MBC5Type, false, false, false
	case 0x1B:
		return MBC5Type, true, false, false
	case 0x1C, 0x1D:
		return MBC5Type, false, false, true
	case 0x1E:
		return MBC5Type, true, false, true
	default:
		return MBCUnknownType, false, false, false
	}
}

// Cartridge holds the raw ROM bytes plus the header fields the core reads
// to pick an MBC implementation and its feature set.
type Cartridge struct {
	data           []byte
	title          string
	headerChecksum uint16
	globalChecksum uint16
	version        uint8
	cartType       uint8
	romSize        uint8
	ramSize        uint8

	mbcType      MBCType
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	ramBankCount uint8

	// romFileStem names the battery-save file this cartridge's RAM is
	// persisted to; empty when constructed without a backing file.
	romFileStem string
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a slice of bytes.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	titleBytes := bytes[titleAddress : titleAddress+titleLength]

	cartType := bytes[cartridgeTypeAddress]
	mbcType, hasBattery, hasRTC, hasRumble := classifyCartType(cartType)
	ramSize := bytes[ramSizeAddress]
	ramBankCount := ramBankCountForCode(ramSize)
	if mbcType == MBC2Type {
		// MBC2 carries its own built-in 512x4-bit RAM; the header RAM
		// size byte is not meaningful for it.
		ramBankCount = 0
	}

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          cleanGameboyTitle(titleBytes),
		headerChecksum: util.CombineBytes(bytes[headerChecksumAddress+1], bytes[headerChecksumAddress]),
		globalChecksum: util.CombineBytes(bytes[globalChecksumAddress+1], bytes[globalChecksumAddress]),
		version:        bytes[versionNumberAddress],
		cartType:       cartType,
		romSize:        bytes[romSizeAddress],
		ramSize:        ramSize,
		mbcType:        mbcType,
		hasBattery:     hasBattery,
		hasRTC:         hasRTC,
		hasRumble:      hasRumble,
		ramBankCount:   ramBankCount,
	}

	copy(cart.data, bytes)

	return cart
}

// SetFileStem records the ROM's filename stem (no directory, no
// extension), used to key the battery-save file.
func (c *Cartridge) SetFileStem(stem string) { c.romFileStem = stem }

// FileStem returns the ROM filename stem used to key the battery-save file.
func (c *Cartridge) FileStem() string { return c.romFileStem }

// HasBattery reports whether this cartridge's RAM should be persisted.
func (c *Cartridge) HasBattery() bool { return c.hasBattery }

// Title returns the cleaned 11-byte cartridge title from the header.
func (c *Cartridge) Title() string { return c.title }

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}

// WriteByte ignores the write and returns the byte currently stored at addr.
func (c Cartridge) WriteByte(addr uint16, value uint8) uint8 {
	return c.data[addr]
}
