package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/corvidtech/pocketcore/core/memory"
)

func newTestCPU() *CPU {
	return New(memory.New())
}

func TestCPU_Read16Write16(t *testing.T) {
	testCases := []struct {
		desc string
		id   RegID
		want uint16
	}{
		{"AF", AF, 0xBEE0},
		{"BC", BC, 0xBEEF},
		{"DE", DE, 0xBEEF},
		{"HL", HL, 0xBEEF},
		{"SP", SP, 0xBEEF},
		{"PC", PC, 0xBEEF},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c := newTestCPU()
			c.Write16(tC.id, 0xBEEF)
			assert.Equal(t, tC.want, c.Read16(tC.id))
		})
	}
}

func TestCPU_Write16_AFMasksLowNibble(t *testing.T) {
	c := newTestCPU()
	c.Write16(AF, 0xABCD)

	assert.Equal(t, uint8(0xAB), c.a)
	assert.Equal(t, uint8(0xC0), c.f)
	assert.Equal(t, uint16(0xABC0), c.Read16(AF))
}

func TestCPU_Read8Write8(t *testing.T) {
	c := newTestCPU()
	c.Write16(BC, 0xABCD)

	assert.Equal(t, uint8(0xAB), c.Read8(BC, Upper))
	assert.Equal(t, uint8(0xCD), c.Read8(BC, Lower))

	c.Write8(BC, Upper, 0x11)
	assert.Equal(t, uint16(0x11CD), c.Read16(BC))

	c.Write8(BC, Lower, 0x22)
	assert.Equal(t, uint16(0x1122), c.Read16(BC))
}

func TestCPU_flags(t *testing.T) {
	c := newTestCPU()

	c.setFlag(zeroFlag)
	assert.True(t, c.isSetFlag(zeroFlag))
	assert.True(t, c.ReadFlag(zeroFlag))

	c.resetFlag(zeroFlag)
	assert.False(t, c.isSetFlag(zeroFlag))

	c.setFlagToCondition(carryFlag, true)
	assert.True(t, c.isSetFlag(carryFlag))

	c.setFlagToCondition(carryFlag, false)
	assert.False(t, c.isSetFlag(carryFlag))
}

func TestCPU_flagToBit(t *testing.T) {
	c := newTestCPU()

	c.setFlag(carryFlag)
	assert.Equal(t, uint8(1), c.flagToBit(carryFlag))

	c.resetFlag(carryFlag)
	assert.Equal(t, uint8(0), c.flagToBit(carryFlag))
}

func TestCPU_pairGetSet(t *testing.T) {
	c := newTestCPU()

	c.setBC(0x1234)
	assert.Equal(t, uint16(0x1234), c.getBC())

	c.setDE(0x5678)
	assert.Equal(t, uint16(0x5678), c.getDE())

	c.setHL(0x9ABC)
	assert.Equal(t, uint16(0x9ABC), c.getHL())

	c.Write16(AF, 0xFFF0)
	assert.Equal(t, uint16(0xFFF0), c.getAF())
}
