package cpu

import "github.com/corvidtech/pocketcore/core/bit"

func (c *CPU) pushStack(r uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.Low(r))
	c.sp--
	c.bus.Write(c.sp, bit.High(r))
}

func (c *CPU) popStack() uint16 {
	high := c.bus.Read(c.sp)
	c.sp++
	low := c.bus.Read(c.sp)
	c.sp++

	return bit.Combine(high, low)
}

func (c *CPU) inc(r *uint8) {
	*r++
	value := *r

	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, (value&0xF) == 0)
	c.resetFlag(subFlag)
}

func (c *CPU) dec(r *uint8) {
	*r--
	value := *r

	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, (value&0xF) == 0xF)
	c.setFlag(subFlag)
}

func (c *CPU) rlc(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value > 0x7F)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)

	value = (value << 1) | (value >> 7)
	*r = value
	c.setFlagToCondition(zeroFlag, value == 0 && r != &c.a)
}

func (c *CPU) rl(r *uint8) {
	value := *r
	carry := c.flagToBit(carryFlag)

	c.setFlagToCondition(carryFlag, value > 0x7F)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)

	value = (value << 1) | carry
	*r = value
	c.setFlagToCondition(zeroFlag, value == 0 && r != &c.a)
}

func (c *CPU) rrc(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value&0x01 != 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)

	value = (value >> 1) | ((value & 1) << 7)
	*r = value
	c.setFlagToCondition(zeroFlag, value == 0 && r != &c.a)
}

func (c *CPU) rr(r *uint8) {
	value := *r
	carry := c.flagToBit(carryFlag) << 7

	c.setFlagToCondition(carryFlag, value&0x01 != 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)

	value = (value >> 1) | carry
	*r = value
	c.setFlagToCondition(zeroFlag, value == 0 && r != &c.a)
}

// add sets the result of adding an 8 bit register to A, while setting all relevant flags.
func (c *CPU) addToA(value uint8) {
	a := c.a
	result := a + value

	carry := (uint16(a) + uint16(value)) > 0xFF
	halfCarry := (a&0xF)+(value&0xF) > 0xF

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(halfCarryFlag, halfCarry)

	c.a = result
}

// addToHL sets the result of adding a 16 bit register to HL, while setting relevant flags.
func (c *CPU) addToHL(reg uint16) {
	hl := bit.Combine(c.h, c.l)
	result := hl + reg

	carry := (uint32(hl) + uint32(reg)) > 0xFFFF
	halfCarry := (hl&0xFFF)+(reg&0xFFF) > 0xFFF

	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(halfCarryFlag, halfCarry)

	c.h = bit.High(result)
	c.l = bit.Low(result)
}

// sub will subtract the value from register A and set all relevant flags.
func (c *CPU) sub(value uint8) {
	a := c.a
	c.a = a - value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, a < value)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF) < 0)
}

// sbc will subtract the value and carry (1 if set, 0 otherwise) from the register A.
func (c *CPU) sbc(value uint8) {
	a := c.a
	carry := 0
	if c.isSetFlag(carryFlag) {
		carry = 1
	}

	result := int(c.a) - int(value) - carry
	c.a = uint8(result)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, result < 0)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF)-carry < 0)
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(carryFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(carryFlag)
	c.resetFlag(halfCarryFlag)
}

// cp compares value against A, setting flags as if by subtraction without
// storing the result.
func (c *CPU) cp(value uint8) {
	a := c.a
	result := a - value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, a < value)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF) < 0)
}

// adc adds value and the carry flag to register A.
func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := uint16(a) + uint16(value) + uint16(carry)
	halfCarry := (a&0xF)+(value&0xF)+carry > 0xF

	c.a = uint8(result)

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, result > 0xFF)
	c.setFlagToCondition(halfCarryFlag, halfCarry)
}

// daa adjusts A into packed BCD form after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	adjust := uint8(0)
	carry := c.isSetFlag(carryFlag)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			adjust |= 0x06
		}
		if carry {
			adjust |= 0x60
		}
		a -= adjust
	} else {
		if c.isSetFlag(halfCarryFlag) || (a&0x0F) > 0x09 {
			adjust |= 0x06
		}
		if carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) sla(r *uint8) {
	value := *r
	carry := value&0x80 != 0

	value <<= 1
	*r = value

	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(zeroFlag, value == 0)
}

func (c *CPU) sra(r *uint8) {
	value := *r
	carry := value&0x01 != 0
	msb := value & 0x80

	value = (value >> 1) | msb
	*r = value

	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(zeroFlag, value == 0)
}

func (c *CPU) srl(r *uint8) {
	value := *r
	carry := value&0x01 != 0

	value >>= 1
	*r = value

	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(zeroFlag, value == 0)
}

func (c *CPU) swap(r *uint8) {
	value := *r
	value = (value << 4) | (value >> 4)
	*r = value

	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
	c.setFlagToCondition(zeroFlag, value == 0)
}

func (c *CPU) bit(idx uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, value&(1<<idx) == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) res(idx uint8, r *uint8) {
	*r &^= 1 << idx
}

func (c *CPU) set(idx uint8, r *uint8) {
	*r |= 1 << idx
}

// readImmediate consumes the byte at pc, advancing pc past it.
func (c *CPU) readImmediate() uint8 {
	value := c.bus.Read(c.pc)
	c.pc++
	return value
}

// readImmediateWord consumes the little-endian word at pc, advancing pc
// past both bytes.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// jr performs an unconditional relative jump using the signed immediate
// byte at pc.
func (c *CPU) jr() {
	offset := c.readSignedImmediate()
	c.pc = uint16(int32(c.pc) + int32(offset))
}

// jrIf consumes the relative offset unconditionally (it is always part of
// the instruction's length) and applies it only if cond holds.
func (c *CPU) jrIf(cond bool) int {
	offset := c.readSignedImmediate()
	if cond {
		c.pc = uint16(int32(c.pc) + int32(offset))
		return 12
	}
	return 8
}

// jp performs an unconditional absolute jump using the immediate word at pc.
func (c *CPU) jp() {
	c.pc = c.readImmediateWord()
}

// jpIf consumes the absolute address unconditionally and jumps to it only
// if cond holds.
func (c *CPU) jpIf(cond bool) int {
	addr := c.readImmediateWord()
	if cond {
		c.pc = addr
		return 16
	}
	return 12
}

// call pushes the return address and jumps to the immediate word at pc.
func (c *CPU) call() {
	target := c.readImmediateWord()
	c.pushStack(c.pc)
	c.pc = target
}

// callIf consumes the call target unconditionally and only dispatches if
// cond holds.
func (c *CPU) callIf(cond bool) int {
	target := c.readImmediateWord()
	if cond {
		c.pushStack(c.pc)
		c.pc = target
		return 24
	}
	return 12
}

// ret pops the return address off the stack into pc.
func (c *CPU) ret() {
	c.pc = c.popStack()
}

// retIf conditionally pops the return address; the condition check itself
// costs an extra 4 cycles on real hardware, reflected in the returned value.
func (c *CPU) retIf(cond bool) int {
	if cond {
		c.ret()
		return 20
	}
	return 8
}

// rst pushes pc and jumps to one of the eight fixed reset vectors.
func (c *CPU) rst(vector uint16) {
	c.pushStack(c.pc)
	c.pc = vector
}
