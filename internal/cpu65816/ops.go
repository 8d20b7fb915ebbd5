// ops.go - accumulator/index/memory operand helpers for the opcode table in step.go.

/*
ops.go factors the width-dependent (8-bit vs 16-bit) load/store/arithmetic/shift/branch
logic out of step.go's dispatch table. REP/SEP/XCE immediately re-mask the index
registers to 8-bit through widthChanged, per spec.md §4.1's explicit instruction.
*/
package cpu65816

// widthChanged re-masks the index registers to 8-bit immediately after a change to the
// index-width flag (via REP/SEP/XCE), per spec.md §4.1.
func (c *CPU) widthChanged() {
	if c.indexIs8Bit() {
		c.X &= 0x00FF
		c.Y &= 0x00FF
	}
}

// --- LDA/STA/STZ ----------------------------------------------------------------

func (c *CPU) ldaImmediate(bus Bus) {
	if c.accumulatorIs8Bit() {
		v := c.fetch8(bus)
		c.A = (c.A & 0xFF00) | uint16(v)
		c.setNZ8(v)
	} else {
		v := c.fetch16(bus)
		c.A = v
		c.setNZ16(v)
	}
}

func (c *CPU) lda(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		v := bus.ReadByte(addr)
		c.A = (c.A & 0xFF00) | uint16(v)
		c.setNZ8(v)
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		v := uint16(lo) | uint16(hi)<<8
		c.A = v
		c.setNZ16(v)
	}
}

func (c *CPU) sta(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		bus.WriteByte(addr, byte(c.A))
	} else {
		bus.WriteByte(addr, byte(c.A))
		bus.WriteByte(addr+1, byte(c.A>>8))
	}
}

func (c *CPU) stz(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	bus.WriteByte(addr, 0)
	if !c.accumulatorIs8Bit() {
		bus.WriteByte(addr+1, 0)
	}
}

// --- LDX/LDY/STX/STY --------------------------------------------------------------

func (c *CPU) ldxImmediate(bus Bus) {
	if c.indexIs8Bit() {
		v := c.fetch8(bus)
		c.X = uint16(v)
		c.setNZ8(v)
	} else {
		v := c.fetch16(bus)
		c.X = v
		c.setNZ16(v)
	}
}

func (c *CPU) ldyImmediate(bus Bus) {
	if c.indexIs8Bit() {
		v := c.fetch8(bus)
		c.Y = uint16(v)
		c.setNZ8(v)
	} else {
		v := c.fetch16(bus)
		c.Y = v
		c.setNZ16(v)
	}
}

func (c *CPU) ldx(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.indexIs8Bit() {
		v := bus.ReadByte(addr)
		c.X = uint16(v)
		c.setNZ8(v)
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		v := uint16(lo) | uint16(hi)<<8
		c.X = v
		c.setNZ16(v)
	}
}

func (c *CPU) ldy(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.indexIs8Bit() {
		v := bus.ReadByte(addr)
		c.Y = uint16(v)
		c.setNZ8(v)
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		v := uint16(lo) | uint16(hi)<<8
		c.Y = v
		c.setNZ16(v)
	}
}

func (c *CPU) stx(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	bus.WriteByte(addr, byte(c.X))
	if !c.indexIs8Bit() {
		bus.WriteByte(addr+1, byte(c.X>>8))
	}
}

func (c *CPU) sty(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	bus.WriteByte(addr, byte(c.Y))
	if !c.indexIs8Bit() {
		bus.WriteByte(addr+1, byte(c.Y>>8))
	}
}

// --- ADC/SBC ------------------------------------------------------------------

func (c *CPU) adcImmediate(bus Bus) {
	if c.accumulatorIs8Bit() {
		c.adc8(c.fetch8(bus))
	} else {
		c.adc16(c.fetch16(bus))
	}
}

func (c *CPU) adcMem(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		c.adc8(bus.ReadByte(addr))
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		c.adc16(uint16(lo) | uint16(hi)<<8)
	}
}

func (c *CPU) sbcImmediate(bus Bus) {
	if c.accumulatorIs8Bit() {
		c.sbc8(c.fetch8(bus))
	} else {
		c.sbc16(c.fetch16(bus))
	}
}

func (c *CPU) sbcMem(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		c.sbc8(bus.ReadByte(addr))
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		c.sbc16(uint16(lo) | uint16(hi)<<8)
	}
}

// --- CMP/CPX/CPY ----------------------------------------------------------------

func (c *CPU) cmpImmediate(bus Bus) {
	if c.accumulatorIs8Bit() {
		c.compare8(byte(c.A), c.fetch8(bus))
	} else {
		c.compare16(c.A, c.fetch16(bus))
	}
}

func (c *CPU) cmpMem(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		c.compare8(byte(c.A), bus.ReadByte(addr))
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		c.compare16(c.A, uint16(lo)|uint16(hi)<<8)
	}
}

func (c *CPU) cpxImmediate(bus Bus) {
	if c.indexIs8Bit() {
		c.compare8(byte(c.X), c.fetch8(bus))
	} else {
		c.compare16(c.X, c.fetch16(bus))
	}
}

func (c *CPU) cpxMem(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.indexIs8Bit() {
		c.compare8(byte(c.X), bus.ReadByte(addr))
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		c.compare16(c.X, uint16(lo)|uint16(hi)<<8)
	}
}

func (c *CPU) cpyImmediate(bus Bus) {
	if c.indexIs8Bit() {
		c.compare8(byte(c.Y), c.fetch8(bus))
	} else {
		c.compare16(c.Y, c.fetch16(bus))
	}
}

func (c *CPU) cpyMem(bus Bus, mode AddrMode) {
	addr := c.resolve(bus, mode)
	if c.indexIs8Bit() {
		c.compare8(byte(c.Y), bus.ReadByte(addr))
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		c.compare16(c.Y, uint16(lo)|uint16(hi)<<8)
	}
}

// --- AND/ORA/EOR/BIT -------------------------------------------------------------

func (c *CPU) andImmediate(bus Bus) { c.logical8or16(bus, func(a, b uint16) uint16 { return a & b }, true) }
func (c *CPU) oraImmediate(bus Bus) { c.logical8or16(bus, func(a, b uint16) uint16 { return a | b }, true) }
func (c *CPU) eorImmediate(bus Bus) { c.logical8or16(bus, func(a, b uint16) uint16 { return a ^ b }, true) }

func (c *CPU) andMem(bus Bus, mode AddrMode) {
	c.logicalMem(bus, mode, func(a, b uint16) uint16 { return a & b })
}
func (c *CPU) oraMem(bus Bus, mode AddrMode) {
	c.logicalMem(bus, mode, func(a, b uint16) uint16 { return a | b })
}
func (c *CPU) eorMem(bus Bus, mode AddrMode) {
	c.logicalMem(bus, mode, func(a, b uint16) uint16 { return a ^ b })
}

func (c *CPU) logical8or16(bus Bus, op func(a, b uint16) uint16, immediate bool) {
	if c.accumulatorIs8Bit() {
		operand := c.fetch8(bus)
		r := byte(op(c.A, uint16(operand)))
		c.A = (c.A & 0xFF00) | uint16(r)
		c.setNZ8(r)
	} else {
		operand := c.fetch16(bus)
		r := op(c.A, operand)
		c.A = r
		c.setNZ16(r)
	}
}

func (c *CPU) logicalMem(bus Bus, mode AddrMode, op func(a, b uint16) uint16) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		operand := bus.ReadByte(addr)
		r := byte(op(c.A, uint16(operand)))
		c.A = (c.A & 0xFF00) | uint16(r)
		c.setNZ8(r)
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		operand := uint16(lo) | uint16(hi)<<8
		r := op(c.A, operand)
		c.A = r
		c.setNZ16(r)
	}
}

func (c *CPU) bitImmediate(bus Bus) {
	if c.accumulatorIs8Bit() {
		operand := c.fetch8(bus)
		c.setFlag(FlagZ, byte(c.A)&operand == 0)
	} else {
		operand := c.fetch16(bus)
		c.setFlag(FlagZ, c.A&operand == 0)
	}
}

func (c *CPU) bitMem(bus Bus, mode AddrMode, affectsNV bool) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		operand := bus.ReadByte(addr)
		c.setFlag(FlagZ, byte(c.A)&operand == 0)
		if affectsNV {
			c.setFlag(FlagN, operand&0x80 != 0)
			c.setFlag(FlagV, operand&0x40 != 0)
		}
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		operand := uint16(lo) | uint16(hi)<<8
		c.setFlag(FlagZ, c.A&operand == 0)
		if affectsNV {
			c.setFlag(FlagN, operand&0x8000 != 0)
			c.setFlag(FlagV, operand&0x4000 != 0)
		}
	}
}

// --- INC/DEC ------------------------------------------------------------------

func (c *CPU) incMem(bus Bus, mode AddrMode) { c.bumpMem(bus, mode, 1) }
func (c *CPU) decMem(bus Bus, mode AddrMode) { c.bumpMem(bus, mode, -1) }

func (c *CPU) bumpMem(bus Bus, mode AddrMode, delta int) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		v := bus.ReadByte(addr)
		r := byte(int(v) + delta)
		bus.WriteByte(addr, r)
		c.setNZ8(r)
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		v := uint16(lo) | uint16(hi)<<8
		r := uint16(int(v) + delta)
		bus.WriteByte(addr, byte(r))
		bus.WriteByte(addr+1, byte(r>>8))
		c.setNZ16(r)
	}
}

func (c *CPU) incAccumulator(bus Bus) { c.bumpAccumulator(bus, 1) }
func (c *CPU) decAccumulator(bus Bus) { c.bumpAccumulator(bus, -1) }

func (c *CPU) bumpAccumulator(bus Bus, delta int) {
	bus.IOCycle()
	if c.accumulatorIs8Bit() {
		r := byte(int(byte(c.A)) + delta)
		c.A = (c.A & 0xFF00) | uint16(r)
		c.setNZ8(r)
	} else {
		r := uint16(int(c.A) + delta)
		c.A = r
		c.setNZ16(r)
	}
}

func (c *CPU) indexOp(bus Bus, reg *uint16, delta int) {
	bus.IOCycle()
	if c.indexIs8Bit() {
		r := byte(int(byte(*reg)) + delta)
		*reg = uint16(r)
		c.setNZ8(r)
	} else {
		r := uint16(int(*reg) + delta)
		*reg = r
		c.setNZ16(r)
	}
}

// --- shifts --------------------------------------------------------------------

func (c *CPU) shiftAccumulator(bus Bus, op8 func(byte) byte, op16 func(uint16) uint16) {
	bus.IOCycle()
	if c.accumulatorIs8Bit() {
		c.A = (c.A & 0xFF00) | uint16(op8(byte(c.A)))
	} else {
		c.A = op16(c.A)
	}
}

func (c *CPU) shiftMem(bus Bus, mode AddrMode, op8 func(byte) byte, op16 func(uint16) uint16) {
	addr := c.resolve(bus, mode)
	if c.accumulatorIs8Bit() {
		v := bus.ReadByte(addr)
		bus.WriteByte(addr, op8(v))
	} else {
		lo := bus.ReadByte(addr)
		hi := bus.ReadByte(addr + 1)
		r := op16(uint16(lo) | uint16(hi)<<8)
		bus.WriteByte(addr, byte(r))
		bus.WriteByte(addr+1, byte(r>>8))
	}
}

// --- branches -------------------------------------------------------------------

func (c *CPU) branch(bus Bus, condition bool) {
	addr := c.resolve(bus, ModePCRelative)
	if condition {
		bus.IOCycle()
		c.PC = uint16(addr)
	}
}

func (c *CPU) brl(bus Bus) {
	addr := c.resolve(bus, ModePCRelativeLong)
	c.PC = uint16(addr)
}

// --- transfers ------------------------------------------------------------------

func (c *CPU) transferToIndex(dst *uint16, src uint16) {
	if c.indexIs8Bit() {
		*dst = src & 0x00FF
		c.setNZ8(byte(*dst))
	} else {
		*dst = src
		c.setNZ16(*dst)
	}
}

func (c *CPU) transferFromIndex(src uint16) {
	if c.accumulatorIs8Bit() {
		c.A = (c.A & 0xFF00) | (src & 0x00FF)
		c.setNZ8(byte(c.A))
	} else {
		c.A = src
		c.setNZ16(c.A)
	}
}

// --- stack ops --------------------------------------------------------------------

func (c *CPU) pushAccumulator(bus Bus) {
	if c.accumulatorIs8Bit() {
		c.push8(bus, byte(c.A))
	} else {
		c.push16(bus, c.A)
	}
}

func (c *CPU) pullAccumulator(bus Bus) {
	if c.accumulatorIs8Bit() {
		v := c.pull8(bus)
		c.A = (c.A & 0xFF00) | uint16(v)
		c.setNZ8(v)
	} else {
		v := c.pull16(bus)
		c.A = v
		c.setNZ16(v)
	}
}

func (c *CPU) pushIndex(bus Bus, v uint16) {
	if c.indexIs8Bit() {
		c.push8(bus, byte(v))
	} else {
		c.push16(bus, v)
	}
}

func (c *CPU) pullIndex(bus Bus) uint16 {
	if c.indexIs8Bit() {
		v := c.pull8(bus)
		c.setNZ8(v)
		return uint16(v)
	}
	v := c.pull16(bus)
	c.setNZ16(v)
	return v
}

// plp preserves the emulation mode's forced bits (M and X always read 1/as break in
// emulation) when pulling status off the stack, per spec.md §4.1's stack-discipline rule.
func (c *CPU) plp(bus Bus) {
	v := c.pull8(bus)
	if c.E {
		v |= FlagM | FlagX
	}
	c.P = v
	c.widthChanged()
	c.enforceEmulationInvariant()
}

func (c *CPU) rti(bus Bus) {
	c.plp(bus)
	c.PC = c.pull16(bus)
	if !c.E {
		c.PBR = c.pull8(bus)
	}
}

// --- block move -----------------------------------------------------------------

// blockMove implements MVN (direction +1, source/dest both increment) and MVP
// (direction -1, both decrement), transferring A+1 bytes and leaving the banks used in
// the data-bank register, per spec.md §8's concrete 16-bit block-move scenario.
func (c *CPU) blockMove(bus Bus, direction int) {
	destBank := c.fetch8(bus)
	srcBank := c.fetch8(bus)
	for {
		srcAddr := uint32(srcBank)<<16 | uint32(c.X)
		destAddr := uint32(destBank)<<16 | uint32(c.Y)
		v := bus.ReadByte(srcAddr)
		bus.WriteByte(destAddr, v)
		if direction > 0 {
			c.X++
			c.Y++
		} else {
			c.X--
			c.Y--
		}
		c.A--
		c.DBR = destBank
		if c.A == 0xFFFF {
			break
		}
	}
}

// --- interrupts from instructions -------------------------------------------------

func (c *CPU) brk(bus Bus) {
	c.fetch8(bus) // BRK's signature byte is fetched and discarded on real hardware
	if !c.E {
		c.push8(bus, c.PBR)
	}
	c.push16(bus, c.PC)
	c.push8(bus, c.emulationMaskedP()|FlagX) // break bit set in the pushed copy only
	c.setFlag(FlagI, true)
	c.setFlag(FlagD, false)
	vec := vectorEmuIRQBRK
	if !c.E {
		vec = vectorNativeBRK
	}
	c.PBR = 0
	c.PC = c.readVector(bus, uint16(vec))
}

func (c *CPU) cop(bus Bus) {
	c.fetch8(bus)
	if !c.E {
		c.push8(bus, c.PBR)
	}
	c.push16(bus, c.PC)
	c.push8(bus, c.emulationMaskedP())
	c.setFlag(FlagI, true)
	c.setFlag(FlagD, false)
	vec := vectorEmuCOP
	if !c.E {
		vec = vectorNativeCOP
	}
	c.PBR = 0
	c.PC = c.readVector(bus, uint16(vec))
}
