// step.go - opcode dispatch for the 65C816 main-CPU core.

/*
step.go holds Step(bus), the single-instruction decode/execute entry point, plus the
opcode table it dispatches through. Grounded on cpu_six5go2.go's big switch-on-opcode
idiom, generalized to the 65C816's variable-width accumulator/index registers and 24-bit
addressing. Opcodes outside this table panic via unknownOpcode, which is the spec's
mandated fail-fast behaviour for unknown main-CPU opcodes.
*/
package cpu65816

import "fmt"

// unknownOpcode is the fail-fast boundary spec.md §7 requires: any opcode this core does
// not decode indicates a decode bug, not a recoverable condition.
type unknownOpcode struct {
	opcode byte
	pc     uint16
	pbr    byte
}

func (e *unknownOpcode) Error() string {
	return fmt.Sprintf("cpu65816: unknown opcode 0x%02X at %02X:%04X", e.opcode, e.pbr, e.pc)
}

// Step decodes and executes exactly one instruction. Every memory access and idle cycle
// within it calls exactly one Bus method, in program order.
func (c *CPU) Step(bus Bus) {
	if c.Halted {
		bus.IOCycle()
		return
	}
	opOpcodePC, opOpcodePBR := c.PC, c.PBR
	op := c.fetch8(bus)

	switch op {
	// --- loads/stores -----------------------------------------------------------
	case 0xA9: // LDA #imm
		c.ldaImmediate(bus)
	case 0xAD:
		c.lda(bus, ModeAbsolute)
	case 0xBD:
		c.lda(bus, ModeAbsoluteX)
	case 0xB9:
		c.lda(bus, ModeAbsoluteY)
	case 0xAF:
		c.lda(bus, ModeAbsoluteLong)
	case 0xBF:
		c.lda(bus, ModeAbsoluteLongX)
	case 0xA5:
		c.lda(bus, ModeDirectPage)
	case 0xB5:
		c.lda(bus, ModeDirectPageX)
	case 0xB2:
		c.lda(bus, ModeDirectPageIndirect)
	case 0xA7:
		c.lda(bus, ModeDirectPageIndirectLong)
	case 0xA1:
		c.lda(bus, ModeDirectPageIndirectX)
	case 0xB1:
		c.lda(bus, ModeDirectPageIndirectY)
	case 0xB7:
		c.lda(bus, ModeDirectPageIndirectLongY)
	case 0xA3:
		c.lda(bus, ModeStackRelative)
	case 0xB3:
		c.lda(bus, ModeStackRelativeIndirectY)

	case 0x8D:
		c.sta(bus, ModeAbsolute)
	case 0x9D:
		c.sta(bus, ModeAbsoluteX)
	case 0x99:
		c.sta(bus, ModeAbsoluteY)
	case 0x8F:
		c.sta(bus, ModeAbsoluteLong)
	case 0x9F:
		c.sta(bus, ModeAbsoluteLongX)
	case 0x85:
		c.sta(bus, ModeDirectPage)
	case 0x95:
		c.sta(bus, ModeDirectPageX)
	case 0x92:
		c.sta(bus, ModeDirectPageIndirect)
	case 0x87:
		c.sta(bus, ModeDirectPageIndirectLong)
	case 0x81:
		c.sta(bus, ModeDirectPageIndirectX)
	case 0x91:
		c.sta(bus, ModeDirectPageIndirectY)
	case 0x97:
		c.sta(bus, ModeDirectPageIndirectLongY)
	case 0x64:
		c.stz(bus, ModeDirectPage)
	case 0x74:
		c.stz(bus, ModeDirectPageX)
	case 0x9C:
		c.stz(bus, ModeAbsolute)
	case 0x9E:
		c.stz(bus, ModeAbsoluteX)

	case 0xA2:
		c.ldxImmediate(bus)
	case 0xAE:
		c.ldx(bus, ModeAbsolute)
	case 0xA6:
		c.ldx(bus, ModeDirectPage)
	case 0xBE:
		c.ldx(bus, ModeAbsoluteY)
	case 0xB6:
		c.ldx(bus, ModeDirectPageY)
	case 0xA0:
		c.ldyImmediate(bus)
	case 0xAC:
		c.ldy(bus, ModeAbsolute)
	case 0xA4:
		c.ldy(bus, ModeDirectPage)
	case 0xBC:
		c.ldy(bus, ModeAbsoluteX)
	case 0xB4:
		c.ldy(bus, ModeDirectPageX)
	case 0x8E:
		c.stx(bus, ModeAbsolute)
	case 0x86:
		c.stx(bus, ModeDirectPage)
	case 0x96:
		c.stx(bus, ModeDirectPageY)
	case 0x8C:
		c.sty(bus, ModeAbsolute)
	case 0x84:
		c.sty(bus, ModeDirectPage)
	case 0x94:
		c.sty(bus, ModeDirectPageX)

	// --- arithmetic ---------------------------------------------------------------
	case 0x69:
		c.adcImmediate(bus)
	case 0x6D:
		c.adcMem(bus, ModeAbsolute)
	case 0x7D:
		c.adcMem(bus, ModeAbsoluteX)
	case 0x79:
		c.adcMem(bus, ModeAbsoluteY)
	case 0x6F:
		c.adcMem(bus, ModeAbsoluteLong)
	case 0x7F:
		c.adcMem(bus, ModeAbsoluteLongX)
	case 0x65:
		c.adcMem(bus, ModeDirectPage)
	case 0x75:
		c.adcMem(bus, ModeDirectPageX)
	case 0x72:
		c.adcMem(bus, ModeDirectPageIndirect)
	case 0x61:
		c.adcMem(bus, ModeDirectPageIndirectX)
	case 0x71:
		c.adcMem(bus, ModeDirectPageIndirectY)

	case 0xE9:
		c.sbcImmediate(bus)
	case 0xED:
		c.sbcMem(bus, ModeAbsolute)
	case 0xFD:
		c.sbcMem(bus, ModeAbsoluteX)
	case 0xF9:
		c.sbcMem(bus, ModeAbsoluteY)
	case 0xEF:
		c.sbcMem(bus, ModeAbsoluteLong)
	case 0xFF:
		c.sbcMem(bus, ModeAbsoluteLongX)
	case 0xE5:
		c.sbcMem(bus, ModeDirectPage)
	case 0xF5:
		c.sbcMem(bus, ModeDirectPageX)
	case 0xF2:
		c.sbcMem(bus, ModeDirectPageIndirect)
	case 0xE1:
		c.sbcMem(bus, ModeDirectPageIndirectX)
	case 0xF1:
		c.sbcMem(bus, ModeDirectPageIndirectY)

	case 0xC9:
		c.cmpImmediate(bus)
	case 0xCD:
		c.cmpMem(bus, ModeAbsolute)
	case 0xDD:
		c.cmpMem(bus, ModeAbsoluteX)
	case 0xD9:
		c.cmpMem(bus, ModeAbsoluteY)
	case 0xC5:
		c.cmpMem(bus, ModeDirectPage)
	case 0xD5:
		c.cmpMem(bus, ModeDirectPageX)
	case 0xD1:
		c.cmpMem(bus, ModeDirectPageIndirectY)
	case 0xE0:
		c.cpxImmediate(bus)
	case 0xEC:
		c.cpxMem(bus, ModeAbsolute)
	case 0xE4:
		c.cpxMem(bus, ModeDirectPage)
	case 0xC0:
		c.cpyImmediate(bus)
	case 0xCC:
		c.cpyMem(bus, ModeAbsolute)
	case 0xC4:
		c.cpyMem(bus, ModeDirectPage)

	// --- logical --------------------------------------------------------------
	case 0x29:
		c.andImmediate(bus)
	case 0x2D:
		c.andMem(bus, ModeAbsolute)
	case 0x25:
		c.andMem(bus, ModeDirectPage)
	case 0x3D:
		c.andMem(bus, ModeAbsoluteX)
	case 0x39:
		c.andMem(bus, ModeAbsoluteY)
	case 0x09:
		c.oraImmediate(bus)
	case 0x0D:
		c.oraMem(bus, ModeAbsolute)
	case 0x05:
		c.oraMem(bus, ModeDirectPage)
	case 0x1D:
		c.oraMem(bus, ModeAbsoluteX)
	case 0x19:
		c.oraMem(bus, ModeAbsoluteY)
	case 0x49:
		c.eorImmediate(bus)
	case 0x4D:
		c.eorMem(bus, ModeAbsolute)
	case 0x45:
		c.eorMem(bus, ModeDirectPage)
	case 0x5D:
		c.eorMem(bus, ModeAbsoluteX)
	case 0x59:
		c.eorMem(bus, ModeAbsoluteY)
	case 0x89:
		c.bitImmediate(bus)
	case 0x2C:
		c.bitMem(bus, ModeAbsolute, true)
	case 0x24:
		c.bitMem(bus, ModeDirectPage, true)

	// --- increment/decrement ----------------------------------------------------
	case 0xEE:
		c.incMem(bus, ModeAbsolute)
	case 0xE6:
		c.incMem(bus, ModeDirectPage)
	case 0xFE:
		c.incMem(bus, ModeAbsoluteX)
	case 0xF6:
		c.incMem(bus, ModeDirectPageX)
	case 0x1A:
		c.incAccumulator(bus)
	case 0xCE:
		c.decMem(bus, ModeAbsolute)
	case 0xC6:
		c.decMem(bus, ModeDirectPage)
	case 0xDE:
		c.decMem(bus, ModeAbsoluteX)
	case 0xD6:
		c.decMem(bus, ModeDirectPageX)
	case 0x3A:
		c.decAccumulator(bus)
	case 0xE8:
		c.indexOp(bus, &c.X, 1)
	case 0xC8:
		c.indexOp(bus, &c.Y, 1)
	case 0xCA:
		c.indexOp(bus, &c.X, -1)
	case 0x88:
		c.indexOp(bus, &c.Y, -1)

	// --- shifts -----------------------------------------------------------------
	case 0x0A:
		c.shiftAccumulator(bus, c.shiftLeft8, c.shiftLeft16)
	case 0x0E:
		c.shiftMem(bus, ModeAbsolute, c.shiftLeft8, c.shiftLeft16)
	case 0x06:
		c.shiftMem(bus, ModeDirectPage, c.shiftLeft8, c.shiftLeft16)
	case 0x4A:
		c.shiftAccumulator(bus, c.shiftRight8, c.shiftRight16)
	case 0x4E:
		c.shiftMem(bus, ModeAbsolute, c.shiftRight8, c.shiftRight16)
	case 0x46:
		c.shiftMem(bus, ModeDirectPage, c.shiftRight8, c.shiftRight16)
	case 0x2A:
		c.shiftAccumulator(bus, c.rotateLeft8, c.rotateLeft16)
	case 0x2E:
		c.shiftMem(bus, ModeAbsolute, c.rotateLeft8, c.rotateLeft16)
	case 0x26:
		c.shiftMem(bus, ModeDirectPage, c.rotateLeft8, c.rotateLeft16)
	case 0x6A:
		c.shiftAccumulator(bus, c.rotateRight8, c.rotateRight16)
	case 0x6E:
		c.shiftMem(bus, ModeAbsolute, c.rotateRight8, c.rotateRight16)
	case 0x66:
		c.shiftMem(bus, ModeDirectPage, c.rotateRight8, c.rotateRight16)

	// --- branches -----------------------------------------------------------------
	case 0x90:
		c.branch(bus, !c.flag(FlagC))
	case 0xB0:
		c.branch(bus, c.flag(FlagC))
	case 0xF0:
		c.branch(bus, c.flag(FlagZ))
	case 0xD0:
		c.branch(bus, !c.flag(FlagZ))
	case 0x30:
		c.branch(bus, c.flag(FlagN))
	case 0x10:
		c.branch(bus, !c.flag(FlagN))
	case 0x50:
		c.branch(bus, !c.flag(FlagV))
	case 0x70:
		c.branch(bus, c.flag(FlagV))
	case 0x80:
		c.branch(bus, true)
	case 0x82:
		c.brl(bus)

	// --- jumps/calls ----------------------------------------------------------
	case 0x4C:
		c.PC = c.fetch16(bus)
	case 0x5C:
		addr := c.resolve(bus, ModeAbsoluteLong)
		c.PBR = byte(addr >> 16)
		c.PC = uint16(addr)
	case 0x6C:
		ptr := c.fetch16(bus)
		lo := bus.ReadByte(uint32(ptr))
		hi := bus.ReadByte(uint32(ptr) + 1)
		c.PC = uint16(lo) | uint16(hi)<<8
	case 0xDC:
		ptr := c.fetch16(bus)
		lo := bus.ReadByte(uint32(ptr))
		mid := bus.ReadByte(uint32(ptr) + 1)
		hi := bus.ReadByte(uint32(ptr) + 2)
		c.PBR = hi
		c.PC = uint16(lo) | uint16(mid)<<8
	case 0x7C:
		base := c.fetch16(bus)
		ptr := uint32(c.PBR)<<16 | uint32(base+c.X)
		lo := bus.ReadByte(ptr)
		hi := bus.ReadByte(ptr + 1)
		c.PC = uint16(lo) | uint16(hi)<<8
	case 0x20:
		target := c.fetch16(bus)
		c.push16(bus, c.PC-1)
		c.PC = target
	case 0x22:
		target := c.resolve(bus, ModeAbsoluteLong)
		c.push8(bus, c.PBR)
		c.push16(bus, c.PC-1)
		c.PBR = byte(target >> 16)
		c.PC = uint16(target)
	case 0x60:
		c.PC = c.pull16(bus) + 1
	case 0x6B:
		c.PC = c.pull16(bus) + 1
		c.PBR = c.pull8(bus)
	case 0x40:
		c.rti(bus)

	// --- stack ------------------------------------------------------------------
	case 0x48:
		c.pushAccumulator(bus)
	case 0x68:
		c.pullAccumulator(bus)
	case 0xDA:
		c.pushIndex(bus, c.X)
	case 0xFA:
		c.X = c.pullIndex(bus)
	case 0x5A:
		c.pushIndex(bus, c.Y)
	case 0x7A:
		c.Y = c.pullIndex(bus)
	case 0x08:
		c.push8(bus, c.emulationMaskedP())
	case 0x28:
		c.plp(bus)
	case 0x8B:
		c.push8(bus, c.DBR)
	case 0xAB:
		c.DBR = c.pull8(bus)
		c.setNZ8(c.DBR)
	case 0x0B:
		c.push16(bus, c.D)
	case 0x2B:
		c.D = c.pull16(bus)
		c.setNZ16(c.D)
	case 0x4B:
		c.push8(bus, c.PBR)
	case 0xF4:
		v := c.fetch16(bus)
		c.push16(bus, v)
	case 0xD4:
		ptr := c.fetch8(bus)
		addr := c.directPageOffset(ptr)
		lo := bus.ReadByte(uint32(addr))
		hi := bus.ReadByte(uint32(addr) + 1)
		c.push16(bus, uint16(lo)|uint16(hi)<<8)
	case 0x62:
		disp := int16(c.fetch16(bus))
		c.push16(bus, uint16(int32(c.PC)+int32(disp)))

	// --- flag/mode ops ------------------------------------------------------------
	case 0xC2:
		mask := c.fetch8(bus)
		c.P &^= mask
		c.widthChanged()
	case 0xE2:
		mask := c.fetch8(bus)
		c.P |= mask
		c.widthChanged()
	case 0xFB:
		oldCarry := c.flag(FlagC)
		c.setFlag(FlagC, c.E)
		c.E = oldCarry
		if c.E {
			c.P |= FlagM | FlagX
			c.widthChanged()
		}
		c.enforceEmulationInvariant()
	case 0x18:
		c.setFlag(FlagC, false)
	case 0x38:
		c.setFlag(FlagC, true)
	case 0x58:
		c.setFlag(FlagI, false)
	case 0x78:
		c.setFlag(FlagI, true)
	case 0xD8:
		c.setFlag(FlagD, false)
	case 0xF8:
		c.setFlag(FlagD, true)
	case 0xB8:
		c.setFlag(FlagV, false)

	// --- transfers ----------------------------------------------------------------
	case 0xAA:
		c.transferToIndex(&c.X, c.A)
	case 0xA8:
		c.transferToIndex(&c.Y, c.A)
	case 0x8A:
		c.transferFromIndex(c.X)
	case 0x98:
		c.transferFromIndex(c.Y)
	case 0xBA:
		c.transferToIndex(&c.X, c.SP)
	case 0x9A:
		if c.E {
			c.SP = 0x0100 | (c.A & 0xFF)
		} else {
			c.SP = c.A
		}
	case 0x9B:
		c.transferToIndex(&c.Y, c.X)
	case 0xBB:
		c.transferToIndex(&c.X, c.Y)
	case 0x5B:
		c.D = c.A
		c.setNZ16(c.D)
	case 0x7B:
		c.A = c.D
		c.setNZ16(c.A)
	case 0x3B:
		if c.E {
			c.A = (c.A & 0xFF00) | (c.SP & 0xFF)
		} else {
			c.A = c.SP
		}
		c.setNZ16(c.A)
	case 0xEB:
		c.A = (c.A >> 8) | (c.A << 8)
		c.setNZ8(byte(c.A))

	// --- block move -----------------------------------------------------------
	case 0x54:
		c.blockMove(bus, 1)
	case 0x44:
		c.blockMove(bus, -1)

	// --- misc -----------------------------------------------------------------
	case 0xEA:
		bus.IOCycle()
	case 0xDB:
		c.Halted = true
		bus.IOCycle()
	case 0xCB:
		bus.IOCycle() // WAI: core never blocks, so it behaves as a no-op idle cycle
	case 0x00:
		c.brk(bus)
	case 0x02:
		c.cop(bus)

	default:
		panic((&unknownOpcode{opcode: op, pc: opOpcodePC, pbr: opOpcodePBR}).Error())
	}

	c.enforceEmulationInvariant()
}
