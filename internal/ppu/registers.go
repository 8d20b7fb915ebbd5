// registers.go - 0x2100-0x213F register-file decode for the picture generator.

/*
registers.go implements ReadRegister/WriteRegister, the PPU interface the bus router
calls against register offsets 0x00-0x3F (i.e. CPU address 0x2100-0x213F). The register
numbering below follows the real SNES PPU register layout (INIDISP, BGMODE, tilemap/
character base registers, scroll registers, VRAM/CGRAM port registers, window and color-
math registers); simplified relative to hardware in that the VRAM address always advances
by one word, after a write to the high data register (0x2119) or a read of either data
register, whatever VMAINC holds; the CGRAM address advances after each high-byte access.
*/
package ppu

const (
	regINIDISP = 0x00
	regOBSEL   = 0x01
	regBGMODE  = 0x05
	regMOSAIC  = 0x06
	regBG1SC   = 0x07
	regBG2SC   = 0x08
	regBG3SC   = 0x09
	regBG4SC   = 0x0A
	regBG12NBA = 0x0B
	regBG34NBA = 0x0C
	regBG1HOFS = 0x0D
	regBG1VOFS = 0x0E
	regBG2HOFS = 0x0F
	regBG2VOFS = 0x10
	regBG3HOFS = 0x11
	regBG3VOFS = 0x12
	regBG4HOFS = 0x13
	regBG4VOFS = 0x14
	regVMAINC  = 0x15
	regVMADDL  = 0x16
	regVMADDH  = 0x17
	regVMDATAL = 0x18
	regVMDATAH = 0x19
	regM7SEL   = 0x1A
	regM7A     = 0x1B
	regM7B     = 0x1C
	regM7C     = 0x1D
	regM7D     = 0x1E
	regM7X     = 0x1F
	regM7Y     = 0x20
	regCGADD   = 0x21
	regCGDATA  = 0x22
	regW12SEL  = 0x23
	regW34SEL  = 0x24
	regWOBJSEL = 0x25
	regWH0     = 0x26
	regWH1     = 0x27
	regWH2     = 0x28
	regWH3     = 0x29
	regTM      = 0x2C
	regTS      = 0x2D
	regCGWSEL  = 0x30
	regCGADSUB = 0x31
	regCOLDATA = 0x32
	regSETINI  = 0x33
)

type registerState struct {
	vramAddr    uint16
	vramLatch   byte
	cgramAddr   byte
	cgramLatch  byte
	cgramHigh   bool
	m7Latch     byte
	m7HasLatch  bool
}

// ReadRegister reads one PPU register, offset already relative to 0x2100.
func (p *PPU) ReadRegister(offset uint16) byte {
	switch offset {
	case regVMDATAL:
		v := byte(p.ReadVRAMWord(p.regs.vramAddr))
		p.regs.vramAddr++
		return v
	case regVMDATAH:
		v := byte(p.ReadVRAMWord(p.regs.vramAddr) >> 8)
		p.regs.vramAddr++
		return v
	case regCGDATA:
		word := p.CGRAM[p.regs.cgramAddr]
		p.regs.cgramHigh = !p.regs.cgramHigh
		if p.regs.cgramHigh {
			return byte(word)
		}
		p.regs.cgramAddr++
		return byte(word >> 8)
	default:
		return 0
	}
}

// WriteRegister writes one PPU register, offset already relative to 0x2100.
func (p *PPU) WriteRegister(offset uint16, value byte) {
	switch offset {
	case regINIDISP:
		p.ForcedBlank = value&0x80 != 0
		p.Brightness = value & 0x0F
	case regOBSEL:
		p.SpriteCharBase[0] = uint16(value&0x07) * 0x2000 / 2
		p.SpriteCharBase[1] = p.SpriteCharBase[0] + uint16((value>>3)&0x03+1)*0x1000/2
	case regBGMODE:
		p.Mode = value & 0x07
		for i := range p.Backgrounds {
			p.Backgrounds[i].TileSize16 = value&(0x10<<uint(i)) != 0
		}
	case regBG1SC, regBG2SC, regBG3SC, regBG4SC:
		bg := int(offset - regBG1SC)
		p.Backgrounds[bg].TilemapBase = uint16(value>>2) * 0x0400
		p.Backgrounds[bg].NumHorzTilemaps = 1
		p.Backgrounds[bg].NumVertTilemaps = 1
		if value&0x01 != 0 {
			p.Backgrounds[bg].NumHorzTilemaps = 2
		}
		if value&0x02 != 0 {
			p.Backgrounds[bg].NumVertTilemaps = 2
		}
	case regBG12NBA:
		p.Backgrounds[0].CharBase = uint16(value&0x0F) * 0x1000
		p.Backgrounds[1].CharBase = uint16(value>>4) * 0x1000
	case regBG34NBA:
		p.Backgrounds[2].CharBase = uint16(value&0x0F) * 0x1000
		p.Backgrounds[3].CharBase = uint16(value>>4) * 0x1000
	case regBG1HOFS, regBG2HOFS, regBG3HOFS, regBG4HOFS:
		bg := int((offset - regBG1HOFS) / 2)
		p.writeScrollLatch(&p.Backgrounds[bg].HOffset, value)
	case regBG1VOFS, regBG2VOFS, regBG3VOFS, regBG4VOFS:
		bg := int((offset - regBG1VOFS) / 2)
		p.writeScrollLatch(&p.Backgrounds[bg].VOffset, value)
	case regVMAINC:
		// auto-increment size/mode beyond "by one word" is not modeled.
	case regVMADDL:
		p.regs.vramAddr = (p.regs.vramAddr & 0xFF00) | uint16(value)
	case regVMADDH:
		p.regs.vramAddr = (p.regs.vramAddr & 0x00FF) | uint16(value)<<8
	case regVMDATAL:
		w := p.ReadVRAMWord(p.regs.vramAddr)
		p.WriteVRAMWord(p.regs.vramAddr, (w&0xFF00)|uint16(value))
	case regVMDATAH:
		w := p.ReadVRAMWord(p.regs.vramAddr)
		p.WriteVRAMWord(p.regs.vramAddr, (w&0x00FF)|uint16(value)<<8)
		p.regs.vramAddr++
	case regM7A:
		p.Mode7A = p.latchMode7(value)
	case regM7B:
		p.Mode7B = p.latchMode7(value)
	case regM7C:
		p.Mode7C = p.latchMode7(value)
	case regM7D:
		p.Mode7D = p.latchMode7(value)
	case regM7X:
		p.Mode7CenterX = p.latchMode7(value)
	case regM7Y:
		p.Mode7CenterY = p.latchMode7(value)
	case regCGADD:
		p.regs.cgramAddr = value
		p.regs.cgramHigh = false
	case regCGDATA:
		if !p.regs.cgramHigh {
			p.regs.cgramLatch = value
			p.regs.cgramHigh = true
		} else {
			p.CGRAM[p.regs.cgramAddr] = uint16(p.regs.cgramLatch) | uint16(value&0x7F)<<8
			p.regs.cgramAddr++
			p.regs.cgramHigh = false
		}
	case regW12SEL:
		p.Backgrounds[0].Window1Mask = value&0x02 != 0
		p.Backgrounds[0].WindowInvert = value&0x01 != 0
		p.Backgrounds[1].Window1Mask = value&0x20 != 0
		p.Backgrounds[1].WindowInvert = value&0x10 != 0
	case regWH0:
		p.Windows[0].Left = value
	case regWH1:
		p.Windows[0].Right = value
	case regWH2:
		p.Windows[1].Left = value
	case regWH3:
		p.Windows[1].Right = value
	case regTM:
		for i := range p.Backgrounds {
			p.Backgrounds[i].MainScreenEnable = value&(1<<uint(i)) != 0
		}
	case regTS:
		for i := range p.Backgrounds {
			p.Backgrounds[i].SubScreenEnable = value&(1<<uint(i)) != 0
		}
	case regCGWSEL:
		p.ClipToBlackMode = (value >> 4) & 0x03
		p.PreventMathMode = (value >> 6) & 0x03
		p.SubScreenColorMathEnable = value&0x02 != 0
	case regCGADSUB:
		for i := range p.Backgrounds {
			p.MainScreenColorMathEnable[i] = value&(1<<uint(i)) != 0
		}
		p.ColorMathHalf = value&0x40 != 0
		if value&0x80 != 0 {
			if p.ColorMathHalf {
				p.ColorMathOp = MathSubtractHalf
			} else {
				p.ColorMathOp = MathSubtract
			}
		} else if p.ColorMathHalf {
			p.ColorMathOp = MathAddHalf
		} else {
			p.ColorMathOp = MathAdd
		}
	case regCOLDATA:
		component := value & 0x1F
		if value&0x80 != 0 {
			p.FixedColor = (p.FixedColor &^ 0x7C00) | uint16(component)<<10
		}
		if value&0x40 != 0 {
			p.FixedColor = (p.FixedColor &^ 0x03E0) | uint16(component)<<5
		}
		if value&0x20 != 0 {
			p.FixedColor = (p.FixedColor &^ 0x001F) | uint16(component)
		}
	case regMOSAIC:
		p.MosaicSize = (value >> 4) & 0x0F
	}
}

// writeScrollLatch stores a scroll register write directly rather than modeling the
// hardware's two-byte 11-bit latch port; background scroll is treated as an 8-bit value
// for this core's purposes.
func (p *PPU) writeScrollLatch(field *uint16, value byte) {
	*field = uint16(value)
}

// latchMode7 combines two written bytes into a signed 8.8 fixed-point mode-7 matrix
// value, low byte first then high byte, matching the hardware's two-byte latch port.
func (p *PPU) latchMode7(value byte) int16 {
	if !p.regs.m7HasLatch {
		p.regs.m7Latch = value
		p.regs.m7HasLatch = true
		return 0
	}
	p.regs.m7HasLatch = false
	return int16(uint16(p.regs.m7Latch) | uint16(value)<<8)
}
