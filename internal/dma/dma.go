// dma.go - DMA/HDMA engine for the console core.

/*
dma.go implements the eight general-purpose DMA/HDMA channels (C5). Per the design
notes' "inverted control" resolution, the engine never stores a reference back to the
bus or synchronizer: the synchronizer passes the bus adaptor into TriggerDMA and
RunHDMAScanline, and those methods drive the byte-transfer loop themselves, calling the
adaptor for every source read / destination write and advancing the picture generator by
each access's cost, the same path a normal CPU memory access uses.

Grounded on original_source/core/src/dma.rs: the eight transfer patterns, the
AddressAdjustMode enum, and the inc_src_addr/full_src_addr nuances (HDMA always
increments its source address regardless of adjust mode; indirect addressing always
increments the indirect pointer regardless of HDMA-ness) are carried over verbatim
since the spec names these exact patterns and this behaviour is otherwise unstated.
*/
package dma

// AddressAdjustMode selects how a channel's source address moves after each byte.
type AddressAdjustMode int

const (
	Increment AddressAdjustMode = iota
	Decrement
	Fixed
)

// transferPatterns maps a 3-bit pattern index to the list of destination-register
// offsets (relative to 0x2100 + channel destination) a channel cycles through.
// Verbatim from spec.md §4.5 / original_source/core/src/dma.rs.
var transferPatterns = [8][]byte{
	{0},
	{0, 1},
	{0, 0},
	{0, 0, 1, 1},
	{0, 1, 2, 3},
	{0, 1, 0, 1},
	{0, 0},
	{0, 0, 1, 1},
}

// Channel holds one DMA/HDMA channel's configuration and transient state.
type Channel struct {
	TransferPatternIndex int
	AdjustMode           AddressAdjustMode
	Indirect             bool
	Direction            bool // true: PPU-to-CPU (read dest, write src); false: CPU-to-PPU
	DestAddr             byte // low byte in the 0x21xx register area

	SrcAddr uint16
	SrcBank byte

	ByteCounter         uint16 // DMA byte count, or HDMA indirect table address holder
	NumBytesTransferred uint16
	IsExecuting         bool

	HDMALineCounter       byte
	IndirectBank          byte
	IndirectDataAddr      uint16
	HDMATableAddr         uint16
	HDMATableBank         byte
	CurrentHDMATableAddr  uint16
	HDMARepeat            bool
	HDMAEnable            bool
}

func (c *Channel) transferPattern() []byte {
	return transferPatterns[c.TransferPatternIndex&0x07]
}

// CurrentHDMATableAddress returns the full 24-bit address of the HDMA table entry at
// the given byte offset from the channel's current table cursor.
func (c *Channel) CurrentHDMATableAddress(offset uint16) uint32 {
	return uint32(c.HDMATableBank)*0x10000 + uint32(c.CurrentHDMATableAddr+offset)
}

// IncTableAddr advances the HDMA table cursor past one entry: 3 bytes for an indirect
// table entry (line count + 2-byte indirect pointer), or 1 + pattern length for a direct
// table entry (line count + one set of bytes per transfer-pattern register).
func (c *Channel) IncTableAddr() {
	if c.Indirect {
		c.CurrentHDMATableAddr += 3
	} else {
		c.CurrentHDMATableAddr += uint16(1 + len(c.transferPattern()))
	}
}

// FullSrcAddr returns the full 24-bit source address a byte should currently be read
// from: the indirect bank/pointer when indirect addressing is active, otherwise the
// channel's own source bank/address.
func (c *Channel) FullSrcAddr() uint32 {
	if c.Indirect {
		return uint32(c.IndirectBank)*0x10000 + uint32(c.IndirectDataAddr)
	}
	return uint32(c.SrcBank)*0x10000 + uint32(c.SrcAddr)
}

// IsHDMA reports whether this channel is configured for HDMA (vs. general-purpose DMA).
func (c *Channel) IsHDMA() bool { return c.HDMAEnable }

// NumBytes returns the number of bytes one HDMA table-entry transfer moves (the
// transfer pattern's length), or the remaining DMA byte counter for general-purpose DMA.
func (c *Channel) NumBytes() uint16 {
	if c.IsHDMA() {
		return uint16(len(c.transferPattern()))
	}
	return c.ByteCounter
}

// IncSrcAddr advances the source address by one byte's worth of transfer, per the
// channel's addressing mode. Indirect addressing always increments regardless of
// HDMA-ness; HDMA (non-indirect) always increments regardless of adjust mode; only
// plain general-purpose DMA honours Increment/Decrement/Fixed.
func (c *Channel) IncSrcAddr() {
	if c.Indirect {
		c.IndirectDataAddr++
		return
	}
	if c.IsHDMA() {
		c.SrcAddr++
		return
	}
	switch c.AdjustMode {
	case Increment:
		c.SrcAddr++
	case Decrement:
		c.SrcAddr--
	case Fixed:
	}
}

// DestOffsetForByte returns the destination-register offset for the i-th byte of the
// current transfer, cycling through the channel's transfer pattern.
func (c *Channel) DestOffsetForByte(i int) byte {
	p := c.transferPattern()
	return p[i%len(p)]
}

// Reset returns the channel to its power-on state. IndirectBank is deliberately left
// independent of HDMATableBank (see SPEC_FULL.md's Open Question resolution): no
// aliasing is modeled, since original_source keeps them as unrelated fields and nothing
// in the transfer algorithm ties them together outside of indirect addressing, which a
// game must explicitly program before use.
func (c *Channel) Reset() {
	*c = Channel{AdjustMode: Increment}
}

// Bus is the minimal capability the engine needs from the address-bus router to move
// bytes during a DMA/HDMA transfer: a byte read/write pair and a way to advance the
// picture generator (and thus the master clock) per transferred byte, matching the
// per-access-cost accounting every other bus access goes through.
type Bus interface {
	ReadByte(addr uint32) (value byte, cost int)
	WriteByte(addr uint32, value byte) (cost int)
	AdvanceMasterClock(n int)
}

// Engine owns the eight channels and the byte-transfer loops. It holds no reference to
// the bus; every method that moves bytes takes the bus as a parameter, per the
// inverted-control design note.
type Engine struct {
	Channels [8]Channel
}

// New constructs an engine with all channels at their reset state.
func New() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// Reset restores every channel to its power-on state.
func (e *Engine) Reset() {
	for i := range e.Channels {
		e.Channels[i].Reset()
	}
}

// ReadChannelRegister reads one of the 16 bytes of per-channel DMA register space at
// 0x43[channel]0-0x43[channel]F.
func (e *Engine) ReadChannelRegister(channel int, reg int) byte {
	if channel < 0 || channel >= len(e.Channels) {
		return 0
	}
	c := &e.Channels[channel]
	switch reg {
	case 0x00:
		return channelParamsByte(c)
	case 0x01:
		return c.DestAddr
	case 0x02:
		return byte(c.SrcAddr)
	case 0x03:
		return byte(c.SrcAddr >> 8)
	case 0x04:
		return c.SrcBank
	case 0x05:
		return byte(c.ByteCounter)
	case 0x06:
		return byte(c.ByteCounter >> 8)
	case 0x07:
		return c.IndirectBank
	case 0x08:
		return byte(c.CurrentHDMATableAddr)
	case 0x09:
		return byte(c.CurrentHDMATableAddr >> 8)
	case 0x0A:
		return c.HDMALineCounter
	default:
		return 0
	}
}

// WriteChannelRegister writes one of the 16 bytes of per-channel DMA register space.
func (e *Engine) WriteChannelRegister(channel int, reg int, value byte) {
	if channel < 0 || channel >= len(e.Channels) {
		return
	}
	c := &e.Channels[channel]
	switch reg {
	case 0x00:
		setChannelParamsByte(c, value)
	case 0x01:
		c.DestAddr = value
	case 0x02:
		c.SrcAddr = (c.SrcAddr & 0xFF00) | uint16(value)
	case 0x03:
		c.SrcAddr = (c.SrcAddr & 0x00FF) | uint16(value)<<8
	case 0x04:
		c.SrcBank = value
	case 0x05:
		c.ByteCounter = (c.ByteCounter & 0xFF00) | uint16(value)
		c.HDMATableAddr = (c.HDMATableAddr & 0xFF00) | uint16(value)
	case 0x06:
		c.ByteCounter = (c.ByteCounter & 0x00FF) | uint16(value)<<8
		c.HDMATableAddr = (c.HDMATableAddr & 0x00FF) | uint16(value)<<8
	case 0x07:
		c.IndirectBank = value
		c.HDMATableBank = value
	case 0x08:
		c.CurrentHDMATableAddr = (c.CurrentHDMATableAddr & 0xFF00) | uint16(value)
	case 0x09:
		c.CurrentHDMATableAddr = (c.CurrentHDMATableAddr & 0x00FF) | uint16(value)<<8
	case 0x0A:
		c.HDMALineCounter = value
	}
}

func channelParamsByte(c *Channel) byte {
	var v byte
	v |= byte(c.TransferPatternIndex & 0x07)
	v |= byte(c.AdjustMode) << 3
	if c.Indirect {
		v |= 0x40
	}
	if c.Direction {
		v |= 0x80
	}
	return v
}

func setChannelParamsByte(c *Channel, value byte) {
	c.TransferPatternIndex = int(value & 0x07)
	c.AdjustMode = AddressAdjustMode((value >> 3) & 0x03)
	c.Indirect = value&0x40 != 0
	c.Direction = value&0x80 != 0
}

// TriggerDMA scans the 8 enable bits of a write to the DMA-trigger register and runs a
// full byte-for-byte transfer for each enabled channel, in channel order, as an atomic
// operation with respect to the main CPU (the synchronizer does not execute any further
// instructions until every triggered channel has drained its byte counter).
func (e *Engine) TriggerDMA(mask byte, bus Bus) {
	for ch := 0; ch < 8; ch++ {
		if mask&(1<<uint(ch)) == 0 {
			continue
		}
		e.runChannelDMA(&e.Channels[ch], bus)
	}
}

func (e *Engine) runChannelDMA(c *Channel, bus Bus) {
	c.IsExecuting = true
	c.NumBytesTransferred = 0
	n := uint32(c.ByteCounter)
	if n == 0 {
		n = 0x10000 // a zero byte counter transfers a full 64 KiB, per hardware convention
	}
	for i := uint32(0); i < n; i++ {
		destOffset := c.DestOffsetForByte(int(i))
		destAddr := uint32(0x2100) + uint32(c.DestAddr) + uint32(destOffset)
		srcAddr := c.FullSrcAddr()

		if c.Direction {
			value, cost := bus.ReadByte(destAddr)
			cost2 := bus.WriteByte(srcAddr, value)
			bus.AdvanceMasterClock(cost + cost2)
		} else {
			value, cost := bus.ReadByte(srcAddr)
			cost2 := bus.WriteByte(destAddr, value)
			bus.AdvanceMasterClock(cost + cost2)
		}

		c.IncSrcAddr()
		c.ByteCounter--
		c.NumBytesTransferred++
	}
	c.IsExecuting = false
}

// WriteHDMAEnable latches the per-channel HDMA-enable bits from a write to 0x420C.
func (e *Engine) WriteHDMAEnable(mask byte) {
	for ch := 0; ch < 8; ch++ {
		e.Channels[ch].HDMAEnable = mask&(1<<uint(ch)) != 0
	}
}

// InitHDMA is called by the synchronizer once at the start of vertical blank for every
// channel with HDMAEnable set: it resets the table cursor to the configured table
// address/bank and clears the repeat/line-counter state so the first scanline's
// horizontal-blank window performs the table's first read.
func (e *Engine) InitHDMA() {
	for i := range e.Channels {
		c := &e.Channels[i]
		if !c.HDMAEnable {
			continue
		}
		c.CurrentHDMATableAddr = c.HDMATableAddr
		c.HDMALineCounter = 0
		c.HDMARepeat = false
	}
}

// RunHDMAScanline performs one scanline's worth of HDMA work for every enabled channel,
// called by the synchronizer during the picture generator's horizontal-blank window.
// When a channel's line counter reaches zero, it reads a fresh line counter (and,
// for indirect channels, a fresh 2-byte indirect pointer) from the table, transfers one
// pattern's worth of bytes, decrements the line counter, and repeats on subsequent
// scanlines until the line counter reaches zero with the high bit clear, at which point
// the table cursor advances past the entry.
func (e *Engine) RunHDMAScanline(bus Bus) {
	for i := range e.Channels {
		c := &e.Channels[i]
		if !c.HDMAEnable {
			continue
		}
		e.runHDMALine(c, bus)
	}
}

func (e *Engine) runHDMALine(c *Channel, bus Bus) {
	if c.HDMALineCounter == 0 {
		lineCounterAddr := c.CurrentHDMATableAddress(0)
		lc, cost := bus.ReadByte(lineCounterAddr)
		bus.AdvanceMasterClock(cost)
		c.HDMALineCounter = lc & 0x7F
		c.HDMARepeat = lc&0x80 != 0

		if c.Indirect {
			lo, cost1 := bus.ReadByte(c.CurrentHDMATableAddress(1))
			hi, cost2 := bus.ReadByte(c.CurrentHDMATableAddress(2))
			bus.AdvanceMasterClock(cost1 + cost2)
			c.IndirectDataAddr = uint16(lo) | uint16(hi)<<8
		} else {
			c.SrcAddr = uint16(c.CurrentHDMATableAddr + 1)
		}
	}

	if c.HDMALineCounter == 0 && !c.HDMARepeat {
		return
	}

	pattern := c.transferPattern()
	for i, offset := range pattern {
		_ = i
		destAddr := uint32(0x2100) + uint32(c.DestAddr) + uint32(offset)
		value, cost1 := bus.ReadByte(c.FullSrcAddr())
		cost2 := bus.WriteByte(destAddr, value)
		bus.AdvanceMasterClock(cost1 + cost2)
		c.IncSrcAddr()
	}

	if c.HDMALineCounter > 0 {
		c.HDMALineCounter--
	}
	if c.HDMALineCounter == 0 {
		c.IncTableAddr()
	}
}
