// bus.go - Address-bus router for the console core.

/*
bus.go implements the main-CPU address-bus router (C7 in the design). This module
decodes every 24-bit CPU-side address into working RAM, picture-generator registers,
the audio-CPU mailbox, the math unit, DMA/HDMA channel registers, input-port shift
registers, or the cartridge, and reports a per-access cost in master clocks that the
synchronizer accumulates.

MEMORY MAP OVERVIEW
====================

Bank range            Offset range     Region                        Cost
---------------------------------------------------------------------------------
0x7E-0x7F              0x0000-0xFFFF   Working RAM, 128 KiB linear    12
0x00-0x3F / 0x80-0xBF  0x0000-0x1FFF   WRAM mirror (first 8 KiB)      12
0x00-0x3F / 0x80-0xBF  0x2100-0x213F   Picture-generator registers    6
0x00-0x3F / 0x80-0xBF  0x2140-0x2143   Audio-CPU mailbox (4 bytes)    6
0x00-0x3F / 0x80-0xBF  0x4200          NMI-enable / auto-joypad-read  6
0x00-0x3F / 0x80-0xBF  0x4202-0x4206   Multiplication/division unit   6
0x00-0x3F / 0x80-0xBF  0x4218-0x421F   Input-port shift registers     6
0x00-0x3F / 0x80-0xBF  0x420B,0x420C   DMA/HDMA trigger               6
0x00-0x3F / 0x80-0xBF  0x4300-0x437F   DMA/HDMA channel registers     6
anything else, banks 0x00-0x3F         Cartridge                      8

This module follows the bus-capability-abstraction design note: the CPU core depends
only on a small Bus interface (ReadByte/WriteByte/IOCycle); the router, not the CPU,
knows about the picture generator, DMA engine, math unit and cartridge. Backward
references from DMA into picture-generator registers are plain method calls issued by
the synchronizer through this same router, never a stored pointer back from DMA.

Grounded on machine_bus.go's page-mapped I/O idiom (page-masked region lookup with a
fast-path bitmap) and registers.go's centralized memory-map documentation, generalised
from the teacher's 32-bit flat address space to the console's bank:offset addressing.
*/
package bus

import "fmt"

const (
	wramSize       = 0x20000 // 128 KiB
	wramMirrorSize = 0x2000  // 8 KiB mirrored into low banks

	regPPUBase    = 0x2100
	regPPUEnd     = 0x213F
	regMailbox0   = 0x2140
	regMailbox3   = 0x2143
	regNMITimer   = 0x4200
	regMathBase   = 0x4202
	regMathEnd    = 0x4206
	regDMATrigger = 0x420B
	regHDMAEnable = 0x420C
	regJoyBase    = 0x4218
	regJoyEnd     = 0x421F
	regDMAChBase  = 0x4300
	regDMAChEnd   = 0x437F

	costWRAM   = 12
	costMirror = 12
	costIO     = 6
	costROM    = 8
)

// PPU is the subset of the picture generator the router must reach for register
// access. Implemented by internal/ppu.PPU.
type PPU interface {
	ReadRegister(offset uint16) byte
	WriteRegister(offset uint16, value byte)
}

// Cartridge is the subset of the cartridge mapper the router reaches for ROM/SRAM
// access. Implemented by internal/cartridge.Cartridge.
type Cartridge interface {
	ReadROM(addr uint32) byte
	ReadSRAM(addr uint32) byte
	WriteSRAM(addr uint32, value byte)
}

// DMAChannels is the subset of the DMA engine the router reaches for channel-register
// and trigger access. Implemented by internal/dma.Engine.
type DMAChannels interface {
	ReadChannelRegister(channel int, reg int) byte
	WriteChannelRegister(channel int, reg int, value byte)
	TriggerDMA(mask byte)
	WriteHDMAEnable(mask byte)
}

// Math is the multiplication/division unit at 0x4202-0x4206.
type Math interface {
	Read(offset uint16) byte
	Write(offset uint16, value byte)
}

// Mailbox is the four-byte mailbox shared with the audio CPU at 0x2140-0x2143.
type Mailbox interface {
	ReadFromAudio(offset uint16) byte
	WriteToAudio(offset uint16, value byte)
}

// InputPorts reports the 16-bit controller shift registers at 0x4218-0x421F.
type InputPorts interface {
	ReadShiftRegister(port int, hi bool) byte
}

// Router decodes main-CPU addresses. It owns working RAM directly (per the spec's
// ownership rule that the synchronizer owns WRAM; in practice the synchronizer
// constructs the Router with that ownership and reads it back for savestate purposes).
type Router struct {
	wram []byte

	ppu        PPU
	cart       Cartridge
	dma        DMAChannels
	math       Math
	mailbox    Mailbox
	inputPorts InputPorts

	lastBusValue byte
	nmiEnabled   bool
	autoJoyRead  bool
}

// New constructs a router with the given component views. Any of ppu/cart/dma/math/
// mailbox/inputPorts may be nil during unit testing of a single component; accesses
// routed to a nil collaborator return open-bus rather than panicking, since a partially
// wired router is a valid test fixture, not a contract violation.
func New(ppu PPU, cart Cartridge, dma DMAChannels, math Math, mailbox Mailbox, inputPorts InputPorts) *Router {
	return &Router{
		wram:       make([]byte, wramSize),
		ppu:        ppu,
		cart:       cart,
		dma:        dma,
		math:       math,
		mailbox:    mailbox,
		inputPorts: inputPorts,
	}
}

// splitAddr splits a full 24-bit address (bank<<16 | offset) into its bank and offset.
func splitAddr(addr uint32) (bank uint32, offset uint16) {
	return (addr >> 16) & 0xFF, uint16(addr & 0xFFFF)
}

func isLowBank(bank uint32) bool {
	return bank <= 0x3F || (bank >= 0x80 && bank <= 0xBF)
}

// ReadByte reads one byte and returns its cost in master clocks.
func (r *Router) ReadByte(addr uint32) (value byte, cost int) {
	bank, offset := splitAddr(addr)

	switch {
	case bank == 0x7E || bank == 0x7F:
		idx := (bank-0x7E)*0x10000 + uint32(offset)
		value, cost = r.wram[idx], costWRAM

	case isLowBank(bank) && offset < wramMirrorSize:
		value, cost = r.wram[offset], costMirror

	case isLowBank(bank) && offset >= regPPUBase && offset <= regPPUEnd:
		value, cost = r.readPPU(offset), costIO

	case isLowBank(bank) && offset >= regMailbox0 && offset <= regMailbox3:
		value, cost = r.readMailbox(offset), costIO

	case isLowBank(bank) && offset == regNMITimer:
		value, cost = r.readNMITimer(), costIO

	case isLowBank(bank) && offset >= regMathBase && offset <= regMathEnd:
		value, cost = r.readMath(offset), costIO

	case isLowBank(bank) && offset >= regJoyBase && offset <= regJoyEnd:
		value, cost = r.readJoypad(offset), costIO

	case isLowBank(bank) && offset >= regDMAChBase && offset <= regDMAChEnd:
		value, cost = r.readDMAChannel(offset), costIO

	case bank <= 0x3F:
		value, cost = r.readCartridge(addr), costROM

	default:
		value, cost = r.lastBusValue, costROM
	}

	r.lastBusValue = value
	return value, cost
}

// WriteByte writes one byte and returns its cost in master clocks.
func (r *Router) WriteByte(addr uint32, value byte) (cost int) {
	bank, offset := splitAddr(addr)
	r.lastBusValue = value

	switch {
	case bank == 0x7E || bank == 0x7F:
		idx := (bank-0x7E)*0x10000 + uint32(offset)
		r.wram[idx] = value
		return costWRAM

	case isLowBank(bank) && offset < wramMirrorSize:
		r.wram[offset] = value
		return costMirror

	case isLowBank(bank) && offset >= regPPUBase && offset <= regPPUEnd:
		r.writePPU(offset, value)
		return costIO

	case isLowBank(bank) && offset >= regMailbox0 && offset <= regMailbox3:
		r.writeMailbox(offset, value)
		return costIO

	case isLowBank(bank) && offset == regNMITimer:
		r.nmiEnabled = value&0x80 != 0
		r.autoJoyRead = value&0x01 != 0
		return costIO

	case isLowBank(bank) && offset >= regMathBase && offset <= regMathEnd:
		r.writeMath(offset, value)
		return costIO

	case isLowBank(bank) && offset == regDMATrigger:
		if r.dma != nil {
			r.dma.TriggerDMA(value)
		}
		return costIO

	case isLowBank(bank) && offset == regHDMAEnable:
		if r.dma != nil {
			r.dma.WriteHDMAEnable(value)
		}
		return costIO

	case isLowBank(bank) && offset >= regDMAChBase && offset <= regDMAChEnd:
		r.writeDMAChannel(offset, value)
		return costIO

	case bank <= 0x3F && cartridge_isSRAM(addr):
		if r.cart != nil {
			r.cart.WriteSRAM(addr, value)
		}
		return costROM

	default:
		// Open-bus / ROM write: no effect beyond latching the bus value above.
		return costROM
	}
}

func (r *Router) readPPU(offset uint16) byte {
	if r.ppu == nil {
		return r.lastBusValue
	}
	return r.ppu.ReadRegister(offset - regPPUBase)
}

func (r *Router) writePPU(offset uint16, value byte) {
	if r.ppu == nil {
		return
	}
	r.ppu.WriteRegister(offset-regPPUBase, value)
}

func (r *Router) readMailbox(offset uint16) byte {
	if r.mailbox == nil {
		return r.lastBusValue
	}
	return r.mailbox.ReadFromAudio(offset - regMailbox0)
}

func (r *Router) writeMailbox(offset uint16, value byte) {
	if r.mailbox == nil {
		return
	}
	r.mailbox.WriteToAudio(offset-regMailbox0, value)
}

func (r *Router) readNMITimer() byte {
	var v byte
	if r.nmiEnabled {
		v |= 0x80
	}
	if r.autoJoyRead {
		v |= 0x01
	}
	return v
}

// NMIEnabled reports the current state of bit 7 of 0x4200, consulted by the
// synchronizer on every vblank-entry edge.
func (r *Router) NMIEnabled() bool { return r.nmiEnabled }

func (r *Router) readMath(offset uint16) byte {
	if r.math == nil {
		return r.lastBusValue
	}
	return r.math.Read(offset)
}

func (r *Router) writeMath(offset uint16, value byte) {
	if r.math == nil {
		return
	}
	r.math.Write(offset, value)
}

func (r *Router) readJoypad(offset uint16) byte {
	if r.inputPorts == nil {
		return r.lastBusValue
	}
	port := int((offset - regJoyBase) / 2)
	hi := (offset-regJoyBase)%2 == 1
	return r.inputPorts.ReadShiftRegister(port, hi)
}

func (r *Router) readDMAChannel(offset uint16) byte {
	if r.dma == nil {
		return r.lastBusValue
	}
	ch := int((offset - regDMAChBase) / 16)
	reg := int((offset - regDMAChBase) % 16)
	return r.dma.ReadChannelRegister(ch, reg)
}

func (r *Router) writeDMAChannel(offset uint16, value byte) {
	if r.dma == nil {
		return
	}
	ch := int((offset - regDMAChBase) / 16)
	reg := int((offset - regDMAChBase) % 16)
	r.dma.WriteChannelRegister(ch, reg, value)
}

func (r *Router) readCartridge(addr uint32) byte {
	if cartridge_isSRAM(addr) {
		if r.cart == nil {
			return r.lastBusValue
		}
		return r.cart.ReadSRAM(addr)
	}
	if r.cart == nil {
		return r.lastBusValue
	}
	return r.cart.ReadROM(addr)
}

// cartridge_isSRAM mirrors internal/cartridge.IsSRAMAddress without importing that
// package's full type, since the router only needs the address predicate; kept as a
// free function (rather than an interface method) because the predicate is pure and
// applies identically regardless of which Cartridge implementation is wired in.
func cartridge_isSRAM(addr uint32) bool {
	a := addr % 0x800000
	bank := (a >> 16) & 0xFF
	offset := a & 0xFFFF
	return bank >= 0x70 && bank <= 0x7D && offset < 0x8000
}

// OpenBusValue returns the last value driven on the bus, for open-bus reads from
// unmapped addresses (per the error-handling design's open-bus classification).
func (r *Router) OpenBusValue() byte { return r.lastBusValue }

// WRAM returns the raw working-RAM block, for savestate section encoding and for
// direct access by DMA transfers that target WRAM as a source or destination.
func (r *Router) WRAM() []byte { return r.wram }

// LoadWRAM replaces the WRAM block wholesale, for savestate restore.
func (r *Router) LoadWRAM(data []byte) error {
	if len(data) != len(r.wram) {
		return fmt.Errorf("bus: WRAM size mismatch: got %d want %d", len(data), len(r.wram))
	}
	copy(r.wram, data)
	return nil
}

// InterruptLatchState reports the NMI-enable and auto-joypad-read bits of 0x4200 and the
// last value driven on the bus, for internal/savestate.
func (r *Router) InterruptLatchState() (nmiEnabled, autoJoyRead bool, lastBusValue byte) {
	return r.nmiEnabled, r.autoJoyRead, r.lastBusValue
}

// RestoreInterruptLatchState restores the bits InterruptLatchState reports.
func (r *Router) RestoreInterruptLatchState(nmiEnabled, autoJoyRead bool, lastBusValue byte) {
	r.nmiEnabled, r.autoJoyRead, r.lastBusValue = nmiEnabled, autoJoyRead, lastBusValue
}

// Reset zeroes working RAM and the NMI/auto-joypad-read latch.
func (r *Router) Reset() {
	for i := range r.wram {
		r.wram[i] = 0
	}
	r.nmiEnabled = false
	r.autoJoyRead = false
	r.lastBusValue = 0
}
