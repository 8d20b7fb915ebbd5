// busadapters.go - small Bus-capability implementations the synchronizer hands to
// each CPU core and to the DMA engine, per the bus-capability-abstraction design note.

/*
Neither CPU core nor the DMA engine holds a pointer to Console or to any sibling
component; each only sees the narrow Bus interface it declares itself. These adaptors
are the only code that is allowed to reach across domains, and every one of them folds
its per-access cost into the console's master-clock accounting before returning,
mirroring machine_bus.go's "cost travels with the access, not as a side channel" idiom.
*/
package console

import "github.com/hiraeth-systems/consolecore/internal/spc700"

const ioCycleCost = 6 // internal CPU cycle with no bus transaction, costed like a register access

// mainBusAdapter implements cpu65816.Bus against the address-bus router.
type mainBusAdapter struct {
	console *Console
}

func (a *mainBusAdapter) ReadByte(addr uint32) byte {
	value, cost := a.console.Router.ReadByte(addr)
	a.console.advanceMasterClocks(cost)
	return value
}

func (a *mainBusAdapter) WriteByte(addr uint32, value byte) {
	cost := a.console.Router.WriteByte(addr, value)
	a.console.advanceMasterClocks(cost)
}

func (a *mainBusAdapter) IOCycle() {
	a.console.advanceMasterClocks(ioCycleCost)
}

// dmaBusAdapter implements dma.Bus, the view the DMA engine's transfer loops use to
// read/write bytes through the very same router the main CPU does, so a DMA-moved byte
// costs the picture generator exactly what a CPU-moved byte would.
type dmaBusAdapter struct {
	console *Console
}

func (a *dmaBusAdapter) ReadByte(addr uint32) (byte, int)     { return a.console.Router.ReadByte(addr) }
func (a *dmaBusAdapter) WriteByte(addr uint32, value byte) int { return a.console.Router.WriteByte(addr, value) }
func (a *dmaBusAdapter) AdvanceMasterClock(n int)              { a.console.advanceMasterClocks(n) }

// dmaEngineAdapter implements bus.DMAChannels, closing over the Console so that
// TriggerDMA (which the dma.Engine declares without a bus parameter, to keep the
// router's DMAChannels interface bus-agnostic) can supply the dmaBusAdapter the engine
// actually needs to move bytes.
type dmaEngineAdapter struct {
	console *Console
}

func (d *dmaEngineAdapter) ReadChannelRegister(channel, reg int) byte {
	return d.console.DMA.ReadChannelRegister(channel, reg)
}

func (d *dmaEngineAdapter) WriteChannelRegister(channel, reg int, value byte) {
	d.console.DMA.WriteChannelRegister(channel, reg, value)
}

func (d *dmaEngineAdapter) TriggerDMA(mask byte) {
	d.console.DMA.TriggerDMA(mask, d.console.dmaBus)
}

func (d *dmaEngineAdapter) WriteHDMAEnable(mask byte) {
	d.console.DMA.WriteHDMAEnable(mask)
}

// audioBusAdapter implements spc700.Bus against the audio CPU's private 64 KiB address
// space: dedicated audio RAM, the IPL boot ROM mirrored at the top of the map, the DSP's
// address/data port pair at 0xF2/0xF3, and the mailbox's audio-CPU-facing side at
// 0xF4-0xF7. Grounded on original_source/core/src/apu/mod.rs's memory map.
type audioBusAdapter struct {
	console *Console
}

const (
	audioRegControl  = 0x00F1
	audioRegDSPAddr  = 0x00F2
	audioRegDSPData  = 0x00F3
	audioRegMailbox0 = 0x00F4
	audioRegMailbox3 = 0x00F7
	audioBootROMBase = 0xFFC0

	audioControlROMEnable = 0x80 // bit 7 of the CONTROL register
)

func (a *audioBusAdapter) ReadByte(addr uint16) byte {
	c := a.console
	c.audioMemoryCycle()
	switch {
	case addr >= audioBootROMBase && c.audioROMMapped:
		return spc700.BootROMByte(addr - audioBootROMBase)
	case addr == audioRegDSPAddr:
		return c.dspAddr
	case addr == audioRegDSPData:
		return c.DSP.Read(int(c.dspAddr))
	case addr >= audioRegMailbox0 && addr <= audioRegMailbox3:
		return c.Mailbox.ReadFromMain(addr - audioRegMailbox0)
	default:
		return c.audioRAM[addr]
	}
}

func (a *audioBusAdapter) WriteByte(addr uint16, value byte) {
	c := a.console
	c.audioMemoryCycle()
	switch {
	case addr == audioRegControl:
		c.audioROMMapped = value&audioControlROMEnable != 0
		c.audioRAM[addr] = value
	case addr == audioRegDSPAddr:
		c.dspAddr = value
	case addr == audioRegDSPData:
		c.DSP.Write(int(c.dspAddr), value)
	case addr >= audioRegMailbox0 && addr <= audioRegMailbox3:
		c.Mailbox.WriteToMain(addr-audioRegMailbox0, value)
	default:
		c.audioRAM[addr] = value
	}
}

func (a *audioBusAdapter) IOCycle() {
	a.console.audioMemoryCycle()
}
