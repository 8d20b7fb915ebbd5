// console.go - the clock synchronizer (C8) that owns and wires every component.

/*
console.go implements the synchronizer: the sole owner of working RAM, both CPU cores,
the picture generator, the DSP, the DMA channels and the cartridge. It is created and
destroyed as one unit and exposes no way to get a mutable reference to a sub-component
while a step is in flight, per spec.md §5's exclusive-mutation-rights rule.

Grounded on console.rs's top-level owning-struct shape and coprocessor_manager.go's
idiom of a single manager type wiring sibling chips together through small adaptor
types rather than direct struct embedding, which is how this file avoids the CPU cores
ever holding a pointer back to the Console.
*/
package console

import (
	"github.com/hiraeth-systems/consolecore/internal/bus"
	"github.com/hiraeth-systems/consolecore/internal/cartridge"
	"github.com/hiraeth-systems/consolecore/internal/cpu65816"
	"github.com/hiraeth-systems/consolecore/internal/dma"
	"github.com/hiraeth-systems/consolecore/internal/dsp"
	"github.com/hiraeth-systems/consolecore/internal/ppu"
	"github.com/hiraeth-systems/consolecore/internal/spc700"
)

const audioRAMSize = 0x10000

// Sample is one stereo output frame, normalized to [-1, 1].
type Sample struct {
	Left, Right float32
}

// Console is the cycle-stepping owner of a full emulated machine.
type Console struct {
	Cartridge *cartridge.Cartridge
	Router    *bus.Router
	CPU       *cpu65816.CPU
	Audio     *spc700.CPU
	PPU       *ppu.PPU
	DSP       *dsp.Dsp
	DMA       *dma.Engine
	Math      *MathUnit
	Mailbox   *Mailbox
	Input     *InputPorts

	audioRAM       [audioRAMSize]byte
	dspAddr        byte
	audioROMMapped bool

	totalMasterClocks int64
	apuMasterClocks   int64
	audioSampleCycles int

	lastVblank   bool
	lastScanline int

	audioSamples []Sample

	mainBus  cpu65816.Bus
	audioBus spc700.Bus
	dmaBus   dma.Bus
}

// New builds a fully wired console around the given cartridge image.
func New(cartData []byte) *Console {
	c := &Console{
		Cartridge: cartridge.New(cartData),
		PPU:       ppu.New(),
		CPU:       &cpu65816.CPU{},
		Audio:     &spc700.CPU{},
		DSP:       dsp.New(),
		DMA:       dma.New(),
		Math:      NewMathUnit(),
		Mailbox:   NewMailbox(),
		Input:     NewInputPorts(),
	}
	dmaAdapter := &dmaEngineAdapter{console: c}
	c.Router = bus.New(c.PPU, c.Cartridge, dmaAdapter, c.Math, c.Mailbox, c.Input)
	c.mainBus = &mainBusAdapter{console: c}
	c.audioBus = &audioBusAdapter{console: c}
	c.dmaBus = &dmaBusAdapter{console: c}
	c.Reset()
	return c
}

// Reset brings every owned component back to its post-reset state and loads both CPU
// cores' program counters from their respective reset vectors.
func (c *Console) Reset() {
	c.Cartridge.Reset()
	c.Router.Reset()
	c.PPU.Reset()
	c.DMA.Reset()
	c.Math.Reset()
	c.Mailbox.Reset()
	for i := range c.audioRAM {
		c.audioRAM[i] = 0
	}
	c.audioROMMapped = true
	c.totalMasterClocks = 0
	c.apuMasterClocks = 0
	c.audioSampleCycles = 0
	c.lastVblank = false
	c.lastScanline = 0
	c.audioSamples = c.audioSamples[:0]

	c.CPU.Reset(c.mainBus)
	c.Audio.Reset(c.audioBus)
}

// DrainAudioSamples returns and clears every stereo sample produced since the last
// drain, per spec.md §6's "host drains at its own cadence" contract.
func (c *Console) DrainAudioSamples() []Sample {
	out := c.audioSamples
	c.audioSamples = nil
	return out
}

// ScreenBuffer exposes the picture generator's current frame, per spec.md §6.
func (c *Console) ScreenBuffer() [240][256]uint16 { return c.PPU.ScreenBuffer() }
