// state.go - full-machine snapshot, the payload internal/savestate serializes.

/*
State aggregates every component's own exported snapshot type into one struct a host
can save and restore. Controller input state is deliberately excluded: it is host-driven
each frame and is never part of the emulated machine's own persistent state, the same
reasoning spec.md §6 gives for keeping the host's input polling outside the core.
*/
package console

import (
	"github.com/hiraeth-systems/consolecore/internal/cpu65816"
	"github.com/hiraeth-systems/consolecore/internal/dma"
	"github.com/hiraeth-systems/consolecore/internal/dsp"
	"github.com/hiraeth-systems/consolecore/internal/ppu"
	"github.com/hiraeth-systems/consolecore/internal/spc700"
)

// State is the serializable snapshot of an entire Console.
type State struct {
	CPU   cpu65816.CPU
	Audio spc700.CPU
	PPU   ppu.State
	DSP   dsp.State
	DMA   [8]dma.Channel
	Math  MathState
	Mail  MailboxState

	WRAM     []byte
	SRAM     []byte
	AudioRAM       [audioRAMSize]byte
	DSPAddr        byte
	AudioROMMapped bool

	NMIEnabled   bool
	AutoJoyRead  bool
	LastBusValue byte

	TotalMasterClocks int64
	ApuMasterClocks   int64
	AudioSampleCycles int
	LastVblank        bool
	LastScanline      int
}

// Snapshot captures the entire console's state.
func (c *Console) Snapshot() State {
	nmiEnabled, autoJoyRead, lastBusValue := c.Router.InterruptLatchState()
	wram := append([]byte(nil), c.Router.WRAM()...)
	sram := append([]byte(nil), c.Cartridge.SRAM()...)
	return State{
		CPU:               *c.CPU,
		Audio:             *c.Audio,
		PPU:               c.PPU.Snapshot(),
		DSP:               c.DSP.Snapshot(),
		DMA:               c.DMA.Channels,
		Math:              c.Math.Snapshot(),
		Mail:              c.Mailbox.Snapshot(),
		WRAM:              wram,
		SRAM:              sram,
		AudioRAM:          c.audioRAM,
		DSPAddr:           c.dspAddr,
		AudioROMMapped:    c.audioROMMapped,
		NMIEnabled:        nmiEnabled,
		AutoJoyRead:       autoJoyRead,
		LastBusValue:      lastBusValue,
		TotalMasterClocks: c.totalMasterClocks,
		ApuMasterClocks:   c.apuMasterClocks,
		AudioSampleCycles: c.audioSampleCycles,
		LastVblank:        c.lastVblank,
		LastScanline:      c.lastScanline,
	}
}

// Restore replaces the console's entire state wholesale from a snapshot.
func (c *Console) Restore(s State) error {
	*c.CPU = s.CPU
	*c.Audio = s.Audio
	c.PPU.Restore(s.PPU)
	c.DSP.Restore(s.DSP)
	c.DMA.Channels = s.DMA
	c.Math.Restore(s.Math)
	c.Mailbox.Restore(s.Mail)
	if err := c.Router.LoadWRAM(s.WRAM); err != nil {
		return err
	}
	c.Cartridge.LoadSRAM(s.SRAM)
	c.audioRAM = s.AudioRAM
	c.dspAddr = s.DSPAddr
	c.audioROMMapped = s.AudioROMMapped
	c.Router.RestoreInterruptLatchState(s.NMIEnabled, s.AutoJoyRead, s.LastBusValue)
	c.totalMasterClocks = s.TotalMasterClocks
	c.apuMasterClocks = s.ApuMasterClocks
	c.audioSampleCycles = s.AudioSampleCycles
	c.lastVblank = s.LastVblank
	c.lastScanline = s.LastScanline
	return nil
}
