// step.go - the instruction-stepping loop, audio-budget ratio, and vblank/HDMA hooks.

/*
StepInstruction is the synchronizer's single entry point for advancing the whole
machine by one main-CPU instruction. It implements the exact audio-budget ratio test
from original_source/core/src/console.rs's advance_instructions_with_hooks: the audio
CPU only steps when its own cumulative clock budget has fallen behind the main CPU's,
measured as real elapsed time at each core's own clock rate (1.024 MHz for the audio
side, 21.477 MHz for the main side). Both sides of the inequality are cross-multiplied
and computed with math/big rather than float64, per the design note that float drift
across a long play session would eventually desync audio from video; big.Int also sidesteps
int64 overflow across an arbitrarily long run, since both counters only grow.

Grounded on console.rs's hook-driven instruction loop and nmi_irq.go's vblank-edge NMI
delivery idiom (checking a latched previous-frame flag rather than re-deriving the edge
from scanline/dot counters on every call).
*/
package console

import (
	"log"
	"math/big"
)

const (
	audioClockHz = 1_024_000
	mainClockHz  = 21_477_000

	audioCyclesPerSample = 32 // audio-CPU memory cycles between generated DSP samples
)

// StepInstruction executes exactly one main-CPU instruction, keeps the audio CPU and
// DSP caught up to the resulting elapsed time, and delivers an NMI on every vblank-entry
// edge the picture generator reports, per spec.md §4.8.
func (c *Console) StepInstruction() {
	c.CPU.Step(c.mainBus)
	c.catchUpAudio()
	c.checkVblankEdge()
}

// advanceMasterClocks is called by every bus adaptor after an access completes; it
// feeds the picture generator (the master-clock reference for the whole machine), the
// running total the audio-budget ratio test below consults, and the per-scanline HDMA
// cadence below.
func (c *Console) advanceMasterClocks(n int) {
	if n <= 0 {
		return
	}
	c.PPU.AdvanceMasterClock(n)
	c.totalMasterClocks += int64(n)
	c.checkScanlineEdge()
}

// catchUpAudio steps the audio CPU forward until its cumulative clock budget is no
// longer behind the main CPU's, per the ratio test described above.
func (c *Console) catchUpAudio() {
	for c.audioBehindMain() {
		c.Audio.Step(c.audioBus)
	}
}

func (c *Console) audioBehindMain() bool {
	// apuMasterClocks/audioClockHz < totalMasterClocks/mainClockHz
	// cross-multiplied:  apuMasterClocks*mainClockHz < totalMasterClocks*audioClockHz
	lhs := new(big.Int).Mul(big.NewInt(c.apuMasterClocks), big.NewInt(mainClockHz))
	rhs := new(big.Int).Mul(big.NewInt(c.totalMasterClocks), big.NewInt(audioClockHz))
	return lhs.Cmp(rhs) < 0
}

// audioMemoryCycle is called by the audio bus adaptor on every access the audio CPU
// makes; it advances the audio CPU's own clock budget and, every audioCyclesPerSample
// cycles, generates one DSP sample and appends it to the drainable output queue.
func (c *Console) audioMemoryCycle() {
	c.apuMasterClocks++
	c.audioSampleCycles++
	if c.audioSampleCycles < audioCyclesPerSample {
		return
	}
	c.audioSampleCycles = 0
	left, right := c.DSP.GenerateSample(c.audioRAM[:], c.onAudioOverflow)
	c.audioSamples = append(c.audioSamples, Sample{Left: left, Right: right})
}

// onAudioOverflow is the DSP's clamp-and-report callback for an out-of-range
// intermediate sample. Per the audio-sample-overflow error classification this is not
// treated as a failure, so the DSP's own clamping stands; this only emits the leveled
// log line SPEC_FULL.md §7 calls for, grounded on audio_chip.go's log.Printf idiom for
// an out-of-band condition that is a warning, not an operation failure.
func (c *Console) onAudioOverflow(value float32) {
	log.Printf("[WARN] audio: DSP sample overflow, clamped from %f", value)
}

// checkVblankEdge raises an NMI on the false-to-true transition of the picture
// generator's vblank flag, consulting the router's latched NMI-enable bit exactly as
// real hardware gates NMI delivery on bit 7 of 0x4200.
func (c *Console) checkVblankEdge() {
	vblank := c.PPU.Vblank()
	if vblank && !c.lastVblank {
		c.DMA.InitHDMA()
		if c.Router.NMIEnabled() {
			c.CPU.OnNMI(c.mainBus)
		}
	}
	c.lastVblank = vblank
}

// checkScanlineEdge detects the picture generator crossing onto a new scanline and
// runs that line's horizontal-blank HDMA work for every enabled channel, per spec.md
// §4.5's per-scanline HDMA cadence and the §5 invariant that HDMA transfers occur at
// scanline boundaries the picture generator itself determines. Grounded on
// checkVblankEdge's latched-previous-value edge detection immediately above, the same
// idiom applied to the finer-grained scanline counter instead of the vblank flag.
func (c *Console) checkScanlineEdge() {
	line := c.PPU.CurrentScanline()
	if line != c.lastScanline {
		c.DMA.RunHDMAScanline(c.dmaBus)
		c.lastScanline = line
	}
}
