// console_test.go - synchronizer-level tests: audio-budget pacing and vblank/NMI wiring.

package console

import "testing"

// newTestConsole builds a minimal cartridge image: every byte is a 65C816 NOP (0xEA)
// except the reset vector (pointing at 0x8000) and the emulation-mode NMI vector
// (pointing at 0x9000), so the main CPU runs an endless stream of NOPs that the
// synchronizer can freely interrupt.
func newTestConsole() *Console {
	data := make([]byte, 0x10000)
	for i := range data {
		data[i] = 0xEA
	}
	data[0x7FFC] = 0x00 // reset vector low -> 0x8000
	data[0x7FFD] = 0x80
	data[0x7FFA] = 0x00 // emulation-mode NMI vector low -> 0x9000
	data[0x7FFB] = 0x90
	return New(data)
}

func TestResetLoadsProgramCounterFromVector(t *testing.T) {
	c := newTestConsole()
	if c.CPU.PC != 0x8000 {
		t.Fatalf("PC after reset = %#x, want 0x8000", c.CPU.PC)
	}
	if !c.CPU.E {
		t.Fatalf("CPU should start in emulation mode")
	}
}

func TestVblankEdgeDeliversNMI(t *testing.T) {
	c := newTestConsole()
	c.Router.WriteByte(0x004200, 0x80) // enable NMI

	const maxInstructions = 2_000_000
	for i := 0; i < maxInstructions; i++ {
		c.StepInstruction()
		if c.PPU.Vblank() {
			if c.CPU.PC != 0x9000 {
				t.Fatalf("PC at vblank edge = %#x, want NMI vector target 0x9000", c.CPU.PC)
			}
			return
		}
	}
	t.Fatalf("vblank never entered within %d instructions", maxInstructions)
}

func TestAudioCPUStepsToKeepPace(t *testing.T) {
	c := newTestConsole()
	for i := 0; i < 5000; i++ {
		c.StepInstruction()
	}
	if c.apuMasterClocks == 0 {
		t.Fatalf("audio CPU never stepped to catch up with the main CPU's clock budget")
	}
}

func TestDrainAudioSamplesClearsQueue(t *testing.T) {
	c := newTestConsole()
	for i := 0; i < 50000; i++ {
		c.StepInstruction()
	}
	samples := c.DrainAudioSamples()
	if len(samples) == 0 {
		t.Fatalf("expected at least one generated audio sample")
	}
	if len(c.DrainAudioSamples()) != 0 {
		t.Fatalf("a second drain immediately after the first should be empty")
	}
}

func TestMailboxRoundTripsBetweenMainAndAudioSides(t *testing.T) {
	c := newTestConsole()
	c.Mailbox.WriteToAudio(0, 0x42)
	if got := c.Mailbox.ReadFromMain(0); got != 0x42 {
		t.Fatalf("audio side read %#x, want 0x42", got)
	}
	c.Mailbox.WriteToMain(1, 0x99)
	if got := c.Mailbox.ReadFromAudio(1); got != 0x99 {
		t.Fatalf("main side read %#x, want 0x99", got)
	}
}
