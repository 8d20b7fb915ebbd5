package savestate

import (
	"bytes"
	"testing"

	"github.com/hiraeth-systems/consolecore/internal/console"
)

func newTestConsole() *console.Console {
	data := make([]byte, 0x10000)
	for i := range data {
		data[i] = 0xEA
	}
	data[0x7FFC], data[0x7FFD] = 0x00, 0x80
	return console.New(data)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestConsole()
	for i := 0; i < 1000; i++ {
		c.StepInstruction()
	}
	c.Mailbox.WriteToAudio(0, 0x7E)
	c.Router.WriteByte(0x7E1234, 0x55)

	var buf bytes.Buffer
	if err := Encode(&buf, c.Snapshot()); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	restored, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	c2 := newTestConsole()
	if err := c2.Restore(restored); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if c2.CPU.PC != c.CPU.PC || c2.CPU.A != c.CPU.A {
		t.Fatalf("CPU state mismatch after round trip: got PC=%#x A=%#x, want PC=%#x A=%#x",
			c2.CPU.PC, c2.CPU.A, c.CPU.PC, c.CPU.A)
	}
	if c2.Router.WRAM()[0x1234] != 0x55 {
		t.Fatalf("WRAM byte not restored")
	}
	if c2.Mailbox.ReadFromMain(0) != 0x7E {
		t.Fatalf("mailbox byte not restored")
	}
}

func TestSaveLoadFile(t *testing.T) {
	c := newTestConsole()
	for i := 0; i < 500; i++ {
		c.StepInstruction()
	}
	path := t.TempDir() + "/state.sav"
	if err := SaveToFile(c, path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	c2 := newTestConsole()
	if err := LoadFromFile(c2, path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c2.CPU.PC != c.CPU.PC {
		t.Fatalf("PC mismatch after file round trip: got %#x want %#x", c2.CPU.PC, c.CPU.PC)
	}
}
