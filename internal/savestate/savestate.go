// savestate.go - whole-machine save/load (C9).

/*
savestate.go serializes a console.State into a framed, gzip-per-section file and back.
Grounded on debug_snapshot.go's magic/version/length-prefixed binary framing, generalized
from that file's single CPU-registers-plus-memory section into one section per major
component so that compression work can run in parallel across sections via
golang.org/x/sync/errgroup, the same parallel-fan-out library the rest of this corpus
reaches for. Section payloads use encoding/gob rather than debug_snapshot.go's
hand-rolled binary.Write framing, since every payload here is this module's own Go
struct rather than a cross-language wire format that needs an exact byte layout.
*/
package savestate

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/hiraeth-systems/consolecore/internal/console"
)

const (
	magic          = "SCSS" // "Synchronizer Console Save State"
	formatVersion  = 1
)

// miscState bundles the handful of small scalar fields that do not warrant a section
// of their own.
type miscState struct {
	DSPAddr           byte
	AudioROMMapped    bool
	NMIEnabled        bool
	AutoJoyRead       bool
	LastBusValue      byte
	TotalMasterClocks int64
	ApuMasterClocks   int64
	AudioSampleCycles int
	LastVblank        bool
	LastScanline      int
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Encode writes a full machine snapshot to w.
func Encode(w io.Writer, s console.State) error {
	misc := miscState{
		DSPAddr: s.DSPAddr, AudioROMMapped: s.AudioROMMapped,
		NMIEnabled: s.NMIEnabled, AutoJoyRead: s.AutoJoyRead,
		LastBusValue: s.LastBusValue, TotalMasterClocks: s.TotalMasterClocks,
		ApuMasterClocks: s.ApuMasterClocks, AudioSampleCycles: s.AudioSampleCycles,
		LastVblank: s.LastVblank, LastScanline: s.LastScanline,
	}

	names := []string{"CPU", "AUDIO", "PPU", "DSP", "DMA", "MATH", "MAIL", "WRAM", "SRAM", "AUDIORAM", "MISC"}
	values := []any{s.CPU, s.Audio, s.PPU, s.DSP, s.DMA, s.Math, s.Mail, s.WRAM, s.SRAM, s.AudioRAM, misc}

	raw := make([][]byte, len(values))
	for i, v := range values {
		b, err := gobEncode(v)
		if err != nil {
			return fmt.Errorf("savestate: encoding section %s: %w", names[i], err)
		}
		raw[i] = b
	}

	compressed := make([][]byte, len(raw))
	var g errgroup.Group
	for i := range raw {
		i := i
		g.Go(func() error {
			var buf bytes.Buffer
			gz := gzip.NewWriter(&buf)
			if _, err := gz.Write(raw[i]); err != nil {
				return fmt.Errorf("compressing section %s: %w", names[i], err)
			}
			if err := gz.Close(); err != nil {
				return fmt.Errorf("closing gzip for section %s: %w", names[i], err)
			}
			compressed[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(formatVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(names))); err != nil {
		return err
	}
	for i, name := range names {
		if err := writeFrame(w, name, raw[i], compressed[i]); err != nil {
			return fmt.Errorf("savestate: writing section %s: %w", name, err)
		}
	}
	return nil
}

func writeFrame(w io.Writer, name string, raw, compressed []byte) error {
	nameBytes := []byte(name)
	if _, err := w.Write([]byte{byte(len(nameBytes))}); err != nil {
		return err
	}
	if _, err := w.Write(nameBytes); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(raw))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(compressed))); err != nil {
		return err
	}
	_, err := w.Write(compressed)
	return err
}

type frame struct {
	name       string
	rawLen     uint32
	compressed []byte
}

func readFrame(r io.Reader) (frame, error) {
	var nameLen [1]byte
	if _, err := io.ReadFull(r, nameLen[:]); err != nil {
		return frame{}, err
	}
	name := make([]byte, nameLen[0])
	if _, err := io.ReadFull(r, name); err != nil {
		return frame{}, err
	}
	var rawLen, compLen uint32
	if err := binary.Read(r, binary.LittleEndian, &rawLen); err != nil {
		return frame{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &compLen); err != nil {
		return frame{}, err
	}
	compressed := make([]byte, compLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return frame{}, err
	}
	return frame{name: string(name), rawLen: rawLen, compressed: compressed}, nil
}

// Decode reads a full machine snapshot from r.
func Decode(r io.Reader) (console.State, error) {
	var s console.State

	gotMagic := make([]byte, len(magic))
	if _, err := io.ReadFull(r, gotMagic); err != nil {
		return s, fmt.Errorf("savestate: reading magic: %w", err)
	}
	if string(gotMagic) != magic {
		return s, fmt.Errorf("savestate: bad magic %q", gotMagic)
	}
	var version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return s, fmt.Errorf("savestate: reading version: %w", err)
	}
	if version != formatVersion {
		return s, fmt.Errorf("savestate: unsupported format version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return s, fmt.Errorf("savestate: reading section count: %w", err)
	}

	frames := make([]frame, count)
	for i := range frames {
		f, err := readFrame(r)
		if err != nil {
			return s, fmt.Errorf("savestate: reading section %d: %w", i, err)
		}
		frames[i] = f
	}

	decompressed := make([][]byte, len(frames))
	var g errgroup.Group
	for i := range frames {
		i := i
		g.Go(func() error {
			gz, err := gzip.NewReader(bytes.NewReader(frames[i].compressed))
			if err != nil {
				return fmt.Errorf("opening gzip reader for section %s: %w", frames[i].name, err)
			}
			defer gz.Close()
			raw := make([]byte, frames[i].rawLen)
			if _, err := io.ReadFull(gz, raw); err != nil {
				return fmt.Errorf("decompressing section %s: %w", frames[i].name, err)
			}
			decompressed[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s, err
	}

	var misc miscState
	for i, f := range frames {
		var err error
		switch f.name {
		case "CPU":
			err = gobDecode(decompressed[i], &s.CPU)
		case "AUDIO":
			err = gobDecode(decompressed[i], &s.Audio)
		case "PPU":
			err = gobDecode(decompressed[i], &s.PPU)
		case "DSP":
			err = gobDecode(decompressed[i], &s.DSP)
		case "DMA":
			err = gobDecode(decompressed[i], &s.DMA)
		case "MATH":
			err = gobDecode(decompressed[i], &s.Math)
		case "MAIL":
			err = gobDecode(decompressed[i], &s.Mail)
		case "WRAM":
			err = gobDecode(decompressed[i], &s.WRAM)
		case "SRAM":
			err = gobDecode(decompressed[i], &s.SRAM)
		case "AUDIORAM":
			err = gobDecode(decompressed[i], &s.AudioRAM)
		case "MISC":
			err = gobDecode(decompressed[i], &misc)
		default:
			err = fmt.Errorf("unknown section %q", f.name)
		}
		if err != nil {
			return s, fmt.Errorf("savestate: decoding section %s: %w", f.name, err)
		}
	}

	s.DSPAddr = misc.DSPAddr
	s.AudioROMMapped = misc.AudioROMMapped
	s.NMIEnabled = misc.NMIEnabled
	s.AutoJoyRead = misc.AutoJoyRead
	s.LastBusValue = misc.LastBusValue
	s.TotalMasterClocks = misc.TotalMasterClocks
	s.ApuMasterClocks = misc.ApuMasterClocks
	s.AudioSampleCycles = misc.AudioSampleCycles
	s.LastVblank = misc.LastVblank
	s.LastScanline = misc.LastScanline
	return s, nil
}

// SaveToFile writes a console's current state to path.
func SaveToFile(c *console.Console, path string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, c.Snapshot()); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadFromFile restores a console's state from path.
func LoadFromFile(c *console.Console, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return c.Restore(s)
}
