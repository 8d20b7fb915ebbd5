// state.go - exported snapshot of picture-generator state, for internal/savestate.

/*
State mirrors every field of PPU that is not purely a same-frame scratch cache
(priorityBuffers is rebuilt every scanline from OAM and is deliberately excluded, per
the design note that savestates capture architectural state, not derived caches).
Grounded on debug_snapshot.go's register/memory split, generalised to this core's
richer register set.
*/
package ppu

// State is the serializable snapshot of a PPU's full internal state.
type State struct {
	VRAM         [0x10000]byte
	CGRAM        [256]uint16
	OAM          [128]Sprite
	OAMExtension [32]byte

	Backgrounds [4]backgroundState
	Windows     [2]Window

	SpriteCharBase  [2]uint16
	SpriteSizeSmall int
	SpriteSizeLarge int

	Mode7A, Mode7B, Mode7C, Mode7D int16
	Mode7CenterX, Mode7CenterY     int16
	Mode7HOffset, Mode7VOffset     int16
	Mode7Fill                      Mode7Fill

	Mode byte

	Brightness  byte
	ForcedBlank bool
	MosaicSize  byte

	MainScreenColorMathEnable [4]bool
	SubScreenColorMathEnable  bool
	ColorMathOp               ColorMathOp
	ColorMathHalf             bool
	FixedColor                uint16
	ClipToBlackMode           byte
	PreventMathMode           byte

	Regs registerState

	DotCounter     int
	InterlaceField bool
	Vblank         bool

	ScreenBuffer [visibleHeight][visibleWidth]uint16
}

// backgroundState carries a Background's exported fields plus the small pieces of
// per-scanline latch state (mosaic vertical latch) worth preserving across a save;
// the pixel FIFO itself is transient scratch space, rebuilt every scanline.
type backgroundState struct {
	TileSize16      bool
	MosaicEnable    bool
	HOffset, VOffset uint16
	TilemapBase     uint16
	CharBase        uint16
	NumHorzTilemaps int
	NumVertTilemaps int
	MainScreenEnable bool
	SubScreenEnable  bool
	Window1Mask      bool
	Window2Mask      bool
	WindowCombine    WindowCombine
	WindowInvert     bool
	MosaicVLatch     int
}

// Snapshot captures the full picture-generator state.
func (p *PPU) Snapshot() State {
	s := State{
		VRAM:                      p.VRAM,
		CGRAM:                     p.CGRAM,
		OAM:                       p.OAM,
		OAMExtension:              p.OAMExtension,
		Windows:                   p.Windows,
		SpriteCharBase:            p.SpriteCharBase,
		SpriteSizeSmall:           p.SpriteSizeSmall,
		SpriteSizeLarge:           p.SpriteSizeLarge,
		Mode7A:                    p.Mode7A,
		Mode7B:                    p.Mode7B,
		Mode7C:                    p.Mode7C,
		Mode7D:                    p.Mode7D,
		Mode7CenterX:              p.Mode7CenterX,
		Mode7CenterY:              p.Mode7CenterY,
		Mode7HOffset:              p.Mode7HOffset,
		Mode7VOffset:              p.Mode7VOffset,
		Mode7Fill:                 p.Mode7Fill,
		Mode:                      p.Mode,
		Brightness:                p.Brightness,
		ForcedBlank:               p.ForcedBlank,
		MosaicSize:                p.MosaicSize,
		MainScreenColorMathEnable: p.MainScreenColorMathEnable,
		SubScreenColorMathEnable:  p.SubScreenColorMathEnable,
		ColorMathOp:               p.ColorMathOp,
		ColorMathHalf:             p.ColorMathHalf,
		FixedColor:                p.FixedColor,
		ClipToBlackMode:           p.ClipToBlackMode,
		PreventMathMode:           p.PreventMathMode,
		Regs:                      p.regs,
		DotCounter:                p.dotCounter,
		InterlaceField:            p.interlaceField,
		Vblank:                    p.vblank,
		ScreenBuffer:              p.screenBuffer,
	}
	for i := range p.Backgrounds {
		b := &p.Backgrounds[i]
		s.Backgrounds[i] = backgroundState{
			TileSize16:       b.TileSize16,
			MosaicEnable:     b.MosaicEnable,
			HOffset:          b.HOffset,
			VOffset:          b.VOffset,
			TilemapBase:      b.TilemapBase,
			CharBase:         b.CharBase,
			NumHorzTilemaps:  b.NumHorzTilemaps,
			NumVertTilemaps:  b.NumVertTilemaps,
			MainScreenEnable: b.MainScreenEnable,
			SubScreenEnable:  b.SubScreenEnable,
			Window1Mask:      b.Window1Mask,
			Window2Mask:      b.Window2Mask,
			WindowCombine:    b.WindowCombine,
			WindowInvert:     b.WindowInvert,
			MosaicVLatch:     b.mosaicVLatch,
		}
	}
	return s
}

// Restore replaces the picture generator's state wholesale from a snapshot. Pixel
// FIFOs are cleared rather than restored, matching onScanlineStart's own per-scanline
// reset of the same state.
func (p *PPU) Restore(s State) {
	p.VRAM = s.VRAM
	p.CGRAM = s.CGRAM
	p.OAM = s.OAM
	p.OAMExtension = s.OAMExtension
	p.Windows = s.Windows
	p.SpriteCharBase = s.SpriteCharBase
	p.SpriteSizeSmall = s.SpriteSizeSmall
	p.SpriteSizeLarge = s.SpriteSizeLarge
	p.Mode7A, p.Mode7B, p.Mode7C, p.Mode7D = s.Mode7A, s.Mode7B, s.Mode7C, s.Mode7D
	p.Mode7CenterX, p.Mode7CenterY = s.Mode7CenterX, s.Mode7CenterY
	p.Mode7HOffset, p.Mode7VOffset = s.Mode7HOffset, s.Mode7VOffset
	p.Mode7Fill = s.Mode7Fill
	p.Mode = s.Mode
	p.Brightness = s.Brightness
	p.ForcedBlank = s.ForcedBlank
	p.MosaicSize = s.MosaicSize
	p.MainScreenColorMathEnable = s.MainScreenColorMathEnable
	p.SubScreenColorMathEnable = s.SubScreenColorMathEnable
	p.ColorMathOp = s.ColorMathOp
	p.ColorMathHalf = s.ColorMathHalf
	p.FixedColor = s.FixedColor
	p.ClipToBlackMode = s.ClipToBlackMode
	p.PreventMathMode = s.PreventMathMode
	p.regs = s.Regs
	p.dotCounter = s.DotCounter
	p.interlaceField = s.InterlaceField
	p.vblank = s.Vblank
	p.screenBuffer = s.ScreenBuffer
	for i := range p.Backgrounds {
		b := s.Backgrounds[i]
		p.Backgrounds[i] = Background{
			TileSize16:       b.TileSize16,
			MosaicEnable:     b.MosaicEnable,
			HOffset:          b.HOffset,
			VOffset:          b.VOffset,
			TilemapBase:      b.TilemapBase,
			CharBase:         b.CharBase,
			NumHorzTilemaps:  b.NumHorzTilemaps,
			NumVertTilemaps:  b.NumVertTilemaps,
			MainScreenEnable: b.MainScreenEnable,
			SubScreenEnable:  b.SubScreenEnable,
			Window1Mask:      b.Window1Mask,
			Window2Mask:      b.Window2Mask,
			WindowCombine:    b.WindowCombine,
			WindowInvert:     b.WindowInvert,
			mosaicVLatch:     b.MosaicVLatch,
		}
	}
}
