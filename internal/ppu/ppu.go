// ppu.go - scanline picture generator for the console core.

/*
ppu.go implements the picture generator (C4): master-clock-driven dot/scanline
counters, the register file backing VRAM/CGRAM/OAM and the eight background/window/
mode-7 descriptors, and AdvanceMasterClock, the single entry point the synchronizer
calls after every main-CPU bus access.

Grounded on video_chip.go/video_screen_buffer.go/video_compositor.go's idiom of
splitting "owns the pixel-producing state" from "composites pixels into a frame buffer"
across sibling files (mirrored here as ppu.go/background.go/sprite.go/compositor.go);
algorithmic details (dot/scanline counts, tilemap-entry layout, mode-7 affine formula,
color-math blend modes) are taken directly from spec.md §4.4 since it fully specifies
them and original_source's ppu.rs module tree was used only to cross-check register
offsets, not copied from.
*/
package ppu

const (
	dotsPerScanline   = 341
	scanlinesPerFrame = 262
	masterClocksPerDot = 4
	visibleDotStart   = 22
	visibleWidth      = 256
	visibleHeight     = 240
	vblankLineOverscan = 241
	vblankLineNormal   = 225
)

// WindowCombine names how two window regions combine for a layer's window mask.
type WindowCombine int

const (
	CombineOR WindowCombine = iota
	CombineAND
	CombineXOR
	CombineXNOR
)

// ColorMathOp names the blend operations color math can apply.
type ColorMathOp int

const (
	MathAdd ColorMathOp = iota
	MathAddHalf
	MathSubtract
	MathSubtractHalf
)

// Mode7Fill names what mode 7 draws outside the 1024x1024 tile space; the tile space
// never repeats.
type Mode7Fill int

const (
	Mode7FillCharacterZero Mode7Fill = iota
	Mode7FillTransparent
)

// Background holds one of the four tile-based layer descriptors from spec.md §3.
type Background struct {
	TileSize16        bool
	MosaicEnable       bool
	HOffset, VOffset   uint16
	TilemapBase        uint16 // word address within VRAM
	CharBase           uint16 // word address within VRAM
	NumHorzTilemaps    int    // 1 or 2
	NumVertTilemaps    int    // 1 or 2
	MainScreenEnable   bool
	SubScreenEnable    bool
	Window1Mask        bool
	Window2Mask        bool
	WindowCombine      WindowCombine
	WindowInvert       bool
	mosaicVLatch       int
	fifo               pixelFIFO
	firstRefillDone    bool
}

// Window is one of the two window descriptors from spec.md §3.
type Window struct {
	Enabled    bool
	Left, Right byte
}

// Sprite mirrors one OAM entry plus its extension-table bits, per spec.md §3.
type Sprite struct {
	X          int16 // 9-bit via extension MSB
	Y          byte
	TileIndex  byte
	NameTable  byte // which of the two sprite character tables
	HFlip      bool
	VFlip      bool
	Priority   byte // 0-3
	Palette    byte // 0-7
	SizeSelect byte // 0 or 1, indexes the OBSEL size pair
}

// pixelFIFO is a small fixed-capacity ring buffer of decoded background pixels,
// per the design note that pixel FIFOs stay stack-resident and never grow unbounded.
type pixelFIFO struct {
	entries [16]fifoPixel
	head    int
	count   int
}

type fifoPixel struct {
	color       uint16
	priority    bool
	transparent bool
}

func (f *pixelFIFO) clear() { f.head, f.count = 0, 0 }
func (f *pixelFIFO) push(p fifoPixel) {
	if f.count >= len(f.entries) {
		return
	}
	f.entries[(f.head+f.count)%len(f.entries)] = p
	f.count++
}
func (f *pixelFIFO) pop() (fifoPixel, bool) {
	if f.count == 0 {
		return fifoPixel{}, false
	}
	p := f.entries[f.head]
	f.head = (f.head + 1) % len(f.entries)
	f.count--
	return p, true
}

// PPU holds the full picture-generator state described in spec.md §3.
type PPU struct {
	VRAM  [0x10000]byte
	CGRAM [256]uint16 // 15-bit color entries
	OAM   [128]Sprite
	OAMExtension [32]byte

	Backgrounds [4]Background
	Windows     [2]Window

	SpriteCharBase  [2]uint16 // VRAM word address per nametable half
	SpriteSizeSmall int       // pixel width/height for size-select 0
	SpriteSizeLarge int       // pixel width/height for size-select 1

	Mode7A, Mode7B, Mode7C, Mode7D int16 // 8.8 fixed point
	Mode7CenterX, Mode7CenterY     int16
	Mode7HOffset, Mode7VOffset     int16
	Mode7Fill                      Mode7Fill

	Mode byte // 0-5, 7

	Brightness  byte
	ForcedBlank bool
	MosaicSize  byte

	MainScreenColorMathEnable [4]bool
	SubScreenColorMathEnable  bool
	ColorMathOp               ColorMathOp
	ColorMathHalf             bool
	FixedColor                uint16
	ClipToBlackMode           byte // 0 never,1 outside win,2 inside win,3 everywhere
	PreventMathMode           byte

	regs registerState

	dotCounter int // 0..4*341*262-1
	interlaceField bool

	vblank bool

	screenBuffer [visibleHeight][visibleWidth]uint16

	priorityBuffers [256][4]spritePixel
}

type spritePixel struct {
	color       uint16
	palette     byte
	hasPixel    bool
}

// New returns a freshly reset picture generator.
func New() *PPU {
	p := &PPU{}
	p.Reset()
	return p
}

func (p *PPU) Reset() {
	p.dotCounter = 0
	p.vblank = false
	p.interlaceField = false
	p.ForcedBlank = true
	p.Brightness = 0
	p.SpriteSizeSmall = 8
	p.SpriteSizeLarge = 16
	for i := range p.Backgrounds {
		p.Backgrounds[i].NumHorzTilemaps = 1
		p.Backgrounds[i].NumVertTilemaps = 1
	}
	for y := range p.screenBuffer {
		for x := range p.screenBuffer[y] {
			p.screenBuffer[y][x] = 0
		}
	}
}

// x/y returns the current dot column and scanline from the raw dot counter.
func (p *PPU) x() int { return (p.dotCounter / masterClocksPerDot) % dotsPerScanline }
func (p *PPU) y() int { return (p.dotCounter / masterClocksPerDot / dotsPerScanline) % scanlinesPerFrame }

// Vblank reports whether the generator is currently in vertical blank.
func (p *PPU) Vblank() bool { return p.vblank }

// CurrentScanline reports the scanline the dot counter is presently on, so the
// synchronizer can detect the scanline-boundary edge that drives per-line HDMA.
func (p *PPU) CurrentScanline() int { return p.y() }

// vblankStartLine returns the scanline on which vertical blank begins: 225. No overscan
// setting is modeled (SETINI writes are ignored), so the 241-line overscan start
// (vblankLineOverscan) is never selected.
func (p *PPU) vblankStartLine() int {
	return vblankLineNormal
}

// AdvanceMasterClock advances the dot counter by n master clocks (4 master clocks per
// dot), processing scanline-start and per-pixel work as dot boundaries are crossed.
func (p *PPU) AdvanceMasterClock(n int) {
	total := dotsPerScanline * scanlinesPerFrame * masterClocksPerDot
	for i := 0; i < n; i++ {
		beforeX, beforeY := p.x(), p.y()
		p.dotCounter = (p.dotCounter + 1) % total
		afterX, afterY := p.x(), p.y()
		if afterX == beforeX && afterY == beforeY {
			continue
		}
		if afterX == 0 {
			p.onScanlineStart(afterY)
		}
		if afterX == 0 && afterY == 0 {
			p.vblank = false
			p.interlaceField = !p.interlaceField
		}
		if afterY == p.vblankStartLine() && afterX == 0 {
			p.vblank = true
		}
		if afterX >= visibleDotStart && afterX < visibleDotStart+visibleWidth && afterY < visibleHeight {
			p.renderPixel(afterX-visibleDotStart, afterY)
		}
	}
}

// onScanlineStart clears per-background pixel FIFOs, resolves sprite pixels for the
// previous scanline into the four priority buffers, and advances each background's
// mosaic vertical latch, per spec.md §4.4.
func (p *PPU) onScanlineStart(line int) {
	for i := range p.Backgrounds {
		p.Backgrounds[i].fifo.clear()
		p.Backgrounds[i].firstRefillDone = false
		size := int(p.MosaicSize) + 1
		p.Backgrounds[i].mosaicVLatch = (p.Backgrounds[i].mosaicVLatch + 1) % size
	}
	if line > 0 {
		p.resolveSpritesForScanline(line - 1)
	}
}

// ScreenBuffer returns the 256x240 array of 15-bit color words (b<<10|g<<5|r), per
// spec.md §6's external picture-output interface.
func (p *PPU) ScreenBuffer() [visibleHeight][visibleWidth]uint16 { return p.screenBuffer }

// RGB8 converts a packed 15-bit color word to 8bpc RGB via the spec.md §6 helper:
// shift each 5-bit component left by 3.
func RGB8(color uint16) (r, g, b byte) {
	r = byte(color&0x1F) << 3
	g = byte((color>>5)&0x1F) << 3
	b = byte((color>>10)&0x1F) << 3
	return
}

// WriteVRAMWord/ReadVRAMWord expose the 64KiB VRAM for register-driven access.
func (p *PPU) WriteVRAMWord(wordAddr uint16, value uint16) {
	p.VRAM[wordAddr*2] = byte(value)
	p.VRAM[wordAddr*2+1] = byte(value >> 8)
}

func (p *PPU) ReadVRAMWord(wordAddr uint16) uint16 {
	return uint16(p.VRAM[wordAddr*2]) | uint16(p.VRAM[wordAddr*2+1])<<8
}
