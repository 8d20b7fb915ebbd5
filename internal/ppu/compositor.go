// compositor.go - per-pixel compositing, mode-7 affine transform, windows, color math.

/*
compositor.go implements renderPixel, the per-(x,y) heart of spec.md §4.4: compute both
windows' inside/outside booleans, refill empty background FIFOs for the active mode,
resolve mode 7's affine transform when Mode==7, search main/sub screen layers in
mode-specific priority order for the first non-transparent enabled entry, apply color
math when the main-screen layer enables it, and write the final 15-bit color to the
screen buffer. Grounded on video_compositor.go's "composite down to one pixel per call"
idiom; the priority-order and blend-mode details are taken directly from spec.md §4.4.
*/
package ppu

// windowInside reports whether x falls inside window w's [Left, Right] span.
func windowInside(w *Window, x int) bool {
	if !w.Enabled {
		return false
	}
	return x >= int(w.Left) && x <= int(w.Right)
}

// layerWindowMasked combines the two window insideness booleans per bg's policy and
// reports whether the layer should be masked (hidden) at x.
func (p *PPU) layerWindowMasked(bg *Background, x int) bool {
	if !bg.Window1Mask && !bg.Window2Mask {
		return false
	}
	in1 := bg.Window1Mask && windowInside(&p.Windows[0], x)
	in2 := bg.Window2Mask && windowInside(&p.Windows[1], x)
	var inside bool
	switch bg.WindowCombine {
	case CombineOR:
		inside = in1 || in2
	case CombineAND:
		inside = in1 && in2
	case CombineXOR:
		inside = in1 != in2
	case CombineXNOR:
		inside = in1 == in2
	}
	if bg.WindowInvert {
		inside = !inside
	}
	return inside
}

// activeBackgroundCount returns how many of the four background layers screen mode m
// actually uses.
func activeBackgroundCount(m byte) int {
	switch m {
	case 0:
		return 4
	case 1:
		return 3
	case 2, 3, 4, 5:
		return 2
	default:
		return 0
	}
}

func (p *PPU) renderPixel(x, y int) {
	if p.ForcedBlank {
		p.screenBuffer[y][x] = 0
		return
	}

	if p.Mode == 7 {
		p.renderMode7Pixel(x, y)
		return
	}

	count := activeBackgroundCount(p.Mode)
	for i := 0; i < count; i++ {
		bg := &p.Backgrounds[i]
		if bg.fifo.count == 0 {
			startX := x
			if bg.MosaicEnable {
				startX = x - x%(int(p.MosaicSize)+1)
			}
			p.refillBackgroundFIFO(i, y, !bg.firstRefillDone, startX)
			bg.firstRefillDone = true
		}
	}

	var bgPixels [4]fifoPixel
	for i := 0; i < count; i++ {
		if px, ok := p.Backgrounds[i].fifo.pop(); ok {
			bgPixels[i] = px
		} else {
			bgPixels[i] = fifoPixel{transparent: true}
		}
	}

	mainColor, mainFound := p.searchLayers(bgPixels, count, x, true)
	subColor, subFound := p.searchLayers(bgPixels, count, x, false)

	final := mainColor
	if !mainFound {
		final = 0
	}

	if mainFound && p.mathEnabledForLayer(bgPixels, count, x) {
		clipOutside := p.ClipToBlackMode == 1 && !p.anyWindowInside(x)
		clipInside := p.ClipToBlackMode == 2 && p.anyWindowInside(x)
		clipAlways := p.ClipToBlackMode == 3
		if clipOutside || clipInside || clipAlways {
			final = 0
		}
		var operand uint16
		if p.SubScreenColorMathEnable && subFound {
			operand = subColor
		} else {
			operand = p.FixedColor
		}
		final = blendColor(final, operand, p.ColorMathOp)
	}

	p.screenBuffer[y][x] = final
}

func (p *PPU) anyWindowInside(x int) bool {
	return windowInside(&p.Windows[0], x) || windowInside(&p.Windows[1], x)
}

// mathEnabledForLayer reports whether the layer that produced the main-screen pixel at
// x has color math enabled, per spec.md's "if main-screen layer enables it" rule.
func (p *PPU) mathEnabledForLayer(bgPixels [4]fifoPixel, count int, x int) bool {
	for priority := 3; priority >= 0; priority-- {
		for i := 0; i < count; i++ {
			bg := &p.Backgrounds[i]
			if !bg.MainScreenEnable || p.layerWindowMasked(bg, x) {
				continue
			}
			px := bgPixels[i]
			if px.transparent || px.priority != (priority != 0) {
				continue
			}
			return p.MainScreenColorMathEnable[i]
		}
	}
	return false
}

// searchLayers walks the high-priority tier then the low-priority tier, checking the
// sprite priority buffers before the backgrounds within each tier, and returns the first
// non-transparent entry (backgrounds must be enabled on the requested screen). Sprite
// priorities 2-3 are treated as interleaving above the background high-priority tier and
// 0-1 above the low-priority tier, a simplification of the full per-mode BG/sprite
// interleave order.
func (p *PPU) searchLayers(bgPixels [4]fifoPixel, count int, x int, mainScreen bool) (uint16, bool) {
	for priority := 1; priority >= 0; priority-- {
		wantPriority := priority != 0
		for spritePriority := 3; spritePriority >= 0; spritePriority-- {
			sp := p.priorityBuffers[x][spritePriority]
			if sp.hasPixel && spritePriority >= 2 == wantPriority {
				return sp.color, true
			}
		}
		for i := 0; i < count; i++ {
			bg := &p.Backgrounds[i]
			enabled := bg.MainScreenEnable
			if !mainScreen {
				enabled = bg.SubScreenEnable
			}
			if !enabled || p.layerWindowMasked(bg, x) {
				continue
			}
			px := bgPixels[i]
			if px.transparent || px.priority != wantPriority {
				continue
			}
			return px.color, true
		}
	}
	return 0, false
}

// blendColor applies one of the four color-math operations component-wise, clamping
// each 5-bit channel, per spec.md §4.4.
func blendColor(a, b uint16, op ColorMathOp) uint16 {
	ar, ag, ab := a&0x1F, (a>>5)&0x1F, (a>>10)&0x1F
	br, bg, bb := b&0x1F, (b>>5)&0x1F, (b>>10)&0x1F

	blend := func(x, y uint16) uint16 {
		switch op {
		case MathAdd:
			return clamp5(x + y)
		case MathAddHalf:
			return clamp5((x + y) / 2)
		case MathSubtract:
			if y > x {
				return 0
			}
			return x - y
		case MathSubtractHalf:
			if y > x {
				return 0
			}
			return (x - y) / 2
		}
		return x
	}
	r := blend(ar, br)
	g := blend(ag, bg)
	bch := blend(ab, bb)
	return r | g<<5 | bch<<10
}

func clamp5(v uint16) uint16 {
	if v > 0x1F {
		return 0x1F
	}
	return v
}

// renderMode7Pixel implements the mode-7 affine transform from spec.md §4.4:
// [X;Y] = M*([x;y]-center) + center + [h_off;v_off], with 8.8 fixed-point matrix entries
// truncated toward -infinity. A coordinate outside the 1024x1024 tile space draws
// character 0 or is transparent, per Mode7Fill; the tile space does not repeat.
func (p *PPU) renderMode7Pixel(x, y int) {
	dx := int32(x) - int32(p.Mode7CenterX)
	dy := int32(y) - int32(p.Mode7CenterY)

	mulShift := func(m int16, v int32) int32 {
		return floorDiv(int64(m)*int64(v), 256)
	}

	tx := mulShift(p.Mode7A, dx) + mulShift(p.Mode7B, dy) + int32(p.Mode7CenterX) + int32(p.Mode7HOffset)
	ty := mulShift(p.Mode7C, dx) + mulShift(p.Mode7D, dy) + int32(p.Mode7CenterY) + int32(p.Mode7VOffset)

	var tileX, tileY int32
	outside := tx < 0 || tx >= 1024 || ty < 0 || ty >= 1024
	if outside {
		tileX, tileY = 0, 0
	} else {
		tileX, tileY = tx&1023, ty&1023
	}

	if outside && p.Mode7Fill == Mode7FillTransparent {
		p.screenBuffer[y][x] = 0
		return
	}

	var index byte
	if !outside || p.Mode7Fill == Mode7FillCharacterZero {
		tileCol := tileX / 8
		tileRow := tileY / 8
		tileWord := p.ReadVRAMWord(uint16(tileRow*128 + tileCol))
		tileIndex := tileWord & 0xFF
		if outside {
			tileIndex = 0
		}
		fineX := tileX % 8
		fineY := tileY % 8
		pixelByteAddr := uint16(tileIndex)*128 + uint16(fineY)*16 + uint16(fineX)*2
		index = p.VRAM[pixelByteAddr+1]
	}
	color, transparent := p.paletteColor(8, 0, index)
	if transparent {
		p.screenBuffer[y][x] = 0
		return
	}
	p.screenBuffer[y][x] = color
}

func floorDiv(a, b int64) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return int32(q)
}
