// background.go - tilemap/character decode and per-background pixel FIFO refill.

/*
background.go implements the tile-mode (0-5) pixel pipeline from spec.md §4.4: for each
background whose FIFO has run dry, resolve the effective scrolled position modulo 512
(mirroring across 1 or 2 tilemaps on each axis), read the 16-bit tilemap entry, decode
the referenced character data at the appropriate bit depth, and push 8 pixels, applying
horizontal/vertical flip and discarding the first x%8 pixels on the very first refill.
*/
package ppu

// bppForMode returns the bit depth used by background index bg (0-3) in the given
// screen mode, per the SNES mode table; mode 7 is handled separately.
func bppForMode(mode byte, bg int) int {
	switch mode {
	case 0:
		return 2
	case 1:
		if bg == 2 {
			return 2
		}
		return 4
	case 2, 3, 4, 5:
		if bg == 0 {
			if mode == 3 || mode == 4 {
				return 8
			}
			return 4
		}
		if mode == 2 || mode == 3 {
			return 4
		}
		return 2
	default:
		return 4
	}
}

// tilemapEntry is the 16-bit word spec.md §4.4/glossary describes: tile index (10 bits),
// palette index (3 bits), priority (1 bit), h-flip (1 bit), v-flip (1 bit).
type tilemapEntry struct {
	tileIndex int
	palette   byte
	priority  bool
	hFlip     bool
	vFlip     bool
}

func decodeTilemapEntry(word uint16) tilemapEntry {
	return tilemapEntry{
		tileIndex: int(word & 0x03FF),
		palette:   byte((word >> 10) & 0x07),
		priority:  word&0x2000 != 0,
		hFlip:     word&0x4000 != 0,
		vFlip:     word&0x8000 != 0,
	}
}

// scrolledPosition resolves (x+hoff, y+voff) mod 512 for the background.
func scrolledPosition(bg *Background, x, y int) (int, int) {
	sx := (x + int(bg.HOffset)) & 0x1FF
	sy := (y + int(bg.VOffset)) & 0x1FF
	return sx, sy
}

// tilemapWordAddress computes the VRAM word address of the tilemap entry covering tile
// coordinate (tileX, tileY), mirroring across 1 or 2 32-tile tilemaps per axis.
func tilemapWordAddress(bg *Background, tileX, tileY int) uint16 {
	mapX := tileX / 32 % bg.NumHorzTilemaps
	mapY := tileY / 32 % bg.NumVertTilemaps
	localX := tileX % 32
	localY := tileY % 32
	mapIndex := mapY*bg.NumHorzTilemaps + mapX
	base := bg.TilemapBase + uint16(mapIndex)*0x0400
	return base + uint16(localY*32+localX)
}

// decodeCharacterRow reads one 8-pixel row of a character at the given bit depth and
// fine-Y offset, returning palette-index pixels (0 = transparent in indexed color).
func (p *PPU) decodeCharacterRow(charWordAddr uint16, bpp int, fineY int) [8]byte {
	var row [8]byte
	tileByteAddr := charWordAddr*2 + uint16(fineY*2)
	switch bpp {
	case 2:
		lo := p.VRAM[tileByteAddr]
		hi := p.VRAM[tileByteAddr+1]
		for bit := 0; bit < 8; bit++ {
			shift := uint(7 - bit)
			row[bit] = (lo>>shift)&1 | ((hi>>shift)&1)<<1
		}
	case 4:
		lo := p.VRAM[tileByteAddr]
		hi := p.VRAM[tileByteAddr+1]
		lo2 := p.VRAM[tileByteAddr+16]
		hi2 := p.VRAM[tileByteAddr+17]
		for bit := 0; bit < 8; bit++ {
			shift := uint(7 - bit)
			row[bit] = (lo>>shift)&1 | ((hi>>shift)&1)<<1 | ((lo2>>shift)&1)<<2 | ((hi2>>shift)&1)<<3
		}
	case 8:
		planes := [8]byte{}
		for plane := 0; plane < 8; plane++ {
			planes[plane] = p.VRAM[tileByteAddr+uint16(plane/2)*16+uint16(plane%2)]
		}
		for bit := 0; bit < 8; bit++ {
			shift := uint(7 - bit)
			var v byte
			for plane := 0; plane < 8; plane++ {
				v |= ((planes[plane] >> shift) & 1) << uint(plane)
			}
			row[bit] = v
		}
	}
	return row
}

// paletteColor resolves a decoded index through CGRAM at the given palette slot.
func (p *PPU) paletteColor(bpp int, palette byte, index byte) (uint16, bool) {
	if index == 0 {
		return 0, true
	}
	var base int
	switch bpp {
	case 2:
		base = int(palette) * 4
	case 4:
		base = int(palette) * 16
	default:
		base = 0
	}
	idx := base + int(index)
	if idx >= len(p.CGRAM) {
		idx %= len(p.CGRAM)
	}
	return p.CGRAM[idx], false
}

// refillBackgroundFIFO pushes the next 8 (or fewer, on the very first refill) pixels
// into bg's FIFO for the given background index and scanline, per spec.md §4.4.
func (p *PPU) refillBackgroundFIFO(bgIndex int, y int, firstRefill bool, startX int) {
	bg := &p.Backgrounds[bgIndex]
	bpp := bppForMode(p.Mode, bgIndex)
	tileDim := 8
	if bg.TileSize16 {
		tileDim = 16
	}
	sx, sy := scrolledPosition(bg, startX, y)
	tileX := sx / tileDim
	tileY := sy / tileDim
	entryWord := p.ReadVRAMWord(tilemapWordAddress(bg, tileX, tileY))
	entry := decodeTilemapEntry(entryWord)

	fineY := sy % tileDim
	if entry.vFlip {
		fineY = tileDim - 1 - fineY
	}
	charIndex := entry.tileIndex
	if bg.TileSize16 {
		charIndex += (fineY / 8) * 16
		fineY %= 8
	}
	charWordAddr := bg.CharBase + uint16(bpp*charIndex*4)
	row := p.decodeCharacterRow(charWordAddr, bpp, fineY)
	if entry.hFlip {
		row[0], row[7] = row[7], row[0]
		row[1], row[6] = row[6], row[1]
		row[2], row[5] = row[5], row[2]
		row[3], row[4] = row[4], row[3]
	}

	skip := 0
	if firstRefill {
		skip = startX % 8
	}
	for i := skip; i < 8; i++ {
		color, transparent := p.paletteColor(bpp, entry.palette, row[i])
		bg.fifo.push(fifoPixel{color: color, priority: entry.priority, transparent: transparent})
	}
}
