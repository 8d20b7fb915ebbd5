// sprite.go - per-scanline sprite pre-resolution.

/*
sprite.go implements the sprite half of spec.md §4.4: iterate the 128 OAM entries,
find every sprite whose vertical band covers the target scanline, decode its tile row
(at tile-row granularity for h/v flips) and write into the four priority-indexed
scratch buffers the compositor reads back while producing pixels for that scanline.
Grounded on the design note that the sprite scanline buffer (256 x 4 priority x
optional color) is persistent scratch cleared at scanline start.
*/
package ppu

// resolveSpritesForScanline fills p.priorityBuffers for the given scanline, iterating
// OAM entries 0..127 in order so that, within a priority level, earlier sprites occupy
// foreground.
func (p *PPU) resolveSpritesForScanline(line int) {
	for x := range p.priorityBuffers {
		p.priorityBuffers[x] = [4]spritePixel{}
	}

	for i := range p.OAM {
		s := &p.OAM[i]
		size := p.SpriteSizeSmall
		if s.SizeSelect != 0 {
			size = p.SpriteSizeLarge
		}
		rowInSprite := line - int(s.Y)
		if rowInSprite < 0 || rowInSprite >= size {
			continue
		}
		spriteRow := rowInSprite
		if s.VFlip {
			spriteRow = size - 1 - rowInSprite
		}
		tilesPerSide := size / 8
		tileRow := spriteRow / 8
		fineY := spriteRow % 8

		for tileCol := 0; tileCol < tilesPerSide; tileCol++ {
			col := tileCol
			if s.HFlip {
				col = tilesPerSide - 1 - tileCol
			}
			charIndex := int(s.TileIndex) + tileRow*16 + col
			charBase := p.SpriteCharBase[s.NameTable&1]
			row := p.decodeCharacterRow(charBase+uint16(4*charIndex), 4, fineY)
			if s.HFlip {
				row[0], row[7] = row[7], row[0]
				row[1], row[6] = row[6], row[1]
				row[2], row[5] = row[5], row[2]
				row[3], row[4] = row[4], row[3]
			}
			for px := 0; px < 8; px++ {
				screenX := int(s.X) + tileCol*8 + px
				if screenX < 0 || screenX >= 256 {
					continue
				}
				index := row[px]
				if index == 0 {
					continue
				}
				if p.priorityBuffers[screenX][s.Priority].hasPixel {
					continue
				}
				color, _ := p.paletteColor(4, 8+s.Palette, index)
				p.priorityBuffers[screenX][s.Priority] = spritePixel{color: color, palette: s.Palette, hasPixel: true}
			}
		}
	}
}
