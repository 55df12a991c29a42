//go:build sdl2

package sdl2

import "github.com/veandco/go-sdl2/sdl"

// glyph3x5 encodes a character as 5 rows of 3 bits (MSB = leftmost column).
type glyph3x5 [5]byte

// font holds a compact 3x5 pixel bitmap for the characters the debug
// overlay actually prints: digits, uppercase letters, and a handful of
// punctuation. Lowercase letters reuse their uppercase glyph, matching the
// resolution the debug window renders everything else at.
var font = map[rune]glyph3x5{
	'0': {0b111, 0b101, 0b101, 0b101, 0b111},
	'1': {0b010, 0b110, 0b010, 0b010, 0b111},
	'2': {0b111, 0b001, 0b111, 0b100, 0b111},
	'3': {0b111, 0b001, 0b111, 0b001, 0b111},
	'4': {0b101, 0b101, 0b111, 0b001, 0b001},
	'5': {0b111, 0b100, 0b111, 0b001, 0b111},
	'6': {0b111, 0b100, 0b111, 0b101, 0b111},
	'7': {0b111, 0b001, 0b010, 0b010, 0b010},
	'8': {0b111, 0b101, 0b111, 0b101, 0b111},
	'9': {0b111, 0b101, 0b111, 0b001, 0b111},
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'F': {0b111, 0b100, 0b110, 0b100, 0b100},
	'G': {0b011, 0b100, 0b101, 0b101, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'J': {0b001, 0b001, 0b001, 0b101, 0b010},
	'K': {0b101, 0b101, 0b110, 0b101, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'M': {0b101, 0b111, 0b111, 0b101, 0b101},
	'N': {0b101, 0b111, 0b111, 0b111, 0b101},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'Q': {0b010, 0b101, 0b101, 0b111, 0b011},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'U': {0b101, 0b101, 0b101, 0b101, 0b111},
	'V': {0b101, 0b101, 0b101, 0b101, 0b010},
	'W': {0b101, 0b101, 0b111, 0b111, 0b101},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'Y': {0b101, 0b101, 0b010, 0b010, 0b010},
	'Z': {0b111, 0b001, 0b010, 0b100, 0b111},
	':': {0b000, 0b010, 0b000, 0b010, 0b000},
	',': {0b000, 0b000, 0b000, 0b010, 0b100},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	'(': {0b001, 0b010, 0b010, 0b010, 0b001},
	')': {0b100, 0b010, 0b010, 0b010, 0b100},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	'/': {0b001, 0b001, 0b010, 0b100, 0b100},
	'%': {0b101, 0b001, 0b010, 0b100, 0b101},
	'=': {0b000, 0b111, 0b000, 0b111, 0b000},
	'>': {0b100, 0b010, 0b001, 0b010, 0b100},
	'[': {0b011, 0b010, 0b010, 0b010, 0b011},
	']': {0b110, 0b010, 0b010, 0b010, 0b110},
	'|': {0b010, 0b010, 0b010, 0b010, 0b010},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

func glyphFor(ch rune) (glyph3x5, bool) {
	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}
	g, ok := font[ch]
	return g, ok
}

// DrawText renders text as a row of 3x5 bitmap glyphs scaled by scale,
// advancing by 4 columns per character (3 glyph columns plus a 1px gap).
// Characters outside the font table are rendered as a blank cell rather
// than aborting the draw.
func DrawText(renderer *sdl.Renderer, text string, x, y int32, scale int, r, g, b uint8) {
	renderer.SetDrawColor(r, g, b, 255)
	s := int32(scale)
	cursor := x
	for _, ch := range text {
		glyph, ok := glyphFor(ch)
		if ok {
			for row := 0; row < 5; row++ {
				bits := glyph[row]
				for col := 0; col < 3; col++ {
					if bits&(1<<(2-col)) == 0 {
						continue
					}
					px := cursor + int32(col)*s
					py := y + int32(row)*s
					if s <= 1 {
						renderer.DrawPoint(px, py)
						continue
					}
					renderer.FillRect(&sdl.Rect{X: px, Y: py, W: s, H: s})
				}
			}
		}
		cursor += 4 * s
	}
}
