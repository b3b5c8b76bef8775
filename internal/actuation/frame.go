package actuation

import "math"

// Color is one pixel in RGB order.
type Color struct {
	R, G, B uint8
}

var (
	black = Color{}
	red   = Color{R: 255}
	amber = Color{R: 255, G: 165}
)

// Frame is one full strip of pixels, index 0 first.
type Frame []Color

func (f Frame) Fill(c Color) {
	for i := range f {
		f[i] = c
	}
}

func (f Frame) Clear() { f.Fill(black) }

func (f Frame) set(i int, c Color) {
	if i >= 0 && i < len(f) {
		f[i] = c
	}
}

// hueColor converts a 16-bit hue at full saturation and value.
func hueColor(hue uint16) Color {
	h := (uint32(hue)*1530 + 32768) / 65536
	switch {
	case h < 510:
		if h < 255 {
			return Color{R: 255, G: uint8(h)}
		}
		return Color{R: uint8(510 - h), G: 255}
	case h < 1020:
		if h < 765 {
			return Color{G: 255, B: uint8(h - 510)}
		}
		return Color{G: uint8(1020 - h), B: 255}
	case h < 1530:
		if h < 1275 {
			return Color{R: uint8(h - 1020), B: 255}
		}
		return Color{R: 255, B: uint8(1530 - h)}
	default:
		return Color{R: 255}
	}
}

var gammaTable = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = uint8(math.Round(math.Pow(float64(i)/255, 2.6) * 255))
	}
	return t
}()

func gamma(c Color) Color {
	return Color{R: gammaTable[c.R], G: gammaTable[c.G], B: gammaTable[c.B]}
}
