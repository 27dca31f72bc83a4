package app

import (
	"image/color"
	"math"
)

const (
	ClassicTheme   ColorTheme = "classic"
	GrayscaleTheme ColorTheme = "grayscale"
	ThermalTheme   ColorTheme = "thermal"
)

type ColorTheme string

var validThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	GrayscaleTheme: {},
	ThermalTheme:   {},
}

// HSV represents a color in HSV color space
type HSV struct {
	H float64 // Hue [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value [0-1]
}

// RGB converts HSV color space to RGB
func (hsv HSV) RGB() color.Color {
	h := hsv.H
	s := hsv.S
	v := hsv.V

	if s <= 0.0 {
		rgb := uint8(v * 255)
		return color.RGBA{R: rgb, G: rgb, B: rgb, A: 0xff}
	}

	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64

	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xff}
}

// GetColorTheme returns the normalized-value-to-color function for a theme.
func GetColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case GrayscaleTheme: // Black -> White
		return func(value float64) color.Color {
			v := math.Pow(clamp01(value), 0.7) * 255
			return color.RGBA{R: uint8(v), G: uint8(v), B: uint8(v), A: 0xff}
		}

	case ThermalTheme: // Black -> Red -> Yellow -> White
		return func(value float64) color.Color {
			value = clamp01(value)
			if value < 0.33 {
				p := value * 3
				return color.RGBA{R: uint8(p * 255), A: 0xff}
			} else if value < 0.66 {
				p := (value - 0.33) * 3
				return color.RGBA{R: 255, G: uint8(p * 255), A: 0xff}
			}
			p := (value - 0.66) * 3
			return color.RGBA{R: 255, G: 255, B: uint8(p * 255), A: 0xff}
		}

	default: // Classic: Blue -> Red
		return func(value float64) color.Color {
			value = clamp01(value)
			hsv := HSV{
				H: 240 - (value * 240),
				S: 0.9 + (value * 0.1),
				V: math.Pow(value, 0.7),
			}
			return hsv.RGB()
		}
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
