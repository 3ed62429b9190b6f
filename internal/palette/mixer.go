package palette

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// DefaultWhiteScale is the share of the white channel added to R, G and B.
	DefaultWhiteScale = 0.5
	// DefaultAmberScale is the share of the amber channel added through AmberTint.
	DefaultAmberScale = 0.5
	// MaxScale bounds both scale factors.
	MaxScale = 4.0
)

// AmberTint is the RGB direction the amber emitter pushes a color in.
var AmberTint = [3]float64{1.0, 0.75, 0.0}

// PerceivedColor is the 8-bit RGB result of mixing a tuple.
type PerceivedColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Colorful converts the color into go-colorful's normalized representation.
func (c PerceivedColor) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Hex returns the color formatted as "#rrggbb".
func (c PerceivedColor) Hex() string {
	return c.Colorful().Hex()
}

// IsOff reports whether every component is zero.
func (c PerceivedColor) IsOff() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Mixer blends a five channel tuple into a perceived RGB color. It is a
// simple additive heuristic, not a photometric model: RGB are taken as-is,
// white adds WhiteScale*w equally to all three, amber adds AmberScale*a along
// AmberTint. Components saturate at full and are rounded half away from zero.
type Mixer struct {
	WhiteScale float64
	AmberScale float64
}

// DefaultMixer returns a Mixer with the default scale factors.
func DefaultMixer() Mixer {
	return Mixer{WhiteScale: DefaultWhiteScale, AmberScale: DefaultAmberScale}
}

// Validate checks the scale factors.
func (m Mixer) Validate() error {
	if err := validateScale("white scale", m.WhiteScale); err != nil {
		return err
	}
	return validateScale("amber scale", m.AmberScale)
}

func validateScale(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > MaxScale {
		return fmt.Errorf("%w: %s %v outside 0-%v", ErrInvalidConfiguration, name, v, MaxScale)
	}
	return nil
}

// Mix returns the perceived color of t.
func (m Mixer) Mix(t ChannelTuple) PerceivedColor {
	w := m.WhiteScale * float64(t[White]) / 255
	a := m.AmberScale * float64(t[Amber]) / 255

	r := float64(t[Red])/255 + w + a*AmberTint[0]
	g := float64(t[Green])/255 + w + a*AmberTint[1]
	b := float64(t[Blue])/255 + w + a*AmberTint[2]

	return PerceivedColor{R: to8Bit(r), G: to8Bit(g), B: to8Bit(b)}
}

func to8Bit(v float64) uint8 {
	v = math.Max(0, math.Min(1, v))
	return uint8(math.Round(v * 255))
}
