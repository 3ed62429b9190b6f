package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMixer_KnownColors(t *testing.T) {
	m := DefaultMixer()

	tests := []struct {
		name  string
		tuple ChannelTuple
		want  PerceivedColor
	}{
		{"off", ChannelTuple{0, 0, 0, 0, 0}, PerceivedColor{0, 0, 0}},
		{"red", ChannelTuple{255, 0, 0, 0, 0}, PerceivedColor{255, 0, 0}},
		{"dim blue", ChannelTuple{0, 0, 85, 0, 0}, PerceivedColor{0, 0, 85}},
		{"white", ChannelTuple{0, 0, 0, 255, 0}, PerceivedColor{128, 128, 128}},
		{"amber", ChannelTuple{0, 0, 0, 0, 255}, PerceivedColor{128, 96, 0}},
		{"red plus white", ChannelTuple{255, 0, 0, 255, 0}, PerceivedColor{255, 128, 128}},
		{"everything", ChannelTuple{255, 255, 255, 255, 255}, PerceivedColor{255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Mix(tt.tuple))
		})
	}
}

func TestMixer_Deterministic(t *testing.T) {
	m := DefaultMixer()
	tp := ChannelTuple{85, 170, 0, 85, 255}
	assert.Equal(t, m.Mix(tp), m.Mix(tp))
}

func TestMixer_ClampsEveryComponent(t *testing.T) {
	m := Mixer{WhiteScale: MaxScale, AmberScale: MaxScale}
	for _, tp := range Generate(mustSteps(t, 0, 1, 128, 254, 255)) {
		c := m.Mix(tp)
		if tp[White] > 0 {
			assert.GreaterOrEqual(t, int(c.B), tp[Blue], "white never lowers blue for %v", tp)
		}
		if tp[Red] == 255 {
			assert.Equal(t, uint8(255), c.R, "saturated red must not wrap for %v", tp)
		}
	}
}

func TestMixer_ScalesAreParameters(t *testing.T) {
	m := Mixer{WhiteScale: 1, AmberScale: 0}
	assert.Equal(t, PerceivedColor{255, 255, 255}, m.Mix(ChannelTuple{0, 0, 0, 255, 0}))
	assert.Equal(t, PerceivedColor{0, 0, 0}, m.Mix(ChannelTuple{0, 0, 0, 0, 255}))
}

func TestMixer_Validate(t *testing.T) {
	assert.NoError(t, DefaultMixer().Validate())
	assert.ErrorIs(t, Mixer{WhiteScale: -0.1, AmberScale: 0.5}.Validate(), ErrInvalidConfiguration)
	assert.ErrorIs(t, Mixer{WhiteScale: 0.5, AmberScale: MaxScale + 1}.Validate(), ErrInvalidConfiguration)
}

func TestPerceivedColor_Hex(t *testing.T) {
	assert.Equal(t, "#ff0000", PerceivedColor{255, 0, 0}.Hex())
	assert.Equal(t, "#806000", PerceivedColor{128, 96, 0}.Hex())
	assert.True(t, PerceivedColor{}.IsOff())
}
