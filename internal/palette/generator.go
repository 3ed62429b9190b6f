package palette

import "fmt"

// Channel identifies one of the fixture's five channels.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
	White
	Amber
)

// NumChannels is the fixed channel count of an RGBWA fixture.
const NumChannels = 5

// Channels lists every channel in tuple order.
var Channels = [NumChannels]Channel{Red, Green, Blue, White, Amber}

var channelLetters = [NumChannels]string{"R", "G", "B", "W", "A"}

// String returns the single-letter channel name.
func (c Channel) String() string {
	if c < 0 || int(c) >= NumChannels {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelLetters[c]
}

// ParseChannel accepts a channel letter or name such as "r" or "amber".
func ParseChannel(s string) (Channel, bool) {
	switch s {
	case "r", "R", "red":
		return Red, true
	case "g", "G", "green":
		return Green, true
	case "b", "B", "blue":
		return Blue, true
	case "w", "W", "white":
		return White, true
	case "a", "A", "amber":
		return Amber, true
	}
	return 0, false
}

// ChannelTuple holds one DMX value per channel, indexed by Channel.
type ChannelTuple [NumChannels]int

// R returns the red channel value.
func (t ChannelTuple) R() int { return t[Red] }

// G returns the green channel value.
func (t ChannelTuple) G() int { return t[Green] }

// B returns the blue channel value.
func (t ChannelTuple) B() int { return t[Blue] }

// W returns the white channel value.
func (t ChannelTuple) W() int { return t[White] }

// A returns the amber channel value.
func (t ChannelTuple) A() int { return t[Amber] }

// String renders the canonical form, e.g. "R85 G0 B255 W0 A170".
func (t ChannelTuple) String() string {
	return fmt.Sprintf("R%d G%d B%d W%d A%d", t[Red], t[Green], t[Blue], t[White], t[Amber])
}

// Generate returns the full cartesian product of the step domain across all
// five channels: exactly N^5 tuples. Red varies slowest and amber fastest,
// each channel walking the steps in domain order, so the tuple at index i is
// the base-N representation of i with red as the most significant digit.
func Generate(steps StepDomain) []ChannelTuple {
	n := steps.Len()
	if n == 0 {
		return nil
	}

	total := 1
	for range NumChannels {
		total *= n
	}

	values := steps.values
	tuples := make([]ChannelTuple, total)
	for i := range tuples {
		rem := i
		for c := NumChannels - 1; c >= 0; c-- {
			tuples[i][c] = values[rem%n]
			rem /= n
		}
	}
	return tuples
}

// TupleAt returns the tuple Generate would place at index i.
func TupleAt(steps StepDomain, i int) (ChannelTuple, error) {
	n := steps.Len()
	total := 1
	for range NumChannels {
		total *= n
	}
	if i < 0 || i >= total {
		return ChannelTuple{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, total)
	}

	var t ChannelTuple
	for c := NumChannels - 1; c >= 0; c-- {
		t[c] = steps.values[i%n]
		i /= n
	}
	return t, nil
}
