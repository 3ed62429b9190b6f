package palette

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStandard(t *testing.T) *Store {
	t.Helper()
	s, err := Build(DefaultOptions())
	require.NoError(t, err)
	return s
}

func TestBuild_Standard(t *testing.T) {
	s := buildStandard(t)
	require.Equal(t, 1024, s.Len())
	assert.Equal(t, 4, s.Levels())
	assert.Equal(t, "0,85,170,255", s.Signature())

	for i, r := range s.Records() {
		assert.Equal(t, i, r.Index, "indices are contiguous and 0-based")
	}
}

func TestBuild_SpotChecks(t *testing.T) {
	s := buildStandard(t)

	find := func(tp ChannelTuple) Record {
		t.Helper()
		for r := range s.All() {
			if r.Channels == tp {
				return r
			}
		}
		t.Fatalf("tuple %v not generated", tp)
		return Record{}
	}

	off := find(ChannelTuple{0, 0, 0, 0, 0})
	assert.Equal(t, PerceivedColor{0, 0, 0}, off.Color)
	assert.Equal(t, HueBlack, off.Classification.HueGroup)
	assert.Equal(t, CategoryNeutral, off.Classification.Category)
	assert.Equal(t, "Off", off.BrightnessName)

	red := find(ChannelTuple{255, 0, 0, 0, 0})
	assert.Equal(t, PerceivedColor{255, 0, 0}, red.Color)
	assert.Equal(t, HueRed, red.Classification.HueGroup)
	assert.Equal(t, CategoryWarm, red.Classification.Category)
	assert.Equal(t, 85, red.BrightnessValue)
	assert.Equal(t, "R=255 (Full) + G=0 (Off) + B=0 (Off) + W=0 (Off) + A=0 (Off)", red.Name)

	white := find(ChannelTuple{0, 0, 0, 255, 0})
	assert.Equal(t, PerceivedColor{128, 128, 128}, white.Color)
	assert.Equal(t, CategoryNeutral, white.Classification.Category)

	amber := find(ChannelTuple{0, 0, 0, 0, 255})
	assert.Equal(t, PerceivedColor{128, 96, 0}, amber.Color)
	assert.Equal(t, CategoryWarm, amber.Classification.Category)
}

func TestBuild_Reproducible(t *testing.T) {
	a := buildStandard(t)
	b := buildStandard(t)
	assert.Equal(t, a.Records(), b.Records())
}

func TestBuild_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty steps", func(o *Options) { o.Steps = nil }},
		{"out of range step", func(o *Options) { o.Steps = []int{0, 300} }},
		{"negative white", func(o *Options) { o.WhiteScale = -1 }},
		{"huge amber", func(o *Options) { o.AmberScale = 10 }},
		{"bad thresholds", func(o *Options) { o.Thresholds.WhiteSaturation = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalidConfiguration)

			s, err := Build(opts)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Nil(t, s)
		})
	}
}

func TestStore_Get(t *testing.T) {
	s := buildStandard(t)

	r, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, ChannelTuple{0, 0, 0, 0, 85}, r.Channels)

	_, err = s.Get(1024)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = s.Get(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestStore_RecordsAreCopies(t *testing.T) {
	s := buildStandard(t)
	recs := s.Records()
	recs[0].Name = "changed"
	recs[0].Channels[Red] = 255

	r, err := s.Get(0)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", r.Name)
	assert.Equal(t, 0, r.Channels[Red])
}

func TestFavorites_ToggleIsolated(t *testing.T) {
	s := buildStandard(t)
	before := s.Records()

	favs := NewFavorites()
	assert.True(t, favs.Toggle(10))
	assert.True(t, favs.IsFavorite(10))
	assert.False(t, favs.IsFavorite(11))
	assert.False(t, favs.Toggle(10))
	assert.False(t, favs.IsFavorite(10))
	assert.Empty(t, favs)

	favs.Set(3, true)
	favs.Set(4, true)
	favs.Set(3, false)
	assert.Equal(t, Favorites{4: true}, favs)

	assert.Equal(t, before, s.Records(), "favorites never touch records")

	var nilFavs Favorites
	assert.False(t, nilFavs.IsFavorite(1))
}

func TestSummarize(t *testing.T) {
	s := buildStandard(t)
	sum := Summarize(s.All())
	assert.Equal(t, 1024, sum.Total)
	assert.Equal(t, 1, sum.HueGroups[HueBlack])

	total := 0
	for _, n := range sum.Categories {
		total += n
	}
	assert.Equal(t, 1024, total)

	levels := make([]int, 0, len(sum.Levels))
	for l := range sum.Levels {
		levels = append(levels, l)
	}
	slices.Sort(levels)
	assert.Equal(t, []int{0, 1, 2, 3}, levels)
}

func TestStore_IndexOf(t *testing.T) {
	s := buildStandard(t)
	for r := range s.All() {
		i, ok := s.IndexOf(r.Channels)
		require.True(t, ok)
		require.Equal(t, r.Index, i)
	}

	_, ok := s.IndexOf(ChannelTuple{0, 0, 0, 0, 128})
	assert.False(t, ok)

	// Unsorted domains index by domain order, not value order.
	opts := DefaultOptions()
	opts.Steps = []int{255, 0}
	desc, err := Build(opts)
	require.NoError(t, err)
	i, ok := desc.IndexOf(ChannelTuple{255, 255, 255, 255, 0})
	require.True(t, ok)
	assert.Equal(t, 1, i)
}
