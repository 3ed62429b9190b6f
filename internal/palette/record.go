package palette

import (
	"fmt"
	"strings"
)

// Record is one generated combination with its mixed color and
// classification. Records are values; the store hands out copies.
type Record struct {
	Index          int            `json:"index"`
	Channels       ChannelTuple   `json:"channels"`
	Color          PerceivedColor `json:"color"`
	Classification Classification `json:"classification"`

	// Name is the descriptive form, e.g. "R=85 (Dim) + G=0 (Off) + ...".
	Name string `json:"name"`
	// BrightnessValue is the step value at the record's brightness level.
	BrightnessValue int `json:"brightnessValue"`
	// BrightnessName is the label of that step.
	BrightnessName string `json:"brightnessName"`
}

// String returns the canonical rendering used by text search,
// "R85 G0 B255 W0 A170".
func (r Record) String() string {
	return r.Channels.String()
}

// Channel returns the DMX value of channel c.
func (r Record) Channel(c Channel) int {
	return r.Channels[c]
}

// matchesText reports whether the lower-cased term occurs in the record's
// text. A term starting with '#' is matched against the hex color only, so
// channel tokens such as "a0" never hit hex digits.
func (r Record) matchesText(term string) bool {
	if strings.HasPrefix(term, "#") {
		return strings.Contains(r.Color.Hex(), term)
	}
	return strings.Contains(r.searchText(), term)
}

// searchText is the canonical form, the name and the classification,
// lower cased.
func (r Record) searchText() string {
	c := r.Classification
	return strings.ToLower(strings.Join([]string{
		r.Channels.String(),
		r.Name,
		string(c.HueGroup),
		string(c.Category),
		string(c.Temperature),
	}, " | "))
}

func describe(t ChannelTuple, d StepDomain) string {
	parts := make([]string, NumChannels)
	for _, c := range Channels {
		parts[c] = fmt.Sprintf("%s=%d (%s)", c, t[c], d.Label(t[c]))
	}
	return strings.Join(parts, " + ")
}

// FavoriteSet reports whether a record index is marked as a favorite.
type FavoriteSet interface {
	IsFavorite(index int) bool
}

// Favorites is a sparse index -> favorite mapping kept beside the store so
// the generated records stay immutable. The zero value is not usable; make
// one with NewFavorites.
type Favorites map[int]bool

// NewFavorites returns a Favorites set holding indices.
func NewFavorites(indices ...int) Favorites {
	f := make(Favorites, len(indices))
	for _, i := range indices {
		f[i] = true
	}
	return f
}

// IsFavorite implements FavoriteSet. It is safe on a nil map.
func (f Favorites) IsFavorite(index int) bool {
	return f[index]
}

// Set marks or clears index.
func (f Favorites) Set(index int, favorite bool) {
	if favorite {
		f[index] = true
		return
	}
	delete(f, index)
}

// Toggle flips index and returns the new state.
func (f Favorites) Toggle(index int) bool {
	on := !f[index]
	f.Set(index, on)
	return on
}

// noFavorites is used when a query is run without a favorite set.
type noFavorites struct{}

func (noFavorites) IsFavorite(int) bool { return false }
