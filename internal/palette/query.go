package palette

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Range is an inclusive [Min, Max] bound.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Exactly returns a range holding only v.
func Exactly(v int) Range { return Range{Min: v, Max: v} }

// Contains reports whether Min <= v <= Max.
func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// String renders the range as ParseRange accepts it.
func (r Range) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// ParseRange parses "85" or "0-170". Bounds are checked by
// FilterSpec.Validate, not here.
func ParseRange(s string) (Range, error) {
	first, second, isRange := strings.Cut(strings.TrimSpace(s), "-")
	lo, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return Range{}, fmt.Errorf("%w: bad range %q", ErrInvalidFilterSpec, s)
	}
	if !isRange {
		return Exactly(lo), nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return Range{}, fmt.Errorf("%w: bad range %q", ErrInvalidFilterSpec, s)
	}
	return Range{Min: lo, Max: hi}, nil
}

// SortKey selects the ordering of query results.
type SortKey string

const (
	SortIndex      SortKey = "index"
	SortBrightness SortKey = "brightness"
	SortHue        SortKey = "hue"
	SortRed        SortKey = "red"
	SortGreen      SortKey = "green"
	SortBlue       SortKey = "blue"
	SortWhite      SortKey = "white"
	SortAmber      SortKey = "amber"
)

// SortKeys lists every sort key.
var SortKeys = []SortKey{SortIndex, SortBrightness, SortHue, SortRed, SortGreen, SortBlue, SortWhite, SortAmber}

var sortChannel = map[SortKey]Channel{
	SortRed:   Red,
	SortGreen: Green,
	SortBlue:  Blue,
	SortWhite: White,
	SortAmber: Amber,
}

// FilterSpec selects and orders records. Every set field must match (AND);
// multi-value fields match when any of their values does (OR). The zero
// value matches every record in generation order.
type FilterSpec struct {
	// Channels restricts DMX values per channel. Use Exactly for equality.
	Channels map[Channel]Range `json:"channels,omitempty"`
	// HueGroups, Categories and Temperatures are membership sets.
	HueGroups    []HueGroup    `json:"hueGroups,omitempty"`
	Categories   []Category    `json:"categories,omitempty"`
	Temperatures []Temperature `json:"temperatures,omitempty"`
	// Brightness restricts the brightness level, 0 being the darkest.
	Brightness *Range `json:"brightness,omitempty"`
	// FavoritesOnly keeps only records marked in the favorite set.
	FavoritesOnly bool `json:"favoritesOnly,omitempty"`
	// Search is a case-insensitive substring matched against the canonical
	// rendering, the descriptive name and the classification. A term
	// starting with '#' matches the hex color instead.
	Search string `json:"search,omitempty"`
	// ExcludeOff drops records at brightness level 0.
	ExcludeOff bool `json:"excludeOff,omitempty"`
	// ExcludeFullRGB drops records whose R, G and B are all at the top step.
	ExcludeFullRGB bool `json:"excludeFullRgb,omitempty"`

	SortBy     SortKey `json:"sortBy,omitempty"`
	Descending bool    `json:"descending,omitempty"`

	// Offset skips that many matches; Limit caps the result when positive.
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

// Validate checks the spec against a store with the given number of
// brightness levels and hue groups.
func (f FilterSpec) Validate(levels int, groups []HueGroup) error {
	for ch, r := range f.Channels {
		if ch < 0 || int(ch) >= NumChannels {
			return fmt.Errorf("%w: unknown channel %d", ErrInvalidFilterSpec, int(ch))
		}
		if r.Min > r.Max {
			return fmt.Errorf("%w: %s range min %d > max %d", ErrInvalidFilterSpec, ch, r.Min, r.Max)
		}
		if r.Min < MinDMXValue || r.Max > MaxDMXValue {
			return fmt.Errorf("%w: %s range %d-%d outside %d-%d", ErrInvalidFilterSpec, ch, r.Min, r.Max, MinDMXValue, MaxDMXValue)
		}
	}
	for _, g := range f.HueGroups {
		if !slices.Contains(groups, g) {
			return fmt.Errorf("%w: unknown hue group %q", ErrInvalidFilterSpec, g)
		}
	}
	for _, c := range f.Categories {
		if !slices.Contains(Categories, c) {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidFilterSpec, c)
		}
	}
	for _, t := range f.Temperatures {
		if !slices.Contains(Temperatures, t) {
			return fmt.Errorf("%w: unknown temperature %q", ErrInvalidFilterSpec, t)
		}
	}
	if b := f.Brightness; b != nil {
		if b.Min > b.Max {
			return fmt.Errorf("%w: brightness range min %d > max %d", ErrInvalidFilterSpec, b.Min, b.Max)
		}
		if b.Min < 0 || b.Max >= levels {
			return fmt.Errorf("%w: brightness range %d-%d outside 0-%d", ErrInvalidFilterSpec, b.Min, b.Max, levels-1)
		}
	}
	if f.SortBy != "" && !slices.Contains(SortKeys, f.SortBy) {
		return fmt.Errorf("%w: unknown sort key %q", ErrInvalidFilterSpec, f.SortBy)
	}
	if f.Offset < 0 || f.Limit < 0 {
		return fmt.Errorf("%w: negative offset or limit", ErrInvalidFilterSpec)
	}
	return nil
}

// matcher is a validated FilterSpec ready to test records.
type matcher struct {
	spec     FilterSpec
	search   string
	favs     FavoriteSet
	topLevel int
}

func (m matcher) match(r Record) bool {
	f := m.spec
	for ch, rg := range f.Channels {
		if !rg.Contains(r.Channels[ch]) {
			return false
		}
	}
	c := r.Classification
	if len(f.HueGroups) > 0 && !slices.Contains(f.HueGroups, c.HueGroup) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, c.Category) {
		return false
	}
	if len(f.Temperatures) > 0 && !slices.Contains(f.Temperatures, c.Temperature) {
		return false
	}
	if f.Brightness != nil && !f.Brightness.Contains(c.BrightnessLevel) {
		return false
	}
	if f.ExcludeOff && c.BrightnessLevel == 0 {
		return false
	}
	if f.ExcludeFullRGB && r.Channels[Red] == m.topLevel && r.Channels[Green] == m.topLevel && r.Channels[Blue] == m.topLevel {
		return false
	}
	if f.FavoritesOnly && !m.favs.IsFavorite(r.Index) {
		return false
	}
	if m.search != "" && !r.matchesText(m.search) {
		return false
	}
	return true
}

// Query validates spec and returns the matching records. Without a sort key
// (or sorting by ascending index) the sequence is evaluated lazily over the
// store; any other ordering collects the matches each time the sequence is
// ranged over. Descending without a sort key orders by index. The store is never modified and ranging twice yields the
// same records. favs may be nil.
func (s *Store) Query(spec FilterSpec, favs FavoriteSet) (iter.Seq[Record], error) {
	if err := spec.Validate(s.Levels(), s.HueGroups()); err != nil {
		return nil, err
	}
	if favs == nil {
		favs = noFavorites{}
	}
	m := matcher{
		spec:     spec,
		search:   strings.ToLower(strings.TrimSpace(spec.Search)),
		favs:     favs,
		topLevel: s.steps.Max(),
	}

	var matches iter.Seq[Record] = func(yield func(Record) bool) {
		for _, r := range s.records {
			if m.match(r) && !yield(r) {
				return
			}
		}
	}

	if spec.SortBy == "" && spec.Descending {
		spec.SortBy = SortIndex
	}
	ordered := matches
	if spec.SortBy != "" && (spec.SortBy != SortIndex || spec.Descending) {
		ordered = func(yield func(Record) bool) {
			sorted := slices.SortedStableFunc(matches, compareBy(spec.SortBy, spec.Descending))
			for _, r := range sorted {
				if !yield(r) {
					return
				}
			}
		}
	}
	return page(ordered, spec.Offset, spec.Limit), nil
}

// Count returns how many records a spec matches, ignoring Offset and Limit.
func (s *Store) Count(spec FilterSpec, favs FavoriteSet) (int, error) {
	spec.Offset, spec.Limit, spec.SortBy, spec.Descending = 0, 0, "", false
	seq, err := s.Query(spec, favs)
	if err != nil {
		return 0, err
	}
	n := 0
	for range seq {
		n++
	}
	return n, nil
}

func page(seq iter.Seq[Record], offset, limit int) iter.Seq[Record] {
	if offset == 0 && limit == 0 {
		return seq
	}
	return func(yield func(Record) bool) {
		skipped, taken := 0, 0
		for r := range seq {
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && taken >= limit {
				return
			}
			taken++
			if !yield(r) {
				return
			}
		}
	}
}

// compareBy orders by key, breaking ties by ascending index.
func compareBy(key SortKey, desc bool) func(a, b Record) int {
	var primary func(a, b Record) int
	switch key {
	case SortBrightness:
		primary = func(a, b Record) int { return cmp.Compare(a.Classification.Luminance, b.Classification.Luminance) }
	case SortHue:
		primary = func(a, b Record) int { return cmp.Compare(a.Classification.Hue, b.Classification.Hue) }
	case SortIndex:
		primary = func(a, b Record) int { return cmp.Compare(a.Index, b.Index) }
	default:
		ch := sortChannel[key]
		primary = func(a, b Record) int { return cmp.Compare(a.Channels[ch], b.Channels[ch]) }
	}
	return func(a, b Record) int {
		c := primary(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	}
}
