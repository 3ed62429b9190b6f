package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bbernstein/lacylights-palette/internal/palette"
)

// channelParams maps query keys to channels.
var channelParams = []struct {
	key     string
	channel palette.Channel
}{
	{"r", palette.Red},
	{"g", palette.Green},
	{"b", palette.Blue},
	{"w", palette.White},
	{"a", palette.Amber},
}

// ParseFilter builds a FilterSpec from query parameters:
//
//	r, g, b, w, a     "85" or "0-170"
//	hue, category,    comma separated or repeated
//	temperature
//	brightness        level or level range, e.g. "1-3"
//	search            free text
//	favorites, excludeOff, excludeFullRgb   booleans
//	sort, order       sort key and "asc" or "desc"
//	offset, limit     paging
//
// The result is not validated against a store; Store.Query does that.
func ParseFilter(q url.Values) (palette.FilterSpec, error) {
	var spec palette.FilterSpec

	for _, p := range channelParams {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		r, err := palette.ParseRange(v)
		if err != nil {
			return spec, err
		}
		if spec.Channels == nil {
			spec.Channels = make(map[palette.Channel]palette.Range)
		}
		spec.Channels[p.channel] = r
	}

	for _, v := range list(q, "hue") {
		spec.HueGroups = append(spec.HueGroups, palette.HueGroup(v))
	}
	for _, v := range list(q, "category") {
		spec.Categories = append(spec.Categories, palette.Category(v))
	}
	for _, v := range list(q, "temperature") {
		spec.Temperatures = append(spec.Temperatures, palette.Temperature(v))
	}

	if v := q.Get("brightness"); v != "" {
		r, err := palette.ParseRange(v)
		if err != nil {
			return spec, err
		}
		spec.Brightness = &r
	}

	spec.Search = q.Get("search")

	var err error
	if spec.FavoritesOnly, err = boolParam(q, "favorites"); err != nil {
		return spec, err
	}
	if spec.ExcludeOff, err = boolParam(q, "excludeOff"); err != nil {
		return spec, err
	}
	if spec.ExcludeFullRGB, err = boolParam(q, "excludeFullRgb"); err != nil {
		return spec, err
	}

	spec.SortBy = palette.SortKey(strings.ToLower(q.Get("sort")))
	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		spec.Descending = true
	default:
		return spec, fmt.Errorf("%w: order must be asc or desc", palette.ErrInvalidFilterSpec)
	}

	if spec.Offset, err = intParam(q, "offset"); err != nil {
		return spec, err
	}
	if spec.Limit, err = intParam(q, "limit"); err != nil {
		return spec, err
	}
	return spec, nil
}

func list(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolParam(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", palette.ErrInvalidFilterSpec, key)
	}
	return b, nil
}

func intParam(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", palette.ErrInvalidFilterSpec, key)
	}
	return n, nil
}
