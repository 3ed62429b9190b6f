package palette

import (
	"fmt"
	"math"
	"slices"
)

// HueGroup is the dominant-hue bucket of a color.
type HueGroup string

const (
	HueBlack   HueGroup = "black"
	HueWhite   HueGroup = "white"
	HuePastel  HueGroup = "pastel"
	HueRed     HueGroup = "red"
	HueOrange  HueGroup = "orange"
	HueYellow  HueGroup = "yellow"
	HueGreen   HueGroup = "green"
	HueCyan    HueGroup = "cyan"
	HueBlue    HueGroup = "blue"
	HuePurple  HueGroup = "purple"
	HueMagenta HueGroup = "magenta"
)

// HueGroups lists every hue group in display order.
var HueGroups = []HueGroup{
	HueBlack, HueWhite, HuePastel,
	HueRed, HueOrange, HueYellow, HueGreen, HueCyan, HueBlue, HuePurple, HueMagenta,
}

// Category is the warm/cool/neutral classification of a hue group.
type Category string

const (
	CategoryWarm    Category = "warm"
	CategoryCool    Category = "cool"
	CategoryNeutral Category = "neutral"
)

// Categories lists every category.
var Categories = []Category{CategoryWarm, CategoryCool, CategoryNeutral}

// Temperature approximates how warm or cool a color reads from its red/blue
// balance.
type Temperature string

const (
	TempVeryWarm Temperature = "very-warm"
	TempWarm     Temperature = "warm"
	TempNeutral  Temperature = "neutral"
	TempCool     Temperature = "cool"
	TempVeryCool Temperature = "very-cool"
)

// Temperatures lists every temperature from warmest to coolest.
var Temperatures = []Temperature{TempVeryWarm, TempWarm, TempNeutral, TempCool, TempVeryCool}

// HueBucket assigns Name to hue angles below Upper that were not claimed by
// an earlier bucket.
type HueBucket struct {
	Name  HueGroup `yaml:"name"`
	Upper float64  `yaml:"upper"`
}

// TemperatureRule holds the ratios used to derive Temperature.
type TemperatureRule struct {
	// DarkFloor is the max-channel value (0-1) below which a color is neutral.
	DarkFloor float64 `yaml:"dark_floor"`
	// WarmRatio and VeryWarmRatio apply to R/B (and to B/R for the cool side).
	WarmRatio     float64 `yaml:"warm_ratio"`
	VeryWarmRatio float64 `yaml:"very_warm_ratio"`
	// GreenDominance makes a color cool when G exceeds max(R,B) by this factor.
	GreenDominance float64 `yaml:"green_dominance"`
	// BalanceTolerance is the |R-B| below which a color is neutral.
	BalanceTolerance float64 `yaml:"balance_tolerance"`
}

// Thresholds parameterizes the classifier.
//
// A color with no lit channel is black. Otherwise its HSV saturation decides:
// below WhiteSaturation it is white, below PastelSaturation it is pastel, and
// anything more saturated is bucketed by hue angle through HueBuckets.
// Categories maps every hue group to exactly one category.
type Thresholds struct {
	WhiteSaturation  float64               `yaml:"white_saturation"`
	PastelSaturation float64               `yaml:"pastel_saturation"`
	HueBuckets       []HueBucket           `yaml:"hue_buckets"`
	Categories       map[HueGroup]Category `yaml:"categories"`
	Temperature      TemperatureRule       `yaml:"temperature"`
}

// DefaultThresholds returns the stock classifier parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WhiteSaturation:  0.12,
		PastelSaturation: 0.35,
		HueBuckets: []HueBucket{
			{HueRed, 15},
			{HueOrange, 50},
			{HueYellow, 75},
			{HueGreen, 165},
			{HueCyan, 195},
			{HueBlue, 255},
			{HuePurple, 285},
			{HueMagenta, 345},
			{HueRed, 360},
		},
		Categories: map[HueGroup]Category{
			HueBlack:   CategoryNeutral,
			HueWhite:   CategoryNeutral,
			HuePastel:  CategoryNeutral,
			HueRed:     CategoryWarm,
			HueOrange:  CategoryWarm,
			HueYellow:  CategoryWarm,
			HueGreen:   CategoryCool,
			HueCyan:    CategoryCool,
			HueBlue:    CategoryCool,
			HuePurple:  CategoryCool,
			HueMagenta: CategoryCool,
		},
		Temperature: TemperatureRule{
			DarkFloor:        0.1,
			WarmRatio:        1.5,
			VeryWarmRatio:    3,
			GreenDominance:   1.5,
			BalanceTolerance: 0.2,
		},
	}
}

// Groups returns every hue group the thresholds can produce: black, white
// and pastel followed by the bucket names in bucket order, without repeats.
func (t Thresholds) Groups() []HueGroup {
	groups := []HueGroup{HueBlack, HueWhite, HuePastel}
	for _, b := range t.HueBuckets {
		if !slices.Contains(groups, b.Name) {
			groups = append(groups, b.Name)
		}
	}
	return groups
}

// Validate checks that the thresholds are finite and ordered, the hue
// buckets cover [0,360) and every reachable group has a category.
func (t Thresholds) Validate() error {
	r := t.Temperature
	numbers := []float64{t.WhiteSaturation, t.PastelSaturation,
		r.DarkFloor, r.WarmRatio, r.VeryWarmRatio, r.GreenDominance, r.BalanceTolerance}
	for _, b := range t.HueBuckets {
		numbers = append(numbers, b.Upper)
	}
	for _, v := range numbers {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite classifier threshold %v", ErrInvalidConfiguration, v)
		}
	}

	if t.WhiteSaturation < 0 || t.PastelSaturation > 1 || t.WhiteSaturation > t.PastelSaturation {
		return fmt.Errorf("%w: saturation thresholds must satisfy 0 <= white (%v) <= pastel (%v) <= 1",
			ErrInvalidConfiguration, t.WhiteSaturation, t.PastelSaturation)
	}

	if len(t.HueBuckets) == 0 {
		return fmt.Errorf("%w: no hue buckets", ErrInvalidConfiguration)
	}
	prev := 0.0
	for i, b := range t.HueBuckets {
		if b.Upper <= prev {
			return fmt.Errorf("%w: hue bucket %d (%s) upper bound %v not above %v", ErrInvalidConfiguration, i, b.Name, b.Upper, prev)
		}
		prev = b.Upper
	}
	if prev != 360 {
		return fmt.Errorf("%w: hue buckets end at %v, want 360", ErrInvalidConfiguration, prev)
	}

	for _, g := range t.Groups() {
		c, ok := t.Categories[g]
		if !ok {
			return fmt.Errorf("%w: hue group %q has no category", ErrInvalidConfiguration, g)
		}
		if !slices.Contains(Categories, c) {
			return fmt.Errorf("%w: hue group %q maps to unknown category %q", ErrInvalidConfiguration, g, c)
		}
	}

	if r.WarmRatio < 1 || r.VeryWarmRatio < r.WarmRatio || r.GreenDominance <= 0 || r.DarkFloor < 0 || r.BalanceTolerance < 0 {
		return fmt.Errorf("%w: temperature rule %+v", ErrInvalidConfiguration, r)
	}
	return nil
}

// Classification is everything derived from a PerceivedColor.
type Classification struct {
	HueGroup        HueGroup    `json:"hueGroup"`
	Category        Category    `json:"category"`
	Temperature     Temperature `json:"temperature"`
	BrightnessLevel int         `json:"brightnessLevel"`
	Luminance       float64     `json:"luminance"`
	Hue             float64     `json:"hue"`
	Saturation      float64     `json:"saturation"`
	Value           float64     `json:"value"`
}

// WheelPosition places the color on a unit color wheel: the angle is the
// hue, the distance from the center is the saturation.
func (c Classification) WheelPosition() (x, y float64) {
	rad := c.Hue * math.Pi / 180
	return c.Saturation * math.Cos(rad), c.Saturation * math.Sin(rad)
}

// Classifier derives a Classification from a color.
type Classifier struct {
	thresholds Thresholds
	midpoints  []float64
}

// NewClassifier returns a Classifier whose brightness levels line up with
// the steps of d.
func NewClassifier(d StepDomain, t Thresholds) (*Classifier, error) {
	if d.Len() == 0 {
		return nil, fmt.Errorf("%w: step domain is empty", ErrInvalidConfiguration)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	t.HueBuckets = slices.Clone(t.HueBuckets)
	cats := make(map[HueGroup]Category, len(t.Categories))
	for k, v := range t.Categories {
		cats[k] = v
	}
	t.Categories = cats

	steps := d.Ascending()
	mids := make([]float64, 0, len(steps)-1)
	for i := 1; i < len(steps); i++ {
		mids = append(mids, float64(steps[i-1]+steps[i])/2)
	}
	return &Classifier{thresholds: t, midpoints: mids}, nil
}

// Levels returns the number of brightness levels.
func (c *Classifier) Levels() int { return len(c.midpoints) + 1 }

// Groups returns the hue groups this classifier assigns.
func (c *Classifier) Groups() []HueGroup { return c.thresholds.Groups() }

// Classify derives hue group, category, temperature and brightness level.
func (c *Classifier) Classify(pc PerceivedColor) Classification {
	h, s, v := pc.Colorful().Hsv()
	lum := Luminance(pc)

	group := c.hueGroup(pc, h, s)
	return Classification{
		HueGroup:        group,
		Category:        c.thresholds.Categories[group],
		Temperature:     c.temperature(pc),
		BrightnessLevel: c.Quantize(lum),
		Luminance:       lum,
		Hue:             h,
		Saturation:      s,
		Value:           v,
	}
}

// Quantize maps a 0-255 luminance onto a brightness level. Level boundaries
// sit at the midpoints between consecutive ascending steps; a luminance equal
// to a midpoint belongs to the upper level.
func (c *Classifier) Quantize(lum float64) int {
	level := 0
	for _, m := range c.midpoints {
		if lum >= m {
			level++
		}
	}
	return level
}

func (c *Classifier) hueGroup(pc PerceivedColor, h, s float64) HueGroup {
	switch {
	case pc.IsOff():
		return HueBlack
	case s < c.thresholds.WhiteSaturation:
		return HueWhite
	case s < c.thresholds.PastelSaturation:
		return HuePastel
	}
	for _, b := range c.thresholds.HueBuckets {
		if h < b.Upper {
			return b.Name
		}
	}
	return c.thresholds.HueBuckets[len(c.thresholds.HueBuckets)-1].Name
}

func (c *Classifier) temperature(pc PerceivedColor) Temperature {
	rule := c.thresholds.Temperature
	col := pc.Colorful()
	r, g, b := col.R, col.G, col.B

	if math.Max(r, math.Max(g, b)) < rule.DarkFloor {
		return TempNeutral
	}

	var rb, br float64
	switch {
	case r > 0 && b > 0:
		rb, br = r/b, b/r
	case r > 0:
		rb = math.Inf(1)
	case b > 0:
		br = math.Inf(1)
	}

	switch {
	case rb > rule.VeryWarmRatio:
		return TempVeryWarm
	case rb > rule.WarmRatio:
		return TempWarm
	case br > rule.VeryWarmRatio:
		return TempVeryCool
	case br > rule.WarmRatio:
		return TempCool
	case g > math.Max(r, b)*rule.GreenDominance:
		return TempCool
	case math.Abs(r-b) < rule.BalanceTolerance:
		return TempNeutral
	case r > b:
		return TempWarm
	default:
		return TempCool
	}
}

// Luminance returns the perceived brightness 0.299R + 0.587G + 0.114B on the
// 0-255 scale.
func Luminance(pc PerceivedColor) float64 {
	return 0.299*float64(pc.R) + 0.587*float64(pc.G) + 0.114*float64(pc.B)
}
