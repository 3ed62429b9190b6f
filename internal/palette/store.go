package palette

import (
	"fmt"
	"iter"
	"slices"
)

// Options configures a generation run.
type Options struct {
	Steps      []int
	StepLabels map[int]string
	WhiteScale float64
	AmberScale float64
	Thresholds Thresholds
}

// DefaultOptions returns the standard 0/85/170/255 domain with default
// mixing and classification.
func DefaultOptions() Options {
	return Options{
		Steps:      append([]int(nil), StandardSteps...),
		WhiteScale: DefaultWhiteScale,
		AmberScale: DefaultAmberScale,
		Thresholds: DefaultThresholds(),
	}
}

// Validate checks every option without generating anything.
func (o Options) Validate() error {
	_, _, _, err := o.prepare()
	return err
}

func (o Options) prepare() (StepDomain, Mixer, *Classifier, error) {
	steps, err := NewLabeledStepDomain(o.Steps, o.StepLabels)
	if err != nil {
		return StepDomain{}, Mixer{}, nil, err
	}
	mixer := Mixer{WhiteScale: o.WhiteScale, AmberScale: o.AmberScale}
	if err := mixer.Validate(); err != nil {
		return StepDomain{}, Mixer{}, nil, err
	}
	classifier, err := NewClassifier(steps, o.Thresholds)
	if err != nil {
		return StepDomain{}, Mixer{}, nil, err
	}
	return steps, mixer, classifier, nil
}

// Store owns one generated record set. Indices are 0-based, contiguous and
// stable for the life of the store; changing the options means building a
// new store.
type Store struct {
	steps      StepDomain
	mixer      Mixer
	classifier *Classifier
	records    []Record
}

// Build validates opts and generates, mixes and classifies every combination.
// Nothing is generated if validation fails.
func Build(opts Options) (*Store, error) {
	steps, mixer, classifier, err := opts.prepare()
	if err != nil {
		return nil, err
	}

	tuples := Generate(steps)
	ascending := steps.Ascending()
	records := make([]Record, len(tuples))
	for i, t := range tuples {
		color := mixer.Mix(t)
		class := classifier.Classify(color)
		level := ascending[class.BrightnessLevel]
		records[i] = Record{
			Index:           i,
			Channels:        t,
			Color:           color,
			Classification:  class,
			Name:            describe(t, steps),
			BrightnessValue: level,
			BrightnessName:  steps.Label(level),
		}
	}

	return &Store{
		steps:      steps,
		mixer:      mixer,
		classifier: classifier,
		records:    records,
	}, nil
}

// Len returns the number of records (N^5).
func (s *Store) Len() int { return len(s.records) }

// Steps returns the step domain the store was generated from.
func (s *Store) Steps() StepDomain { return s.steps }

// Mixer returns the mixer used for generation.
func (s *Store) Mixer() Mixer { return s.mixer }

// HueGroups returns the hue groups records can be classified into, in
// display order.
func (s *Store) HueGroups() []HueGroup { return s.classifier.Groups() }

// Levels returns the number of brightness levels.
func (s *Store) Levels() int { return s.classifier.Levels() }

// Signature identifies the index space. Favorites recorded under one
// signature are valid for any store with the same signature.
func (s *Store) Signature() string { return s.steps.Signature() }

// Get returns the record at index i.
func (s *Store) Get(i int) (Record, error) {
	if i < 0 || i >= len(s.records) {
		return Record{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, len(s.records))
	}
	return s.records[i], nil
}

// IndexOf returns the index of the record with channel values t, or false
// if some value is not a step of this store.
func (s *Store) IndexOf(t ChannelTuple) (int, bool) {
	values := s.steps.values
	i := 0
	for _, v := range t {
		pos := slices.Index(values, v)
		if pos < 0 {
			return 0, false
		}
		i = i*len(values) + pos
	}
	return i, true
}

// All yields every record in generation order.
func (s *Store) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range s.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Records returns a copy of every record in generation order.
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Summary counts records per hue group, category and brightness level.
type Summary struct {
	Total      int              `json:"total"`
	HueGroups  map[HueGroup]int `json:"hueGroups"`
	Categories map[Category]int `json:"categories"`
	Levels     map[int]int      `json:"brightnessLevels"`
}

// Summarize counts the records yielded by seq.
func Summarize(seq iter.Seq[Record]) Summary {
	sum := Summary{
		HueGroups:  make(map[HueGroup]int),
		Categories: make(map[Category]int),
		Levels:     make(map[int]int),
	}
	for r := range seq {
		sum.Total++
		sum.HueGroups[r.Classification.HueGroup]++
		sum.Categories[r.Classification.Category]++
		sum.Levels[r.Classification.BrightnessLevel]++
	}
	return sum
}
