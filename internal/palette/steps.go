// Package palette generates every RGBWA channel combination of a fixture at a
// fixed set of DMX step values, mixes each combination into a perceived
// color, classifies it, and exposes the resulting records to filtering and
// sorting.
package palette

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	// MinDMXValue is the lowest value a DMX channel can carry.
	MinDMXValue = 0
	// MaxDMXValue is the highest value a DMX channel can carry.
	MaxDMXValue = 255
)

// StandardSteps are the step values used when nothing else is configured.
var StandardSteps = []int{0, 85, 170, 255}

// standardLabels names the standard steps.
var standardLabels = map[int]string{
	0:   "Off",
	85:  "Dim",
	170: "Mid",
	255: "Full",
}

// StepDomain is the ordered set of DMX levels used for every channel.
type StepDomain struct {
	values []int
	sorted []int
	labels map[int]string
}

// NewStepDomain validates values and returns a StepDomain that enumerates
// them in the given order.
func NewStepDomain(values []int) (StepDomain, error) {
	return NewLabeledStepDomain(values, nil)
}

// NewLabeledStepDomain is like NewStepDomain but attaches display labels to
// step values. Steps without a label fall back to the standard label for
// that value, or to the decimal value itself.
func NewLabeledStepDomain(values []int, labels map[int]string) (StepDomain, error) {
	if len(values) == 0 {
		return StepDomain{}, fmt.Errorf("%w: step domain is empty", ErrInvalidConfiguration)
	}

	seen := make(map[int]bool, len(values))
	for _, v := range values {
		if v < MinDMXValue || v > MaxDMXValue {
			return StepDomain{}, fmt.Errorf("%w: step value %d outside %d-%d", ErrInvalidConfiguration, v, MinDMXValue, MaxDMXValue)
		}
		if seen[v] {
			return StepDomain{}, fmt.Errorf("%w: duplicate step value %d", ErrInvalidConfiguration, v)
		}
		seen[v] = true
	}
	for v := range labels {
		if !seen[v] {
			return StepDomain{}, fmt.Errorf("%w: label given for unknown step %d", ErrInvalidConfiguration, v)
		}
	}

	d := StepDomain{
		values: slices.Clone(values),
		sorted: slices.Sorted(slices.Values(values)),
		labels: make(map[int]string, len(values)),
	}
	for _, v := range values {
		switch {
		case labels[v] != "":
			d.labels[v] = labels[v]
		case standardLabels[v] != "":
			d.labels[v] = standardLabels[v]
		default:
			d.labels[v] = strconv.Itoa(v)
		}
	}
	return d, nil
}

// ParseSteps parses a comma separated list such as "0,85,170,255".
func ParseSteps(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	steps := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: step %q is not an integer", ErrInvalidConfiguration, p)
		}
		steps = append(steps, v)
	}
	return steps, nil
}

// Len returns the number of steps (N).
func (d StepDomain) Len() int { return len(d.values) }

// Values returns a copy of the steps in enumeration order.
func (d StepDomain) Values() []int { return slices.Clone(d.values) }

// Ascending returns a copy of the steps sorted ascending.
func (d StepDomain) Ascending() []int { return slices.Clone(d.sorted) }

// Max returns the highest step value.
func (d StepDomain) Max() int { return d.sorted[len(d.sorted)-1] }

// Contains reports whether v is one of the steps.
func (d StepDomain) Contains(v int) bool {
	_, ok := d.labels[v]
	return ok
}

// Label returns the display label for a step value.
func (d StepDomain) Label(v int) string {
	if l, ok := d.labels[v]; ok {
		return l
	}
	return strconv.Itoa(v)
}

// LevelLabel returns the label of the step at brightness level i.
func (d StepDomain) LevelLabel(level int) string {
	if level < 0 || level >= len(d.sorted) {
		return ""
	}
	return d.Label(d.sorted[level])
}

// Signature identifies the enumeration. Two domains with the same signature
// produce identical indices.
func (d StepDomain) Signature() string {
	parts := make([]string, len(d.values))
	for i, v := range d.values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
