package sway

import (
	"fmt"
	"math"
	"sort"
)

// CurveSegment is one cubic piece of a ParametricCurve. It applies to inputs
// in [BeginOffset, next segment's BeginOffset) and evaluates
// Constant + Linear*x + Quadratic*x² + Cubic*x³ with x = input - BeginOffset.
type CurveSegment struct {
	BeginOffset float64 `yaml:"begin"`
	Constant    float64 `yaml:"constant"`
	Linear      float64 `yaml:"linear"`
	Quadratic   float64 `yaml:"quadratic"`
	Cubic       float64 `yaml:"cubic"`
}

func (s CurveSegment) eval(input float64) float64 {
	x := input - s.BeginOffset
	return s.Constant + x*(s.Linear+x*(s.Quadratic+x*s.Cubic))
}

func (s CurveSegment) valid() bool {
	for _, v := range [5]float64{s.BeginOffset, s.Constant, s.Linear, s.Quadratic, s.Cubic} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ParametricCurve maps one axis of a primary content transform to a property
// of a secondary node. Segments may be added in any order; they are sorted by
// begin offset once and the sort is reused until the next AddSegment.
type ParametricCurve struct {
	PrimaryAxis Axis
	// Property names the value written on the relationship's holder node.
	Property string

	segments []CurveSegment
	sorted   bool
}

// CurveDefinition is the immutable form of a curve handed to the
// manipulation service.
type CurveDefinition struct {
	PrimaryAxis Axis
	Property    string
	Segments    []CurveSegment
}

// NewParametricCurve creates a curve over the given axis. At least one
// segment is required.
func NewParametricCurve(axis Axis, property string, segs ...CurveSegment) (*ParametricCurve, error) {
	if len(segs) == 0 {
		return nil, ErrNoSegments
	}
	c := &ParametricCurve{PrimaryAxis: axis, Property: property}
	for _, s := range segs {
		if err := c.AddSegment(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddSegment appends a segment. Non-finite coefficients and duplicate begin
// offsets are rejected with ErrInvalidSegment.
func (c *ParametricCurve) AddSegment(s CurveSegment) error {
	if !s.valid() {
		return fmt.Errorf("%w: non-finite value at begin %v", ErrInvalidSegment, s.BeginOffset)
	}
	for _, e := range c.segments {
		if e.BeginOffset == s.BeginOffset {
			return fmt.Errorf("%w: duplicate begin offset %v", ErrInvalidSegment, s.BeginOffset)
		}
	}
	c.segments = append(c.segments, s)
	c.sorted = false
	return nil
}

// NumSegments returns the number of segments.
func (c *ParametricCurve) NumSegments() int {
	return len(c.segments)
}

// Segments returns a copy of the segments in ascending begin-offset order.
func (c *ParametricCurve) Segments() []CurveSegment {
	c.ensureSorted()
	out := make([]CurveSegment, len(c.segments))
	copy(out, c.segments)
	return out
}

// Definition snapshots the curve for the service.
func (c *ParametricCurve) Definition() CurveDefinition {
	return CurveDefinition{PrimaryAxis: c.PrimaryAxis, Property: c.Property, Segments: c.Segments()}
}

func (c *ParametricCurve) ensureSorted() {
	if c.sorted {
		return
	}
	sort.Slice(c.segments, func(i, j int) bool {
		return c.segments[i].BeginOffset < c.segments[j].BeginOffset
	})
	c.sorted = true
}

// Evaluate returns the curve's value at input. The active segment is the one
// with the largest begin offset not greater than input; inputs below the
// first begin offset use the first segment. A curve with no segments
// evaluates to zero.
func (c *ParametricCurve) Evaluate(input float64) float64 {
	if len(c.segments) == 0 {
		return 0
	}
	c.ensureSorted()
	return evaluateSorted(c.segments, input)
}

// Evaluate runs the same bracket search over an immutable definition.
func (d CurveDefinition) Evaluate(input float64) float64 {
	if len(d.Segments) == 0 {
		return 0
	}
	return evaluateSorted(d.Segments, input)
}

func evaluateSorted(segs []CurveSegment, input float64) float64 {
	// First index whose begin offset is strictly greater than input.
	i := sort.Search(len(segs), func(i int) bool {
		return segs[i].BeginOffset > input
	})
	if i > 0 {
		i--
	}
	return segs[i].eval(input)
}
