package domain

import (
	"fmt"
)

// Normalized is a point in the unit box [-1,1]^n. It is a distinct type from
// Actual so that mixing the two coordinate spaces is a compile error; the only
// way across is through the Spec mapper methods.
type Normalized []float64

// Actual is a point in problem coordinates, the affine image of a Normalized
// point under a Spec.
type Actual []float64

// Spec describes the approximation box: the image of [-1,1]^n under
// actual = Center + Range ⊙ normalized. Range is per-dimension and must be
// strictly positive. A Spec is created once per problem and never mutated.
type Spec struct {
	Dimension int       `json:"dimension"`
	Center    []float64 `json:"center"`
	Range     []float64 `json:"range"`
}

// NewSpec builds a validated Spec. A single-element rng is broadcast to all
// dimensions.
func NewSpec(dimension int, center, rng []float64) (*Spec, error) {
	if dimension <= 0 {
		return nil, &ConstructionError{Field: "dimension", Reason: "must be positive"}
	}
	if len(center) != dimension {
		return nil, &ConstructionError{Field: "center", Reason: fmt.Sprintf("length %d does not match dimension %d", len(center), dimension)}
	}
	if len(rng) == 1 && dimension > 1 {
		scalar := rng[0]
		rng = make([]float64, dimension)
		for i := range rng {
			rng[i] = scalar
		}
	}
	if len(rng) != dimension {
		return nil, &ConstructionError{Field: "range", Reason: fmt.Sprintf("length %d does not match dimension %d", len(rng), dimension)}
	}
	for i, r := range rng {
		if r <= 0 {
			return nil, &ConstructionError{Field: "range", Reason: fmt.Sprintf("component %d is %g, must be > 0", i, r)}
		}
	}
	c := make([]float64, dimension)
	copy(c, center)
	rr := make([]float64, dimension)
	copy(rr, rng)
	return &Spec{Dimension: dimension, Center: c, Range: rr}, nil
}

// ToActual maps a normalized point into problem coordinates.
func (s *Spec) ToActual(p Normalized) Actual {
	out := make(Actual, s.Dimension)
	for i := 0; i < s.Dimension; i++ {
		out[i] = s.Center[i] + s.Range[i]*p[i]
	}
	return out
}

// ToNormalized is the inverse affine map.
func (s *Spec) ToNormalized(p Actual) Normalized {
	out := make(Normalized, s.Dimension)
	for i := 0; i < s.Dimension; i++ {
		out[i] = (p[i] - s.Center[i]) / s.Range[i]
	}
	return out
}

// Lower returns the lower corner of the box in actual coordinates.
func (s *Spec) Lower() []float64 {
	out := make([]float64, s.Dimension)
	for i := range out {
		out[i] = s.Center[i] - s.Range[i]
	}
	return out
}

// Upper returns the upper corner of the box in actual coordinates.
func (s *Spec) Upper() []float64 {
	out := make([]float64, s.Dimension)
	for i := range out {
		out[i] = s.Center[i] + s.Range[i]
	}
	return out
}

// ConstructionError reports an invalid domain or grid request. It is fatal
// and raised immediately, before any fitting work starts.
type ConstructionError struct {
	Field  string
	Reason string
}

func (e *ConstructionError) Error() string {
	return "grid construction error: " + e.Field + " " + e.Reason
}

func (e *ConstructionError) Is(target error) bool {
	_, ok := target.(*ConstructionError)
	return ok
}
