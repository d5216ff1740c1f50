package domain

import (
	"fmt"
)

// Subdomain is one cell of a box partition, in actual coordinates. Membership
// is closed-open per dimension ([Lower, Upper)); a cell whose upper face
// coincides with the parent's upper face closes that face instead, so the
// cells remain a total partition of the parent box and every boundary point
// belongs to exactly one cell.
type Subdomain struct {
	Label       string    `json:"label"`
	Lower       []float64 `json:"lower"`
	Upper       []float64 `json:"upper"`
	closedUpper []bool
}

// Center returns the midpoint of the subdomain box.
func (s *Subdomain) Center() []float64 {
	c := make([]float64, len(s.Lower))
	for i := range c {
		c[i] = (s.Lower[i] + s.Upper[i]) / 2
	}
	return c
}

// Spec converts the subdomain box into a standalone approximation domain.
func (s *Subdomain) Spec() (*Spec, error) {
	n := len(s.Lower)
	center := make([]float64, n)
	rng := make([]float64, n)
	for i := 0; i < n; i++ {
		center[i] = (s.Lower[i] + s.Upper[i]) / 2
		rng[i] = (s.Upper[i] - s.Lower[i]) / 2
	}
	return NewSpec(n, center, rng)
}

// Contains reports whether pt lies inside the subdomain under the half-open
// membership rule.
func (s *Subdomain) Contains(pt Actual) bool {
	for i := range s.Lower {
		if pt[i] < s.Lower[i] {
			return false
		}
		if s.closedUpper[i] {
			if pt[i] > s.Upper[i] {
				return false
			}
		} else if pt[i] >= s.Upper[i] {
			return false
		}
	}
	return true
}

// Partition splits the parent box into splits^n equal cells, splits per
// dimension. Cell labels encode the per-dimension cell index ("2x1" style) and
// ordering is deterministic with the last dimension varying fastest.
func Partition(parent *Spec, splits int) ([]Subdomain, error) {
	if splits <= 0 {
		return nil, &ConstructionError{Field: "splits", Reason: fmt.Sprintf("is %d, must be positive", splits)}
	}
	n := parent.Dimension
	lower := parent.Lower()
	upper := parent.Upper()

	total := 1
	for i := 0; i < n; i++ {
		total *= splits
	}

	cells := make([]Subdomain, 0, total)
	idx := make([]int, n)
	for c := 0; c < total; c++ {
		lo := make([]float64, n)
		hi := make([]float64, n)
		closed := make([]bool, n)
		label := ""
		for d := 0; d < n; d++ {
			w := (upper[d] - lower[d]) / float64(splits)
			lo[d] = lower[d] + float64(idx[d])*w
			if idx[d] == splits-1 {
				// Use the exact parent bound so cells tile without
				// floating gaps, and close the outer face.
				hi[d] = upper[d]
				closed[d] = true
			} else {
				hi[d] = lower[d] + float64(idx[d]+1)*w
			}
			if d > 0 {
				label += "x"
			}
			label += fmt.Sprintf("%d", idx[d])
		}
		cells = append(cells, Subdomain{Label: label, Lower: lo, Upper: hi, closedUpper: closed})

		for d := n - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < splits {
				break
			}
			idx[d] = 0
		}
	}
	return cells, nil
}

// Assign finds the unique subdomain containing pt. The bool result is false
// when the point lies outside every cell (e.g. in a stretched buffer region);
// such points are reported, never silently dropped, so the caller decides.
func Assign(pt Actual, cells []Subdomain) (*Subdomain, bool) {
	for i := range cells {
		if cells[i].Contains(pt) {
			return &cells[i], true
		}
	}
	return nil, false
}
