// Package critical turns raw algebraic solution sets into classified
// critical-point candidates: realness and box filtering, duplicate merging,
// canonical ordering, and Hessian-based classification.
package critical

import (
	"github.com/gescholt/globtim/internal/domain"
)

// Kind is the classification tag of a critical point.
type Kind string

const (
	Minimum    Kind = "min"
	Maximum    Kind = "max"
	Saddle     Kind = "saddle"
	Degenerate Kind = "degenerate"
)

// Point is one classified stationary-point candidate. Actual coordinates are
// always the mapper image of the normalized coordinates; they are derived at
// construction and never set independently. The classification tag is
// write-once; everything else is immutable once produced.
type Point struct {
	Normalized domain.Normalized `json:"normalized"`
	Actual     domain.Actual     `json:"actual"`
	Value      float64           `json:"value"`
	Kind       Kind              `json:"kind"`

	// Eigenvalues of the Hessian used for classification, ascending.
	Eigenvalues []float64 `json:"eigenvalues"`

	// Subdomain is the label of the owning cell when the domain is
	// decomposed; empty otherwise.
	Subdomain string `json:"subdomain,omitempty"`

	// RefDistance optionally records the distance to a known reference
	// point during validation runs.
	RefDistance float64 `json:"refDistance,omitempty"`
}
