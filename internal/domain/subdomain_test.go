package domain

import (
	"testing"
)

func TestPartitionTilesParent(t *testing.T) {
	spec := mustSpec(t, 2, []float64{0, 0}, []float64{1.5})
	cells, err := Partition(spec, 2)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(cells) != 4 {
		t.Fatalf("Expected 4 cells, got %d", len(cells))
	}

	// Outer faces are the exact parent bounds.
	if cells[0].Lower[0] != -1.5 || cells[3].Upper[1] != 1.5 {
		t.Errorf("Cells do not reach parent bounds: %v, %v", cells[0], cells[3])
	}
}

func TestBoundaryPointAssignedToExactlyOneCell(t *testing.T) {
	spec := mustSpec(t, 2, []float64{0, 0}, []float64{1.5})
	cells, err := Partition(spec, 2)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	// The origin sits on the shared corner of all four cells.
	boundary := []Actual{
		{0, 0},
		{0, 1},       // shared vertical face
		{-1, 0},      // shared horizontal face
		{1.5, 1.5},   // parent upper corner
		{-1.5, -1.5}, // parent lower corner
		{0, 1.5},     // shared face meeting the parent boundary
	}
	for _, pt := range boundary {
		count := 0
		for i := range cells {
			if cells[i].Contains(pt) {
				count++
			}
		}
		if count != 1 {
			t.Errorf("Point %v contained in %d cells, want exactly 1", pt, count)
		}
	}
}

func TestBoundaryAssignmentStable(t *testing.T) {
	spec := mustSpec(t, 2, []float64{0, 0}, []float64{1})
	cells, _ := Partition(spec, 3)

	pt := Actual{1.0 / 3, -1.0 / 3}
	first, ok := Assign(pt, cells)
	if !ok {
		t.Fatal("Boundary point unassigned")
	}
	for i := 0; i < 50; i++ {
		got, ok := Assign(pt, cells)
		if !ok || got.Label != first.Label {
			t.Fatalf("Assignment not stable: run %d gave %v", i, got)
		}
	}
}

func TestAssignOutsideAllCells(t *testing.T) {
	spec := mustSpec(t, 2, []float64{0, 0}, []float64{1})
	cells, _ := Partition(spec, 2)

	if _, ok := Assign(Actual{2, 0}, cells); ok {
		t.Error("Point outside the parent box should be unassigned")
	}
}

func TestSubdomainSpecRoundTrip(t *testing.T) {
	spec := mustSpec(t, 2, []float64{1, 1}, []float64{1})
	cells, _ := Partition(spec, 2)

	sub, err := cells[0].Spec()
	if err != nil {
		t.Fatalf("Subdomain spec failed: %v", err)
	}
	if sub.Dimension != 2 {
		t.Errorf("Dimension %d, want 2", sub.Dimension)
	}
	// First cell covers [0,1]x[0,1] for this parent.
	if sub.Center[0] != 0.5 || sub.Range[0] != 0.5 {
		t.Errorf("Cell spec center %v range %v", sub.Center, sub.Range)
	}
}

func TestPartitionInvalidSplits(t *testing.T) {
	spec := mustSpec(t, 2, []float64{0, 0}, []float64{1})
	if _, err := Partition(spec, 0); err == nil {
		t.Error("Expected error for zero splits")
	}
}
