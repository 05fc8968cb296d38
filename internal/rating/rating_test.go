package rating

import (
	"testing"
)

func TestStatusWeights(t *testing.T) {
	cases := []struct {
		status   Status
		weight   float64
		excluded bool
	}{
		{StatusExcellent, 5, false},
		{StatusGood, 4, false},
		{StatusAverage, 3, false},
		{StatusFair, 2.5, false},
		{StatusPoor, 1, false},
		{StatusNotChecked, 0, true},
		{StatusNotApplicable, 0, true},
	}

	for _, c := range cases {
		if !c.status.IsValid() {
			t.Errorf("%s should be valid", c.status)
		}
		if got := c.status.Weight(); got != c.weight {
			t.Errorf("%s weight = %v, want %v", c.status, got, c.weight)
		}
		if got := c.status.Excluded(); got != c.excluded {
			t.Errorf("%s excluded = %v, want %v", c.status, got, c.excluded)
		}
	}

	if Status("Perfect").IsValid() {
		t.Error("unknown status should not be valid")
	}
}

func TestTypeAverageExcludesNotChecked(t *testing.T) {
	// Excellent + Poor counted, Not Checked excluded: (5+1)/2 = 3.00
	items := []Item{
		{Status: StatusExcellent},
		{Status: StatusPoor},
		{Status: StatusNotChecked},
	}

	if got := TypeAverage(items); got != 3.00 {
		t.Errorf("TypeAverage = %v, want 3.00", got)
	}
}

func TestTypeAverageAllExcluded(t *testing.T) {
	items := []Item{
		{Status: StatusNotApplicable},
		{Status: StatusNotApplicable},
	}

	if got := TypeAverage(items); got != 0 {
		t.Errorf("TypeAverage = %v, want 0 for all-excluded type", got)
	}

	if got := TypeAverage(nil); got != 0 {
		t.Errorf("TypeAverage = %v, want 0 for empty type", got)
	}
}

func TestTypeAverageUsesClampedClientRating(t *testing.T) {
	// A supplied rating wins over the status weight, clamped to 0..5
	items := []Item{
		{Status: StatusGood, Rating: 3.5},
		{Status: StatusGood, Rating: 9.0}, // clamps to 5
	}

	if got := TypeAverage(items); got != 4.25 {
		t.Errorf("TypeAverage = %v, want 4.25", got)
	}
}

func TestTypeAverageRounding(t *testing.T) {
	// (5+4+4)/3 = 4.333... -> 4.33
	items := []Item{
		{Status: StatusExcellent},
		{Status: StatusGood},
		{Status: StatusGood},
	}

	if got := TypeAverage(items); got != 4.33 {
		t.Errorf("TypeAverage = %v, want 4.33", got)
	}
}

func TestOverallIsTypeWeighted(t *testing.T) {
	// One type with a single Excellent item (5.00), one type with
	// three Poor items (1.00): overall is (5+1)/2, not an item mean.
	typeA := TypeAverage([]Item{{Status: StatusExcellent}})
	typeB := TypeAverage([]Item{
		{Status: StatusPoor},
		{Status: StatusPoor},
		{Status: StatusPoor},
	})

	if typeA != 5.00 || typeB != 1.00 {
		t.Fatalf("type averages = %v, %v, want 5.00 and 1.00", typeA, typeB)
	}

	if got := Overall([]float64{typeA, typeB}); got != 3.00 {
		t.Errorf("Overall = %v, want 3.00", got)
	}
}

func TestOverallEmpty(t *testing.T) {
	if got := Overall(nil); got != 0 {
		t.Errorf("Overall = %v, want 0 for no types", got)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-1, 0},
		{0, 0},
		{2.5, 2.5},
		{5, 5},
		{6.01, 5},
	}
	for _, c := range cases {
		if got := Clamp(c.in); got != c.want {
			t.Errorf("Clamp(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
