package rating

import (
	"math"
)

// Status is the checklist item status vocabulary.
// Not Checked and Not Applicable are excluded from averages.
type Status string

const (
	StatusExcellent     Status = "Excellent"
	StatusGood          Status = "Good"
	StatusAverage       Status = "Average"
	StatusFair          Status = "Fair"
	StatusPoor          Status = "Poor"
	StatusNotChecked    Status = "Not Checked"
	StatusNotApplicable Status = "Not Applicable"
)

// MaxRating is the upper bound of the numeric scale
const MaxRating = 5.0

var weights = map[Status]float64{
	StatusExcellent:     5,
	StatusGood:          4,
	StatusAverage:       3,
	StatusFair:          2.5,
	StatusPoor:          1,
	StatusNotChecked:    0,
	StatusNotApplicable: 0,
}

// IsValid returns true if the status is a recognized value
func (s Status) IsValid() bool {
	_, ok := weights[s]
	return ok
}

// Weight returns the canonical numeric weight for the status
func (s Status) Weight() float64 {
	return weights[s]
}

// Excluded reports whether items with this status are left out of averages
func (s Status) Excluded() bool {
	return s == StatusNotChecked || s == StatusNotApplicable
}

// Item is a single checklist-item response as seen by the engine
type Item struct {
	Status Status
	Rating float64
}

// EffectiveRating resolves the numeric value used in averages: a
// client-supplied rating is clamped to [0, MaxRating] to tolerate
// floating-point drift, and the canonical status weight is used when
// no rating was supplied.
func (i Item) EffectiveRating() float64 {
	if i.Rating > 0 {
		return Clamp(i.Rating)
	}
	return i.Status.Weight()
}

// Clamp bounds a rating value to the valid 0..5 range
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}

// TypeAverage computes the arithmetic mean of the included items'
// ratings, rounded to 2 decimal places. Not Checked and Not Applicable
// items are excluded. Returns 0 when nothing is included.
func TypeAverage(items []Item) float64 {
	var sum float64
	var count int
	for _, it := range items {
		if it.Status.Excluded() {
			continue
		}
		sum += it.EffectiveRating()
		count++
	}
	if count == 0 {
		return 0
	}
	return Round2(sum / float64(count))
}

// Overall computes the mean of per-type averages, each type weighted
// equally regardless of item count. Returns 0 when there are no types.
func Overall(typeAverages []float64) float64 {
	if len(typeAverages) == 0 {
		return 0
	}
	var sum float64
	for _, avg := range typeAverages {
		sum += avg
	}
	return Round2(sum / float64(len(typeAverages)))
}

// Round2 rounds to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
