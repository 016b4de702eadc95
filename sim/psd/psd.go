// Package psd provides the particle size distribution value type used by the
// flowsheet engine: a cumulative percent-passing curve over particle size.
//
// A PSD is immutable. Every operation returns a new value, so a single PSD may
// be shared freely between streams, unit models and passes of the solver.
// Sizes are in millimetres throughout.
package psd

import (
	"fmt"
	"math"
	"sort"
)

// Point is a single (size, cumulative percent passing) sample.
type Point struct {
	Size    float64 // particle size in mm (must be > 0)
	Passing float64 // cumulative percent passing, in [0, 100]
}

// PSD is an ordered cumulative passing curve. Sizes ascend and passing
// percentages are non-decreasing with size.
type PSD struct {
	points []Point
}

// rosinRammlerMultiples are the fixed multiples of F80 sampled by FromF80.
var rosinRammlerMultiples = []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.3, 0.5, 0.7, 1.0, 2.0, 3.0}

const (
	// rosinRammlerModulus is the distribution modulus n used by FromF80.
	rosinRammlerModulus = 1.0
	// f80ToX632 converts F80 to the Rosin-Rammler characteristic size x63.2.
	f80ToX632 = 1.44
)

// New builds a PSD from points. The input slice is copied and sorted by size.
// Returns an error for an empty series, non-positive sizes, percentages outside
// [0, 100], or passing that decreases as size increases.
func New(points []Point) (*PSD, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("psd: at least one point required")
	}
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })

	for i, p := range sorted {
		if math.IsNaN(p.Size) || math.IsInf(p.Size, 0) || p.Size <= 0 {
			return nil, fmt.Errorf("psd: size must be a positive finite number, got %v", p.Size)
		}
		if math.IsNaN(p.Passing) || p.Passing < 0 || p.Passing > 100 {
			return nil, fmt.Errorf("psd: passing must be in [0, 100], got %v at size %v", p.Passing, p.Size)
		}
		if i > 0 && p.Passing < sorted[i-1].Passing {
			return nil, fmt.Errorf("psd: passing decreases from %v%% to %v%% between sizes %v and %v",
				sorted[i-1].Passing, p.Passing, sorted[i-1].Size, p.Size)
		}
	}
	return &PSD{points: sorted}, nil
}

// MustNew is like New but panics on invalid input. Intended for fixed curves
// in tests and examples.
func MustNew(points []Point) *PSD {
	d, err := New(points)
	if err != nil {
		panic(err)
	}
	return d
}

// FromF80 synthesizes an 11-point Rosin-Rammler curve whose characteristic
// size is f80/1.44. Used whenever a unit has to fabricate a distribution from a
// single characteristic size. Returns nil if f80 is not positive.
func FromF80(f80 float64) *PSD {
	if !(f80 > 0) || math.IsInf(f80, 0) {
		return nil
	}
	x632 := f80 / f80ToX632
	points := make([]Point, len(rosinRammlerMultiples))
	for i, m := range rosinRammlerMultiples {
		size := f80 * m
		passing := 100 * (1 - math.Exp(-math.Pow(size/x632, rosinRammlerModulus)))
		points[i] = Point{Size: size, Passing: passing}
	}
	return &PSD{points: points}
}

// Points returns a copy of the curve's points in ascending size order.
func (d *PSD) Points() []Point {
	out := make([]Point, len(d.points))
	copy(out, d.points)
	return out
}

// Len returns the number of points in the curve.
func (d *PSD) Len() int { return len(d.points) }

// GetPxx returns the size below which target percent of the material passes.
// Targets outside the curve's passing range clamp to the boundary sizes.
func (d *PSD) GetPxx(target float64) float64 {
	n := len(d.points)
	if n == 0 {
		return 0
	}
	first, last := d.points[0], d.points[n-1]
	if target <= first.Passing {
		return first.Size
	}
	if target >= last.Passing {
		return last.Size
	}
	for i := 1; i < n; i++ {
		lo, hi := d.points[i-1], d.points[i]
		if target > hi.Passing {
			continue
		}
		if hi.Passing == lo.Passing {
			return lo.Size
		}
		t := (target - lo.Passing) / (hi.Passing - lo.Passing)
		if lo.Size <= 0 || hi.Size <= 0 {
			return lo.Size + t*(hi.Size-lo.Size)
		}
		return math.Exp(math.Log(lo.Size) + t*(math.Log(hi.Size)-math.Log(lo.Size)))
	}
	return last.Size
}

// P80 returns the 80% passing size.
func (d *PSD) P80() float64 { return d.GetPxx(80) }

// P50 returns the 50% passing size.
func (d *PSD) P50() float64 { return d.GetPxx(50) }

// P20 returns the 20% passing size.
func (d *PSD) P20() float64 { return d.GetPxx(20) }

// P98 returns the 98% passing size.
func (d *PSD) P98() float64 { return d.GetPxx(98) }

// PassingAtSize returns the cumulative percent passing at size.
// Sizes outside the curve clamp to the boundary percentages; they never
// report absence.
func (d *PSD) PassingAtSize(size float64) float64 {
	n := len(d.points)
	if n == 0 {
		return 0
	}
	first, last := d.points[0], d.points[n-1]
	if size <= first.Size {
		return first.Passing
	}
	if size >= last.Size {
		return last.Passing
	}
	for i := 1; i < n; i++ {
		lo, hi := d.points[i-1], d.points[i]
		if size > hi.Size {
			continue
		}
		var t float64
		if size <= 0 || lo.Size <= 0 || hi.Size <= 0 {
			t = (size - lo.Size) / (hi.Size - lo.Size)
		} else {
			t = (math.Log(size) - math.Log(lo.Size)) / (math.Log(hi.Size) - math.Log(lo.Size))
		}
		return lo.Passing + t*(hi.Passing-lo.Passing)
	}
	return last.Passing
}

// ScaleByFactor divides every size by k, modelling a uniform size reduction
// ratio. Percentages are unchanged. A non-positive k returns an unchanged copy.
func (d *PSD) ScaleByFactor(k float64) *PSD {
	points := d.Points()
	if !(k > 0) || math.IsInf(k, 0) {
		return &PSD{points: points}
	}
	for i := range points {
		points[i].Size /= k
	}
	return &PSD{points: points}
}

// BlendWith merges two curves. The result is sampled at the union of both
// curves' sizes; at each size the passing is myFraction of this curve plus
// (1 - myFraction) of other. myFraction is clamped to [0, 1].
func (d *PSD) BlendWith(other *PSD, myFraction float64) *PSD {
	if other == nil || other.Len() == 0 {
		return &PSD{points: d.Points()}
	}
	f := math.Max(0, math.Min(1, myFraction))

	sizes := make([]float64, 0, len(d.points)+len(other.points))
	for _, p := range d.points {
		sizes = append(sizes, p.Size)
	}
	for _, p := range other.points {
		sizes = append(sizes, p.Size)
	}
	sort.Float64s(sizes)

	points := make([]Point, 0, len(sizes))
	for i, s := range sizes {
		if i > 0 && s == sizes[i-1] {
			continue
		}
		passing := f*d.PassingAtSize(s) + (1-f)*other.PassingAtSize(s)
		points = append(points, Point{Size: s, Passing: passing})
	}
	return &PSD{points: points}
}

// String renders the curve as a compact list of size:passing pairs.
func (d *PSD) String() string {
	s := "["
	for i, p := range d.points {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.4g:%.2f", p.Size, p.Passing)
	}
	return s + "]"
}
