// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package stats

import (
	"fmt"
	"math"

	"github.com/mlnoga/roistats/internal/qsort"
	"gonum.org/v1/gonum/stat"
)

// Mean of the given values. NaN for empty input
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// Mean of the given float32 values, accumulated in float32. NaN for empty input
func MeanFloat32(xs []float32) float32 {
	if len(xs) == 0 {
		return float32(math.NaN())
	}
	sum := float32(0)
	for _, x := range xs {
		sum += x
	}
	return sum / float32(len(xs))
}

// Median of the given values. Does not modify the input. NaN for empty input.
// Input must not contain IEEE NaN, use NanMedian for that
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	buf := make([]float64, len(xs))
	copy(buf, xs)
	return qsort.QSelectMedianFloat64(buf)
}

// Median of the given values, ignoring NaNs. Does not modify the input.
// Returns NaN if no non-NaN values remain
func NanMedian(xs []float64) float64 {
	buf := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			buf = append(buf, x)
		}
	}
	if len(buf) == 0 {
		return math.NaN()
	}
	return qsort.QSelectMedianFloat64(buf)
}

// Basic statistics on a column of ROI values, for log output
type Basic struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// Calculate basic statistics for the given values, ignoring NaNs
func CalcBasic(xs []float64) *Basic {
	clean := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			clean = append(clean, x)
		}
	}
	if len(clean) == 0 {
		nan := math.NaN()
		return &Basic{Min: nan, Max: nan, Mean: nan, StdDev: nan, Median: nan}
	}
	s := &Basic{Min: clean[0], Max: clean[0]}
	for _, x := range clean[1:] {
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
	}
	s.Mean, s.StdDev = stat.PopMeanStdDev(clean, nil)
	s.Median = qsort.QSelectMedianFloat64(clean)
	return s
}

// Pretty print basic stats to string
func (s *Basic) String() string {
	return fmt.Sprintf("Min %.4g Max %.4g Mean %.4g StdDev %.4g Median %.4g",
		s.Min, s.Max, s.Mean, s.StdDev, s.Median)
}
