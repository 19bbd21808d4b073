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

package roi

import (
	"math"

	"github.com/mlnoga/roistats/internal/stats"
)

// Estimates the center of a coordinate axis
type CenterEstimator func(xs []float64) float64

// Per-axis median, the default center estimator
func MedianCenter(xs []float64) float64 { return stats.Median(xs) }

// Per-axis mean
func MeanCenter(xs []float64) float64 { return stats.Mean(xs) }

// Mean Euclidean distance of the pixels from their estimated center.
// Uses pixel coordinates only, not weights. Zero for a single pixel
func MeanRadialSpread(ys, xs []float64, est CenterEstimator) float64 {
	if est == nil {
		est = MedianCenter
	}
	cy, cx := est(ys), est(xs)
	sum := 0.0
	for i := range ys {
		dy, dx := ys[i]-cy, xs[i]-cx
		sum += math.Sqrt(dy*dy + dx*dx)
	}
	return sum / float64(len(ys))
}
