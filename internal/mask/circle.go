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

package mask

import (
	"math"

	"github.com/mlnoga/roistats/internal/qsort"
	"github.com/mlnoga/roistats/internal/stats"
)

// Default half size of the reference patch used for compactness
const DefaultHalfSize = 30

// A rectangular patch of radii around a central pixel
type Mask struct {
	Rows  int       // 2*dy+1
	Cols  int       // 2*dx+1
	Radii []float64 // Euclidean distance of each cell from the center, row-major
	Dy    []int     // Row offset of each cell from the center
	Dx    []int     // Column offset of each cell from the center
}

// Creates a mask over the patch [-dy,dy]x[-dx,dx], holding the radius of each cell
func CircleMask(dy, dx int) *Mask {
	rows, cols := 2*dy+1, 2*dx+1
	m := &Mask{
		Rows:  rows,
		Cols:  cols,
		Radii: make([]float64, rows*cols),
		Dy:    make([]int, rows*cols),
		Dx:    make([]int, rows*cols),
	}
	i := 0
	for y := -dy; y <= dy; y++ {
		for x := -dx; x <= dx; x++ {
			m.Radii[i] = math.Sqrt(float64(y*y + x*x))
			m.Dy[i], m.Dx[i] = y, x
			i++
		}
	}
	return m
}

// Returns the flattened radii of the mask, sorted ascending
func (m *Mask) SortedProfile() []float64 {
	profile := make([]float64, len(m.Radii))
	copy(profile, m.Radii)
	qsort.QSortFloat64(profile)
	return profile
}

// Mean of the first p entries of the profile. Uses the whole profile if p exceeds its length.
// NaN for p<=0
func PrefixMean(profile []float64, p int) float64 {
	if p > len(profile) {
		p = len(profile)
	}
	if p <= 0 {
		return math.NaN()
	}
	return stats.Mean(profile[:p])
}
