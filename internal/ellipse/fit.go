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

package ellipse

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Number of points on the fitted ellipse outline
const NumOutlinePoints = 100

var (
	ErrEmpty      = errors.New("ellipse fit on empty pixel set")
	ErrZeroWeight = errors.New("ellipse fit with zero total weight")
	ErrFactorize  = errors.New("eigen decomposition of covariance failed")
)

// Result of fitting a 2D gaussian to weighted pixel coordinates
type Fit struct {
	Mu      [2]float64    // Weighted mean (y,x)
	Cov     *mat.SymDense // Weighted 2x2 covariance of (y,x)
	Radii   [2]float64    // Ellipse semi-axes at the given sigma multiple, descending
	Outline [][2]float64  // Points (y,x) on the ellipse outline
}

// Fits a 2D gaussian to the weighted coordinates and returns the ellipse at thres standard deviations.
// Weights are normalized to sum to one. A single pixel yields zero radii
func FitMVGaus(ys, xs, lam []float64, thres float64) (*Fit, error) {
	if len(ys) != len(xs) || len(ys) != len(lam) {
		return nil, fmt.Errorf("ellipse fit with %d rows, %d cols and %d weights", len(ys), len(xs), len(lam))
	}
	if len(ys) == 0 {
		return nil, ErrEmpty
	}
	sum := floats.Sum(lam)
	if sum == 0 {
		return nil, ErrZeroWeight
	}

	// weighted mean
	w := make([]float64, len(lam))
	floats.ScaleTo(w, 1/sum, lam)
	mu := [2]float64{floats.Dot(w, ys), floats.Dot(w, xs)}

	// weighted covariance
	var cyy, cyx, cxx float64
	for i := range w {
		dy, dx := ys[i]-mu[0], xs[i]-mu[1]
		cyy += w[i] * dy * dy
		cyx += w[i] * dy * dx
		cxx += w[i] * dx * dx
	}
	cov := mat.NewSymDense(2, []float64{cyy, cyx, cyx, cxx})

	var es mat.EigenSym
	if ok := es.Factorize(cov, true); !ok {
		return nil, ErrFactorize
	}
	vals := es.Values(nil)
	var evec mat.Dense
	es.VectorsTo(&evec)

	// radii of the axes, in eigenvalue order
	r := [2]float64{}
	for i, v := range vals {
		r[i] = thres * math.Sqrt(math.Max(0, v))
	}

	outline := make([][2]float64, NumOutlinePoints)
	for i := range outline {
		theta := 2 * math.Pi * float64(i) / float64(NumOutlinePoints-1)
		c, s := math.Cos(theta)*r[0], math.Sin(theta)*r[1]
		outline[i] = [2]float64{
			c*evec.At(0, 0) + s*evec.At(0, 1) + mu[0],
			c*evec.At(1, 0) + s*evec.At(1, 1) + mu[1],
		}
	}

	radii := r
	if radii[1] > radii[0] {
		radii[0], radii[1] = radii[1], radii[0]
	}
	return &Fit{Mu: mu, Cov: cov, Radii: radii, Outline: outline}, nil
}
