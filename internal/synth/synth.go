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

// Package synth generates synthetic ROIs for demos and tests
package synth

import (
	"math"

	"github.com/mlnoga/roistats/internal/roi"
	"github.com/valyala/fastrand"
)

// A discretized disc of given radius around (cy,cx), with unit weights
func Disc(cy, cx int, r float64) roi.ROI {
	return Ellipse(cy, cx, r, r)
}

// A discretized axis-aligned ellipse with semi-axes ry and rx around (cy,cx), with unit weights
func Ellipse(cy, cx int, ry, rx float64) roi.ROI {
	var res roi.ROI
	iry, irx := int(math.Ceil(ry)), int(math.Ceil(rx))
	for y := -iry; y <= iry; y++ {
		for x := -irx; x <= irx; x++ {
			fy, fx := float64(y)/ry, float64(x)/rx
			if fy*fy+fx*fx <= 1+1e-8 {
				res.Ypix = append(res.Ypix, cy+y)
				res.Xpix = append(res.Xpix, cx+x)
				res.Lam = append(res.Lam, 1)
			}
		}
	}
	return res
}

// A line of n pixels starting at (cy,cx) and extending along the columns
func Line(cy, cx, n int) roi.ROI {
	var res roi.ROI
	for i := 0; i < n; i++ {
		res.Ypix = append(res.Ypix, cy)
		res.Xpix = append(res.Xpix, cx+i)
		res.Lam = append(res.Lam, 1)
	}
	return res
}

// n single-pixel ROIs on the diagonal, i.e. ROI k covers pixel (k,k) with weight 1
func SinglePixels(n int) []roi.ROI {
	rois := make([]roi.ROI, n)
	for k := range rois {
		rois[k] = roi.ROI{Ypix: []int{k}, Xpix: []int{k}, Lam: []float64{1}}
	}
	return rois
}

// n random elliptical ROIs within a width x height field, with radii in [minR,maxR]
// and weights falling off from the center like a gaussian. Width and height must exceed 2*maxR
func Random(rng *fastrand.RNG, n, width, height int, minR, maxR float64) []roi.ROI {
	rois := make([]roi.ROI, n)
	for i := range rois {
		ry := minR + (maxR-minR)*uniform(rng)
		rx := minR + (maxR-minR)*uniform(rng)
		cy := int(maxR) + int(rng.Uint32n(uint32(height-2*int(maxR))))
		cx := int(maxR) + int(rng.Uint32n(uint32(width-2*int(maxR))))
		r := Ellipse(cy, cx, ry, rx)
		sigma2 := 0.5 * ry * rx
		for j := range r.Lam {
			dy, dx := float64(r.Ypix[j]-cy), float64(r.Xpix[j]-cx)
			r.Lam[j] = math.Exp(-(dy*dy+dx*dx)/(2*sigma2)) * (0.5 + uniform(rng))
		}
		rois[i] = r
	}
	return rois
}

// Uniform random number in [0,1)
func uniform(rng *fastrand.RNG) float64 {
	return float64(rng.Uint32n(1<<24)) / float64(1<<24)
}
