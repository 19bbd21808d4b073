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
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrEmptyROI = errors.New("ROI has no pixels")

// A region of interest, as found on an image by segmentation.
// Pixel coordinates and weights are supplied upstream, the remaining fields are derived.
// Pointer fields are optional: nil means absent
type ROI struct {
	Ypix []int     // Pixel rows
	Xpix []int     // Pixel columns
	Lam  []float64 // Pixel weights, aligned with Ypix and Xpix

	Npix     int     // Number of pixels
	NpixNorm float32 // Npix over the mean Npix of the reference subset

	Med       *[2]float64 // Centroid as median row, median column
	Footprint *float64    // Pixel overlap extent. Placeholder 0 if not computed upstream

	MRS     float64 // Mean radial spread, normalized by the median spread of the reference subset
	MRS0    float64 // Mean radial spread of a circular ROI of the same size
	Compact float64 // Raw mean radial spread over MRS0

	Radius      *float64 // Major semi-axis of the fitted ellipse, in pixels
	AspectRatio *float64 // 2*major/(0.01+major+minor), set only when the radius is fitted
}

// Checks that coordinates and weights are aligned and non-empty
func (r *ROI) Validate() error {
	if len(r.Ypix) != len(r.Xpix) || len(r.Ypix) != len(r.Lam) {
		return fmt.Errorf("ROI with %d rows, %d cols and %d weights", len(r.Ypix), len(r.Xpix), len(r.Lam))
	}
	if len(r.Ypix) == 0 {
		return ErrEmptyROI
	}
	return nil
}

// Returns the pixel rows as float64
func (r *ROI) Rows() []float64 { return intsToFloats(r.Ypix) }

// Returns the pixel columns as float64
func (r *ROI) Cols() []float64 { return intsToFloats(r.Xpix) }

func intsToFloats(is []int) []float64 {
	fs := make([]float64, len(is))
	for i, v := range is {
		fs[i] = float64(v)
	}
	return fs
}

// Wire format of a ROI. Keys follow the established array-of-records layout.
// NaN and infinite values are written as null
type roiJSON struct {
	Ypix        []int       `json:"ypix"`
	Xpix        []int       `json:"xpix"`
	Lam         []float64   `json:"lam"`
	Npix        int         `json:"npix"`
	NpixNorm    *float64    `json:"npix_norm"`
	Med         *[2]float64 `json:"med,omitempty"`
	Footprint   *float64    `json:"footprint,omitempty"`
	MRS         *float64    `json:"mrs"`
	MRS0        *float64    `json:"mrs0"`
	Compact     *float64    `json:"compact"`
	Radius      *float64    `json:"radius,omitempty"`
	AspectRatio *float64    `json:"aspect_ratio,omitempty"`
}

func (r ROI) MarshalJSON() ([]byte, error) {
	w := roiJSON{
		Ypix:        r.Ypix,
		Xpix:        r.Xpix,
		Lam:         r.Lam,
		Npix:        r.Npix,
		NpixNorm:    finiteOrNil(float64(r.NpixNorm)),
		Footprint:   r.Footprint,
		MRS:         finiteOrNil(r.MRS),
		MRS0:        finiteOrNil(r.MRS0),
		Compact:     finiteOrNil(r.Compact),
		Radius:      r.Radius,
		AspectRatio: r.AspectRatio,
	}
	if r.Radius != nil {
		w.Radius = finiteOrNil(*r.Radius)
	}
	if r.AspectRatio != nil {
		w.AspectRatio = finiteOrNil(*r.AspectRatio)
	}
	if r.Med != nil && isFinite(r.Med[0]) && isFinite(r.Med[1]) {
		w.Med = r.Med
	}
	return json.Marshal(w)
}

func (r *ROI) UnmarshalJSON(data []byte) error {
	var w roiJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = ROI{
		Ypix:        w.Ypix,
		Xpix:        w.Xpix,
		Lam:         w.Lam,
		Npix:        w.Npix,
		NpixNorm:    float32(nilToNaN(w.NpixNorm)),
		Med:         w.Med,
		Footprint:   w.Footprint,
		MRS:         nilToNaN(w.MRS),
		MRS0:        nilToNaN(w.MRS0),
		Compact:     nilToNaN(w.Compact),
		Radius:      w.Radius,
		AspectRatio: w.AspectRatio,
	}
	return nil
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func finiteOrNil(f float64) *float64 {
	if !isFinite(f) {
		return nil
	}
	return &f
}

func nilToNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}
