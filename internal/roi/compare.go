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
	"fmt"
	"math"
)

// Default tolerances for comparing ROI statistics against ground truth
const (
	DefaultRtol = 1e-6
	DefaultAtol = 5e-2
)

// True if |a-b| <= atol + rtol*|b| for all elements. NaNs never compare equal
func AllClose(a, b []float64, rtol, atol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !(math.Abs(a[i]-b[i]) <= atol+rtol*math.Abs(b[i])) {
			return false
		}
	}
	return true
}

// Compares got against want, key by key for every field present in want.
// Returns an error naming the first ROI and key which differ
func Compare(want, got []ROI, rtol, atol float64) error {
	if len(want) != len(got) {
		return fmt.Errorf("got %d ROIs; want %d", len(got), len(want))
	}
	for i := range want {
		for _, f := range fields(&want[i]) {
			g, ok := fieldValues(&got[i], f.key)
			if !ok {
				return fmt.Errorf("roi %d: key %s missing", i, f.key)
			}
			if !AllClose(g, f.values, rtol, atol) {
				return fmt.Errorf("roi %d: key %s got %v; want %v", i, f.key, g, f.values)
			}
		}
	}
	return nil
}

type field struct {
	key    string
	values []float64
}

// Keys in wire order
var fieldKeys = []string{"ypix", "xpix", "lam", "npix", "npix_norm", "med", "footprint",
	"mrs", "mrs0", "compact", "radius", "aspect_ratio"}

// Returns all fields present in r, as float64 slices
func fields(r *ROI) []field {
	fs := make([]field, 0, len(fieldKeys))
	for _, k := range fieldKeys {
		if v, ok := fieldValues(r, k); ok {
			fs = append(fs, field{k, v})
		}
	}
	return fs
}

// Returns the values of the field with the given key, and false if absent
func fieldValues(r *ROI, key string) ([]float64, bool) {
	switch key {
	case "ypix":
		return r.Rows(), true
	case "xpix":
		return r.Cols(), true
	case "lam":
		return r.Lam, true
	case "npix":
		return []float64{float64(r.Npix)}, true
	case "npix_norm":
		return []float64{float64(r.NpixNorm)}, true
	case "med":
		if r.Med == nil {
			return nil, false
		}
		return r.Med[:], true
	case "footprint":
		return optional(r.Footprint)
	case "mrs":
		return []float64{r.MRS}, true
	case "mrs0":
		return []float64{r.MRS0}, true
	case "compact":
		return []float64{r.Compact}, true
	case "radius":
		return optional(r.Radius)
	case "aspect_ratio":
		return optional(r.AspectRatio)
	}
	return nil, false
}

func optional(f *float64) ([]float64, bool) {
	if f == nil {
		return nil, false
	}
	return []float64{*f}, true
}
