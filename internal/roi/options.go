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
	"strconv"
	"strings"
)

var ErrNoShapeScale = errors.New("neither aspect nor diameter configured")

// Expected cell diameter in pixels, as (rows, cols). Zero means not configured
type Diameter [2]int

// True if a diameter has been configured
func (d Diameter) IsSet() bool { return d[0] != 0 || d[1] != 0 }

func (d Diameter) String() string {
	if d[0] == d[1] {
		return strconv.Itoa(d[0])
	}
	return fmt.Sprintf("%d,%d", d[0], d[1])
}

// Parses a diameter from a flag value, either "10" or "10,12"
func (d *Diameter) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return fmt.Errorf("diameter '%s' has more than two elements", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("diameter '%s': %w", s, err)
		}
		d[i] = v
	}
	if len(parts) == 1 {
		d[1] = d[0]
	}
	return nil
}

// Unmarshals a diameter from JSON, either a scalar broadcast to both axes or a pair
func (d *Diameter) UnmarshalJSON(data []byte) error {
	var scalar int
	if err := json.Unmarshal(data, &scalar); err == nil {
		*d = Diameter{scalar, scalar}
		return nil
	}
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("diameter must be an int or a pair of ints: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("diameter has %d elements; want 2", len(pair))
	}
	*d = Diameter{pair[0], pair[1]}
	return nil
}

func (d Diameter) MarshalJSON() ([]byte, error) {
	if d[0] == d[1] {
		return json.Marshal(d[0])
	}
	return json.Marshal([]int{d[0], d[1]})
}

// Configuration for ROI statistics
type Options struct {
	Aspect   *float64 `json:"aspect,omitempty"` // Ratio of row to column pixel size. Overrides Diameter
	Diameter Diameter `json:"diameter"`         // Expected cell diameter, used if Aspect is absent
}

// Returns per-axis scale factors (rows, cols) that compensate for anisotropic pixels before ellipse fitting
func (o *Options) ShapeScale() ([2]float64, error) {
	var scale [2]float64
	if o.Aspect != nil {
		scale = [2]float64{math.Round(*o.Aspect * 10), 10}
	} else if o.Diameter.IsSet() {
		scale = [2]float64{float64(o.Diameter[0]), float64(o.Diameter[1])}
	} else {
		return scale, ErrNoShapeScale
	}
	if scale[0] <= 0 || scale[1] <= 0 {
		return scale, fmt.Errorf("shape scale %v must be positive", scale)
	}
	return scale, nil
}
