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
	"testing"
)

func TestShapeScale(t *testing.T) {
	aspect := 1.24
	half := 0.04
	tcs := []struct {
		name  string
		opts  Options
		scale [2]float64
		fails bool
	}{
		{"aspect", Options{Aspect: &aspect}, [2]float64{12, 10}, false},
		{"aspect overrides diameter", Options{Aspect: &aspect, Diameter: Diameter{7, 7}}, [2]float64{12, 10}, false},
		{"scalar diameter", Options{Diameter: Diameter{10, 10}}, [2]float64{10, 10}, false},
		{"pair diameter", Options{Diameter: Diameter{8, 12}}, [2]float64{8, 12}, false},
		{"neither", Options{}, [2]float64{}, true},
		{"degenerate aspect", Options{Aspect: &half}, [2]float64{}, true},
	}
	for _, tc := range tcs {
		scale, err := tc.opts.ShapeScale()
		if tc.fails {
			if err == nil {
				t.Errorf("%s: no error", tc.name)
			}
			continue
		}
		if err != nil || scale != tc.scale {
			t.Errorf("%s: scale %v err %v; want %v", tc.name, scale, err, tc.scale)
		}
	}
}

func TestDiameterJSON(t *testing.T) {
	tcs := []struct {
		in   string
		want Diameter
	}{
		{`{"diameter": 10}`, Diameter{10, 10}},
		{`{"diameter": [6, 9]}`, Diameter{6, 9}},
		{`{"aspect": 1.5}`, Diameter{}},
	}
	for _, tc := range tcs {
		var o Options
		if err := json.Unmarshal([]byte(tc.in), &o); err != nil {
			t.Errorf("%s: %v", tc.in, err)
			continue
		}
		if o.Diameter != tc.want {
			t.Errorf("%s: diameter %v; want %v", tc.in, o.Diameter, tc.want)
		}
	}
	var o Options
	if err := json.Unmarshal([]byte(`{"diameter": [1, 2, 3]}`), &o); err == nil {
		t.Errorf("three element diameter did not fail")
	}
}

func TestDiameterFlag(t *testing.T) {
	var d Diameter
	if err := d.Set("12"); err != nil || d != (Diameter{12, 12}) {
		t.Errorf("Set(12)=%v, %v; want [12 12]", d, err)
	}
	if err := d.Set("5, 7"); err != nil || d != (Diameter{5, 7}) {
		t.Errorf("Set(5, 7)=%v, %v; want [5 7]", d, err)
	}
	if d.String() != "5,7" {
		t.Errorf("String()=%s; want 5,7", d.String())
	}
	if err := d.Set("x"); err == nil {
		t.Errorf("Set(x) did not fail")
	}
}
