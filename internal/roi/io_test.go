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
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadJSONFormats(t *testing.T) {
	tcs := []struct {
		name     string
		in       string
		numROIs  int
		hasOps   bool
		diameter Diameter
	}{
		{"array", `[{"ypix":[1,2],"xpix":[3,4],"lam":[0.5,1]}]`, 1, false, Diameter{}},
		{"ops and stat", `{"ops":{"diameter":[8,10]},"stat":[{"ypix":[1],"xpix":[1],"lam":[1]},{"ypix":[2],"xpix":[2],"lam":[1]}]}`, 2, true, Diameter{8, 10}},
		{"leading whitespace", "\n  []", 0, false, Diameter{}},
	}
	for _, tc := range tcs {
		ds, err := ReadJSON(strings.NewReader(tc.in))
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if len(ds.Stat) != tc.numROIs || (ds.Ops != nil) != tc.hasOps {
			t.Errorf("%s: %d ROIs ops %v; want %d ROIs ops %v", tc.name, len(ds.Stat), ds.Ops, tc.numROIs, tc.hasOps)
		}
		if tc.hasOps && ds.Ops.Diameter != tc.diameter {
			t.Errorf("%s: diameter %v; want %v", tc.name, ds.Ops.Diameter, tc.diameter)
		}
	}
	if _, err := ReadJSON(strings.NewReader("   ")); err == nil {
		t.Errorf("empty input did not fail")
	}
}

func TestWriteJSONNaNAsNull(t *testing.T) {
	radius := 2.5
	rois := []ROI{{Ypix: []int{1}, Xpix: []int{2}, Lam: []float64{1}, Npix: 1, NpixNorm: 1,
		MRS: math.NaN(), MRS0: 0, Compact: math.Inf(1), Radius: &radius}}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, rois); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"mrs": null`, `"compact": null`, `"radius": 2.5`, `"npix_norm": 1`} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "aspect_ratio") || strings.Contains(out, "footprint") {
		t.Errorf("absent fields written:\n%s", out)
	}

	ds, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	back := ds.Stat[0]
	if !math.IsNaN(back.MRS) || !math.IsNaN(back.Compact) || back.MRS0 != 0 || *back.Radius != 2.5 || back.AspectRatio != nil {
		t.Errorf("read back %+v", back)
	}
}

func TestFileRoundTrip(t *testing.T) {
	e, err := NewEngine(Options{Diameter: Diameter{10, 10}}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	rois, err := e.Stats([]ROI{
		{Ypix: []int{1, 1, 2, 2, 3}, Xpix: []int{4, 5, 4, 5, 9}, Lam: []float64{1, 2, 3, 4, 0.5}},
		{Ypix: []int{10, 11, 12}, Xpix: []int{10, 10, 10}, Lam: []float64{1, 1, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	fileName := filepath.Join(t.TempDir(), "stat.json")
	if err := WriteJSONFile(fileName, rois); err != nil {
		t.Fatal(err)
	}
	ds, err := ReadJSONFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if err := Compare(rois, ds.Stat, DefaultRtol, 1e-12); err != nil {
		t.Error(err)
	}
}

func TestWriteCSV(t *testing.T) {
	footprint := 0.0
	rois := []ROI{{Npix: 3, NpixNorm: 1.5, Med: &[2]float64{2, 4}, Footprint: &footprint, MRS: 1, MRS0: 0.5, Compact: 2}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rois); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines; want 2", len(lines))
	}
	if want := "0,3,1.5,2,4,0,1,0.5,2,NaN,NaN"; lines[1] != want {
		t.Errorf("got %s; want %s", lines[1], want)
	}
}
