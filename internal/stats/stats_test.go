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
	"math"
	"testing"
)

func TestNanMedian(t *testing.T) {
	nan := math.NaN()
	tcs := []struct {
		in   []float64
		want float64
	}{
		{[]float64{1, 2, 3}, 2},
		{[]float64{1, nan, 3}, 2},
		{[]float64{nan, 4, nan, 1, 2, 3}, 2.5},
		{[]float64{nan}, nan},
		{nil, nan},
	}
	for _, tc := range tcs {
		got := NanMedian(tc.in)
		if math.IsNaN(tc.want) {
			if !math.IsNaN(got) {
				t.Errorf("NanMedian(%v)=%f; want NaN", tc.in, got)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("NanMedian(%v)=%f; want %f", tc.in, got, tc.want)
		}
	}
}

func TestMedianDoesNotModifyInput(t *testing.T) {
	in := []float64{5, 4, 3, 2, 1}
	if got := Median(in); got != 3 {
		t.Errorf("Median=%f; want 3", got)
	}
	for i, v := range in {
		if v != float64(5-i) {
			t.Fatalf("input modified at %d: %v", i, in)
		}
	}
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("Mean=%f; want 2.5", got)
	}
	if got := Mean(nil); !math.IsNaN(got) {
		t.Errorf("Mean(nil)=%f; want NaN", got)
	}
	if got := MeanFloat32([]float32{2, 4}); got != 3 {
		t.Errorf("MeanFloat32=%f; want 3", got)
	}
}

func TestCalcBasic(t *testing.T) {
	s := CalcBasic([]float64{1, math.NaN(), 3, 5})
	if s.Min != 1 || s.Max != 5 || s.Mean != 3 || s.Median != 3 {
		t.Errorf("CalcBasic=%v; want min 1 max 5 mean 3 median 3", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(8.0/3.0)) > 1e-12 {
		t.Errorf("StdDev=%f; want %f", s.StdDev, math.Sqrt(8.0/3.0))
	}
}
