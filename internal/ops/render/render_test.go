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

package render

import (
	"bytes"
	"image/jpeg"
	"io"
	"path/filepath"
	"testing"

	"github.com/mlnoga/roistats/internal/ops"
	"github.com/mlnoga/roistats/internal/roi"
	"github.com/mlnoga/roistats/internal/synth"
	"golang.org/x/image/tiff"
)

func TestCompactHue(t *testing.T) {
	tcs := []struct {
		compact, hue float64
	}{
		{0.5, hueCompact},
		{1, hueCompact},
		{2, 0.5 * (hueCompact + hueDiffuse)},
		{3, hueDiffuse},
		{10, hueDiffuse},
	}
	for _, tc := range tcs {
		if got := compactHue(tc.compact); got != tc.hue {
			t.Errorf("compactHue(%g)=%g; want %g", tc.compact, got, tc.hue)
		}
	}
}

func TestPaint(t *testing.T) {
	d := synth.Disc(5, 6, 2)
	d.Compact = 1
	rois := []roi.ROI{d, {Ypix: []int{100}, Xpix: []int{100}, Lam: []float64{1}}}
	img, err := Paint(rois, 12, 10)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.RGBAAt(0, 0); c.R != 0 || c.G != 0 || c.B != 0 || c.A != 255 {
		t.Errorf("background %v; want opaque black", c)
	}
	if c := img.RGBAAt(6, 5); c.G <= c.R || c.G <= c.B {
		t.Errorf("compact ROI center %v; want green dominant", c)
	}
	if _, err := Paint(nil, 0, 0); err != ErrNoPixels {
		t.Errorf("empty canvas error %v; want %v", err, ErrNoPixels)
	}
}

func TestBounds(t *testing.T) {
	w, h := Bounds([]roi.ROI{synth.Disc(10, 20, 3)})
	if w != 24 || h != 14 {
		t.Errorf("bounds %dx%d; want 24x14", w, h)
	}
}

func TestEncoders(t *testing.T) {
	img, err := Paint([]roi.ROI{synth.Disc(8, 8, 4)}, 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteJPG(&buf, img, 90); err != nil {
		t.Fatal(err)
	}
	if cfg, err := jpeg.DecodeConfig(&buf); err != nil || cfg.Width != 16 || cfg.Height != 16 {
		t.Errorf("jpeg config %+v err %v", cfg, err)
	}
	buf.Reset()
	if err := WriteTIFF(&buf, img); err != nil {
		t.Fatal(err)
	}
	if cfg, err := tiff.DecodeConfig(&buf); err != nil || cfg.Width != 16 || cfg.Height != 16 {
		t.Errorf("tiff config %+v err %v", cfg, err)
	}
}

func TestOpRender(t *testing.T) {
	dir := t.TempDir()
	c := ops.NewContext(io.Discard)
	rois := []roi.ROI{synth.Disc(8, 8, 4)}
	for _, name := range []string{"out.jpg", "out.tiff"} {
		if _, err := NewOpRender(filepath.Join(dir, name)).Apply(rois, c); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := NewOpRender(filepath.Join(dir, "out.bmp")).Apply(rois, c); err == nil {
		t.Errorf("unknown suffix did not fail")
	}
}
