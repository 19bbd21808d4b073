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

package ops

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlnoga/roistats/internal/roi"
	"github.com/mlnoga/roistats/internal/synth"
)

func testContext() *Context {
	c := NewContext(io.Discard)
	if c.MaxThreads < 1 {
		c.MaxThreads = 1
	}
	return c
}

func TestNewContext(t *testing.T) {
	c := NewContext(io.Discard)
	if c.MaxThreads < 1 {
		t.Errorf("max threads %d; want at least 1", c.MaxThreads)
	}
	if c.MemoryMB < 0 {
		t.Errorf("memory %d MB; want non-negative", c.MemoryMB)
	}
}

func TestIsPathAllowed(t *testing.T) {
	tcs := []struct {
		path string
		ok   bool
	}{
		{"out.json", true},
		{"sub/dir/out.csv", true},
		{"/etc/passwd", false},
		{"../out.json", false},
		{"sub/../../out.json", false},
	}
	for _, tc := range tcs {
		if got := IsPathAllowed(tc.path); got != tc.ok {
			t.Errorf("IsPathAllowed(%q)=%v; want %v", tc.path, got, tc.ok)
		}
	}
}

func TestSequenceJSON(t *testing.T) {
	aspect := 1.5
	seq := NewOpSequence(NewOpLoad("in.json"), NewOpStats(roi.Options{Aspect: &aspect}), NewOpSave("out.csv"))
	bs, err := json.Marshal(seq)
	if err != nil {
		t.Fatal(err)
	}
	var got OpSequence
	if err := json.Unmarshal(bs, &got); err != nil {
		t.Fatalf("%v in %s", err, string(bs))
	}
	if len(got.Steps) != 3 {
		t.Fatalf("got %d steps; want 3", len(got.Steps))
	}
	wantTypes := []string{"load", "stats", "save"}
	for i, step := range got.Steps {
		if step.GetType() != wantTypes[i] {
			t.Errorf("step %d type %s; want %s", i, step.GetType(), wantTypes[i])
		}
	}
	if l := got.Steps[0].(*OpLoad); l.FileName != "in.json" {
		t.Errorf("load file name %q", l.FileName)
	}
	if s := got.Steps[1].(*OpStats); s.Options.Aspect == nil || *s.Options.Aspect != aspect {
		t.Errorf("stats options %+v", s.Options)
	}
}

func TestSequenceJSONUnknownType(t *testing.T) {
	var seq OpSequence
	err := json.Unmarshal([]byte(`{"type":"seq","active":true,"steps":[{"type":"nope","active":true}]}`), &seq)
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("unknown operator type error %v", err)
	}
}

func TestLoadStatsSave(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")

	f, err := os.Create(in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"ops":{"diameter":12},"stat":`); err != nil {
		t.Fatal(err)
	}
	if err := roi.WriteJSON(f, synth.SinglePixels(5)); err != nil {
		t.Fatal(err)
	}
	f.WriteString("}")
	f.Close()

	c := testContext()
	seq := NewOpSequence(NewOpLoad(in), NewOpStatsDefault(), NewOpSave(out))
	rois, err := seq.Apply(nil, c)
	if err != nil {
		t.Fatal(err)
	}
	if c.Options == nil || c.Options.Diameter != (roi.Diameter{12, 12}) {
		t.Errorf("context options %+v; want diameter 12", c.Options)
	}
	if len(rois) != 5 || rois[0].NpixNorm != 1 {
		t.Errorf("got %d ROIs, first npix_norm %f", len(rois), rois[0].NpixNorm)
	}

	ds, err := roi.ReadJSONFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := roi.Compare(rois, ds.Stat, roi.DefaultRtol, roi.DefaultAtol); err != nil {
		t.Error(err)
	}
}

func TestStatsWithoutScaleFails(t *testing.T) {
	_, err := NewOpStatsDefault().Apply(synth.SinglePixels(2), testContext())
	if err == nil {
		t.Errorf("stats without aspect or diameter did not fail")
	}
}

func TestSandboxedPaths(t *testing.T) {
	c := testContext()
	c.Sandboxed = true
	if _, err := NewOpLoad("/etc/passwd").Apply(nil, c); err == nil {
		t.Errorf("sandboxed load of absolute path did not fail")
	}
	if _, err := NewOpSave("../x.json").Apply(synth.SinglePixels(1), c); err == nil {
		t.Errorf("sandboxed save to parent directory did not fail")
	}
}

func TestSaveUnknownSuffix(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out.xyz")
	if _, err := NewOpSave(name).Apply(synth.SinglePixels(1), testContext()); err == nil {
		t.Errorf("save with unknown suffix did not fail")
	}
}
