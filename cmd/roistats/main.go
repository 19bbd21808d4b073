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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	rs "github.com/mlnoga/roistats/internal"
	"github.com/mlnoga/roistats/internal/ops"
	"github.com/mlnoga/roistats/internal/ops/export"
	"github.com/mlnoga/roistats/internal/ops/render"
	"github.com/mlnoga/roistats/internal/rest"
	"github.com/mlnoga/roistats/internal/roi"
	"github.com/mlnoga/roistats/internal/synth"
	"github.com/valyala/fastrand"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out = flag.String("out", "out.json", "save output ROIs as JSON or CSV to `file`, depending on suffix")
var csv = flag.String("csv", "", "additionally save ROI statistics as CSV to `file`")
var html = flag.String("html", "", "save an interactive chart of ROI statistics as HTML to `file`")
var img = flag.String("img", "", "render ROIs colored by compactness as JPEG or TIFF to `file`, depending on suffix")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")

var aspect = flag.Float64("aspect", -1, "ratio of row to column pixel size for ellipse fitting, overrides diameter. <0: unset")
var diameter roi.Diameter
var threads = flag.Int("threads", 0, "number of threads for per-ROI statistics, 0=auto")

var n = flag.Int("n", 100, "number of ROIs to synthesize")
var seed = flag.Uint("seed", 0, "random seed for synthesizing ROIs, 0=random")
var width = flag.Int("width", 512, "field width in pixels for synthesizing and rendering ROIs")
var height = flag.Int("height", 512, "field height in pixels for synthesizing and rendering ROIs")
var minR = flag.Float64("minR", 2, "minimum semi-axis in pixels for synthesized ROIs")
var maxR = flag.Float64("maxR", 8, "maximum semi-axis in pixels for synthesized ROIs")

var rtol = flag.Float64("rtol", roi.DefaultRtol, "relative tolerance for comparing ROI statistics")
var atol = flag.Float64("atol", roi.DefaultAtol, "absolute tolerance for comparing ROI statistics")

var addr = flag.String("addr", ":8080", "listen address for the REST service")
var chroot = flag.String("chroot", "", "change filesystem root to `dir` before serving (requires root)")
var setuid = flag.Int("setuid", -1, "change user id to `uid` before serving, <0: keep")

func init() {
	flag.Var(&diameter, "diameter", "expected cell diameter in pixels for ellipse fitting, as `d` or `dy,dx`")
}

func main() {
	logWriter := rs.LogWriter()
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `roistats Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (stats|synth|compare|render|serve|legal|version) (args)

Commands:
  stats   Compute ROI statistics for a JSON dataset (in.json)
  synth   Synthesize random elliptical ROIs
  compare Compare statistics of two JSON datasets (want.json got.json)
  render  Render ROIs of a JSON dataset colored by compactness (in.json)
  serve   Serve the REST API
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}
	if args[0] == "legal" || args[0] == "version" || args[0] == "help" || args[0] == "?" {
		*log = ""
	}
	if *log != "" {
		if err := rs.LogAlsoToFile(*log); err != nil {
			rs.LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			rs.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			rs.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	c := ops.NewContext(logWriter)
	if *threads > 0 {
		c.MaxThreads = *threads
	}

	var err error
	switch args[0] {
	case "stats":
		fmt.Fprintf(logWriter, "Running on %s\n", c)
		err = cmdStats(args[1:], c)

	case "synth":
		err = cmdSynth(c)

	case "compare":
		err = cmdCompare(args[1:], c)

	case "render":
		err = cmdRender(args[1:], c)

	case "serve":
		fmt.Fprintf(logWriter, "Running on %s\n", c)
		if err = rest.MakeSandbox(logWriter, *chroot, *setuid); err == nil {
			err = rest.Serve(*addr, c.MaxThreads)
		}

	case "legal":
		fmt.Fprint(logWriter, legal)
		return

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)
		return

	case "help", "?":
		flag.Usage()
		return

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	elapsed := time.Since(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			rs.LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			rs.LogFatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		rs.LogFatalf("Error: %s\n", err.Error())
	}
	rs.LogSync()
}

// Returns ROI options from the command line flags
func flagOptions() roi.Options {
	var opts roi.Options
	if *aspect >= 0 {
		a := *aspect
		opts.Aspect = &a
	}
	opts.Diameter = diameter
	return opts
}

// Compute statistics for a single JSON dataset
func cmdStats(args []string, c *ops.Context) error {
	if len(args) != 1 {
		return fmt.Errorf("need exactly one input file, got %d", len(args))
	}
	seq := ops.NewOpSequence(
		ops.NewOpLoad(args[0]),
		ops.NewOpStats(flagOptions()),
		ops.NewOpSave(*out),
		ops.NewOpSave(*csv),
	)
	if *html != "" {
		seq.Append(export.NewOpExportStats(*html))
	}
	if *img != "" {
		seq.Append(render.NewOpRender(*img))
	}

	m, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Log, "\nProcessing with these settings:\n%s\n", string(m))

	_, err = seq.Apply(nil, c)
	return err
}

// Synthesize random elliptical ROIs and save them
func cmdSynth(c *ops.Context) error {
	if *width <= 2*int(*maxR) || *height <= 2*int(*maxR) {
		return fmt.Errorf("field %dx%d too small for maximum radius %g", *width, *height, *maxR)
	}
	if *minR <= 0 || *minR > *maxR {
		return fmt.Errorf("invalid radius range [%g,%g]", *minR, *maxR)
	}
	var rng fastrand.RNG
	if *seed != 0 {
		rng.Seed(uint32(*seed))
	}
	rois := synth.Random(&rng, *n, *width, *height, *minR, *maxR)
	fmt.Fprintf(c.Log, "Synthesized %d ROIs in a %dx%d field\n", len(rois), *width, *height)
	_, err := ops.NewOpSave(*out).Apply(rois, c)
	return err
}

// Compare statistics of a reference and a candidate dataset
func cmdCompare(args []string, c *ops.Context) error {
	if len(args) != 2 {
		return fmt.Errorf("need exactly two input files, got %d", len(args))
	}
	want, err := roi.ReadJSONFile(args[0])
	if err != nil {
		return err
	}
	got, err := roi.ReadJSONFile(args[1])
	if err != nil {
		return err
	}
	if err = roi.Compare(want.Stat, got.Stat, *rtol, *atol); err != nil {
		return err
	}
	fmt.Fprintf(c.Log, "%d ROIs match within rtol=%g atol=%g\n", len(want.Stat), *rtol, *atol)
	return nil
}

// Render the ROIs of a dataset to an image
func cmdRender(args []string, c *ops.Context) error {
	if len(args) != 1 {
		return fmt.Errorf("need exactly one input file, got %d", len(args))
	}
	if *img == "" {
		return fmt.Errorf("no image file given, use -img")
	}
	op := render.NewOpRender(*img)
	flag.Visit(func(f *flag.Flag) { // canvas size defaults to the ROI bounds unless given
		if f.Name == "width" {
			op.Width = *width
		} else if f.Name == "height" {
			op.Height = *height
		}
	})
	_, err := ops.NewOpSequence(ops.NewOpLoad(args[0]), op).Apply(nil, c)
	return err
}
