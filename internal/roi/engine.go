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
	"errors"
	"fmt"
	"io"

	"github.com/mlnoga/roistats/internal/ellipse"
	"github.com/mlnoga/roistats/internal/mask"
	"github.com/mlnoga/roistats/internal/stats"
)

const (
	RefSubsetSize  = 100   // Number of leading ROIs used as normalization reference
	CompactEpsilon = 1e-10 // Guards divisions by the reference spreads
	AspectEpsilon  = 0.01  // Guards the aspect ratio for degenerate ellipses
	FitSigmas      = 2.0   // Ellipse radius in standard deviations of the fitted gaussian
	histogramBins  = 32    // Bins of the logged compactness histogram
)

// Computes shape and quality statistics for a collection of ROIs
type Engine struct {
	Scale      [2]float64      // Shape scale (rows, cols)
	Profile    []float64       // Sorted radii of the circular reference mask
	Estimator  CenterEstimator // Center estimator for the mean radial spread
	MaxThreads int             // Concurrency limit for the per-ROI pass
	Log        io.Writer       // Progress output
}

// Creates an engine for the given options. Derives the shape scale and the reference profile once
func NewEngine(opts Options, maxThreads int, log io.Writer) (*Engine, error) {
	scale, err := opts.ShapeScale()
	if err != nil {
		return nil, err
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	if log == nil {
		log = io.Discard
	}
	return &Engine{
		Scale:      scale,
		Profile:    mask.CircleMask(mask.DefaultHalfSize, mask.DefaultHalfSize).SortedProfile(),
		Estimator:  MedianCenter,
		MaxThreads: maxThreads,
		Log:        log,
	}, nil
}

// Computes statistics for all ROIs, modifying them in place. Returns the same slice.
// Per-ROI statistics are computed first, then npix and mrs are normalized against the reference subset
func (e *Engine) Stats(rois []ROI) ([]ROI, error) {
	fmt.Fprintf(e.Log, "Computing statistics for %d ROIs with shape scale %v using %d threads...\n",
		len(rois), e.Scale, e.MaxThreads)
	raw, err := e.FirstPass(rois)
	if err != nil {
		return nil, err
	}
	Normalize(rois, raw)

	compact := make([]float64, len(rois))
	for i := range rois {
		compact[i] = rois[i].Compact
	}
	basic := stats.CalcBasic(compact)
	fmt.Fprintf(e.Log, "Compactness %v\n", basic)
	if basic.Max > basic.Min {
		bins := make([]int, histogramBins)
		stats.Histogram(compact, basic.Min, basic.Max, bins)
		peak, count := stats.GetPeak(bins, basic.Min, basic.Max)
		fmt.Fprintf(e.Log, "Compactness histogram peak at %.4g with %d ROIs\n", peak, count)
	}
	return rois, nil
}

// Computes the per-ROI statistics in parallel and returns the raw mean radial spread of each ROI.
// Returns after all ROIs have been processed. Errors of individual ROIs are joined
func (e *Engine) FirstPass(rois []ROI) (raw []float64, err error) {
	raw = make([]float64, len(rois))
	limiter := make(chan bool, e.MaxThreads)
	errs := make(chan error, len(rois))
	for i := range rois {
		limiter <- true
		go func(i int) {
			defer func() { <-limiter }()
			mrs, err := e.roiStats(&rois[i])
			if err != nil {
				errs <- fmt.Errorf("roi %d: %w", i, err)
				return
			}
			raw[i] = mrs
			errs <- nil
		}(i)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}
	for i := 0; i < len(rois); i++ { // collect errors
		roiErr := <-errs
		if roiErr != nil {
			if err == nil {
				err = roiErr
			} else {
				err = errors.New(fmt.Sprintf("%s; %s", err.Error(), roiErr.Error()))
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Computes the statistics of a single ROI in place, and returns its raw mean radial spread
func (e *Engine) roiStats(r *ROI) (float64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	ys, xs := r.Rows(), r.Cols()

	// compactness, relative to the smallest radii of a circular mask with the same pixel count
	mrs := MeanRadialSpread(ys, xs, e.Estimator)
	r.MRS = mrs
	r.MRS0 = mask.PrefixMean(e.Profile, len(ys))
	r.Compact = r.MRS / (CompactEpsilon + r.MRS0)

	// centroid is recomputed even if present
	r.Med = &[2]float64{stats.Median(ys), stats.Median(xs)}
	r.Npix = len(ys)

	if r.Footprint == nil {
		footprint := 0.0
		r.Footprint = &footprint
	}

	if r.Radius == nil {
		for i := range ys {
			ys[i] /= e.Scale[0]
			xs[i] /= e.Scale[1]
		}
		fit, err := ellipse.FitMVGaus(ys, xs, r.Lam, FitSigmas)
		if err != nil {
			return 0, err
		}
		major, minor := fit.Radii[0], fit.Radii[1]
		radius := major * stats.Mean(e.Scale[:])
		aspect := 2 * major / (AspectEpsilon + major + minor)
		r.Radius, r.AspectRatio = &radius, &aspect
	}
	return mrs, nil
}

// Normalizes pixel counts and mean radial spreads against the first RefSubsetSize ROIs.
// npix_norm is the pixel count over the mean reference pixel count, in float32.
// mrs is divided by the NaN-ignoring median of the raw reference spreads. The stored field is divided,
// so normalizing already normalized ROIs divides again
func Normalize(rois []ROI, raw []float64) {
	n := len(rois)
	if n == 0 {
		return
	}
	ref := n
	if ref > RefSubsetSize {
		ref = RefSubsetSize
	}

	npix := make([]float32, n)
	for i := range rois {
		npix[i] = float32(rois[i].Npix)
	}
	meanNpix := stats.MeanFloat32(npix[:ref])

	refRaw := raw
	if len(refRaw) > ref {
		refRaw = refRaw[:ref]
	}
	medianMRS := stats.NanMedian(refRaw)

	for i := range rois {
		rois[i].MRS = rois[i].MRS / (CompactEpsilon + medianMRS)
		rois[i].NpixNorm = npix[i] / meanNpix
	}
}
