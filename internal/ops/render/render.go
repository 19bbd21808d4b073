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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"os"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mlnoga/roistats/internal/ops"
	"github.com/mlnoga/roistats/internal/roi"
	"golang.org/x/image/tiff"
)

var ErrNoPixels = errors.New("no ROI pixels to render")

const (
	hueCompact   = 140.0 // green for perfectly compact ROIs
	hueDiffuse   = 0.0   // red at and beyond compactRange
	compactRange = 2.0   // compactness span mapped onto the hue ramp, starting at 1
	chroma       = 0.6
	minLightness = 0.3
	maxLightness = 0.85
)

// Returns the hue for a given compactness. Values of 1 and below map to
// hueCompact, values of 1+compactRange and above to hueDiffuse. NaN maps to hueDiffuse
func compactHue(compact float64) float64 {
	if math.IsNaN(compact) {
		return hueDiffuse
	}
	t := (compact - 1) / compactRange
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return hueCompact + t*(hueDiffuse-hueCompact)
}

// Returns the smallest canvas size covering all ROI pixels
func Bounds(rois []roi.ROI) (width, height int) {
	for i := range rois {
		for _, y := range rois[i].Ypix {
			if y+1 > height {
				height = y + 1
			}
		}
		for _, x := range rois[i].Xpix {
			if x+1 > width {
				width = x + 1
			}
		}
	}
	return width, height
}

// Paints ROI footprints onto a black canvas. Hue encodes compactness, lightness
// the pixel weight relative to the ROI maximum. Later ROIs overwrite earlier ones.
// Pixels outside the canvas are skipped
func Paint(rois []roi.ROI, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrNoPixels
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}

	for i := range rois {
		r := &rois[i]
		hue := compactHue(r.Compact)
		maxLam := 0.0
		for _, l := range r.Lam {
			if l > maxLam {
				maxLam = l
			}
		}
		for j, y := range r.Ypix {
			if j >= len(r.Xpix) {
				break
			}
			x := r.Xpix[j]
			if y < 0 || y >= height || x < 0 || x >= width {
				continue
			}
			w := 1.0
			if maxLam > 0 && j < len(r.Lam) {
				w = r.Lam[j] / maxLam
				if w < 0 {
					w = 0
				}
			}
			c := colorful.Hcl(hue, chroma, minLightness+w*(maxLightness-minLightness)).Clamped()
			r8, g8, b8 := c.RGB255()
			img.SetRGBA(x, y, color.RGBA{r8, g8, b8, 255})
		}
	}
	return img, nil
}

// Write an image to JPG with the given quality
func WriteJPG(writer io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}

// Write an image to uncompressed TIFF
func WriteTIFF(writer io.Writer, img image.Image) error {
	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Uncompressed, Predictor: false})
}

// Write an image to file, as JPG or TIFF depending on the suffix
func WriteToFile(fileName string, img image.Image, quality int) error {
	fnLower := strings.ToLower(fileName)
	isJPG := strings.HasSuffix(fnLower, ".jpg") || strings.HasSuffix(fnLower, ".jpeg")
	isTIFF := strings.HasSuffix(fnLower, ".tif") || strings.HasSuffix(fnLower, ".tiff")
	if !isJPG && !isTIFF {
		return fmt.Errorf("unknown image suffix in %s", fileName)
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if isJPG {
		err = WriteJPG(writer, img, quality)
	} else {
		err = WriteTIFF(writer, img)
	}
	if err != nil {
		return err
	}
	return writer.Flush()
}

// Renders ROI footprints to an image file. Returns the unchanged input
type OpRender struct {
	ops.OpBase
	FileName string `json:"fileName"`
	Width    int    `json:"width"`  // 0 derives the width from the ROI pixels
	Height   int    `json:"height"` // 0 derives the height from the ROI pixels
	Quality  int    `json:"quality"`
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpRenderDefault() }) } // register the operator for JSON decoding

func NewOpRenderDefault() *OpRender { return NewOpRender("") }

func NewOpRender(fileName string) *OpRender {
	return &OpRender{
		OpBase:   ops.OpBase{Type: "render", Active: true},
		FileName: fileName,
		Quality:  95,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpRender) UnmarshalJSON(data []byte) error {
	type defaults OpRender
	def := defaults(*NewOpRenderDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpRender(def)
	return nil
}

func (op *OpRender) Apply(rois []roi.ROI, c *ops.Context) ([]roi.ROI, error) {
	if !op.Active || op.FileName == "" {
		return rois, nil
	}
	if err := c.CheckPath(op.FileName); err != nil {
		return nil, err
	}
	width, height := op.Width, op.Height
	if width <= 0 || height <= 0 {
		bw, bh := Bounds(rois)
		if width <= 0 {
			width = bw
		}
		if height <= 0 {
			height = bh
		}
	}
	img, err := Paint(rois, width, height)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "Rendering %d ROIs at %dx%d to %s\n", len(rois), width, height, op.FileName)
	if err = WriteToFile(op.FileName, img, op.Quality); err != nil {
		return nil, fmt.Errorf("error writing to file %s: %w", op.FileName, err)
	}
	return rois, nil
}
