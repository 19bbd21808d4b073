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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// A set of ROIs with optional options, as read from file or received via REST
type Dataset struct {
	Ops  *Options `json:"ops,omitempty"`
	Stat []ROI    `json:"stat"`
}

// Reads ROIs from JSON. Accepts a plain array of records, or an object with "ops" and "stat" keys
func ReadJSON(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty ROI input")
	}
	ds := &Dataset{}
	if trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &ds.Stat)
	} else {
		err = json.Unmarshal(trimmed, ds)
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Reads ROIs from a JSON file
func ReadJSONFile(fileName string) (*Dataset, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := ReadJSON(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	return ds, nil
}

// Writes ROIs as an indented JSON array of records
func WriteJSON(w io.Writer, rois []ROI) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if rois == nil {
		rois = []ROI{}
	}
	return enc.Encode(rois)
}

// Writes ROIs as JSON array of records to the given file
func WriteJSONFile(fileName string, rois []ROI) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	if err := WriteJSON(writer, rois); err != nil {
		return err
	}
	return writer.Flush()
}

// Writes the scalar statistics of the given ROIs as CSV, one line per ROI
func WriteCSV(w io.Writer, rois []ROI) error {
	if _, err := fmt.Fprintln(w, "ID,Npix,NpixNorm,MedY,MedX,Footprint,MRS,MRS0,Compact,Radius,AspectRatio"); err != nil {
		return err
	}
	for i, r := range rois {
		med := [2]float64{math.NaN(), math.NaN()}
		if r.Med != nil {
			med = *r.Med
		}
		_, err := fmt.Fprintf(w, "%d,%d,%g,%g,%g,%g,%g,%g,%g,%g,%g\n", i, r.Npix, r.NpixNorm, med[0], med[1],
			orNaN(r.Footprint), r.MRS, r.MRS0, r.Compact, orNaN(r.Radius), orNaN(r.AspectRatio))
		if err != nil {
			return err
		}
	}
	return nil
}

// Writes CSV statistics to the given file
func WriteCSVFile(fileName string, rois []ROI) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	if err := WriteCSV(writer, rois); err != nil {
		return err
	}
	return writer.Flush()
}

func orNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}
