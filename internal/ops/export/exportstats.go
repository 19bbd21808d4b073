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

package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mlnoga/roistats/internal/ops"
	"github.com/mlnoga/roistats/internal/roi"
)

// Exports per-ROI statistics as an interactive HTML line chart. Returns the unchanged input
type OpExportStats struct {
	ops.OpBase
	FileName string `json:"fileName"`
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpExportStatsDefault() }) } // register the operator for JSON decoding

func NewOpExportStatsDefault() *OpExportStats { return NewOpExportStats("out.html") }

func NewOpExportStats(fileName string) *OpExportStats {
	return &OpExportStats{
		OpBase:   ops.OpBase{Type: "exportStats", Active: true},
		FileName: fileName,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpExportStats) UnmarshalJSON(data []byte) error {
	type defaults OpExportStats
	def := defaults(*NewOpExportStatsDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpExportStats(def)
	return nil
}

func (op *OpExportStats) Apply(rois []roi.ROI, c *ops.Context) ([]roi.ROI, error) {
	if !op.Active {
		return rois, nil
	}
	if op.FileName == "" {
		fmt.Fprintf(c.Log, "exportStats empty fileName\n")
		return rois, nil
	}
	if err := c.CheckPath(op.FileName); err != nil {
		return nil, err
	}

	fmt.Fprintf(c.Log, "Writing statistics for %d ROIs to file %s ...\n", len(rois), op.FileName)
	file, err := os.Create(op.FileName)
	if err != nil {
		return nil, fmt.Errorf("error creating file %s: %w", op.FileName, err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	if err = WriteStats(w, rois); err != nil {
		return nil, err
	}
	if err = w.Flush(); err != nil {
		return nil, err
	}
	return rois, nil
}

// Writes the HTML chart page for the given ROIs
func WriteStats(w io.Writer, rois []roi.ROI) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(sessionStatsHeader)
	fmt.Fprintf(bw, "[  ['ID','NpixNorm','Compact','MRS','AspectRatio','Radius']\n")
	for i := range rois {
		r := &rois[i]
		fmt.Fprintf(bw, "  ,[%d,%s,%s,%s,%s,%s]\n", i,
			jsNumber(float64(r.NpixNorm)), jsNumber(r.Compact), jsNumber(r.MRS),
			jsNumberPtr(r.AspectRatio), jsNumberPtr(r.Radius))
	}
	fmt.Fprintf(bw, "]")
	bw.WriteString(sessionStatsTrailer)
	return bw.Flush()
}

// Formats a number as a javascript literal, with null for missing values
func jsNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "null"
	}
	return fmt.Sprintf("%g", v)
}

func jsNumberPtr(v *float64) string {
	if v == nil {
		return "null"
	}
	return jsNumber(*v)
}

const sessionStatsHeader = `<html>
  <head>
    <script type="text/javascript" src="https://www.gstatic.com/charts/loader.js"></script>
  </head>
  <body>
    <table height="100%" width="100%"><tr height="100%">
      <td width="90%"><div id="roiStatsChart" style="width: 100%; height: 100%"></div></td>
      <td width="10%"><form><input type="checkbox" id="normalize" name="normalize" checked="true" onchange="toggleNormalize()"><label for="normalize">Normalize</label></form></td>
    </tr></table>
  </body>
  <script type="text/javascript">
google.charts.load('current', {'packages':['corechart']});
google.charts.setOnLoadCallback(drawChart);

var dataArray =
`

const sessionStatsTrailer = `;

var columnMedians=calcColumnMedians(dataArray);
var normDataArray=normalizeYAxisValues(dataArray, columnMedians);
var normalizeCheckbox=document.getElementById('normalize');

function getData() {
  return normalizeCheckbox.checked ? normDataArray : dataArray;
}

var options = {
  title: 'ROI statistics',
  explorer: {
    axis: 'horizontal',
    action: ['dragToPan', 'rightClickToReset'],
    keepInBounds: true,
    maxZoomIn: 0.001,
    maxZoomOut: 1.0
  },
  interpolateNulls: false,
  crosshair: { trigger: 'both' },
  legend: { position: 'bottom' }
};

var chart;

function toggleNormalize() {
  data = google.visualization.arrayToDataTable(getData())
  chart.draw(data, options);
}

function drawChart() {
  chart = new google.visualization.ScatterChart(document.getElementById('roiStatsChart'));
  toggleNormalize();
}

function calcColumnMedians(d) {
  var numColumns=d[0].length;
  var medians=new Array(numColumns);
  for(let col=0; col<numColumns; col++) {
    var buffer=[];
    for(let row=1; row<d.length; row++) {
      if(d[row][col]!==null) buffer.push(d[row][col]);
    }
    medians[col]=median(buffer);
  }
  return medians;
}

function normalizeYAxisValues(d, m) {
  var numColumns=d[0].length;
  var norm=new Array(d.length);
  norm[0]=d[0]; // header
  for(let r=1; r<d.length; r++) {
    thisRow=new Array(numColumns);
    thisRow[0]=d[r][0]; // x axis values, don't normalize
    for(let c=1; c<numColumns; c++) {
      thisRow[c]=(d[r][c]===null || m[c]===0) ? d[r][c] : d[r][c] / m[c];
    }
    norm[r]=thisRow;
  }
  return norm;
}

function median(numbers) {
    if (numbers.length === 0) return 1;
    const sorted = numbers.slice().sort((a, b) => a - b);
    const middle = Math.floor(sorted.length / 2);
    if (sorted.length % 2 === 0) {
        return (sorted[middle - 1] + sorted[middle]) / 2;
    }
    return sorted[middle];
}

  </script>
</html>
`
