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

package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlnoga/roistats/internal/ops"
	_ "github.com/mlnoga/roistats/internal/ops/export" // register operators for JSON decoding
	_ "github.com/mlnoga/roistats/internal/ops/render" // register operators for JSON decoding
	"github.com/mlnoga/roistats/internal/roi"
	"github.com/mlnoga/roistats/web"
)

// Returns a router for the ROI statistics API, using up to maxThreads per request
func NewRouter(maxThreads int) *gin.Engine {
	r := gin.Default()
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/stats", func(c *gin.Context) { postStats(c, maxThreads) })
			v1.POST("/job", func(c *gin.Context) { postJob(c, maxThreads) })
		}
	}
	return r
}

// Listens and serves on the given address, e.g. ":8080"
func Serve(addr string, maxThreads int) error {
	return NewRouter(maxThreads).Run(addr)
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func newContext(log io.Writer, maxThreads int) *ops.Context {
	ctx := ops.NewContext(log)
	if maxThreads > 0 && maxThreads < ctx.MaxThreads {
		ctx.MaxThreads = maxThreads
	}
	ctx.Sandboxed = true
	return ctx
}

// Computes statistics for a posted dataset, and returns the processed ROIs
func postStats(c *gin.Context, maxThreads int) {
	var ds roi.Dataset
	if err := c.ShouldBindJSON(&ds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var opts roi.Options
	if ds.Ops != nil {
		opts = *ds.Ops
	}

	ctx := newContext(io.Discard, maxThreads)
	rois, err := ops.NewOpStats(opts).Apply(ds.Stat, ctx)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if rois == nil {
		rois = []roi.ROI{}
	}
	c.JSON(http.StatusOK, rois)
}

// Runs a posted operator sequence on files within the current directory tree,
// streaming log output back as plain text
func postJob(c *gin.Context, maxThreads int) {
	logWriter := c.Writer
	var seq ops.OpSequence
	if err := c.ShouldBindJSON(&seq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err := printArgs(logWriter, "Arguments:\n", "\n", &seq); err != nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	ctx := newContext(logWriter, maxThreads)
	rois, err := seq.Apply(nil, ctx)
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	} else {
		fmt.Fprintf(logWriter, "Processed %d ROIs\n", len(rois))
	}
	logWriter.Flush()
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}
