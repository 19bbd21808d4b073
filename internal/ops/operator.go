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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid"
	"github.com/mlnoga/roistats/internal/roi"
	"github.com/pbnjay/memory"
)

// An execution context for operators
type Context struct {
	Log        io.Writer
	MemoryMB   int          // memory.TotalMemory()/1024/1024
	MaxThreads int          `json:"maxThreads"`
	CPU        string       // CPU brand name, for log output
	Options    *roi.Options // Options from the most recently loaded dataset, if any
	Sandboxed  bool         // Restrict file operations to relative paths within the current directory
}

func NewContext(log io.Writer) *Context {
	memoryMB := int(memory.TotalMemory() / 1024 / 1024)
	maxThreads := runtime.GOMAXPROCS(0)
	if cpuid.CPU.LogicalCores > 0 && cpuid.CPU.LogicalCores < maxThreads {
		maxThreads = cpuid.CPU.LogicalCores
	}
	return &Context{
		Log:        log,
		MemoryMB:   memoryMB,
		MaxThreads: maxThreads,
		CPU:        cpuid.CPU.BrandName,
	}
}

// Describes the machine the context runs on
func (c *Context) String() string {
	return fmt.Sprintf("%s with %d threads and %d MB physical memory", c.CPU, c.MaxThreads, c.MemoryMB)
}

// A ROI processing operator: takes a set of ROIs and produces a set of ROIs or an error
type Operator interface {
	GetType() string
	IsActive() bool
	Apply(rois []roi.ROI, c *Context) ([]roi.ROI, error)
}

// Base type for operators, including type information for JSON serializing/deserializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Factory method for operators. For JSON serializing/deserializing
type OperatorFactory func() Operator

// Mapping from operator type strings to factory method for the type
var operatorFactories = map[string]OperatorFactory{}

// Returns the operator factory for a given type string
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Registers a given type string for a given type of Operator, identified via an exemplar generator
func SetOperatorFactory(f OperatorFactory) {
	op := f()
	t := op.GetType()
	if GetOperatorFactory(t) != nil {
		panic(fmt.Sprintf("error: re-registering operator key %s\n", t))
	}
	operatorFactories[t] = f
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func IsPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false // relative paths only
	}
	if strings.Contains(p, "..") {
		return false // no going outside the tree
	}
	return true
}

// Checks a file name against the sandbox setting of the context
func (c *Context) CheckPath(fileName string) error {
	if c.Sandboxed && !IsPathAllowed(fileName) {
		return fmt.Errorf("filename %s outside current directory tree, aborting", fileName)
	}
	return nil
}

// Load ROIs from a JSON file. Ignores any input ROIs
type OpLoad struct {
	OpBase
	FileName string `json:"fileName"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpLoadDefault() }) } // register the operator for JSON decoding

func NewOpLoadDefault() *OpLoad { return NewOpLoad("") }

func NewOpLoad(fileName string) *OpLoad {
	return &OpLoad{
		OpBase:   OpBase{Type: "load", Active: true},
		FileName: fileName,
	}
}

func (op *OpLoad) Apply(rois []roi.ROI, c *Context) ([]roi.ROI, error) {
	if err := c.CheckPath(op.FileName); err != nil {
		return nil, err
	}
	ds, err := roi.ReadJSONFile(op.FileName)
	if err != nil {
		return nil, err
	}
	if ds.Ops != nil {
		c.Options = ds.Ops
	}
	fmt.Fprintf(c.Log, "Loaded %d ROIs from %s\n", len(ds.Stat), op.FileName)
	return ds.Stat, nil
}

// Computes ROI statistics. Falls back to the options of the loaded dataset if none are configured
type OpStats struct {
	OpBase
	Options roi.Options `json:"ops"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpStatsDefault() }) } // register the operator for JSON decoding

func NewOpStatsDefault() *OpStats { return NewOpStats(roi.Options{}) }

func NewOpStats(opts roi.Options) *OpStats {
	return &OpStats{
		OpBase:  OpBase{Type: "stats", Active: true},
		Options: opts,
	}
}

func (op *OpStats) Apply(rois []roi.ROI, c *Context) ([]roi.ROI, error) {
	if !op.Active {
		return rois, nil
	}
	opts := op.Options
	if opts.Aspect == nil && !opts.Diameter.IsSet() && c.Options != nil {
		opts = *c.Options
	}
	e, err := roi.NewEngine(opts, c.MaxThreads, c.Log)
	if err != nil {
		return nil, err
	}
	return e.Stats(rois)
}

// Saves ROIs under a given filename, as JSON or CSV depending on the suffix.
// Returns the unchanged input
type OpSave struct {
	OpBase
	FileName string `json:"fileName"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpSaveDefault() }) } // register the operator for JSON decoding

func NewOpSaveDefault() *OpSave { return NewOpSave("") }

func NewOpSave(fileName string) *OpSave {
	return &OpSave{
		OpBase:   OpBase{Type: "save", Active: true},
		FileName: fileName,
	}
}

func (op *OpSave) Apply(rois []roi.ROI, c *Context) (result []roi.ROI, err error) {
	if !op.Active || op.FileName == "" {
		return rois, nil
	}
	if err := c.CheckPath(op.FileName); err != nil {
		return nil, err
	}
	fnLower := strings.ToLower(op.FileName)
	if strings.HasSuffix(fnLower, ".json") {
		fmt.Fprintf(c.Log, "Writing %d ROIs as JSON to %s\n", len(rois), op.FileName)
		err = roi.WriteJSONFile(op.FileName, rois)
	} else if strings.HasSuffix(fnLower, ".csv") {
		fmt.Fprintf(c.Log, "Writing %d ROIs as CSV to %s\n", len(rois), op.FileName)
		err = roi.WriteCSVFile(op.FileName, rois)
	} else {
		err = errors.New("Unknown suffix")
	}
	if err != nil {
		return nil, fmt.Errorf("error writing to file %s: %w", op.FileName, err)
	}
	return rois, nil
}

// Applies a sequence of operators to a set of ROIs
type OpSequence struct {
	OpBase
	Steps    []Operator        `json:"-"`     // the actual steps
	StepsRaw []json.RawMessage `json:"steps"` // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpSequenceDefault() }) } // register the operator for JSON decoding

func NewOpSequenceDefault() *OpSequence { return NewOpSequence() }

func NewOpSequence(steps ...Operator) *OpSequence {
	return &OpSequence{
		OpBase: OpBase{Type: "seq", Active: len(steps) > 0},
		Steps:  steps,
	}
}

// Unmarshals a sequence of polymorphic operators from JSON.
// Uses temporary op.StepsRaw inspired by https://alexkappa.medium.com/json-polymorphism-in-go-4cade1e58ed1
func (op *OpSequence) UnmarshalJSON(b []byte) error {
	type alias OpSequence
	err := json.Unmarshal(b, (*alias)(op))
	if err != nil {
		return err
	}

	for _, raw := range op.StepsRaw {
		var step OpBase
		err = json.Unmarshal(raw, &step)
		if err != nil {
			return err
		}

		var i Operator
		if factory := GetOperatorFactory(step.Type); factory != nil {
			i = factory()
		} else {
			return fmt.Errorf("Unknown operator type '%s' in raw JSON message '%s'", step.Type, string(raw))
		}
		err = json.Unmarshal(raw, i)
		if err != nil {
			return err
		}
		op.Steps = append(op.Steps, i)
	}
	op.StepsRaw = nil
	return nil
}

// Appends one or more operators to the existing sequence
func (op *OpSequence) Append(steps ...Operator) {
	op.Steps = append(op.Steps, steps...)
	op.Active = op.Active || len(steps) > 0
}

// Marshals a sequence with polymorphic operators to JSON.
// Uses the actual op.Steps with label "steps", and ignores op.StepsRaw
func (op *OpSequence) MarshalJSON() (bs []byte, err error) {
	buf := bytes.Buffer{}
	buf.WriteString("{\"type\":")
	inner, err := json.Marshal(op.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	fmt.Fprintf(&buf, ", \"active\":%v, \"steps\":", op.Active)
	if op.Steps == nil {
		inner = []byte("[]")
	} else {
		inner, err = json.Marshal(op.Steps)
		if err != nil {
			return nil, err
		}
	}
	buf.Write(inner)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

// Applies all active steps in order
func (op *OpSequence) Apply(rois []roi.ROI, c *Context) (outs []roi.ROI, err error) {
	outs = rois
	for i, step := range op.Steps {
		if !step.IsActive() {
			continue
		}
		outs, err = step.Apply(outs, c)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.GetType(), err)
		}
	}
	return outs, nil
}
