// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Simulated power traces, stored as gzipped JSON.
package goelmo

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

type Trace struct {
	// Values printed by the leaking binary during this trace.
	PrintedData       []int64   `json:"pd,omitempty"`
	PowerMeasurements []float64 `json:"pm"`
}

type Capture []Trace

func (c Capture) NumSamples() int {
	if len(c) == 0 {
		return 0
	}
	return len(c[0].PowerMeasurements)
}

// Exported for testing.
func LoadCaptureIo(src io.Reader) (Capture, error) {
	var capture Capture
	zipper, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("gzip NewReader failed %v", err)
	}
	decoder := json.NewDecoder(zipper)
	if err = decoder.Decode(&capture); err != nil {
		return nil, fmt.Errorf("JSON decoder failed %v", err)
	}
	return capture, nil
}

// Loads capture from file.
func LoadCapture(filename string) (Capture, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("Error opening capture file: %v", err)
	}
	defer f.Close()
	return LoadCaptureIo(f)
}

// Exported for testing.
func (c Capture) SaveIo(dst io.Writer) error {
	zipper := gzip.NewWriter(dst)
	encoder := json.NewEncoder(zipper)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("JSON encoder failed %v", err)
	}
	if err := zipper.Close(); err != nil {
		return fmt.Errorf("gzip close failed %v", err)
	}
	return nil
}

func (c Capture) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("Error creating capture file: %v", err)
	}
	if err = c.SaveIo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Collects all samples in a single m (#traces) by n (#samples) matrix.
//
//	 _         _
//	| -- T1  -- |
//	| -- T2  -- |
//	| -- ..  -- |
//	| -- TM  -- |
//	|_         _|
//
// Traces shorter than the first one are padded with zeros.
func (c Capture) SamplesMatrix() (*mat.Dense, error) {
	rows, cols := len(c), c.NumSamples()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("Empty capture (%d traces, %d samples)", rows, cols)
	}
	m := mat.NewDense(rows, cols, nil)
	for i := range c {
		if len(c[i].PowerMeasurements) > cols {
			return nil, fmt.Errorf("Trace %d has %d samples, expected %d",
				i, len(c[i].PowerMeasurements), cols)
		}
		for j, v := range c[i].PowerMeasurements {
			m.Set(i, j, v)
		}
	}
	return m, nil
}
