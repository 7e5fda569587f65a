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

// Correlation power analysis over simulated captures.
// https://wiki.newae.com/Correlation_Power_Analysis
package goelmo

import (
	"fmt"
	"math"

	"github.com/google/goelmo/util"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Expected leakage of each trace of a capture.
type Model func(c Capture) ([]float64, error)

// Models the leakage as the Hamming weight of the value printed at index by
// each trace.
func HammingWeightModel(index int) Model {
	return func(c Capture) ([]float64, error) {
		hw := make([]float64, len(c))
		for i, t := range c {
			if index < 0 || index >= len(t.PrintedData) {
				return nil, fmt.Errorf("Trace %d has no printed value at index %d", i, index)
			}
			hw[i] = float64(util.HammingWeight(uint64(t.PrintedData[index])))
		}
		return hw, nil
	}
}

// Absolute Pearson correlation between the model and each sample of the
// capture. Samples with no variance have a null correlation.
func Correlation(c Capture, model Model) ([]float64, error) {
	X, err := model(c)
	if err != nil {
		return nil, err
	}
	samples, err := c.SamplesMatrix()
	if err != nil {
		return nil, err
	}
	// Samples in rows, so that RawRowView can be used.
	T := mat.DenseCopyOf(samples.T())
	numSamples, _ := T.Dims()
	corr := make([]float64, numSamples)
	for i := range corr {
		pcc := math.Abs(stat.Correlation(X, T.RawRowView(i), nil))
		if !math.IsNaN(pcc) {
			corr[i] = pcc
		}
	}
	return corr, nil
}

type Peak struct {
	Location int
	Corr     float64
}

func (p Peak) String() string {
	return fmt.Sprintf("<Corr:%f, Loc: %d>", p.Corr, p.Location)
}

// Highest correlation, first location on ties.
func BestCorrelation(corr []float64) Peak {
	best := Peak{-1, 0}
	for i, v := range corr {
		if best.Location < 0 || v > best.Corr {
			best = Peak{i, v}
		}
	}
	return best
}
