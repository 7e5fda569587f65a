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

package goelmo

// Outcome of one run of the ELMO tool.
// Failures reported by the tool itself are stored in Error, they are not Go errors.
type Result struct {
	NbTraces       int    `json:"nb_traces"`
	NbInstructions int    `json:"nb_instructions"`
	Output         string `json:"output"`
	Error          string `json:"error"`

	// Only filled in the response of an ELMO server.
	Results     [][]float64 `json:"results,omitempty"`
	AsmTrace    string      `json:"asmtrace,omitempty"`
	PrintedData []int64     `json:"printed_data,omitempty"`
}

func (r *Result) Failed() bool {
	return r.Error != ""
}

// Returns a copy of r without the trace payloads.
func (r *Result) Summary() *Result {
	return &Result{
		NbTraces:       r.NbTraces,
		NbInstructions: r.NbInstructions,
		Output:         r.Output,
		Error:          r.Error,
	}
}
