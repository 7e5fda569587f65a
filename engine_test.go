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

package goelmo_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/goelmo"
)

const numCols = 6

// Builds a coefficient table of numRows rows, zero everywhere except
// the cells of set.
func coefficientsText(numRows int, set map[[2]int]float64) string {
	var b strings.Builder
	for r := 0; r < numRows; r++ {
		for c := 0; c < numCols; c++ {
			if c > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%g", set[[2]int{r, c}])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func newTestEngine(t *testing.T, set map[[2]int]float64) *goelmo.Engine {
	coeffs, err := goelmo.LoadCoefficientsIo(strings.NewReader(coefficientsText(goelmo.NumCoefficientRows, set)))
	if err != nil {
		t.Fatalf("LoadCoefficientsIo failed: %v", err)
	}
	return goelmo.NewEngine(coeffs)
}

func testCoefficients() map[[2]int]float64 {
	mul := int(goelmo.MUL)
	return map[[2]int]float64{
		// Constant
		{0, 0}: 1, {0, 1}: 2, {0, 2}: 3, {0, 3}: 4, {0, 4}: 5, {0, 5}: 6,
		// PrvInstr, LDR
		{3, mul}: 100,
		// SubInstr, all types
		{5, mul}: 1000, {6, mul}: 1000, {7, mul}: 1000, {8, mul}: 1000,
		// Operand1, bits 0 and 2
		{9, mul}: 10, {11, mul}: 10,
		// HWOp1PrvInstr, LDR
		{139, mul}: 0.25,
		// Operand1 interaction of bits 2 and 3
		{169 + 61, mul}: 0.5,
	}
}

var (
	mulTriplet = [3]goelmo.Instruction{goelmo.LDR, goelmo.MUL, goelmo.OTHER}
	prevOps    = [2]uint32{0, 5}
	curOps     = [2]uint32{0x2bac, 5}
)

func TestEnginePower(t *testing.T) {
	e := newTestEngine(t, testCoefficients())
	// 5 (constant) + 100 (LDR before) + 10 (bit 2) + 0.5 (bits 2 and 3) + 8*0.25 (HW after LDR)
	const want = 117.5
	power, err := e.OneshotPoint(mulTriplet, prevOps, curOps)
	if err != nil {
		t.Fatalf("OneshotPoint failed: %v", err)
	}
	if math.Abs(power-want) > 1e-9 {
		t.Errorf("Unexpected power %v, expected %v", power, want)
	}
}

func TestEngineSentinel(t *testing.T) {
	e := newTestEngine(t, testCoefficients())
	e.AddPoint([3]goelmo.Instruction{goelmo.LDR, goelmo.OTHER, goelmo.STR}, prevOps, curOps)
	e.AddPoint(mulTriplet, prevOps, curOps)
	if err := e.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	power := e.Power()
	if len(power) != 2 {
		t.Fatalf("Unexpected number of powers %d", len(power))
	}
	if power[0] != 6 {
		t.Errorf("Unprofiled instruction has power %v, expected Constant[5] = 6", power[0])
	}
	if math.Abs(power[1]-117.5) > 1e-9 {
		t.Errorf("Unexpected power %v after sentinel", power[1])
	}
}

func TestEngineBatchMatchesOneshot(t *testing.T) {
	set := testCoefficients()
	for r := 0; r < goelmo.NumCoefficientRows; r += 7 {
		set[[2]int{r, r % numCols}] = float64(r%13) / 10
	}
	e := newTestEngine(t, set)

	var points []goelmo.Point
	for i := 0; i < 256; i++ {
		points = append(points, goelmo.Point{
			Triplet:  [3]goelmo.Instruction{goelmo.Instruction(i % 6), goelmo.Instruction((i / 6) % 5), goelmo.Instruction((i / 30) % 6)},
			Previous: [2]uint32{uint32(i * 0x01010101), uint32(i)},
			Current:  [2]uint32{uint32(i*0x9e3779b9) ^ 0xdeadbeef, uint32(255 - i)},
		})
	}
	e.AddPoints(points...)
	if err := e.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	batch := append([]float64(nil), e.Power()...)
	if len(batch) != len(points) {
		t.Fatalf("Run returned %d powers for %d points", len(batch), len(points))
	}
	for i, p := range points {
		power, err := e.OneshotPoint(p.Triplet, p.Previous, p.Current)
		if err != nil {
			t.Fatalf("OneshotPoint failed: %v", err)
		}
		if math.Abs(power-batch[i]) > 1e-9 {
			t.Errorf("Point %d: batch power %v, oneshot power %v", i, batch[i], power)
		}
	}
}

func TestEngineComponents(t *testing.T) {
	e := newTestEngine(t, testCoefficients())
	e.AddPoint(mulTriplet, prevOps, curOps)
	if err := e.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	comps, err := e.Components(0)
	if err != nil {
		t.Fatalf("Components failed: %v", err)
	}
	if len(comps) != len(goelmo.ComponentNames) {
		t.Fatalf("Unexpected number of components %d", len(comps))
	}
	var sum float64
	for _, c := range comps {
		sum += c
	}
	if math.Abs(sum-e.Power()[0]) > 1e-9 {
		t.Errorf("Components sum to %v, power is %v", sum, e.Power()[0])
	}
	if _, err = e.Components(1); err == nil {
		t.Errorf("Components of a missing point did not fail")
	}
}

func TestEngineReset(t *testing.T) {
	e := newTestEngine(t, testCoefficients())
	e.AddPoint(mulTriplet, prevOps, curOps)
	if err := e.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	e.ResetPoints()
	if e.NumPoints() != 0 {
		t.Errorf("%d points left after reset", e.NumPoints())
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run on no point failed: %v", err)
	}
	if power := e.Power(); power == nil || len(power) != 0 {
		t.Errorf("Run on no point returned %v", power)
	}
}

func TestEngineShortTableFailsOnRun(t *testing.T) {
	coeffs, err := goelmo.LoadCoefficientsIo(strings.NewReader(coefficientsText(100, nil)))
	if err != nil {
		t.Fatalf("Short table failed to load: %v", err)
	}
	e := goelmo.NewEngine(coeffs)
	e.AddPoint(mulTriplet, prevOps, curOps)
	if err = e.Run(); err == nil {
		t.Errorf("Run on a short table did not fail")
	}
}

func TestEngineSentinelNeedsSixColumns(t *testing.T) {
	var b strings.Builder
	for r := 0; r < goelmo.NumCoefficientRows; r++ {
		b.WriteString("0 0 0 0 0\n")
	}
	coeffs, err := goelmo.LoadCoefficientsIo(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("LoadCoefficientsIo failed: %v", err)
	}
	e := goelmo.NewEngine(coeffs)
	if _, err = e.OneshotPoint(mulTriplet, prevOps, curOps); err != nil {
		t.Errorf("Profiled instruction failed with 5 columns: %v", err)
	}
	if _, err = e.OneshotPoint([3]goelmo.Instruction{goelmo.EOR, goelmo.OTHER, goelmo.EOR}, prevOps, curOps); err == nil {
		t.Errorf("Unprofiled instruction did not fail with 5 columns")
	}
}

func TestLoadCoefficientsErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"ragged", "1 2 3\n4 5\n"},
		{"not a number", "1 2 x\n"},
	} {
		if _, err := goelmo.LoadCoefficientsIo(strings.NewReader(test.text)); err == nil {
			t.Errorf("%s table did not fail", test.name)
		}
	}
	if _, err := goelmo.LoadCoefficients("/nonexistent/coeffs.txt"); err == nil {
		t.Errorf("Missing file did not fail")
	}
}

func TestLoadCoefficientsIgnoresTrailingRows(t *testing.T) {
	text := coefficientsText(goelmo.NumCoefficientRows, nil) + "1 2\n"
	if _, err := goelmo.LoadCoefficientsIo(strings.NewReader(text)); err != nil {
		t.Errorf("Rows after the table were read: %v", err)
	}
}

func TestInstructionString(t *testing.T) {
	for _, test := range []struct {
		instr goelmo.Instruction
		want  string
	}{
		{goelmo.EOR, "EOR"},
		{goelmo.MUL, "MUL"},
		{goelmo.OTHER, "OTHER"},
		{goelmo.Instruction(9), "Instruction(9)"},
	} {
		if s := test.instr.String(); s != test.want {
			t.Errorf("Name of %d is %q, expected %q", uint8(test.instr), s, test.want)
		}
	}
}
