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

// Instruction-level power leakage model of the ELMO tool.
// Power is a second-order regression over the bits of the operands of the
// current instruction, their bit-flips and the types of the neighbouring
// instructions.
package goelmo

import (
	"fmt"

	"github.com/google/goelmo/util"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/mat"
)

//go:generate stringer -type Instruction
type Instruction uint8

const (
	EOR Instruction = 0
	LSL Instruction = 1
	STR Instruction = 2
	LDR Instruction = 3
	MUL Instruction = 4
	// Instruction was not profiled. Its leakage is the constant Constant[OTHER].
	OTHER Instruction = 5
)

// Number of profiled instruction types.
const numProfiled = 5

// Positions in a triplet.
const (
	PreviousInstruction = iota
	CurrentInstruction
	SubsequentInstruction
)

type Point struct {
	Triplet  [3]Instruction
	Previous [2]uint32
	Current  [2]uint32
}

// Names of the terms returned by Engine.Components, in order.
var ComponentNames = []string{
	"Constant",
	"PrvInstr", "SubInstr",
	"Operand1", "Operand2",
	"BitFlip1", "BitFlip2",
	"HWOp1PrvInstr", "HWOp2PrvInstr",
	"HDOp1PrvInstr", "HDOp2PrvInstr",
	"HWOp1SubInstr", "HWOp2SubInstr",
	"HDOp1SubInstr", "HDOp2SubInstr",
	"Operand1_bitinteractions", "Operand2_bitinteractions",
	"BitFlip1_bitinteractions", "BitFlip2_bitinteractions",
}

const numComponents = 19

// Points are computed in batches to bound the size of the interaction matrices.
const batchSize = 4096

type Engine struct {
	coeffs *Coefficients
	points []Point
	power  []float64
	terms  [][numComponents]float64
}

func NewEngine(coeffs *Coefficients) *Engine {
	return &Engine{coeffs: coeffs}
}

// Loads the coefficient file and returns a fresh engine.
func LoadEngine(filename string) (*Engine, error) {
	coeffs, err := LoadCoefficients(filename)
	if err != nil {
		return nil, err
	}
	return NewEngine(coeffs), nil
}

// Drops all points and the last computed power. Coefficients are kept.
func (e *Engine) ResetPoints() {
	e.points = nil
	e.power = nil
	e.terms = nil
}

func (e *Engine) AddPoint(triplet [3]Instruction, previousOps, currentOps [2]uint32) {
	e.points = append(e.points, Point{triplet, previousOps, currentOps})
}

func (e *Engine) AddPoints(points ...Point) {
	e.points = append(e.points, points...)
}

func (e *Engine) NumPoints() int {
	return len(e.points)
}

// Power of every point of the last Run, in insertion order.
func (e *Engine) Power() []float64 {
	return e.power
}

// Computes the power leakage of all points added since the last reset.
func (e *Engine) Run() error {
	e.power = make([]float64, 0, len(e.points))
	e.terms = make([][numComponents]float64, 0, len(e.points))
	if len(e.points) == 0 {
		return nil
	}
	if err := e.check(); err != nil {
		e.power = nil
		e.terms = nil
		return err
	}
	for start := 0; start < len(e.points); start += batchSize {
		end := min(start+batchSize, len(e.points))
		glog.V(2).Infof("[engine] computing points [%d, %d)", start, end)
		e.calculate(e.points[start:end])
	}
	return nil
}

// Computes the power of a single point.
func (e *Engine) OneshotPoint(triplet [3]Instruction, previousOps, currentOps [2]uint32) (float64, error) {
	e.ResetPoints()
	e.AddPoint(triplet, previousOps, currentOps)
	if err := e.Run(); err != nil {
		return 0, err
	}
	return e.power[0], nil
}

// Individual terms of point i of the last Run, named by ComponentNames.
// The sentinel override is not applied to the terms.
func (e *Engine) Components(i int) ([]float64, error) {
	if i < 0 || i >= len(e.terms) {
		return nil, fmt.Errorf("No computed point %d (%d points)", i, len(e.terms))
	}
	c := e.terms[i]
	return c[:], nil
}

func (e *Engine) check() error {
	if err := e.coeffs.check(); err != nil {
		return err
	}
	for _, p := range e.points {
		cur := p.Triplet[CurrentInstruction]
		if col := int(cur % numProfiled); col >= e.coeffs.Cols {
			return fmt.Errorf("Instruction %v needs coefficient column %d, table has %d columns",
				cur, col, e.coeffs.Cols)
		}
		if cur == OTHER && int(OTHER) >= e.coeffs.Cols {
			return fmt.Errorf("Unprofiled instruction needs coefficient column %d, table has %d columns",
				int(OTHER), e.coeffs.Cols)
		}
	}
	return nil
}

// Matrices of one batch of points:
//  _                      _
// | -- b0 b1 .. b31 -- P1  |
// | -- b0 b1 .. b31 -- P2  |
// | --      ..      -- ..  |
// |_-- b0 b1 .. b31 -- PN _|
//
// Each matrix is multiplied with its coefficient block, giving one column per
// instruction type. The column of the current instruction is then picked per point.
type features struct {
	prv, sub                               *mat.Dense // N x 4 one-hot, EOR dropped.
	op1, op2, bf1, bf2                     *mat.Dense // N x 32 bits.
	op1Inter, op2Inter, bf1Inter, bf2Inter *mat.Dense // N x 496 bit products.
	hwOp1, hwOp2, hdOp1, hdOp2             []float64
	cols                                   []int
}

func oneHot(m *mat.Dense, i int, instr Instruction) {
	// EOR is the baseline and type >= 5 has no row.
	if instr > EOR && instr < numProfiled {
		m.Set(i, int(instr)-1, 1)
	}
}

func setBits(bitsM, interM *mat.Dense, i int, x uint32) float64 {
	bits := util.BinaryWriting(x, 32)
	var hw float64
	for b, v := range bits {
		bitsM.Set(i, b, float64(v))
		hw += float64(v)
	}
	count := 0
	for b1 := 0; b1 < 32; b1++ {
		for b2 := b1 + 1; b2 < 32; b2++ {
			interM.Set(i, count, float64(bits[b1]*bits[b2]))
			count++
		}
	}
	return hw
}

func newFeatures(points []Point) *features {
	n := len(points)
	f := &features{
		prv:      mat.NewDense(n, 4, nil),
		sub:      mat.NewDense(n, 4, nil),
		op1:      mat.NewDense(n, 32, nil),
		op2:      mat.NewDense(n, 32, nil),
		bf1:      mat.NewDense(n, 32, nil),
		bf2:      mat.NewDense(n, 32, nil),
		op1Inter: mat.NewDense(n, NumBitInteractions, nil),
		op2Inter: mat.NewDense(n, NumBitInteractions, nil),
		bf1Inter: mat.NewDense(n, NumBitInteractions, nil),
		bf2Inter: mat.NewDense(n, NumBitInteractions, nil),
		hwOp1:    make([]float64, n),
		hwOp2:    make([]float64, n),
		hdOp1:    make([]float64, n),
		hdOp2:    make([]float64, n),
		cols:     make([]int, n),
	}
	for i, p := range points {
		// Type 5 folds onto column 0 here, and is overridden after the sum.
		f.cols[i] = int(p.Triplet[CurrentInstruction] % numProfiled)
		oneHot(f.prv, i, p.Triplet[PreviousInstruction])
		oneHot(f.sub, i, p.Triplet[SubsequentInstruction])

		f.hwOp1[i] = setBits(f.op1, f.op1Inter, i, p.Current[0])
		f.hwOp2[i] = setBits(f.op2, f.op2Inter, i, p.Current[1])
		f.hdOp1[i] = setBits(f.bf1, f.bf1Inter, i, p.Previous[0]^p.Current[0])
		f.hdOp2[i] = setBits(f.bf2, f.bf2Inter, i, p.Previous[1]^p.Current[1])
	}
	return f
}

// Returns x*block, reduced to the column of each point.
func (f *features) term(x *mat.Dense, b Block) []float64 {
	var prod mat.Dense
	prod.Mul(x, b.M)
	out := make([]float64, len(f.cols))
	for i, c := range f.cols {
		out[i] = prod.At(i, c)
	}
	return out
}

// Returns weight[i] * (x*block)[i, col_i].
func (f *features) weighted(weight []float64, x *mat.Dense, b Block) []float64 {
	out := f.term(x, b)
	for i := range out {
		out[i] *= weight[i]
	}
	return out
}

func (e *Engine) calculate(points []Point) {
	c := e.coeffs
	f := newFeatures(points)

	constant := make([]float64, len(points))
	for i, col := range f.cols {
		constant[i] = c.Constant.M.At(0, col)
	}

	terms := [numComponents][]float64{
		constant,
		f.term(f.prv, c.PrvInstr),
		f.term(f.sub, c.SubInstr),
		f.term(f.op1, c.Operand1),
		f.term(f.op2, c.Operand2),
		f.term(f.bf1, c.BitFlip1),
		f.term(f.bf2, c.BitFlip2),
		f.weighted(f.hwOp1, f.prv, c.HWOp1PrvInstr),
		f.weighted(f.hwOp2, f.prv, c.HWOp2PrvInstr),
		f.weighted(f.hdOp1, f.prv, c.HDOp1PrvInstr),
		f.weighted(f.hdOp2, f.prv, c.HDOp2PrvInstr),
		f.weighted(f.hwOp1, f.sub, c.HWOp1SubInstr),
		f.weighted(f.hwOp2, f.sub, c.HWOp2SubInstr),
		f.weighted(f.hdOp1, f.sub, c.HDOp1SubInstr),
		f.weighted(f.hdOp2, f.sub, c.HDOp2SubInstr),
		f.term(f.op1Inter, c.Operand1BitInteractions),
		f.term(f.op2Inter, c.Operand2BitInteractions),
		f.term(f.bf1Inter, c.BitFlip1BitInteractions),
		f.term(f.bf2Inter, c.BitFlip2BitInteractions),
	}

	for i, p := range points {
		var comps [numComponents]float64
		var power float64
		for t := range terms {
			comps[t] = terms[t][i]
			power += terms[t][i]
		}
		// The model is not trusted for unprofiled instructions.
		if p.Triplet[CurrentInstruction] == OTHER {
			power = c.Constant.M.At(0, int(OTHER))
		}
		e.power = append(e.power, power)
		e.terms = append(e.terms, comps)
	}
}
