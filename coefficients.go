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

// Regression coefficients of the ELMO power model.
package goelmo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/mat"
)

// Number of rows consumed from a coefficients file:
// 1 + 4+4 + 4*32 + 8*4 + 4*496.
const NumCoefficientRows = 2153

// Number of pairwise bit interactions of a 32-bit operand, C(32, 2).
const NumBitInteractions = 496

// A named run of rows of the coefficient table, one column per instruction type.
// A block sliced past the end of the table holds fewer rows than Want.
type Block struct {
	Name string
	Want int
	M    *mat.Dense // nil when the block is empty.
}

func (b Block) Rows() int {
	if b.M == nil {
		return 0
	}
	r, _ := b.M.Dims()
	return r
}

type Coefficients struct {
	Cols int

	Constant Block
	PrvInstr Block
	SubInstr Block

	Operand1 Block
	Operand2 Block
	BitFlip1 Block
	BitFlip2 Block

	HWOp1PrvInstr Block
	HWOp2PrvInstr Block
	HDOp1PrvInstr Block
	HDOp2PrvInstr Block
	HWOp1SubInstr Block
	HWOp2SubInstr Block
	HDOp1SubInstr Block
	HDOp2SubInstr Block

	Operand1BitInteractions Block
	Operand2BitInteractions Block
	BitFlip1BitInteractions Block
	BitFlip2BitInteractions Block
}

// Exported for testing.
func LoadCoefficientsIo(src io.Reader) (*Coefficients, error) {
	var data []float64
	rows, cols := 0, -1
	sc := bufio.NewScanner(src)
	for rows < NumCoefficientRows && sc.Scan() {
		fields := strings.Fields(sc.Text())
		if cols == -1 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("Coefficient row %d has %d columns, expected %d", rows+1, len(fields), cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("Coefficient row %d: %v", rows+1, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("Problem reading the coefficients: %v", err)
	}
	if rows == 0 || cols <= 0 {
		return nil, fmt.Errorf("Problem reading the coefficients: empty table")
	}
	if rows < NumCoefficientRows {
		glog.Warningf("Coefficient table has %d rows, expected %d", rows, NumCoefficientRows)
	}

	// Blocks are sliced sequentially, the order below is the file layout.
	pos := 0
	extract := func(name string, nb int) Block {
		b := Block{Name: name, Want: nb}
		start, end := min(pos, rows), min(pos+nb, rows)
		pos += nb
		if end > start {
			b.M = mat.NewDense(end-start, cols, data[start*cols:end*cols])
		}
		return b
	}

	c := &Coefficients{Cols: cols}
	c.Constant = extract("Constant", 1)

	c.PrvInstr = extract("PrvInstr", 4)
	c.SubInstr = extract("SubInstr", 4)

	c.Operand1 = extract("Operand1", 32)
	c.Operand2 = extract("Operand2", 32)
	c.BitFlip1 = extract("BitFlip1", 32)
	c.BitFlip2 = extract("BitFlip2", 32)

	c.HWOp1PrvInstr = extract("HWOp1PrvInstr", 4)
	c.HWOp2PrvInstr = extract("HWOp2PrvInstr", 4)
	c.HDOp1PrvInstr = extract("HDOp1PrvInstr", 4)
	c.HDOp2PrvInstr = extract("HDOp2PrvInstr", 4)
	c.HWOp1SubInstr = extract("HWOp1SubInstr", 4)
	c.HWOp2SubInstr = extract("HWOp2SubInstr", 4)
	c.HDOp1SubInstr = extract("HDOp1SubInstr", 4)
	c.HDOp2SubInstr = extract("HDOp2SubInstr", 4)

	c.Operand1BitInteractions = extract("Operand1_bitinteractions", NumBitInteractions)
	c.Operand2BitInteractions = extract("Operand2_bitinteractions", NumBitInteractions)
	c.BitFlip1BitInteractions = extract("BitFlip1_bitinteractions", NumBitInteractions)
	c.BitFlip2BitInteractions = extract("BitFlip2_bitinteractions", NumBitInteractions)
	return c, nil
}

// Loads coefficients from file.
func LoadCoefficients(filename string) (*Coefficients, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("Error opening coefficients file: %v", err)
	}
	defer f.Close()
	return LoadCoefficientsIo(f)
}

func (c *Coefficients) blocks() []Block {
	return []Block{
		c.Constant, c.PrvInstr, c.SubInstr,
		c.Operand1, c.Operand2, c.BitFlip1, c.BitFlip2,
		c.HWOp1PrvInstr, c.HWOp2PrvInstr, c.HDOp1PrvInstr, c.HDOp2PrvInstr,
		c.HWOp1SubInstr, c.HWOp2SubInstr, c.HDOp1SubInstr, c.HDOp2SubInstr,
		c.Operand1BitInteractions, c.Operand2BitInteractions,
		c.BitFlip1BitInteractions, c.BitFlip2BitInteractions,
	}
}

// Reports the first block whose shape cannot be used by the model.
func (c *Coefficients) check() error {
	for _, b := range c.blocks() {
		if b.Rows() != b.Want {
			return fmt.Errorf("Coefficient block %s has %d rows, expected %d", b.Name, b.Rows(), b.Want)
		}
	}
	return nil
}
