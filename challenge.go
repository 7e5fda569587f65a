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

// Challenges are the secret inputs of a simulation.
package goelmo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/goelmo/util"
)

// Default width of a challenge value in the input file.
const DefaultValueBits = 16

// Dimensions of each part of a challenge, e.g. [[2, 256]] for one 2x256 matrix.
// A part without dimensions is a scalar.
type Format [][]int

// A row-major tensor of challenge values.
type Part struct {
	Dims   []int
	Values []int64
}

type Challenge []Part

func Scalar(v int64) Part {
	return Part{nil, []int64{v}}
}

func Vector(values ...int64) Part {
	return Part{[]int{len(values)}, values}
}

func Matrix(rows [][]int64) Part {
	p := Part{Dims: []int{len(rows), 0}}
	if len(rows) > 0 {
		p.Dims[1] = len(rows[0])
	}
	for _, r := range rows {
		p.Values = append(p.Values, r...)
	}
	return p
}

// Returns a part of the given shape with every value set to v.
func Fill(v int64, dims ...int) Part {
	n := 1
	for _, d := range dims {
		n *= d
	}
	values := make([]int64, n)
	for i := range values {
		values[i] = v
	}
	return Part{append([]int(nil), dims...), values}
}

type FormatError struct {
	Part  int
	Level int
	Got   int
	Want  int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Incorrect format for challenge. Get %d instead of %d (part %d, dimension %d)",
		e.Got, e.Want, e.Part, e.Level)
}

func (p Part) check(num int, dims []int) error {
	levels := max(len(dims), len(p.Dims))
	for l := 0; l < levels; l++ {
		got, want := 0, 0
		if l < len(p.Dims) {
			got = p.Dims[l]
		}
		if l < len(dims) {
			want = dims[l]
		}
		if got != want {
			return &FormatError{num, l, got, want}
		}
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	if len(p.Values) != n {
		return fmt.Errorf("Part %d holds %d values for shape %v", num, len(p.Values), dims)
	}
	return nil
}

// Writes the values of c in the order given by format, nbBits per value.
func SerializeByFormat(w io.Writer, format Format, c Challenge, nbBits int) error {
	if len(c) != len(format) {
		return &FormatError{-1, 0, len(c), len(format)}
	}
	for num, dims := range format {
		if err := c[num].check(num, dims); err != nil {
			return err
		}
		if err := util.WriteList(w, c[num].Values, nbBits); err != nil {
			return err
		}
	}
	return nil
}

// Decodes a number or a rectangular nested array.
func (p *Part) UnmarshalJSON(data []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*p = Part{}
	return p.flatten(v, 0)
}

func (p *Part) flatten(v interface{}, level int) error {
	switch x := v.(type) {
	case json.Number:
		if level != len(p.Dims) {
			return fmt.Errorf("Ragged challenge part at dimension %d", level)
		}
		n, err := x.Int64()
		if err != nil {
			return fmt.Errorf("Bad challenge value %v: %v", x, err)
		}
		p.Values = append(p.Values, n)
	case []interface{}:
		switch {
		case level == len(p.Dims) && len(p.Values) == 0:
			p.Dims = append(p.Dims, len(x))
		case level >= len(p.Dims) || p.Dims[level] != len(x):
			return fmt.Errorf("Ragged challenge part at dimension %d", level)
		}
		for _, e := range x {
			if err := p.flatten(e, level+1); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("Unexpected challenge value %v", v)
	}
	return nil
}

func (p Part) MarshalJSON() ([]byte, error) {
	pos := 0
	var nest func(level int) interface{}
	nest = func(level int) interface{} {
		if level == len(p.Dims) {
			v := p.Values[pos]
			pos++
			return v
		}
		l := make([]interface{}, p.Dims[level])
		for i := range l {
			l[i] = nest(level + 1)
		}
		return l
	}
	if err := p.check(0, p.Dims); err != nil {
		return nil, err
	}
	return json.Marshal(nest(0))
}

// Reads a JSON list of challenges, each a list of parts.
func LoadChallengesIo(src io.Reader) ([]Challenge, error) {
	var challenges []Challenge
	if err := json.NewDecoder(src).Decode(&challenges); err != nil {
		return nil, fmt.Errorf("JSON decoder failed %v", err)
	}
	return challenges, nil
}
