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

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var pointsHeader = []string{"prev", "cur", "next", "prev_op1", "prev_op2", "op1", "op2"}

func parseCsvInt(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(s), 0, 32)
}

// Reads points as prev,cur,next,prev_op1,prev_op2,op1,op2 rows.
// The header line is optional. Values are decimal or 0x-prefixed hex.
func ReadPointsCsv(src io.Reader) ([]Point, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = len(pointsHeader)
	r.TrimLeadingSpace = true
	r.Comment = '#'

	var points []Point
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Failed reading points: %v", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), pointsHeader[0]) {
			continue
		}
		var v [7]uint64
		for i := range v {
			if v[i], err = parseCsvInt(rec[i]); err != nil {
				return nil, fmt.Errorf("Line %d, column %s: %v", line, pointsHeader[i], err)
			}
		}
		for i := 0; i < 3; i++ {
			if v[i] > uint64(OTHER) {
				return nil, fmt.Errorf("Line %d: unknown instruction type %d", line, v[i])
			}
		}
		points = append(points, Point{
			Triplet:  [3]Instruction{Instruction(v[0]), Instruction(v[1]), Instruction(v[2])},
			Previous: [2]uint32{uint32(v[3]), uint32(v[4])},
			Current:  [2]uint32{uint32(v[5]), uint32(v[6])},
		})
	}
	return points, nil
}

// Writes index,power rows.
func WritePowerCsv(dst io.Writer, power []float64) error {
	w := csv.NewWriter(dst)
	if err := w.Write([]string{"index", "power"}); err != nil {
		return err
	}
	for i, p := range power {
		if err := w.Write([]string{strconv.Itoa(i), strconv.FormatFloat(p, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
