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
	"reflect"
	"strings"
	"testing"

	"github.com/google/goelmo"
)

func TestReadPointsCsv(t *testing.T) {
	src := `prev,cur,next,prev_op1,prev_op2,op1,op2
3,4,5,0,5,0x2bac,5
# comment
0, 1, 2, 1, 2, 3, 4
`
	points, err := goelmo.ReadPointsCsv(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadPointsCsv failed: %v", err)
	}
	want := []goelmo.Point{
		{[3]goelmo.Instruction{goelmo.LDR, goelmo.MUL, goelmo.OTHER}, [2]uint32{0, 5}, [2]uint32{0x2bac, 5}},
		{[3]goelmo.Instruction{goelmo.EOR, goelmo.LSL, goelmo.STR}, [2]uint32{1, 2}, [2]uint32{3, 4}},
	}
	if !reflect.DeepEqual(points, want) {
		t.Errorf("Read %v, expected %v", points, want)
	}
}

func TestReadPointsCsvErrors(t *testing.T) {
	for _, src := range []string{
		"1,2,3\n",
		"1,2,3,4,5,6,x\n",
		"9,0,0,0,0,0,0\n",
		"0,0,0,0,0,0,0x100000000\n",
	} {
		if _, err := goelmo.ReadPointsCsv(strings.NewReader(src)); err == nil {
			t.Errorf("%q did not fail", src)
		}
	}
}

func TestWritePowerCsv(t *testing.T) {
	var b strings.Builder
	if err := goelmo.WritePowerCsv(&b, []float64{117.5, 6}); err != nil {
		t.Fatalf("WritePowerCsv failed: %v", err)
	}
	if want := "index,power\n0,117.5\n1,6\n"; b.String() != want {
		t.Errorf("Unexpected CSV %q", b.String())
	}
}
