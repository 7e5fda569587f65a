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
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/goelmo"
)

const fakeElmo = `#!/bin/sh
test -f "$1" || exit 9
mkdir -p output/traces output/asmoutput
printf '1.5\n2.5\n' > output/traces/trace00001.trc
echo "TRACE NO 1"
printf '3.5\n4.5\n' > output/traces/trace00002.trc
echo "TRACE NO 2"
printf 'ldr r0, [r1]\nmuls r0, r2\n' > output/asmoutput/asmtrace00001.txt
printf '0a\nff\n' > output/printdata.txt
printf 'caf\351\n'
echo "   instructions/cycles   1234  "
`

const failingElmo = `#!/bin/sh
echo "undefined instruction" >&2
exit 3
`

// Installs script as the ELMO executable of a temporary tool directory.
func newFakeTool(t *testing.T, script string) (*goelmo.Tool, string) {
	t.Helper()
	conf := goelmo.DefaultConfig()
	conf.ToolDir = t.TempDir()
	if script != "" {
		if err := os.WriteFile(filepath.Join(conf.ToolDir, conf.Executable), []byte(script), 0755); err != nil {
			t.Fatal(err)
		}
	}
	binary := filepath.Join(t.TempDir(), "project.bin")
	if err := os.WriteFile(binary, []byte{0}, 0644); err != nil {
		t.Fatal(err)
	}
	return goelmo.NewTool(conf), binary
}

func TestToolExecute(t *testing.T) {
	tool, binary := newFakeTool(t, fakeElmo)
	if err := tool.WriteInput("00\n02\n"); err != nil {
		t.Fatalf("WriteInput failed: %v", err)
	}
	res, err := tool.Execute(context.Background(), binary)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Failed() {
		t.Fatalf("Unexpected tool error: %s", res.Error)
	}
	if res.NbTraces != 2 || res.NbInstructions != 1234 {
		t.Errorf("Unexpected result %+v", res)
	}
	if !strings.Contains(res.Output, "café") {
		t.Errorf("Output not decoded as latin-1: %q", res.Output)
	}

	traces, err := tool.ReadTraces(2)
	if err != nil || !reflect.DeepEqual(traces, [][]float64{{1.5, 2.5}, {3.5, 4.5}}) {
		t.Errorf("ReadTraces = %v, %v", traces, err)
	}
	if _, err = tool.ReadTraces(3); err == nil {
		t.Errorf("Reading a missing trace did not fail")
	}
	asm, err := tool.ReadAsmTrace()
	if err != nil || asm != "ldr r0, [r1]\nmuls r0, r2\n" {
		t.Errorf("ReadAsmTrace = %q, %v", asm, err)
	}
	printed, err := tool.ReadPrintedData()
	if err != nil || !reflect.DeepEqual(printed, []int64{10, 255}) {
		t.Errorf("ReadPrintedData = %v, %v", printed, err)
	}
	input, err := os.ReadFile(tool.InputFilename())
	if err != nil || string(input) != "00\n02\n" {
		t.Errorf("Input file holds %q, %v", input, err)
	}
}

func TestToolExecuteFailure(t *testing.T) {
	tool, binary := newFakeTool(t, failingElmo)
	res, err := tool.Execute(context.Background(), binary)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Error != "undefined instruction\n" || res.NbTraces != 0 {
		t.Errorf("Unexpected result %+v", res)
	}
}

func TestToolExecuteChecksInstallation(t *testing.T) {
	tool, binary := newFakeTool(t, "")
	if _, err := tool.Execute(context.Background(), binary+".missing"); !errors.Is(err, goelmo.ErrBinaryNotFound) {
		t.Errorf("Missing binary returned %v", err)
	}
	if _, err := tool.Execute(context.Background(), binary); !errors.Is(err, goelmo.ErrToolNotFound) {
		t.Errorf("Missing executable returned %v", err)
	}
}

func TestToolWriteBinary(t *testing.T) {
	tool, _ := newFakeTool(t, "")
	path, err := tool.WriteBinary([]byte{1, 2})
	if err != nil {
		t.Fatalf("WriteBinary failed: %v", err)
	}
	if !filepath.IsAbs(path) || filepath.Dir(path) != tool.Dir() {
		t.Errorf("Binary written to %s", path)
	}
	if data, _ := os.ReadFile(path); !reflect.DeepEqual(data, []byte{1, 2}) {
		t.Errorf("Binary holds %v", data)
	}
}
