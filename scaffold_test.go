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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/goelmo"
)

func fakeToolInstallation(t *testing.T) *goelmo.Config {
	t.Helper()
	conf := goelmo.DefaultConfig()
	conf.ToolDir = t.TempDir()
	conf.ProjectsDir = filepath.Join(t.TempDir(), "projects")
	for _, f := range []string{
		"Examples/elmoasmfunctions.o",
		"Examples/elmoasmfunctions.s",
		"Examples/elmoasmfunctionsdef.h",
		"Examples/DPATraces/MBedAES/vector.o",
		"Examples/DPATraces/MBedAES/MBedAES.ld",
	} {
		path := filepath.Join(conf.ToolDir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return conf
}

func TestCreateSimulation(t *testing.T) {
	conf := fakeToolInstallation(t)
	dir, err := goelmo.CreateSimulation(conf, "aes/masked", "MaskedAes")
	if err != nil {
		t.Fatalf("CreateSimulation failed: %v", err)
	}
	if dir != filepath.Join(conf.ProjectsDir, "aes", "masked") {
		t.Errorf("Project created in %s", dir)
	}
	for _, f := range []string{
		"elmoasmfunctions.o", "elmoasmfunctions.s", "elmoasmfunctionsdef.h", "vector.o",
		"elmoasmfunctionsdef-extension.h", "Makefile", "project.c",
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("Missing %s: %v", f, err)
		}
	}
	ld, err := os.ReadFile(filepath.Join(dir, "project.ld"))
	if err != nil || string(ld) != "Examples/DPATraces/MBedAES/MBedAES.ld" {
		t.Errorf("Linker script not copied: %q, %v", ld, err)
	}

	r := goelmo.NewRegistry()
	if err = r.ScanDirectory(conf.ProjectsDir); err != nil {
		t.Fatalf("Generated manifest cannot be scanned: %v", err)
	}
	reg, err := r.Get("MaskedAes")
	if err != nil {
		t.Fatalf("Generated project not found: %v", err)
	}
	if reg.BinaryPath() != filepath.Join(dir, "project.bin") {
		t.Errorf("Unexpected binary path %s", reg.BinaryPath())
	}

	if _, err = goelmo.CreateSimulation(conf, "aes/masked", "Other"); !errors.Is(err, goelmo.ErrProjectExists) {
		t.Errorf("Existing project returned %v", err)
	}
}

func TestCreateSimulationErrors(t *testing.T) {
	conf := fakeToolInstallation(t)
	if _, err := goelmo.CreateSimulation(conf, "p", "not-valid"); err == nil {
		t.Errorf("Invalid classname accepted")
	}

	conf.ToolDir = t.TempDir()
	if _, err := goelmo.CreateSimulation(conf, "p", "Valid"); err == nil {
		t.Errorf("Missing tool files did not fail")
	}
	if _, err := os.Stat(filepath.Join(conf.ProjectsDir, "p")); !os.IsNotExist(err) {
		t.Errorf("Partial project left behind: %v", err)
	}
}

func TestValidNames(t *testing.T) {
	if !goelmo.ValidClassname("Kyber_512") || goelmo.ValidClassname("a b") || goelmo.ValidClassname("") {
		t.Errorf("ValidClassname misclassified names")
	}
	if !goelmo.ValidRepository("aes/v1.0_x-y") || goelmo.ValidRepository("a;b") {
		t.Errorf("ValidRepository misclassified names")
	}
}
