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

package kyberntt_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/goelmo"
	"github.com/google/goelmo/projects/kyberntt"
)

func TestRegistered(t *testing.T) {
	reg, err := goelmo.DefaultRegistry().Get(kyberntt.Name)
	if err != nil {
		t.Fatalf("Project not registered: %v", err)
	}
	if !strings.HasSuffix(reg.BinaryPath(), filepath.Join("kyberntt", "firmware", "project.bin")) {
		t.Errorf("Unexpected binary path %s", reg.BinaryPath())
	}
	if _, ok := reg.Project.(goelmo.ChallengeGenerator); !ok {
		t.Errorf("Project does not generate challenges")
	}
}

func TestTestChallenges(t *testing.T) {
	var p kyberntt.Simulation
	challenges := p.TestChallenges()
	if len(challenges) != 3 {
		t.Fatalf("Unexpected number of challenges %d", len(challenges))
	}
	var b strings.Builder
	if err := p.SerializeChallenge(&b, challenges[2]); err != nil {
		t.Fatalf("SerializeChallenge failed: %v", err)
	}
	want := strings.Repeat("ff\nfe\n", kyberntt.K*kyberntt.N)
	if b.String() != want {
		t.Errorf("Unexpected serialization of the -2 challenge")
	}
}

func TestRandomChallenges(t *testing.T) {
	var p kyberntt.Simulation
	challenges := p.RandomChallenges(4)
	if len(challenges) != 4 {
		t.Fatalf("Unexpected number of challenges %d", len(challenges))
	}
	counts := map[int64]int{}
	for _, c := range challenges {
		var b strings.Builder
		if err := p.SerializeChallenge(&b, c); err != nil {
			t.Fatalf("Random challenge has a bad format: %v", err)
		}
		for _, v := range c[0].Values {
			if v < -2 || v > 2 {
				t.Fatalf("Coefficient %d out of range", v)
			}
			counts[v]++
		}
	}
	// 2048 draws, 0 has probability 6/16.
	if counts[0] < 500 || counts[0] > 1050 {
		t.Errorf("Unlikely distribution %v", counts)
	}
}

// The registered binary is produced by the shipped Makefile and sources.
func TestFirmwareBuildsRegisteredBinary(t *testing.T) {
	reg, err := goelmo.DefaultRegistry().Get(kyberntt.Name)
	if err != nil {
		t.Fatalf("Project not registered: %v", err)
	}
	dir := filepath.Dir(reg.BinaryPath())
	makefile, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		t.Fatalf("No Makefile next to the binary: %v", err)
	}
	if target := filepath.Base(reg.BinaryPath()) + ":"; !strings.Contains(string(makefile), "\n"+target) {
		t.Errorf("Makefile has no %s target", target)
	}
	for _, f := range []string{
		"project.c", "ntt.c", "poly.c", "polyvec.c", "reduce.c",
		"params.h", "ntt.h", "poly.h", "polyvec.h", "reduce.h",
		"elmoasmfunctionsdef-extension.h",
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("Missing firmware source: %v", err)
		}
	}
}
