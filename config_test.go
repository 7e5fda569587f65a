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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/goelmo"
)

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "elmo.toml")
	content := `
tool_dir = "/opt/elmo"
port = 6000
max_workers = 2
`
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	conf, err := goelmo.LoadConfig(filename)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if conf.ToolDir != "/opt/elmo" || conf.Port != 6000 || conf.MaxWorkers != 2 {
		t.Errorf("Values not loaded: %+v", conf)
	}
	if conf.Host != goelmo.DefaultHost || conf.Executable != "elmo" || conf.ChallengeCountBits != 16 {
		t.Errorf("Defaults not kept: %+v", conf)
	}
	if conf.Addr() != "localhost:6000" {
		t.Errorf("Unexpected address %s", conf.Addr())
	}
	if conf.CoefficientsPath() != "/opt/elmo/coeffs.txt" {
		t.Errorf("Unexpected coefficients path %s", conf.CoefficientsPath())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"syntax":  "port = ",
		"workers": "max_workers = 0",
		"bits":    "challenge_count_bits = 4",
	} {
		filename := filepath.Join(dir, name+".toml")
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := goelmo.LoadConfig(filename); err == nil {
			t.Errorf("%s error not detected", name)
		}
	}
	if _, err := goelmo.LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Errorf("Missing file did not fail")
	}
}
