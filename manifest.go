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

// Project manifests.
//
//	name = "AesSimulation"
//	binary = "project.bin"
//	format = [[16], [16]]
//	value_bits = 8
package goelmo

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
)

const ManifestName = "project.toml"

// Implements Project from a manifest file.
type ManifestProject struct {
	Name      string `toml:"name"`
	Binary    string `toml:"binary"`
	Format    Format `toml:"format"`
	ValueBits int    `toml:"value_bits"`
	// Manifests with exclude set are not registered by ScanDirectory.
	Exclude bool `toml:"exclude"`
}

func LoadManifest(filename string) (*ManifestProject, error) {
	m := &ManifestProject{ValueBits: DefaultValueBits}
	if _, err := toml.DecodeFile(filename, m); err != nil {
		return nil, fmt.Errorf("Error loading manifest %s: %v", filename, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("Manifest %s has no name", filename)
	}
	if m.Binary == "" {
		return nil, fmt.Errorf("Manifest %s has no binary", filename)
	}
	if m.ValueBits <= 0 || m.ValueBits > 64 || m.ValueBits%8 != 0 {
		return nil, fmt.Errorf("Manifest %s: bad value_bits %d", filename, m.ValueBits)
	}
	return m, nil
}

func (m *ManifestProject) BinaryPath() string {
	return m.Binary
}

func (m *ManifestProject) ChallengeFormat() Format {
	return m.Format
}

func (m *ManifestProject) SerializeChallenge(w io.Writer, c Challenge) error {
	return SerializeByFormat(w, m.Format, c, m.ValueBits)
}

// Registers every project manifest found under root.
func (r *Registry) ScanDirectory(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != ManifestName {
			return nil
		}
		m, err := LoadManifest(path)
		if err != nil {
			return err
		}
		if m.Exclude {
			glog.V(1).Infof("Skipping excluded project %s", path)
			return nil
		}
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return err
		}
		if err = r.Register(m.Name, dir, m); err != nil {
			glog.Warning(err)
		}
		return nil
	})
}
