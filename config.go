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

// Tool configuration.
package goelmo

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Directory of the local ELMO tool installation.
	ToolDir string `toml:"tool_dir"`
	// Name of the ELMO executable inside ToolDir.
	Executable string `toml:"executable"`
	// Name of the input file read by the tool, inside ToolDir.
	InputFile string `toml:"input_file"`
	// Directory written by the tool, inside ToolDir.
	OutputDir string `toml:"output_dir"`
	// Coefficients of the power model. Relative to ToolDir unless absolute.
	CoefficientsFile string `toml:"coefficients_file"`
	// Root of the projects created by CreateSimulation.
	ProjectsDir string `toml:"projects_dir"`

	// ELMO server.
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	MaxWorkers int    `toml:"max_workers"`

	// Width of the number of challenges written in the input file.
	ChallengeCountBits int `toml:"challenge_count_bits"`
}

const (
	DefaultHost = "localhost"
	DefaultPort = 5000
)

func DefaultConfig() *Config {
	return &Config{
		ToolDir:            "elmo-tool",
		Executable:         "elmo",
		InputFile:          "input.txt",
		OutputDir:          "output",
		CoefficientsFile:   "coeffs.txt",
		ProjectsDir:        "projects",
		Host:               DefaultHost,
		Port:               DefaultPort,
		MaxWorkers:         4,
		ChallengeCountBits: 16,
	}
}

// Overlays a TOML configuration file on top of the defaults.
func LoadConfig(filename string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, fmt.Errorf("Error loading config file: %v", err)
	}
	if c.MaxWorkers < 1 {
		return nil, fmt.Errorf("max_workers must be positive, got %d", c.MaxWorkers)
	}
	if c.ChallengeCountBits < 8 || c.ChallengeCountBits > 63 {
		return nil, fmt.Errorf("challenge_count_bits out of range: %d", c.ChallengeCountBits)
	}
	return c, nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) CoefficientsPath() string {
	if filepath.IsAbs(c.CoefficientsFile) {
		return c.CoefficientsFile
	}
	return filepath.Join(c.ToolDir, c.CoefficientsFile)
}
