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

// Simulation of the NTT of a Kyber512 secret vector.
//
// The firmware reads K*N signed coefficients per challenge, computes the NTT
// of the vector inside the trigger window and prints the K*N results.
package kyberntt

import (
	"io"
	"path/filepath"
	"runtime"

	"github.com/google/goelmo"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	Name = "KyberNTTSimulation"

	K = 2
	N = 256

	// C sources of the simulated binary, relative to the package directory.
	FirmwareDir = "firmware"
)

// Centered binomial distribution of the secret coefficients (eta = 2).
var (
	coefficients = []int64{-2, -1, 0, 1, 2}
	weights      = []float64{1, 4, 6, 4, 1}
)

type Simulation struct{}

func init() {
	_, filename, _, _ := runtime.Caller(0)
	goelmo.Register(Name, filepath.Dir(filename), Simulation{})
}

// Built by the Makefile of the firmware directory.
func (Simulation) BinaryPath() string {
	return filepath.Join(FirmwareDir, "project.bin")
}

func (Simulation) ChallengeFormat() goelmo.Format {
	return goelmo.Format{{K, N}}
}

func (s Simulation) SerializeChallenge(w io.Writer, c goelmo.Challenge) error {
	return goelmo.SerializeByFormat(w, s.ChallengeFormat(), c, goelmo.DefaultValueBits)
}

func (Simulation) TestChallenges() []goelmo.Challenge {
	var challenges []goelmo.Challenge
	for _, v := range []int64{0, 1, -2} {
		challenges = append(challenges, goelmo.Challenge{goelmo.Fill(v, K, N)})
	}
	return challenges
}

func (Simulation) RandomChallenges(n int) []goelmo.Challenge {
	dist := distuv.NewCategorical(weights, nil)
	challenges := make([]goelmo.Challenge, n)
	for i := range challenges {
		p := goelmo.Fill(0, K, N)
		for j := range p.Values {
			p.Values[j] = coefficients[int(dist.Rand())]
		}
		challenges[i] = goelmo.Challenge{p}
	}
	return challenges
}
