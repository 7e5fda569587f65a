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

import "io"

// A simulation project: a leaking target binary, and the way its challenges are
// written in the input file of the ELMO tool.
type Project interface {
	// Path of the leaking binary. Relative paths are resolved against the
	// project directory.
	BinaryPath() string
	// Shape of one challenge.
	ChallengeFormat() Format
	// Writes one challenge in the input file.
	SerializeChallenge(w io.Writer, c Challenge) error
}

// Implemented by projects that know how to build their own challenges.
type ChallengeGenerator interface {
	TestChallenges() []Challenge
	RandomChallenges(n int) []Challenge
}
