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

package util

import "math/bits"

func HammingWeight(n uint64) int {
	return bits.OnesCount64(n)
}

func HammingDistance(x, y uint64) int {
	return HammingWeight(x ^ y)
}

// Returns the nbBits low bits of n, least significant first.
func BinaryWriting(n uint32, nbBits int) []int {
	w := make([]int, nbBits)
	for i := range w {
		w[i] = int(n & 1)
		n >>= 1
	}
	return w
}
