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

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Returns v as a hexadecimal string without prefix, left-padded with zeros to
// nbBits/4 digits.
func ToHex(v uint64, nbBits int) string {
	h := strconv.FormatUint(v, 16)
	if pad := nbBits/4 - len(h); pad > 0 {
		h = strings.Repeat("0", pad) + h
	}
	return h
}

// Splits a hexadecimal string into 2-digit octets.
func SplitOctet(hexstr string) []string {
	var octets []string
	for i := 0; i < len(hexstr); i += 2 {
		end := i + 2
		if end > len(hexstr) {
			end = len(hexstr)
		}
		octets = append(octets, hexstr[i:end])
	}
	return octets
}

func mask(nbBits int) uint64 {
	if nbBits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(nbBits)) - 1
}

// Returns the nbBits two's-complement encoding of v as big-endian octets.
func ToSignedHex(v int64, nbBits int) []string {
	return SplitOctet(ToHex(uint64(v)&mask(nbBits), nbBits))
}

// Writes v as nbBits/8 octets, one per line.
func Write(w io.Writer, v int64, nbBits int) error {
	octets := ToSignedHex(v, nbBits)
	for i := 0; i < nbBits/8; i++ {
		if _, err := io.WriteString(w, octets[i]+"\n"); err != nil {
			return fmt.Errorf("Failed to write input value: %v", err)
		}
	}
	return nil
}

func WriteList(w io.Writer, values []int64, nbBits int) error {
	for _, v := range values {
		if err := Write(w, v, nbBits); err != nil {
			return err
		}
	}
	return nil
}

// Reads one value written by Write and sign-extends it.
func ReadSigned(sc *bufio.Scanner, nbBits int) (int64, error) {
	var u uint64
	for i := 0; i < nbBits/8; i++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, io.ErrUnexpectedEOF
		}
		b, err := strconv.ParseUint(strings.TrimSpace(sc.Text()), 16, 8)
		if err != nil {
			return 0, fmt.Errorf("Bad input octet %q: %v", sc.Text(), err)
		}
		u = u<<8 | b
	}
	if nbBits < 64 && u&(uint64(1)<<uint(nbBits-1)) != 0 {
		u |= ^mask(nbBits)
	}
	return int64(u), nil
}
