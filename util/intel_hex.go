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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Value of the bytes between two data segments of a flattened image, as in
// erased flash.
const HexPadding = 0xff

// Contiguous memory image of an Intel-HEX file.
type Image struct {
	Address uint32
	Data    []byte
}

// Flattens all data segments of an Intel-HEX stream into one image starting at
// the lowest address.
func LoadIntelHexIo(src io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(src); err != nil {
		return nil, err
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("No data segment")
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Address < segments[j].Address })

	start := segments[0].Address
	last := segments[len(segments)-1]
	img := &Image{start, make([]byte, int(last.Address-start)+len(last.Data))}
	for i := range img.Data {
		img.Data[i] = HexPadding
	}
	for _, s := range segments {
		copy(img.Data[s.Address-start:], s.Data)
	}
	return img, nil
}

func LoadIntelHexFile(filename string) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadIntelHexIo(file)
}

func IsIntelHex(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hex")
}

// Returns the raw image of a target binary. Anything but Intel-HEX is read as is.
func LoadBinary(filename string) ([]byte, error) {
	if !IsIntelHex(filename) {
		return os.ReadFile(filename)
	}
	img, err := LoadIntelHexFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Failed loading hex file: %v", err)
	}
	return img.Data, nil
}
