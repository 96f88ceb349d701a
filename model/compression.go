// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"fmt"
	"strings"
)

// BlobCompression is an enumeration of the compression schemes a PBF blob
// may declare.
type BlobCompression int

const (
	RAW BlobCompression = iota
	ZLIB
	LZMA
	BZIP2
	LZ4
	ZSTD
)

var compressionNames = [...]string{"raw", "zlib", "lzma", "bzip2", "lz4", "zstd"}

func (c BlobCompression) String() string {
	if c < 0 || int(c) >= len(compressionNames) {
		return fmt.Sprintf("BlobCompression(%d)", int(c))
	}

	return compressionNames[c]
}

// ParseBlobCompression returns the compression named s, ignoring case.
func ParseBlobCompression(s string) (BlobCompression, error) {
	for i, name := range compressionNames {
		if strings.EqualFold(name, s) {
			return BlobCompression(i), nil
		}
	}

	return 0, fmt.Errorf("unknown blob compression %q", s)
}

// Compressions is a set of blob compressions.
type Compressions uint8

// DefaultCompressions are the schemes every PBF reader must understand.
const DefaultCompressions = Compressions(1<<RAW | 1<<ZLIB)

// NewCompressions returns DefaultCompressions extended with cs.
func NewCompressions(cs ...BlobCompression) Compressions {
	s := DefaultCompressions
	for _, c := range cs {
		s = s.With(c)
	}

	return s
}

// With returns a copy of the set that also contains c.
func (s Compressions) With(c BlobCompression) Compressions {
	return s | 1<<c
}

// Contains checks if c is in the set.
func (s Compressions) Contains(c BlobCompression) bool {
	return c >= 0 && c <= ZSTD && s&(1<<c) != 0
}
