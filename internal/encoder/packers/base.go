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

// Package packers compresses serialized blocks into the data field of a
// blob, one packer per compression scheme.
package packers

import (
	"bytes"
	"io"
)

// base buffers the output of a compressing writer.
type base struct {
	w   io.WriteCloser
	buf *bytes.Buffer
}

func newBasePacker(buf *bytes.Buffer, w io.WriteCloser) *base {
	return &base{w: w, buf: buf}
}

func (b *base) Write(p []byte) (int, error) {
	return b.w.Write(p)
}

// Close flushes the compressing writer.
func (b *base) Close() error {
	return b.w.Close()
}

// packed returns the compressed bytes.  Only valid after Close.
func (b *base) packed() []byte {
	return b.buf.Bytes()
}

type nopCloserWriter struct {
	io.Writer
}

func (w nopCloserWriter) Close() error {
	return nil
}
