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

package decoder

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedCompression is returned for a blob compressed with a
	// scheme the decoder does not accept.
	ErrUnsupportedCompression = errors.New("unsupported blob compression")

	// ErrCorruptBlob is returned when a blob cannot be decompressed into
	// exactly its declared raw size.
	ErrCorruptBlob = errors.New("corrupt blob")

	// ErrUnknownMemberKind is returned for a relation member whose type is
	// not a node, way or relation.
	ErrUnknownMemberKind = errors.New("unknown relation member kind")

	// ErrMalformedBlock is returned when a block's parallel arrays disagree
	// in length or reference strings outside the string table.
	ErrMalformedBlock = errors.New("malformed block")

	// ErrBlobTooLarge is returned when a frame declares a blob header or
	// blob larger than the PBF limits.
	ErrBlobTooLarge = errors.New("blob too large")
)

// BlobError records the file offset and type of the frame whose decoding
// failed.
type BlobError struct {
	Offset int64
	Type   string
	Err    error
}

func (e *BlobError) Error() string {
	return fmt.Sprintf("%s blob at offset %d: %v", e.Type, e.Offset, e.Err)
}

func (e *BlobError) Unwrap() error {
	return e.Err
}
