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

package encoder

import (
	"io"

	"github.com/destel/rill"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

// packingCPUs is the number of blocks packed concurrently by SaveFile.
const packingCPUs = 4

// SaveFile writes the header followed by one OSMData frame per block.
// Blocks are packed concurrently and written in order.
func SaveFile(w io.Writer, hdr model.Header, c model.BlobCompression, blocks ...*pb.PrimitiveBlock) error {
	if err := SaveHeader(w, hdr, c); err != nil {
		return err
	}

	packed := rill.OrderedMap(rill.FromSlice(blocks, nil), packingCPUs, GenerateBatchPacker(c))

	return rill.ForEach(packed, 1, func(bb []byte) error {
		return SaveFrame(w, osmDataType, bb)
	})
}

// GenerateBatchPacker returns a function that packs blocks into serialized
// blobs with the given compression.
func GenerateBatchPacker(c model.BlobCompression) func(block *pb.PrimitiveBlock) ([]byte, error) {
	return func(block *pb.PrimitiveBlock) ([]byte, error) {
		return Pack(block, c)
	}
}
