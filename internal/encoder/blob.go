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
	"encoding/binary"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

const (
	osmHeaderType = "OSMHeader"
	osmDataType   = "OSMData"
)

// SaveBlock writes the primitive block as an OSMData frame.
func SaveBlock(w io.Writer, blk *pb.PrimitiveBlock, c model.BlobCompression) error {
	bb, err := Pack(blk, c)
	if err != nil {
		return fmt.Errorf("could not pack block: %w", err)
	}

	return SaveFrame(w, osmDataType, bb)
}

// SaveFrame writes a length prefixed blob header followed by the
// serialized blob.
func SaveFrame(w io.Writer, typ string, bb []byte) error {
	hdr := &pb.BlobHeader{
		Type:     proto.String(typ),
		Datasize: proto.Int32(int32(len(bb))),
	}

	hb, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("could not marshal blob header: %w", err)
	}

	if err = binary.Write(w, binary.BigEndian, uint32(len(hb))); err != nil {
		return fmt.Errorf("could not write header size: %w", err)
	}

	if _, err = w.Write(hb); err != nil {
		return fmt.Errorf("could not write blob header: %w", err)
	}

	if _, err = w.Write(bb); err != nil {
		return fmt.Errorf("could not write blob data: %w", err)
	}

	return nil
}
