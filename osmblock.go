// Copyright 2017-25 the original author or authors.
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

// Package osmblock decodes OpenStreetMap PBF data.
//
// DecodeBlock and DecodeHeader decode single serialized blobs into a lazy
// sequence of entities and the file header.  A Decoder reads a whole
// .osm.pbf stream, decoding its blocks concurrently while preserving their
// order.
package osmblock

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/decoder"
	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

// Entities is the lazy, single pass sequence of the entities of one block.
type Entities = decoder.Entities

// BlobError reports the offset and type of a frame that could not be
// decoded.
type BlobError = decoder.BlobError

var (
	ErrUnsupportedCompression = decoder.ErrUnsupportedCompression
	ErrCorruptBlob            = decoder.ErrCorruptBlob
	ErrUnknownMemberKind      = decoder.ErrUnknownMemberKind
	ErrMalformedBlock         = decoder.ErrMalformedBlock
	ErrBlobTooLarge           = decoder.ErrBlobTooLarge

	// ErrUnsupportedFeature is returned when the file header requires a
	// feature the decoder does not implement.
	ErrUnsupportedFeature = errors.New("unsupported required feature")
)

// DecodeBlock decodes a serialized OSMData blob.  Only WithCompressions
// applies.
func DecodeBlock(data []byte, opts ...DecoderOption) (*Entities, error) {
	cfg := newDecoderOptions(opts)

	blob, err := unmarshalBlob(data)
	if err != nil {
		return nil, err
	}

	return decoder.DecodeBlob(blob, cfg.compressions)
}

// DecodeHeader decodes a serialized OSMHeader blob.  Only WithCompressions
// applies.
func DecodeHeader(data []byte, opts ...DecoderOption) (model.Header, error) {
	cfg := newDecoderOptions(opts)

	blob, err := unmarshalBlob(data)
	if err != nil {
		return model.Header{}, err
	}

	return decoder.DecodeHeader(blob, cfg.compressions)
}

func unmarshalBlob(data []byte) (*pb.Blob, error) {
	blob := &pb.Blob{}
	if err := proto.Unmarshal(data, blob); err != nil {
		return nil, fmt.Errorf("%w: blob: %w", ErrCorruptBlob, err)
	}

	return blob, nil
}
