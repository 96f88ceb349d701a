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

// Package encoder builds PBF blobs and files from model entities.  It
// exists to produce fixtures for the decoder's tests and is not part of
// the public API.
package encoder

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/encoder/packers"
	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

type Packer interface {
	// WriteCloser is used to write the contents of the blob to be packed.
	// Be sure to call the Close method to ensure that all the contents are
	// packed.
	io.WriteCloser

	// SaveTo will save the packed contents to the blob using the correct
	// Protobuf data class.
	SaveTo(blob *pb.Blob)
}

// PackBlob serializes the message and compresses it into a blob.
func PackBlob(msg proto.Message, c model.BlobCompression) (*pb.Blob, error) {
	p, err := newPacker(c)
	if err != nil {
		return nil, err
	}

	b, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("could not marshal message: %w", err)
	}

	if _, err = p.Write(b); err != nil {
		return nil, fmt.Errorf("could not compress message: %w", err)
	}

	if err = p.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	blob := &pb.Blob{}
	if c != model.RAW {
		blob.RawSize = proto.Int32(int32(len(b)))
	}

	p.SaveTo(blob)

	return blob, nil
}

// Pack returns the serialized blob of the message.
func Pack(msg proto.Message, c model.BlobCompression) ([]byte, error) {
	blob, err := PackBlob(msg, c)
	if err != nil {
		return nil, err
	}

	bb, err := proto.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("could not marshal blob data: %w", err)
	}

	return bb, nil
}

func newPacker(c model.BlobCompression) (Packer, error) {
	switch c {
	case model.RAW:
		return packers.NewRawPacker(), nil
	case model.ZLIB:
		return packers.NewZlibPacker(), nil
	case model.LZMA:
		return packers.NewLzmaPacker(), nil
	case model.LZ4:
		return packers.NewLz4Packer(), nil
	case model.ZSTD:
		return packers.NewZstdPacker(), nil
	default:
		return nil, fmt.Errorf("no packer for %s", c)
	}
}
