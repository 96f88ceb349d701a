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
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz/lzma"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

// MaxBlobSize is the largest uncompressed blob the PBF format allows.
const MaxBlobSize = 32 * 1024 * 1024

// Compression returns the compression scheme declared by the blob.  ok is
// false when the blob carries no data at all.
func Compression(blob *pb.Blob) (c model.BlobCompression, ok bool) {
	switch blob.GetData().(type) {
	case *pb.Blob_Raw:
		return model.RAW, true
	case *pb.Blob_ZlibData:
		return model.ZLIB, true
	case *pb.Blob_LzmaData:
		return model.LZMA, true
	case *pb.Blob_OBSOLETEBzip2Data:
		return model.BZIP2, true
	case *pb.Blob_Lz4Data:
		return model.LZ4, true
	case *pb.Blob_ZstdData:
		return model.ZSTD, true
	default:
		return 0, false
	}
}

// unpack uncompresses the blob into buf, returning the raw block bytes.
// Raw blobs are returned without copying.
//
// The declared raw size pre-sizes buf and is the exact number of bytes the
// codec must produce; reading stops one byte past it.
func unpack(buf *bytes.Buffer, blob *pb.Blob, accepted model.Compressions) ([]byte, error) {
	c, ok := Compression(blob)
	if !ok {
		return nil, fmt.Errorf("%w: blob has no data", ErrUnsupportedCompression)
	}

	if !accepted.Contains(c) || c == model.BZIP2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}

	if c == model.RAW {
		return blob.GetRaw(), nil
	}

	rawSize := blob.GetRawSize()
	if rawSize < 0 || rawSize > MaxBlobSize {
		return nil, fmt.Errorf("%w: declared raw size %d outside [0, %d]", ErrCorruptBlob, rawSize, MaxBlobSize)
	}

	src, rdr, err := newUnpacker(blob, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s reader: %w", ErrCorruptBlob, c, err)
	}
	defer rdr.Close()

	buf.Reset()
	buf.Grow(int(rawSize) + bytes.MinRead)

	n, err := buf.ReadFrom(io.LimitReader(rdr, int64(rawSize)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s stream: %w", ErrCorruptBlob, c, err)
	}

	if n != int64(rawSize) {
		return nil, fmt.Errorf("%w: raw blob data size %d but expected %d", ErrCorruptBlob, n, rawSize)
	}

	// the zlib reader consumes its input exactly, so anything left over
	// was never part of the stream
	if c == model.ZLIB && src.Len() > 0 {
		return nil, fmt.Errorf("%w: %d bytes of unconsumed zlib input", ErrCorruptBlob, src.Len())
	}

	return buf.Bytes(), nil
}

// Decompress returns the raw block bytes of the blob in a newly allocated
// slice.
func Decompress(blob *pb.Blob, accepted model.Compressions) ([]byte, error) {
	var buf bytes.Buffer

	raw, err := unpack(&buf, blob, accepted)
	if err != nil {
		return nil, err
	}

	if _, ok := blob.GetData().(*pb.Blob_Raw); ok {
		return bytes.Clone(raw), nil
	}

	return raw, nil
}

// newUnpacker opens the codec for the compressed payload of the blob.
func newUnpacker(blob *pb.Blob, c model.BlobCompression) (*bytes.Reader, io.ReadCloser, error) {
	var (
		src *bytes.Reader
		rdr io.ReadCloser
		err error
	)

	switch c {
	case model.ZLIB:
		src = bytes.NewReader(blob.GetZlibData())
		rdr, err = zlib.NewReader(src)
	case model.LZMA:
		src = bytes.NewReader(blob.GetLzmaData())

		var r *lzma.Reader
		if r, err = lzma.NewReader(src); err == nil {
			rdr = io.NopCloser(r)
		}
	case model.LZ4:
		src = bytes.NewReader(blob.GetLz4Data())
		rdr = io.NopCloser(lz4.NewReader(src))
	case model.ZSTD:
		src = bytes.NewReader(blob.GetZstdData())

		var d *zstd.Decoder
		if d, err = zstd.NewReader(src, zstd.WithDecoderConcurrency(1)); err == nil {
			rdr = d.IOReadCloser()
		}
	default:
		err = fmt.Errorf("no unpacker for %s", c)
	}

	if err != nil {
		return nil, nil, err
	}

	return src, rdr, nil
}
