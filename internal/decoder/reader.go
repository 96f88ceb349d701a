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

package decoder

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/core"
	"m4o.io/osmblock/internal/pb"
)

const (
	// OSMHeaderType is the frame type of the file header blob.
	OSMHeaderType = "OSMHeader"

	// OSMDataType is the frame type of primitive block blobs.
	OSMDataType = "OSMData"

	// MaxBlobHeaderSize is the largest blob header the PBF format allows.
	MaxBlobHeaderSize = 64 * 1024
)

// Frame is one blob read off of a PBF stream together with the type
// declared by its blob header.
type Frame struct {
	Offset int64
	Type   string
	Blob   *pb.Blob
}

// FrameReader reads the length prefixed blob header and blob frames of a
// PBF stream.
type FrameReader struct {
	r      io.Reader
	offset int64
	buf    *core.PooledBuffer
}

// NewFrameReader returns a frame reader positioned at the start of r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, buf: core.NewPooledBuffer()}
}

// Close releases the reader's buffer.
func (fr *FrameReader) Close() {
	fr.buf.Close()
}

// Next reads the next frame.  A stream ending cleanly between frames
// reports io.EOF; any other failure is a *BlobError carrying the offset of
// the frame.
func (fr *FrameReader) Next() (Frame, error) {
	offset := fr.offset

	fail := func(typ string, err error) (Frame, error) {
		return Frame{}, &BlobError{Offset: offset, Type: typ, Err: err}
	}

	var size uint32

	if err := binary.Read(fr.r, binary.BigEndian, &size); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}

		return fail("", fmt.Errorf("error reading blob header size: %w", err))
	}

	fr.offset += 4

	if size > MaxBlobHeaderSize {
		return fail("", fmt.Errorf("%w: blob header of %d bytes", ErrBlobTooLarge, size))
	}

	fr.buf.Reset()

	if err := fr.read(fr.buf, int64(size)); err != nil {
		return fail("", fmt.Errorf("error reading blob header: %w", err))
	}

	header := &pb.BlobHeader{}
	if err := proto.Unmarshal(fr.buf.Bytes(), header); err != nil {
		return fail("", fmt.Errorf("%w: blob header: %w", ErrCorruptBlob, err))
	}

	typ := header.GetType()

	datasize := header.GetDatasize()
	if datasize < 0 || datasize > MaxBlobSize {
		return fail(typ, fmt.Errorf("%w: blob of %d bytes", ErrBlobTooLarge, datasize))
	}

	fr.buf.Reset()

	if err := fr.read(fr.buf, int64(datasize)); err != nil {
		return fail(typ, fmt.Errorf("error reading blob: %w", err))
	}

	blob := &pb.Blob{}
	if err := proto.Unmarshal(fr.buf.Bytes(), blob); err != nil {
		return fail(typ, fmt.Errorf("%w: blob: %w", ErrCorruptBlob, err))
	}

	return Frame{Offset: offset, Type: typ, Blob: blob}, nil
}

func (fr *FrameReader) read(buf *core.PooledBuffer, size int64) error {
	n, err := io.CopyN(buf, fr.r, size)
	fr.offset += n

	return unexpected(err)
}

// unexpected reports a stream ending inside a frame as io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}

// GenerateBlobReader creates an iterator over the OSMData frames remaining
// in the frame reader.  Frames of unknown type are skipped; a second header
// is an error.
func GenerateBlobReader(ctx context.Context, fr *FrameReader) iter.Seq2[Frame, error] {
	return func(yield func(f Frame, err error) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			f, err := fr.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Error("unable to read blob", "error", err)
					yield(Frame{}, err)
				}

				return
			}

			switch f.Type {
			case OSMDataType:
				if !yield(f, nil) {
					return
				}
			case OSMHeaderType:
				err := &BlobError{Offset: f.Offset, Type: f.Type, Err: fmt.Errorf("%w: unexpected header", ErrCorruptBlob)}
				slog.Error("unable to read blob", "error", err)
				yield(Frame{}, err)

				return
			default:
				slog.Warn("skipping blob of unknown type", "type", f.Type, "offset", f.Offset)
			}
		}
	}
}
