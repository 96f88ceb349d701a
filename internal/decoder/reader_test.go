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
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/encoder"
	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

var testHeader = model.Header{
	RequiredFeatures: []string{"OsmSchema-V0.6", "DenseNodes"},
	WritingProgram:   "osmblock-test",
}

func testFile(t *testing.T, blocks ...*pb.PrimitiveBlock) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, encoder.SaveFile(&buf, testHeader, model.ZLIB, blocks...))

	return buf.Bytes()
}

func frameHeader(t *testing.T, typ string, datasize int32) []byte {
	t.Helper()

	hb, err := proto.Marshal(&pb.BlobHeader{Type: proto.String(typ), Datasize: proto.Int32(datasize)})
	require.NoError(t, err)

	b := binary.BigEndian.AppendUint32(nil, uint32(len(hb)))

	return append(b, hb...)
}

func TestFrameReader(t *testing.T) {
	data := testFile(t,
		encoder.EncodeBlock(true, []model.Entity{&model.Node{ID: 1}}),
		encoder.EncodeBlock(true, []model.Entity{&model.Way{ID: 2}}),
	)

	fr := NewFrameReader(bytes.NewReader(data))
	defer fr.Close()

	var frames []Frame

	for {
		f, err := fr.Next()
		if err == io.EOF {
			break
		}

		require.NoError(t, err)

		frames = append(frames, f)
	}

	require.Len(t, frames, 3)
	assert.Equal(t, OSMHeaderType, frames[0].Type)
	assert.Equal(t, OSMDataType, frames[1].Type)
	assert.Equal(t, OSMDataType, frames[2].Type)

	assert.Equal(t, int64(0), frames[0].Offset)
	assert.Less(t, frames[0].Offset, frames[1].Offset)
	assert.Less(t, frames[1].Offset, frames[2].Offset)

	// each offset points at the length prefix of its frame
	for _, f := range frames[1:] {
		size := binary.BigEndian.Uint32(data[f.Offset:])

		bh := &pb.BlobHeader{}
		require.NoError(t, proto.Unmarshal(data[f.Offset+4:f.Offset+4+int64(size)], bh))
		assert.Equal(t, OSMDataType, bh.GetType())
	}

	ents, err := DecodeBlob(frames[2].Blob, model.DefaultCompressions)
	require.NoError(t, err)

	actual, err := ents.Collect()
	require.NoError(t, err)
	assert.Equal(t, []model.ID{2}, ids(actual))
}

func TestFrameReaderErrors(t *testing.T) {
	huge := binary.BigEndian.AppendUint32(nil, MaxBlobHeaderSize+1)
	tooLarge := frameHeader(t, OSMDataType, MaxBlobSize+1)
	truncated := append(frameHeader(t, OSMDataType, 100), 1, 2, 3)

	tests := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"blob header too large", huge, ErrBlobTooLarge},
		{"blob too large", tooLarge, ErrBlobTooLarge},
		{"truncated size", []byte{0, 0}, io.ErrUnexpectedEOF},
		{"truncated blob", truncated, io.ErrUnexpectedEOF},
		{"truncated blob header", binary.BigEndian.AppendUint32(nil, 10), io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := NewFrameReader(bytes.NewReader(tt.data))
			defer fr.Close()

			_, err := fr.Next()
			assert.ErrorIs(t, err, tt.expected)

			var be *BlobError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, int64(0), be.Offset)
		})
	}
}

func TestFrameReaderEmpty(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader(nil))
	defer fr.Close()

	_, err := fr.Next()
	assert.Equal(t, io.EOF, err)
}

func TestGenerateBlobReaderSkipsUnknown(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, encoder.SaveBlock(&buf, encoder.EncodeBlock(true, []model.Entity{&model.Node{ID: 1}}), model.RAW))

	bb, err := encoder.Pack(&pb.StringTable{S: []string{"index"}}, model.RAW)
	require.NoError(t, err)
	require.NoError(t, encoder.SaveFrame(&buf, "OSMIndex", bb))

	require.NoError(t, encoder.SaveBlock(&buf, encoder.EncodeBlock(true, []model.Entity{&model.Node{ID: 2}}), model.RAW))

	fr := NewFrameReader(&buf)
	defer fr.Close()

	var frames []Frame

	for f, err := range GenerateBlobReader(context.Background(), fr) {
		require.NoError(t, err)

		frames = append(frames, f)
	}

	require.Len(t, frames, 2)
	assert.Greater(t, frames[1].Offset, frames[0].Offset)
}

func TestGenerateBlobReaderSecondHeader(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader(testFile(t)))
	defer fr.Close()

	var errs []error

	for _, err := range GenerateBlobReader(context.Background(), fr) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrCorruptBlob)
}

func TestGenerateBlobReaderCanceled(t *testing.T) {
	data := testFile(t, encoder.EncodeBlock(true, []model.Entity{&model.Node{ID: 1}}))

	fr := NewFrameReader(bytes.NewReader(data))
	defer fr.Close()

	_, err := fr.Next()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	for range GenerateBlobReader(ctx, fr) {
		count++
	}

	assert.Zero(t, count)
}
