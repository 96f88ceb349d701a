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
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/encoder"
	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

func payload(t *testing.T) (*pb.StringTable, []byte) {
	t.Helper()

	st := &pb.StringTable{S: []string{"", "highway", "residential", "name", "Rue de la Paix"}}
	for i := 0; i < 100; i++ {
		st.S = append(st.S, "building")
	}

	b, err := proto.Marshal(st)
	require.NoError(t, err)

	return st, b
}

func zlibBytes(t *testing.T, b []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := zlib.NewWriter(&buf)
	_, err := w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestDecompressRawUnchanged(t *testing.T) {
	_, expected := payload(t)

	blob := &pb.Blob{Data: &pb.Blob_Raw{Raw: expected}}

	raw, err := Decompress(blob, model.DefaultCompressions)
	require.NoError(t, err)
	assert.Equal(t, expected, raw)
}

func TestDecompressRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		compression model.BlobCompression
	}{
		{"raw", model.RAW},
		{"zlib", model.ZLIB},
		{"lzma", model.LZMA},
		{"lz4", model.LZ4},
		{"zstd", model.ZSTD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, expected := payload(t)

			blob, err := encoder.PackBlob(st, tt.compression)
			require.NoError(t, err)

			c, ok := Compression(blob)
			require.True(t, ok)
			assert.Equal(t, tt.compression, c)

			raw, err := Decompress(blob, model.NewCompressions(tt.compression))
			require.NoError(t, err)
			assert.Equal(t, expected, raw)
		})
	}
}

func TestDecompressNotEnabled(t *testing.T) {
	for _, c := range []model.BlobCompression{model.LZMA, model.LZ4, model.ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			st, _ := payload(t)

			blob, err := encoder.PackBlob(st, c)
			require.NoError(t, err)

			_, err = Decompress(blob, model.DefaultCompressions)
			assert.ErrorIs(t, err, ErrUnsupportedCompression)
		})
	}
}

func TestDecompressUnsupported(t *testing.T) {
	all := model.NewCompressions(model.LZMA, model.BZIP2, model.LZ4, model.ZSTD)

	tests := []struct {
		name string
		blob *pb.Blob
	}{
		{"empty", &pb.Blob{}},
		{"bzip2", &pb.Blob{RawSize: proto.Int32(3), Data: &pb.Blob_OBSOLETEBzip2Data{OBSOLETEBzip2Data: []byte("BZh")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.blob, all)
			assert.ErrorIs(t, err, ErrUnsupportedCompression)
		})
	}
}

func TestDecompressCorrupt(t *testing.T) {
	_, b := payload(t)
	z := zlibBytes(t, b)
	size := int32(len(b))

	tests := []struct {
		name string
		blob *pb.Blob
	}{
		{"size too small", &pb.Blob{RawSize: proto.Int32(size - 1), Data: &pb.Blob_ZlibData{ZlibData: z}}},
		{"size too large", &pb.Blob{RawSize: proto.Int32(size + 1), Data: &pb.Blob_ZlibData{ZlibData: z}}},
		{"size missing", &pb.Blob{Data: &pb.Blob_ZlibData{ZlibData: z}}},
		{"negative size", &pb.Blob{RawSize: proto.Int32(-1), Data: &pb.Blob_ZlibData{ZlibData: z}}},
		{"enormous size", &pb.Blob{RawSize: proto.Int32(1 << 30), Data: &pb.Blob_ZlibData{ZlibData: z}}},
		{"trailing input", &pb.Blob{RawSize: proto.Int32(size), Data: &pb.Blob_ZlibData{ZlibData: append(bytes.Clone(z), 0xde, 0xad)}}},
		{"truncated stream", &pb.Blob{RawSize: proto.Int32(size), Data: &pb.Blob_ZlibData{ZlibData: z[:len(z)/2]}}},
		{"bad header", &pb.Blob{RawSize: proto.Int32(size), Data: &pb.Blob_ZlibData{ZlibData: []byte("not zlib")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.blob, model.DefaultCompressions)
			assert.ErrorIs(t, err, ErrCorruptBlob)
		})
	}
}

func TestUnpackReusesBuffer(t *testing.T) {
	st, expected := payload(t)

	blob, err := encoder.PackBlob(st, model.ZLIB)
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.WriteString("left over from a previous blob")

	raw, err := unpack(&buf, blob, model.DefaultCompressions)
	require.NoError(t, err)
	assert.Equal(t, expected, raw)
}
