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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmblock/internal/encoder"
	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

func TestDecodeBatch(t *testing.T) {
	frames := []Frame{
		{Offset: 10, Type: OSMDataType, Blob: packBlock(t, encoder.EncodeBlock(true, []model.Entity{&model.Node{ID: 1}, &model.Node{ID: 2}}), model.ZLIB)},
		{Offset: 20, Type: OSMDataType, Blob: packBlock(t, encoder.EncodeBlock(true, []model.Entity{&model.Way{ID: 3}}), model.ZLIB)},
	}

	var blocks [][]model.ID

	for try := range DecodeBatch(frames, model.DefaultCompressions) {
		require.NoError(t, try.Error)

		blocks = append(blocks, ids(try.Value))
	}

	assert.Equal(t, [][]model.ID{{1, 2}, {3}}, blocks)
}

func TestDecodeBatchStopsAtError(t *testing.T) {
	frames := []Frame{
		{Offset: 10, Type: OSMDataType, Blob: packBlock(t, encoder.EncodeBlock(true, []model.Entity{&model.Node{ID: 1}}), model.RAW)},
		{Offset: 20, Type: OSMDataType, Blob: packBlock(t, encoder.EncodeBlock(true, []model.Entity{&model.Node{ID: 2}}), model.LZ4)},
		{Offset: 30, Type: OSMDataType, Blob: &pb.Blob{Data: &pb.Blob_Raw{}}},
	}

	var (
		values int
		errs   []error
	)

	for try := range DecodeBatch(frames, model.DefaultCompressions) {
		if try.Error != nil {
			errs = append(errs, try.Error)
		} else {
			values++
		}
	}

	assert.Equal(t, 1, values)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrUnsupportedCompression)

	var be *BlobError
	require.ErrorAs(t, errs[0], &be)
	assert.Equal(t, int64(20), be.Offset)
	assert.Equal(t, OSMDataType, be.Type)
}
