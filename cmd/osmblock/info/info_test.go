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

package info

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"m4o.io/osmblock"
	"m4o.io/osmblock/internal/encoder"
	"m4o.io/osmblock/model"
)

var (
	bbox = &model.BoundingBox{Left: -0.511482, Right: 0.335437, Top: 51.69344, Bottom: 51.28554}
	ts   = time.Date(2014, 3, 24, 21, 55, 2, 0, time.UTC)
)

func testHeader() model.Header {
	return model.Header{
		BoundingBox:                 bbox,
		RequiredFeatures:            []string{"OsmSchema-V0.6", "DenseNodes"},
		WritingProgram:              "Osmium (http://wiki.openstreetmap.org/wiki/Osmium)",
		OsmosisReplicationTimestamp: ts,
	}
}

func testFile(t *testing.T, c model.BlobCompression) *bytes.Buffer {
	t.Helper()

	block := encoder.EncodeBlock(true, []model.Entity{
		&model.Node{ID: 1, Lat: 51.5, Lon: -0.1},
		&model.Node{ID: 2, Lat: 51.4, Lon: 0.2},
		&model.Way{ID: 3, NodeIDs: []model.ID{1, 2}},
		&model.Relation{ID: 4, Members: []model.Member{{ID: 3, Type: model.WAY, Role: "outer"}}},
	})

	var buf bytes.Buffer
	require.NoError(t, encoder.SaveFile(&buf, testHeader(), c, block, block, block))

	return &buf
}

func TestRunInfo(t *testing.T) {
	info, err := runInfo(context.Background(), testFile(t, model.ZLIB), 2, false)
	require.NoError(t, err)

	assert.True(t, info.BoundingBox.EqualWithin(bbox, model.E6))
	assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, info.RequiredFeatures)
	assert.Empty(t, info.OptionalFeatures)
	assert.Equal(t, "Osmium (http://wiki.openstreetmap.org/wiki/Osmium)", info.WritingProgram)
	assert.Equal(t, "", info.Source)
	assert.Equal(t, ts, info.OsmosisReplicationTimestamp)
	assert.Zero(t, info.NodeCount)
	assert.Zero(t, info.WayCount)
	assert.Zero(t, info.RelationCount)
	assert.Nil(t, info.DataBoundingBox)
}

func TestRunInfoExtended(t *testing.T) {
	info, err := runInfo(context.Background(), testFile(t, model.ZLIB), 2, true)
	require.NoError(t, err)

	assert.Equal(t, int64(6), info.NodeCount)
	assert.Equal(t, int64(3), info.WayCount)
	assert.Equal(t, int64(3), info.RelationCount)

	require.NotNil(t, info.DataBoundingBox)
	assert.True(t, info.DataBoundingBox.EqualWithin(&model.BoundingBox{Top: 51.5, Left: -0.1, Bottom: 51.4, Right: 0.2}, model.E6))
}

func TestRunInfoCompressions(t *testing.T) {
	_, err := runInfo(context.Background(), testFile(t, model.LZ4), 1, true)
	assert.ErrorIs(t, err, osmblock.ErrUnsupportedCompression)

	compressions, err := parseCompressions([]string{"LZ4"})
	require.NoError(t, err)

	info, err := runInfo(context.Background(), testFile(t, model.LZ4), 1, true, compressions...)
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.NodeCount)

	_, err = parseCompressions([]string{"brotli"})
	assert.Error(t, err)
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	saved := out

	t.Cleanup(func() { out = saved })

	out = buf

	return buf
}

func testExtendedHeader() *extendedHeader {
	h := testHeader()
	h.OptionalFeatures = []string{"Has_Metadata"}
	h.Source = "osmblock"
	h.OsmosisReplicationBaseURL = "https://download.geofabrik.de/europe/great-britain/england/greater-london-updates"

	return &extendedHeader{
		Header:          h,
		NodeCount:       int64(2729006),
		WayCount:        int64(459055),
		RelationCount:   int64(12833),
		DataBoundingBox: &model.BoundingBox{Top: 51.6, Left: -0.5, Bottom: 51.3, Right: 0.3},
	}
}

func TestRenderJSON(t *testing.T) {
	buf := capture(t)

	require.NoError(t, renderJSON(testExtendedHeader(), true))

	info := &extendedHeader{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), info))

	assert.True(t, info.BoundingBox.EqualWithin(bbox, model.E6))
	assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, info.RequiredFeatures)
	assert.Equal(t, ts, info.OsmosisReplicationTimestamp.UTC())
	assert.Equal(t, int64(2729006), info.NodeCount)
	assert.Equal(t, int64(459055), info.WayCount)
	assert.Equal(t, int64(12833), info.RelationCount)
}

func TestRenderJSONHeaderOnly(t *testing.T) {
	buf := capture(t)

	require.NoError(t, renderJSON(testExtendedHeader(), false))
	assert.NotContains(t, buf.String(), "node_count")
}

func TestRenderYAML(t *testing.T) {
	buf := capture(t)

	require.NoError(t, renderYAML(testExtendedHeader(), true))

	assert.Contains(t, buf.String(), "node_count: 2729006\n")

	info := &extendedHeader{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), info))

	assert.True(t, info.BoundingBox.EqualWithin(bbox, model.E6))
	assert.Equal(t, int64(12833), info.RelationCount)
	assert.Contains(t, buf.String(), "data_bounding_box:\n")
}

func TestRenderText(t *testing.T) {
	buf := capture(t)

	renderTxt(testExtendedHeader(), true)

	assert.Equal(t, `BoundingBox: [(51.69344, -0.511482) (51.28554, 0.335437)]
RequiredFeatures: OsmSchema-V0.6, DenseNodes
OptionalFeatures: Has_Metadata
WritingProgram: Osmium (http://wiki.openstreetmap.org/wiki/Osmium)
Source: osmblock
OsmosisReplicationTimestamp: 2014-03-24T21:55:02Z
OsmosisReplicationSequenceNumber: 0
OsmosisReplicationBaseURL: https://download.geofabrik.de/europe/great-britain/england/greater-london-updates
NodeCount: 2,729,006
WayCount: 459,055
RelationCount: 12,833
DataBoundingBox: [(51.6, -0.5) (51.3, 0.3)]
`, buf.String())
}

func TestRenderTextNoBoundingBox(t *testing.T) {
	buf := capture(t)

	renderTxt(&extendedHeader{}, false)

	assert.Contains(t, buf.String(), "BoundingBox: none\n")
	assert.Contains(t, buf.String(), "OsmosisReplicationTimestamp: \n")
	assert.NotContains(t, buf.String(), "NodeCount")
}
