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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

func drain(t *testing.T, it entityIterator) ([]model.Entity, error) {
	t.Helper()

	var entities []model.Entity

	for it.hasNext() {
		e, err := it.next()
		if err != nil {
			return entities, err
		}

		entities = append(entities, e)
	}

	return entities, nil
}

func TestDenseNodeDeltas(t *testing.T) {
	const a, b, c = 1000, 1003, 998

	it, err := newDenseNodeIterator(numberedStrings(4), &pb.DenseNodes{
		Id:       []int64{a, b - a, c - b},
		Lat:      []int64{515_000_000, -5_000_000, 0},
		Lon:      []int64{-1_000_000, 2_000_000, -1_000_000},
		KeysVals: []int32{1, 2, 0, 0, 3, 4, 0},
	})
	require.NoError(t, err)

	entities, err := drain(t, it)
	require.NoError(t, err)
	require.Len(t, entities, 3)

	expected := []*model.Node{
		{ID: a, Tags: map[string]string{"s1": "s2"}, Lat: 51.5, Lon: -0.1},
		{ID: b, Tags: map[string]string{}, Lat: 51.0, Lon: 0.1},
		{ID: c, Tags: map[string]string{"s3": "s4"}, Lat: 51.0, Lon: 0.0},
	}

	for i, e := range entities {
		n, ok := e.(*model.Node)
		require.True(t, ok)
		assert.Equal(t, expected[i].ID, n.ID)
		assert.Equal(t, expected[i].Tags, n.Tags)
		assert.InDelta(t, float64(expected[i].Lat), float64(n.Lat), 1e-12)
		assert.InDelta(t, float64(expected[i].Lon), float64(n.Lon), 1e-12)
		assert.Nil(t, n.Info)
	}
}

func TestDenseNodeExactCoordinates(t *testing.T) {
	r := newBlockFields(&pb.PrimitiveBlock{
		Granularity: proto.Int32(100),
		LatOffset:   proto.Int64(0),
		LonOffset:   proto.Int64(0),
	})

	it, err := newDenseNodeIterator(r, &pb.DenseNodes{
		Id:  []int64{1},
		Lat: []int64{515_000_000},
		Lon: []int64{-1_000_000},
	})
	require.NoError(t, err)

	e, err := it.next()
	require.NoError(t, err)

	n := e.(*model.Node)
	assert.Equal(t, model.Degrees(51.5), n.Lat)
	assert.Equal(t, model.Degrees(-0.1), n.Lon)
}

func TestDenseNodeMismatchedArrays(t *testing.T) {
	tests := []struct {
		name  string
		nodes *pb.DenseNodes
	}{
		{"lat", &pb.DenseNodes{Id: []int64{1, 2}, Lat: []int64{1}, Lon: []int64{1, 2}}},
		{"lon", &pb.DenseNodes{Id: []int64{1}, Lat: []int64{1}, Lon: []int64{}}},
		{"info", &pb.DenseNodes{
			Id:  []int64{1, 2},
			Lat: []int64{1, 2},
			Lon: []int64{1, 2},
			Denseinfo: &pb.DenseInfo{
				Version:   []int32{1, 1},
				Timestamp: []int64{1},
				Changeset: []int64{1, 1},
				Uid:       []int32{1, 1},
				UserSid:   []int32{1, 1},
			},
		}},
		{"partial info", &pb.DenseNodes{
			Id:  []int64{1, 2},
			Lat: []int64{1, 2},
			Lon: []int64{1, 2},
			Denseinfo: &pb.DenseInfo{
				Version:   []int32{1, 1},
				Timestamp: []int64{1, 1, 1},
			},
		}},
		{"visible", &pb.DenseNodes{
			Id:  []int64{1, 2},
			Lat: []int64{1, 2},
			Lon: []int64{1, 2},
			Denseinfo: &pb.DenseInfo{
				Version: []int32{1, 1},
				Visible: []bool{true},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDenseNodeIterator(numberedStrings(2), tt.nodes)
			assert.ErrorIs(t, err, ErrMalformedBlock)
		})
	}
}

func TestDenseNodeInfo(t *testing.T) {
	it, err := newDenseNodeIterator(numberedStrings(2), &pb.DenseNodes{
		Id:  []int64{1, 1},
		Lat: []int64{0, 0},
		Lon: []int64{0, 0},
		Denseinfo: &pb.DenseInfo{
			Version:   []int32{3, 7},
			Timestamp: []int64{1_644_784_822, 60},
			Changeset: []int64{100, 5},
			Uid:       []int32{42, -2},
			UserSid:   []int32{1, 1},
			Visible:   []bool{true, false},
		},
	})
	require.NoError(t, err)

	entities, err := drain(t, it)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	first := entities[0].GetInfo()
	second := entities[1].GetInfo()

	assert.Equal(t, &model.Info{
		Version:   3,
		UID:       42,
		Timestamp: time.Date(2022, 2, 13, 20, 40, 22, 0, time.UTC),
		Changeset: 100,
		User:      "s1",
		Visible:   true,
	}, first)
	assert.Equal(t, &model.Info{
		Version:   7,
		UID:       40,
		Timestamp: time.Date(2022, 2, 13, 20, 41, 22, 0, time.UTC),
		Changeset: 105,
		User:      "s2",
		Visible:   false,
	}, second)
}

func TestDenseNodePartialInfo(t *testing.T) {
	it, err := newDenseNodeIterator(numberedStrings(2), &pb.DenseNodes{
		Id:  []int64{1, 1},
		Lat: []int64{0, 0},
		Lon: []int64{0, 0},
		Denseinfo: &pb.DenseInfo{
			Version:   []int32{1, 2},
			Timestamp: []int64{1000, 5},
		},
	})
	require.NoError(t, err)

	entities, err := drain(t, it)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, &model.Info{
		Version:   1,
		Timestamp: time.Unix(1000, 0).UTC(),
		Visible:   true,
	}, entities[0].GetInfo())
	assert.Equal(t, &model.Info{
		Version:   2,
		Timestamp: time.Unix(1005, 0).UTC(),
		Visible:   true,
	}, entities[1].GetInfo())
}

func TestDenseNodeUserOnlyInfo(t *testing.T) {
	it, err := newDenseNodeIterator(numberedStrings(2), &pb.DenseNodes{
		Id:  []int64{1, 1},
		Lat: []int64{0, 0},
		Lon: []int64{0, 0},
		Denseinfo: &pb.DenseInfo{
			Uid:     []int32{7, 1},
			UserSid: []int32{2, -1},
		},
	})
	require.NoError(t, err)

	entities, err := drain(t, it)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, &model.Info{UID: 7, User: "s2", Visible: true}, entities[0].GetInfo())
	assert.Equal(t, &model.Info{UID: 8, User: "s1", Visible: true}, entities[1].GetInfo())
}

func TestPlainNodes(t *testing.T) {
	it := newNodeIterator(numberedStrings(2), []*pb.Node{
		{Id: proto.Int64(-7), Lat: proto.Int64(100), Lon: proto.Int64(-100), Keys: []uint32{1}, Vals: []uint32{2}},
		{Id: proto.Int64(-3), Lat: proto.Int64(100), Lon: proto.Int64(-100), Info: &pb.Info{Version: proto.Int32(2)}},
	})

	entities, err := drain(t, it)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	first := entities[0].(*model.Node)
	assert.Equal(t, model.ID(-7), first.ID)
	assert.Equal(t, map[string]string{"s1": "s2"}, first.Tags)
	assert.InDelta(t, 1e-5, float64(first.Lat), 1e-15)
	assert.Nil(t, first.Info)

	second := entities[1].(*model.Node)
	assert.Equal(t, model.ID(-3), second.ID)
	require.NotNil(t, second.Info)
	assert.Equal(t, int32(2), second.Info.Version)
	assert.True(t, second.Info.Visible)
}

func TestWayRefsResetPerWay(t *testing.T) {
	it := newWayIterator(numberedStrings(2), []*pb.Way{
		{Id: proto.Int64(1), Refs: []int64{10, 1, 1}},
		{Id: proto.Int64(2), Refs: []int64{20, -5}},
		{Id: proto.Int64(3)},
	})

	entities, err := drain(t, it)
	require.NoError(t, err)
	require.Len(t, entities, 3)

	assert.Equal(t, []model.ID{10, 11, 12}, entities[0].(*model.Way).NodeIDs)
	assert.Equal(t, []model.ID{20, 15}, entities[1].(*model.Way).NodeIDs)
	assert.Empty(t, entities[2].(*model.Way).NodeIDs)
	assert.Empty(t, entities[2].GetTags())
}

func TestRelationMembers(t *testing.T) {
	it := newRelationIterator(numberedStrings(2), []*pb.Relation{
		{
			Id:       proto.Int64(1),
			Memids:   []int64{5, 3, -1},
			Types:    []pb.Relation_MemberType{pb.Relation_NODE, pb.Relation_WAY, pb.Relation_RELATION},
			RolesSid: []int32{1, 2, 0},
		},
		{
			Id:       proto.Int64(2),
			Memids:   []int64{5},
			Types:    []pb.Relation_MemberType{pb.Relation_WAY},
			RolesSid: []int32{1},
		},
	})

	entities, err := drain(t, it)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, []model.Member{
		{ID: 5, Type: model.NODE, Role: "s1"},
		{ID: 8, Type: model.WAY, Role: "s2"},
		{ID: 7, Type: model.RELATION, Role: ""},
	}, entities[0].(*model.Relation).Members)
	assert.Equal(t, []model.Member{
		{ID: 5, Type: model.WAY, Role: "s1"},
	}, entities[1].(*model.Relation).Members)
}

func TestRelationErrors(t *testing.T) {
	tests := []struct {
		name     string
		relation *pb.Relation
		expected error
	}{
		{"unknown kind", &pb.Relation{
			Memids:   []int64{1},
			Types:    []pb.Relation_MemberType{3},
			RolesSid: []int32{1},
		}, ErrUnknownMemberKind},
		{"unresolved role", &pb.Relation{
			Memids:   []int64{1},
			Types:    []pb.Relation_MemberType{pb.Relation_NODE},
			RolesSid: []int32{42},
		}, ErrMalformedBlock},
		{"mismatched arrays", &pb.Relation{
			Memids:   []int64{1, 2},
			Types:    []pb.Relation_MemberType{pb.Relation_NODE},
			RolesSid: []int32{1, 1},
		}, ErrMalformedBlock},
		{"mismatched tags", &pb.Relation{
			Keys: []uint32{1},
		}, ErrMalformedBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := newRelationIterator(numberedStrings(2), []*pb.Relation{tt.relation})

			_, err := it.next()
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
