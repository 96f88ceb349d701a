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
	"slices"
	"time"

	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

const (
	DateGranularityMs = 1000
	Granularity       = 100
	LatOffset         = 0
	LonOffset         = 0
)

// EncodeBlock builds a primitive block holding one group per element of
// groups.  Nodes are written as dense nodes when dense is set.  Dense node
// metadata is written only when the first node of a group has Info.
func EncodeBlock(dense bool, groups ...[]model.Entity) *pb.PrimitiveBlock {
	table := NewTable(groups...)

	blk := &pb.PrimitiveBlock{
		Stringtable:     &pb.StringTable{S: table.AsArray()},
		Granularity:     proto.Int32(Granularity),
		LatOffset:       proto.Int64(LatOffset),
		LonOffset:       proto.Int64(LonOffset),
		DateGranularity: proto.Int32(DateGranularityMs),
	}

	for _, entities := range groups {
		blk.Primitivegroup = append(blk.Primitivegroup, encodeGroup(table, dense, entities))
	}

	return blk
}

func encodeGroup(table *Table, dense bool, entities []model.Entity) *pb.PrimitiveGroup {
	pg := &pb.PrimitiveGroup{}

	var nodes []*model.Node

	for _, e := range entities {
		switch e := e.(type) {
		case *model.Node:
			nodes = append(nodes, e)
		case *model.Way:
			pg.Ways = append(pg.Ways, encodeWay(table, e))
		case *model.Relation:
			pg.Relations = append(pg.Relations, encodeRelation(table, e))
		}
	}

	switch {
	case len(nodes) == 0:
	case dense:
		pg.Dense = encodeDenseNodes(table, nodes)
	default:
		for _, n := range nodes {
			pg.Nodes = append(pg.Nodes, encodeNode(table, n))
		}
	}

	return pg
}

func encodeNode(table *Table, n *model.Node) *pb.Node {
	keyIDs, valIDs := calcTagIDs(n.Tags, table)

	return &pb.Node{
		Id:   proto.Int64(int64(n.ID)),
		Keys: keyIDs,
		Vals: valIDs,
		Info: toInfoPb(n.Info, table),
		Lat:  proto.Int64(model.ToCoordinate(LatOffset, Granularity, n.Lat)),
		Lon:  proto.Int64(model.ToCoordinate(LonOffset, Granularity, n.Lon)),
	}
}

func encodeDenseNodes(table *Table, nodes []*model.Node) *pb.DenseNodes {
	ids := make([]int64, len(nodes))
	lats := make([]int64, len(nodes))
	lons := make([]int64, len(nodes))

	var keyValIDs []int32

	for i, n := range nodes {
		ids[i] = int64(n.ID)
		lats[i] = model.ToCoordinate(LatOffset, Granularity, n.Lat)
		lons[i] = model.ToCoordinate(LonOffset, Granularity, n.Lon)

		keyIDs, valIDs := calcTagIDs(n.Tags, table)
		for j, k := range keyIDs {
			keyValIDs = append(keyValIDs, int32(k), int32(valIDs[j]))
		}

		keyValIDs = append(keyValIDs, 0)
	}

	dn := &pb.DenseNodes{
		Id:       calcDeltas(ids),
		Lat:      calcDeltas(lats),
		Lon:      calcDeltas(lons),
		KeysVals: keyValIDs,
	}

	if nodes[0].Info != nil {
		dn.Denseinfo = encodeDenseInfo(table, nodes)
	}

	return dn
}

func encodeDenseInfo(table *Table, nodes []*model.Node) *pb.DenseInfo {
	versions := make([]int32, len(nodes))
	ts := make([]int64, len(nodes))
	cs := make([]int64, len(nodes))
	uids := make([]int32, len(nodes))
	usids := make([]int32, len(nodes))
	visible := make([]bool, len(nodes))

	for i, n := range nodes {
		info := n.Info
		versions[i] = info.Version
		ts[i] = fromTimestamp(DateGranularityMs, info.Timestamp)
		cs[i] = info.Changeset
		uids[i] = int32(info.UID)
		usids[i] = table.IndexOf(info.User)
		visible[i] = info.Visible
	}

	// version is the only column that is not delta coded
	return &pb.DenseInfo{
		Version:   versions,
		Timestamp: calcDeltas(ts),
		Changeset: calcDeltas(cs),
		Uid:       calcDeltas(uids),
		UserSid:   calcDeltas(usids),
		Visible:   visible,
	}
}

func encodeWay(table *Table, w *model.Way) *pb.Way {
	refs := make([]int64, len(w.NodeIDs))
	for i, r := range w.NodeIDs {
		refs[i] = int64(r)
	}

	keyIDs, valIDs := calcTagIDs(w.Tags, table)

	return &pb.Way{
		Id:   proto.Int64(int64(w.ID)),
		Keys: keyIDs,
		Vals: valIDs,
		Info: toInfoPb(w.Info, table),
		Refs: calcDeltas(refs),
	}
}

func encodeRelation(table *Table, r *model.Relation) *pb.Relation {
	keyIDs, valIDs := calcTagIDs(r.Tags, table)
	memids := make([]int64, len(r.Members))
	roleids := make([]int32, len(r.Members))
	types := make([]pb.Relation_MemberType, len(r.Members))

	for i, m := range r.Members {
		memids[i] = int64(m.ID)
		roleids[i] = table.IndexOf(m.Role)
		types[i] = pb.Relation_MemberType(m.Type)
	}

	return &pb.Relation{
		Id:       proto.Int64(int64(r.ID)),
		Keys:     keyIDs,
		Vals:     valIDs,
		Info:     toInfoPb(r.Info, table),
		RolesSid: roleids,
		Memids:   calcDeltas(memids),
		Types:    types,
	}
}

func calcDeltas[T interface {
	constraints.Integer | constraints.Float
}](values []T) []T {
	prev := T(0)
	deltas := make([]T, len(values))

	for i, v := range values {
		deltas[i] = v - prev
		prev = v
	}

	return deltas
}

// calcTagIDs returns the string table indexes of the tags, ordered by key.
func calcTagIDs(tags map[string]string, table *Table) (keyIDs []uint32, valIDs []uint32) {
	keys := make([]string, 0, len(tags))

	for k := range tags {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		keyIDs = append(keyIDs, uint32(table.IndexOf(k)))
		valIDs = append(valIDs, uint32(table.IndexOf(tags[k])))
	}

	return keyIDs, valIDs
}

func toInfoPb(info *model.Info, table *Table) *pb.Info {
	if info == nil {
		return nil
	}

	return &pb.Info{
		Version:   proto.Int32(info.Version),
		Timestamp: proto.Int64(fromTimestamp(DateGranularityMs, info.Timestamp)),
		Changeset: proto.Int64(info.Changeset),
		Uid:       proto.Int32(int32(info.UID)),
		UserSid:   proto.Uint32(uint32(table.IndexOf(info.User))),
		Visible:   proto.Bool(info.Visible),
	}
}

func fromTimestamp(granularity int32, timestamp time.Time) int64 {
	millis := timestamp.UnixMilli()

	return millis / int64(granularity)
}
