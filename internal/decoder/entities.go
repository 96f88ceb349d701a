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
	"fmt"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

// entityIterator produces the entities of one representation of a
// primitive group, one at a time.
type entityIterator interface {
	hasNext() bool
	next() (model.Entity, error)
}

type nodeIterator struct {
	resolver FieldResolver
	nodes    []*pb.Node
	i        int
}

func newNodeIterator(r FieldResolver, nodes []*pb.Node) *nodeIterator {
	return &nodeIterator{resolver: r, nodes: nodes}
}

func (it *nodeIterator) hasNext() bool {
	return it.i < len(it.nodes)
}

func (it *nodeIterator) next() (model.Entity, error) {
	node := it.nodes[it.i]
	it.i++

	tags, err := listTags(it.resolver, node.GetKeys(), node.GetVals())
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", node.GetId(), err)
	}

	lat, lon := it.resolver.ResolveCoordinate(node.GetLat(), node.GetLon())

	return &model.Node{
		ID:   model.ID(node.GetId()),
		Tags: tags,
		Info: decodeInfo(it.resolver, node.GetInfo()),
		Lat:  lat,
		Lon:  lon,
	}, nil
}

// denseNodeIterator delta decodes dense nodes.  The id, lat and lon
// accumulators start at zero and run across the whole group, as does the
// cursor into the packed tags.
type denseNodeIterator struct {
	resolver FieldResolver
	ids      []int64
	lats     []int64
	lons     []int64
	tags     *packedTags
	info     *denseInfo

	id  int64
	lat int64
	lon int64
	i   int
}

func newDenseNodeIterator(r FieldResolver, nodes *pb.DenseNodes) (*denseNodeIterator, error) {
	ids := nodes.GetId()
	lats := nodes.GetLat()
	lons := nodes.GetLon()

	if len(lats) != len(ids) || len(lons) != len(ids) {
		return nil, fmt.Errorf("%w: dense nodes have %d ids, %d lats and %d lons",
			ErrMalformedBlock, len(ids), len(lats), len(lons))
	}

	info, err := newDenseInfo(r, nodes.GetDenseinfo(), len(ids))
	if err != nil {
		return nil, err
	}

	return &denseNodeIterator{
		resolver: r,
		ids:      ids,
		lats:     lats,
		lons:     lons,
		tags:     newPackedTags(r, nodes.GetKeysVals()),
		info:     info,
	}, nil
}

func (it *denseNodeIterator) hasNext() bool {
	return it.i < len(it.ids)
}

func (it *denseNodeIterator) next() (model.Entity, error) {
	i := it.i
	it.i++

	it.id += it.ids[i]
	it.lat += it.lats[i]
	it.lon += it.lons[i]

	lat, lon := it.resolver.ResolveCoordinate(it.lat, it.lon)

	return &model.Node{
		ID:   model.ID(it.id),
		Tags: it.tags.next(),
		Info: it.info.next(i),
		Lat:  lat,
		Lon:  lon,
	}, nil
}

type wayIterator struct {
	resolver FieldResolver
	ways     []*pb.Way
	i        int
}

func newWayIterator(r FieldResolver, ways []*pb.Way) *wayIterator {
	return &wayIterator{resolver: r, ways: ways}
}

func (it *wayIterator) hasNext() bool {
	return it.i < len(it.ways)
}

func (it *wayIterator) next() (model.Entity, error) {
	way := it.ways[it.i]
	it.i++

	tags, err := listTags(it.resolver, way.GetKeys(), way.GetVals())
	if err != nil {
		return nil, fmt.Errorf("way %d: %w", way.GetId(), err)
	}

	refs := way.GetRefs()
	nodeIDs := make([]model.ID, len(refs))

	// each way's refs are an independent delta stream
	var nodeID int64

	for j, delta := range refs {
		nodeID += delta
		nodeIDs[j] = model.ID(nodeID)
	}

	return &model.Way{
		ID:      model.ID(way.GetId()),
		Tags:    tags,
		Info:    decodeInfo(it.resolver, way.GetInfo()),
		NodeIDs: nodeIDs,
	}, nil
}

type relationIterator struct {
	resolver  FieldResolver
	relations []*pb.Relation
	i         int
}

func newRelationIterator(r FieldResolver, relations []*pb.Relation) *relationIterator {
	return &relationIterator{resolver: r, relations: relations}
}

func (it *relationIterator) hasNext() bool {
	return it.i < len(it.relations)
}

func (it *relationIterator) next() (model.Entity, error) {
	relation := it.relations[it.i]
	it.i++

	tags, err := listTags(it.resolver, relation.GetKeys(), relation.GetVals())
	if err != nil {
		return nil, fmt.Errorf("relation %d: %w", relation.GetId(), err)
	}

	members, err := decodeMembers(it.resolver, relation)
	if err != nil {
		return nil, fmt.Errorf("relation %d: %w", relation.GetId(), err)
	}

	return &model.Relation{
		ID:      model.ID(relation.GetId()),
		Tags:    tags,
		Info:    decodeInfo(it.resolver, relation.GetInfo()),
		Members: members,
	}, nil
}

func decodeMembers(r FieldResolver, relation *pb.Relation) ([]model.Member, error) {
	memids := relation.GetMemids()
	memtypes := relation.GetTypes()
	memroles := relation.GetRolesSid()

	if len(memtypes) != len(memids) || len(memroles) != len(memids) {
		return nil, fmt.Errorf("%w: %d member ids, %d types and %d roles",
			ErrMalformedBlock, len(memids), len(memtypes), len(memroles))
	}

	members := make([]model.Member, len(memids))

	var memid int64

	for i, delta := range memids {
		memid += delta

		mt, err := decodeMemberType(memtypes[i])
		if err != nil {
			return nil, err
		}

		role, ok := r.ResolveString(int64(memroles[i]))
		if !ok {
			return nil, fmt.Errorf("%w: member role index %d outside string table", ErrMalformedBlock, memroles[i])
		}

		members[i] = model.Member{
			ID:   model.ID(memid),
			Type: mt,
			Role: role,
		}
	}

	return members, nil
}

// decodeMemberType converts protobuf enum Relation_MemberType to a EntityType.
func decodeMemberType(mt pb.Relation_MemberType) (model.EntityType, error) {
	switch mt {
	case pb.Relation_NODE:
		return model.NODE, nil
	case pb.Relation_WAY:
		return model.WAY, nil
	case pb.Relation_RELATION:
		return model.RELATION, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownMemberKind, mt)
	}
}
