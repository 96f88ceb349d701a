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
	"iter"

	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/core"
	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

// representation is a position in the fixed order in which the entities of
// a primitive group are produced.
type representation int

const (
	denseNodes representation = iota
	plainNodes
	ways
	relations

	representations
)

// DecodeBlob unpacks and parses an OSMData blob, returning the lazy
// sequence of its entities.
func DecodeBlob(blob *pb.Blob, accepted model.Compressions) (*Entities, error) {
	buf := core.NewPooledBuffer()
	defer buf.Close()

	raw, err := unpack(buf.Buffer, blob, accepted)
	if err != nil {
		return nil, err
	}

	blk := &pb.PrimitiveBlock{}
	if err := proto.Unmarshal(raw, blk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBlock, err)
	}

	return NewEntities(blk), nil
}

// Entities is the single pass sequence of the entities of one primitive
// block.  Groups are visited in block order and, within each group, dense
// nodes come first followed by nodes, ways and relations.  Entities are
// decoded only as they are requested.
//
//	for ents.Next() {
//		e := ents.Entity()
//		...
//	}
//	if err := ents.Err(); err != nil {
//		...
//	}
type Entities struct {
	resolver FieldResolver
	groups   []*pb.PrimitiveGroup

	group int
	rep   representation
	cur   entityIterator

	entity model.Entity
	err    error
	done   bool
}

// NewEntities returns the entity sequence of a parsed primitive block.
func NewEntities(blk *pb.PrimitiveBlock) *Entities {
	return &Entities{
		resolver: newBlockFields(blk),
		groups:   blk.GetPrimitivegroup(),
	}
}

// Next decodes the next entity, making it available through Entity.  It
// returns false at the end of the block or when decoding failed, after
// which Next always returns false.
func (e *Entities) Next() bool {
	for !e.done {
		if e.cur != nil && e.cur.hasNext() {
			ent, err := e.cur.next()
			if err != nil {
				e.stop(fmt.Errorf("group %d: %w", e.currentGroup(), err))

				return false
			}

			e.entity = ent

			return true
		}

		if err := e.advance(); err != nil {
			e.stop(err)
		}
	}

	return false
}

// Entity returns the entity decoded by the last call to Next.
func (e *Entities) Entity() model.Entity {
	return e.entity
}

// Err returns the error that ended the sequence, if any.
func (e *Entities) Err() error {
	return e.err
}

// All adapts the sequence for range-over-func.  A decoding error is yielded
// once, in place of the entity that failed.
func (e *Entities) All() iter.Seq2[model.Entity, error] {
	return func(yield func(model.Entity, error) bool) {
		for e.Next() {
			if !yield(e.entity, nil) {
				return
			}
		}

		if e.err != nil {
			yield(nil, e.err)
		}
	}
}

// Collect drains the sequence into a slice.
func (e *Entities) Collect() ([]model.Entity, error) {
	var entities []model.Entity

	for e.Next() {
		entities = append(entities, e.entity)
	}

	if e.err != nil {
		return nil, e.err
	}

	return entities, nil
}

// advance moves to the next representation of the current group, or the
// first of the next group.  The representation's iterator may be empty.
func (e *Entities) advance() error {
	e.cur = nil

	if e.group >= len(e.groups) {
		e.done = true

		return nil
	}

	g := e.groups[e.group]
	group, rep := e.group, e.rep

	if e.rep++; e.rep == representations {
		e.rep = denseNodes
		e.group++
	}

	switch rep {
	case denseNodes:
		if dense := g.GetDense(); dense != nil {
			it, err := newDenseNodeIterator(e.resolver, dense)
			if err != nil {
				return fmt.Errorf("group %d: %w", group, err)
			}

			e.cur = it
		}
	case plainNodes:
		e.cur = newNodeIterator(e.resolver, g.GetNodes())
	case ways:
		e.cur = newWayIterator(e.resolver, g.GetWays())
	case relations:
		e.cur = newRelationIterator(e.resolver, g.GetRelations())
	}

	return nil
}

// currentGroup is the index of the group the current iterator belongs to.
func (e *Entities) currentGroup() int {
	if e.rep == denseNodes {
		return e.group - 1
	}

	return e.group
}

func (e *Entities) stop(err error) {
	e.err = err
	e.done = true
	e.entity = nil
	e.cur = nil
}
