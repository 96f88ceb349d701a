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
	"fmt"
)

// emptyTags is shared by every untagged entity.
var emptyTags = map[string]string{}

// tagSentinel terminates the tags of one node in a packed key/value array.
const tagSentinel = 0

// listTags zips parallel key and value index arrays into tags.  A pair is
// kept only when both indexes resolve.
func listTags(r FieldResolver, keyIDs, valIDs []uint32) (map[string]string, error) {
	if len(keyIDs) != len(valIDs) {
		return nil, fmt.Errorf("%w: %d tag keys but %d values", ErrMalformedBlock, len(keyIDs), len(valIDs))
	}

	if len(keyIDs) == 0 {
		return emptyTags, nil
	}

	tags := make(map[string]string, len(keyIDs))

	for i, keyID := range keyIDs {
		k, ok := r.ResolveString(int64(keyID))
		if !ok {
			continue
		}

		v, ok := r.ResolveString(int64(valIDs[i]))
		if !ok {
			continue
		}

		tags[k] = v
	}

	return tags, nil
}

// packedTags reads the tags of consecutive dense nodes from one interleaved
// key/value index array.  The cursor is shared by all nodes of a group: each
// call consumes one node's pairs and its terminating sentinel.
type packedTags struct {
	resolver FieldResolver
	keyVals  []int32
	i        int
}

func newPackedTags(r FieldResolver, keyVals []int32) *packedTags {
	return &packedTags{resolver: r, keyVals: keyVals}
}

func (t *packedTags) next() map[string]string {
	var tags map[string]string

	for t.i < len(t.keyVals) {
		keyID := t.keyVals[t.i]
		t.i++

		if keyID == tagSentinel {
			break
		}

		if t.i == len(t.keyVals) {
			// a key without a value ends the array
			break
		}

		valID := t.keyVals[t.i]
		t.i++

		k, ok := t.resolver.ResolveString(int64(keyID))
		if !ok {
			continue
		}

		v, ok := t.resolver.ResolveString(int64(valID))
		if !ok {
			continue
		}

		if tags == nil {
			tags = make(map[string]string)
		}

		tags[k] = v
	}

	if tags == nil {
		return emptyTags
	}

	return tags
}
