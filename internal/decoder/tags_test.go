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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmblock/internal/pb"
)

// numberedStrings returns a resolver whose string table is "", s1 ... sn.
func numberedStrings(n int) FieldResolver {
	s := make([]string, n+1)
	for i := 1; i <= n; i++ {
		s[i] = fmt.Sprintf("s%d", i)
	}

	return newBlockFields(&pb.PrimitiveBlock{Stringtable: &pb.StringTable{S: s}})
}

func isEmptyTags(t *testing.T, tags map[string]string) {
	t.Helper()

	assert.Empty(t, tags)
	assert.Equal(t, reflect.ValueOf(emptyTags).Pointer(), reflect.ValueOf(tags).Pointer())
}

func TestListTags(t *testing.T) {
	r := numberedStrings(6)

	tags, err := listTags(r, []uint32{1, 3, 5}, []uint32{2, 4, 6})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"s1": "s2", "s3": "s4", "s5": "s6"}, tags)
}

func TestListTagsEmpty(t *testing.T) {
	tags, err := listTags(numberedStrings(2), nil, nil)
	require.NoError(t, err)
	isEmptyTags(t, tags)
}

func TestListTagsUnresolvableSkipped(t *testing.T) {
	tags, err := listTags(numberedStrings(4), []uint32{1, 99, 3}, []uint32{2, 4, 100})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"s1": "s2"}, tags)
}

func TestListTagsMismatch(t *testing.T) {
	_, err := listTags(numberedStrings(4), []uint32{1, 3}, []uint32{2})
	assert.ErrorIs(t, err, ErrMalformedBlock)
}

func TestPackedTags(t *testing.T) {
	pt := newPackedTags(numberedStrings(12), []int32{5, 12, 0, 7, 3, 0})

	assert.Equal(t, map[string]string{"s5": "s12"}, pt.next())
	assert.Equal(t, map[string]string{"s7": "s3"}, pt.next())
	isEmptyTags(t, pt.next())
}

func TestPackedTagsLeadingSentinel(t *testing.T) {
	pt := newPackedTags(numberedStrings(2), []int32{0})

	isEmptyTags(t, pt.next())
	isEmptyTags(t, pt.next())
}

func TestPackedTagsEmptyArray(t *testing.T) {
	pt := newPackedTags(numberedStrings(2), nil)

	isEmptyTags(t, pt.next())
	isEmptyTags(t, pt.next())
}

func TestPackedTagsMultiplePairs(t *testing.T) {
	pt := newPackedTags(numberedStrings(6), []int32{1, 2, 3, 4, 0, 0, 5, 6, 0})

	assert.Equal(t, map[string]string{"s1": "s2", "s3": "s4"}, pt.next())
	isEmptyTags(t, pt.next())
	assert.Equal(t, map[string]string{"s5": "s6"}, pt.next())
}

func TestPackedTagsDanglingKey(t *testing.T) {
	pt := newPackedTags(numberedStrings(3), []int32{1, 2, 3})

	assert.Equal(t, map[string]string{"s1": "s2"}, pt.next())
	isEmptyTags(t, pt.next())
}
