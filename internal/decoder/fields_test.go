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
	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

func TestBlockFieldsDefaults(t *testing.T) {
	f := newBlockFields(&pb.PrimitiveBlock{})

	lat, lon := f.ResolveCoordinate(10_000_000, -20_000_000)
	assert.Equal(t, model.Degrees(1), lat)
	assert.Equal(t, model.Degrees(-2), lon)

	assert.Equal(t, time.Date(2022, 2, 13, 20, 40, 22, 0, time.UTC), f.ResolveTimestamp(1_644_784_822))

	_, ok := f.ResolveString(0)
	assert.False(t, ok)
}

func TestBlockFieldsScaled(t *testing.T) {
	f := newBlockFields(&pb.PrimitiveBlock{
		Stringtable:     &pb.StringTable{S: []string{"", "name"}},
		Granularity:     proto.Int32(1000),
		LatOffset:       proto.Int64(500_000_000),
		LonOffset:       proto.Int64(-500_000_000),
		DateGranularity: proto.Int32(1),
	})

	lat, lon := f.ResolveCoordinate(1_000_000, 1_000_000)
	assert.Equal(t, model.Degrees(1.5), lat)
	assert.Equal(t, model.Degrees(0.5), lon)

	assert.Equal(t, time.UnixMilli(1_644_784_822_123).UTC(), f.ResolveTimestamp(1_644_784_822_123))

	s, ok := f.ResolveString(1)
	assert.True(t, ok)
	assert.Equal(t, "name", s)

	_, ok = f.ResolveString(2)
	assert.False(t, ok)

	_, ok = f.ResolveString(-1)
	assert.False(t, ok)
}
