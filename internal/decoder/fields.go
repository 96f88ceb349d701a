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
	"time"

	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

// FieldResolver resolves the block relative encodings of a primitive block:
// string table indexes, scaled coordinates and scaled timestamps.
type FieldResolver interface {
	// ResolveString returns the string at index in the string table, or
	// false if the index is outside the table.
	ResolveString(index int64) (string, bool)

	// ResolveCoordinate converts raw, block scaled coordinates into
	// degrees.
	ResolveCoordinate(rawLat, rawLon int64) (lat, lon model.Degrees)

	// ResolveTimestamp converts a raw, block scaled timestamp.
	ResolveTimestamp(raw int64) time.Time
}

type blockFields struct {
	strings         []string
	granularity     int32
	latOffset       int64
	lonOffset       int64
	dateGranularity int32
}

var _ FieldResolver = (*blockFields)(nil)

func newBlockFields(blk *pb.PrimitiveBlock) *blockFields {
	return &blockFields{
		strings:         blk.GetStringtable().GetS(),
		granularity:     blk.GetGranularity(),
		latOffset:       blk.GetLatOffset(),
		lonOffset:       blk.GetLonOffset(),
		dateGranularity: blk.GetDateGranularity(),
	}
}

func (f *blockFields) ResolveString(index int64) (string, bool) {
	if index < 0 || index >= int64(len(f.strings)) {
		return "", false
	}

	return f.strings[index], true
}

func (f *blockFields) ResolveCoordinate(rawLat, rawLon int64) (lat, lon model.Degrees) {
	return model.ToDegrees(f.latOffset, f.granularity, rawLat),
		model.ToDegrees(f.lonOffset, f.granularity, rawLon)
}

// ResolveTimestamp converts a timestamp with the block's granularity, in
// units of milliseconds, to a UTC timestamp of type Time.
func (f *blockFields) ResolveTimestamp(raw int64) time.Time {
	return time.UnixMilli(raw * int64(f.dateGranularity)).UTC()
}
