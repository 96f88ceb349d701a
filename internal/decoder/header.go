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
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/proto"

	"m4o.io/osmblock/internal/core"
	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

// nanoDegrees is the number of header bounding box units in a degree.
const nanoDegrees = 1e9

// DecodeHeader unpacks and parses an OSMHeader blob.
func DecodeHeader(blob *pb.Blob, accepted model.Compressions) (model.Header, error) {
	buf := core.NewPooledBuffer()
	defer buf.Close()

	raw, err := unpack(buf.Buffer, blob, accepted)
	if err != nil {
		return model.Header{}, err
	}

	hb := &pb.HeaderBlock{}
	if err := proto.Unmarshal(raw, hb); err != nil {
		return model.Header{}, fmt.Errorf("%w: header block: %w", ErrCorruptBlob, err)
	}

	return toHeader(hb), nil
}

// ReadHeader reads the next frame off of fr, which must be the first of the
// file, and decodes it as the file header.
func ReadHeader(fr *FrameReader, accepted model.Compressions) (model.Header, error) {
	f, err := fr.Next()
	if errors.Is(err, io.EOF) {
		return model.Header{}, fmt.Errorf("%w: missing header: %w", ErrCorruptBlob, io.ErrUnexpectedEOF)
	} else if err != nil {
		return model.Header{}, err
	}

	if f.Type != OSMHeaderType {
		return model.Header{}, &BlobError{
			Offset: f.Offset,
			Type:   f.Type,
			Err:    fmt.Errorf("%w: expected %s", ErrCorruptBlob, OSMHeaderType),
		}
	}

	h, err := DecodeHeader(f.Blob, accepted)
	if err != nil {
		return model.Header{}, &BlobError{Offset: f.Offset, Type: f.Type, Err: err}
	}

	return h, nil
}

func toHeader(hb *pb.HeaderBlock) model.Header {
	h := model.Header{
		RequiredFeatures:                 hb.GetRequiredFeatures(),
		OptionalFeatures:                 hb.GetOptionalFeatures(),
		WritingProgram:                   hb.GetWritingprogram(),
		Source:                           hb.GetSource(),
		OsmosisReplicationSequenceNumber: hb.GetOsmosisReplicationSequenceNumber(),
		OsmosisReplicationBaseURL:        hb.GetOsmosisReplicationBaseUrl(),
	}

	if bbox := hb.GetBbox(); bbox != nil {
		h.BoundingBox = &model.BoundingBox{
			Left:   model.Degrees(float64(bbox.GetLeft()) / nanoDegrees),
			Right:  model.Degrees(float64(bbox.GetRight()) / nanoDegrees),
			Top:    model.Degrees(float64(bbox.GetTop()) / nanoDegrees),
			Bottom: model.Degrees(float64(bbox.GetBottom()) / nanoDegrees),
		}
	}

	if ts := hb.OsmosisReplicationTimestamp; ts != nil {
		h.OsmosisReplicationTimestamp = time.Unix(*ts, 0).UTC()
	}

	return h
}
