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

package model

import (
	"time"
)

// Header is the decoded OSMHeader block of a PBF file.  Absent optional
// fields are left at their zero values: a nil BoundingBox, an empty string,
// a zero time.Time or sequence number.
type Header struct {
	// BoundingBox is the extent the writer declared, if any.  It is not
	// checked against the data.
	BoundingBox      *BoundingBox `json:"bounding_box,omitempty"`
	RequiredFeatures []string     `json:"required_features,omitempty"`
	OptionalFeatures []string     `json:"optional_features,omitempty"`
	WritingProgram   string       `json:"writing_program,omitempty"`
	Source           string       `json:"source,omitempty"`

	// Replication state of the file, set by osmosis and osmium when a
	// file is kept current from minutely or daily diffs.
	OsmosisReplicationTimestamp      time.Time `json:"osmosis_replication_timestamp,omitempty"`
	OsmosisReplicationSequenceNumber int64     `json:"osmosis_replication_sequence_number,omitempty"`
	OsmosisReplicationBaseURL        string    `json:"osmosis_replication_base_url,omitempty"`
}
