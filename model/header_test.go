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

package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmblock/model"
)

func TestHeader_JSON(t *testing.T) {
	h := model.Header{
		BoundingBox:                      &model.BoundingBox{Top: 51.69344, Left: -0.511482, Bottom: 51.28554, Right: 0.335437},
		RequiredFeatures:                 []string{"OsmSchema-V0.6", "DenseNodes"},
		OptionalFeatures:                 []string{"Sort.Type_then_ID"},
		WritingProgram:                   "osmium/1.14.0",
		Source:                           "https://www.openstreetmap.org/api/0.6",
		OsmosisReplicationTimestamp:      time.Unix(1730150490, 0).UTC(),
		OsmosisReplicationSequenceNumber: 4221,
		OsmosisReplicationBaseURL:        "http://download.geofabrik.de/europe/united-kingdom/england/greater-london-updates",
	}

	b, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"bounding_box": {"top": 51.69344, "left": -0.511482, "bottom": 51.28554, "right": 0.335437},
		"required_features": ["OsmSchema-V0.6", "DenseNodes"],
		"optional_features": ["Sort.Type_then_ID"],
		"writing_program": "osmium/1.14.0",
		"source": "https://www.openstreetmap.org/api/0.6",
		"osmosis_replication_timestamp": "2024-10-28T21:21:30Z",
		"osmosis_replication_sequence_number": 4221,
		"osmosis_replication_base_url": "http://download.geofabrik.de/europe/united-kingdom/england/greater-london-updates"
	}`, string(b))
}

func TestHeader_JSONOmitsAbsentFields(t *testing.T) {
	h := model.Header{RequiredFeatures: []string{"OsmSchema-V0.6"}}

	b, err := json.Marshal(h)
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, `"required_features":["OsmSchema-V0.6"]`)
	assert.NotContains(t, s, "bounding_box")
	assert.NotContains(t, s, "writing_program")
	assert.NotContains(t, s, "source")
	assert.NotContains(t, s, "osmosis_replication_sequence_number")
	assert.NotContains(t, s, "osmosis_replication_base_url")
}
