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
	"log/slog"

	"github.com/destel/rill"

	"m4o.io/osmblock/model"
)

// DecodeBatch decodes a batch of OSMData frames into their entities, which
// are sent down the out channel one block at a time.  Decoding stops at the
// first failure, which is sent as a *BlobError.
func DecodeBatch(array []Frame, accepted model.Compressions) (out <-chan rill.Try[[]model.Entity]) {
	ch := make(chan rill.Try[[]model.Entity])
	out = ch

	go func() {
		defer close(ch)

		for _, f := range array {
			entities, err := decodeFrame(f, accepted)
			if err != nil {
				slog.Error("unable to decode block", "offset", f.Offset, "error", err)
				ch <- rill.Try[[]model.Entity]{Error: &BlobError{Offset: f.Offset, Type: f.Type, Err: err}}

				return
			}

			ch <- rill.Try[[]model.Entity]{Value: entities}
		}
	}()

	return out
}

func decodeFrame(f Frame, accepted model.Compressions) ([]model.Entity, error) {
	ents, err := DecodeBlob(f.Blob, accepted)
	if err != nil {
		return nil, err
	}

	return ents.Collect()
}
