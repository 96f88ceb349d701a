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

package osmblock

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/destel/rill"

	"m4o.io/osmblock/internal/decoder"
	"m4o.io/osmblock/model"
)

// supportedFeatures are the required header features the decoder
// implements.
var supportedFeatures = map[string]struct{}{
	"OsmSchema-V0.6":        {},
	"DenseNodes":            {},
	"HistoricalInformation": {},
}

// Decoder reads and decodes OpenStreetMap PBF data from an input stream.
type Decoder struct {
	Header model.Header

	entities <-chan rill.Try[[]model.Entity]
	cancel   context.CancelFunc
	close    sync.Once
	err      error
}

// NewDecoder returns a new decoder, configured with opts, that reads from
// rdr.  The header is decoded before NewDecoder returns; the blocks are
// decoded in the background.
func NewDecoder(ctx context.Context, rdr io.Reader, opts ...DecoderOption) (*Decoder, error) {
	cfg := newDecoderOptions(opts)

	fr := decoder.NewFrameReader(bufio.NewReaderSize(rdr, cfg.protoBufferSize))

	hdr, err := readHeader(fr, cfg.compressions)
	if err != nil {
		fr.Close()

		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	frames := rill.FromSeq2(func(yield func(decoder.Frame, error) bool) {
		defer fr.Close()

		for f, err := range decoder.GenerateBlobReader(ctx, fr) {
			if !yield(f, err) {
				return
			}
		}
	})

	batches := rill.Batch(frames, cfg.protoBatchSize, -1)

	entities := rill.OrderedFlatMap(batches, int(cfg.nCPU), func(batch []decoder.Frame) <-chan rill.Try[[]model.Entity] {
		return decoder.DecodeBatch(batch, cfg.compressions)
	})

	return &Decoder{
		Header:   hdr,
		entities: entities,
		cancel:   cancel,
	}, nil
}

// Decode returns the entities of the next block in file order.  The end of
// the input stream is reported by an io.EOF error.  After any other error
// the decoder is closed and the error is returned again by every call.
func (d *Decoder) Decode() ([]model.Entity, error) {
	if d.err != nil {
		return nil, d.err
	}

	t, ok := <-d.entities
	if !ok {
		d.err = io.EOF

		return nil, d.err
	}

	if t.Error != nil {
		d.err = t.Error
		d.Close()

		return nil, d.err
	}

	return t.Value, nil
}

// Close stops the background decoding pipeline.  Subsequent calls to
// Decode report io.EOF once the pipeline has drained.
func (d *Decoder) Close() {
	d.close.Do(func() {
		d.cancel()
		rill.DrainNB(d.entities)
	})
}

func readHeader(fr *decoder.FrameReader, accepted model.Compressions) (model.Header, error) {
	hdr, err := decoder.ReadHeader(fr, accepted)
	if err != nil {
		return model.Header{}, err
	}

	for _, feature := range hdr.RequiredFeatures {
		if _, ok := supportedFeatures[feature]; !ok {
			return model.Header{}, fmt.Errorf("%w: %s", ErrUnsupportedFeature, feature)
		}
	}

	return hdr, nil
}
