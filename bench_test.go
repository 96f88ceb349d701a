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
	"bytes"
	"context"
	"io"
	"os"
	"strconv"
	"testing"

	"m4o.io/osmblock/internal/encoder"
	"m4o.io/osmblock/internal/pb"
	"m4o.io/osmblock/model"
)

func benchmarkBlocks(nBlocks, perBlock int) []*pb.PrimitiveBlock {
	blocks := make([]*pb.PrimitiveBlock, nBlocks)

	for i := range blocks {
		entities := make([]model.Entity, perBlock)

		for j := range entities {
			id := model.ID(i*perBlock + j)
			entities[j] = &model.Node{
				ID:   id,
				Tags: map[string]string{"id": strconv.Itoa(int(id))},
				Lat:  model.Degrees(51 + float64(j)/float64(perBlock)),
				Lon:  model.Degrees(-float64(j) / float64(perBlock)),
			}
		}

		blocks[i] = encoder.EncodeBlock(true, entities)
	}

	return blocks
}

func BenchmarkDecoder(b *testing.B) {
	var buf bytes.Buffer

	if err := encoder.SaveFile(&buf, testHeader, model.ZLIB, benchmarkBlocks(64, 8000)...); err != nil {
		b.Fatal(err)
	}

	data := buf.Bytes()

	pbs, _ := strconv.Atoi(os.Getenv("OSMBLOCK_PROTO_BUFFER_SIZE"))
	ncpu, _ := strconv.Atoi(os.Getenv("OSMBLOCK_NCPU"))

	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		decoder, err := NewDecoder(context.Background(), bytes.NewReader(data),
			WithProtoBufferSize(pbs),
			WithNCpus(uint16(ncpu)))
		if err != nil {
			b.Fatal(err)
		}

		for {
			if _, err := decoder.Decode(); err == io.EOF {
				break
			} else if err != nil {
				b.Fatal(err)
			}
		}

		decoder.Close()
	}
}

func BenchmarkDecodeBlock(b *testing.B) {
	bb, err := encoder.Pack(benchmarkBlocks(1, 8000)[0], model.ZLIB)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(bb)))
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		ents, err := DecodeBlock(bb)
		if err != nil {
			b.Fatal(err)
		}

		for ents.Next() {
		}

		if err := ents.Err(); err != nil {
			b.Fatal(err)
		}
	}
}
