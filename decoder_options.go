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
	"runtime"

	"m4o.io/osmblock/model"
)

const (
	// DefaultBufferSize is the default buffer size for reading the input
	// stream.
	DefaultBufferSize = 1024 * 1024

	// DefaultBatchSize is the default batch size for undecoded blobs.
	DefaultBatchSize = 16
)

// DefaultNCpu provides the default number of CPUs.
func DefaultNCpu() uint16 {
	cpus := uint16(runtime.GOMAXPROCS(-1))

	return max(cpus-1, 1)
}

// decoderOptions provides optional configuration parameters for Decoder construction.
type decoderOptions struct {
	protoBufferSize int                // buffer size for reading the input stream
	protoBatchSize  int                // number of blobs decoded by one worker at a time
	nCPU            uint16             // the number of CPUs to use for background processing
	compressions    model.Compressions // blob compressions that are decoded
}

// DecoderOption configures how we set up the decoder.
type DecoderOption func(*decoderOptions)

// WithProtoBufferSize lets you set the buffer size for reading the input
// stream.
func WithProtoBufferSize(s int) DecoderOption {
	return func(o *decoderOptions) {
		o.protoBufferSize = s
	}
}

// WithProtoBatchSize lets you set the number of blobs a worker decodes at a
// time.
func WithProtoBatchSize(s int) DecoderOption {
	return func(o *decoderOptions) {
		o.protoBatchSize = s
	}
}

// WithNCpus lets you set the number of CPUs to use for background processing.
func WithNCpus(n uint16) DecoderOption {
	return func(o *decoderOptions) {
		o.nCPU = n
	}
}

// WithCompressions enables blob compressions beyond raw and zlib, which are
// always decoded.  The obsolete bzip2 compression is never decoded.
func WithCompressions(cs ...model.BlobCompression) DecoderOption {
	return func(o *decoderOptions) {
		for _, c := range cs {
			o.compressions = o.compressions.With(c)
		}
	}
}

// defaultDecoderConfig provides a default configuration for decoders.
var defaultDecoderConfig = decoderOptions{
	protoBufferSize: DefaultBufferSize,
	protoBatchSize:  DefaultBatchSize,
	nCPU:            DefaultNCpu(),
	compressions:    model.DefaultCompressions,
}

func newDecoderOptions(opts []DecoderOption) decoderOptions {
	cfg := defaultDecoderConfig

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.protoBufferSize <= 0 {
		cfg.protoBufferSize = DefaultBufferSize
	}

	if cfg.protoBatchSize <= 0 {
		cfg.protoBatchSize = DefaultBatchSize
	}

	if cfg.nCPU == 0 {
		cfg.nCPU = DefaultNCpu()
	}

	return cfg
}
