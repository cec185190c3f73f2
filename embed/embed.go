// Package embed declares the model interfaces an indexing pipeline
// consumes to turn a Node's embeddable projection into vectors (§6 "Model
// interfaces (consumed)").
package embed

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"

	"github.com/brunotm/flowdex"
)

// Model turns text into a dense vector.
type Model interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchModel turns a slice of texts into one vector per input, preserving
// order, used by transformer/batchembed to satisfy a BatchTransformer's
// single round-trip per batch (§8 scenario S4).
type BatchModel interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SparseModel turns text into a sparse vector.
type SparseModel interface {
	EmbedSparse(ctx context.Context, text string) (flowdex.SparseEmbedding, error)
}
