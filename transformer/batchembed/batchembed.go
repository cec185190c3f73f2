// Package batchembed provides a flowdex.BatchTransformer wrapping an
// embed.BatchModel, grounded on spec scenario S4 ("Batching": BatchEmbed
// declares batch size 10, exactly 3 invocations for 25 Nodes sized
// 10/10/5).
package batchembed

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
	"fmt"

	"github.com/brunotm/flowdex"
	"github.com/brunotm/flowdex/embed"
)

// Transformer dispatches one embed.BatchModel.EmbedBatch call per batch,
// using each Node's Embeddable projection as the model input and writing
// the returned vector back onto the Node (§3 "Metadata embeddability").
type Transformer struct {
	model embed.BatchModel
	size  int
}

var _ flowdex.BatchTransformer = (*Transformer)(nil)

// New creates a Transformer with the given batch size hint.
func New(model embed.BatchModel, size int) *Transformer {
	return &Transformer{model: model, size: size}
}

// BatchSize reports the configured hint.
func (t *Transformer) BatchSize() int { return t.size }

// BatchTransform embeds every Node in nodes with a single model call and
// writes the resulting vectors back, in order.
func (t *Transformer) BatchTransform(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error) {
	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = n.Embeddable()
	}

	vectors, err := t.model.EmbedBatch(ctx, texts)
	if err != nil {
		return flowdex.Stream{}, err
	}
	if len(vectors) != len(nodes) {
		return flowdex.Stream{}, fmt.Errorf("batchembed: model returned %d vectors for %d nodes", len(vectors), len(nodes))
	}

	items := make([]flowdex.Result[flowdex.Node], len(nodes))
	for i, n := range nodes {
		n.Vector = vectors[i]
		items[i] = flowdex.Ok(n)
	}
	return flowdex.FromSlice(ctx, items), nil
}
