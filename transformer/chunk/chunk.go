// Package chunk provides a flowdex.Chunker that splits a Node's content
// into fixed-size character chunks, grounded on spec scenario S2
// ("Chunking": split by N characters, children inherit the parent path
// and metadata).
package chunk

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

// ByCharCount splits a Node's Chunk into children of at most Size
// characters each, in order.
type ByCharCount struct {
	Size int
}

var _ flowdex.Chunker = ByCharCount{}

// New creates a ByCharCount chunker with the given chunk size. A size <= 0
// falls back to 1 to guarantee forward progress.
func New(size int) ByCharCount {
	if size <= 0 {
		size = 1
	}
	return ByCharCount{Size: size}
}

// TransformNode splits node.Chunk into runs of at most c.Size runes,
// emitting one child per run via Node.WithChunk so each inherits the
// parent's Path and Metadata (§9 "Chunkers emit by cloning").
func (c ByCharCount) TransformNode(ctx context.Context, node flowdex.Node) (flowdex.Stream, error) {
	runes := []rune(node.Chunk)
	if len(runes) == 0 {
		return flowdex.Empty(ctx), nil
	}

	var items []flowdex.Result[flowdex.Node]
	for start := 0; start < len(runes); start += c.Size {
		end := start + c.Size
		if end > len(runes) {
			end = len(runes)
		}
		items = append(items, flowdex.Ok(node.WithChunk(string(runes[start:end]))))
	}

	return flowdex.FromSlice(ctx, items), nil
}
