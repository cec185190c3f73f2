package flowdex

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

import "context"

// Initializer is implemented by any stage that must run setup before the
// pipeline starts processing. Generalizes the teacher's Initializer
// (api.go), kept for Persister.Setup but also available to any custom
// stage that needs one-time setup.
type Initializer interface {
	Init(ctx context.Context) error
}

// Closer is implemented by any stage or store that releases resources on
// stream termination, carried over from the teacher's Closer (api.go).
type Closer interface {
	Close() error
}

// Loader consumes itself to produce the pipeline's initial Stream
// (§4.2 "Loader"). Implementations may perform blocking I/O in a
// dedicated worker goroutine; unrecoverable startup errors may be
// returned directly from IntoStream instead of as a stream item.
type Loader interface {
	IntoStream(ctx context.Context) (Stream, error)
}

// Transformer is a one-in, one-out stage, pure with respect to other
// Nodes (§4.2 "Transformer").
type Transformer interface {
	TransformNode(ctx context.Context, node Node) (Node, error)
}

// TransformerFunc adapts a function to a Transformer.
type TransformerFunc func(ctx context.Context, node Node) (Node, error)

// TransformNode calls f.
func (f TransformerFunc) TransformNode(ctx context.Context, node Node) (Node, error) {
	return f(ctx, node)
}

// BatchTransformer consumes one batch and emits a stream of Nodes, usually
// (but not necessarily) of equal size (§4.2 "BatchTransformer").
type BatchTransformer interface {
	// BatchSize hints the engine's preferred batch size for this stage.
	// A value <= 0 means "use the pipeline default".
	BatchSize() int
	BatchTransform(ctx context.Context, nodes []Node) (Stream, error)
}

// Chunker is a one-in, many-out stage: each child inherits the parent's
// metadata and path, and the parent is discarded (§4.2 "Chunker").
type Chunker interface {
	TransformNode(ctx context.Context, node Node) (Stream, error)
}

// NodeCache is an advisory idempotency filter (§4.2 "NodeCache"). Get/Set
// MUST be safe under concurrent access. False negatives are acceptable
// (an already-seen Node may be reprocessed); false positives are not (a
// never-seen Node must never be reported present).
type NodeCache interface {
	Get(ctx context.Context, node Node) (bool, error)
	Set(ctx context.Context, node Node) error
}

// Persister is a terminal stage that writes Nodes to an external store
// (§4.2 "Persister"). The engine invokes Setup exactly once before any
// Store/BatchStore call (§4.3 "then_store_with").
type Persister interface {
	Setup(ctx context.Context) error
	Store(ctx context.Context, node Node) (Node, error)
	// BatchSize hints the engine's preferred batch size for BatchStore.
	// A value <= 0 means "use the pipeline default". When the resulting
	// size is 1 or less, the engine calls Store per item instead of
	// BatchStore.
	BatchSize() int
	BatchStore(ctx context.Context, nodes []Node) (Stream, error)
}
