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

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// SparseEmbedding is a sparse vector representation paired indices/values
// (§3 "Node").
type SparseEmbedding struct {
	Indices []uint32
	Values  []float32
}

// Node is the unit of work flowing through an indexing pipeline: content
// plus metadata plus optional vectors plus a stable identity (§3 "Node").
//
// ID is a pure function of (Path, Chunk). It MUST NOT be computed from
// Metadata or the embeddings — see ComputeID and invariant 1 (§8).
type Node struct {
	ID       uint64
	Path     string
	Chunk    string
	Vector   []float32
	Sparse   *SparseEmbedding
	Metadata Metadata
}

// NewNode creates a Node with its ID computed from path and chunk.
func NewNode(path, chunk string) Node {
	n := Node{Path: path, Chunk: chunk, Metadata: NewMetadata()}
	n.ID = n.ComputeID()
	return n
}

// ComputeID hashes Path and Chunk with xxhash, the same hash library and
// call shape the teacher used for Record.ID, generalized from a single
// Value field to the (path, chunk) tuple the spec requires. Equal
// (Path, Chunk) pairs always hash identically regardless of Metadata or
// vectors (invariant 1).
func (n Node) ComputeID() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(n.Path)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(n.Chunk)
	return d.Sum64()
}

// IsValid reports whether this Node carries any content worth forwarding.
func (n Node) IsValid() bool {
	return n.Chunk != "" || n.Path != ""
}

// Embeddable returns the projection that embedding stages must feed to the
// model unless a stage overrides it (§3 "Metadata embeddability"): the
// concatenation of "key: value" lines in stable iteration order, a blank
// line, then Chunk.
func (n Node) Embeddable() string {
	var sb strings.Builder
	for _, key := range n.Metadata.Keys() {
		value, _ := n.Metadata.Get(key)
		fmt.Fprintf(&sb, "%s: %v\n", key, value)
	}
	sb.WriteByte('\n')
	sb.WriteString(n.Chunk)
	return sb.String()
}

// WithChunk returns a child Node cloning the parent's Path and Metadata,
// with the given Chunk and a freshly computed ID; the parent's Vector and
// Sparse embeddings are not carried over. Chunkers emit children this way: by cloning
// rather than moving the parent (§9 "Chunkers emit by cloning"). The parent
// is otherwise discarded by the caller.
func (n Node) WithChunk(chunk string) Node {
	child := Node{
		Path:     n.Path,
		Chunk:    chunk,
		Metadata: n.Metadata.Clone(),
	}
	child.ID = child.ComputeID()
	return child
}

// Clone returns a Node safe to mutate independently of n, preserving ID,
// Path and Chunk and deep-copying Metadata and vectors.
func (n Node) Clone() Node {
	clone := n
	clone.Metadata = n.Metadata.Clone()
	if n.Vector != nil {
		clone.Vector = append([]float32(nil), n.Vector...)
	}
	if n.Sparse != nil {
		sp := &SparseEmbedding{
			Indices: append([]uint32(nil), n.Sparse.Indices...),
			Values:  append([]float32(nil), n.Sparse.Values...),
		}
		clone.Sparse = sp
	}
	return clone
}
