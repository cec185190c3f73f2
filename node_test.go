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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeIDIsPureFunctionOfPathAndChunk(t *testing.T) {
	a := NewNode("doc.md", "hello")
	b := NewNode("doc.md", "hello")
	assert.Equal(t, a.ID, b.ID)

	b.Metadata.Set("source", "test")
	b.Vector = []float32{1, 2, 3}
	assert.Equal(t, a.ID, b.ComputeID(), "metadata and vectors must not affect ID")
}

func TestNodeIDDiffersOnPathOrChunk(t *testing.T) {
	a := NewNode("doc.md", "hello")
	b := NewNode("doc.md", "world")
	c := NewNode("other.md", "hello")
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestNodeIsValid(t *testing.T) {
	assert.True(t, NewNode("doc.md", "").IsValid())
	assert.True(t, NewNode("", "hello").IsValid())
	assert.False(t, Node{}.IsValid())
}

func TestNodeEmbeddable(t *testing.T) {
	n := NewNode("doc.md", "body text")
	n.Metadata.Set("title", "Doc")
	n.Metadata.Set("author", "bruno")

	assert.Equal(t, "title: Doc\nauthor: bruno\n\nbody text", n.Embeddable())
}

func TestNodeWithChunkClonesMetadataNotVectors(t *testing.T) {
	parent := NewNode("doc.md", "parent chunk")
	parent.Metadata.Set("title", "Doc")
	parent.Vector = []float32{1, 2, 3}

	child := parent.WithChunk("child chunk")

	assert.Equal(t, parent.Path, child.Path)
	v, ok := child.Metadata.Get("title")
	assert.True(t, ok)
	assert.Equal(t, "Doc", v)
	assert.Nil(t, child.Vector, "WithChunk must not carry over the parent's vector")
	assert.NotEqual(t, parent.ID, child.ID)
	assert.Equal(t, child.ComputeID(), child.ID)
}

func TestNodeCloneIsIndependent(t *testing.T) {
	n := NewNode("doc.md", "chunk")
	n.Vector = []float32{1, 2}
	n.Sparse = &SparseEmbedding{Indices: []uint32{1}, Values: []float32{0.5}}
	n.Metadata.Set("k", "v")

	clone := n.Clone()
	clone.Vector[0] = 99
	clone.Sparse.Values[0] = 99
	clone.Metadata.Set("k", "changed")

	assert.Equal(t, float32(1), n.Vector[0])
	assert.Equal(t, float32(0.5), n.Sparse.Values[0])
	v, _ := n.Metadata.Get("k")
	assert.Equal(t, "v", v)
}
