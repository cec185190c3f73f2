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
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNodeRoundTrips(t *testing.T) {
	n := NewNode("/a/b", "chunk text")
	n.Vector = []float32{1, 2, 3}
	n.Sparse = &SparseEmbedding{Indices: []uint32{2, 5}, Values: []float32{0.1, 0.2}}
	n.Metadata.Set("title", "Doc")
	n.Metadata.Set("page", 2.0)

	data, err := EncodeNode(n)
	require.NoError(t, err)

	got, err := DecodeNode(data)
	require.NoError(t, err)

	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, n.Path, got.Path)
	assert.Equal(t, n.Chunk, got.Chunk)
	assert.Equal(t, n.Vector, got.Vector)
	assert.Equal(t, n.Sparse, got.Sparse)
	assert.Equal(t, n.Metadata.Keys(), got.Metadata.Keys())
}

func TestEncodeKeyPreservesNumericOrder(t *testing.T) {
	k1 := EncodeKey(1)
	k2 := EncodeKey(2)
	k1000 := EncodeKey(1000)

	assert.True(t, string(k1) < string(k2))
	assert.True(t, string(k2) < string(k1000))
}
