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
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/brunotm/flowdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSingleFileEmbedStore is scenario S1: a single Node flows through an
// embedding Transformer into a single in-memory sink.
func TestSingleFileEmbedStore(t *testing.T) {
	node := NewNode("/a", "hello")
	loader := &mock.Loader{Items: []Result[Node]{Ok(node)}}

	embedder := &mock.Transformer{Fn: func(ctx context.Context, n Node) (Node, error) {
		n.Vector = []float32{1.0, 2.0}
		return n, nil
	}}

	persister := &mock.Persister{}

	p := NewPipeline("s1").
		FromLoader(loader).
		Then("embed", embedder).
		ThenStoreWith("store", persister)
	require.NoError(t, p.err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), outcome.Success)

	require.Len(t, persister.Nodes, 1)
	assert.Equal(t, []float32{1.0, 2.0}, persister.Nodes[0].Vector)
	assert.Equal(t, node.ComputeID(), persister.Nodes[0].ID)
}

// TestChunkingInheritsParentPathAndMetadata is scenario S2.
func TestChunkingInheritsParentPathAndMetadata(t *testing.T) {
	parent := NewNode("/doc", "abcdef")
	parent.Metadata.Set("title", "Doc")
	loader := &mock.Loader{Items: []Result[Node]{Ok(parent)}}

	chunker := &mock.Chunker{Fn: func(ctx context.Context, n Node) (Stream, error) {
		return FromSlice(ctx, []Result[Node]{
			Ok(n.WithChunk(n.Chunk[:3])),
			Ok(n.WithChunk(n.Chunk[3:])),
		}), nil
	}}

	persister := &mock.Persister{}

	p := NewPipeline("s2").
		FromLoader(loader).
		ThenChunk("split", chunker).
		ThenStoreWith("store", persister)
	require.NoError(t, p.err)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, persister.Nodes, 2)
	chunks := []string{persister.Nodes[0].Chunk, persister.Nodes[1].Chunk}
	sort.Strings(chunks)
	assert.Equal(t, []string{"abc", "def"}, chunks)
	for _, n := range persister.Nodes {
		assert.Equal(t, "/doc", n.Path)
		v, ok := n.Metadata.Get("title")
		assert.True(t, ok)
		assert.Equal(t, "Doc", v)
	}
}

// TestCacheSkipSkipsEmbedderAndPersister is scenario S3.
func TestCacheSkipSkipsEmbedderAndPersister(t *testing.T) {
	node := NewNode("/a", "hello")
	cache := mock.NewNodeCache()
	cache.Seed(node)

	loader := &mock.Loader{Items: []Result[Node]{Ok(node)}}
	embedder := &mock.Transformer{}
	persister := &mock.Persister{}

	p := NewPipeline("s3").
		FromLoader(loader).
		FilterCached(cache, "").
		Then("embed", embedder).
		ThenStoreWith("store", persister)
	require.NoError(t, p.err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), outcome.Skipped)
	assert.Equal(t, 0, embedder.Calls())
	assert.Len(t, persister.Nodes, 0)
}

// TestBatchingDispatchesDeclaredSizesWithPartialTail is scenario S4.
func TestBatchingDispatchesDeclaredSizesWithPartialTail(t *testing.T) {
	items := make([]Result[Node], 25)
	for i := range items {
		items[i] = Ok(NewNode("doc", string(rune('a'+i))))
	}
	loader := &mock.Loader{Items: items}

	batcher := &mock.BatchTransformer{Size: 10}
	persister := &mock.Persister{}

	p := NewPipeline("s4").
		FromLoader(loader).
		ThenInBatch("batch_embed", batcher).
		ThenStoreWith("store", persister)
	require.NoError(t, p.err)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, batcher.BatchSizes, 3)
	assert.ElementsMatch(t, []int{10, 10, 5}, batcher.BatchSizes)
}

// TestFanOutDeliversSameIDsToBothSinks is scenario S5.
func TestFanOutDeliversSameIDsToBothSinks(t *testing.T) {
	items := make([]Result[Node], 5)
	for i := range items {
		items[i] = Ok(NewNode("doc", string(rune('a'+i))))
	}
	loader := &mock.Loader{Items: items}

	first := &mock.Persister{}
	second := &mock.Persister{}

	p := NewPipeline("s5").
		FromLoader(loader).
		ThenStoreWith("first", first).
		ThenStoreWith("second", second)
	require.NoError(t, p.err)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	a, b := first.IDs(), second.IDs()
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	assert.Equal(t, a, b)
	assert.Len(t, a, 5)
}

// TestErrorPassthroughUnderLenientMode is scenario S6.
func TestErrorPassthroughUnderLenientMode(t *testing.T) {
	items := make([]Result[Node], 5)
	for i := range items {
		items[i] = Ok(NewNode("doc", string(rune('a'+i))))
	}
	loader := &mock.Loader{Items: items}

	boom := errors.New("transform failed")
	var calls int
	transformer := &mock.Transformer{Fn: func(ctx context.Context, n Node) (Node, error) {
		calls++
		if n.Chunk == "c" {
			return Node{}, boom
		}
		return n, nil
	}}

	persister := &mock.Persister{}

	p := NewPipeline("s6").
		WithConcurrency(1).
		FromLoader(loader).
		Then("transform", transformer).
		WithErrorMode(ErrorModeLenient).
		ThenStoreWith("store", persister)
	require.NoError(t, p.err)

	outcome, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), outcome.Success)
	assert.Equal(t, int64(1), outcome.Errors)
	assert.Len(t, persister.Nodes, 4)
}
