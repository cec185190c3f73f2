// Package conformance holds shared test suites for NodeCache and Persister
// implementations, generalized from the teacher's store/tests.go
// TestStore helper (a single suite exercising any streams.Store) into one
// suite per Stage contract, since NodeCache and Persister no longer share
// a common byte-oriented interface (§4.2).
package conformance

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
	"math/rand"
	"sync"
	"testing"

	"github.com/brunotm/flowdex"
	"github.com/stretchr/testify/assert"
)

const (
	letterBytes   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	letterIdxBits = 6
	letterIdxMask = 1<<letterIdxBits - 1
	letterIdxMax  = 63 / letterIdxBits
)

func randString(n int) string {
	b := make([]byte, n)
	for i, cache, remain := n-1, rand.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = rand.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}
	return string(b)
}

// TestNodeCache exercises a flowdex.NodeCache implementation: unseen Nodes
// report false, Set makes them report true, and Get/Set are safe under
// concurrent access (§4.2 "NodeCache": "Get/Set MUST be safe under
// concurrent access").
func TestNodeCache(t *testing.T, cache flowdex.NodeCache) {
	ctx := context.Background()

	node := flowdex.NewNode(randString(8), randString(32))

	t.Run("unseen node reports false", func(t *testing.T) {
		seen, err := cache.Get(ctx, node)
		assert.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("set then get reports true", func(t *testing.T) {
		assert.NoError(t, cache.Set(ctx, node))
		seen, err := cache.Get(ctx, node)
		assert.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("distinct node is unaffected", func(t *testing.T) {
		other := flowdex.NewNode(randString(8), randString(32))
		seen, err := cache.Get(ctx, other)
		assert.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("concurrent set and get", func(t *testing.T) {
		nodes := make([]flowdex.Node, 10)
		for i := range nodes {
			nodes[i] = flowdex.NewNode(randString(4), randString(4))
		}

		start := make(chan struct{})
		var wg sync.WaitGroup

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for x := 0; x < 50; x++ {
				for _, n := range nodes {
					_, err := cache.Get(ctx, n)
					assert.NoError(t, err)
				}
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			close(start)
			for x := 0; x < 50; x++ {
				for _, n := range nodes {
					assert.NoError(t, cache.Set(ctx, n))
				}
			}
		}()

		wg.Wait()
	})
}

// Getter is implemented by Persisters that expose a lookup beyond the
// Setup/Store/BatchStore contract, used here to verify a round trip.
type Getter interface {
	Get(id uint64) (flowdex.Node, error)
}

// TestPersister exercises a flowdex.Persister implementation: Setup must
// run before Store/BatchStore, Store must round-trip a Node exactly, and
// BatchStore must report one result per input Node in order (§4.2
// "Persister").
func TestPersister(t *testing.T, p flowdex.Persister) {
	ctx := context.Background()

	t.Run("setup", func(t *testing.T) {
		assert.NoError(t, p.Setup(ctx))
	})

	node := flowdex.NewNode("doc.md", "hello world")
	node.Metadata.Set("source", "unit-test")

	t.Run("store and round-trip", func(t *testing.T) {
		stored, err := p.Store(ctx, node)
		assert.NoError(t, err)
		assert.Equal(t, node.ID, stored.ID)

		if g, ok := p.(Getter); ok {
			got, err := g.Get(node.ID)
			assert.NoError(t, err)
			assert.Equal(t, node.Path, got.Path)
			assert.Equal(t, node.Chunk, got.Chunk)
			v, ok := got.Metadata.Get("source")
			assert.True(t, ok)
			assert.Equal(t, "unit-test", v)
		}
	})

	t.Run("batch store", func(t *testing.T) {
		nodes := make([]flowdex.Node, 5)
		for i := range nodes {
			nodes[i] = flowdex.NewNode(randString(8), randString(16))
		}

		stream, err := p.BatchStore(ctx, nodes)
		assert.NoError(t, err)

		var results []flowdex.Result[flowdex.Node]
		for r := range stream.Chan() {
			results = append(results, r)
		}
		assert.Len(t, results, len(nodes))
		for i, r := range results {
			assert.False(t, r.IsErr())
			got, _ := r.Value()
			assert.Equal(t, nodes[i].ID, got.ID)
		}
	})
}
