// Package mock provides call-counting test doubles for every flowdex stage
// contract, generalizing the teacher's mock/context.go (a single
// call-counting streams.Context double) into one mock per Stage contract
// (§4.2).
package mock

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
	"sync"
	"sync/atomic"

	"github.com/brunotm/flowdex"
)

// Loader is a flowdex.Loader double that replays a fixed set of items.
type Loader struct {
	Items      []flowdex.Result[flowdex.Node]
	CallCount  int32
	StreamFunc func(ctx context.Context) (flowdex.Stream, error)
}

var _ flowdex.Loader = (*Loader)(nil)

// IntoStream records a call and replays Items, or delegates to StreamFunc
// if set.
func (l *Loader) IntoStream(ctx context.Context) (flowdex.Stream, error) {
	atomic.AddInt32(&l.CallCount, 1)
	if l.StreamFunc != nil {
		return l.StreamFunc(ctx)
	}
	return flowdex.FromSlice(ctx, l.Items), nil
}

// Transformer is a flowdex.Transformer double.
type Transformer struct {
	mu        sync.Mutex
	CallCount int
	Fn        func(ctx context.Context, node flowdex.Node) (flowdex.Node, error)
}

var _ flowdex.Transformer = (*Transformer)(nil)

// TransformNode records a call and delegates to Fn, or returns node
// unchanged if Fn is nil.
func (t *Transformer) TransformNode(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	t.mu.Lock()
	t.CallCount++
	t.mu.Unlock()
	if t.Fn == nil {
		return node, nil
	}
	return t.Fn(ctx, node)
}

// Calls returns the number of times TransformNode has been invoked.
func (t *Transformer) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.CallCount
}

// BatchTransformer is a flowdex.BatchTransformer double.
type BatchTransformer struct {
	mu         sync.Mutex
	Size       int
	Calls      int
	BatchSizes []int
	Fn         func(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error)
}

var _ flowdex.BatchTransformer = (*BatchTransformer)(nil)

// BatchSize returns the configured hint.
func (b *BatchTransformer) BatchSize() int { return b.Size }

// BatchTransform records the call and delegates to Fn, or echoes the batch
// back unchanged as successes if Fn is nil.
func (b *BatchTransformer) BatchTransform(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error) {
	b.mu.Lock()
	b.Calls++
	b.BatchSizes = append(b.BatchSizes, len(nodes))
	b.mu.Unlock()

	if b.Fn != nil {
		return b.Fn(ctx, nodes)
	}

	items := make([]flowdex.Result[flowdex.Node], len(nodes))
	for i, n := range nodes {
		items[i] = flowdex.Ok(n)
	}
	return flowdex.FromSlice(ctx, items), nil
}

// Chunker is a flowdex.Chunker double.
type Chunker struct {
	mu        sync.Mutex
	CallCount int
	Fn        func(ctx context.Context, node flowdex.Node) (flowdex.Stream, error)
}

var _ flowdex.Chunker = (*Chunker)(nil)

// TransformNode records the call and delegates to Fn, or emits node
// unchanged as a singleton stream if Fn is nil.
func (c *Chunker) TransformNode(ctx context.Context, node flowdex.Node) (flowdex.Stream, error) {
	c.mu.Lock()
	c.CallCount++
	c.mu.Unlock()
	if c.Fn != nil {
		return c.Fn(ctx, node)
	}
	return flowdex.FromSlice(ctx, []flowdex.Result[flowdex.Node]{flowdex.Ok(node)}), nil
}

// NodeCache is an in-memory flowdex.NodeCache double with call counters.
type NodeCache struct {
	mu        sync.Mutex
	seen      map[uint64]bool
	GetCalls  int
	SetCalls  int
	SetErr    error
}

// NewNodeCache creates an empty NodeCache double.
func NewNodeCache() *NodeCache {
	return &NodeCache{seen: make(map[uint64]bool)}
}

var _ flowdex.NodeCache = (*NodeCache)(nil)

// Get reports whether node.ID was previously Set.
func (c *NodeCache) Get(ctx context.Context, node flowdex.Node) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	return c.seen[node.ID], nil
}

// Set marks node.ID as seen, or returns SetErr if configured.
func (c *NodeCache) Set(ctx context.Context, node flowdex.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalls++
	if c.SetErr != nil {
		return c.SetErr
	}
	c.seen[node.ID] = true
	return nil
}

// Seed pre-populates the cache as already having seen node, used to set up
// scenario S3 ("Cache skip") without a real Set call.
func (c *NodeCache) Seed(node flowdex.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[node.ID] = true
}

// Persister is an in-memory flowdex.Persister double collecting every
// stored Node, used as the sink in S1/S3/S5/S6-style scenarios.
type Persister struct {
	mu          sync.Mutex
	Size        int
	SetupCalls  int
	StoreCalls  int
	Nodes       []flowdex.Node
	SetupErr    error
	StoreErrFor func(flowdex.Node) error
}

var _ flowdex.Persister = (*Persister)(nil)

// Setup records the call and returns SetupErr.
func (p *Persister) Setup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SetupCalls++
	return p.SetupErr
}

// BatchSize returns the configured hint.
func (p *Persister) BatchSize() int { return p.Size }

// Store appends node to Nodes unless StoreErrFor(node) returns an error.
func (p *Persister) Store(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StoreCalls++
	if p.StoreErrFor != nil {
		if err := p.StoreErrFor(node); err != nil {
			return flowdex.Node{}, err
		}
	}
	p.Nodes = append(p.Nodes, node)
	return node, nil
}

// BatchStore stores every node via Store and reports per-item results.
func (p *Persister) BatchStore(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error) {
	items := make([]flowdex.Result[flowdex.Node], len(nodes))
	for i, n := range nodes {
		stored, err := p.Store(ctx, n)
		if err != nil {
			items[i] = flowdex.Err[flowdex.Node](err)
			continue
		}
		items[i] = flowdex.Ok(stored)
	}
	return flowdex.FromSlice(ctx, items), nil
}

// IDs returns the IDs of every stored Node, in storage order.
func (p *Persister) IDs() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]uint64, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Len returns the number of stored Nodes.
func (p *Persister) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Nodes)
}
