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
	"sync"
)

// DefaultBufferSize is the bounded channel capacity between stages unless
// otherwise noted. The builder exposes no tuning of this — deliberately,
// to keep the surface small (§9 "Back-pressure").
const DefaultBufferSize = 1000

// Stream is a lazy, fallible, asynchronous sequence of Result[Node] with
// bounded buffering (§4.1 "Stream abstraction"). A Stream is not
// restartable: once consumed, it cannot be replayed. Combinators return a
// new Stream and must be called at most once per value.
type Stream struct {
	ctx context.Context
	ch  <-chan Result[Node]
}

// FromSlice creates a Stream that synchronously replays items, used by
// Chunkers and batch-stage results to re-enter the stream graph (§4.1
// "A synchronous iter(Vec<Result<Node>>) constructor is required").
func FromSlice(ctx context.Context, items []Result[Node]) Stream {
	ch := make(chan Result[Node], len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return Stream{ctx: ctx, ch: ch}
}

// FromChannel wraps an existing channel as a Stream. Used by Loaders that
// produce items asynchronously (e.g. a dedicated worker goroutine doing
// blocking I/O, §4.2 "Loader").
func FromChannel(ctx context.Context, ch <-chan Result[Node]) Stream {
	return Stream{ctx: ctx, ch: ch}
}

// Empty returns a Stream with no items.
func Empty(ctx context.Context) Stream {
	ch := make(chan Result[Node])
	close(ch)
	return Stream{ctx: ctx, ch: ch}
}

// Boxed erases the concrete producer behind a plain channel-backed Stream.
// Go has no trait-object boxing step to perform; this exists only so call
// sites mirroring the fluent `.map(...).boxed()` chain from the spec read
// the same way in both languages.
func (s Stream) Boxed() Stream { return s }

// Chan exposes the underlying receive channel for callers (principally the
// engine) driving the stream to completion.
func (s Stream) Chan() <-chan Result[Node] { return s.ch }

// Map applies fn to every item, successes and errors alike, preserving
// arrival order. Used for taps and other non-stage bookkeeping; ordinary
// pipeline stages use Then so that errors pass through without invoking a
// user callback (invariant 6, §8).
func (s Stream) Map(fn func(Result[Node]) Result[Node]) Stream {
	out := make(chan Result[Node], DefaultBufferSize)
	go func() {
		defer close(out)
		for item := range s.ch {
			select {
			case out <- fn(item):
			case <-s.ctx.Done():
				return
			}
		}
	}()
	return Stream{ctx: s.ctx, ch: out}
}

// Then maps successful items through fn sequentially (concurrency 1),
// passing Err items through unchanged without invoking fn (invariant 6).
func (s Stream) Then(fn func(Node) Result[Node]) Stream {
	return s.Map(func(r Result[Node]) Result[Node] {
		if r.IsErr() {
			return r
		}
		n, _ := r.Value()
		return fn(n)
	})
}

// BufferUnordered runs fn over successful items with up to n concurrent
// invocations; output order is not guaranteed to match input order once
// n > 1 (§5 "any stage with per-item concurrency > 1 MAY reorder"). Err
// items pass through unchanged and do not consume a concurrency slot.
func (s Stream) BufferUnordered(n int, fn func(Node) Result[Node]) Stream {
	if n < 1 {
		n = 1
	}

	out := make(chan Result[Node], DefaultBufferSize)
	sem := make(chan struct{}, n)
	var wg sync.WaitGroup

	go func() {
		defer func() {
			wg.Wait()
			close(out)
		}()

		for item := range s.ch {
			if s.ctx.Err() != nil {
				return
			}

			if item.IsErr() {
				select {
				case out <- item:
				case <-s.ctx.Done():
					return
				}
				continue
			}

			select {
			case sem <- struct{}{}:
			case <-s.ctx.Done():
				return
			}

			wg.Add(1)
			node, _ := item.Value()
			go func(node Node) {
				defer wg.Done()
				defer func() { <-sem }()
				res := fn(node)
				select {
				case out <- res:
				case <-s.ctx.Done():
				}
			}(node)
		}
	}()

	return Stream{ctx: s.ctx, ch: out}
}

// ReadyChunks groups the stream into batches of up to size successful
// Nodes each, flushing a partial (non-empty) batch when the upstream ends.
// Err items are forwarded immediately as singleton passthrough batches so
// that error propagation never waits on a partial batch to fill
// (§4.4 "Batching", invariant 4).
func (s Stream) ReadyChunks(size int) <-chan Batch {
	if size < 1 {
		size = 1
	}

	out := make(chan Batch, 1)
	go func() {
		defer close(out)

		buf := make([]Node, 0, size)
		flush := func() {
			if len(buf) == 0 {
				return
			}
			select {
			case out <- Batch{Nodes: buf}:
			case <-s.ctx.Done():
			}
			buf = make([]Node, 0, size)
		}

		for item := range s.ch {
			if s.ctx.Err() != nil {
				return
			}

			if item.IsErr() {
				flush()
				select {
				case out <- Batch{Errs: []error{item.Error()}}:
				case <-s.ctx.Done():
					return
				}
				continue
			}

			node, _ := item.Value()
			buf = append(buf, node)
			if len(buf) >= size {
				flush()
			}
		}
		flush()
	}()

	return out
}

// Batch is a finite ordered sequence of Nodes dispatched to a single
// BatchTransformer or Persister invocation (§3 "Batch"), or a carrier for
// a single passed-through error item when ReadyChunks flushes one inline.
type Batch struct {
	Nodes []Node
	Errs  []error
}

// TryForEachConcurrent drains the stream calling fn for every item with up
// to n concurrent invocations, used by terminal sink stages. An error from
// fn does not stop the draining; once the stream is exhausted it returns
// the first non-nil error fn returned (with n > 1, "first" is in completion
// order, not stream order). If the stream's context is cancelled while
// waiting for a free slot, it returns the context's error.
func (s Stream) TryForEachConcurrent(n int, fn func(Result[Node]) error) error {
	if n < 1 {
		n = 1
	}

	sem := make(chan struct{}, n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for item := range s.ch {
		if s.ctx.Err() != nil {
			break
		}

		select {
		case sem <- struct{}{}:
		case <-s.ctx.Done():
			wg.Wait()
			return s.ctx.Err()
		}

		wg.Add(1)
		go func(item Result[Node]) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(item); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(item)
	}

	wg.Wait()
	return firstErr
}
