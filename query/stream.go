package query

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

// Stream is a Query pipeline's equivalent of flowdex.Stream: a lazy,
// fallible, bounded-buffer sequence, here of flowdex.Result[Query]
// instead of flowdex.Result[Node] (§4.5 "A Query pipeline is a stream of
// Result<Query<S>>... composes with the same engine primitives as
// indexing").
type Stream struct {
	ctx context.Context
	ch  <-chan flowdex.Result[Query]
}

// FromSlice replays items synchronously, mirroring flowdex.FromSlice.
func FromSlice(ctx context.Context, items []flowdex.Result[Query]) Stream {
	ch := make(chan flowdex.Result[Query], len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return Stream{ctx: ctx, ch: ch}
}

// Chan exposes the underlying receive channel.
func (s Stream) Chan() <-chan flowdex.Result[Query] { return s.ch }

// Then maps successful Query items through fn sequentially, passing Err
// items through unchanged (mirrors flowdex.Stream.Then, generalized to a
// single user-supplied per-item transition rather than a fixed stage
// kind, since every query stage here is a one-in-one-out transform of the
// same Query type with a runtime-checked state tag).
func (s Stream) Then(fn func(Query) (Query, error)) Stream {
	out := make(chan flowdex.Result[Query], flowdex.DefaultBufferSize)
	go func() {
		defer close(out)
		for item := range s.ch {
			if item.IsErr() {
				select {
				case out <- item:
				case <-s.ctx.Done():
					return
				}
				continue
			}
			q, _ := item.Value()
			next, err := fn(q)
			var result flowdex.Result[Query]
			if err != nil {
				result = flowdex.Err[Query](err)
			} else {
				result = flowdex.Ok(next)
			}
			select {
			case out <- result:
			case <-s.ctx.Done():
				return
			}
		}
	}()
	return Stream{ctx: s.ctx, ch: out}
}

// ThenTransformQuery runs t over every Pending Query in the stream.
func (s Stream) ThenTransformQuery(t TransformQuery) Stream {
	return s.Then(func(q Query) (Query, error) { return ApplyTransformQuery(s.ctx, t, q) })
}

// ThenRetrieve runs r over every Pending Query, producing Retrieved ones.
func (s Stream) ThenRetrieve(r Retriever) Stream {
	return s.Then(func(q Query) (Query, error) { return ApplyRetrieve(s.ctx, r, q) })
}

// ThenTransformResponse runs t over every Retrieved Query.
func (s Stream) ThenTransformResponse(t TransformResponse) Stream {
	return s.Then(func(q Query) (Query, error) { return ApplyTransformResponse(s.ctx, t, q) })
}

// ThenAnswer runs a over every Retrieved Query, producing Answered ones.
func (s Stream) ThenAnswer(a Answerer) Stream {
	return s.Then(func(q Query) (Query, error) { return ApplyAnswer(s.ctx, a, q) })
}

// Tap runs fn for its side effect on every item without altering the
// stream, mirroring the indexing pipeline's log_nodes/log_errors/log_all
// taps (§4.3).
func (s Stream) Tap(fn func(flowdex.Result[Query])) Stream {
	out := make(chan flowdex.Result[Query], flowdex.DefaultBufferSize)
	go func() {
		defer close(out)
		for item := range s.ch {
			fn(item)
			select {
			case out <- item:
			case <-s.ctx.Done():
				return
			}
		}
	}()
	return Stream{ctx: s.ctx, ch: out}
}

// Drain consumes the stream to completion, collecting every successful
// Query and the first error encountered, if any.
func (s Stream) Drain() ([]Query, error) {
	var out []Query
	var firstErr error
	for item := range s.ch {
		if item.IsErr() {
			if firstErr == nil {
				firstErr = item.Error()
			}
			continue
		}
		q, _ := item.Value()
		out = append(out, q)
	}
	return out, firstErr
}
