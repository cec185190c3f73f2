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

	"github.com/stretchr/testify/assert"
)

func items(paths ...string) []Result[Node] {
	out := make([]Result[Node], len(paths))
	for i, p := range paths {
		out[i] = Ok(NewNode(p, "chunk"))
	}
	return out
}

func drain(s Stream) []Result[Node] {
	var out []Result[Node]
	for r := range s.Chan() {
		out = append(out, r)
	}
	return out
}

func TestStreamThenPreservesOrderAndSkipsErrors(t *testing.T) {
	ctx := context.Background()
	in := []Result[Node]{
		Ok(NewNode("a", "c")),
		Err[Node](errors.New("boom")),
		Ok(NewNode("b", "c")),
	}

	s := FromSlice(ctx, in).Then(func(n Node) Result[Node] {
		n.Chunk = n.Chunk + "!"
		return Ok(n)
	})

	out := drain(s)
	assert.Len(t, out, 3)
	assert.False(t, out[0].IsErr())
	v0, _ := out[0].Value()
	assert.Equal(t, "c!", v0.Chunk)

	assert.True(t, out[1].IsErr())

	assert.False(t, out[2].IsErr())
	v2, _ := out[2].Value()
	assert.Equal(t, "c!", v2.Chunk)
}

func TestStreamBufferUnorderedProcessesEveryItem(t *testing.T) {
	ctx := context.Background()
	s := FromSlice(ctx, items("a", "b", "c", "d", "e"))

	out := s.BufferUnordered(3, func(n Node) Result[Node] {
		return Ok(n)
	})

	results := drain(out)
	assert.Len(t, results, 5)

	var paths []string
	for _, r := range results {
		v, _ := r.Value()
		paths = append(paths, v.Path)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, paths)
}

func TestStreamReadyChunksGroupsAndFlushesPartial(t *testing.T) {
	ctx := context.Background()
	s := FromSlice(ctx, items("a", "b", "c", "d", "e"))

	var sizes []int
	for batch := range s.ReadyChunks(2) {
		if len(batch.Errs) == 0 {
			sizes = append(sizes, len(batch.Nodes))
		}
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestStreamReadyChunksForwardsErrorsImmediately(t *testing.T) {
	ctx := context.Background()
	in := []Result[Node]{
		Ok(NewNode("a", "c")),
		Err[Node](errors.New("boom")),
	}
	s := FromSlice(ctx, in)

	var sawErr, sawPartialFlush bool
	for batch := range s.ReadyChunks(10) {
		if len(batch.Errs) > 0 {
			sawErr = true
		}
		if len(batch.Nodes) == 1 {
			sawPartialFlush = true
		}
	}
	assert.True(t, sawErr)
	assert.True(t, sawPartialFlush, "a pending partial batch must flush before the error is forwarded")
}

func TestStreamTryForEachConcurrentReturnsFirstErrorSerial(t *testing.T) {
	ctx := context.Background()
	s := FromSlice(ctx, items("a", "b", "c"))

	boom := errors.New("boom")
	var seen []string
	err := s.TryForEachConcurrent(1, func(r Result[Node]) error {
		v, _ := r.Value()
		seen = append(seen, v.Path)
		if v.Path == "b" {
			return boom
		}
		return nil
	})

	assert.Equal(t, boom, err)
	assert.Equal(t, []string{"a", "b", "c"}, seen, "serial draining (n=1) must visit every item in order")
}
