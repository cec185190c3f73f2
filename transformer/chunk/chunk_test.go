package chunk

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
	"testing"

	"github.com/brunotm/flowdex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByCharCountSplitsAndInheritsPathAndMetadata(t *testing.T) {
	parent := flowdex.NewNode("/doc", "abcdef")
	parent.Metadata.Set("title", "Doc")

	c := New(3)
	stream, err := c.TransformNode(context.Background(), parent)
	require.NoError(t, err)

	var chunks []string
	for r := range stream.Chan() {
		require.False(t, r.IsErr())
		n, _ := r.Value()
		chunks = append(chunks, n.Chunk)
		assert.Equal(t, "/doc", n.Path)
		v, ok := n.Metadata.Get("title")
		assert.True(t, ok)
		assert.Equal(t, "Doc", v)
	}
	assert.Equal(t, []string{"abc", "def"}, chunks)
}

func TestByCharCountHandlesEmptyChunk(t *testing.T) {
	c := New(3)
	stream, err := c.TransformNode(context.Background(), flowdex.Node{Path: "/empty"})
	require.NoError(t, err)
	assert.Empty(t, drain(stream))
}

func drain(s flowdex.Stream) []flowdex.Result[flowdex.Node] {
	var out []flowdex.Result[flowdex.Node]
	for r := range s.Chan() {
		out = append(out, r)
	}
	return out
}
