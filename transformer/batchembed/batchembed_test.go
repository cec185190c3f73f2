package batchembed

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

type fakeModel struct {
	calls int
}

func (f *fakeModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func TestBatchTransformAssignsVectorsInOrder(t *testing.T) {
	model := &fakeModel{}
	tr := New(model, 10)
	assert.Equal(t, 10, tr.BatchSize())

	nodes := []flowdex.Node{
		flowdex.NewNode("a", "1"),
		flowdex.NewNode("b", "2"),
		flowdex.NewNode("c", "3"),
	}

	stream, err := tr.BatchTransform(context.Background(), nodes)
	require.NoError(t, err)

	var i int
	for r := range stream.Chan() {
		require.False(t, r.IsErr())
		n, _ := r.Value()
		assert.Equal(t, []float32{float32(i)}, n.Vector)
		i++
	}
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, 3, i)
}
