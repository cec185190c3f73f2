package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowdex"
)

func TestStateTransitionsFollowPendingRetrievedAnswered(t *testing.T) {
	ctx := context.Background()
	q := New("what is flowdex")
	assert.Equal(t, Pending, q.State())

	q, err := ApplyTransformQuery(ctx, TransformQueryFunc(func(ctx context.Context, q Query) (Query, error) {
		q.Transformed = q.Transformed + "?"
		return q, nil
	}), q)
	require.NoError(t, err)
	assert.Equal(t, Pending, q.State())
	assert.Equal(t, "what is flowdex?", q.Transformed)
	assert.Equal(t, "what is flowdex", q.Original)

	doc := flowdex.NewNode("docs/readme.md", "flowdex is a pipeline library")
	q, err = ApplyRetrieve(ctx, SimilaritySingleEmbedding{
		Model: fakeModel{},
		Index: fakeIndex{docs: []flowdex.Node{doc}},
		TopK:  5,
	}, q)
	require.NoError(t, err)
	assert.Equal(t, Retrieved, q.State())
	assert.Equal(t, []flowdex.Node{doc}, q.Documents)

	q, err = ApplyAnswer(ctx, AnswererFunc(func(ctx context.Context, q Query) (Query, error) {
		q.Response = "flowdex is a pipeline library"
		return q, nil
	}), q)
	require.NoError(t, err)
	assert.Equal(t, Answered, q.State())
	assert.Equal(t, "flowdex is a pipeline library", q.Response)
}

func TestApplyRetrieveRejectsNonPendingQuery(t *testing.T) {
	q := New("x")
	q.state = Retrieved
	_, err := ApplyRetrieve(context.Background(), SimilaritySingleEmbedding{Model: fakeModel{}, Index: fakeIndex{}}, q)
	assert.ErrorIs(t, err, errWrongState)
}

func TestApplyAnswerRejectsPendingQuery(t *testing.T) {
	q := New("x")
	_, err := ApplyAnswer(context.Background(), AnswererFunc(func(ctx context.Context, q Query) (Query, error) {
		return q, nil
	}), q)
	assert.ErrorIs(t, err, errWrongState)
}

func TestRoutedRetrieverDispatchesConsistently(t *testing.T) {
	r := NewRoutedRetriever()
	doc := flowdex.NewNode("a", "b")
	r.Register("en", SimilaritySingleEmbedding{Model: fakeModel{}, Index: fakeIndex{docs: []flowdex.Node{doc}}})
	r.Register("fr", SimilaritySingleEmbedding{Model: fakeModel{}, Index: fakeIndex{docs: []flowdex.Node{doc}}})

	name1, ok := r.RouteFor("hello")
	require.True(t, ok)
	name2, ok := r.RouteFor("hello")
	require.True(t, ok)
	assert.Equal(t, name1, name2, "routing for the same key must be stable")

	q := New("hello")
	q, err := ApplyRetrieve(context.Background(), r, q)
	require.NoError(t, err)
	assert.Equal(t, Retrieved, q.State())
	assert.Len(t, q.Documents, 1)
}

func TestRoutedRetrieverFailsWithNoRouteWhenEmpty(t *testing.T) {
	r := NewRoutedRetriever()
	_, err := r.Retrieve(context.Background(), New("hello"))
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestRerankPrefersItemsRankedHighlyInBothSets(t *testing.T) {
	a := flowdex.NewNode("a", "a")
	b := flowdex.NewNode("b", "b")
	c := flowdex.NewNode("c", "c")

	merged := rerank([]flowdex.Node{a, b}, []flowdex.Node{a, c}, 0)
	require.Len(t, merged, 3)
	assert.Equal(t, a.ID, merged[0].ID, "a appears near the top of both result sets")
}

func TestEvaluationCarriesTheRightBranch(t *testing.T) {
	q := New("x")
	q.state = Retrieved
	eval := RetrieveDocuments(q)
	assert.Equal(t, EvalRetrieveDocuments, eval.Kind())
	assert.Equal(t, Retrieved, eval.Query().State())

	q.state = Answered
	eval = AnswerQuery(q)
	assert.Equal(t, EvalAnswerQuery, eval.Kind())
}

type fakeModel struct{}

func (fakeModel) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type fakeIndex struct {
	docs []flowdex.Node
}

func (f fakeIndex) SearchVector(ctx context.Context, vector []float32, k int) ([]flowdex.Node, error) {
	return f.docs, nil
}
