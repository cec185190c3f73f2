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
	"errors"
	"sort"

	"github.com/dgryski/go-jump"

	"github.com/brunotm/flowdex"
	"github.com/brunotm/flowdex/embed"
)

// ErrNoRoute is returned by RoutedRetriever.Retrieve when no strategy is
// registered. The target is chosen by hashing the query text, not by a
// strategy name carried on the Query, so there is no per-name miss.
var ErrNoRoute = errors.New("query: no route registered for strategy name")

// VectorIndex is the minimal store-side contract a SearchStrategy needs:
// top-k lookup over a dense vector and, where supported, a sparse one.
// Concrete Persister packages (cache/leveldb's siblings in persister/...)
// may additionally implement this to serve as a retriever's backing
// store.
type VectorIndex interface {
	SearchVector(ctx context.Context, vector []float32, k int) ([]flowdex.Node, error)
}

// SparseVectorIndex additionally supports sparse top-n lookup, used by
// HybridSearch's reranking leg.
type SparseVectorIndex interface {
	VectorIndex
	SearchSparse(ctx context.Context, sparse flowdex.SparseEmbedding, n int) ([]flowdex.Node, error)
}

// SimilaritySingleEmbedding retrieves the top-k documents by dense cosine
// similarity over a single query embedding (§4.6 "SimilaritySingleEmbedding
// (top-k over a single dense vector)").
type SimilaritySingleEmbedding struct {
	Model embed.Model
	Index VectorIndex
	TopK  int
}

var _ Retriever = SimilaritySingleEmbedding{}

func (s SimilaritySingleEmbedding) Retrieve(ctx context.Context, q Query) (Query, error) {
	vector, err := s.Model.Embed(ctx, q.Transformed)
	if err != nil {
		return Query{}, err
	}
	k := s.TopK
	if k <= 0 {
		k = 10
	}
	docs, err := s.Index.SearchVector(ctx, vector, k)
	if err != nil {
		return Query{}, err
	}
	q.Documents = docs
	return q, nil
}

// HybridSearch retrieves the union of a dense top-k set and a sparse
// top-n set, reranked by combined score and truncated to TopK (§4.6
// "HybridSearch (top-k dense + top-n sparse reranked)").
type HybridSearch struct {
	DenseModel  embed.Model
	SparseModel embed.SparseModel
	Index       SparseVectorIndex
	DenseK      int
	SparseN     int
	TopK        int
}

var _ Retriever = HybridSearch{}

func (h HybridSearch) Retrieve(ctx context.Context, q Query) (Query, error) {
	denseK, sparseN := h.DenseK, h.SparseN
	if denseK <= 0 {
		denseK = 10
	}
	if sparseN <= 0 {
		sparseN = 10
	}

	vector, err := h.DenseModel.Embed(ctx, q.Transformed)
	if err != nil {
		return Query{}, err
	}
	dense, err := h.Index.SearchVector(ctx, vector, denseK)
	if err != nil {
		return Query{}, err
	}

	sparse, err := h.SparseModel.EmbedSparse(ctx, q.Transformed)
	if err != nil {
		return Query{}, err
	}
	lexical, err := h.Index.SearchSparse(ctx, sparse, sparseN)
	if err != nil {
		return Query{}, err
	}

	q.Documents = rerank(dense, lexical, h.TopK)
	return q, nil
}

// rerank merges dense and lexical result sets by reciprocal rank fusion,
// deduplicating on Node.ID, and truncates to topK (0 means "no limit").
func rerank(dense, lexical []flowdex.Node, topK int) []flowdex.Node {
	scores := make(map[uint64]float64)
	nodes := make(map[uint64]flowdex.Node)
	const k = 60.0

	for rank, n := range dense {
		scores[n.ID] += 1.0 / (k + float64(rank+1))
		nodes[n.ID] = n
	}
	for rank, n := range lexical {
		scores[n.ID] += 1.0 / (k + float64(rank+1))
		nodes[n.ID] = n
	}

	ids := make([]uint64, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return scores[ids[i]] > scores[ids[j]] })

	if topK > 0 && len(ids) > topK {
		ids = ids[:topK]
	}
	out := make([]flowdex.Node, len(ids))
	for i, id := range ids {
		out[i] = nodes[id]
	}
	return out
}

// QueryBuilder produces a store-specific query value from a Query, the Go
// stand-in for the original's generic CustomQuery<B> builder parameter.
type QueryBuilder[B any] func(q Query) (B, error)

// CustomQueryRunner executes a store-specific query built by QueryBuilder
// and returns the matching documents — implemented by a store package
// whose native query shape a built-in strategy can't express (§4.6
// "CustomQuery<B> (store-specific query builder handed to the
// retriever)").
type CustomQueryRunner[B any] interface {
	RunQuery(ctx context.Context, query B) ([]flowdex.Node, error)
}

// CustomQuery adapts a QueryBuilder and a CustomQueryRunner into a
// Retriever.
type CustomQuery[B any] struct {
	Build  QueryBuilder[B]
	Runner CustomQueryRunner[B]
}

func (c CustomQuery[B]) Retrieve(ctx context.Context, q Query) (Query, error) {
	built, err := c.Build(q)
	if err != nil {
		return Query{}, err
	}
	docs, err := c.Runner.RunQuery(ctx, built)
	if err != nil {
		return Query{}, err
	}
	q.Documents = docs
	return q, nil
}

// RoutedRetriever dispatches to one of several named strategies, picking
// the target by jump-hashing (dgryski/go-jump) the Query's Original text
// over the sorted registered names, so repeated queries for the same text
// land on the same strategy while the name set is unchanged. Registering
// a new name can move existing texts to a different strategy.
type RoutedRetriever struct {
	names      []string
	strategies map[string]Retriever
}

var _ Retriever = (*RoutedRetriever)(nil)

// NewRoutedRetriever creates an empty RoutedRetriever; register strategies
// with Register before use.
func NewRoutedRetriever() *RoutedRetriever {
	return &RoutedRetriever{strategies: make(map[string]Retriever)}
}

// Register adds or replaces the strategy served under name.
func (r *RoutedRetriever) Register(name string, strategy Retriever) *RoutedRetriever {
	if _, exists := r.strategies[name]; !exists {
		r.names = append(r.names, name)
	}
	r.strategies[name] = strategy
	return r
}

// RouteFor reports which registered name a given key (e.g. a tenant ID or
// the query text itself) hashes to, without performing a retrieval.
// Returns false if no strategy is registered.
func (r *RoutedRetriever) RouteFor(key string) (string, bool) {
	if len(r.names) == 0 {
		return "", false
	}
	sorted := append([]string(nil), r.names...)
	sort.Strings(sorted)
	idx := jump.Hash(flowdex.NewNode(key, "").ComputeID(), int32(len(sorted)))
	return sorted[idx], true
}

// Retrieve routes q to the strategy its Original text hashes to and
// forwards the call, failing with ErrNoRoute when nothing is registered.
func (r *RoutedRetriever) Retrieve(ctx context.Context, q Query) (Query, error) {
	name, ok := r.RouteFor(q.Original)
	if !ok {
		return Query{}, ErrNoRoute
	}
	strategy, ok := r.strategies[name]
	if !ok {
		return Query{}, ErrNoRoute
	}
	return strategy.Retrieve(ctx, q)
}
