// Package qdrant provides a flowdex.Persister backed by Qdrant, grounded
// on the sibling example repo's github.com/qdrant/go-client dependency
// (survey-level, see DESIGN.md): gRPC collections/points clients, ensure
// collection on Setup, upsert on Store/BatchStore.
package qdrant

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
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/brunotm/flowdex"
)

// Persister writes Nodes as points in a Qdrant collection, one point per
// Node keyed by its ID, payload carrying Path/Chunk/Metadata.
type Persister struct {
	addr       string
	collection string
	vectorSize uint64
	batchSize  int

	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
}

var _ flowdex.Persister = (*Persister)(nil)

// New creates a Persister targeting addr (host:port), creating collection
// on Setup if it doesn't already exist, with dense vectors of vectorSize.
func New(addr, collection string, vectorSize uint64, batchSize int) *Persister {
	return &Persister{addr: addr, collection: collection, vectorSize: vectorSize, batchSize: batchSize}
}

// BatchSize reports the configured hint.
func (p *Persister) BatchSize() int { return p.batchSize }

// Setup dials the Qdrant gRPC endpoint and ensures the target collection
// exists, creating it with cosine-distance dense vectors if not.
func (p *Persister) Setup(ctx context.Context) error {
	conn, err := grpc.NewClient(p.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	p.conn = conn
	p.points = qdrant.NewPointsClient(conn)
	p.collections = qdrant.NewCollectionsClient(conn)

	exists, err := p.collections.CollectionExists(ctx, &qdrant.CollectionExistsRequest{
		CollectionName: p.collection,
	})
	if err != nil {
		return err
	}
	if exists.GetResult().GetExists() {
		return nil
	}

	_, err = p.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: p.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     p.vectorSize,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	return err
}

// Close releases the underlying gRPC connection.
func (p *Persister) Close() error {
	return p.conn.Close()
}

func toPoint(node flowdex.Node) *qdrant.PointStruct {
	payload := map[string]*qdrant.Value{
		"path":  {Kind: &qdrant.Value_StringValue{StringValue: node.Path}},
		"chunk": {Kind: &qdrant.Value_StringValue{StringValue: node.Chunk}},
	}
	for _, k := range node.Metadata.Keys() {
		v, _ := node.Metadata.Get(k)
		payload["meta_"+k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: toString(v)}}
	}

	return &qdrant.PointStruct{
		Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: node.ID}},
		Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: node.Vector}}},
		Payload: payload,
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Store upserts a single Node as a point.
func (p *Persister) Store(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	_, err := p.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: p.collection,
		Points:         []*qdrant.PointStruct{toPoint(node)},
	})
	if err != nil {
		return flowdex.Node{}, err
	}
	return node, nil
}

// BatchStore upserts every Node in nodes in a single request.
func (p *Persister) BatchStore(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error) {
	points := make([]*qdrant.PointStruct, len(nodes))
	for i, n := range nodes {
		points[i] = toPoint(n)
	}

	_, err := p.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: p.collection,
		Points:         points,
	})
	if err != nil {
		return flowdex.Stream{}, err
	}

	items := make([]flowdex.Result[flowdex.Node], len(nodes))
	for i, n := range nodes {
		items[i] = flowdex.Ok(n)
	}
	return flowdex.FromSlice(ctx, items), nil
}
