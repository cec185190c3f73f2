// Package neo4j provides a flowdex.Persister backed by Neo4j, grounded on
// the sibling example repo's github.com/neo4j/neo4j-go-driver/v5
// dependency (survey-level, see DESIGN.md): one MERGE per Node keyed by
// ID, Path/Chunk/Metadata set as node properties.
package neo4j

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

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/brunotm/flowdex"
)

const mergeQuery = `
MERGE (n:Node {id: $id})
SET n.path = $path, n.chunk = $chunk, n.vector = $vector, n.metadata = $metadata
`

// Persister writes Nodes as `:Node` vertices, one MERGE per Node.
type Persister struct {
	uri, username, password, database string
	batchSize                         int

	driver neo4j.DriverWithContext
}

var _ flowdex.Persister = (*Persister)(nil)

// New creates a Persister targeting the given connection URI.
func New(uri, username, password, database string, batchSize int) *Persister {
	return &Persister{uri: uri, username: username, password: password, database: database, batchSize: batchSize}
}

// BatchSize reports the configured hint.
func (p *Persister) BatchSize() int { return p.batchSize }

// Setup opens the driver and verifies connectivity.
func (p *Persister) Setup(ctx context.Context) error {
	driver, err := neo4j.NewDriverWithContext(p.uri, neo4j.BasicAuth(p.username, p.password, ""))
	if err != nil {
		return err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return err
	}
	p.driver = driver
	return nil
}

// Close releases the driver's resources.
func (p *Persister) Close() error {
	return p.driver.Close(context.Background())
}

func nodeParams(node flowdex.Node) map[string]any {
	meta := make(map[string]any, node.Metadata.Len())
	for _, k := range node.Metadata.Keys() {
		v, _ := node.Metadata.Get(k)
		meta[k] = v
	}
	return map[string]any{
		"id":       int64(node.ID),
		"path":     node.Path,
		"chunk":    node.Chunk,
		"vector":   node.Vector,
		"metadata": meta,
	}
}

// Store merges a single Node vertex.
func (p *Persister) Store(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: p.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, mergeQuery, nodeParams(node))
	})
	if err != nil {
		return flowdex.Node{}, err
	}
	return node, nil
}

// BatchStore merges every Node vertex in a single write transaction.
func (p *Persister) BatchStore(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error) {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: p.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range nodes {
			if _, err := tx.Run(ctx, mergeQuery, nodeParams(node)); err != nil {
				return nil, err
			}
		}
		return nil, nil
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
