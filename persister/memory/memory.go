// Package memory provides an in-process Persister backed by couchbase/moss,
// following the same collection lifecycle as the teacher's store/moss
// package (moss.go) but implementing the Persister half of the contract
// (§4.2 "Persister") instead of a generic byte Store.
package memory

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
	"github.com/couchbase/moss"
)

var (
	ropts = moss.ReadOptions{}
	wopts = moss.WriteOptions{}
)

// Persister is an in-memory Persister. Nothing survives process restart;
// use persister/leveldb for a durable sink.
type Persister struct {
	batchSize int
	db        moss.Collection
}

var _ flowdex.Persister = (*Persister)(nil)

// New creates a Persister, deferring the collection start to Setup.
func New(batchSize int) *Persister {
	return &Persister{batchSize: batchSize}
}

// Setup starts the backing collection.
func (p *Persister) Setup(ctx context.Context) error {
	db, err := moss.NewCollection(moss.DefaultCollectionOptions)
	if err != nil {
		return err
	}
	if err := db.Start(); err != nil {
		return err
	}
	p.db = db
	return nil
}

// Close releases the collection's resources.
func (p *Persister) Close() error {
	err := p.db.Close()
	p.db = nil
	return err
}

// BatchSize reports the configured hint.
func (p *Persister) BatchSize() int { return p.batchSize }

// Store writes a single Node, keyed by its ID.
func (p *Persister) Store(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	value, err := flowdex.EncodeNode(node)
	if err != nil {
		return flowdex.Node{}, err
	}

	batch, err := p.db.NewBatch(1, len(value))
	if err != nil {
		return flowdex.Node{}, err
	}
	defer batch.Close()

	if err := batch.Set(flowdex.EncodeKey(node.ID), value); err != nil {
		return flowdex.Node{}, err
	}
	if err := p.db.ExecuteBatch(batch, wopts); err != nil {
		return flowdex.Node{}, err
	}
	return node, nil
}

// BatchStore writes every Node in nodes via a single moss batch.
func (p *Persister) BatchStore(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error) {
	batch, err := p.db.NewBatch(len(nodes), 0)
	if err != nil {
		return flowdex.Stream{}, err
	}
	defer batch.Close()

	items := make([]flowdex.Result[flowdex.Node], len(nodes))
	for i, node := range nodes {
		value, err := flowdex.EncodeNode(node)
		if err != nil {
			items[i] = flowdex.Err[flowdex.Node](err)
			continue
		}
		if err := batch.Set(flowdex.EncodeKey(node.ID), value); err != nil {
			items[i] = flowdex.Err[flowdex.Node](err)
			continue
		}
		items[i] = flowdex.Ok(node)
	}

	if err := p.db.ExecuteBatch(batch, wopts); err != nil {
		return flowdex.Stream{}, err
	}

	return flowdex.FromSlice(ctx, items), nil
}

// Get retrieves a previously stored Node by ID.
func (p *Persister) Get(id uint64) (flowdex.Node, error) {
	value, err := p.db.Get(flowdex.EncodeKey(id), ropts)
	if err != nil {
		return flowdex.Node{}, err
	}
	if value == nil {
		return flowdex.Node{}, flowdex.ErrNodeNotFound
	}
	return flowdex.DecodeNode(value)
}
