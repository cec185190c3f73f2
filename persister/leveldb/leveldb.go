// Package leveldb provides a durable Persister backed by goleveldb, the
// other half of the job the teacher's store/leveldb package (leveldb.go)
// did: Init/Close/Get/Set/Range generalized from a generic Store.Process
// sink to the Setup/Store/BatchStore Persister contract (§4.2 "Persister").
package leveldb

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
	"os"

	"github.com/brunotm/flowdex"
	ldb "github.com/syndtr/goleveldb/leveldb"
	ldbopt "github.com/syndtr/goleveldb/leveldb/opt"
	ldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

var (
	dopt *ldbopt.Options
	wopt *ldbopt.WriteOptions
	ropt *ldbopt.ReadOptions
)

// Persister writes Nodes to an on-disk leveldb database, keyed by Node.ID.
type Persister struct {
	path      string
	batchSize int
	db        *ldb.DB
}

var _ flowdex.Persister = (*Persister)(nil)

// New creates a Persister rooted at path, deferring the actual database
// open to Setup so it honors the engine's "Setup exactly once before any
// Store/BatchStore call" contract (§4.3 "then_store_with"). batchSize <= 0
// means "use the pipeline default".
func New(path string, batchSize int) *Persister {
	return &Persister{path: path, batchSize: batchSize}
}

// Setup opens the database, creating path if it doesn't exist.
func (p *Persister) Setup(ctx context.Context) error {
	db, err := ldb.OpenFile(p.path, dopt)
	if err != nil {
		return err
	}
	p.db = db
	return nil
}

// Close releases the database's resources.
func (p *Persister) Close() error {
	err := p.db.Close()
	p.db = nil
	return err
}

// Remove closes the persister and erases its on-disk contents.
func (p *Persister) Remove() error {
	if err := p.Close(); err != nil {
		return err
	}
	return os.RemoveAll(p.path)
}

// BatchSize reports the configured hint.
func (p *Persister) BatchSize() int { return p.batchSize }

// Store writes a single Node, keyed by its ID.
func (p *Persister) Store(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	value, err := flowdex.EncodeNode(node)
	if err != nil {
		return flowdex.Node{}, err
	}
	if err := p.db.Put(flowdex.EncodeKey(node.ID), value, wopt); err != nil {
		return flowdex.Node{}, err
	}
	return node, nil
}

// BatchStore writes every Node in nodes via a single leveldb batch.
func (p *Persister) BatchStore(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error) {
	batch := new(ldb.Batch)
	items := make([]flowdex.Result[flowdex.Node], len(nodes))

	for i, node := range nodes {
		value, err := flowdex.EncodeNode(node)
		if err != nil {
			items[i] = flowdex.Err[flowdex.Node](err)
			continue
		}
		batch.Put(flowdex.EncodeKey(node.ID), value)
		items[i] = flowdex.Ok(node)
	}

	if err := p.db.Write(batch, wopt); err != nil {
		return flowdex.Stream{}, err
	}

	return flowdex.FromSlice(ctx, items), nil
}

// Get retrieves a previously stored Node by ID.
func (p *Persister) Get(id uint64) (flowdex.Node, error) {
	value, err := p.db.Get(flowdex.EncodeKey(id), ropt)
	if err == ldb.ErrNotFound {
		return flowdex.Node{}, flowdex.ErrNodeNotFound
	}
	if err != nil {
		return flowdex.Node{}, err
	}
	return flowdex.DecodeNode(value)
}

// Range iterates every stored Node in ID order, invoking cb for each.
// Returning a non-nil error from cb stops the iteration.
func (p *Persister) Range(cb func(flowdex.Node) error) error {
	iter := p.db.NewIterator(&ldbutil.Range{}, ropt)
	defer iter.Release()

	for iter.Next() {
		node, err := flowdex.DecodeNode(iter.Value())
		if err != nil {
			return err
		}
		if err := cb(node); err != nil {
			return err
		}
	}
	return iter.Error()
}
