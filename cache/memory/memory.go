// Package memory provides an in-process NodeCache backed by couchbase/moss,
// adapted from the teacher's store/moss package (moss.go): same collection
// lifecycle (Init/Close), same batch-write shape, generalized from a
// generic byte-oriented key/value Store.Process sink to the single
// Get/Set contract NodeCache requires (§4.2 "NodeCache").
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

// Cache is an in-memory NodeCache. Nothing survives process restart; use
// cache/leveldb for a durable gate.
type Cache struct {
	ns string
	db moss.Collection
}

var _ flowdex.NodeCache = (*Cache)(nil)

// New creates and starts a Cache backed by its own new moss collection.
// ns prefixes every key (§6 "Cache interface").
func New(ns string) (*Cache, error) {
	db, err := moss.NewCollection(moss.DefaultCollectionOptions)
	if err != nil {
		return nil, err
	}
	if err := db.Start(); err != nil {
		return nil, err
	}
	return &Cache{ns: ns, db: db}, nil
}

// Close releases the collection's resources.
func (c *Cache) Close() error {
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Cache) key(node flowdex.Node) []byte {
	return append(append([]byte(c.ns), 0), flowdex.EncodeKey(node.ID)...)
}

// Get reports whether node was previously Set.
func (c *Cache) Get(ctx context.Context, node flowdex.Node) (bool, error) {
	value, err := c.db.Get(c.key(node), ropts)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// Set marks node as seen.
func (c *Cache) Set(ctx context.Context, node flowdex.Node) error {
	batch, err := c.db.NewBatch(1, 8)
	if err != nil {
		return err
	}
	defer batch.Close()

	if err := batch.Set(c.key(node), []byte{1}); err != nil {
		return err
	}
	return c.db.ExecuteBatch(batch, wopts)
}
