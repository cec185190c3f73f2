// Package leveldb provides a durable NodeCache backed by goleveldb,
// adapted from the teacher's store/leveldb package (leveldb.go): same
// Init/Open/Close shape and Get/Set/Range primitives, generalized from a
// generic Store.Process sink to the NodeCache contract (§4.2 "NodeCache").
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

	"github.com/brunotm/flowdex"
	ldb "github.com/syndtr/goleveldb/leveldb"
	ldbopt "github.com/syndtr/goleveldb/leveldb/opt"
)

var (
	dopt *ldbopt.Options
	wopt *ldbopt.WriteOptions
	ropt *ldbopt.ReadOptions
)

// Cache is a durable, on-disk NodeCache.
type Cache struct {
	ns   string
	path string
	db   *ldb.DB
}

var _ flowdex.NodeCache = (*Cache)(nil)

// Open opens (or creates) the leveldb database at path. ns namespaces every
// key (§6 "Cache interface").
func Open(path, ns string) (*Cache, error) {
	db, err := ldb.OpenFile(path, dopt)
	if err != nil {
		return nil, err
	}
	return &Cache{ns: ns, path: path, db: db}, nil
}

// Close releases the database's resources.
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
	_, err := c.db.Get(c.key(node), ropt)
	if err == ldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Set marks node as seen.
func (c *Cache) Set(ctx context.Context, node flowdex.Node) error {
	return c.db.Put(c.key(node), []byte{1}, wopt)
}
