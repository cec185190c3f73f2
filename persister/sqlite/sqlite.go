// Package sqlite provides a flowdex.Persister backed by modernc.org/sqlite
// (a pure-Go, cgo-free sqlite driver), survey-level grounded on the
// sibling example repo's dependency on it (see DESIGN.md).
package sqlite

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
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/brunotm/flowdex"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id    INTEGER PRIMARY KEY,
	value BLOB NOT NULL
)
`

// Persister writes Nodes to a `nodes` table keyed by ID, the encoded
// value from flowdex.EncodeNode.
type Persister struct {
	path      string
	batchSize int
	db        *sql.DB
}

var _ flowdex.Persister = (*Persister)(nil)

// New creates a Persister backed by the sqlite file at path (use
// ":memory:" for an ephemeral database).
func New(path string, batchSize int) *Persister {
	return &Persister{path: path, batchSize: batchSize}
}

// BatchSize reports the configured hint.
func (p *Persister) BatchSize() int { return p.batchSize }

// Setup opens the database and creates the nodes table if missing.
func (p *Persister) Setup(ctx context.Context) error {
	db, err := sql.Open("sqlite", p.path)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return err
	}
	p.db = db
	return nil
}

// Close releases the database connection.
func (p *Persister) Close() error {
	return p.db.Close()
}

// Store upserts a single Node row.
func (p *Persister) Store(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	value, err := flowdex.EncodeNode(node)
	if err != nil {
		return flowdex.Node{}, err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO nodes (id, value) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET value = excluded.value`,
		int64(node.ID), value)
	if err != nil {
		return flowdex.Node{}, err
	}
	return node, nil
}

// BatchStore upserts every Node row inside a single transaction.
func (p *Persister) BatchStore(ctx context.Context, nodes []flowdex.Node) (flowdex.Stream, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return flowdex.Stream{}, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (id, value) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET value = excluded.value`)
	if err != nil {
		tx.Rollback()
		return flowdex.Stream{}, err
	}
	defer stmt.Close()

	items := make([]flowdex.Result[flowdex.Node], len(nodes))
	for i, node := range nodes {
		value, err := flowdex.EncodeNode(node)
		if err != nil {
			tx.Rollback()
			return flowdex.Stream{}, err
		}
		if _, err := stmt.ExecContext(ctx, int64(node.ID), value); err != nil {
			tx.Rollback()
			return flowdex.Stream{}, err
		}
		items[i] = flowdex.Ok(node)
	}

	if err := tx.Commit(); err != nil {
		return flowdex.Stream{}, err
	}

	return flowdex.FromSlice(ctx, items), nil
}

// Get retrieves a previously stored Node by ID.
func (p *Persister) Get(id uint64) (flowdex.Node, error) {
	var value []byte
	err := p.db.QueryRow(`SELECT value FROM nodes WHERE id = ?`, int64(id)).Scan(&value)
	if err == sql.ErrNoRows {
		return flowdex.Node{}, flowdex.ErrNodeNotFound
	}
	if err != nil {
		return flowdex.Node{}, err
	}
	return flowdex.DecodeNode(value)
}
