// Package metadata provides Transformers that enrich a Node's Metadata,
// grounded on spec §3 "Metadata embeddability": the projection a Node
// exposes to an embedding model is derived from Metadata in iteration
// order, so stages that set Metadata run before any embedding stage.
package metadata

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
	"path/filepath"

	"github.com/brunotm/flowdex"
)

// Static sets a fixed set of key/value pairs on every Node that passes
// through, useful for tagging a whole loader run with a source label.
type Static struct {
	Values map[string]any
	// Keys fixes iteration order for Values; entries not listed here
	// are appended in map iteration order (unspecified) after them.
	Keys []string
}

var _ flowdex.Transformer = Static{}

// TransformNode sets every configured key/value pair on node.Metadata.
func (s Static) TransformNode(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	for _, k := range s.Keys {
		if v, ok := s.Values[k]; ok {
			node.Metadata.Set(k, v)
		}
	}
	for k, v := range s.Values {
		if !contains(s.Keys, k) {
			node.Metadata.Set(k, v)
		}
	}
	return node, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// PathInfo derives "extension" and "filename" Metadata entries from
// node.Path, the kind of ambient enrichment a filesystem loader commonly
// needs before chunking or embedding.
type PathInfo struct{}

var _ flowdex.Transformer = PathInfo{}

// TransformNode sets "extension" and "filename" from node.Path.
func (PathInfo) TransformNode(ctx context.Context, node flowdex.Node) (flowdex.Node, error) {
	node.Metadata.Set("filename", filepath.Base(node.Path))
	node.Metadata.Set("extension", filepath.Ext(node.Path))
	return node, nil
}
