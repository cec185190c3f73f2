// Package filesystem provides a flowdex.Loader that walks a directory
// tree and emits one Node per matching file, grounded on spec §6
// "filesystem walker (extension filter, recursive)"; built in the idiom
// of the teacher's processor/source/http package (a Supplier-style
// Config struct plus a worker goroutine feeding a channel), generalized
// from an HTTP listener to a directory walk.
package filesystem

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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/brunotm/flowdex"
	"github.com/brunotm/flowdex/log"
)

// Loader walks Root (descending into subdirectories only when Recursive is
// set) and emits a Node per regular file whose
// extension is in Extensions (case-sensitive, include the leading dot).
// An empty Extensions matches every file.
type Loader struct {
	Root       string
	Extensions []string
	Recursive  bool

	logger log.Logger
}

var _ flowdex.Loader = (*Loader)(nil)

// New creates a filesystem Loader rooted at root.
func New(root string, recursive bool, extensions ...string) *Loader {
	return &Loader{
		Root:       root,
		Extensions: extensions,
		Recursive:  recursive,
		logger:     log.New("loader", "filesystem", "root", root),
	}
}

func (l *Loader) matches(path string) bool {
	if len(l.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range l.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// IntoStream walks Root in a dedicated goroutine, emitting one Node per
// matching file. Only a failure to stat Root (for example, Root does not
// exist) is returned directly; every error met during the walk, including
// failure to read the root directory itself, is emitted as a stream item
// (§4.2 "Loader").
func (l *Loader) IntoStream(ctx context.Context) (flowdex.Stream, error) {
	if _, err := os.Stat(l.Root); err != nil {
		return flowdex.Stream{}, err
	}

	ch := make(chan flowdex.Result[flowdex.Node], flowdex.DefaultBufferSize)

	go func() {
		defer close(ch)

		walk := func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				select {
				case ch <- flowdex.Err[flowdex.Node](err):
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}

			if d.IsDir() {
				if !l.Recursive && path != l.Root {
					return filepath.SkipDir
				}
				return nil
			}

			if !l.matches(path) {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				select {
				case ch <- flowdex.Err[flowdex.Node](err):
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}

			node := flowdex.NewNode(path, string(content))
			select {
			case ch <- flowdex.Ok(node):
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}

		if err := filepath.WalkDir(l.Root, walk); err != nil {
			l.logger.Errorw("walk aborted", "error", err)
		}
	}()

	return flowdex.FromChannel(ctx, ch), nil
}
