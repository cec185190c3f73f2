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
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.md"), []byte("gamma"), 0o644))

	l := New(dir, true, ".md")
	stream, err := l.IntoStream(context.Background())
	require.NoError(t, err)

	var paths []string
	for r := range stream.Chan() {
		require.False(t, r.IsErr())
		n, _ := r.Value()
		paths = append(paths, filepath.Base(n.Path))
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"a.md", "c.md"}, paths)
}

func TestLoaderNonRecursiveSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("alpha"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.md"), []byte("gamma"), 0o644))

	l := New(dir, false, ".md")
	stream, err := l.IntoStream(context.Background())
	require.NoError(t, err)

	var count int
	for r := range stream.Chan() {
		require.False(t, r.IsErr())
		count++
	}
	assert.Equal(t, 1, count)
}

func TestLoaderMissingRootReturnsError(t *testing.T) {
	l := New("/does/not/exist", true)
	_, err := l.IntoStream(context.Background())
	assert.Error(t, err)
}
