package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowdex"
)

func TestStaticSetsValuesInDeclaredKeyOrder(t *testing.T) {
	node := flowdex.NewNode("a.md", "hello")
	s := Static{
		Keys:   []string{"source", "lang"},
		Values: map[string]any{"source": "crawler", "lang": "en", "team": "docs"},
	}

	out, err := s.TransformNode(context.Background(), node)
	require.NoError(t, err)

	keys := out.Metadata.Keys()
	require.GreaterOrEqual(t, len(keys), 2)
	assert.Equal(t, "source", keys[0])
	assert.Equal(t, "lang", keys[1])

	v, ok := out.Metadata.Get("team")
	assert.True(t, ok)
	assert.Equal(t, "docs", v)
}

func TestPathInfoDerivesFilenameAndExtension(t *testing.T) {
	node := flowdex.NewNode("docs/sub/readme.md", "hello")

	out, err := PathInfo{}.TransformNode(context.Background(), node)
	require.NoError(t, err)

	v, ok := out.Metadata.Get("filename")
	require.True(t, ok)
	assert.Equal(t, "readme.md", v)

	v, ok = out.Metadata.Get("extension")
	require.True(t, ok)
	assert.Equal(t, ".md", v)
}
