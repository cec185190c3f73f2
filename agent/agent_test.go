package agent

import (
	"context"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowdex"
)

type fakeDelegate struct {
	reply a2a.Message
	err   error
}

func (f fakeDelegate) SendMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
	return f.reply, f.err
}

func TestNodeToolCallCarriesPathChunkAndMetadata(t *testing.T) {
	node := flowdex.NewNode("docs/a.md", "hello world")
	node.Metadata.Set("lang", "en")

	call, err := NodeToolCall("summarize", node)
	require.NoError(t, err)
	assert.Equal(t, "summarize", call.Skill)
	assert.Contains(t, string(call.Payload), `"path":"docs/a.md"`)
	assert.Contains(t, string(call.Payload), `"lang":"en"`)
}

func TestCallReturnsFirstTextPart(t *testing.T) {
	d := fakeDelegate{reply: a2a.Message{
		Role:  a2a.RoleAgent,
		Parts: []a2a.Part{a2a.TextPart{Text: "a short summary"}},
	}}

	node := flowdex.NewNode("docs/a.md", "hello world")
	call, err := NodeToolCall("summarize", node)
	require.NoError(t, err)

	text, err := Call(context.Background(), d, call)
	require.NoError(t, err)
	assert.Equal(t, "a short summary", text)
}

func TestCallFailsOnEmptyReply(t *testing.T) {
	d := fakeDelegate{reply: a2a.Message{Role: a2a.RoleAgent}}
	_, err := Call(context.Background(), d, ToolCall{Skill: "x", Payload: []byte("{}")})
	assert.ErrorIs(t, err, errEmptyReply)
}
