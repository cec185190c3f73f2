// Package agent is a thin tool-call transport for delegating a retrieval
// or indexing step to another agent process, explicitly out-of-core
// (§1 Non-goals-adjacent framing: "agent conversation loop and tool
// protocol" are not this module's job). It wraps a2a-go's wire types just
// enough to hand a Node off as a tool call and parse the reply;
// it does not implement a conversation loop, session state, or planning.
//
// Grounding for the a2a-go call shape is survey-level (see DESIGN.md):
// the dependency was observed in the sibling example repo's go.mod, not
// read from its full source, so the exact field names below are a
// best-effort reconstruction of the public A2A message/part shape.
package agent

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
	"encoding/json"
	"errors"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/brunotm/flowdex"
)

// errEmptyReply is returned when a delegate's response carries no parts.
var errEmptyReply = errors.New("agent: delegate returned an empty reply")

// ToolCall is a single outbound delegation: a named tool/skill and a JSON
// payload, modeled on the A2A task-part convention of carrying
// structured data alongside free text.
type ToolCall struct {
	Skill   string
	Payload json.RawMessage
}

// Delegate sends a ToolCall to another agent over A2A and returns its
// text reply. The transport itself (connection, auth, retries) is the
// caller's a2a.Client to configure; this function only shapes the
// message.
type Delegate interface {
	SendMessage(ctx context.Context, msg a2a.Message) (a2a.Message, error)
}

// NodeToolCall builds a ToolCall handing a Node's embeddable text and
// metadata to skill, the way a pipeline might delegate enrichment (e.g.
// summarization, classification) to an external agent mid-transform.
func NodeToolCall(skill string, node flowdex.Node) (ToolCall, error) {
	payload, err := json.Marshal(struct {
		Path     string         `json:"path"`
		Chunk    string         `json:"chunk"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}{
		Path:     node.Path,
		Chunk:    node.Chunk,
		Metadata: metadataMap(node),
	})
	if err != nil {
		return ToolCall{}, err
	}
	return ToolCall{Skill: skill, Payload: payload}, nil
}

func metadataMap(node flowdex.Node) map[string]any {
	keys := node.Metadata.Keys()
	if len(keys) == 0 {
		return nil
	}
	m := make(map[string]any, len(keys))
	for _, k := range keys {
		v, _ := node.Metadata.Get(k)
		m[k] = v
	}
	return m
}

// Call sends call to d as a single text part carrying its JSON payload
// and returns the first text part of the reply.
func Call(ctx context.Context, d Delegate, call ToolCall) (string, error) {
	msg := a2a.Message{
		Role: a2a.RoleUser,
		Parts: []a2a.Part{
			a2a.TextPart{Text: string(call.Payload)},
		},
	}

	reply, err := d.SendMessage(ctx, msg)
	if err != nil {
		return "", err
	}

	for _, part := range reply.Parts {
		if text, ok := part.(a2a.TextPart); ok {
			return text.Text, nil
		}
	}
	return "", errEmptyReply
}
