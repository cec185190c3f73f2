// Package structured adapts a prompt.ChatCompletion plus a JSON schema
// (validated with github.com/google/jsonschema-go) into a
// prompt.Structured[T], survey-level grounded on the same sibling repo
// that pulled in jsonschema-go for request/response validation (see
// DESIGN.md).
package structured

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
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/brunotm/flowdex/prompt"
)

// Completer renders a prompt into T, validating the model's raw JSON
// reply against schema before unmarshaling it.
type Completer[T any] struct {
	chat   prompt.ChatCompletion
	schema *jsonschema.Schema
}

var _ prompt.Structured[any] = (*Completer[any])(nil)

// New builds a Completer backed by chat, validating replies against the
// given raw JSON schema document.
func New[T any](chat prompt.ChatCompletion, rawSchema []byte) (*Completer[T], error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(rawSchema, &schema); err != nil {
		return nil, fmt.Errorf("structured: parsing schema: %w", err)
	}
	return &Completer[T]{chat: chat, schema: &schema}, nil
}

// CompleteStructured sends prompt to the model and decodes its reply into
// T after validating it against the configured schema.
func (c *Completer[T]) CompleteStructured(ctx context.Context, text string, rawSchema []byte) (T, error) {
	var zero T

	reply, err := c.chat.Chat(ctx, []prompt.Message{{Role: "user", Content: text}})
	if err != nil {
		return zero, err
	}

	var raw any
	if err := json.Unmarshal([]byte(reply.Content), &raw); err != nil {
		return zero, fmt.Errorf("structured: model reply is not valid JSON: %w", err)
	}

	resolved, err := c.schema.Resolve(nil)
	if err != nil {
		return zero, fmt.Errorf("structured: resolving schema: %w", err)
	}
	if err := resolved.Validate(raw); err != nil {
		return zero, fmt.Errorf("structured: reply failed schema validation: %w", err)
	}

	var value T
	if err := json.Unmarshal([]byte(reply.Content), &value); err != nil {
		return zero, err
	}
	return value, nil
}
