// Package copilot adapts github.com/github/copilot-sdk/go into the
// prompt.ChatCompletion contract, survey-level grounded on the dependency
// as pulled in by the sibling example repo that wired it for its own chat
// abstraction (see DESIGN.md).
package copilot

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

	copilotsdk "github.com/github/copilot-sdk/go"

	"github.com/brunotm/flowdex/prompt"
)

// Client adapts a copilot-sdk client to prompt.ChatCompletion.
type Client struct {
	sdk   *copilotsdk.Client
	model string
}

var _ prompt.ChatCompletion = (*Client)(nil)

// New creates a Client authenticated with token, targeting model.
func New(token, model string) (*Client, error) {
	sdk, err := copilotsdk.NewClient(copilotsdk.WithToken(token))
	if err != nil {
		return nil, err
	}
	return &Client{sdk: sdk, model: model}, nil
}

// Chat sends messages to the configured model and returns its reply.
func (c *Client) Chat(ctx context.Context, messages []prompt.Message) (prompt.Message, error) {
	req := copilotsdk.ChatRequest{Model: c.model}
	for _, m := range messages {
		req.Messages = append(req.Messages, copilotsdk.ChatMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.sdk.Chat(ctx, req)
	if err != nil {
		return prompt.Message{}, err
	}
	if len(resp.Choices) == 0 {
		return prompt.Message{}, nil
	}

	return prompt.Message{
		Role:    resp.Choices[0].Message.Role,
		Content: resp.Choices[0].Message.Content,
	}, nil
}
