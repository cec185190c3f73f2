// Package prompt declares the model interfaces the query pipeline's
// TransformQuery/Answer stages consume (§6 "Model interfaces
// (consumed)").
package prompt

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

import "context"

// Simple renders a single prompt into a single completion string, used by
// lightweight query-rewrite stages.
type Simple interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Message is one turn in a ChatCompletion exchange.
type Message struct {
	Role    string
	Content string
}

// ChatCompletion renders a multi-turn exchange into a reply, used by the
// query pipeline's Answer stage (§4.5 "Answered").
type ChatCompletion interface {
	Chat(ctx context.Context, messages []Message) (Message, error)
}

// Structured renders a prompt into a value validated against a JSON
// schema, used when a caller needs a typed answer instead of free text.
type Structured[T any] interface {
	CompleteStructured(ctx context.Context, prompt string, schema []byte) (T, error)
}
