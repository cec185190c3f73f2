// Package query implements the retrieval-side pipeline: a Query carries a
// state tag through TransformQuery/Retrieve/TransformResponse/Answer
// stages, mirroring the indexing side's Stream/Pipeline shape (root
// package) over query.Query instead of flowdex.Node.
//
// Go has no trait-bound session types, so the state tag is a runtime
// field checked at the start of every stage method rather than a
// compile-time type parameter; see DESIGN.md's flowdex/query section.
package query

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
	"errors"

	"github.com/brunotm/flowdex"
)

// State is a Query's position in the Pending → Retrieved → Answered
// transition (§4.5 "Query state machine").
type State uint8

const (
	Pending State = iota
	Retrieved
	Answered
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Retrieved:
		return "retrieved"
	case Answered:
		return "answered"
	}
	return "unknown"
}

// errWrongState is returned when a stage is invoked on a Query whose
// State doesn't match what that stage requires.
var errWrongState = errors.New("query: stage invoked on a Query in the wrong state")

// Query is the unit of work flowing through a retrieval pipeline.
// Original is set once at construction and never changes, regardless of
// state (§4.5 invariant); Transformed is the current query text fed to
// Retrieve; Documents and Response are populated once the Query reaches
// the Retrieved and Answered states respectively.
type Query struct {
	state State

	Original    string
	Transformed string
	Documents   []flowdex.Node
	Response    string
}

// New creates a Pending Query from raw user input.
func New(text string) Query {
	return Query{state: Pending, Original: text, Transformed: text}
}

// State returns the Query's current state tag.
func (q Query) State() State { return q.state }

// TransformQuery rewrites a Pending Query's text, remaining Pending
// (§4.5 "TransformQuery: Pending → Pending").
type TransformQuery interface {
	TransformQuery(ctx context.Context, q Query) (Query, error)
}

// TransformQueryFunc adapts a function to a TransformQuery.
type TransformQueryFunc func(ctx context.Context, q Query) (Query, error)

func (f TransformQueryFunc) TransformQuery(ctx context.Context, q Query) (Query, error) {
	return f(ctx, q)
}

// ApplyTransformQuery runs t against q, enforcing the Pending → Pending
// transition.
func ApplyTransformQuery(ctx context.Context, t TransformQuery, q Query) (Query, error) {
	if q.state != Pending {
		return Query{}, errWrongState
	}
	out, err := t.TransformQuery(ctx, q)
	if err != nil {
		return Query{}, err
	}
	out.state = Pending
	out.Original = q.Original
	return out, nil
}

// Retriever advances a Pending Query to Retrieved by attaching the
// documents a SearchStrategy selects (§4.5 "Retrieve: Pending →
// Retrieved").
type Retriever interface {
	Retrieve(ctx context.Context, q Query) (Query, error)
}

// ApplyRetrieve runs r against q, enforcing the Pending → Retrieved
// transition.
func ApplyRetrieve(ctx context.Context, r Retriever, q Query) (Query, error) {
	if q.state != Pending {
		return Query{}, errWrongState
	}
	out, err := r.Retrieve(ctx, q)
	if err != nil {
		return Query{}, err
	}
	out.state = Retrieved
	out.Original = q.Original
	return out, nil
}

// TransformResponse rewrites a Retrieved Query's documents or text,
// remaining Retrieved (§4.5 "TransformResponse: Retrieved → Retrieved").
type TransformResponse interface {
	TransformResponse(ctx context.Context, q Query) (Query, error)
}

// TransformResponseFunc adapts a function to a TransformResponse.
type TransformResponseFunc func(ctx context.Context, q Query) (Query, error)

func (f TransformResponseFunc) TransformResponse(ctx context.Context, q Query) (Query, error) {
	return f(ctx, q)
}

// ApplyTransformResponse runs t against q, enforcing the Retrieved →
// Retrieved transition.
func ApplyTransformResponse(ctx context.Context, t TransformResponse, q Query) (Query, error) {
	if q.state != Retrieved {
		return Query{}, errWrongState
	}
	out, err := t.TransformResponse(ctx, q)
	if err != nil {
		return Query{}, err
	}
	out.state = Retrieved
	out.Original = q.Original
	return out, nil
}

// Answerer advances a Retrieved Query to Answered by producing the final
// Response (§4.5 "Answer: Retrieved → Answered").
type Answerer interface {
	Answer(ctx context.Context, q Query) (Query, error)
}

// AnswererFunc adapts a function to an Answerer.
type AnswererFunc func(ctx context.Context, q Query) (Query, error)

func (f AnswererFunc) Answer(ctx context.Context, q Query) (Query, error) {
	return f(ctx, q)
}

// ApplyAnswer runs a against q, enforcing the Retrieved → Answered
// transition.
func ApplyAnswer(ctx context.Context, a Answerer, q Query) (Query, error) {
	if q.state != Retrieved {
		return Query{}, errWrongState
	}
	out, err := a.Answer(ctx, q)
	if err != nil {
		return Query{}, err
	}
	out.state = Answered
	out.Original = q.Original
	return out, nil
}
