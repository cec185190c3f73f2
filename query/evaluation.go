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

// EvaluationKind discriminates the two branches an evaluator can produce
// (§4.5 "QueryEvaluation").
type EvaluationKind uint8

const (
	EvalRetrieveDocuments EvaluationKind = iota
	EvalAnswerQuery
)

// Evaluation is the QueryEvaluation sum type: a retrieval pipeline's
// output branches into either a Retrieved Query awaiting judgement on its
// documents, or an Answered Query awaiting judgement on its final
// response. Go has no enum-with-payload; Kind plus the relevant accessor
// stand in for the two-armed match the spec describes.
type Evaluation struct {
	kind  EvaluationKind
	query Query
}

// RetrieveDocuments wraps a Retrieved Query as the "judge the retrieved
// set" branch.
func RetrieveDocuments(q Query) Evaluation {
	return Evaluation{kind: EvalRetrieveDocuments, query: q}
}

// AnswerQuery wraps an Answered Query as the "judge the final answer"
// branch.
func AnswerQuery(q Query) Evaluation {
	return Evaluation{kind: EvalAnswerQuery, query: q}
}

// Kind reports which branch this Evaluation carries.
func (e Evaluation) Kind() EvaluationKind { return e.kind }

// Query returns the wrapped Query regardless of branch; callers switch on
// Kind first to know which fields (Documents vs. Response) are meaningful.
func (e Evaluation) Query() Query { return e.query }
