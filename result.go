package flowdex

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

// Result carries either a successful value or an error through a Stream,
// letting errors travel in-band alongside successes without terminating
// the stream (§3 "Stream item").
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure. The stage that produced err is not retained here;
// callers that need stage provenance should wrap err with *StageError
// before calling Err.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsErr reports whether this Result carries an error.
func (r Result[T]) IsErr() bool { return r.err != nil }

// Error returns the carried error, or nil for a successful Result.
func (r Result[T]) Error() error { return r.err }

// Value returns the carried value and whether it is valid (i.e. this
// Result is not an error).
func (r Result[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// Must returns the carried value, panicking if this Result is an error.
// Reserved for call sites that have already checked IsErr.
func (r Result[T]) Must() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}
