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

import "errors"

var (
	// errEmptyName is returned when a stage is added with an empty name.
	errEmptyName = errors.New("flowdex: stage name cannot be empty")
	// errNoLoader is returned when Run is called before a loader is set.
	errNoLoader = errors.New("flowdex: pipeline has no loader")
	// errNoSink is returned when Run is called without any persister configured.
	errNoSink = errors.New("flowdex: pipeline has no terminal sink")
	// errTerminalPipeline is returned when a non-sink stage is appended after
	// a terminal sink has already been added.
	errTerminalPipeline = errors.New("flowdex: cannot extend a pipeline past its terminal sink")
	// errSetupFailed wraps a Persister.Setup error, always fatal.
	errSetupFailed = errors.New("flowdex: persister setup failed")
	// errPipelineClosed is returned by operations invoked after Run has returned.
	errPipelineClosed = errors.New("flowdex: pipeline already run")
	// errStrictAbort is returned by Run under ErrorModeStrict when any item errors.
	errStrictAbort = errors.New("flowdex: aborted on first error (strict mode)")
	// errCancelled is returned when Run is cancelled via context before completion.
	errCancelled = errors.New("flowdex: run cancelled")
)

// ErrNodeNotFound is returned by a Persister's lookup method (where one is
// exposed beyond the Store/BatchStore contract) when no Node exists for
// the requested key.
var ErrNodeNotFound = errors.New("flowdex: node not found")

// FatalPipelineError wraps an error that escalates the pipeline's lifecycle
// state to Failed: cancellation, persister setup failure, or the first error
// surfaced under strict error mode (§7).
type FatalPipelineError struct {
	Stage string
	Err   error
}

func (e *FatalPipelineError) Error() string {
	if e.Stage == "" {
		return "flowdex: fatal pipeline error: " + e.Err.Error()
	}
	return "flowdex: fatal pipeline error in stage " + e.Stage + ": " + e.Err.Error()
}

func (e *FatalPipelineError) Unwrap() error { return e.Err }

// StageError is the common shape for LoaderError, TransformError,
// ChunkerError, BatchError, CacheError and PersistError (§7). The Kind
// field distinguishes them for callers inspecting a tap record.
type StageError struct {
	Kind  string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return "flowdex: " + e.Kind + " in stage " + e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

func newStageError(kind, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Kind: kind, Stage: stage, Err: err}
}
