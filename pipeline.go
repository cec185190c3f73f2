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

import (
	"runtime"
	"time"

	"github.com/brunotm/flowdex/log"
)

// ErrorMode selects how the engine reacts to in-band Err items (§4.4
// "Error policy").
type ErrorMode uint8

const (
	// ErrorModeLenient logs errors and keeps draining the stream (default).
	ErrorModeLenient = ErrorMode(0)
	// ErrorModeStrict aborts the stream on the first error, dropping
	// remaining in-flight items.
	ErrorModeStrict = ErrorMode(1)
)

// stage is one non-terminal step of the pipeline's configured chain.
type stage struct {
	kind        StageKind
	name        string
	transformer Transformer
	batch       BatchTransformer
	chunker     Chunker
	cache       NodeCache
	cacheNS     string
	tap         func(Result[Node])
	concurrency int // 0 means "use pipeline default"
	batchSize   int // 0 means "use pipeline default"
}

// sink is one terminal Persister the stream fans out to.
type sink struct {
	name      string
	persister Persister
	batchSize int
}

// Pipeline is a typed fluent composition of stages into a single
// executable stream graph (§4.3 "Pipeline builder"). Build one with
// NewPipeline, extend it with the chained methods, terminate it with one
// or more ThenStoreWith calls, and execute it with Run.
type Pipeline struct {
	name string

	loader Loader
	stages []stage
	sinks  []sink

	concurrency      int
	defaultBatchSize int
	errorMode        ErrorMode
	closeTimeout     time.Duration

	terminal bool
	err      error
	state    uint32

	logger log.Logger
}

// NewPipeline creates a Pipeline with the given name and sensible
// defaults: concurrency equal to the number of logical CPUs, lenient
// error mode, and a 10 second close timeout — mirroring the teacher's own
// DefaultInitialScale/DefaultCloseTimeout constants (builder.go),
// generalized from "per source" scale to "per stage concurrency".
func NewPipeline(name string) *Pipeline {
	p := &Pipeline{
		name:         name,
		concurrency:  runtime.NumCPU(),
		errorMode:    ErrorModeLenient,
		closeTimeout: 10 * time.Second,
		logger:       log.New("pipeline", name),
	}
	if name == "" {
		p.err = errEmptyName
	}
	return p
}

// FromLoader initializes the stream from the given Loader (§4.3
// "from_loader").
func (p *Pipeline) FromLoader(l Loader) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.terminal {
		p.err = errTerminalPipeline
		return p
	}
	p.loader = l
	return p
}

// FilterCached inserts a cache gate: Nodes for which cache.Get returns true
// are dropped (counted as skipped); survivors are marked via cache.Set
// before being forwarded (§4.3 "filter_cached", §4.4 "Cache gate"). ns
// namespaces the cache key per §6 "Cache interface"; pass "" for none.
func (p *Pipeline) FilterCached(cache NodeCache, ns string) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.terminal {
		p.err = errTerminalPipeline
		return p
	}
	p.stages = append(p.stages, stage{kind: KindCacheGate, name: "cache_gate", cache: cache, cacheNS: ns})
	return p
}

// Then maps every Node through t.TransformNode, with concurrency equal to
// the pipeline default unless overridden per-stage (§4.3 "then").
func (p *Pipeline) Then(name string, t Transformer) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.terminal {
		p.err = errTerminalPipeline
		return p
	}
	if name == "" {
		p.err = errEmptyName
		return p
	}
	p.stages = append(p.stages, stage{kind: KindTransform, name: name, transformer: t})
	return p
}

// ThenInBatch groups Nodes into batches of b.BatchSize() (or the pipeline
// default when it declares none) and dispatches each batch through
// b.BatchTransform (§4.3 "then_in_batch").
func (p *Pipeline) ThenInBatch(name string, b BatchTransformer) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.terminal {
		p.err = errTerminalPipeline
		return p
	}
	if name == "" {
		p.err = errEmptyName
		return p
	}
	p.stages = append(p.stages, stage{kind: KindBatchTransform, name: name, batch: b})
	return p
}

// ThenChunk replaces each Node by the children c.TransformNode emits
// (§4.3 "then_chunk").
func (p *Pipeline) ThenChunk(name string, c Chunker) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.terminal {
		p.err = errTerminalPipeline
		return p
	}
	if name == "" {
		p.err = errEmptyName
		return p
	}
	p.stages = append(p.stages, stage{kind: KindChunk, name: name, chunker: c})
	return p
}

// ThenStoreWith routes Nodes to persister in single or batched mode,
// depending on persister.BatchSize(). It does not call persister.Setup();
// Run calls Setup once for every added persister before the loader
// starts. Subsequent calls duplicate the stream (fan-out) so
// each persister receives every Node (§4.3 "then_store_with"). Once any
// sink is added the pipeline becomes terminal: further non-sink calls are
// rejected at construction time.
func (p *Pipeline) ThenStoreWith(name string, persister Persister) *Pipeline {
	if p.err != nil {
		return p
	}
	if name == "" {
		p.err = errEmptyName
		return p
	}
	p.sinks = append(p.sinks, sink{name: name, persister: persister})
	p.terminal = true
	return p
}

// WithConcurrency sets the default per-stage concurrency applied to Then,
// ThenInBatch and ThenChunk stages that don't specify their own (§4.3
// "with_concurrency").
func (p *Pipeline) WithConcurrency(n int) *Pipeline {
	if p.err != nil {
		return p
	}
	if n > 0 {
		p.concurrency = n
	}
	return p
}

// WithDefaultBatchSize overrides the batch size used by batch stages that
// declare none of their own (§4.3 "with_default_batch_size").
func (p *Pipeline) WithDefaultBatchSize(n int) *Pipeline {
	if p.err != nil {
		return p
	}
	p.defaultBatchSize = n
	return p
}

// WithErrorMode selects lenient (default) or strict error handling
// (§4.4 "Error policy").
func (p *Pipeline) WithErrorMode(mode ErrorMode) *Pipeline {
	if p.err != nil {
		return p
	}
	p.errorMode = mode
	return p
}

// WithCloseTimeout records d as the pipeline's close timeout. Run does not
// read it: cancellation does not wait for in-flight cache Set calls, and
// sink drains are not bounded by it.
func (p *Pipeline) WithCloseTimeout(d time.Duration) *Pipeline {
	if p.err != nil {
		return p
	}
	p.closeTimeout = d
	return p
}

// LogNodes inserts a non-mutating tap that logs every successful Node
// (§4.3 "log_nodes").
func (p *Pipeline) LogNodes() *Pipeline {
	return p.tap("log_nodes", func(r Result[Node]) {
		if !r.IsErr() {
			n, _ := r.Value()
			p.logger.Infow("node", "id", n.ID, "path", n.Path)
		}
	})
}

// LogErrors inserts a non-mutating tap that logs every error item
// (§4.3 "log_errors").
func (p *Pipeline) LogErrors() *Pipeline {
	return p.tap("log_errors", func(r Result[Node]) {
		if r.IsErr() {
			p.logger.Errorw("stream error", "error", r.Error())
		}
	})
}

// LogAll inserts a non-mutating tap that logs every item, success or
// error (§4.3 "log_all").
func (p *Pipeline) LogAll() *Pipeline {
	return p.tap("log_all", func(r Result[Node]) {
		if r.IsErr() {
			p.logger.Errorw("stream error", "error", r.Error())
			return
		}
		n, _ := r.Value()
		p.logger.Infow("node", "id", n.ID, "path", n.Path)
	})
}

func (p *Pipeline) tap(name string, fn func(Result[Node])) *Pipeline {
	if p.err != nil {
		return p
	}
	if p.terminal {
		p.err = errTerminalPipeline
		return p
	}
	p.stages = append(p.stages, stage{kind: KindTap, name: name, tap: fn})
	return p
}
