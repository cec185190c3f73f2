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
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brunotm/flowdex/metrics"
)

// LifecycleState is the pipeline's run state (§4.4 "State machine
// (pipeline lifecycle)"): Configuring → Ready → Running → Terminating →
// Done|Failed.
type LifecycleState uint8

func (s LifecycleState) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const (
	StateConfiguring = LifecycleState(0)
	StateReady       = LifecycleState(1)
	StateRunning     = LifecycleState(2)
	StateTerminating = LifecycleState(3)
	StateDone        = LifecycleState(4)
	StateFailed      = LifecycleState(5)
)

// Outcome aggregates the results of a pipeline run (§6 "Pipeline surface
// (exposed)"): success count, skipped count (cache hits), error count,
// elapsed time, and the fatal error that ended the run, if any.
type Outcome struct {
	Success int64
	Skipped int64
	Errors  int64
	Elapsed time.Duration
	Fatal   error
}

// State returns the pipeline's current lifecycle state. Safe for
// concurrent use.
func (p *Pipeline) State() LifecycleState {
	return LifecycleState(atomic.LoadUint32(&p.state))
}

func (p *Pipeline) setState(s LifecycleState) {
	atomic.StoreUint32(&p.state, uint32(s))
}

// Run executes the pipeline until the stream is exhausted or a fatal
// error occurs under strict mode, returning the aggregate Outcome
// (§4.3 "run()", §4.4 "Execution engine").
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	if p.err != nil {
		return Outcome{}, p.err
	}
	if p.loader == nil {
		return Outcome{}, errNoLoader
	}
	if len(p.sinks) == 0 {
		return Outcome{}, errNoSink
	}
	if p.State() != StateConfiguring && p.State() != StateReady {
		return Outcome{}, errPipelineClosed
	}

	p.setState(StateReady)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	p.setState(StateRunning)
	metrics.PipelinesRunning.WithLabelValues(p.name).Inc()
	defer metrics.PipelinesRunning.WithLabelValues(p.name).Dec()

	outcome := &Outcome{}

	for i := range p.sinks {
		if err := p.sinks[i].persister.Setup(runCtx); err != nil {
			p.setState(StateFailed)
			fatal := &FatalPipelineError{Stage: p.sinks[i].name, Err: fmt.Errorf("%w: %w", errSetupFailed, err)}
			return Outcome{Elapsed: time.Since(start), Fatal: fatal}, fatal
		}
	}

	src, err := p.loader.IntoStream(runCtx)
	if err != nil {
		p.setState(StateFailed)
		fatal := &FatalPipelineError{Stage: "loader", Err: err}
		return Outcome{Elapsed: time.Since(start), Fatal: fatal}, fatal
	}

	current := src
	for i := range p.stages {
		st := &p.stages[i]
		current = p.applyStage(runCtx, current, st, outcome, cancel)
	}

	p.setState(StateTerminating)
	fatalErr := p.fanOutToSinks(runCtx, current, outcome, cancel)

	outcome.Elapsed = time.Since(start)
	metrics.NodesProcessed.WithLabelValues(p.name, "success").Add(float64(outcome.Success))
	metrics.NodesProcessed.WithLabelValues(p.name, "skipped").Add(float64(outcome.Skipped))
	metrics.NodesProcessed.WithLabelValues(p.name, "error").Add(float64(outcome.Errors))

	if fatalErr != nil {
		p.setState(StateFailed)
		outcome.Fatal = fatalErr
		return *outcome, fatalErr
	}

	p.setState(StateDone)
	return *outcome, nil
}

// concurrencyFor resolves a stage's effective concurrency.
func (p *Pipeline) concurrencyFor(st *stage) int {
	if st.concurrency > 0 {
		return st.concurrency
	}
	return p.concurrency
}

// batchSizeFor resolves a batch stage's effective batch size
// (§4.3 "then_in_batch"/"with_default_batch_size").
func (p *Pipeline) batchSizeFor(declared int) int {
	if declared > 0 {
		return declared
	}
	if p.defaultBatchSize > 0 {
		return p.defaultBatchSize
	}
	return 1
}

func (p *Pipeline) applyStage(ctx context.Context, in Stream, st *stage, outcome *Outcome, cancel context.CancelFunc) Stream {
	switch st.kind {
	case KindTap:
		return in.Map(func(r Result[Node]) Result[Node] {
			st.tap(r)
			return r
		})

	case KindCacheGate:
		return p.applyCacheGate(ctx, in, st, outcome)

	case KindTransform:
		n := p.concurrencyFor(st)
		return in.BufferUnordered(n, func(node Node) Result[Node] {
			metrics.StageItems.WithLabelValues(p.name, st.name).Inc()
			result, err := st.transformer.TransformNode(ctx, node)
			if err != nil {
				return p.handleStageError(cancel, "TransformError", st.name, err)
			}
			return Ok(result)
		})

	case KindChunk:
		n := p.concurrencyFor(st)
		return p.applyChunk(ctx, in, st, n, cancel)

	case KindBatchTransform:
		return p.applyBatchTransform(ctx, in, st, cancel)
	}
	return in
}

func (p *Pipeline) applyCacheGate(ctx context.Context, in Stream, st *stage, outcome *Outcome) Stream {
	out := make(chan Result[Node], DefaultBufferSize)
	go func() {
		defer close(out)
		for item := range in.Chan() {
			if item.IsErr() {
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
				continue
			}

			node, _ := item.Value()
			key := node
			if st.cacheNS != "" {
				key.Path = st.cacheNS + ":" + key.Path
				key.ID = key.ComputeID()
			}

			seen, err := st.cache.Get(ctx, key)
			if err != nil {
				// CacheError is always non-fatal (§7); count it in
				// StageErrors and treat it as a miss so the Node is not
				// silently dropped.
				metrics.StageErrors.WithLabelValues(p.name, st.name).Inc()
				seen = false
			}

			if seen {
				atomic.AddInt64(&outcome.Skipped, 1)
				continue
			}

			// Fire-and-forget set BEFORE forwarding (§4.4 "Cache gate"):
			// forwarding does not wait for Set completion; Set failures are
			// counted in StageErrors, not fatal.
			go func(n Node) {
				if err := st.cache.Set(context.Background(), n); err != nil {
					metrics.StageErrors.WithLabelValues(p.name, st.name+"_set").Inc()
				}
			}(key)

			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return Stream{ctx: ctx, ch: out}
}

func (p *Pipeline) applyChunk(ctx context.Context, in Stream, st *stage, n int, cancel context.CancelFunc) Stream {
	out := make(chan Result[Node], DefaultBufferSize)
	sem := make(chan struct{}, n)
	var wg sync.WaitGroup

	go func() {
		defer func() {
			wg.Wait()
			close(out)
		}()

		for item := range in.Chan() {
			if item.IsErr() {
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
				continue
			}

			node, _ := item.Value()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			wg.Add(1)
			go func(node Node) {
				defer wg.Done()
				defer func() { <-sem }()

				children, err := st.chunker.TransformNode(ctx, node)
				if err != nil {
					res := p.handleStageError(cancel, "ChunkerError", st.name, err)
					select {
					case out <- res:
					case <-ctx.Done():
					}
					return
				}

				for child := range children.Chan() {
					select {
					case out <- child:
					case <-ctx.Done():
						return
					}
				}
			}(node)
		}
	}()

	return Stream{ctx: ctx, ch: out}
}

// batchGracePeriod bounds how long the engine waits for a partial batch to
// fill before dispatching it anyway, avoiding starvation when upstream
// stalls with fewer than k items (§4.4 "Batching").
const batchGracePeriod = 50 * time.Millisecond

func (p *Pipeline) applyBatchTransform(ctx context.Context, in Stream, st *stage, cancel context.CancelFunc) Stream {
	size := p.batchSizeFor(st.batch.BatchSize())
	out := make(chan Result[Node], DefaultBufferSize)

	go func() {
		defer close(out)

		buf := make([]Node, 0, size)
		timer := time.NewTimer(batchGracePeriod)
		if !timer.Stop() {
			<-timer.C
		}
		timerActive := false

		flush := func() bool {
			if len(buf) == 0 {
				return true
			}
			batch := buf
			buf = make([]Node, 0, size)
			metrics.StageBatchSize.WithLabelValues(p.name, st.name).Observe(float64(len(batch)))

			children, err := st.batch.BatchTransform(ctx, batch)
			if err != nil {
				res := p.handleStageError(cancel, "BatchError", st.name, err)
				select {
				case out <- res:
				case <-ctx.Done():
					return false
				}
				return true
			}

			for child := range children.Chan() {
				select {
				case out <- child:
				case <-ctx.Done():
					return false
				}
			}
			return true
		}

		ch := in.Chan()
		for {
			select {
			case item, ok := <-ch:
				if !ok {
					if timerActive && !timer.Stop() {
						<-timer.C
					}
					flush()
					return
				}

				if item.IsErr() {
					if !flush() {
						return
					}
					select {
					case out <- item:
					case <-ctx.Done():
						return
					}
					continue
				}

				node, _ := item.Value()
				buf = append(buf, node)

				if len(buf) >= size {
					if timerActive && !timer.Stop() {
						<-timer.C
					}
					timerActive = false
					if !flush() {
						return
					}
					continue
				}

				if !timerActive {
					timer.Reset(batchGracePeriod)
					timerActive = true
				}

			case <-timer.C:
				timerActive = false
				if !flush() {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return Stream{ctx: ctx, ch: out}
}

func (p *Pipeline) handleStageError(cancel context.CancelFunc, kind, stageName string, err error) Result[Node] {
	wrapped := newStageError(kind, stageName, err)
	metrics.StageErrors.WithLabelValues(p.name, stageName).Inc()
	if p.errorMode == ErrorModeStrict {
		cancel()
	}
	return Err[Node](wrapped)
}

// fanOutToSinks splits in across every configured Persister through its
// own bounded channel, so a slow sink back-pressures only its own branch
// (§4.4 "Fan-out for multiple persisters"). Returns the first fatal error
// encountered under strict mode, a FatalPipelineError wrapping
// errCancelled when the run's context was cancelled, or nil.
func (p *Pipeline) fanOutToSinks(ctx context.Context, in Stream, outcome *Outcome, cancel context.CancelFunc) error {
	n := len(p.sinks)

	branches := make([]chan Result[Node], n)
	for i := range branches {
		branches[i] = make(chan Result[Node], DefaultBufferSize)
	}

	go func() {
		defer func() {
			for _, b := range branches {
				close(b)
			}
		}()
		for item := range in.Chan() {
			for i := range branches {
				select {
				case branches[i] <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := range p.sinks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.drainSink(ctx, Stream{ctx: ctx, ch: branches[i]}, &p.sinks[i], outcome, cancel)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	if p.errorMode == ErrorModeStrict && ctx.Err() != nil {
		return &FatalPipelineError{Err: errStrictAbort}
	}
	if ctx.Err() != nil {
		return &FatalPipelineError{Err: errCancelled}
	}
	return nil
}

func (p *Pipeline) drainSink(ctx context.Context, in Stream, s *sink, outcome *Outcome, cancel context.CancelFunc) error {
	size := p.batchSizeFor(s.persister.BatchSize())

	if size <= 1 {
		return in.TryForEachConcurrent(p.concurrency, func(item Result[Node]) error {
			if item.IsErr() {
				atomic.AddInt64(&outcome.Errors, 1)
				if p.errorMode == ErrorModeStrict {
					cancel()
				}
				return nil
			}
			node, _ := item.Value()
			if _, err := s.persister.Store(ctx, node); err != nil {
				metrics.StageErrors.WithLabelValues(p.name, s.name).Inc()
				atomic.AddInt64(&outcome.Errors, 1)
				if p.errorMode == ErrorModeStrict {
					cancel()
					return &FatalPipelineError{Stage: s.name, Err: err}
				}
				return nil
			}
			atomic.AddInt64(&outcome.Success, 1)
			return nil
		})
	}

	for batch := range in.ReadyChunks(size) {
		if len(batch.Errs) > 0 {
			atomic.AddInt64(&outcome.Errors, int64(len(batch.Errs)))
			if p.errorMode == ErrorModeStrict {
				cancel()
			}
			continue
		}
		if len(batch.Nodes) == 0 {
			continue
		}

		results, err := s.persister.BatchStore(ctx, batch.Nodes)
		if err != nil {
			metrics.StageErrors.WithLabelValues(p.name, s.name).Inc()
			atomic.AddInt64(&outcome.Errors, int64(len(batch.Nodes)))
			if p.errorMode == ErrorModeStrict {
				cancel()
				return &FatalPipelineError{Stage: s.name, Err: err}
			}
			continue
		}

		for item := range results.Chan() {
			if item.IsErr() {
				atomic.AddInt64(&outcome.Errors, 1)
				if p.errorMode == ErrorModeStrict {
					cancel()
				}
				continue
			}
			atomic.AddInt64(&outcome.Success, 1)
		}
	}

	return nil
}
