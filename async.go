// Copyright 2026 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"context"
	"sync"
	"time"
)

// Outcome is the future result of one asynchronous constraint evaluation.
// It resolves exactly once; later resolutions are ignored.
type Outcome struct {
	ok   bool
	err  error
	once sync.Once
	done chan struct{}
}

// NewOutcome returns an unresolved [Outcome]. Resolve it with
// [Outcome.Resolve] when the check finishes.
func NewOutcome() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

// ResolvedOutcome returns an [Outcome] that is already resolved.
// Useful when an [AsyncConstraint] can answer immediately.
func ResolvedOutcome(ok bool, err error) *Outcome {
	o := NewOutcome()
	o.Resolve(ok, err)

	return o
}

// GoOutcome runs fn in its own goroutine and returns the [Outcome] it will
// resolve. This is the usual way to implement [AsyncConstraint]:
//
//	func (c remoteCheck) EvaluateAsync(ctx context.Context, in rules.Input) *rules.Outcome {
//	    return rules.GoOutcome(func() (bool, error) {
//	        return c.client.Exists(ctx, in.Value)
//	    })
//	}
func GoOutcome(fn func() (bool, error)) *Outcome {
	o := NewOutcome()
	go func() {
		o.Resolve(fn())
	}()

	return o
}

// Resolve records the evaluation result and releases all waiters.
// Only the first call has any effect.
func (o *Outcome) Resolve(ok bool, err error) {
	o.once.Do(func() {
		o.ok = ok
		o.err = err
		close(o.done)
	})
}

// Await blocks until the outcome resolves or the context is done.
// A context error is returned as a fault.
func (o *Outcome) Await(ctx context.Context) (bool, error) {
	select {
	case <-o.done:
		return o.ok, o.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// IsComplete reports whether the outcome has resolved without blocking.
func (o *Outcome) IsComplete() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Future is the pending result of a [ValidateAsync] run. It completes with
// the same error [Validate] would have returned: nil, an [*Error], or a
// configuration fault.
type Future struct {
	err  error
	once sync.Once
	done chan struct{}
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete records the run result and releases all waiters.
func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Await blocks until the validation run finishes and returns its result.
func (f *Future) Await() error {
	<-f.done

	return f.err
}

// AwaitWithTimeout blocks up to timeout for the run to finish.
// It returns [ErrAwaitTimeout] if the run is still going; the run itself
// keeps going and can be awaited again.
func (f *Future) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrAwaitTimeout
	}
}

// IsComplete reports whether the run has finished without blocking.
func (f *Future) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the run finishes. Useful in select
// loops alongside other channels.
func (f *Future) Done() <-chan struct{} {
	return f.done
}
