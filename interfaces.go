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

import "context"

// Input is everything a constraint sees when evaluating one value.
type Input struct {
	// Value is the field value under validation. Pointers are dereferenced;
	// a nil pointer arrives as a typed nil.
	Value any

	// Subject is the enclosing object the field belongs to.
	Subject any

	// Field is the Go field name the rule is attached to.
	Field string

	// Path is the dot path of the field from the validation root
	// (e.g., "items.2.price"), using JSON field names.
	Path string

	// Index is the element index when the rule runs per element
	// ([Options.Each]), -1 otherwise. Map elements report -1; their key
	// appears in the violation key instead.
	Index int

	// Params are the descriptor's kind-specific arguments.
	Params Params

	// Context is the caller data attached via the Context rule option.
	Context any
}

// Constraint evaluates one value against one rule.
//
// Evaluate returns (false, nil) to record a violation. A non-nil error is a
// configuration fault — bad params, an unreachable dependency — and aborts
// the whole validation run without producing a violation tree.
//
// Constraints must be safe for concurrent use: one instance serves every
// validation run.
//
// Example:
//
//	type evenConstraint struct{}
//
//	func (evenConstraint) Evaluate(_ context.Context, in rules.Input) (bool, error) {
//	    n, ok := in.Value.(int)
//	    return ok && n%2 == 0, nil
//	}
type Constraint interface {
	Evaluate(ctx context.Context, in Input) (bool, error)
}

// AsyncConstraint is a [Constraint] that can evaluate without blocking the
// validation walk. The executor schedules every EvaluateAsync call it
// encounters, keeps walking, and awaits all outcomes before assembling the
// violation tree; completion order never changes violation order.
//
// EvaluateAsync must return promptly. Use [GoOutcome] to run the check in its
// own goroutine, or [ResolvedOutcome] when the result is already known.
type AsyncConstraint interface {
	Constraint
	EvaluateAsync(ctx context.Context, in Input) *Outcome
}

// DefaultMessager lets a constraint provide its violation message when the
// descriptor has no message override. Constraints without it fall back to a
// generic "failed validation (<rule>)" message.
type DefaultMessager interface {
	DefaultMessage(in Input) string
}

// ConstraintFunc adapts a plain function to the [Constraint] interface.
//
// Example:
//
//	rules.RegisterConstraint("even", rules.ConstraintFunc(
//	    func(_ context.Context, in rules.Input) (bool, error) {
//	        n, ok := in.Value.(int)
//	        return ok && n%2 == 0, nil
//	    },
//	))
type ConstraintFunc func(ctx context.Context, in Input) (bool, error)

// Evaluate implements [Constraint].
func (f ConstraintFunc) Evaluate(ctx context.Context, in Input) (bool, error) {
	return f(ctx, in)
}

// AsyncConstraintFunc adapts a plain function to the [AsyncConstraint]
// interface. The synchronous [Constraint.Evaluate] path awaits the outcome.
type AsyncConstraintFunc func(ctx context.Context, in Input) *Outcome

// EvaluateAsync implements [AsyncConstraint].
func (f AsyncConstraintFunc) EvaluateAsync(ctx context.Context, in Input) *Outcome {
	return f(ctx, in)
}

// Evaluate implements [Constraint] by awaiting the asynchronous outcome.
func (f AsyncConstraintFunc) Evaluate(ctx context.Context, in Input) (bool, error) {
	return f(ctx, in).Await(ctx)
}
