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
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// programCache holds compiled expressions keyed by source. Programs are
// compiled once per process and shared across validators.
var programCache sync.Map // map[string]*vm.Program

// compiledProgram returns the compiled form of an expr-lang source,
// compiling and caching on first use. Compile errors are not cached.
func compiledProgram(source string) (*vm.Program, error) {
	if cached, ok := programCache.Load(source); ok {
		if prog, progOk := cached.(*vm.Program); progOk {
			return prog, nil
		}
	}

	prog, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		return nil, err
	}

	actual, loaded := programCache.LoadOrStore(source, prog)
	if loaded {
		if cached, ok := actual.(*vm.Program); ok {
			return cached, nil
		}
	}

	return prog, nil
}

// exprEnv builds the expression environment for one evaluation.
func exprEnv(in Input) map[string]any {
	return map[string]any{
		"value": in.Value,
		"self":  in.Subject,
		"field": in.Field,
		"index": in.Index,
	}
}

// evalExprBool compiles (cached) and runs a boolean expression against env.
// Compile and runtime errors both surface as [ErrBadParams] faults: an
// expression that cannot run is a configuration problem, not a violation.
func evalExprBool(source string, env map[string]any) (bool, error) {
	prog, err := compiledProgram(source)
	if err != nil {
		return false, fmt.Errorf("%w: expr %q: %w", ErrBadParams, source, err)
	}

	out, err := expr.Run(prog, env)
	if err != nil {
		return false, fmt.Errorf("%w: expr %q: %w", ErrBadParams, source, err)
	}

	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expr %q evaluated to %T, want bool", ErrBadParams, source, out)
	}

	return b, nil
}

// exprConstraint evaluates [KindExpr]: the expression must evaluate to true.
// See [ExprParams] for the environment.
type exprConstraint struct{}

func (exprConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	p, ok := in.Params.(ExprParams)
	if !ok {
		return false, wrongParams(in, "ExprParams")
	}
	if p.Source == "" {
		return false, fmt.Errorf("%w: field %q: empty expression", ErrBadParams, in.Field)
	}

	return evalExprBool(p.Source, exprEnv(in))
}

func (exprConstraint) DefaultMessage(in Input) string {
	p, _ := in.Params.(ExprParams)

	return fmt.Sprintf("must satisfy %q", p.Source)
}
