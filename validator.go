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
	"reflect"
)

// Validator evaluates registered rules against object graphs. A Validator is
// immutable after construction and safe for concurrent use; per-call options
// layer on top of its configuration without mutating it.
//
// Example:
//
//	v, err := rules.New(
//		rules.WithGroups("create"),
//		rules.WithSkipMissing(true),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := v.Validate(ctx, user); err != nil {
//		var verr *rules.Error
//		if errors.As(err, &verr) {
//			for _, f := range verr.Flatten() {
//				fmt.Println(f.Path, f.Message)
//			}
//		}
//	}
type Validator struct {
	cfg *config
}

// New creates a [Validator] with the given options.
//
// Without [WithRegistry] and [WithCatalog] the validator resolves rules from
// the process-wide default registry and constraints from the default catalog.
//
// Example:
//
//	v, err := rules.New(
//		rules.WithRegistry(reg),
//		rules.WithStopAtFirstError(true),
//	)
func New(opts ...Option) (*Validator, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Validator{cfg: cfg}, nil
}

// MustNew creates a [Validator] and panics if the configuration is invalid.
// Intended for package-level construction where options are static.
//
// Example:
//
//	var v = rules.MustNew(rules.WithSkipMissing(true))
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("rules.MustNew: %v", err))
	}

	return v
}

// Validate evaluates subject against its registered rules and returns nil
// when everything passes, a [*Error] carrying the violation tree when rules
// fail, or a configuration fault (such as [ErrUnknownConstraint]) when the
// run cannot proceed.
//
// Subject must be a struct or a non-nil pointer to one. Per-call options
// apply for this run only.
//
// Example:
//
//	if err := v.Validate(ctx, order, rules.WithGroups("update")); err != nil {
//		return err
//	}
func (v *Validator) Validate(ctx context.Context, subject any, opts ...Option) error {
	cfg := applyOptions(v.cfg, opts...)

	return validateWithConfig(ctx, cfg, subject)
}

// ValidateAsync starts [Validator.Validate] on its own goroutine and returns
// a [*Future] resolving to its result. The caller decides when to block:
//
//	future := v.ValidateAsync(ctx, user)
//	// ... other work ...
//	if err := future.Await(); err != nil {
//		return err
//	}
func (v *Validator) ValidateAsync(ctx context.Context, subject any, opts ...Option) *Future {
	cfg := applyOptions(v.cfg, opts...)
	f := newFuture()

	go func() {
		f.complete(validateWithConfig(ctx, cfg, subject))
	}()

	return f
}

// validateWithConfig runs one validation pass with a fully resolved
// configuration.
func validateWithConfig(ctx context.Context, cfg *config, subject any) error {
	if subject == nil {
		return fmt.Errorf("%w: subject", ErrNilValue)
	}

	rv := reflect.ValueOf(subject)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return fmt.Errorf("%w: subject", ErrNilValue)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrNotStruct, subject)
	}

	registry := cfg.registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	catalog := cfg.catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	e := &executor{cfg: cfg, registry: registry, catalog: catalog}
	props, err := e.validateStruct(ctx, rv, "", 0)
	if err != nil {
		return err
	}
	if len(props) == 0 {
		return nil
	}

	return &Error{Properties: props}
}
