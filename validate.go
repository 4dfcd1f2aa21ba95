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
)

var (
	defaultValidator     *Validator
	defaultValidatorOnce sync.Once
)

// defaultValidatorInstance lazily builds the shared zero-option validator
// used by the package-level entry points.
func defaultValidatorInstance() *Validator {
	defaultValidatorOnce.Do(func() {
		defaultValidator = MustNew()
	})

	return defaultValidator
}

// Validate evaluates subject against the process-wide default registry and
// catalog. It is the one-liner for applications that register rules at init
// time and never need isolated registries.
//
// Example:
//
//	rules.Register(rules.Descriptor{
//		Owner:     reflect.TypeOf(User{}),
//		FieldName: "Email",
//		Kind:      rules.KindFormat,
//		Params:    rules.FormatParams{Format: rules.FormatEmail},
//	})
//
//	err := rules.Validate(ctx, User{Email: "nope"})
func Validate(ctx context.Context, subject any, opts ...Option) error {
	return defaultValidatorInstance().Validate(ctx, subject, opts...)
}

// ValidateAsync runs [Validate] on its own goroutine and returns a [*Future]
// resolving to its result.
func ValidateAsync(ctx context.Context, subject any, opts ...Option) *Future {
	return defaultValidatorInstance().ValidateAsync(ctx, subject, opts...)
}
