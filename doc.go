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

// Package rules provides declarative, registry-driven validation for Go structs.
//
// Rules are registered against types at startup, either fluently or from a
// YAML/JSON document, and evaluated later against object graphs. Validation
// order is registration order, results are deterministic, and the outcome is
// a structured tree of property errors rather than a flat message list.
//
// # Getting Started
//
// Register rules with the fluent builder, then validate with the
// package-level [Validate] function:
//
//	type User struct {
//		Email string `json:"email"`
//		Age   int    `json:"age"`
//	}
//
//	rules.For[User]().
//		Field("Email", rules.Required(), rules.HasFormat(rules.FormatEmail)).
//		Field("Age", rules.Min(18))
//
//	if err := rules.Validate(ctx, User{Email: "invalid", Age: 15}); err != nil {
//		var verr *rules.Error
//		if errors.As(err, &verr) {
//			for _, f := range verr.Flatten() {
//				fmt.Printf("%s: %s\n", f.Path, f.Message)
//			}
//		}
//	}
//
// For isolated state, create your own [Registry] and [Validator]:
//
//	reg := rules.NewRegistry()
//	reg.For(User{}).Field("Email", rules.Required())
//
//	validator := rules.MustNew(rules.WithRegistry(reg))
//	err := validator.Validate(ctx, user)
//
// # Groups and Partial Validation
//
// Rules can belong to named groups, selected per call with [WithGroups]:
//
//	rules.For[User]().
//		Field("Password", rules.MinLength(12, rules.Groups("create")))
//
//	err := validator.Validate(ctx, user, rules.WithGroups("create"))
//
// For PATCH requests where only some fields arrive, combine [WithSkipMissing]
// with a [PresenceMap] built from the raw request body:
//
//	presence, _ := rules.ComputePresence(rawJSON)
//	err := validator.Validate(ctx, patch,
//		rules.WithSkipMissing(true),
//		rules.WithPresence(presence),
//	)
//
// Rules marked [Always] run even for missing fields.
//
// # Collections and Nested Objects
//
// [Each] applies a rule to every element of a slice, array, or map, and
// [Nested] recurses into struct fields using their own registered rules:
//
//	rules.For[Order]().
//		Field("Quantities", rules.Min(1, rules.Each())).
//		Field("Items", rules.Nested(rules.Each())).
//		Field("Address", rules.Nested())
//
// Element violations carry their position in the violation key, such as
// "min[2]" for the third slice element.
//
// # Custom Constraints
//
// Register reusable constraints in a [Catalog] and reference them by name.
// A constraint returning (false, nil) records a violation; returning an
// error aborts the whole run as a configuration fault:
//
//	rules.RegisterConstraint("username_free", rules.AsyncConstraintFunc(
//		func(ctx context.Context, in rules.Input) *rules.Outcome {
//			return rules.GoOutcome(func() (bool, error) {
//				s, ok := in.Value.(string)
//				if !ok {
//					return false, nil
//				}
//				return store.UsernameFree(ctx, s)
//			})
//		},
//	))
//
//	rules.For[User]().Field("Username", rules.Custom("username_free"))
//
// Asynchronous constraints run concurrently within a validation pass; their
// violations still report in registration order.
//
// # Rule Documents
//
// Rules can live outside the binary in YAML or JSON, loaded with
// [LoadRuleSet] and applied with [RuleSet.Apply]:
//
//	rs, err := rules.LoadRuleSet(file)
//	if err != nil {
//		return err
//	}
//	err = rs.Apply(reg, map[string]any{"User": User{}})
//
// # Thread Safety
//
// [Registry], [Catalog], and [Validator] are safe for concurrent use.
// Registration is typically done at startup, but concurrent registration and
// validation are also safe.
//
// # Security
//
// The package includes protections against:
//
//   - Stack overflow from deeply nested or cyclic structures (max depth: 100)
//   - Sensitive data exposure in error trees (redaction via [WithRedactor])
//   - Regular expression and schema recompilation on hot paths (process-wide caches)
package rules
