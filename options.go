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
	"errors"
	"slices"
)

// defaultMaxDepth bounds nested validation recursion. Override per validator
// or per call with [WithMaxDepth].
const defaultMaxDepth = 100

// redactedValue replaces field values hidden by a [Redactor].
const redactedValue = "***REDACTED***"

// Redactor decides whether the value at a dot path should be hidden in the
// violation tree. Configure one with [WithRedactor].
//
// Example:
//
//	redactor := func(path string) bool {
//	    return strings.Contains(path, "password") || strings.Contains(path, "token")
//	}
type Redactor func(path string) bool

// RuleOption is a per-rule modifier, accepted by every rule constructor
// ([Required], [Min], [Custom], ...). It fills the descriptor's [Options].
type RuleOption func(*Options)

// Message overrides the constraint's default violation message for this rule.
//
// Example:
//
//	rules.Min(18, rules.Message("must be an adult"))
func Message(message string) RuleOption {
	return func(o *Options) {
		o.Message = message
	}
}

// Groups restricts the rule to the named validation groups.
// See [Options.Groups] for the filter semantics.
//
// Example:
//
//	rules.Required(rules.Groups("create"))
func Groups(groups ...string) RuleOption {
	return func(o *Options) {
		o.Groups = append(o.Groups, groups...)
	}
}

// Each applies the rule to every element of a slice, array, or map value.
//
// Example:
//
//	rules.Min(0, rules.Each()) // every element must be >= 0
func Each() RuleOption {
	return func(o *Options) {
		o.Each = true
	}
}

// Always runs the rule even when skip-missing mode would drop it for a
// missing field. It does not bypass the group filter.
func Always() RuleOption {
	return func(o *Options) {
		o.Always = true
	}
}

// Context attaches caller data to every violation this rule produces.
//
// Example:
//
//	rules.Required(rules.Context(map[string]any{"doc": "https://..."}))
func Context(context any) RuleOption {
	return func(o *Options) {
		o.Context = context
	}
}

// When skips the rule when the predicate, given the enclosing object,
// returns false.
//
// Example:
//
//	rules.Required(rules.When(func(subject any) bool {
//	    return subject.(*Order).Express
//	}))
func When(predicate func(subject any) bool) RuleOption {
	return func(o *Options) {
		o.When = predicate
	}
}

// WhenExpr skips the rule when the expr-lang expression evaluates to false.
// The expression sees the same environment as [ExprParams].
//
// Example:
//
//	rules.Required(rules.WhenExpr(`self.Express`))
func WhenExpr(source string) RuleOption {
	return func(o *Options) {
		o.WhenExpr = source
	}
}

// applyRuleOptions folds rule options into a descriptor's [Options].
func applyRuleOptions(opts []RuleOption) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// config holds internal validation configuration used by [Validator].
type config struct {
	groups      []string
	skipMissing bool
	stopFirst   bool
	maxDepth    int // 0 means use default (100)
	presence    PresenceMap
	redactor    Redactor
	registry    *Registry
	catalog     *Catalog
}

// validate checks the configuration for errors.
func (c *config) validate() error {
	if c.maxDepth < 0 {
		return errors.New("maxDepth must be non-negative")
	}

	return nil
}

// clone creates a copy of the config for per-call option merging.
func (c *config) clone() *config {
	clone := *c
	if c.groups != nil {
		clone.groups = slices.Clone(c.groups)
	}

	return &clone
}

// newConfig creates a new validation config with defaults.
func newConfig() *config {
	return &config{}
}

// Option is a functional option for configuring validation.
// Options can be passed to [New], [MustNew], [Validate], or
// [Validator.Validate].
type Option func(*config)

// WithGroups sets the validation groups for the run. Rules restricted to
// groups run only when at least one of their groups is named here; naming no
// groups runs everything.
//
// Example:
//
//	err := rules.Validate(ctx, &user, rules.WithGroups("create"))
func WithGroups(groups ...string) Option {
	return func(c *config) {
		c.groups = append(c.groups, groups...)
	}
}

// WithSkipMissing skips rules on missing fields. A field is missing when the
// [PresenceMap] (if supplied) does not contain its path, or otherwise when
// its value is a nil pointer, interface, map, slice, or function. Rules
// marked [Always] still run.
//
// Example:
//
//	err := rules.Validate(ctx, &patch, rules.WithSkipMissing(true), rules.WithPresence(pm))
func WithSkipMissing(skip bool) Option {
	return func(c *config) {
		c.skipMissing = skip
	}
}

// WithStopAtFirstError stops validation at the first violation in rule
// registration order; the returned [*Error] contains exactly that violation.
// Asynchronous evaluations already in flight run to completion.
func WithStopAtFirstError(stop bool) Option {
	return func(c *config) {
		c.stopFirst = stop
	}
}

// WithMaxDepth sets the nested-validation recursion limit.
// Set to 0 to use the default (100). Exceeding the limit is an
// [ErrMaxDepthExceeded] fault.
func WithMaxDepth(maxDepth int) Option {
	return func(c *config) {
		c.maxDepth = maxDepth
	}
}

// WithPresence sets the [PresenceMap] consulted by missing-field checks.
// Use [ComputePresence] to build one from raw JSON.
//
// Example:
//
//	pm, _ := rules.ComputePresence(rawJSON)
//	err := rules.Validate(ctx, &patch, rules.WithPresence(pm), rules.WithSkipMissing(true))
func WithPresence(presence PresenceMap) Option {
	return func(c *config) {
		c.presence = presence
	}
}

// WithRedactor sets a [Redactor] that hides sensitive field values in the
// violation tree.
func WithRedactor(redactor Redactor) Option {
	return func(c *config) {
		c.redactor = redactor
	}
}

// WithRegistry validates against the given [Registry] instead of
// [DefaultRegistry].
func WithRegistry(registry *Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithCatalog resolves constraints against the given [Catalog] instead of
// [DefaultCatalog].
func WithCatalog(catalog *Catalog) Option {
	return func(c *config) {
		c.catalog = catalog
	}
}

// applyOptions applies options to a config, returning a new config.
// This is used for per-call options that override the validator's base config.
func applyOptions(base *config, opts ...Option) *config {
	if len(opts) == 0 {
		return base
	}
	cfg := base.clone()
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}
