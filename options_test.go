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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRuleOptions(t *testing.T) {
	t.Parallel()

	predicate := func(any) bool { return true }

	opts := applyRuleOptions([]RuleOption{
		Message("custom message"),
		Groups("create", "update"),
		Each(),
		Always(),
		Context(map[string]string{"doc": "x"}),
		When(predicate),
		WhenExpr("self.Active"),
	})

	assert.Equal(t, "custom message", opts.Message)
	assert.Equal(t, []string{"create", "update"}, opts.Groups)
	assert.True(t, opts.Each)
	assert.True(t, opts.Always)
	assert.Equal(t, map[string]string{"doc": "x"}, opts.Context)
	assert.NotNil(t, opts.When)
	assert.Equal(t, "self.Active", opts.WhenExpr)
}

func TestGroups_Appends(t *testing.T) {
	t.Parallel()

	opts := applyRuleOptions([]RuleOption{
		Groups("a"),
		Groups("b", "c"),
	})

	assert.Equal(t, []string{"a", "b", "c"}, opts.Groups)
}

func TestApplyOptions_LayersWithoutMutatingBase(t *testing.T) {
	t.Parallel()

	base := newConfig()
	WithGroups("base")(base)
	WithSkipMissing(true)(base)

	derived := applyOptions(base, WithGroups("extra"), WithStopAtFirstError(true))

	// The derived config sees the per-call overrides.
	assert.True(t, derived.stopFirst)
	assert.True(t, derived.skipMissing, "base settings carry over")

	// The base config is untouched.
	assert.False(t, base.stopFirst)
	assert.Equal(t, []string{"base"}, base.groups)
}

func TestConfigClone_GroupsIsolated(t *testing.T) {
	t.Parallel()

	base := newConfig()
	WithGroups("a", "b")(base)

	clone := base.clone()
	clone.groups[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, base.groups)
}

func TestNew_RejectsNegativeMaxDepth(t *testing.T) {
	t.Parallel()

	_, err := New(WithMaxDepth(-1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxDepth")

	assert.PanicsWithValue(t, "rules.MustNew: maxDepth must be non-negative", func() {
		MustNew(WithMaxDepth(-1))
	})
}

func TestOptions_SetConfigFields(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	cat := NewCatalog()
	pm := PresenceMap{"name": true}
	redactor := func(path string) bool { return path == "password" }

	cfg := newConfig()
	for _, opt := range []Option{
		WithGroups("g"),
		WithSkipMissing(true),
		WithStopAtFirstError(true),
		WithMaxDepth(7),
		WithPresence(pm),
		WithRedactor(redactor),
		WithRegistry(reg),
		WithCatalog(cat),
	} {
		opt(cfg)
	}

	require.NoError(t, cfg.validate())
	assert.Equal(t, []string{"g"}, cfg.groups)
	assert.True(t, cfg.skipMissing)
	assert.True(t, cfg.stopFirst)
	assert.Equal(t, 7, cfg.maxDepth)
	assert.Equal(t, pm, cfg.presence)
	assert.NotNil(t, cfg.redactor)
	assert.Same(t, reg, cfg.registry)
	assert.Same(t, cat, cfg.catalog)
}
