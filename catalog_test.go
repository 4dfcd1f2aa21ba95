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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alwaysPass is a trivial constraint for catalog wiring tests.
var alwaysPass = ConstraintFunc(func(_ context.Context, _ Input) (bool, error) {
	return true, nil
})

func TestCatalog_ResolveBuiltinKinds(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	kinds := []Kind{
		KindRequired, KindEquals, KindNotEquals, KindMin, KindMax,
		KindLength, KindIn, KindNotIn, KindMatches, KindFormat,
		KindExpr, KindSchema,
	}

	for _, kind := range kinds {
		c, err := cat.resolve(Descriptor{Kind: kind})
		require.NoError(t, err, "kind %s", kind)
		assert.NotNil(t, c)
	}
}

func TestCatalog_ResolveUnsupportedKind(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	_, err := cat.resolve(Descriptor{Kind: Kind(99)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestCatalog_RegisterAndResolveCustom(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	require.NoError(t, cat.Register("always_pass", alwaysPass))

	c, err := cat.resolve(Descriptor{Kind: KindCustom, Params: CustomParams{Name: "always_pass"}})
	require.NoError(t, err)

	ok, err := c.Evaluate(context.Background(), Input{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCatalog_RegisterValidation(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()

	err := cat.Register("", alwaysPass)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	err = cat.Register("nil_constraint", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil_constraint")
}

func TestCatalog_DuplicateName(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	require.NoError(t, cat.Register("taken", alwaysPass))

	err := cat.Register("taken", alwaysPass)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateConstraint)

	// AllowOverride replaces the previous registration.
	replaced := ConstraintFunc(func(_ context.Context, _ Input) (bool, error) {
		return false, nil
	})
	require.NoError(t, cat.Register("taken", replaced, AllowOverride()))

	c, err := cat.resolve(Descriptor{Kind: KindCustom, Params: CustomParams{Name: "taken"}})
	require.NoError(t, err)
	ok, err := c.Evaluate(context.Background(), Input{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_ResolveUnknownCustom(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	_, err := cat.resolve(Descriptor{Kind: KindCustom, Params: CustomParams{Name: "never_registered"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConstraint)
	assert.Contains(t, err.Error(), "never_registered")
}

func TestCatalog_ResolveCustomWrongParams(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	_, err := cat.resolve(Descriptor{Kind: KindCustom, Params: BoundParams{Bound: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestCatalog_LookupAndNames(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	require.NoError(t, cat.Register("zeta", alwaysPass))
	require.NoError(t, cat.Register("alpha", alwaysPass))

	_, ok := cat.Lookup("zeta")
	assert.True(t, ok)
	_, ok = cat.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "zeta"}, cat.Names())
}

func TestCatalog_ResetKeepsBuiltins(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	require.NoError(t, cat.Register("ephemeral", alwaysPass))

	cat.Reset()

	_, ok := cat.Lookup("ephemeral")
	assert.False(t, ok, "custom constraints are dropped")

	_, err := cat.resolve(Descriptor{Kind: KindRequired})
	assert.NoError(t, err, "builtin kinds survive Reset")
}

func TestRegisterConstraint_DefaultCatalog(t *testing.T) {
	// Mutates package state; not parallel.
	t.Cleanup(Reset)
	Reset()

	require.NoError(t, RegisterConstraint("pkg_level", alwaysPass))

	_, ok := DefaultCatalog().Lookup("pkg_level")
	assert.True(t, ok)

	Reset()
	_, ok = DefaultCatalog().Lookup("pkg_level")
	assert.False(t, ok, "package Reset clears custom constraints")
}
