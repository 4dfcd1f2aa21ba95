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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type builderUser struct {
	Name  string
	Email string
	Age   int
}

type builderEntity struct {
	ID string
}

func TestBuilder_FieldRegistersInOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.For(builderUser{}).
		Field("Name", Required(), MinLength(2)).
		Field("Email", HasFormat(FormatEmail)).
		Field("Age", Min(18))

	descs := reg.DescriptorsFor(reflect.TypeOf(builderUser{}))
	require.Len(t, descs, 4)

	assert.Equal(t, KindRequired, descs[0].Kind)
	assert.Equal(t, "Name", descs[0].FieldName)
	assert.Equal(t, KindLength, descs[1].Kind)
	assert.Equal(t, KindFormat, descs[2].Kind)
	assert.Equal(t, "Email", descs[2].FieldName)
	assert.Equal(t, KindMin, descs[3].Kind)
}

func TestBuilder_PointerPrototypeSharesOwner(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.For(&builderUser{}).Field("Name", Required())

	assert.Len(t, reg.DescriptorsFor(reflect.TypeOf(builderUser{})), 1)
}

func TestBuilder_NilPrototypePanics(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	assert.PanicsWithValue(t, "rules: prototype must not be nil", func() {
		reg.For(nil)
	})
}

func TestBuilder_Extends(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.For(builderEntity{}).Field("ID", Required())
	reg.For(builderUser{}).
		Extends(builderEntity{}).
		Field("Name", Required())

	descs := reg.DescriptorsFor(reflect.TypeOf(builderUser{}))
	require.Len(t, descs, 2)
	assert.Equal(t, "ID", descs[0].FieldName)
	assert.Equal(t, "Name", descs[1].FieldName)
}

func TestBuilder_OptionsReachDescriptor(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.For(builderUser{}).
		Field("Age", Min(18, Message("adults only"), Groups("create"), Always()))

	descs := reg.DescriptorsFor(reflect.TypeOf(builderUser{}))
	require.Len(t, descs, 1)

	opts := descs[0].Options
	assert.Equal(t, "adults only", opts.Message)
	assert.Equal(t, []string{"create"}, opts.Groups)
	assert.True(t, opts.Always)
	assert.False(t, opts.Each)
}

func TestRuleConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rule       Rule
		wantKind   Kind
		wantParams Params
	}{
		{"required", Required(), KindRequired, RequiredParams{}},
		{"equals", Equals(5), KindEquals, EqualsParams{Value: 5}},
		{"not equals", NotEquals("x"), KindNotEquals, EqualsParams{Value: "x"}},
		{"min", Min(1), KindMin, BoundParams{Bound: 1}},
		{"exclusive min", ExclusiveMin(0), KindMin, BoundParams{Bound: 0, Exclusive: true}},
		{"max", Max(10), KindMax, BoundParams{Bound: 10}},
		{"exclusive max", ExclusiveMax(100), KindMax, BoundParams{Bound: 100, Exclusive: true}},
		{"length", Length(2, 5), KindLength, LengthParams{Min: 2, Max: 5}},
		{"min length", MinLength(3), KindLength, LengthParams{Min: 3}},
		{"max length", MaxLength(8), KindLength, LengthParams{Max: 8}},
		{"in", In([]any{"a", "b"}), KindIn, ChoiceParams{List: []any{"a", "b"}}},
		{"not in", NotIn([]any{1}), KindNotIn, ChoiceParams{List: []any{1}}},
		{"matches", Matches(`^a$`), KindMatches, MatchParams{Pattern: `^a$`}},
		{"has format", HasFormat(FormatEmail), KindFormat, FormatParams{Format: FormatEmail}},
		{"expr", Expr("value > 0"), KindExpr, ExprParams{Source: "value > 0"}},
		{"schema", Schema(`{}`), KindSchema, SchemaParams{Source: `{}`}},
		{"named schema", NamedSchema("id", `{}`), KindSchema, SchemaParams{ID: "id", Source: `{}`}},
		{"custom", Custom("check"), KindCustom, CustomParams{Name: "check"}},
		{"custom args", CustomArgs("range", 1, 2), KindCustom, CustomParams{Name: "range", Arg1: 1, Arg2: 2}},
		{"nested", Nested(), KindNested, NestedParams{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantKind, tt.rule.kind)
			assert.Equal(t, tt.wantParams, tt.rule.params)
		})
	}
}

func TestFor_UsesDefaultRegistry(t *testing.T) {
	// Mutates package state; not parallel.
	t.Cleanup(Reset)
	Reset()

	For[builderUser]().Field("Name", Required())

	assert.True(t, DefaultRegistry().HasRulesFor(reflect.TypeOf(builderUser{})))
}

func TestFor_PointerTypeParameterNormalized(t *testing.T) {
	// Mutates package state; not parallel.
	t.Cleanup(Reset)
	Reset()

	For[*builderUser]().Field("Name", Required())

	assert.True(t, DefaultRegistry().HasRulesFor(reflect.TypeOf(builderUser{})))
}
