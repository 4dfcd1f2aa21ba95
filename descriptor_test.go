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

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindRequired, "required"},
		{KindEquals, "equals"},
		{KindNotEquals, "not_equals"},
		{KindMin, "min"},
		{KindMax, "max"},
		{KindLength, "length"},
		{KindIn, "in"},
		{KindNotIn, "not_in"},
		{KindMatches, "matches"},
		{KindFormat, "format"},
		{KindExpr, "expr"},
		{KindSchema, "schema"},
		{KindCustom, "custom"},
		{KindNested, "nested"},
		{Kind(99), "kind(99)"},
		{Kind(-1), "kind(-1)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestKindFromName_RoundTrip(t *testing.T) {
	t.Parallel()

	for k, name := range kindNames {
		got, err := KindFromName(name)
		require.NoError(t, err, "name %q", name)
		assert.Equal(t, Kind(k), got)
	}
}

func TestKindFromName_Unknown(t *testing.T) {
	t.Parallel()

	_, err := KindFromName("definitely_not_a_rule")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Contains(t, err.Error(), "definitely_not_a_rule")
}

func TestDescriptor_RuleID(t *testing.T) {
	t.Parallel()

	owner := reflect.TypeOf(struct{ Name string }{})

	tests := []struct {
		name string
		desc Descriptor
		want string
	}{
		{
			name: "plain kind uses kind name",
			desc: Descriptor{Kind: KindMin, Owner: owner, FieldName: "Name", Params: BoundParams{Bound: 1}},
			want: "min",
		},
		{
			name: "custom uses constraint name",
			desc: Descriptor{Kind: KindCustom, Owner: owner, FieldName: "Name", Params: CustomParams{Name: "username_free"}},
			want: "username_free",
		},
		{
			name: "custom without name falls back to kind",
			desc: Descriptor{Kind: KindCustom, Owner: owner, FieldName: "Name", Params: CustomParams{}},
			want: "custom",
		},
		{
			name: "format is namespaced",
			desc: Descriptor{Kind: KindFormat, Owner: owner, FieldName: "Name", Params: FormatParams{Format: FormatEmail}},
			want: "format.email",
		},
		{
			name: "format without format name falls back to kind",
			desc: Descriptor{Kind: KindFormat, Owner: owner, FieldName: "Name", Params: FormatParams{}},
			want: "format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.desc.RuleID())
		})
	}
}
