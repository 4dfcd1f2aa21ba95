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

func TestEvalExprBool(t *testing.T) {
	t.Parallel()

	type order struct {
		MinPrice float64
		Express  bool
	}

	tests := []struct {
		name   string
		source string
		env    map[string]any
		want   bool
	}{
		{
			name:   "value comparison",
			source: "value > 5",
			env:    map[string]any{"value": 6},
			want:   true,
		},
		{
			name:   "value comparison false",
			source: "value > 5",
			env:    map[string]any{"value": 3},
			want:   false,
		},
		{
			name:   "subject field access",
			source: "value >= self.MinPrice",
			env:    map[string]any{"value": 9.5, "self": order{MinPrice: 5}},
			want:   true,
		},
		{
			name:   "field name in condition",
			source: `field == "Price"`,
			env:    map[string]any{"field": "Price"},
			want:   true,
		},
		{
			name:   "boolean subject flag",
			source: "self.Express",
			env:    map[string]any{"self": order{Express: true}},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evalExprBool(tt.source, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalExprBool_Faults(t *testing.T) {
	t.Parallel()

	type order struct{ MinPrice float64 }

	tests := []struct {
		name   string
		source string
		env    map[string]any
	}{
		{
			name:   "syntax error",
			source: "value >",
			env:    map[string]any{"value": 1},
		},
		{
			name:   "non-boolean result",
			source: "1 + 1",
			env:    map[string]any{"value": 1},
		},
		{
			name:   "unknown field at runtime",
			source: "self.Nope > 1",
			env:    map[string]any{"self": order{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := evalExprBool(tt.source, tt.env)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBadParams)
		})
	}
}

func TestCompiledProgram_Caches(t *testing.T) {
	t.Parallel()

	first, err := compiledProgram("value == 424242")
	require.NoError(t, err)
	second, err := compiledProgram("value == 424242")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestExprEnv(t *testing.T) {
	t.Parallel()

	type order struct{ Total float64 }
	subject := order{Total: 12}

	env := exprEnv(Input{Value: 3, Subject: subject, Field: "Total", Index: 2})

	assert.Equal(t, 3, env["value"])
	assert.Equal(t, subject, env["self"])
	assert.Equal(t, "Total", env["field"])
	assert.Equal(t, 2, env["index"])
}

func TestExprConstraint(t *testing.T) {
	t.Parallel()

	t.Run("passes when expression holds", func(t *testing.T) {
		t.Parallel()
		in := Input{Value: 10, Params: ExprParams{Source: "value > 5"}}
		ok, err := exprConstraint{}.Evaluate(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("violates when expression is false", func(t *testing.T) {
		t.Parallel()
		in := Input{Value: 2, Params: ExprParams{Source: "value > 5"}}
		ok, err := exprConstraint{}.Evaluate(context.Background(), in)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty source faults", func(t *testing.T) {
		t.Parallel()
		in := Input{Field: "Total", Params: ExprParams{}}
		_, err := exprConstraint{}.Evaluate(context.Background(), in)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadParams)
	})

	t.Run("wrong params fault", func(t *testing.T) {
		t.Parallel()
		in := Input{Field: "Total", Params: RequiredParams{}}
		_, err := exprConstraint{}.Evaluate(context.Background(), in)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadParams)
	})

	t.Run("default message names the expression", func(t *testing.T) {
		t.Parallel()
		msg := exprConstraint{}.DefaultMessage(Input{Params: ExprParams{Source: "value > 5"}})
		assert.Equal(t, `must satisfy "value > 5"`, msg)
	})
}
