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

import "reflect"

// Rule is one rule template produced by a constructor such as [Required] or
// [Min]. It carries a kind, its parameters, and per-rule options, and becomes
// a [Descriptor] when bound to a field through [Builder.Field].
type Rule struct {
	kind   Kind
	params Params
	opts   []RuleOption
}

// Builder registers rules for one owner type fluently. Every [Builder.Field]
// call appends descriptors in declaration order, which is the order rules
// evaluate and report in.
//
// Example:
//
//	rules.For[User]().
//		Field("Email", rules.Required(), rules.HasFormat(rules.FormatEmail)).
//		Field("Age", rules.Min(18, rules.Message("must be an adult"))).
//		Field("Address", rules.Nested())
type Builder struct {
	registry *Registry
	owner    reflect.Type
}

// For starts a [Builder] for T against the default registry.
func For[T any]() *Builder {
	return &Builder{
		registry: DefaultRegistry(),
		owner:    indirectType(reflect.TypeOf((*T)(nil)).Elem()),
	}
}

// For starts a [Builder] for the prototype's type against this registry.
// The prototype value itself is discarded; only its type matters.
//
// Example:
//
//	reg := rules.NewRegistry()
//	reg.For(User{}).Field("Email", rules.Required())
func (r *Registry) For(prototype any) *Builder {
	t := reflect.TypeOf(prototype)
	if t == nil {
		panic("rules: prototype must not be nil")
	}

	return &Builder{registry: r, owner: indirectType(t)}
}

// Field binds each rule to the named exported Go field of the owner type.
// Returns the builder for chaining.
func (b *Builder) Field(name string, rs ...Rule) *Builder {
	for _, r := range rs {
		b.registry.Register(Descriptor{
			Kind:      r.kind,
			Owner:     b.owner,
			FieldName: name,
			Params:    r.params,
			Options:   applyRuleOptions(r.opts),
		})
	}

	return b
}

// Extends declares the owner's rules to extend those of the parent
// prototype's type, as with [Registry.SetParent]. Parent rules evaluate
// before the owner's own.
func (b *Builder) Extends(parent any) *Builder {
	t := reflect.TypeOf(parent)
	if t == nil {
		panic("rules: parent prototype must not be nil")
	}
	b.registry.SetParent(b.owner, indirectType(t))

	return b
}

// Required fails on nil values and empty strings.
func Required(opts ...RuleOption) Rule {
	return Rule{kind: KindRequired, params: RequiredParams{}, opts: opts}
}

// Equals fails unless the value loosely equals the expected value. Numeric
// values compare across types, so int(5) equals float64(5).
func Equals(value any, opts ...RuleOption) Rule {
	return Rule{kind: KindEquals, params: EqualsParams{Value: value}, opts: opts}
}

// NotEquals fails when the value loosely equals the forbidden value.
func NotEquals(value any, opts ...RuleOption) Rule {
	return Rule{kind: KindNotEquals, params: EqualsParams{Value: value}, opts: opts}
}

// Min fails when a numeric value is below the bound.
func Min(bound float64, opts ...RuleOption) Rule {
	return Rule{kind: KindMin, params: BoundParams{Bound: bound}, opts: opts}
}

// ExclusiveMin fails when a numeric value is at or below the bound.
func ExclusiveMin(bound float64, opts ...RuleOption) Rule {
	return Rule{kind: KindMin, params: BoundParams{Bound: bound, Exclusive: true}, opts: opts}
}

// Max fails when a numeric value is above the bound.
func Max(bound float64, opts ...RuleOption) Rule {
	return Rule{kind: KindMax, params: BoundParams{Bound: bound}, opts: opts}
}

// ExclusiveMax fails when a numeric value is at or above the bound.
func ExclusiveMax(bound float64, opts ...RuleOption) Rule {
	return Rule{kind: KindMax, params: BoundParams{Bound: bound, Exclusive: true}, opts: opts}
}

// Length bounds the length of a string (in runes), slice, array, or map.
// A max of zero or less leaves the upper bound open.
func Length(min, max int, opts ...RuleOption) Rule {
	return Rule{kind: KindLength, params: LengthParams{Min: min, Max: max}, opts: opts}
}

// MinLength is [Length] with an open upper bound.
func MinLength(min int, opts ...RuleOption) Rule {
	return Length(min, 0, opts...)
}

// MaxLength is [Length] with no lower bound.
func MaxLength(max int, opts ...RuleOption) Rule {
	return Length(0, max, opts...)
}

// In fails unless the value loosely equals one of the allowed values.
func In(list []any, opts ...RuleOption) Rule {
	return Rule{kind: KindIn, params: ChoiceParams{List: list}, opts: opts}
}

// NotIn fails when the value loosely equals one of the forbidden values.
func NotIn(list []any, opts ...RuleOption) Rule {
	return Rule{kind: KindNotIn, params: ChoiceParams{List: list}, opts: opts}
}

// Matches fails unless the string value matches the regular expression.
// Patterns compile once and are cached process-wide.
func Matches(pattern string, opts ...RuleOption) Rule {
	return Rule{kind: KindMatches, params: MatchParams{Pattern: pattern}, opts: opts}
}

// HasFormat fails unless the string value satisfies the named [Format].
func HasFormat(f Format, opts ...RuleOption) Rule {
	return Rule{kind: KindFormat, params: FormatParams{Format: f}, opts: opts}
}

// Expr fails unless the expression evaluates to true. The expression sees
// the variables value, self, field, and index.
//
// Example:
//
//	rules.Expr("value > self.MinPrice")
func Expr(source string, opts ...RuleOption) Rule {
	return Rule{kind: KindExpr, params: ExprParams{Source: source}, opts: opts}
}

// Schema fails unless the value's JSON form validates against the JSON
// Schema document in source.
func Schema(source string, opts ...RuleOption) Rule {
	return Rule{kind: KindSchema, params: SchemaParams{Source: source}, opts: opts}
}

// NamedSchema is [Schema] with a stable cache identifier, so the compiled
// schema is reused even when the source text is regenerated.
func NamedSchema(id, source string, opts ...RuleOption) Rule {
	return Rule{kind: KindSchema, params: SchemaParams{ID: id, Source: source}, opts: opts}
}

// Custom delegates to the constraint registered in the catalog under name.
func Custom(name string, opts ...RuleOption) Rule {
	return Rule{kind: KindCustom, params: CustomParams{Name: name}, opts: opts}
}

// CustomArgs is [Custom] with two free-form arguments passed through to the
// constraint via [Input.Params].
func CustomArgs(name string, arg1, arg2 any, opts ...RuleOption) Rule {
	return Rule{kind: KindCustom, params: CustomParams{Name: name, Arg1: arg1, Arg2: arg2}, opts: opts}
}

// Nested recurses into a struct-valued field, validating it against its own
// registered rules. With [Each] it recurses into every element of a slice,
// array, or map of structs instead.
func Nested(opts ...RuleOption) Rule {
	return Rule{kind: KindNested, params: NestedParams{}, opts: opts}
}
