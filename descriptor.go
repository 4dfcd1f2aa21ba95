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
	"fmt"
	"reflect"
)

// Kind identifies a rule family. Every [Descriptor] carries exactly one Kind,
// and the [Catalog] binds each Kind to the constraint that evaluates it.
type Kind int

const (
	// KindRequired rejects absent, nil, and empty string values.
	KindRequired Kind = iota

	// KindEquals requires the value to equal a reference value.
	KindEquals

	// KindNotEquals requires the value to differ from a reference value.
	KindNotEquals

	// KindMin requires a numeric value to be at least a bound.
	KindMin

	// KindMax requires a numeric value to be at most a bound.
	KindMax

	// KindLength bounds the length of a string, slice, array, or map.
	KindLength

	// KindIn requires the value to be a member of a fixed list.
	KindIn

	// KindNotIn requires the value to not be a member of a fixed list.
	KindNotIn

	// KindMatches requires a string value to match a regular expression.
	KindMatches

	// KindFormat requires a string value to have a well-known format
	// such as [FormatEmail] or [FormatUUID].
	KindFormat

	// KindExpr requires a boolean expression over the value and its
	// enclosing object to evaluate to true.
	KindExpr

	// KindSchema validates the value against a JSON Schema document.
	KindSchema

	// KindCustom delegates to a constraint registered by name via
	// [Catalog.Register] or [RegisterConstraint].
	KindCustom

	// KindNested descends into a struct-valued field (or its elements)
	// and validates it against its own registered rules.
	KindNested
)

// kindNames maps each [Kind] to its stable identifier. The identifier is used
// as the violation key, in [RuleSet] documents, and by [KindFromName].
var kindNames = [...]string{
	KindRequired:  "required",
	KindEquals:    "equals",
	KindNotEquals: "not_equals",
	KindMin:       "min",
	KindMax:       "max",
	KindLength:    "length",
	KindIn:        "in",
	KindNotIn:     "not_in",
	KindMatches:   "matches",
	KindFormat:    "format",
	KindExpr:      "expr",
	KindSchema:    "schema",
	KindCustom:    "custom",
	KindNested:    "nested",
}

// String returns the stable identifier for the kind (e.g., "required", "min").
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}

	return kindNames[k]
}

// KindFromName resolves a stable identifier back to its [Kind].
// KindFromName returns [ErrUnsupportedKind] for unknown names, which is how
// [RuleSet] documents with misspelled rule names are rejected.
func KindFromName(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

// Format names a well-known string format checked by [KindFormat] rules.
// Use with [HasFormat].
type Format string

// Supported formats.
const (
	FormatEmail        Format = "email"
	FormatURL          Format = "url"
	FormatURI          Format = "uri"
	FormatUUID         Format = "uuid"
	FormatUUIDv4       Format = "uuid4"
	FormatUUIDv5       Format = "uuid5"
	FormatIP           Format = "ip"
	FormatIPv4         Format = "ipv4"
	FormatIPv6         Format = "ipv6"
	FormatMAC          Format = "mac"
	FormatHostname     Format = "hostname"
	FormatFQDN         Format = "fqdn"
	FormatAlpha        Format = "alpha"
	FormatAlphanumeric Format = "alphanum"
	FormatNumeric      Format = "numeric"
	FormatHexadecimal  Format = "hexadecimal"
	FormatBase64       Format = "base64"
	FormatLowercase    Format = "lowercase"
	FormatUppercase    Format = "uppercase"
	FormatE164         Format = "e164"
	FormatLatitude     Format = "latitude"
	FormatLongitude    Format = "longitude"
	FormatJSON         Format = "json"
	FormatJWT          Format = "jwt"
	FormatSemver       Format = "semver"
	FormatSlug         Format = "slug"
)

// Params carries the kind-specific arguments of a [Descriptor].
// Each [Kind] expects its own params type (e.g., [KindMin] expects
// [BoundParams]); a mismatch surfaces as an [ErrBadParams] fault when the
// rule is first evaluated, not at registration time.
type Params interface {
	isParams()
}

// RequiredParams configures [KindRequired]. It carries no arguments.
type RequiredParams struct{}

// EqualsParams configures [KindEquals] and [KindNotEquals].
// Values are compared with [reflect.DeepEqual]; numeric values of different
// widths (e.g., int vs float64 from a decoded document) compare by value.
type EqualsParams struct {
	Value any `json:"value"`
}

// BoundParams configures [KindMin] and [KindMax].
type BoundParams struct {
	Bound     float64 `json:"bound"`
	Exclusive bool    `json:"exclusive,omitempty"`
}

// LengthParams configures [KindLength].
// Min is the inclusive lower bound. Max is the inclusive upper bound;
// Max <= 0 means unbounded. String length counts runes, not bytes.
type LengthParams struct {
	Min int `json:"min"`
	Max int `json:"max,omitempty"`
}

// ChoiceParams configures [KindIn] and [KindNotIn].
// Membership uses the same comparison rules as [EqualsParams].
type ChoiceParams struct {
	List []any `json:"list"`
}

// MatchParams configures [KindMatches]. The pattern is compiled lazily on
// first evaluation and cached process-wide; an invalid pattern is an
// [ErrBadParams] fault.
type MatchParams struct {
	Pattern string `json:"pattern"`
}

// FormatParams configures [KindFormat].
type FormatParams struct {
	Format Format `json:"format"`
}

// ExprParams configures [KindExpr]. The source is an expr-lang expression
// compiled lazily on first evaluation and cached process-wide.
//
// The expression environment exposes:
//   - value: the field value under validation
//   - self: the enclosing object
//   - field: the field name
//   - index: the element index, or -1 when not element-scoped
type ExprParams struct {
	Source string `json:"source"`
}

// SchemaParams configures [KindSchema]. Source is a JSON Schema document.
// ID is optional; when set, compiled schemas are cached under it so that
// many descriptors can share one compilation.
type SchemaParams struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
}

// CustomParams configures [KindCustom]. Name selects a constraint registered
// via [Catalog.Register] or [RegisterConstraint]; Arg1 and Arg2 are passed
// through to the constraint unchanged.
type CustomParams struct {
	Name string `json:"name"`
	Arg1 any    `json:"arg1,omitempty"`
	Arg2 any    `json:"arg2,omitempty"`
}

// NestedParams configures [KindNested]. It carries no arguments.
type NestedParams struct{}

func (RequiredParams) isParams() {}
func (EqualsParams) isParams()   {}
func (BoundParams) isParams()    {}
func (LengthParams) isParams()   {}
func (ChoiceParams) isParams()   {}
func (MatchParams) isParams()    {}
func (FormatParams) isParams()   {}
func (ExprParams) isParams()     {}
func (SchemaParams) isParams()   {}
func (CustomParams) isParams()   {}
func (NestedParams) isParams()   {}

// Options carries the modifiers shared by every rule kind.
// The zero value applies the rule unconditionally with default messaging.
type Options struct {
	// Message overrides the constraint's default violation message.
	Message string

	// Groups restricts the rule to named validation groups. A rule with
	// groups runs only when [WithGroups] names at least one of them, or
	// when the call names no groups at all. A rule without groups always
	// passes the group filter.
	Groups []string

	// Each applies the rule to every element of a slice, array, or map
	// value instead of the value itself. Element violations carry the
	// element index (or map key) in their violation key.
	Each bool

	// Always runs the rule even when [WithSkipMissing] would drop it for
	// a missing field. Always does not bypass the group filter.
	Always bool

	// Context is caller-defined data attached verbatim to violations
	// produced by this rule.
	Context any

	// When skips the rule when the predicate returns false. The predicate
	// receives the enclosing object.
	When func(subject any) bool

	// WhenExpr skips the rule when the expr-lang expression evaluates to
	// false. It sees the same environment as [ExprParams].
	WhenExpr string
}

// Descriptor is a single validation rule attached to a struct field.
// Descriptors are immutable once registered; their registration order is the
// order violations are reported in.
//
// Most callers never build descriptors by hand. Use the [For] builder or a
// [RuleSet] document instead, both of which produce descriptors and register
// them via [Registry.Register].
type Descriptor struct {
	Kind      Kind
	Owner     reflect.Type
	FieldName string
	Params    Params
	Options   Options
}

// RuleID returns the stable identifier used as the violation key for this
// descriptor: the custom constraint name for [KindCustom], "format.<name>"
// for [KindFormat], and the kind name otherwise.
func (d Descriptor) RuleID() string {
	switch d.Kind {
	case KindCustom:
		if p, ok := d.Params.(CustomParams); ok && p.Name != "" {
			return p.Name
		}
	case KindFormat:
		if p, ok := d.Params.(FormatParams); ok && p.Format != "" {
			return "format." + string(p.Format)
		}
	}

	return d.Kind.String()
}
