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
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
)

// ruleSetVersion is the newest document version this package reads.
const ruleSetVersion = 1

// RuleSet is a declarative rule document, loaded from YAML or JSON and
// applied to a [Registry]. Types and fields are lists, not maps, so the
// document's order becomes the registration order.
//
//	version: 1
//	defaults:
//	  groups: [default]
//	types:
//	  - type: User
//	    extends: Entity
//	    fields:
//	      - field: Email
//	        rules:
//	          - rule: required
//	          - rule: format
//	            format: email
//	            groups: [create, update]
//	      - field: Age
//	        rules:
//	          - rule: min
//	            bound: 18
//	            when: 'self.Country == "US"'
type RuleSet struct {
	Version  int           `yaml:"version" json:"version"`
	Defaults *RuleDefaults `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Types    []TypeRules   `yaml:"types" json:"types"`
}

// RuleDefaults are option values merged into every rule of the set that
// leaves them unset.
type RuleDefaults struct {
	Groups []string `yaml:"groups,omitempty" json:"groups,omitempty"`
	Always bool     `yaml:"always,omitempty" json:"always,omitempty"`
	When   string   `yaml:"when,omitempty" json:"when,omitempty"`
}

// TypeRules holds the rules of one named type.
type TypeRules struct {
	Type    string       `yaml:"type" json:"type"`
	Extends string       `yaml:"extends,omitempty" json:"extends,omitempty"`
	Fields  []FieldRules `yaml:"fields" json:"fields"`
}

// FieldRules holds the rules of one field, in evaluation order.
type FieldRules struct {
	Field string     `yaml:"field" json:"field"`
	Rules []RuleSpec `yaml:"rules" json:"rules"`
}

// RuleSpec is one rule in a document. Rule names the kind (see [Kind]); the
// remaining keys carry whichever parameters and options that kind reads.
type RuleSpec struct {
	Rule      string   `yaml:"rule" json:"rule"`
	Value     any      `yaml:"value,omitempty" json:"value,omitempty"`
	Bound     *float64 `yaml:"bound,omitempty" json:"bound,omitempty"`
	Exclusive bool     `yaml:"exclusive,omitempty" json:"exclusive,omitempty"`
	Min       any      `yaml:"min,omitempty" json:"min,omitempty"`
	Max       any      `yaml:"max,omitempty" json:"max,omitempty"`
	List      []any    `yaml:"list,omitempty" json:"list,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Format    string   `yaml:"format,omitempty" json:"format,omitempty"`
	Expr      string   `yaml:"expr,omitempty" json:"expr,omitempty"`
	Schema    any      `yaml:"schema,omitempty" json:"schema,omitempty"`
	SchemaID  string   `yaml:"schema_id,omitempty" json:"schema_id,omitempty"`
	Name      string   `yaml:"name,omitempty" json:"name,omitempty"`
	Arg1      any      `yaml:"arg1,omitempty" json:"arg1,omitempty"`
	Arg2      any      `yaml:"arg2,omitempty" json:"arg2,omitempty"`
	Message   string   `yaml:"message,omitempty" json:"message,omitempty"`
	Groups    []string `yaml:"groups,omitempty" json:"groups,omitempty"`
	Each      bool     `yaml:"each,omitempty" json:"each,omitempty"`
	Always    bool     `yaml:"always,omitempty" json:"always,omitempty"`
	When      string   `yaml:"when,omitempty" json:"when,omitempty"`
	Context   any      `yaml:"context,omitempty" json:"context,omitempty"`
}

// ParseRuleSet decodes a rule document from YAML or JSON bytes.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}

	return &rs, nil
}

// LoadRuleSet reads and decodes a rule document from r.
//
// Example:
//
//	f, err := os.Open("rules.yaml")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	rs, err := rules.LoadRuleSet(f)
func LoadRuleSet(r io.Reader) (*RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}

	return ParseRuleSet(data)
}

// Apply registers every rule in the set into reg. The types argument maps
// the document's type names to Go prototype values; a document type with no
// mapping fails with [ErrUnknownType], and nothing registers after the first
// error.
//
// Example:
//
//	err := rs.Apply(reg, map[string]any{
//		"User":    User{},
//		"Address": Address{},
//	})
func (rs *RuleSet) Apply(reg *Registry, types map[string]any) error {
	if rs.Version > ruleSetVersion {
		return fmt.Errorf("rule set: unsupported version %d", rs.Version)
	}

	resolved := make(map[string]reflect.Type, len(types))
	for name, prototype := range types {
		t := reflect.TypeOf(prototype)
		if t == nil {
			return fmt.Errorf("%w: %q has a nil prototype", ErrUnknownType, name)
		}
		resolved[name] = indirectType(t)
	}

	for _, tr := range rs.Types {
		owner, ok := resolved[tr.Type]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownType, tr.Type)
		}

		if tr.Extends != "" {
			parent, ok := resolved[tr.Extends]
			if !ok {
				return fmt.Errorf("%w: %q extends %q", ErrUnknownType, tr.Type, tr.Extends)
			}
			reg.SetParent(owner, parent)
		}

		for _, fr := range tr.Fields {
			if fr.Field == "" {
				return fmt.Errorf("rule set: type %q has a field entry with no name", tr.Type)
			}
			for _, spec := range fr.Rules {
				d, err := rs.descriptor(owner, fr.Field, spec)
				if err != nil {
					return fmt.Errorf("rule set: type %q field %q: %w", tr.Type, fr.Field, err)
				}
				reg.Register(d)
			}
		}
	}

	return nil
}

// descriptor converts one rule spec into a registrable [Descriptor],
// layering set-wide defaults under the spec's own options.
func (rs *RuleSet) descriptor(owner reflect.Type, field string, spec RuleSpec) (Descriptor, error) {
	kind, err := KindFromName(spec.Rule)
	if err != nil {
		return Descriptor{}, err
	}

	params, err := paramsFromSpec(kind, spec)
	if err != nil {
		return Descriptor{}, err
	}

	opts := Options{
		Message:  spec.Message,
		Groups:   spec.Groups,
		Each:     spec.Each,
		Always:   spec.Always,
		WhenExpr: spec.When,
		Context:  spec.Context,
	}
	if rs.Defaults != nil {
		err := mergo.Merge(&opts, Options{
			Groups:   rs.Defaults.Groups,
			Always:   rs.Defaults.Always,
			WhenExpr: rs.Defaults.When,
		})
		if err != nil {
			return Descriptor{}, fmt.Errorf("merge defaults: %w", err)
		}
	}

	return Descriptor{
		Kind:      kind,
		Owner:     owner,
		FieldName: field,
		Params:    params,
		Options:   opts,
	}, nil
}

// paramsFromSpec extracts and coerces the parameters a kind reads from its
// spec. Numeric keys accept whatever scalar type the decoder produced.
func paramsFromSpec(kind Kind, spec RuleSpec) (Params, error) {
	switch kind {
	case KindRequired:
		return RequiredParams{}, nil

	case KindEquals, KindNotEquals:
		return EqualsParams{Value: spec.Value}, nil

	case KindMin, KindMax:
		if spec.Bound == nil {
			return nil, fmt.Errorf("%w: rule %q needs a bound", ErrBadParams, kind)
		}

		return BoundParams{Bound: *spec.Bound, Exclusive: spec.Exclusive}, nil

	case KindLength:
		min, err := cast.ToIntE(spec.Min)
		if err != nil {
			return nil, fmt.Errorf("%w: length min: %v", ErrBadParams, err)
		}
		max, err := cast.ToIntE(spec.Max)
		if err != nil {
			return nil, fmt.Errorf("%w: length max: %v", ErrBadParams, err)
		}

		return LengthParams{Min: min, Max: max}, nil

	case KindIn, KindNotIn:
		if len(spec.List) == 0 {
			return nil, fmt.Errorf("%w: rule %q needs a list", ErrBadParams, kind)
		}

		return ChoiceParams{List: spec.List}, nil

	case KindMatches:
		if spec.Pattern == "" {
			return nil, fmt.Errorf("%w: rule %q needs a pattern", ErrBadParams, kind)
		}

		return MatchParams{Pattern: spec.Pattern}, nil

	case KindFormat:
		if spec.Format == "" {
			return nil, fmt.Errorf("%w: rule %q needs a format", ErrBadParams, kind)
		}

		return FormatParams{Format: Format(spec.Format)}, nil

	case KindExpr:
		if spec.Expr == "" {
			return nil, fmt.Errorf("%w: rule %q needs an expr", ErrBadParams, kind)
		}

		return ExprParams{Source: spec.Expr}, nil

	case KindSchema:
		source, err := schemaSource(spec.Schema)
		if err != nil {
			return nil, err
		}

		return SchemaParams{ID: spec.SchemaID, Source: source}, nil

	case KindCustom:
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: rule %q needs a name", ErrBadParams, kind)
		}

		return CustomParams{Name: spec.Name, Arg1: spec.Arg1, Arg2: spec.Arg2}, nil

	case KindNested:
		return NestedParams{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}

// schemaSource renders a spec's schema key to JSON Schema text. Strings pass
// through; inline YAML documents are re-encoded as JSON for the compiler.
func schemaSource(schema any) (string, error) {
	switch s := schema.(type) {
	case nil:
		return "", fmt.Errorf("%w: rule %q needs a schema", ErrBadParams, KindSchema)
	case string:
		if s == "" {
			return "", fmt.Errorf("%w: rule %q needs a schema", ErrBadParams, KindSchema)
		}

		return s, nil
	default:
		data, err := json.Marshal(schema)
		if err != nil {
			return "", fmt.Errorf("%w: inline schema: %v", ErrBadParams, err)
		}

		return string(data), nil
	}
}
