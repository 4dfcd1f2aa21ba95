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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is the sentinel for rule violations. Every [*Error] returned by
// [Validate] unwraps to it, so errors.Is(err, ErrInvalid) distinguishes "the
// object broke a rule" from the configuration faults below.
var ErrInvalid = errors.New("invalid")

// Configuration faults. These are returned directly (wrapped with context)
// instead of being folded into an [*Error] tree: they mean the rule setup is
// broken, not that the object is invalid.
var (
	// ErrUnknownConstraint is returned when a [KindCustom] rule names a
	// constraint that was never registered.
	ErrUnknownConstraint = errors.New("unknown constraint")

	// ErrDuplicateConstraint is returned by [Catalog.Register] when the
	// name is already taken and [AllowOverride] was not given.
	ErrDuplicateConstraint = errors.New("duplicate constraint")

	// ErrUnsupportedKind is returned when a rule kind has no constraint
	// bound in the [Catalog], or a [RuleSet] document names an unknown rule.
	ErrUnsupportedKind = errors.New("unsupported rule kind")

	// ErrBadParams is returned when a descriptor's params do not fit its
	// kind: wrong params type, an invalid regular expression, an expression
	// that does not compile, or a schema that does not parse.
	ErrBadParams = errors.New("invalid rule params")

	// ErrUnknownField is returned when a descriptor names a field the
	// owner type does not have.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnexportedField is returned when a descriptor names an unexported
	// field, whose value cannot be read.
	ErrUnexportedField = errors.New("unexported field")

	// ErrUnknownType is returned by [RuleSet.Apply] when a document names
	// a type with no binding.
	ErrUnknownType = errors.New("unknown type name")

	// ErrNilValue is returned when validating nil or a nil pointer.
	ErrNilValue = errors.New("cannot validate nil value")

	// ErrNotStruct is returned when the validated value is not a struct.
	ErrNotStruct = errors.New("expected a struct value")

	// ErrMaxDepthExceeded is returned when nested validation recurses
	// deeper than the configured limit (see [WithMaxDepth]).
	ErrMaxDepthExceeded = errors.New("max recursion depth exceeded")

	// ErrAwaitTimeout is returned by [Future.AwaitWithTimeout] when the
	// validation run does not finish in time.
	ErrAwaitTimeout = errors.New("await timed out")
)

// Violation is a single failed rule on a single value.
//
// Key is unique within its [Violations] collection: it is the [Descriptor.RuleID],
// suffixed with "[<index>]" for element-scoped rules, and disambiguated with an
// ordinal ("min_2") when the same rule fails twice on one field.
type Violation struct {
	Key     string `json:"key"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
	Index   int    `json:"index"` // element index, -1 when not element-scoped
	Param   any    `json:"param,omitempty"`
	Context any    `json:"context,omitempty"`
}

// Violations is the ordered collection of failed rules for one field.
// Order follows rule registration order, never evaluation completion order.
type Violations []Violation

// append adds a violation, disambiguating its key against existing entries.
func (vs *Violations) append(v Violation) {
	key := v.Key
	for n := 2; (*vs).hasKey(key); n++ {
		key = fmt.Sprintf("%s_%d", v.Key, n)
	}
	v.Key = key
	*vs = append(*vs, v)
}

func (vs Violations) hasKey(key string) bool {
	for _, v := range vs {
		if v.Key == key {
			return true
		}
	}

	return false
}

// Has reports whether any violation was produced by the given rule,
// regardless of key disambiguation.
//
// Example:
//
//	if prop.Violations.Has("min") {
//	    // the field broke a min rule
//	}
func (vs Violations) Has(rule string) bool {
	for _, v := range vs {
		if v.Rule == rule {
			return true
		}
	}

	return false
}

// Get returns the violation stored under the exact key.
func (vs Violations) Get(key string) (Violation, bool) {
	for _, v := range vs {
		if v.Key == key {
			return v, true
		}
	}

	return Violation{}, false
}

// Messages returns the violation messages in order.
func (vs Violations) Messages() []string {
	msgs := make([]string, 0, len(vs))
	for _, v := range vs {
		msgs = append(msgs, v.Message)
	}

	return msgs
}

// MarshalJSON encodes the collection as an ordered JSON object mapping
// violation keys to messages:
//
//	{"required": "is required", "min[1]": "must be at least 0"}
func (vs Violations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range vs {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(v.Key)
		if err != nil {
			return nil, err
		}
		msg, err := json.Marshal(v.Message)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(msg)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// PropertyError is one node of the violation tree: the violations recorded
// for a single field, plus child nodes for nested validation. A node exists
// only if it or one of its descendants recorded at least one violation.
//
// For fields validated element-wise, children are keyed by the element index
// (or map key) as the Field value.
type PropertyError struct {
	Field      string           `json:"field"`
	Value      any              `json:"value,omitempty"`
	Violations Violations       `json:"violations,omitempty"`
	Children   []*PropertyError `json:"children,omitempty"`
}

// Child returns the direct child node for the given field, or nil.
func (p *PropertyError) Child(field string) *PropertyError {
	for _, c := range p.Children {
		if c.Field == field {
			return c
		}
	}

	return nil
}

// count returns the number of violations in this subtree.
func (p *PropertyError) count() int {
	n := len(p.Violations)
	for _, c := range p.Children {
		n += c.count()
	}

	return n
}

// FieldViolation is the flat, dot-path view of one violation, produced by
// [Error.Flatten].
type FieldViolation struct {
	Path    string `json:"path"`    // dot path (e.g., "items.2.price")
	Key     string `json:"key"`     // violation key within the field
	Rule    string `json:"rule"`    // rule identifier
	Message string `json:"message"` // human-readable message
}

// Error is the result of a failed validation run: a tree of [PropertyError]
// nodes mirroring the object graph. Error implements error and unwraps to
// [ErrInvalid].
//
// Example:
//
//	var verr *rules.Error
//	if errors.As(err, &verr) {
//	    for _, fv := range verr.Flatten() {
//	        fmt.Printf("%s: %s\n", fv.Path, fv.Message)
//	    }
//	}
type Error struct {
	Properties []*PropertyError `json:"properties"`
}

// Error returns a formatted message: the single violation for simple cases,
// or "validation failed: ..." joining all flattened violations.
func (e *Error) Error() string {
	flat := e.Flatten()
	if len(flat) == 0 {
		return ""
	}
	if len(flat) == 1 {
		return flat[0].Path + ": " + flat[0].Message
	}

	msgs := make([]string, 0, len(flat))
	for _, fv := range flat {
		msgs = append(msgs, fv.Path+": "+fv.Message)
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap returns [ErrInvalid] for errors.Is compatibility.
func (e *Error) Unwrap() error {
	return ErrInvalid
}

// HTTPStatus implements rivaas.dev/errors.ErrorType.
func (e *Error) HTTPStatus() int {
	return 422 // Unprocessable Entity
}

// Details implements rivaas.dev/errors.ErrorDetails.
func (e *Error) Details() any {
	return e.Properties
}

// Code implements rivaas.dev/errors.ErrorCode.
func (e *Error) Code() string {
	return "validation_error"
}

// Count returns the total number of violations in the tree.
func (e *Error) Count() int {
	n := 0
	for _, p := range e.Properties {
		n += p.count()
	}

	return n
}

// Flatten walks the tree in order and returns every violation with its full
// dot path. Nested nodes contribute "parent.child" paths; element nodes
// contribute the element index or map key as a segment.
func (e *Error) Flatten() []FieldViolation {
	var flat []FieldViolation
	for _, p := range e.Properties {
		flattenInto(p, "", &flat)
	}

	return flat
}

func flattenInto(p *PropertyError, prefix string, out *[]FieldViolation) {
	path := p.Field
	if prefix != "" {
		path = prefix + "." + p.Field
	}

	for _, v := range p.Violations {
		*out = append(*out, FieldViolation{
			Path:    path,
			Key:     v.Key,
			Rule:    v.Rule,
			Message: v.Message,
		})
	}

	for _, c := range p.Children {
		flattenInto(c, path, out)
	}
}

// Has reports whether the node at the given dot path exists in the tree.
//
// Example:
//
//	if verr.Has("address.city") {
//	    // the city field failed
//	}
func (e *Error) Has(path string) bool {
	return e.At(path) != nil
}

// At returns the [PropertyError] node at the given dot path, or nil.
func (e *Error) At(path string) *PropertyError {
	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return nil
	}

	var node *PropertyError
	for _, p := range e.Properties {
		if p.Field == segments[0] {
			node = p
			break
		}
	}

	for _, seg := range segments[1:] {
		if node == nil {
			return nil
		}
		node = node.Child(seg)
	}

	return node
}
