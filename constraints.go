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
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// builtinConstraints binds every non-custom [Kind] to its evaluator.
func builtinConstraints() map[Kind]Constraint {
	return map[Kind]Constraint{
		KindRequired:  requiredConstraint{},
		KindEquals:    equalsConstraint{},
		KindNotEquals: equalsConstraint{negate: true},
		KindMin:       boundConstraint{},
		KindMax:       boundConstraint{upper: true},
		KindLength:    lengthConstraint{},
		KindIn:        choiceConstraint{},
		KindNotIn:     choiceConstraint{negate: true},
		KindMatches:   matchesConstraint{},
		KindFormat:    newFormatConstraint(),
		KindExpr:      exprConstraint{},
		KindSchema:    newSchemaConstraint(),
	}
}

// wrongParams builds the [ErrBadParams] fault for a params type mismatch.
func wrongParams(in Input, want string) error {
	return fmt.Errorf("%w: field %q expects %s, got %T", ErrBadParams, in.Field, want, in.Params)
}

// isNilValue reports whether v is nil or a nil pointer, interface, map,
// slice, channel, or function.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// toFloat converts numeric values of any width to float64 for comparisons.
// Non-numeric kinds report false; numeric strings do not count.
func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(v)

		return f, err == nil
	default:
		return 0, false
	}
}

// looseEqual compares two values for rule purposes: [reflect.DeepEqual],
// with numeric values of different widths compared by value so that params
// decoded from documents (int vs float64) behave as written.
func looseEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	return aok && bok && af == bf
}

// lengthOf returns the rule-visible length of v: runes for strings, len()
// for slices, arrays, and maps.
func lengthOf(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	default:
		return 0, false
	}
}

// formatList renders a choice list for messages: "a, b, c".
func formatList(list []any) string {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, fmt.Sprint(item))
	}

	return strings.Join(parts, ", ")
}

// requiredConstraint evaluates [KindRequired]: the value must be non-nil and,
// for strings, non-empty. Zero numbers and false booleans count as present.
type requiredConstraint struct{}

func (requiredConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	if isNilValue(in.Value) {
		return false, nil
	}
	if s, ok := in.Value.(string); ok && s == "" {
		return false, nil
	}

	return true, nil
}

func (requiredConstraint) DefaultMessage(Input) string {
	return "is required"
}

// equalsConstraint evaluates [KindEquals] and, negated, [KindNotEquals].
type equalsConstraint struct {
	negate bool
}

func (c equalsConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	p, ok := in.Params.(EqualsParams)
	if !ok {
		return false, wrongParams(in, "EqualsParams")
	}

	equal := looseEqual(in.Value, p.Value)
	if c.negate {
		return !equal, nil
	}

	return equal, nil
}

func (c equalsConstraint) DefaultMessage(in Input) string {
	p, _ := in.Params.(EqualsParams)
	if c.negate {
		return fmt.Sprintf("must not equal %v", p.Value)
	}

	return fmt.Sprintf("must equal %v", p.Value)
}

// boundConstraint evaluates [KindMin] and, with upper set, [KindMax].
// Non-numeric values fail the bound rather than faulting: a rule on the
// wrong field type is a violation the caller can see, not a crash.
type boundConstraint struct {
	upper bool
}

func (c boundConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	p, ok := in.Params.(BoundParams)
	if !ok {
		return false, wrongParams(in, "BoundParams")
	}

	f, numeric := toFloat(in.Value)
	if !numeric {
		return false, nil
	}

	switch {
	case c.upper && p.Exclusive:
		return f < p.Bound, nil
	case c.upper:
		return f <= p.Bound, nil
	case p.Exclusive:
		return f > p.Bound, nil
	default:
		return f >= p.Bound, nil
	}
}

func (c boundConstraint) DefaultMessage(in Input) string {
	p, _ := in.Params.(BoundParams)
	switch {
	case c.upper && p.Exclusive:
		return fmt.Sprintf("must be less than %v", p.Bound)
	case c.upper:
		return fmt.Sprintf("must be at most %v", p.Bound)
	case p.Exclusive:
		return fmt.Sprintf("must be greater than %v", p.Bound)
	default:
		return fmt.Sprintf("must be at least %v", p.Bound)
	}
}

// lengthConstraint evaluates [KindLength] on strings (runes), slices,
// arrays, and maps.
type lengthConstraint struct{}

func (lengthConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	p, ok := in.Params.(LengthParams)
	if !ok {
		return false, wrongParams(in, "LengthParams")
	}

	n, measurable := lengthOf(in.Value)
	if !measurable {
		return false, nil
	}
	if n < p.Min {
		return false, nil
	}
	if p.Max > 0 && n > p.Max {
		return false, nil
	}

	return true, nil
}

func (lengthConstraint) DefaultMessage(in Input) string {
	p, _ := in.Params.(LengthParams)

	unit := "elements"
	if _, ok := in.Value.(string); ok {
		unit = "characters"
	}

	switch {
	case p.Max > 0 && p.Min > 0:
		return fmt.Sprintf("must be between %d and %d %s", p.Min, p.Max, unit)
	case p.Max > 0:
		return fmt.Sprintf("must be at most %d %s", p.Max, unit)
	default:
		return fmt.Sprintf("must be at least %d %s", p.Min, unit)
	}
}

// choiceConstraint evaluates [KindIn] and, negated, [KindNotIn].
type choiceConstraint struct {
	negate bool
}

func (c choiceConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	p, ok := in.Params.(ChoiceParams)
	if !ok {
		return false, wrongParams(in, "ChoiceParams")
	}

	member := false
	for _, candidate := range p.List {
		if looseEqual(in.Value, candidate) {
			member = true
			break
		}
	}

	if c.negate {
		return !member, nil
	}

	return member, nil
}

func (c choiceConstraint) DefaultMessage(in Input) string {
	p, _ := in.Params.(ChoiceParams)
	if c.negate {
		return fmt.Sprintf("must not be one of [%s]", formatList(p.List))
	}

	return fmt.Sprintf("must be one of [%s]", formatList(p.List))
}

// patternCache holds compiled regular expressions keyed by pattern source.
// Compile errors are not cached; they fault on every evaluation.
var patternCache sync.Map // map[string]*regexp.Regexp

// compiledPattern returns the compiled form of pattern, compiling and
// caching on first use.
func compiledPattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		if re, reOk := cached.(*regexp.Regexp); reOk {
			return re, nil
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, loaded := patternCache.LoadOrStore(pattern, re)
	if loaded {
		if cached, ok := actual.(*regexp.Regexp); ok {
			return cached, nil
		}
	}

	return re, nil
}

// matchesConstraint evaluates [KindMatches]. Only string values can match;
// anything else is a violation.
type matchesConstraint struct{}

func (matchesConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	p, ok := in.Params.(MatchParams)
	if !ok {
		return false, wrongParams(in, "MatchParams")
	}
	if p.Pattern == "" {
		return false, fmt.Errorf("%w: field %q: empty pattern", ErrBadParams, in.Field)
	}

	re, err := compiledPattern(p.Pattern)
	if err != nil {
		return false, fmt.Errorf("%w: pattern %q: %w", ErrBadParams, p.Pattern, err)
	}

	s, isString := in.Value.(string)
	if !isString {
		return false, nil
	}

	return re.MatchString(s), nil
}

func (matchesConstraint) DefaultMessage(in Input) string {
	p, _ := in.Params.(MatchParams)

	return fmt.Sprintf("must match pattern %q", p.Pattern)
}

// reSlug accepts lowercase letters, numbers, and hyphens.
var reSlug = regexp.MustCompile(`^[a-z0-9-]+$`)

// formatTags maps [Format] names to go-playground/validator tags. The UUID
// family and [FormatSlug] are checked directly instead.
var formatTags = map[Format]string{
	FormatEmail:        "email",
	FormatURL:          "url",
	FormatURI:          "uri",
	FormatIP:           "ip",
	FormatIPv4:         "ipv4",
	FormatIPv6:         "ipv6",
	FormatMAC:          "mac",
	FormatHostname:     "hostname",
	FormatFQDN:         "fqdn",
	FormatAlpha:        "alpha",
	FormatAlphanumeric: "alphanum",
	FormatNumeric:      "numeric",
	FormatHexadecimal:  "hexadecimal",
	FormatBase64:       "base64",
	FormatLowercase:    "lowercase",
	FormatUppercase:    "uppercase",
	FormatE164:         "e164",
	FormatLatitude:     "latitude",
	FormatLongitude:    "longitude",
	FormatJSON:         "json",
	FormatJWT:          "jwt",
	FormatSemver:       "semver",
}

// formatMessages holds per-format violation messages. Formats without an
// entry fall back to "must be a valid <format>".
var formatMessages = map[Format]string{
	FormatEmail:        "must be a valid email address",
	FormatURL:          "must be a valid URL",
	FormatUUID:         "must be a valid UUID",
	FormatUUIDv4:       "must be a valid UUIDv4",
	FormatUUIDv5:       "must be a valid UUIDv5",
	FormatAlphanumeric: "must contain only letters and numbers",
	FormatSlug:         "must be lowercase letters, numbers, and hyphens",
	FormatE164:         "must be a valid E.164 phone number",
}

// formatConstraint evaluates [KindFormat]. Format predicates delegate to a
// shared go-playground/validator instance in Var mode; the UUID family is
// parsed with google/uuid so version checks are exact.
type formatConstraint struct {
	vt *validator.Validate
}

func newFormatConstraint() *formatConstraint {
	return &formatConstraint{
		vt: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (c *formatConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	p, ok := in.Params.(FormatParams)
	if !ok {
		return false, wrongParams(in, "FormatParams")
	}

	s, isString := in.Value.(string)
	if !isString {
		return false, nil
	}

	switch p.Format {
	case FormatUUID:
		_, err := uuid.Parse(s)

		return err == nil, nil
	case FormatUUIDv4:
		return parsesAsUUIDVersion(s, 4), nil
	case FormatUUIDv5:
		return parsesAsUUIDVersion(s, 5), nil
	case FormatSlug:
		return reSlug.MatchString(s), nil
	default:
		tag, known := formatTags[p.Format]
		if !known {
			return false, fmt.Errorf("%w: unknown format %q", ErrBadParams, p.Format)
		}

		return c.vt.Var(s, tag) == nil, nil
	}
}

func (c *formatConstraint) DefaultMessage(in Input) string {
	p, _ := in.Params.(FormatParams)
	if msg, ok := formatMessages[p.Format]; ok {
		return msg
	}

	return fmt.Sprintf("must be a valid %s", p.Format)
}

// parsesAsUUIDVersion reports whether s is a UUID of the given version.
func parsesAsUUIDVersion(s string, version int) bool {
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}

	return int(u.Version()) == version
}
