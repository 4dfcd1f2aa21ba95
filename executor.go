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
	"sort"
	"strconv"
	"strings"
)

// executor walks one object graph against one resolved configuration.
// A fresh executor serves each validation run; registry and catalog are
// only ever read.
type executor struct {
	cfg      *config
	registry *Registry
	catalog  *Catalog
}

// element is one evaluation target produced by [Options.Each]: a slice or
// array element (label = index), a map value (label = key, index -1), or the
// whole value itself (label "", index -1).
type element struct {
	label string
	index int
	value any
}

// evalSlot records one scheduled evaluation in registration order. Sync
// results land immediately; async results land when the outcome is awaited.
// Nested slots carry child subtrees instead of a pass/fail result.
type evalSlot struct {
	desc       Descriptor
	ruleID     string
	elem       string
	index      int
	in         Input
	constraint Constraint
	outcome    *Outcome // non-nil while an async result is pending
	ok         bool
	nested     bool
	children   []*PropertyError
}

// fieldEval groups the descriptors and evaluation slots of one field.
type fieldEval struct {
	name    string // Go field name
	label   string // JSON-mapped name, used in paths and the violation tree
	path    string
	value   any
	missing bool
	descs   []Descriptor
	slots   []*evalSlot
}

// validateStruct evaluates every applicable rule for one struct node and
// returns its property subtrees. The error return is a configuration fault;
// violations never appear there.
//
// Evaluation order is the registration order reported by
// [Registry.DescriptorsFor], grouped by field in first-seen order.
// Asynchronous constraints are scheduled as they are encountered and awaited
// collectively before the node's tree is assembled, so completion order
// never reorders violations.
func (e *executor) validateStruct(ctx context.Context, rv reflect.Value, path string, depth int) ([]*PropertyError, error) {
	maxDepth := e.cfg.maxDepth
	if maxDepth == 0 {
		maxDepth = defaultMaxDepth
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: limit %d at %q", ErrMaxDepthExceeded, maxDepth, path)
	}

	t := rv.Type()
	descs := e.registry.DescriptorsFor(t)
	if len(descs) == 0 {
		return nil, nil
	}

	subject := rv.Interface()

	fields, err := e.groupByField(t, rv, path, descs)
	if err != nil {
		return nil, err
	}

	var pendings []*evalSlot

fieldLoop:
	for _, fe := range fields {
		for _, d := range fe.descs {
			// Missing-field skip runs before the group filter; Always
			// bypasses only this check.
			if fe.missing && e.cfg.skipMissing && !d.Options.Always {
				continue
			}
			if !groupsMatch(e.cfg.groups, d.Options.Groups) {
				continue
			}
			if d.Options.When != nil && !d.Options.When(subject) {
				continue
			}
			if d.Options.WhenExpr != "" {
				run, err := evalExprBool(d.Options.WhenExpr, exprEnv(Input{
					Value:   fe.value,
					Subject: subject,
					Field:   fe.name,
					Index:   -1,
				}))
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", fe.path, err)
				}
				if !run {
					continue
				}
			}

			if d.Kind == KindNested {
				children, err := e.validateNested(ctx, fe, d, depth)
				if err != nil {
					return nil, err
				}
				if len(children) == 0 {
					continue
				}
				fe.slots = append(fe.slots, &evalSlot{desc: d, nested: true, children: children})
				if e.cfg.stopFirst && len(pendings) == 0 {
					break fieldLoop
				}

				continue
			}

			constraint, err := e.catalog.resolve(d)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", fe.path, err)
			}

			targets := []element{{label: "", index: -1, value: fe.value}}
			if d.Options.Each {
				targets = elementsOf(fe.value)
			}

			for _, el := range targets {
				in := Input{
					Value:   el.value,
					Subject: subject,
					Field:   fe.name,
					Path:    fe.path,
					Index:   el.index,
					Params:  d.Params,
					Context: d.Options.Context,
				}
				slot := &evalSlot{
					desc:       d,
					ruleID:     d.RuleID(),
					elem:       el.label,
					index:      el.index,
					in:         in,
					constraint: constraint,
				}
				fe.slots = append(fe.slots, slot)

				if async, isAsync := constraint.(AsyncConstraint); isAsync {
					slot.outcome = async.EvaluateAsync(ctx, in)
					pendings = append(pendings, slot)

					continue
				}

				ok, err := constraint.Evaluate(ctx, in)
				if err != nil {
					return nil, fmt.Errorf("field %q rule %q: %w", fe.path, slot.ruleID, err)
				}
				slot.ok = ok

				// With everything so far synchronous, the first failure is
				// provably first in canonical order: stop evaluating.
				if !ok && e.cfg.stopFirst && len(pendings) == 0 {
					break fieldLoop
				}
			}
		}
	}

	for _, slot := range pendings {
		ok, err := slot.outcome.Await(ctx)
		if err != nil {
			return nil, fmt.Errorf("field %q rule %q: %w", slot.in.Path, slot.ruleID, err)
		}
		slot.ok = ok
	}

	if e.cfg.stopFirst {
		return e.assembleFirst(fields), nil
	}

	return e.assemble(fields), nil
}

// groupByField groups descriptors by field name in first-seen order and
// resolves each field's value, path, and missing state once.
func (e *executor) groupByField(t reflect.Type, rv reflect.Value, path string, descs []Descriptor) ([]*fieldEval, error) {
	var fields []*fieldEval
	byName := make(map[string]*fieldEval)

	for _, d := range descs {
		fe, seen := byName[d.FieldName]
		if !seen {
			sf, found := t.FieldByName(d.FieldName)
			if !found {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, t.Name(), d.FieldName)
			}
			if sf.PkgPath != "" {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnexportedField, t.Name(), d.FieldName)
			}

			label := jsonFieldName(sf)
			fieldPath := joinPath(path, label)

			// A field promoted through a nil embedded pointer reads as
			// absent, like any other nil field.
			fv, err := rv.FieldByIndexErr(sf.Index)
			if err != nil {
				fv = reflect.Value{}
			}
			value, missing := e.fieldState(fv, fieldPath)

			fe = &fieldEval{
				name:    d.FieldName,
				label:   label,
				path:    fieldPath,
				value:   value,
				missing: missing,
			}
			byName[d.FieldName] = fe
			fields = append(fields, fe)
		}
		fe.descs = append(fe.descs, d)
	}

	return fields, nil
}

// validateNested recurses into a struct-valued field, or into each struct
// element when the rule has [Options.Each] and the value is a collection.
// Nil values and nil elements are skipped; pair with [Required] to reject
// them.
func (e *executor) validateNested(ctx context.Context, fe *fieldEval, d Descriptor, depth int) ([]*PropertyError, error) {
	if isNilValue(fe.value) {
		return nil, nil
	}

	rv := reflect.ValueOf(fe.value)
	isCollection := rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array || rv.Kind() == reflect.Map

	if d.Options.Each && isCollection {
		var children []*PropertyError
		for _, el := range elementsOf(fe.value) {
			if isNilValue(el.value) {
				continue
			}

			erv := reflect.Indirect(reflect.ValueOf(el.value))
			if erv.Kind() != reflect.Struct {
				return nil, fmt.Errorf("%w: nested each on field %q requires struct elements, got %s", ErrBadParams, fe.path, erv.Kind())
			}

			props, err := e.validateStruct(ctx, erv, joinPath(fe.path, el.label), depth+1)
			if err != nil {
				return nil, err
			}
			if len(props) > 0 {
				children = append(children, &PropertyError{Field: el.label, Children: props})

				// The first violating element already holds the first
				// violation in canonical order: stop walking.
				if e.cfg.stopFirst {
					break
				}
			}
		}

		return children, nil
	}

	nrv := reflect.Indirect(rv)
	if nrv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: nested rule on field %q requires a struct, got %s", ErrBadParams, fe.path, nrv.Kind())
	}

	return e.validateStruct(ctx, nrv, fe.path, depth+1)
}

// assemble builds the property subtrees for a node once every slot has its
// result. Fields with no violations and no violating children produce no
// node at all.
func (e *executor) assemble(fields []*fieldEval) []*PropertyError {
	var props []*PropertyError
	for _, fe := range fields {
		var vs Violations
		var children []*PropertyError

		for _, slot := range fe.slots {
			if slot.nested {
				children = append(children, slot.children...)
				continue
			}
			if slot.ok {
				continue
			}
			vs.append(e.newViolation(slot))
		}

		if len(vs) == 0 && len(children) == 0 {
			continue
		}
		props = append(props, e.newPropertyError(fe, vs, children))
	}

	return props
}

// assembleFirst returns the subtree holding only the first violation in
// canonical order. Nested children were produced by recursive calls sharing
// this configuration, so they are already truncated.
func (e *executor) assembleFirst(fields []*fieldEval) []*PropertyError {
	for _, fe := range fields {
		for _, slot := range fe.slots {
			if slot.nested {
				if len(slot.children) > 0 {
					return []*PropertyError{e.newPropertyError(fe, nil, slot.children)}
				}

				continue
			}
			if !slot.ok {
				var vs Violations
				vs.append(e.newViolation(slot))

				return []*PropertyError{e.newPropertyError(fe, vs, nil)}
			}
		}
	}

	return nil
}

func (e *executor) newPropertyError(fe *fieldEval, vs Violations, children []*PropertyError) *PropertyError {
	value := fe.value
	if e.cfg.redactor != nil && e.cfg.redactor(fe.path) {
		value = redactedValue
	}

	return &PropertyError{
		Field:      fe.label,
		Value:      value,
		Violations: vs,
		Children:   children,
	}
}

func (e *executor) newViolation(slot *evalSlot) Violation {
	key := slot.ruleID
	if slot.elem != "" {
		key = fmt.Sprintf("%s[%s]", slot.ruleID, slot.elem)
	}

	param := any(slot.desc.Params)
	switch param.(type) {
	case RequiredParams, NestedParams, nil:
		param = nil
	}

	return Violation{
		Key:     key,
		Rule:    slot.ruleID,
		Message: e.message(slot),
		Index:   slot.index,
		Param:   param,
		Context: slot.desc.Options.Context,
	}
}

// message resolves the violation message: descriptor override first, then
// the constraint's default, then a generic fallback.
func (e *executor) message(slot *evalSlot) string {
	if slot.desc.Options.Message != "" {
		return slot.desc.Options.Message
	}
	if messager, ok := slot.constraint.(DefaultMessager); ok {
		if msg := messager.DefaultMessage(slot.in); msg != "" {
			return msg
		}
	}

	return fmt.Sprintf("failed validation (%s)", slot.ruleID)
}

// fieldState resolves a field's evaluation value and missing state.
// With a [PresenceMap] configured, missing means the path was not in the
// request; otherwise it means the Go value is nil. Non-nil pointers and
// interfaces are dereferenced for evaluation.
func (e *executor) fieldState(fv reflect.Value, path string) (any, bool) {
	if !fv.IsValid() {
		return nil, true
	}

	var missing bool
	if e.cfg.presence != nil {
		missing = !e.cfg.presence.Has(path) && !e.cfg.presence.HasPrefix(path)
	} else {
		missing = isNilReflectValue(fv)
	}

	rv := fv
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return fv.Interface(), missing
		}
		rv = rv.Elem()
	}

	return rv.Interface(), missing
}

// isNilReflectValue reports whether v holds a nil of a nilable kind.
func isNilReflectValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// groupsMatch applies the group filter: an empty side always matches.
func groupsMatch(called, ruleGroups []string) bool {
	if len(called) == 0 || len(ruleGroups) == 0 {
		return true
	}

	for _, g := range ruleGroups {
		for _, c := range called {
			if g == c {
				return true
			}
		}
	}

	return false
}

// elementsOf expands a value into its evaluation targets for [Options.Each]:
// slice and array elements indexed in order, map values sorted by rendered
// key, and the value itself for anything else.
func elementsOf(value any) []element {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]element, 0, rv.Len())
		for i := range rv.Len() {
			out = append(out, element{label: strconv.Itoa(i), index: i, value: rv.Index(i).Interface()})
		}

		return out

	case reflect.Map:
		keys := rv.MapKeys()
		labels := make([]string, 0, len(keys))
		byLabel := make(map[string]reflect.Value, len(keys))
		for _, k := range keys {
			label := fmt.Sprint(k.Interface())
			labels = append(labels, label)
			byLabel[label] = k
		}
		sort.Strings(labels)

		out := make([]element, 0, len(labels))
		for _, label := range labels {
			out = append(out, element{label: label, index: -1, value: rv.MapIndex(byLabel[label]).Interface()})
		}

		return out

	default:
		if !rv.IsValid() {
			return nil
		}

		return []element{{label: "", index: -1, value: value}}
	}
}

// jsonFieldName maps a struct field to its JSON name: the first segment of
// the json tag, or the Go field name when untagged (or tagged "-").
func jsonFieldName(sf reflect.StructField) string {
	name := sf.Tag.Get("json")
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

// joinPath appends a segment to a dot path.
func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}
