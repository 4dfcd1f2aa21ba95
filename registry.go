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
	"sync"
)

// Registry stores rule descriptors per owner type. Registration is
// append-only: duplicate descriptors are kept and each one runs.
//
// A type's effective rules are its own descriptors plus those inherited from
// its ancestors, ancestors first. Ancestry comes from two sources:
//   - an explicit parent link set with [Registry.SetParent] (used by
//     [RuleSet] documents via "extends")
//   - anonymous (embedded) struct fields, in declaration order
//
// The intended lifecycle is register-at-startup, read-at-runtime. Reads are
// safe to run concurrently with each other and with late registrations, but
// a validation run that races a registration may or may not see the new rule.
//
// Use [DefaultRegistry] for the package-wide instance that [For], [Register],
// and [Validate] operate on, or [NewRegistry] for an isolated one.
type Registry struct {
	mu       sync.RWMutex
	rules    map[reflect.Type][]Descriptor
	parents  map[reflect.Type]reflect.Type
	resolved map[reflect.Type][]Descriptor // merged-lineage cache
	gen      uint64                        // bumped on every mutation to invalidate resolved
}

// NewRegistry returns an empty, independent [Registry].
func NewRegistry() *Registry {
	return &Registry{
		rules:    make(map[reflect.Type][]Descriptor),
		parents:  make(map[reflect.Type]reflect.Type),
		resolved: make(map[reflect.Type][]Descriptor),
	}
}

// Register appends a descriptor to its owner type's rule list.
// Register never rejects or deduplicates; registering the same rule twice
// means it runs twice and reports two violations.
//
// Register panics on a nil owner or empty field name, which can only come
// from hand-built descriptors.
func (r *Registry) Register(d Descriptor) {
	if d.Owner == nil {
		panic("rules: descriptor owner must not be nil")
	}
	if d.FieldName == "" {
		panic("rules: descriptor field name must not be empty")
	}
	d.Owner = indirectType(d.Owner)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules[d.Owner] = append(r.rules[d.Owner], d)
	r.invalidate()
}

// SetParent links child to an explicit ancestor. The child then inherits the
// parent's rules (and transitively the parent's own ancestors), evaluated
// before the child's rules. Embedded struct lineage needs no link; it is
// discovered from the type itself.
func (r *Registry) SetParent(child, parent reflect.Type) {
	if child == nil || parent == nil {
		panic("rules: parent link types must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.parents[indirectType(child)] = indirectType(parent)
	r.invalidate()
}

// Parent returns the explicit ancestor of t, if one was set.
func (r *Registry) Parent(t reflect.Type) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parents[indirectType(t)]

	return p, ok
}

// DescriptorsFor returns the effective descriptors for t: ancestor rules
// first (most-base first), then t's own, each group in registration order.
// The returned slice is a copy; callers can hold it across mutations.
func (r *Registry) DescriptorsFor(t reflect.Type) []Descriptor {
	t = indirectType(t)

	r.mu.RLock()
	if cached, ok := r.resolved[t]; ok {
		out := make([]Descriptor, len(cached))
		copy(out, cached)
		r.mu.RUnlock()

		return out
	}
	gen := r.gen
	merged := r.mergeLineage(t, make(map[reflect.Type]bool))
	r.mu.RUnlock()

	r.mu.Lock()
	// Cache only if nothing changed while computing.
	if r.gen == gen {
		r.resolved[t] = merged
	}
	r.mu.Unlock()

	out := make([]Descriptor, len(merged))
	copy(out, merged)

	return out
}

// HasRulesFor reports whether t has any effective descriptors, inherited or
// its own. Lets callers distinguish "valid" from "nothing was checked".
func (r *Registry) HasRulesFor(t reflect.Type) bool {
	return len(r.DescriptorsFor(t)) > 0
}

// Types returns the owner types with directly registered rules.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reflect.Type, 0, len(r.rules))
	for t := range r.rules {
		out = append(out, t)
	}

	return out
}

// Reset drops every descriptor and parent link. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = make(map[reflect.Type][]Descriptor)
	r.parents = make(map[reflect.Type]reflect.Type)
	r.invalidate()
}

// invalidate clears the resolved cache. Callers must hold the write lock.
func (r *Registry) invalidate() {
	r.resolved = make(map[reflect.Type][]Descriptor)
	r.gen++
}

// mergeLineage collects descriptors for t and its ancestors, most-base
// first: the explicit parent chain, then embedded structs in declaration
// order, then t's own rules. The visited set breaks cycles and keeps
// diamond-shaped embedding from contributing a type twice.
// Callers must hold at least the read lock.
func (r *Registry) mergeLineage(t reflect.Type, visited map[reflect.Type]bool) []Descriptor {
	if visited[t] {
		return nil
	}
	visited[t] = true

	var out []Descriptor

	if parent, ok := r.parents[t]; ok {
		out = append(out, r.mergeLineage(parent, visited)...)
	}

	if t.Kind() == reflect.Struct {
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.Anonymous {
				continue
			}
			out = append(out, r.mergeLineage(indirectType(field.Type), visited)...)
		}
	}

	out = append(out, r.rules[t]...)

	return out
}

// indirectType strips pointer wrapping so *T and T share one rule list.
func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t
}

// Package-level registry state for [For], [Register], and [Validate].
var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the package-wide [Registry], creating it on first
// use. [For], [Register], and [Validate] all operate on it unless told
// otherwise with [WithRegistry].
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})

	return defaultRegistry
}

// Register appends a descriptor to the default registry.
// Most callers use the [For] builder or a [RuleSet] document instead.
func Register(d Descriptor) {
	DefaultRegistry().Register(d)
}

// Reset clears the default registry and the default catalog's custom
// constraints. Intended for tests that share package-level state.
func Reset() {
	DefaultRegistry().Reset()
	DefaultCatalog().Reset()
}
