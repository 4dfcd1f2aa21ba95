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
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Catalog binds rule kinds to the constraints that evaluate them, and holds
// custom constraints registered by name for [KindCustom] rules.
//
// [NewCatalog] binds every built-in kind; the catalog is then read-mostly and
// safe for concurrent use. Use [DefaultCatalog] for the package-wide instance
// or [WithCatalog] to validate against an isolated one.
type Catalog struct {
	mu      sync.RWMutex
	kinds   map[Kind]Constraint
	customs map[string]Constraint
}

// NewCatalog returns a [Catalog] with all built-in constraints bound and no
// custom constraints.
func NewCatalog() *Catalog {
	return &Catalog{
		kinds:   builtinConstraints(),
		customs: make(map[string]Constraint),
	}
}

// registerConfig holds internal registration configuration.
type registerConfig struct {
	override bool
}

// RegisterOption configures [Catalog.Register].
type RegisterOption func(*registerConfig)

// AllowOverride lets a registration replace an existing constraint with the
// same name instead of failing with [ErrDuplicateConstraint].
func AllowOverride() RegisterOption {
	return func(c *registerConfig) {
		c.override = true
	}
}

// Register adds a named custom constraint for use by [KindCustom] rules
// (see [Custom]). Registering a name twice returns [ErrDuplicateConstraint]
// unless [AllowOverride] is given; the first registration stays in place.
//
// Example:
//
//	err := catalog.Register("even", rules.ConstraintFunc(
//	    func(_ context.Context, in rules.Input) (bool, error) {
//	        n, ok := in.Value.(int)
//	        return ok && n%2 == 0, nil
//	    },
//	))
func (c *Catalog) Register(name string, constraint Constraint, opts ...RegisterOption) error {
	if name == "" {
		return errors.New("constraint name must not be empty")
	}
	if constraint == nil {
		return fmt.Errorf("constraint %q must not be nil", name)
	}

	cfg := &registerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.customs[name]; exists && !cfg.override {
		return fmt.Errorf("%w: %q", ErrDuplicateConstraint, name)
	}
	c.customs[name] = constraint

	return nil
}

// Lookup returns the custom constraint registered under name.
func (c *Catalog) Lookup(name string) (Constraint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	constraint, ok := c.customs[name]

	return constraint, ok
}

// Names returns the registered custom constraint names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.customs))
	for name := range c.customs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Reset drops every custom constraint, keeping the built-in kind bindings.
// Intended for tests.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.customs = make(map[string]Constraint)
}

// resolve returns the constraint that evaluates d: the named custom
// constraint for [KindCustom] ([ErrUnknownConstraint] if missing), the
// built-in binding otherwise ([ErrUnsupportedKind] if the kind has none).
func (c *Catalog) resolve(d Descriptor) (Constraint, error) {
	if d.Kind == KindCustom {
		p, ok := d.Params.(CustomParams)
		if !ok || p.Name == "" {
			return nil, fmt.Errorf("%w: custom rule needs CustomParams with a name", ErrBadParams)
		}

		c.mu.RLock()
		constraint, found := c.customs[p.Name]
		c.mu.RUnlock()

		if !found {
			return nil, fmt.Errorf("%w: %q", ErrUnknownConstraint, p.Name)
		}

		return constraint, nil
	}

	c.mu.RLock()
	constraint, found := c.kinds[d.Kind]
	c.mu.RUnlock()

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, d.Kind)
	}

	return constraint, nil
}

// Package-level catalog state for [RegisterConstraint] and [Validate].
var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the package-wide [Catalog], creating it on first
// use. [Validate] resolves constraints against it unless told otherwise with
// [WithCatalog].
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = NewCatalog()
	})

	return defaultCatalog
}

// RegisterConstraint adds a named custom constraint to the default catalog.
// See [Catalog.Register] for semantics.
//
// Example:
//
//	err := rules.RegisterConstraint("even", evenConstraint{})
func RegisterConstraint(name string, constraint Constraint, opts ...RegisterOption) error {
	return DefaultCatalog().Register(name, constraint, opts...)
}
