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
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// maxCachedSchemas caps the compiled-schema cache; the least recently used
// entry is evicted beyond it.
const maxCachedSchemas = 1024

// schemaCacheEntry holds a compiled schema and its last access time for LRU
// eviction.
type schemaCacheEntry struct {
	schema     *jsonschema.Schema
	lastAccess atomic.Int64 // Unix nanoseconds
}

// schemaConstraint evaluates [KindSchema]: the value, serialized to JSON,
// must validate against the descriptor's JSON Schema. Compiled schemas are
// cached by [SchemaParams.ID] (or by source when no ID is set).
type schemaConstraint struct {
	mu    sync.RWMutex
	cache map[string]*schemaCacheEntry
}

func newSchemaConstraint() *schemaConstraint {
	return &schemaConstraint{
		cache: make(map[string]*schemaCacheEntry),
	}
}

func (c *schemaConstraint) Evaluate(_ context.Context, in Input) (bool, error) {
	p, ok := in.Params.(SchemaParams)
	if !ok {
		return false, wrongParams(in, "SchemaParams")
	}
	if p.Source == "" {
		return false, fmt.Errorf("%w: field %q: empty schema", ErrBadParams, in.Field)
	}

	schema, err := c.compiled(p)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBadParams, err)
	}

	raw, err := json.Marshal(in.Value)
	if err != nil {
		return false, fmt.Errorf("%w: field %q does not serialize for schema validation: %w", ErrBadParams, in.Field, err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return false, fmt.Errorf("%w: field %q: %w", ErrBadParams, in.Field, err)
	}

	if err := schema.Validate(data); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return false, nil
		}

		return false, fmt.Errorf("%w: %w", ErrBadParams, err)
	}

	return true, nil
}

func (*schemaConstraint) DefaultMessage(in Input) string {
	p, _ := in.Params.(SchemaParams)
	if p.ID != "" {
		return fmt.Sprintf("must match schema %q", p.ID)
	}

	return "must match the declared schema"
}

// compiled returns the compiled schema for p from the cache, compiling and
// caching on a miss with LRU eviction at [maxCachedSchemas].
func (c *schemaConstraint) compiled(p SchemaParams) (*jsonschema.Schema, error) {
	key := p.ID
	if key == "" {
		key = p.Source
	}
	now := time.Now().UnixNano()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok {
		schema := entry.schema
		c.mu.RUnlock()
		entry.lastAccess.Store(now)

		return schema, nil
	}
	c.mu.RUnlock()

	schema, err := compileSchema(p.ID, p.Source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.cache[key]; ok {
		entry.lastAccess.Store(now)

		return entry.schema, nil
	}

	if len(c.cache) >= maxCachedSchemas {
		var oldestKey string
		var oldestNano int64
		found := false

		for cacheKey, entry := range c.cache {
			entryNano := entry.lastAccess.Load()
			if !found || entryNano < oldestNano {
				oldestKey = cacheKey
				oldestNano = entryNano
				found = true
			}
		}

		if found {
			delete(c.cache, oldestKey)
		}
	}

	entry := &schemaCacheEntry{schema: schema}
	entry.lastAccess.Store(now)
	c.cache[key] = entry

	return schema, nil
}

// compileSchema compiles a JSON Schema from its JSON source.
func compileSchema(id, source string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	compiler.AssertContent()

	var doc any
	if err := json.Unmarshal([]byte(source), &doc); err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}

	url := id
	if url == "" {
		url = "schema.json"
	}
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
}
