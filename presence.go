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
	"strconv"
	"strings"
)

// PresenceMap tracks which fields appeared in a request body. Keys are
// normalized dot paths using JSON field names (e.g., "items.2.price").
//
// When supplied via [WithPresence], the executor treats a field as missing
// when its path is absent from the map, instead of inspecting the Go value.
// Combined with [WithSkipMissing] this gives partial (PATCH-style)
// validation: only the fields the client actually sent are checked.
type PresenceMap map[string]bool

// Has returns true if the exact path is present.
func (pm PresenceMap) Has(path string) bool {
	return pm != nil && pm[path]
}

// HasPrefix returns true if the path itself or any path beneath it is
// present. Useful for checking whether a nested object contributed anything.
func (pm PresenceMap) HasPrefix(prefix string) bool {
	if pm == nil {
		return false
	}

	prefixDot := prefix + "."
	for path := range pm {
		if path == prefix || strings.HasPrefix(path, prefixDot) {
			return true
		}
	}

	return false
}

// ComputePresence analyzes raw JSON and returns the set of present field
// paths, including every array element.
//
// Example:
//
//	raw := []byte(`{"user": {"name": "Alice", "age": 0}}`)
//	pm, err := rules.ComputePresence(raw)
//	// pm: {"user": true, "user.name": true, "user.age": true}
//
// Note that present-with-zero-value ("age": 0) and absent are different
// states; that distinction is the whole point of the map.
//
// Recursion stops at the default depth limit to keep hostile inputs from
// overflowing the stack.
func ComputePresence(rawJSON []byte) (PresenceMap, error) {
	if len(rawJSON) == 0 {
		return nil, nil
	}

	var data map[string]any
	if err := json.Unmarshal(rawJSON, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON for presence tracking: %w", err)
	}

	pm := make(PresenceMap)
	markPresence(data, "", pm, 0)

	return pm, nil
}

// markPresence recursively marks fields as present.
func markPresence(m map[string]any, prefix string, pm PresenceMap, depth int) {
	if depth > defaultMaxDepth {
		return
	}

	for key, value := range m {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		pm[path] = true

		if nested, ok := value.(map[string]any); ok {
			markPresence(nested, path, pm, depth+1)
		}

		if arr, ok := value.([]any); ok {
			for i, item := range arr {
				itemPath := path + "." + strconv.Itoa(i)
				pm[itemPath] = true
				if nestedMap, ok := item.(map[string]any); ok {
					markPresence(nestedMap, itemPath, pm, depth+1)
				}
			}
		}
	}
}
