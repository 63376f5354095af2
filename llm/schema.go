/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package llm

import (
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// StructuredSpec wraps a JSON-Schema node describing the shape an Ask call
// should return. It is the return type of every Helpers builder method.
type StructuredSpec struct {
	schema *jsonschema.Schema
}

// Schema exposes the underlying jsonschema.Schema, e.g. for embedding in a
// prompt via String().
func (s *StructuredSpec) Schema() *jsonschema.Schema { return s.schema }

// String renders the schema as JSON text, suitable for embedding directly
// in a prompt instructing the model on the exact output shape expected.
func (s *StructuredSpec) String() string {
	b, err := s.schema.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Helpers is the structured-output schema builder namespace a Widget
// exposes when the host supports forcing shaped JSON output (spec.md §6).
// A Widget with no structured-output support returns a nil Helpers, and
// callers fall back to prose parsing.
type Helpers interface {
	Object(properties map[string]*StructuredSpec, required []string) *StructuredSpec
	Array(items *StructuredSpec) *StructuredSpec
	String() *StructuredSpec
	Number() *StructuredSpec
	Boolean() *StructuredSpec
	Select(options ...string) *StructuredSpec
}

// jsonschemaHelpers is the concrete Helpers backing the default Widget,
// built on invopop/jsonschema — the schema library already present in the
// teacher's dependency graph (used indirectly to describe structured tool
// output).
type jsonschemaHelpers struct{}

var _ Helpers = jsonschemaHelpers{}

// NewJSONSchemaHelpers returns the default Helpers implementation, for
// embedders and tests that want real schema construction without a full
// DefaultWidget.
func NewJSONSchemaHelpers() Helpers {
	return jsonschemaHelpers{}
}

func (jsonschemaHelpers) Object(properties map[string]*StructuredSpec, required []string) *StructuredSpec {
	props := orderedmap.New[string, *jsonschema.Schema]()
	// Deterministic order keeps prompt text stable across calls for the
	// same shape, which matters when prompts are cached upstream.
	for _, name := range sortedKeys(properties) {
		props.Set(name, properties[name].schema)
	}
	return &StructuredSpec{schema: &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}}
}

func (jsonschemaHelpers) Array(items *StructuredSpec) *StructuredSpec {
	return &StructuredSpec{schema: &jsonschema.Schema{
		Type:  "array",
		Items: items.schema,
	}}
}

func (jsonschemaHelpers) String() *StructuredSpec {
	return &StructuredSpec{schema: &jsonschema.Schema{Type: "string"}}
}

func (jsonschemaHelpers) Number() *StructuredSpec {
	return &StructuredSpec{schema: &jsonschema.Schema{Type: "number"}}
}

func (jsonschemaHelpers) Boolean() *StructuredSpec {
	return &StructuredSpec{schema: &jsonschema.Schema{Type: "boolean"}}
}

func (jsonschemaHelpers) Select(options ...string) *StructuredSpec {
	enum := make([]interface{}, len(options))
	for i, o := range options {
		enum[i] = o
	}
	return &StructuredSpec{schema: &jsonschema.Schema{Type: "string", Enum: enum}}
}

func sortedKeys(m map[string]*StructuredSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Simple insertion sort; property lists here are always small (a
	// handful of fields), so O(n^2) is irrelevant and this avoids pulling
	// in sort just for this.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
