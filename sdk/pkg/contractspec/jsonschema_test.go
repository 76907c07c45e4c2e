// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
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
package contractspec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/iancoleman/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaJSON(t *testing.T, s *Spec, fn string) map[string]any {
	schema, err := s.JSONSchema(t.Context(), fn)
	require.NoError(t, err)
	b, err := json.Marshal(schema)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(b, &generic))
	return generic
}

func TestJSONSchemaFunction(t *testing.T) {
	_, s := newTestSpec(t)
	schema := schemaJSON(t, s, "multi_args")
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", schema["$schema"])
	assert.Equal(t, "#/definitions/multi_args", schema["$ref"])

	defs := schema["definitions"].(map[string]any)
	for _, scalar := range []string{"U32", "I32", "U64", "I64", "U128", "I128", "U256", "I256", "Address", "ScString", "ScSymbol", "DataUrl"} {
		assert.Contains(t, defs, scalar)
	}
	assert.Equal(t, "address", defs["Address"].(map[string]any)["format"])

	// Only the selected function is defined
	assert.Contains(t, defs, "multi_args")
	assert.NotContains(t, defs, "u32_")
	assert.Contains(t, defs, "Strukt")

	fn := defs["multi_args"].(map[string]any)
	args := fn["properties"].(map[string]any)["args"].(map[string]any)
	assert.Equal(t, []any{"a", "b"}, args["required"])
	props := args["properties"].(map[string]any)
	assert.Equal(t, "#/definitions/U32", props["a"].(map[string]any)["$ref"])
	assert.Equal(t, "boolean", props["b"].(map[string]any)["type"])
}

func TestJSONSchemaTypes(t *testing.T) {
	_, s := newTestSpec(t)
	defs := schemaJSON(t, s, "")["definitions"].(map[string]any)

	// All functions when none is selected
	assert.Contains(t, defs, "u32_")
	assert.Contains(t, defs, "giga_map")

	strukt := defs["Strukt"].(map[string]any)
	assert.Equal(t, "object", strukt["type"])
	assert.Equal(t, []any{"a", "b", "c"}, strukt["required"])
	assert.Equal(t, false, strukt["additionalProperties"])

	withOption := defs["WithOption"].(map[string]any)
	assert.Equal(t, []any{"required"}, withOption["required"])
	optional := withOption["properties"].(map[string]any)["optional"].(map[string]any)
	assert.Len(t, optional["oneOf"], 2)

	tupleStrukt := defs["TupleStrukt"].(map[string]any)
	assert.Equal(t, "array", tupleStrukt["type"])
	assert.Equal(t, float64(2), tupleStrukt["minItems"])

	complexEnum := defs["ComplexEnum"].(map[string]any)
	cases := complexEnum["oneOf"].([]any)
	require.Len(t, cases, 5)
	asset := cases[3].(map[string]any)
	assert.Equal(t, "Asset", asset["title"])
	assert.Equal(t, []any{"tag", "values"}, asset["required"])
	void := cases[4].(map[string]any)
	assert.Equal(t, []any{"tag"}, void["required"])

	card := defs["RoyalCard"].(map[string]any)["oneOf"].([]any)
	assert.Equal(t, float64(11), card[0].(map[string]any)["const"])

	errEnum := defs["Error"].(map[string]any)["oneOf"].([]any)
	assert.Equal(t, "Please provide an odd number", errEnum[0].(map[string]any)["description"])

	mapArgs := defs["map"].(map[string]any)["properties"].(map[string]any)["args"].(map[string]any)
	mapSchema := mapArgs["properties"].(map[string]any)["map"].(map[string]any)
	assert.Equal(t, "array", mapSchema["type"])
	pair := mapSchema["items"].(map[string]any)
	assert.Equal(t, float64(2), pair["maxItems"])

	bytesN := defs["bytes_n"].(map[string]any)["properties"].(map[string]any)["args"].(map[string]any)["properties"].(map[string]any)["bytes_n"].(map[string]any)
	assert.Equal(t, "string", bytesN["type"])
	assert.Equal(t, float64(12), bytesN["minLength"])
	assert.Equal(t, float64(12), bytesN["maxLength"])
	assert.Equal(t, "^[A-Za-z0-9+\\/]{12}$", bytesN["pattern"])
}

func TestBytesNSchemaLengths(t *testing.T) {
	for n := 0; n <= 33; n++ {
		frag := bytesNSchema(n)
		pattern, _ := frag.Get("pattern")
		re := regexp.MustCompile(pattern.(string))
		minLength, _ := frag.Get("minLength")
		maxLength, _ := frag.Get("maxLength")

		valid := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xfe}, n))
		assert.True(t, re.MatchString(valid), "n=%d %s", n, valid)
		assert.Equal(t, len(valid), minLength, "n=%d", n)
		assert.Equal(t, len(valid), maxLength, "n=%d", n)

		for _, short := range []int{n - 1, n - 2, n + 1} {
			if short < 0 {
				continue
			}
			other := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xfe}, short))
			assert.False(t, re.MatchString(other), "n=%d accepted %d bytes", n, short)
		}
	}
	// Padded to the right length, but only 7 bytes
	pattern, _ := bytesNSchema(9).Get("pattern")
	assert.NotRegexp(t, pattern.(string), "AAAAAAAAAA==")
}

func TestJSONSchemaOrderedOutput(t *testing.T) {
	_, s := newTestSpec(t)
	schema, err := s.JSONSchema(t.Context(), "hello")
	require.NoError(t, err)
	b, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), `{"$schema":"http://json-schema.org/draft-07/schema#","$ref":"#/definitions/hello","definitions":{"U32":`), string(b))

	defs, ok := schema.Get("definitions")
	require.True(t, ok)
	keys := defs.(*orderedmap.OrderedMap).Keys()
	assert.Equal(t, "U32", keys[0])
	assert.Equal(t, "DataUrl", keys[11])
	assert.Equal(t, "Strukt", keys[12])
}

func TestJSONSchemaUnknownFunction(t *testing.T) {
	_, s := newTestSpec(t)
	_, err := s.JSONSchema(t.Context(), "Strukt")
	assert.Regexp(t, "SB010111.*SB010104", err)
}
