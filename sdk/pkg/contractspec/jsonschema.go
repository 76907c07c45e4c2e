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
	"context"
	"fmt"

	"github.com/iancoleman/orderedmap"
	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/xdr"
)

const jsonSchemaDraft = "http://json-schema.org/draft-07/schema#"

func obj(kv ...any) *orderedmap.OrderedMap {
	m := orderedmap.New()
	m.SetEscapeHTML(false)
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

func ref(name string) *orderedmap.OrderedMap {
	return obj("$ref", "#/definitions/"+name)
}

func decimalString(pattern string, maxLength int) *orderedmap.OrderedMap {
	return obj("type", "string", "pattern", pattern, "minLength", 1, "maxLength", maxLength)
}

const (
	unsignedPattern = "^([1-9][0-9]*|0)$"
	signedPattern   = "^(-?[1-9][0-9]*|0)$"
	base64Pattern   = "^(?:[A-Za-z0-9+\\/]{4})*(?:[A-Za-z0-9+\\/]{2}==|[A-Za-z0-9+\\/]{3}=)?$"
)

// bytesNSchema matches exactly the padded standard base64 encodings of n bytes
func bytesNSchema(n int) *orderedmap.OrderedMap {
	pattern := fmt.Sprintf("^[A-Za-z0-9+\\/]{%d}", 4*(n/3))
	switch n % 3 {
	case 1:
		pattern += "[A-Za-z0-9+\\/]{2}=="
	case 2:
		pattern += "[A-Za-z0-9+\\/]{3}="
	}
	length := 4 * ((n + 2) / 3)
	return obj("type", "string", "pattern", pattern+"$", "minLength", length, "maxLength", length,
		"description", fmt.Sprintf("%d bytes, base64 encoded", n))
}

func scalarDefinitions() [][2]any {
	return [][2]any{
		{"U32", obj("type", "integer", "minimum", 0, "maximum", uint32(4294967295))},
		{"I32", obj("type", "integer", "minimum", -2147483648, "maximum", 2147483647)},
		{"U64", decimalString(unsignedPattern, 20)},
		{"I64", decimalString(signedPattern, 21)},
		{"U128", decimalString(unsignedPattern, 39)},
		{"I128", decimalString(signedPattern, 40)},
		{"U256", decimalString(unsignedPattern, 78)},
		{"I256", decimalString(signedPattern, 79)},
		{"Address", obj("type", "string", "format", "address", "description", "Address can be a public key or contract id")},
		{"ScString", obj("type", "string", "description", "ScString is a string")},
		{"ScSymbol", obj("type", "string", "pattern", "^[a-zA-Z0-9_]{0,32}$", "description", "ScSymbol is a string of at most 32 characters of [a-zA-Z0-9_]")},
		{"DataUrl", obj("type", "string", "pattern", base64Pattern, "description", "Bytes, base64 encoded")},
	}
}

var scalarRefs = map[xdr.ScSpecType]string{
	xdr.ScSpecTypeScSpecTypeU32:       "U32",
	xdr.ScSpecTypeScSpecTypeI32:       "I32",
	xdr.ScSpecTypeScSpecTypeU64:       "U64",
	xdr.ScSpecTypeScSpecTypeI64:       "I64",
	xdr.ScSpecTypeScSpecTypeTimepoint: "U64",
	xdr.ScSpecTypeScSpecTypeDuration:  "U64",
	xdr.ScSpecTypeScSpecTypeU128:      "U128",
	xdr.ScSpecTypeScSpecTypeI128:      "I128",
	xdr.ScSpecTypeScSpecTypeU256:      "U256",
	xdr.ScSpecTypeScSpecTypeI256:      "I256",
	xdr.ScSpecTypeScSpecTypeAddress:   "Address",
	xdr.ScSpecTypeScSpecTypeString:    "ScString",
	xdr.ScSpecTypeScSpecTypeSymbol:    "ScSymbol",
	xdr.ScSpecTypeScSpecTypeBytes:     "DataUrl",
}

// typeRef returns the schema fragment for a type descriptor
func typeRef(t xdr.ScSpecTypeDef) *orderedmap.OrderedMap {
	if name, ok := scalarRefs[t.Type]; ok {
		return ref(name)
	}
	switch t.Type {
	case xdr.ScSpecTypeScSpecTypeBool:
		return obj("type", "boolean")
	case xdr.ScSpecTypeScSpecTypeVoid:
		return obj("type", "null")
	case xdr.ScSpecTypeScSpecTypeError:
		return ref("U32")
	case xdr.ScSpecTypeScSpecTypeBytesN:
		return bytesNSchema(int(t.BytesN.N))
	case xdr.ScSpecTypeScSpecTypeOption:
		return obj("oneOf", []any{typeRef(t.Option.ValueType), obj("type", "null")})
	case xdr.ScSpecTypeScSpecTypeResult:
		return typeRef(t.Result.OkType)
	case xdr.ScSpecTypeScSpecTypeVec:
		return obj("type", "array", "items", typeRef(t.Vec.ElementType))
	case xdr.ScSpecTypeScSpecTypeMap:
		pair := obj("type", "array", "items", []any{typeRef(t.Map.KeyType), typeRef(t.Map.ValueType)}, "minItems", 2, "maxItems", 2)
		return obj("type", "array", "items", pair)
	case xdr.ScSpecTypeScSpecTypeTuple:
		return tupleSchema(t.Tuple.ValueTypes)
	case xdr.ScSpecTypeScSpecTypeUdt:
		return ref(t.Udt.Name)
	}
	// Val: any value
	return obj()
}

func tupleSchema(types []xdr.ScSpecTypeDef) *orderedmap.OrderedMap {
	items := make([]any, len(types))
	for i, vt := range types {
		items[i] = typeRef(vt)
	}
	return obj("type", "array", "items", items, "minItems", len(types), "maxItems", len(types))
}

func withDescription(m *orderedmap.OrderedMap, doc string) *orderedmap.OrderedMap {
	if doc != "" {
		m.Set("description", doc)
	}
	return m
}

func structSchema(st *xdr.ScSpecUdtStructV0) *orderedmap.OrderedMap {
	if IsTupleStruct(st) {
		types := make([]xdr.ScSpecTypeDef, len(st.Fields))
		for i, f := range st.Fields {
			types[i] = f.Type
		}
		return withDescription(tupleSchema(types), st.Doc)
	}
	props := obj()
	required := []string{}
	for _, f := range st.Fields {
		props.Set(f.Name, withDescription(typeRef(f.Type), f.Doc))
		if f.Type.Type != xdr.ScSpecTypeScSpecTypeOption {
			required = append(required, f.Name)
		}
	}
	m := withDescription(obj(), st.Doc)
	m.Set("type", "object")
	m.Set("properties", props)
	m.Set("required", required)
	m.Set("additionalProperties", false)
	return m
}

func unionSchema(un *xdr.ScSpecUdtUnionV0) *orderedmap.OrderedMap {
	cases := make([]any, 0, len(un.Cases))
	for _, c := range un.Cases {
		var m *orderedmap.OrderedMap
		switch c.Kind {
		case xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseVoidV0:
			m = withDescription(obj("title", c.VoidCase.Name), c.VoidCase.Doc)
			m.Set("type", "object")
			m.Set("properties", obj("tag", obj("const", c.VoidCase.Name)))
			m.Set("required", []string{"tag"})
		default:
			m = withDescription(obj("title", c.TupleCase.Name), c.TupleCase.Doc)
			m.Set("type", "object")
			m.Set("properties", obj(
				"tag", obj("const", c.TupleCase.Name),
				"values", tupleSchema(c.TupleCase.Type),
			))
			m.Set("required", []string{"tag", "values"})
		}
		m.Set("additionalProperties", false)
		cases = append(cases, m)
	}
	return withDescription(obj("oneOf", cases), un.Doc)
}

func enumSchema(doc string, names []string, values []uint32, docs []string) *orderedmap.OrderedMap {
	cases := make([]any, len(names))
	for i := range names {
		cases[i] = withDescription(obj("title", names[i], "const", values[i]), docs[i])
	}
	return withDescription(obj("oneOf", cases), doc)
}

func (s *Spec) entrySchema(e *xdr.ScSpecEntry) *orderedmap.OrderedMap {
	switch e.Kind {
	case xdr.ScSpecEntryKindScSpecEntryUdtStructV0:
		return structSchema(e.UdtStructV0)
	case xdr.ScSpecEntryKindScSpecEntryUdtUnionV0:
		return unionSchema(e.UdtUnionV0)
	case xdr.ScSpecEntryKindScSpecEntryUdtEnumV0:
		var names, docs []string
		var values []uint32
		for _, c := range e.UdtEnumV0.Cases {
			names, values, docs = append(names, c.Name), append(values, uint32(c.Value)), append(docs, c.Doc)
		}
		return enumSchema(e.UdtEnumV0.Doc, names, values, docs)
	case xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0:
		var names, docs []string
		var values []uint32
		for _, c := range e.UdtErrorEnumV0.Cases {
			names, values, docs = append(names, c.Name), append(values, uint32(c.Value)), append(docs, c.Doc)
		}
		return enumSchema(e.UdtErrorEnumV0.Doc, names, values, docs)
	default:
		return functionSchema(e.FunctionV0)
	}
}

func functionSchema(f *xdr.ScSpecFunctionV0) *orderedmap.OrderedMap {
	props := obj()
	required := []string{}
	for _, in := range f.Inputs {
		props.Set(in.Name, withDescription(typeRef(in.Type), in.Doc))
		if in.Type.Type != xdr.ScSpecTypeScSpecTypeOption {
			required = append(required, in.Name)
		}
	}
	args := obj("type", "object", "properties", props, "required", required, "additionalProperties", false)
	m := withDescription(obj(), f.Doc)
	m.Set("type", "object")
	m.Set("properties", obj("args", args))
	m.Set("required", []string{"args"})
	m.Set("additionalProperties", true)
	return m
}

// JSONSchema returns a draft-07 JSON schema describing the native JSON form of
// the arguments of a function, with definitions for every type in the spec.
// With an empty function name all functions are defined and none is selected.
func (s *Spec) JSONSchema(ctx context.Context, fn string) (*orderedmap.OrderedMap, error) {
	if fn != "" {
		if _, err := s.GetFunc(ctx, fn); err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgSpecSchemaFailed, fn)
		}
	}
	defs := obj()
	for _, d := range scalarDefinitions() {
		defs.Set(d[0].(string), d[1])
	}
	for i := range s.entries {
		e := &s.entries[i]
		name, indexed := EntryName(*e)
		if !indexed {
			continue
		}
		if e.Kind == xdr.ScSpecEntryKindScSpecEntryFunctionV0 && fn != "" && name != fn {
			continue
		}
		defs.Set(name, s.entrySchema(e))
	}
	schema := obj("$schema", jsonSchemaDraft)
	if fn != "" {
		schema.Set("$ref", "#/definitions/"+fn)
	}
	schema.Set("definitions", defs)
	return schema, nil
}
