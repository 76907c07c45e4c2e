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
	"math/big"
	"regexp"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/xdr"
)

var numericFieldName = regexp.MustCompile(`^\d+$`)

// IsTupleStruct is true for structs with positional fields (named 0, 1, ...),
// which are carried as a vector rather than a map
func IsTupleStruct(st *xdr.ScSpecUdtStructV0) bool {
	if len(st.Fields) == 0 {
		return false
	}
	for _, f := range st.Fields {
		if !numericFieldName.MatchString(f.Name) {
			return false
		}
	}
	return true
}

func (s *Spec) encodeUDT(ctx context.Context, value any, t xdr.ScSpecTypeDef, path string) (xdr.ScVal, error) {
	entry, err := s.findType(ctx, t.Udt.Name)
	if err != nil {
		return xdr.ScVal{}, err
	}
	switch entry.Kind {
	case xdr.ScSpecEntryKindScSpecEntryUdtStructV0:
		return s.encodeStruct(ctx, value, entry.UdtStructV0, path)
	case xdr.ScSpecEntryKindScSpecEntryUdtUnionV0:
		return s.encodeUnion(ctx, value, entry.UdtUnionV0, path)
	case xdr.ScSpecEntryKindScSpecEntryUdtEnumV0:
		return s.encodeEnum(ctx, value, entry.UdtEnumV0, path)
	default: // error enum
		return s.encodeErrorEnum(ctx, value, entry.UdtErrorEnumV0, path)
	}
}

func (s *Spec) encodeStruct(ctx context.Context, value any, st *xdr.ScSpecUdtStructV0, path string) (xdr.ScVal, error) {
	if IsTupleStruct(st) {
		elements, ok := sliceElements(value)
		if !ok {
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, st.Name, value, path)
		}
		if len(elements) != len(st.Fields) {
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTupleArity, len(st.Fields), path, len(elements))
		}
		vals := make([]xdr.ScVal, len(st.Fields))
		for i, f := range st.Fields {
			v, err := s.encode(ctx, elements[i], f.Type, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return xdr.ScVal{}, err
			}
			vals[i] = v
		}
		return vecScVal(vals), nil
	}

	fields, ok := stringKeyedMap(value)
	if !ok {
		return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, st.Name, value, path)
	}
	entries := make([]xdr.ScMapEntry, 0, len(st.Fields))
	for _, f := range st.Fields {
		fv, present := fields[f.Name]
		if !present && f.Type.Type != xdr.ScSpecTypeScSpecTypeOption {
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecMissingField, f.Name, st.Name, path)
		}
		v, err := s.encode(ctx, fv, f.Type, path+"."+f.Name)
		if err != nil {
			return xdr.ScVal{}, err
		}
		entries = append(entries, xdr.ScMapEntry{Key: symbolScVal(f.Name), Val: v})
	}
	SortMapEntries(entries)
	return mapScVal(entries), nil
}

// stringKeyedMap accepts map[string]any, or a NativeMap with string keys
func stringKeyedMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case NativeMap:
		m := make(map[string]any, len(v))
		for _, e := range v {
			k, ok := e.Key.(string)
			if !ok {
				return nil, false
			}
			m[k] = e.Value
		}
		return m, true
	}
	nm, ok := mapInput(value)
	if !ok {
		return nil, false
	}
	return stringKeyedMap(nm)
}

// unionInput accepts a Union, or a map with "tag" and optional "values" keys
func unionInput(value any) (*Union, bool) {
	switch v := value.(type) {
	case Union:
		return &v, true
	case map[string]any:
		tag, ok := v["tag"].(string)
		if !ok {
			return nil, false
		}
		u := &Union{Tag: tag}
		if raw, present := v["values"]; present && raw != nil {
			values, ok := sliceElements(raw)
			if !ok {
				return nil, false
			}
			u.Values = values
		}
		return u, true
	}
	return nil, false
}

func (s *Spec) encodeUnion(ctx context.Context, value any, un *xdr.ScSpecUdtUnionV0, path string) (xdr.ScVal, error) {
	u, ok := unionInput(value)
	if !ok {
		return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, un.Name, value, path)
	}
	for _, c := range un.Cases {
		switch c.Kind {
		case xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseVoidV0:
			if c.VoidCase.Name != u.Tag {
				continue
			}
			if len(u.Values) != 0 {
				return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecUnionArity, u.Tag, path, 0, len(u.Values))
			}
			return vecScVal([]xdr.ScVal{symbolScVal(u.Tag)}), nil
		case xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseTupleV0:
			if c.TupleCase.Name != u.Tag {
				continue
			}
			types := c.TupleCase.Type
			if len(u.Values) != len(types) {
				return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecUnionArity, u.Tag, path, len(types), len(u.Values))
			}
			vals := make([]xdr.ScVal, 0, len(types)+1)
			vals = append(vals, symbolScVal(u.Tag))
			for i, vt := range types {
				v, err := s.encode(ctx, u.Values[i], vt, fmt.Sprintf("%s.values[%d]", path, i))
				if err != nil {
					return xdr.ScVal{}, err
				}
				vals = append(vals, v)
			}
			return vecScVal(vals), nil
		}
	}
	return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecUnionUnknownCase, u.Tag, un.Name, path)
}

// enumValue accepts the numeric value of a case, or the case name
func enumValue(ctx context.Context, value any, name string, cases map[string]uint32, path string) (uint32, error) {
	if str, ok := value.(string); ok {
		if v, found := cases[str]; found {
			return v, nil
		}
	}
	i, err := toBigInt(ctx, value, name, path)
	if err != nil {
		return 0, err
	}
	if i.Sign() >= 0 && i.IsUint64() && i.Uint64() <= uint64(^uint32(0)) {
		v := uint32(i.Uint64())
		for _, cv := range cases {
			if cv == v {
				return v, nil
			}
		}
	}
	return 0, i18n.NewError(ctx, sbmsgs.MsgCodecEnumUnknownValue, i.String(), name, path)
}

func enumCases(e *xdr.ScSpecUdtEnumV0) map[string]uint32 {
	cases := make(map[string]uint32, len(e.Cases))
	for _, c := range e.Cases {
		cases[c.Name] = uint32(c.Value)
	}
	return cases
}

func errorEnumCases(e *xdr.ScSpecUdtErrorEnumV0) map[string]uint32 {
	cases := make(map[string]uint32, len(e.Cases))
	for _, c := range e.Cases {
		cases[c.Name] = uint32(c.Value)
	}
	return cases
}

func (s *Spec) encodeEnum(ctx context.Context, value any, e *xdr.ScSpecUdtEnumV0, path string) (xdr.ScVal, error) {
	v, err := enumValue(ctx, value, e.Name, enumCases(e), path)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return integerScVal(new(big.Int).SetUint64(uint64(v)), xdr.ScSpecTypeScSpecTypeU32), nil
}

func (s *Spec) encodeErrorEnum(ctx context.Context, value any, e *xdr.ScSpecUdtErrorEnumV0, path string) (xdr.ScVal, error) {
	if ev, ok := value.(ErrorValue); ok {
		value = ev.Code
	}
	v, err := enumValue(ctx, value, e.Name, errorEnumCases(e), path)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return errorScVal(v), nil
}
