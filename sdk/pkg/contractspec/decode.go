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

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/xdr"
)

var integerScValTypes = map[xdr.ScSpecType]xdr.ScValType{
	xdr.ScSpecTypeScSpecTypeU32:       xdr.ScValTypeScvU32,
	xdr.ScSpecTypeScSpecTypeI32:       xdr.ScValTypeScvI32,
	xdr.ScSpecTypeScSpecTypeU64:       xdr.ScValTypeScvU64,
	xdr.ScSpecTypeScSpecTypeI64:       xdr.ScValTypeScvI64,
	xdr.ScSpecTypeScSpecTypeTimepoint: xdr.ScValTypeScvTimepoint,
	xdr.ScSpecTypeScSpecTypeDuration:  xdr.ScValTypeScvDuration,
	xdr.ScSpecTypeScSpecTypeU128:      xdr.ScValTypeScvU128,
	xdr.ScSpecTypeScSpecTypeI128:      xdr.ScValTypeScvI128,
	xdr.ScSpecTypeScSpecTypeU256:      xdr.ScValTypeScvU256,
	xdr.ScSpecTypeScSpecTypeI256:      xdr.ScValTypeScvI256,
}

// ScValToNative decodes an ScVal into its native Go form, as directed by the
// type descriptor. The value must have the shape the descriptor requires.
func (s *Spec) ScValToNative(ctx context.Context, v xdr.ScVal, t xdr.ScSpecTypeDef) (any, error) {
	return s.decode(ctx, v, t, "value")
}

func (s *Spec) mismatch(ctx context.Context, v xdr.ScVal, t xdr.ScSpecTypeDef, path string) error {
	return i18n.NewError(ctx, sbmsgs.MsgCodecScValMismatch, TypeName(t), path, v.Type.String())
}

func (s *Spec) decode(ctx context.Context, v xdr.ScVal, t xdr.ScSpecTypeDef, path string) (any, error) {
	switch t.Type {
	case xdr.ScSpecTypeScSpecTypeVal:
		return ScValToNativeUntyped(v), nil
	case xdr.ScSpecTypeScSpecTypeOption:
		if v.Type == xdr.ScValTypeScvVoid {
			return nil, nil
		}
		return s.decode(ctx, v, t.Option.ValueType, path)
	case xdr.ScSpecTypeScSpecTypeResult:
		if v.Type == xdr.ScValTypeScvError {
			return s.decodeErrorValue(ctx, v, t.Result.ErrorType, path)
		}
		return s.decode(ctx, v, t.Result.OkType, path)
	case xdr.ScSpecTypeScSpecTypeError:
		if v.Type != xdr.ScValTypeScvError {
			return nil, s.mismatch(ctx, v, t, path)
		}
		return s.decodeErrorValue(ctx, v, t, path)
	case xdr.ScSpecTypeScSpecTypeUdt:
		return s.decodeUDT(ctx, v, t, path)
	}

	if want, isInt := integerScValTypes[t.Type]; isInt {
		if v.Type != want {
			return nil, s.mismatch(ctx, v, t, path)
		}
		switch want {
		case xdr.ScValTypeScvU32:
			if v.U32 != nil {
				return uint32(*v.U32), nil
			}
		case xdr.ScValTypeScvI32:
			if v.I32 != nil {
				return int32(*v.I32), nil
			}
		default:
			if i, ok := scValBigInt(v); ok {
				return i, nil
			}
		}
		return nil, i18n.NewError(ctx, sbmsgs.MsgCodecNilScVal, TypeName(t), path)
	}

	switch t.Type {
	case xdr.ScSpecTypeScSpecTypeVoid:
		if v.Type != xdr.ScValTypeScvVoid {
			return nil, s.mismatch(ctx, v, t, path)
		}
		return nil, nil
	case xdr.ScSpecTypeScSpecTypeBool:
		if v.Type != xdr.ScValTypeScvBool || v.B == nil {
			return nil, s.mismatch(ctx, v, t, path)
		}
		return *v.B, nil
	case xdr.ScSpecTypeScSpecTypeBytes, xdr.ScSpecTypeScSpecTypeBytesN:
		if v.Type != xdr.ScValTypeScvBytes {
			return nil, s.mismatch(ctx, v, t, path)
		}
		b := append([]byte{}, derefBytes(v.Bytes)...)
		if t.BytesN != nil && len(b) != int(t.BytesN.N) {
			return nil, i18n.NewError(ctx, sbmsgs.MsgCodecBytesNLength, int(t.BytesN.N), path, len(b))
		}
		return b, nil
	case xdr.ScSpecTypeScSpecTypeString:
		if v.Type != xdr.ScValTypeScvString {
			return nil, s.mismatch(ctx, v, t, path)
		}
		return derefString(v.Str), nil
	case xdr.ScSpecTypeScSpecTypeSymbol:
		if v.Type != xdr.ScValTypeScvSymbol {
			return nil, s.mismatch(ctx, v, t, path)
		}
		return derefSymbol(v.Sym), nil
	case xdr.ScSpecTypeScSpecTypeAddress:
		if v.Type != xdr.ScValTypeScvAddress || v.Address == nil {
			return nil, s.mismatch(ctx, v, t, path)
		}
		return FormatAddress(ctx, *v.Address, path)
	case xdr.ScSpecTypeScSpecTypeVec:
		if v.Type != xdr.ScValTypeScvVec {
			return nil, s.mismatch(ctx, v, t, path)
		}
		elements := vecElements(v)
		l := make([]any, len(elements))
		for i, e := range elements {
			n, err := s.decode(ctx, e, t.Vec.ElementType, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			l[i] = n
		}
		return l, nil
	case xdr.ScSpecTypeScSpecTypeMap:
		if v.Type != xdr.ScValTypeScvMap {
			return nil, s.mismatch(ctx, v, t, path)
		}
		return s.decodeMap(ctx, mapEntries(v), t.Map.KeyType, t.Map.ValueType, path)
	case xdr.ScSpecTypeScSpecTypeTuple:
		if v.Type != xdr.ScValTypeScvVec {
			return nil, s.mismatch(ctx, v, t, path)
		}
		return s.decodeTuple(ctx, vecElements(v), t.Tuple.ValueTypes, path)
	}
	return nil, i18n.NewError(ctx, sbmsgs.MsgCodecUnsupportedType, TypeName(t), path)
}

func (s *Spec) decodeTuple(ctx context.Context, elements []xdr.ScVal, types []xdr.ScSpecTypeDef, path string) ([]any, error) {
	if len(elements) != len(types) {
		return nil, i18n.NewError(ctx, sbmsgs.MsgCodecTupleArity, len(types), path, len(elements))
	}
	l := make([]any, len(types))
	for i, vt := range types {
		n, err := s.decode(ctx, elements[i], vt, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		l[i] = n
	}
	return l, nil
}

func (s *Spec) decodeMap(ctx context.Context, entries []xdr.ScMapEntry, kt, vt xdr.ScSpecTypeDef, path string) (NativeMap, error) {
	sorted := append([]xdr.ScMapEntry{}, entries...)
	SortMapEntries(sorted)
	m := make(NativeMap, len(sorted))
	for i, e := range sorted {
		k, err := s.decode(ctx, e.Key, kt, fmt.Sprintf("%s[%d].key", path, i))
		if err != nil {
			return nil, err
		}
		val, err := s.decode(ctx, e.Val, vt, fmt.Sprintf("%s[%d].value", path, i))
		if err != nil {
			return nil, err
		}
		m[i] = MapEntry{Key: k, Value: val}
	}
	return m, nil
}

// decodeErrorValue resolves a contract error code against the error enum
// named by the type descriptor, when there is one
func (s *Spec) decodeErrorValue(ctx context.Context, v xdr.ScVal, t xdr.ScSpecTypeDef, path string) (any, error) {
	if v.Type != xdr.ScValTypeScvError || v.Error == nil {
		return nil, s.mismatch(ctx, v, t, path)
	}
	ev := ErrorValue{}
	if v.Error.ContractCode != nil {
		ev.Code = uint32(*v.Error.ContractCode)
	} else if v.Error.Code != nil {
		ev.Code = uint32(*v.Error.Code)
		ev.Name = v.Error.Type.String()
		return ev, nil
	}
	if t.Type == xdr.ScSpecTypeScSpecTypeUdt && t.Udt != nil {
		if entry, err := s.findType(ctx, t.Udt.Name); err == nil && entry.UdtErrorEnumV0 != nil {
			for _, c := range entry.UdtErrorEnumV0.Cases {
				if uint32(c.Value) == ev.Code {
					et := errorType(c)
					ev.Name, ev.Message = et.Name, et.Message
				}
			}
			return ev, nil
		}
	}
	if et, ok := s.ErrorTypes()[ev.Code]; ok {
		ev.Name, ev.Message = et.Name, et.Message
	}
	return ev, nil
}

func (s *Spec) decodeUDT(ctx context.Context, v xdr.ScVal, t xdr.ScSpecTypeDef, path string) (any, error) {
	entry, err := s.findType(ctx, t.Udt.Name)
	if err != nil {
		return nil, err
	}
	switch entry.Kind {
	case xdr.ScSpecEntryKindScSpecEntryUdtStructV0:
		return s.decodeStruct(ctx, v, t, entry.UdtStructV0, path)
	case xdr.ScSpecEntryKindScSpecEntryUdtUnionV0:
		return s.decodeUnion(ctx, v, t, entry.UdtUnionV0, path)
	case xdr.ScSpecEntryKindScSpecEntryUdtEnumV0:
		if v.Type != xdr.ScValTypeScvU32 || v.U32 == nil {
			return nil, s.mismatch(ctx, v, t, path)
		}
		code := uint32(*v.U32)
		for _, c := range entry.UdtEnumV0.Cases {
			if uint32(c.Value) == code {
				return code, nil
			}
		}
		return nil, i18n.NewError(ctx, sbmsgs.MsgCodecEnumUnknownValue, fmt.Sprint(code), entry.UdtEnumV0.Name, path)
	default: // error enum
		if v.Type != xdr.ScValTypeScvError || v.Error == nil || v.Error.ContractCode == nil {
			return nil, s.mismatch(ctx, v, t, path)
		}
		code := uint32(*v.Error.ContractCode)
		for _, c := range entry.UdtErrorEnumV0.Cases {
			if uint32(c.Value) == code {
				return code, nil
			}
		}
		return nil, i18n.NewError(ctx, sbmsgs.MsgCodecEnumUnknownValue, fmt.Sprint(code), entry.UdtErrorEnumV0.Name, path)
	}
}

func (s *Spec) decodeStruct(ctx context.Context, v xdr.ScVal, t xdr.ScSpecTypeDef, st *xdr.ScSpecUdtStructV0, path string) (any, error) {
	if IsTupleStruct(st) {
		if v.Type != xdr.ScValTypeScvVec {
			return nil, s.mismatch(ctx, v, t, path)
		}
		types := make([]xdr.ScSpecTypeDef, len(st.Fields))
		for i, f := range st.Fields {
			types[i] = f.Type
		}
		return s.decodeTuple(ctx, vecElements(v), types, path)
	}
	if v.Type != xdr.ScValTypeScvMap {
		return nil, s.mismatch(ctx, v, t, path)
	}
	byName := make(map[string]xdr.ScVal)
	for _, e := range mapEntries(v) {
		if e.Key.Type != xdr.ScValTypeScvSymbol {
			return nil, s.mismatch(ctx, e.Key, PrimitiveType(xdr.ScSpecTypeScSpecTypeSymbol), path)
		}
		byName[derefSymbol(e.Key.Sym)] = e.Val
	}
	out := make(map[string]any, len(st.Fields))
	for _, f := range st.Fields {
		fv, ok := byName[f.Name]
		if !ok {
			if f.Type.Type == xdr.ScSpecTypeScSpecTypeOption {
				out[f.Name] = nil
				continue
			}
			return nil, i18n.NewError(ctx, sbmsgs.MsgCodecMissingField, f.Name, st.Name, path)
		}
		n, err := s.decode(ctx, fv, f.Type, path+"."+f.Name)
		if err != nil {
			return nil, err
		}
		out[f.Name] = n
	}
	return out, nil
}

func (s *Spec) decodeUnion(ctx context.Context, v xdr.ScVal, t xdr.ScSpecTypeDef, un *xdr.ScSpecUdtUnionV0, path string) (any, error) {
	if v.Type != xdr.ScValTypeScvVec {
		return nil, s.mismatch(ctx, v, t, path)
	}
	elements := vecElements(v)
	if len(elements) == 0 || elements[0].Type != xdr.ScValTypeScvSymbol {
		return nil, i18n.NewError(ctx, sbmsgs.MsgCodecUnionMalformed, path, "first element must be the case name")
	}
	tag := derefSymbol(elements[0].Sym)
	for _, c := range un.Cases {
		switch c.Kind {
		case xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseVoidV0:
			if c.VoidCase.Name == tag {
				if len(elements) != 1 {
					return nil, i18n.NewError(ctx, sbmsgs.MsgCodecUnionArity, tag, path, 0, len(elements)-1)
				}
				return Union{Tag: tag}, nil
			}
		case xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseTupleV0:
			if c.TupleCase.Name == tag {
				types := c.TupleCase.Type
				if len(elements)-1 != len(types) {
					return nil, i18n.NewError(ctx, sbmsgs.MsgCodecUnionArity, tag, path, len(types), len(elements)-1)
				}
				values, err := s.decodeTuple(ctx, elements[1:], types, path+".values")
				if err != nil {
					return nil, err
				}
				return Union{Tag: tag, Values: values}, nil
			}
		}
	}
	return nil, i18n.NewError(ctx, sbmsgs.MsgCodecUnionUnknownCase, tag, un.Name, path)
}
