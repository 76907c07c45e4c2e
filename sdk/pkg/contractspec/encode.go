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
	"encoding/base64"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"sort"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/xdr"
)

var symbolRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{0,32}$`)

// NativeToScVal encodes a native Go value as the ScVal for the given type
// descriptor. User defined types are resolved against the entries of the spec.
func (s *Spec) NativeToScVal(ctx context.Context, value any, t xdr.ScSpecTypeDef) (xdr.ScVal, error) {
	return s.encode(ctx, value, t, "value")
}

func (s *Spec) encode(ctx context.Context, value any, t xdr.ScSpecTypeDef, path string) (xdr.ScVal, error) {
	value = deref(value)

	// Pre-built values pass straight through
	if sv, ok := value.(xdr.ScVal); ok {
		return sv, nil
	}

	switch t.Type {
	case xdr.ScSpecTypeScSpecTypeVal:
		return s.infer(ctx, value, path)
	case xdr.ScSpecTypeScSpecTypeVoid:
		if value != nil {
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
		}
		return voidScVal(), nil
	case xdr.ScSpecTypeScSpecTypeBool:
		b, ok := value.(bool)
		if !ok {
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &b}, nil
	case xdr.ScSpecTypeScSpecTypeU32, xdr.ScSpecTypeScSpecTypeI32,
		xdr.ScSpecTypeScSpecTypeU64, xdr.ScSpecTypeScSpecTypeI64,
		xdr.ScSpecTypeScSpecTypeTimepoint, xdr.ScSpecTypeScSpecTypeDuration,
		xdr.ScSpecTypeScSpecTypeU128, xdr.ScSpecTypeScSpecTypeI128,
		xdr.ScSpecTypeScSpecTypeU256, xdr.ScSpecTypeScSpecTypeI256:
		return s.encodeInteger(ctx, value, t, path)
	case xdr.ScSpecTypeScSpecTypeBytes:
		b, err := toBytes(ctx, value, t, path)
		if err != nil {
			return xdr.ScVal{}, err
		}
		sb := xdr.ScBytes(b)
		return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &sb}, nil
	case xdr.ScSpecTypeScSpecTypeBytesN:
		b, err := toBytes(ctx, value, t, path)
		if err != nil {
			return xdr.ScVal{}, err
		}
		if t.BytesN == nil || len(b) != int(t.BytesN.N) {
			n := 0
			if t.BytesN != nil {
				n = int(t.BytesN.N)
			}
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecBytesNLength, n, path, len(b))
		}
		sb := xdr.ScBytes(b)
		return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &sb}, nil
	case xdr.ScSpecTypeScSpecTypeString:
		var str xdr.ScString
		switch v := value.(type) {
		case string:
			str = xdr.ScString(v)
		case []byte:
			str = xdr.ScString(v)
		default:
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &str}, nil
	case xdr.ScSpecTypeScSpecTypeSymbol:
		str, ok := value.(string)
		if !ok {
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
		}
		if !symbolRegex.MatchString(str) {
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecInvalidSymbol, str, path)
		}
		return symbolScVal(str), nil
	case xdr.ScSpecTypeScSpecTypeAddress:
		return encodeAddress(ctx, value, t, path)
	case xdr.ScSpecTypeScSpecTypeOption:
		if value == nil {
			return voidScVal(), nil
		}
		return s.encode(ctx, value, t.Option.ValueType, path)
	case xdr.ScSpecTypeScSpecTypeResult:
		if ev, ok := value.(ErrorValue); ok {
			return errorScVal(ev.Code), nil
		}
		return s.encode(ctx, value, t.Result.OkType, path)
	case xdr.ScSpecTypeScSpecTypeVec:
		return s.encodeVec(ctx, value, t, path)
	case xdr.ScSpecTypeScSpecTypeMap:
		return s.encodeMap(ctx, value, t, path)
	case xdr.ScSpecTypeScSpecTypeTuple:
		return s.encodeTuple(ctx, value, t, path)
	case xdr.ScSpecTypeScSpecTypeUdt:
		return s.encodeUDT(ctx, value, t, path)
	case xdr.ScSpecTypeScSpecTypeError:
		if ev, ok := value.(ErrorValue); ok {
			return errorScVal(ev.Code), nil
		}
		code, err := s.encodeInteger(ctx, value, PrimitiveType(xdr.ScSpecTypeScSpecTypeU32), path)
		if err != nil {
			return xdr.ScVal{}, err
		}
		return errorScVal(uint32(*code.U32)), nil
	}
	return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecUnsupportedType, TypeName(t), path)
}

// deref follows non-nil pointers, so callers can pass *T wherever T is
// accepted. *big.Int is left alone as it is a native form in its own right.
func deref(value any) any {
	for {
		if _, isBig := value.(*big.Int); isBig || value == nil {
			return value
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Ptr {
			return value
		}
		if rv.IsNil() {
			return nil
		}
		value = rv.Elem().Interface()
	}
}

func (s *Spec) encodeInteger(ctx context.Context, value any, t xdr.ScSpecTypeDef, path string) (xdr.ScVal, error) {
	i, err := toBigInt(ctx, value, TypeName(t), path)
	if err != nil {
		return xdr.ScVal{}, err
	}
	if err := checkRange(ctx, i, t.Type, path); err != nil {
		return xdr.ScVal{}, err
	}
	return integerScVal(i, t.Type), nil
}

func toBytes(ctx context.Context, value any, t xdr.ScSpecTypeDef, path string) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgCodecInvalidBase64, path)
		}
		return b, nil
	}
	// Fixed size arrays such as [32]byte
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return b, nil
	}
	return nil, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
}

func encodeAddress(ctx context.Context, value any, t xdr.ScSpecTypeDef, path string) (xdr.ScVal, error) {
	var addr xdr.ScAddress
	switch v := value.(type) {
	case string:
		a, err := ParseAddress(ctx, v, path)
		if err != nil {
			return xdr.ScVal{}, err
		}
		addr = a
	case xdr.ScAddress:
		addr = v
	default:
		return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &addr}, nil
}

func errorScVal(code uint32) xdr.ScVal {
	c := xdr.Uint32(code)
	return xdr.ScVal{Type: xdr.ScValTypeScvError, Error: &xdr.ScError{Type: xdr.ScErrorTypeSceContract, ContractCode: &c}}
}

// sliceElements returns the elements of any slice or array value. Byte
// strings are not treated as lists.
func sliceElements(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if l, ok := value.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	l := make([]any, rv.Len())
	for i := range l {
		l[i] = rv.Index(i).Interface()
	}
	return l, true
}

func (s *Spec) encodeVec(ctx context.Context, value any, t xdr.ScSpecTypeDef, path string) (xdr.ScVal, error) {
	elements, ok := sliceElements(value)
	if !ok {
		return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
	}
	vals := make([]xdr.ScVal, len(elements))
	for i, e := range elements {
		v, err := s.encode(ctx, e, t.Vec.ElementType, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return xdr.ScVal{}, err
		}
		vals[i] = v
	}
	return vecScVal(vals), nil
}

func (s *Spec) encodeTuple(ctx context.Context, value any, t xdr.ScSpecTypeDef, path string) (xdr.ScVal, error) {
	elements, ok := sliceElements(value)
	if !ok {
		return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
	}
	types := t.Tuple.ValueTypes
	if len(elements) != len(types) {
		return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTupleArity, len(types), path, len(elements))
	}
	vals := make([]xdr.ScVal, len(types))
	for i, vt := range types {
		v, err := s.encode(ctx, elements[i], vt, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return xdr.ScVal{}, err
		}
		vals[i] = v
	}
	return vecScVal(vals), nil
}

// mapInput returns the entries of a native map in a deterministic order. A
// NativeMap or pair list keeps its given order. Go maps are ordered by key.
func mapInput(value any) (NativeMap, bool) {
	switch v := value.(type) {
	case NativeMap:
		return v, true
	case []MapEntry:
		return NativeMap(v), true
	case []any:
		// JSON form: a list of [key, value] pairs
		m := make(NativeMap, len(v))
		for i, p := range v {
			pair, ok := p.([]any)
			if !ok || len(pair) != 2 {
				return nil, false
			}
			m[i] = MapEntry{Key: pair[0], Value: pair[1]}
		}
		return m, true
	}
	rv := reflect.ValueOf(value)
	if value == nil || rv.Kind() != reflect.Map {
		return nil, false
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return lessNativeKey(keys[i].Interface(), keys[j].Interface())
	})
	m := make(NativeMap, len(keys))
	for i, k := range keys {
		m[i] = MapEntry{Key: k.Interface(), Value: rv.MapIndex(k).Interface()}
	}
	return m, true
}

func lessNativeKey(a, b any) bool {
	ai, aok := nativeInt(a)
	bi, bok := nativeInt(b)
	if aok && bok {
		return ai.Cmp(bi) < 0
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func nativeInt(v any) (*big.Int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), true
	}
	if b, ok := v.(*big.Int); ok && b != nil {
		return b, true
	}
	return nil, false
}

func (s *Spec) encodeMap(ctx context.Context, value any, t xdr.ScSpecTypeDef, path string) (xdr.ScVal, error) {
	m, ok := mapInput(value)
	if !ok {
		return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, TypeName(t), value, path)
	}
	entries, err := s.encodeMapEntries(ctx, m, t.Map.KeyType, t.Map.ValueType, path)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return mapScVal(entries), nil
}

// encodeMapEntries validates every entry before building the map, and returns
// the entries in canonical key order. The first invalid entry is reported.
func (s *Spec) encodeMapEntries(ctx context.Context, m NativeMap, kt, vt xdr.ScSpecTypeDef, path string) ([]xdr.ScMapEntry, error) {
	entries := make([]xdr.ScMapEntry, len(m))
	for i, e := range m {
		k, err := s.encode(ctx, e.Key, kt, fmt.Sprintf("%s[%d].key", path, i))
		if err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgCodecMapEntry, i, e.Key)
		}
		v, err := s.encode(ctx, e.Value, vt, fmt.Sprintf("%s[%d].value", path, i))
		if err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgCodecMapEntry, i, e.Key)
		}
		entries[i] = xdr.ScMapEntry{Key: k, Val: v}
	}
	SortMapEntries(entries)
	for i := 1; i < len(entries); i++ {
		if CompareScVal(entries[i-1].Key, entries[i].Key) == 0 {
			return nil, i18n.NewError(ctx, sbmsgs.MsgCodecDuplicateMapKey, path, ScValToNativeUntyped(entries[i].Key))
		}
	}
	return entries, nil
}
