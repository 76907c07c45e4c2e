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
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// ScValToNativeUntyped decodes a value without a type descriptor, from the
// shape of the value alone. Values that have no native form (contract
// instances and ledger keys) are returned as the ScVal itself.
func ScValToNativeUntyped(v xdr.ScVal) any {
	switch v.Type {
	case xdr.ScValTypeScvVoid:
		return nil
	case xdr.ScValTypeScvBool:
		return v.B != nil && *v.B
	case xdr.ScValTypeScvU32:
		if v.U32 != nil {
			return uint32(*v.U32)
		}
	case xdr.ScValTypeScvI32:
		if v.I32 != nil {
			return int32(*v.I32)
		}
	case xdr.ScValTypeScvBytes:
		return append([]byte{}, derefBytes(v.Bytes)...)
	case xdr.ScValTypeScvString:
		return derefString(v.Str)
	case xdr.ScValTypeScvSymbol:
		return derefSymbol(v.Sym)
	case xdr.ScValTypeScvAddress:
		if v.Address != nil {
			if s, err := FormatAddress(context.Background(), *v.Address, ""); err == nil {
				return s
			}
		}
	case xdr.ScValTypeScvVec:
		elements := vecElements(v)
		l := make([]any, len(elements))
		for i, e := range elements {
			l[i] = ScValToNativeUntyped(e)
		}
		return l
	case xdr.ScValTypeScvMap:
		entries := append([]xdr.ScMapEntry{}, mapEntries(v)...)
		SortMapEntries(entries)
		m := make(NativeMap, len(entries))
		for i, e := range entries {
			m[i] = MapEntry{Key: ScValToNativeUntyped(e.Key), Value: ScValToNativeUntyped(e.Val)}
		}
		return m
	case xdr.ScValTypeScvError:
		if v.Error != nil {
			if v.Error.ContractCode != nil {
				return ErrorValue{Code: uint32(*v.Error.ContractCode)}
			}
			if v.Error.Code != nil {
				return ErrorValue{Code: uint32(*v.Error.Code), Name: v.Error.Type.String()}
			}
		}
	default:
		if i, ok := scValBigInt(v); ok {
			return i
		}
	}
	return v
}

// infer encodes a value with no type descriptor, choosing the ScVal type from
// the Go type of the value
func (s *Spec) infer(ctx context.Context, value any, path string) (xdr.ScVal, error) {
	switch v := value.(type) {
	case nil:
		return voidScVal(), nil
	case xdr.ScVal:
		return v, nil
	case bool:
		return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &v}, nil
	case string:
		str := xdr.ScString(v)
		return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &str}, nil
	case []byte:
		b := xdr.ScBytes(v)
		return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &b}, nil
	case uint32:
		return integerScVal(new(big.Int).SetUint64(uint64(v)), xdr.ScSpecTypeScSpecTypeU32), nil
	case int32:
		return integerScVal(big.NewInt(int64(v)), xdr.ScSpecTypeScSpecTypeI32), nil
	case uint, uint8, uint16, uint64:
		i, _ := nativeInt(v)
		return integerScVal(i, xdr.ScSpecTypeScSpecTypeU64), nil
	case int, int8, int16, int64:
		i, _ := nativeInt(v)
		return integerScVal(i, xdr.ScSpecTypeScSpecTypeI64), nil
	case float64, json.Number:
		i, err := toBigInt(ctx, v, "val", path)
		if err != nil {
			return xdr.ScVal{}, err
		}
		return s.infer(ctx, i, path)
	case *big.Int:
		if v == nil {
			return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, "val", v, path)
		}
		if checkRange(ctx, v, xdr.ScSpecTypeScSpecTypeI64, path) == nil {
			return integerScVal(v, xdr.ScSpecTypeScSpecTypeI64), nil
		}
		for _, st := range []xdr.ScSpecType{xdr.ScSpecTypeScSpecTypeI128, xdr.ScSpecTypeScSpecTypeI256} {
			if checkRange(ctx, v, st, path) == nil {
				return integerScVal(v, st), nil
			}
		}
		return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecIntegerOutOfRange, v.String(), "i256", path)
	case xdr.ScAddress:
		return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &v}, nil
	case ErrorValue:
		return errorScVal(v.Code), nil
	case Union:
		vals := make([]xdr.ScVal, 0, len(v.Values)+1)
		vals = append(vals, symbolScVal(v.Tag))
		for i, e := range v.Values {
			sv, err := s.infer(ctx, deref(e), fmt.Sprintf("%s.values[%d]", path, i))
			if err != nil {
				return xdr.ScVal{}, err
			}
			vals = append(vals, sv)
		}
		return vecScVal(vals), nil
	}
	rv := reflect.ValueOf(value)
	_, isNativeMap := value.(NativeMap)
	if isNativeMap || rv.Kind() == reflect.Map {
		m, _ := mapInput(value)
		val := PrimitiveType(xdr.ScSpecTypeScSpecTypeVal)
		entries, err := s.encodeMapEntries(ctx, m, val, val, path)
		if err != nil {
			return xdr.ScVal{}, err
		}
		return mapScVal(entries), nil
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		elements, _ := sliceElements(value)
		vals := make([]xdr.ScVal, len(elements))
		for i, e := range elements {
			sv, err := s.infer(ctx, deref(e), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return xdr.ScVal{}, err
			}
			vals[i] = sv
		}
		return vecScVal(vals), nil
	}
	return xdr.ScVal{}, i18n.NewError(ctx, sbmsgs.MsgCodecInferenceNotSupported, value, path)
}
