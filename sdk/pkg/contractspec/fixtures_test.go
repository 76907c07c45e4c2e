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
	"testing"

	"github.com/stellar/go-stellar-sdk/xdr"
	"github.com/stretchr/testify/require"
)

const (
	testAccount  = "GAAQEAYEAUDAOCAJBIFQYDIOB4IBCEQTCQKRMFYYDENBWHA5DYPSABOV"
	testContract = "CAQCCIRDEQSSMJZIFEVCWLBNFYXTAMJSGM2DKNRXHA4TUOZ4HU7D7V6Z"
)

var (
	tU32     = PrimitiveType(xdr.ScSpecTypeScSpecTypeU32)
	tI32     = PrimitiveType(xdr.ScSpecTypeScSpecTypeI32)
	tU64     = PrimitiveType(xdr.ScSpecTypeScSpecTypeU64)
	tI64     = PrimitiveType(xdr.ScSpecTypeScSpecTypeI64)
	tU128    = PrimitiveType(xdr.ScSpecTypeScSpecTypeU128)
	tI128    = PrimitiveType(xdr.ScSpecTypeScSpecTypeI128)
	tU256    = PrimitiveType(xdr.ScSpecTypeScSpecTypeU256)
	tI256    = PrimitiveType(xdr.ScSpecTypeScSpecTypeI256)
	tBool    = PrimitiveType(xdr.ScSpecTypeScSpecTypeBool)
	tVoid    = PrimitiveType(xdr.ScSpecTypeScSpecTypeVoid)
	tVal     = PrimitiveType(xdr.ScSpecTypeScSpecTypeVal)
	tBytes   = PrimitiveType(xdr.ScSpecTypeScSpecTypeBytes)
	tString  = PrimitiveType(xdr.ScSpecTypeScSpecTypeString)
	tSymbol  = PrimitiveType(xdr.ScSpecTypeScSpecTypeSymbol)
	tAddress = PrimitiveType(xdr.ScSpecTypeScSpecTypeAddress)
	tTime    = PrimitiveType(xdr.ScSpecTypeScSpecTypeTimepoint)
)

func fnEntry(name string, inputs []xdr.ScSpecFunctionInputV0, outputs ...xdr.ScSpecTypeDef) xdr.ScSpecEntry {
	return xdr.ScSpecEntry{
		Kind: xdr.ScSpecEntryKindScSpecEntryFunctionV0,
		FunctionV0: &xdr.ScSpecFunctionV0{
			Name:    xdr.ScSymbol(name),
			Inputs:  inputs,
			Outputs: outputs,
		},
	}
}

func in(name string, t xdr.ScSpecTypeDef) xdr.ScSpecFunctionInputV0 {
	return xdr.ScSpecFunctionInputV0{Name: name, Type: t}
}

// echoFn is a function taking a single argument named after itself, and
// returning a value of the same type
func echoFn(name string, t xdr.ScSpecTypeDef) xdr.ScSpecEntry {
	return fnEntry(name, []xdr.ScSpecFunctionInputV0{in(name, t)}, t)
}

func structEntry(name string, fields ...xdr.ScSpecUdtStructFieldV0) xdr.ScSpecEntry {
	return xdr.ScSpecEntry{
		Kind:        xdr.ScSpecEntryKindScSpecEntryUdtStructV0,
		UdtStructV0: &xdr.ScSpecUdtStructV0{Name: name, Fields: fields},
	}
}

func field(name string, t xdr.ScSpecTypeDef) xdr.ScSpecUdtStructFieldV0 {
	return xdr.ScSpecUdtStructFieldV0{Name: name, Type: t}
}

func voidCase(name string) xdr.ScSpecUdtUnionCaseV0 {
	return xdr.ScSpecUdtUnionCaseV0{
		Kind:     xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseVoidV0,
		VoidCase: &xdr.ScSpecUdtUnionCaseVoidV0{Name: name},
	}
}

func tupleCase(name string, types ...xdr.ScSpecTypeDef) xdr.ScSpecUdtUnionCaseV0 {
	return xdr.ScSpecUdtUnionCaseV0{
		Kind:      xdr.ScSpecUdtUnionCaseV0KindScSpecUdtUnionCaseTupleV0,
		TupleCase: &xdr.ScSpecUdtUnionCaseTupleV0{Name: name, Type: types},
	}
}

func unionEntry(name string, cases ...xdr.ScSpecUdtUnionCaseV0) xdr.ScSpecEntry {
	return xdr.ScSpecEntry{
		Kind:       xdr.ScSpecEntryKindScSpecEntryUdtUnionV0,
		UdtUnionV0: &xdr.ScSpecUdtUnionV0{Name: name, Cases: cases},
	}
}

// testSpecEntries is modelled on the test contract of the soroban examples:
// one echo function per supported type, plus a few multi argument functions
func testSpecEntries() []xdr.ScSpecEntry {
	strukt := UDTType("Strukt")
	simple := UDTType("SimpleEnum")
	return []xdr.ScSpecEntry{
		structEntry("Strukt", field("a", tU32), field("b", tBool), field("c", tSymbol)),
		unionEntry("SimpleEnum", voidCase("First"), voidCase("Second"), voidCase("Third")),
		unionEntry("ComplexEnum",
			tupleCase("Struct", strukt),
			tupleCase("Tuple", TupleType(strukt, simple)),
			tupleCase("Enum", simple),
			tupleCase("Asset", tAddress, tI128),
			voidCase("Void"),
		),
		{
			Kind: xdr.ScSpecEntryKindScSpecEntryUdtEnumV0,
			UdtEnumV0: &xdr.ScSpecUdtEnumV0{Name: "RoyalCard", Cases: []xdr.ScSpecUdtEnumCaseV0{
				{Name: "Jack", Value: 11},
				{Name: "Queen", Value: 12},
				{Name: "King", Value: 13},
			}},
		},
		{
			Kind: xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0,
			UdtErrorEnumV0: &xdr.ScSpecUdtErrorEnumV0{Name: "Error", Cases: []xdr.ScSpecUdtErrorEnumCaseV0{
				{Name: "OhNo", Value: 1, Doc: "Please provide an odd number"},
				{Name: "NoDoc", Value: 2},
			}},
		},
		structEntry("TupleStrukt", field("0", strukt), field("1", simple)),
		structEntry("GigaMap",
			field("bool", tBool), field("i128", tI128), field("u128", tU128),
			field("i256", tI256), field("u256", tU256), field("i32", tI32),
			field("u32", tU32), field("i64", tI64), field("u64", tU64),
			field("symbol", tSymbol), field("string", tString),
		),
		structEntry("WithOption", field("required", tU32), field("optional", OptionType(tString))),
		fnEntry("hello", []xdr.ScSpecFunctionInputV0{in("hello", tSymbol)}, tSymbol),
		fnEntry("woid", nil),
		echoFn("val", tVal),
		fnEntry("u32_fail_on_even", []xdr.ScSpecFunctionInputV0{in("u32_", tU32)}, ResultType(tU32, UDTType("Error"))),
		echoFn("u32_", tU32),
		echoFn("i32_", tI32),
		echoFn("i64_", tI64),
		echoFn("strukt", strukt),
		fnEntry("strukt_hel", []xdr.ScSpecFunctionInputV0{in("strukt", strukt)}, VecType(tSymbol)),
		echoFn("simple", simple),
		echoFn("complex", UDTType("ComplexEnum")),
		echoFn("addresse", tAddress),
		echoFn("bytes", tBytes),
		echoFn("bytes_n", BytesNType(9)),
		echoFn("card", UDTType("RoyalCard")),
		echoFn("boolean", tBool),
		fnEntry("not", []xdr.ScSpecFunctionInputV0{in("boolean", tBool)}, tBool),
		echoFn("i128", tI128),
		echoFn("u128", tU128),
		fnEntry("multi_args", []xdr.ScSpecFunctionInputV0{in("a", tU32), in("b", tBool)}, tU32),
		echoFn("map", MapType(tU32, tBool)),
		echoFn("vec", VecType(tU32)),
		echoFn("tuple", TupleType(tSymbol, tU32)),
		echoFn("option", OptionType(tU32)),
		echoFn("u256", tU256),
		echoFn("i256", tI256),
		echoFn("string", tString),
		echoFn("tuple_strukt", UDTType("TupleStrukt")),
		echoFn("giga_map", UDTType("GigaMap")),
		echoFn("with_option", UDTType("WithOption")),
		echoFn("timepoint", tTime),
		fnEntry("optional_arg", []xdr.ScSpecFunctionInputV0{in("a", tU32), in("b", OptionType(tU32))}, tU32),
	}
}

func newTestSpec(t *testing.T) (context.Context, *Spec) {
	ctx := context.Background()
	s, err := NewSpec(ctx, testSpecEntries())
	require.NoError(t, err)
	return ctx, s
}

func bigInt(t *testing.T, s string) *big.Int {
	i, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, s)
	return i
}

// cmpForm converts big integers to strings, so decoded values can be
// compared with assert.Equal
func cmpForm(v any) any {
	switch v := v.(type) {
	case *big.Int:
		return v.String()
	case []byte:
		if len(v) == 0 {
			return []byte{}
		}
		return v
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cmpForm(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cmpForm(e)
		}
		return out
	case NativeMap:
		out := make(NativeMap, len(v))
		for i, e := range v {
			out[i] = MapEntry{Key: cmpForm(e.Key), Value: cmpForm(e.Value)}
		}
		return out
	case Union:
		if v.Values == nil {
			return v
		}
		return Union{Tag: v.Tag, Values: cmpForm(v.Values).([]any)}
	default:
		return v
	}
}

func mustMarshal(t *testing.T, v xdr.ScVal) string {
	b64, err := xdr.MarshalBase64(v)
	require.NoError(t, err, fmt.Sprintf("%+v", v))
	return b64
}
