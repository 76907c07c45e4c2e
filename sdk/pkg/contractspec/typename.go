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
	"fmt"
	"strings"

	"github.com/stellar/go-stellar-sdk/xdr"
)

var primitiveTypeNames = map[xdr.ScSpecType]string{
	xdr.ScSpecTypeScSpecTypeVal:       "val",
	xdr.ScSpecTypeScSpecTypeBool:      "bool",
	xdr.ScSpecTypeScSpecTypeVoid:      "void",
	xdr.ScSpecTypeScSpecTypeError:     "error",
	xdr.ScSpecTypeScSpecTypeU32:       "u32",
	xdr.ScSpecTypeScSpecTypeI32:       "i32",
	xdr.ScSpecTypeScSpecTypeU64:       "u64",
	xdr.ScSpecTypeScSpecTypeI64:       "i64",
	xdr.ScSpecTypeScSpecTypeTimepoint: "timepoint",
	xdr.ScSpecTypeScSpecTypeDuration:  "duration",
	xdr.ScSpecTypeScSpecTypeU128:      "u128",
	xdr.ScSpecTypeScSpecTypeI128:      "i128",
	xdr.ScSpecTypeScSpecTypeU256:      "u256",
	xdr.ScSpecTypeScSpecTypeI256:      "i256",
	xdr.ScSpecTypeScSpecTypeBytes:     "bytes",
	xdr.ScSpecTypeScSpecTypeString:    "string",
	xdr.ScSpecTypeScSpecTypeSymbol:    "symbol",
	xdr.ScSpecTypeScSpecTypeAddress:   "address",
}

// TypeName returns a human readable name for a type descriptor, in the form
// used by contract source code (Option<u32>, Map<symbol, i128>, BytesN<32>)
func TypeName(t xdr.ScSpecTypeDef) string {
	if name, ok := primitiveTypeNames[t.Type]; ok {
		return name
	}
	switch t.Type {
	case xdr.ScSpecTypeScSpecTypeOption:
		if t.Option != nil {
			return fmt.Sprintf("Option<%s>", TypeName(t.Option.ValueType))
		}
	case xdr.ScSpecTypeScSpecTypeResult:
		if t.Result != nil {
			return fmt.Sprintf("Result<%s, %s>", TypeName(t.Result.OkType), TypeName(t.Result.ErrorType))
		}
	case xdr.ScSpecTypeScSpecTypeVec:
		if t.Vec != nil {
			return fmt.Sprintf("Vec<%s>", TypeName(t.Vec.ElementType))
		}
	case xdr.ScSpecTypeScSpecTypeMap:
		if t.Map != nil {
			return fmt.Sprintf("Map<%s, %s>", TypeName(t.Map.KeyType), TypeName(t.Map.ValueType))
		}
	case xdr.ScSpecTypeScSpecTypeTuple:
		if t.Tuple != nil {
			names := make([]string, len(t.Tuple.ValueTypes))
			for i, vt := range t.Tuple.ValueTypes {
				names[i] = TypeName(vt)
			}
			return "(" + strings.Join(names, ", ") + ")"
		}
	case xdr.ScSpecTypeScSpecTypeBytesN:
		if t.BytesN != nil {
			return fmt.Sprintf("BytesN<%d>", t.BytesN.N)
		}
	case xdr.ScSpecTypeScSpecTypeUdt:
		if t.Udt != nil {
			return t.Udt.Name
		}
	}
	return fmt.Sprintf("unknown(%d)", int32(t.Type))
}

// Type descriptor constructors, used to build descriptors by hand for
// encoding values outside of a function signature.

func PrimitiveType(st xdr.ScSpecType) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: st}
}

func OptionType(value xdr.ScSpecTypeDef) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeOption, Option: &xdr.ScSpecTypeOption{ValueType: value}}
}

func ResultType(ok, err xdr.ScSpecTypeDef) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeResult, Result: &xdr.ScSpecTypeResult{OkType: ok, ErrorType: err}}
}

func VecType(element xdr.ScSpecTypeDef) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeVec, Vec: &xdr.ScSpecTypeVec{ElementType: element}}
}

func MapType(key, value xdr.ScSpecTypeDef) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeMap, Map: &xdr.ScSpecTypeMap{KeyType: key, ValueType: value}}
}

func TupleType(values ...xdr.ScSpecTypeDef) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeTuple, Tuple: &xdr.ScSpecTypeTuple{ValueTypes: values}}
}

func BytesNType(n uint32) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeBytesN, BytesN: &xdr.ScSpecTypeBytesN{N: xdr.Uint32(n)}}
}

func UDTType(name string) xdr.ScSpecTypeDef {
	return xdr.ScSpecTypeDef{Type: xdr.ScSpecTypeScSpecTypeUdt, Udt: &xdr.ScSpecTypeUdt{Name: name}}
}
