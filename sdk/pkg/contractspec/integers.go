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
	"math"
	"math/big"
	"strings"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/stellar/go-stellar-sdk/xdr"
)

type intRange struct {
	min, max *big.Int
}

var (
	mask64       = new(big.Int).SetUint64(math.MaxUint64)
	two128       = new(big.Int).Lsh(big.NewInt(1), 128)
	two256       = new(big.Int).Lsh(big.NewInt(1), 256)
	maxSafeFloat = float64(1 << 53)
)

func unsignedRange(bits uint) intRange {
	return intRange{
		min: big.NewInt(0),
		max: new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1)),
	}
}

func signedRange(bits uint) intRange {
	half := new(big.Int).Lsh(big.NewInt(1), bits-1)
	return intRange{
		min: new(big.Int).Neg(half),
		max: new(big.Int).Sub(half, big.NewInt(1)),
	}
}

var intRanges = map[xdr.ScSpecType]intRange{
	xdr.ScSpecTypeScSpecTypeU32:       unsignedRange(32),
	xdr.ScSpecTypeScSpecTypeI32:       signedRange(32),
	xdr.ScSpecTypeScSpecTypeU64:       unsignedRange(64),
	xdr.ScSpecTypeScSpecTypeI64:       signedRange(64),
	xdr.ScSpecTypeScSpecTypeTimepoint: unsignedRange(64),
	xdr.ScSpecTypeScSpecTypeDuration:  unsignedRange(64),
	xdr.ScSpecTypeScSpecTypeU128:      unsignedRange(128),
	xdr.ScSpecTypeScSpecTypeI128:      signedRange(128),
	xdr.ScSpecTypeScSpecTypeU256:      unsignedRange(256),
	xdr.ScSpecTypeScSpecTypeI256:      signedRange(256),
}

// toBigInt accepts any of the native integer forms: Go integer kinds, *big.Int,
// json.Number, decimal (or 0x prefixed hex) strings, and floats that hold an
// exact integer no larger than 2^53.
func toBigInt(ctx context.Context, v any, typeName, path string) (*big.Int, error) {
	switch v := v.(type) {
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case *big.Int:
		if v == nil {
			return nil, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, typeName, v, path)
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case json.Number:
		return parseBigInt(ctx, v.String(), typeName, path)
	case string:
		return parseBigInt(ctx, v, typeName, path)
	case float32:
		return floatToBigInt(ctx, float64(v), typeName, path)
	case float64:
		return floatToBigInt(ctx, v, typeName, path)
	default:
		return nil, i18n.NewError(ctx, sbmsgs.MsgCodecTypeMismatch, typeName, v, path)
	}
}

func parseBigInt(ctx context.Context, s, typeName, path string) (*big.Int, error) {
	str := strings.TrimSpace(s)
	neg := strings.HasPrefix(str, "-")
	digits := strings.TrimPrefix(str, "-")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base = 16
		digits = digits[2:]
	}
	i, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" || strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		return nil, i18n.NewError(ctx, sbmsgs.MsgCodecInvalidInteger, s, typeName, path)
	}
	if neg {
		i.Neg(i)
	}
	return i, nil
}

func floatToBigInt(ctx context.Context, f float64, typeName, path string) (*big.Int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxSafeFloat {
		return nil, i18n.NewError(ctx, sbmsgs.MsgCodecFloatPrecision, f, typeName, path)
	}
	return big.NewInt(int64(f)), nil
}

func checkRange(ctx context.Context, i *big.Int, st xdr.ScSpecType, path string) error {
	r := intRanges[st]
	if i.Sign() < 0 && r.min.Sign() == 0 {
		return i18n.NewError(ctx, sbmsgs.MsgCodecNegativeUnsigned, i.String(), path)
	}
	if i.Cmp(r.min) < 0 || i.Cmp(r.max) > 0 {
		return i18n.NewError(ctx, sbmsgs.MsgCodecIntegerOutOfRange, i.String(), primitiveTypeNames[st], path)
	}
	return nil
}

// words splits a non-negative value into n 64 bit words, most significant first
func words(i *big.Int, n int) []uint64 {
	w := make([]uint64, n)
	v := new(big.Int).Set(i)
	for idx := n - 1; idx >= 0; idx-- {
		w[idx] = new(big.Int).And(v, mask64).Uint64()
		v.Rsh(v, 64)
	}
	return w
}

func twosComplement(i *big.Int, modulus *big.Int) *big.Int {
	if i.Sign() >= 0 {
		return i
	}
	return new(big.Int).Add(i, modulus)
}

func fromWords(signedTop bool, w ...uint64) *big.Int {
	var v *big.Int
	if signedTop {
		v = big.NewInt(int64(w[0]))
	} else {
		v = new(big.Int).SetUint64(w[0])
	}
	for _, word := range w[1:] {
		v.Lsh(v, 64)
		v.Or(v, new(big.Int).SetUint64(word))
	}
	return v
}

// integerScVal builds the ScVal for an integer that has already been range checked
func integerScVal(i *big.Int, st xdr.ScSpecType) xdr.ScVal {
	switch st {
	case xdr.ScSpecTypeScSpecTypeU32:
		u := xdr.Uint32(i.Uint64())
		return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}
	case xdr.ScSpecTypeScSpecTypeI32:
		v := xdr.Int32(i.Int64())
		return xdr.ScVal{Type: xdr.ScValTypeScvI32, I32: &v}
	case xdr.ScSpecTypeScSpecTypeU64:
		u := xdr.Uint64(i.Uint64())
		return xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &u}
	case xdr.ScSpecTypeScSpecTypeI64:
		v := xdr.Int64(i.Int64())
		return xdr.ScVal{Type: xdr.ScValTypeScvI64, I64: &v}
	case xdr.ScSpecTypeScSpecTypeTimepoint:
		tp := xdr.TimePoint(i.Uint64())
		return xdr.ScVal{Type: xdr.ScValTypeScvTimepoint, Timepoint: &tp}
	case xdr.ScSpecTypeScSpecTypeDuration:
		d := xdr.Duration(i.Uint64())
		return xdr.ScVal{Type: xdr.ScValTypeScvDuration, Duration: &d}
	case xdr.ScSpecTypeScSpecTypeU128:
		w := words(i, 2)
		return xdr.ScVal{Type: xdr.ScValTypeScvU128, U128: &xdr.UInt128Parts{Hi: xdr.Uint64(w[0]), Lo: xdr.Uint64(w[1])}}
	case xdr.ScSpecTypeScSpecTypeI128:
		w := words(twosComplement(i, two128), 2)
		return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &xdr.Int128Parts{Hi: xdr.Int64(int64(w[0])), Lo: xdr.Uint64(w[1])}}
	case xdr.ScSpecTypeScSpecTypeU256:
		w := words(i, 4)
		return xdr.ScVal{Type: xdr.ScValTypeScvU256, U256: &xdr.UInt256Parts{
			HiHi: xdr.Uint64(w[0]), HiLo: xdr.Uint64(w[1]), LoHi: xdr.Uint64(w[2]), LoLo: xdr.Uint64(w[3]),
		}}
	default: // I256
		w := words(twosComplement(i, two256), 4)
		return xdr.ScVal{Type: xdr.ScValTypeScvI256, I256: &xdr.Int256Parts{
			HiHi: xdr.Int64(int64(w[0])), HiLo: xdr.Uint64(w[1]), LoHi: xdr.Uint64(w[2]), LoLo: xdr.Uint64(w[3]),
		}}
	}
}

// scValBigInt extracts the value of any of the integer ScVal types wider than
// 32 bits. The boolean is false if the ScVal is not one of those types.
func scValBigInt(v xdr.ScVal) (*big.Int, bool) {
	switch v.Type {
	case xdr.ScValTypeScvU32:
		if v.U32 != nil {
			return new(big.Int).SetUint64(uint64(*v.U32)), true
		}
	case xdr.ScValTypeScvI32:
		if v.I32 != nil {
			return big.NewInt(int64(*v.I32)), true
		}
	case xdr.ScValTypeScvU64:
		if v.U64 != nil {
			return new(big.Int).SetUint64(uint64(*v.U64)), true
		}
	case xdr.ScValTypeScvI64:
		if v.I64 != nil {
			return big.NewInt(int64(*v.I64)), true
		}
	case xdr.ScValTypeScvTimepoint:
		if v.Timepoint != nil {
			return new(big.Int).SetUint64(uint64(*v.Timepoint)), true
		}
	case xdr.ScValTypeScvDuration:
		if v.Duration != nil {
			return new(big.Int).SetUint64(uint64(*v.Duration)), true
		}
	case xdr.ScValTypeScvU128:
		if v.U128 != nil {
			return fromWords(false, uint64(v.U128.Hi), uint64(v.U128.Lo)), true
		}
	case xdr.ScValTypeScvI128:
		if v.I128 != nil {
			return fromWords(true, uint64(v.I128.Hi), uint64(v.I128.Lo)), true
		}
	case xdr.ScValTypeScvU256:
		if p := v.U256; p != nil {
			return fromWords(false, uint64(p.HiHi), uint64(p.HiLo), uint64(p.LoHi), uint64(p.LoLo)), true
		}
	case xdr.ScValTypeScvI256:
		if p := v.I256; p != nil {
			return fromWords(true, uint64(p.HiHi), uint64(p.HiLo), uint64(p.LoHi), uint64(p.LoLo)), true
		}
	}
	return nil, false
}
