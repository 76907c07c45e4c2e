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
	"sort"

	"github.com/stellar/go-stellar-sdk/xdr"
)

// CompareScVal orders two values the way the Soroban host orders map keys:
// by value type first, then by value. Integers compare numerically, byte
// strings and symbols lexicographically, and containers element by element.
func CompareScVal(a, b xdr.ScVal) int {
	if a.Type != b.Type {
		if a.Type < b.Type {
			return -1
		}
		return 1
	}
	switch a.Type {
	case xdr.ScValTypeScvVoid:
		return 0
	case xdr.ScValTypeScvBool:
		return compareBool(a.B != nil && *a.B, b.B != nil && *b.B)
	case xdr.ScValTypeScvBytes:
		return bytes.Compare(derefBytes(a.Bytes), derefBytes(b.Bytes))
	case xdr.ScValTypeScvString:
		return bytes.Compare([]byte(derefString(a.Str)), []byte(derefString(b.Str)))
	case xdr.ScValTypeScvSymbol:
		return bytes.Compare([]byte(derefSymbol(a.Sym)), []byte(derefSymbol(b.Sym)))
	case xdr.ScValTypeScvVec:
		return compareVec(vecElements(a), vecElements(b))
	case xdr.ScValTypeScvMap:
		return compareMap(mapEntries(a), mapEntries(b))
	}
	if ai, ok := scValBigInt(a); ok {
		if bi, ok := scValBigInt(b); ok {
			return ai.Cmp(bi)
		}
	}
	ab, _ := a.MarshalBinary()
	bb, _ := b.MarshalBinary()
	return bytes.Compare(ab, bb)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareVec(a, b []xdr.ScVal) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareScVal(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareLen(len(a), len(b))
}

func compareMap(a, b []xdr.ScMapEntry) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareScVal(a[i].Key, b[i].Key); c != 0 {
			return c
		}
		if c := CompareScVal(a[i].Val, b[i].Val); c != 0 {
			return c
		}
	}
	return compareLen(len(a), len(b))
}

func compareLen(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortMapEntries sorts map entries into canonical key order
func SortMapEntries(entries []xdr.ScMapEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return CompareScVal(entries[i].Key, entries[j].Key) < 0
	})
}

func derefBytes(b *xdr.ScBytes) []byte {
	if b == nil {
		return nil
	}
	return *b
}

func derefString(s *xdr.ScString) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func derefSymbol(s *xdr.ScSymbol) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func vecElements(v xdr.ScVal) []xdr.ScVal {
	if v.Vec == nil || *v.Vec == nil {
		return nil
	}
	return **v.Vec
}

func mapEntries(v xdr.ScVal) []xdr.ScMapEntry {
	if v.Map == nil || *v.Map == nil {
		return nil
	}
	return **v.Map
}

func vecScVal(elements []xdr.ScVal) xdr.ScVal {
	vec := xdr.ScVec(elements)
	pv := &vec
	return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &pv}
}

func mapScVal(entries []xdr.ScMapEntry) xdr.ScVal {
	m := xdr.ScMap(entries)
	pm := &m
	return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &pm}
}

func symbolScVal(s string) xdr.ScVal {
	sym := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
}

func voidScVal() xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvVoid}
}
