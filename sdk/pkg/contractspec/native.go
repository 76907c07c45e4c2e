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

// Union is the native form of a value of a user defined union type. Values is
// nil for a void case, and holds one value per element for a tuple case.
type Union struct {
	Tag    string `json:"tag"`
	Values []any  `json:"values,omitempty"`
}

// MapEntry is one key/value pair of a NativeMap
type MapEntry struct {
	Key   any `json:"key"`
	Value any `json:"value"`
}

// NativeMap is the native form of a contract map. Contract maps can have keys
// of any type, so they cannot be represented with a Go map. Decoded maps are
// in canonical key order.
type NativeMap []MapEntry

// Get returns the value for a key, compared with ==
func (m NativeMap) Get(key any) (any, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// ErrorValue is a contract error returned in place of a value
type ErrorValue struct {
	Code    uint32 `json:"code"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorType describes one case of an error enum declared by the contract
type ErrorType struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}
