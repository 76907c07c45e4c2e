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
package sbtypes

import (
	"bytes"
	"encoding/json"
)

// RawJSON is JSON that is stored unparsed, and rendered compactly for logging
type RawJSON []byte

func (m RawJSON) MarshalJSON() ([]byte, error) {
	return m.Bytes(), nil
}

func (m *RawJSON) UnmarshalJSON(data []byte) error {
	*m = append((*m)[0:0], data...)
	return nil
}

// Bytes returns the JSON, with "null" for an empty value
func (m RawJSON) Bytes() []byte {
	if len(m) == 0 {
		return []byte("null")
	}
	return m
}

func (m RawJSON) IsNil() bool {
	return len(m) == 0 || string(m) == "null"
}

// String returns the compacted form, or the raw bytes if they are not valid JSON
func (m RawJSON) String() string {
	buf := new(bytes.Buffer)
	if err := json.Compact(buf, m); err != nil {
		return string(m)
	}
	return buf.String()
}

// JSONString marshals a value for logging, ignoring errors
func JSONString(v interface{}) RawJSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
