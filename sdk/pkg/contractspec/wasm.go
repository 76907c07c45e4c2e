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
	"time"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/tetratelabs/wazero"
)

// SpecSectionName is the wasm custom section that holds the XDR spec entries
const SpecSectionName = "contractspecv0"

// WasmCustomSection returns the content of a named custom section of a wasm
// module. The module is only decoded, never instantiated.
func WasmCustomSection(ctx context.Context, wasm []byte, name string) ([]byte, error) {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter().WithCustomSections(true))
	defer r.Close(ctx)

	cm, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgSpecWasmCompileFailed)
	}
	defer cm.Close(ctx)

	var content []byte
	found := false
	for _, cs := range cm.CustomSections() {
		if cs.Name() == name {
			content = append(content, cs.Data()...)
			found = true
		}
	}
	if !found {
		return nil, i18n.NewError(ctx, sbmsgs.MsgSpecWasmNoSpecSection, name)
	}
	return content, nil
}

// FromWasm reads the spec embedded in a compiled contract
func FromWasm(ctx context.Context, wasm []byte) (*Spec, error) {
	startTime := time.Now()
	section, err := WasmCustomSection(ctx, wasm, SpecSectionName)
	if err != nil {
		return nil, err
	}
	log.L(ctx).Debugf("Read %d byte spec section from %d byte wasm in %.2fms", len(section), len(wasm), log.Since(startTime))
	return NewSpecFromXDRStream(ctx, section)
}
