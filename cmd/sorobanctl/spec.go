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

package main

import (
	"context"
	"os"

	"github.com/iancoleman/orderedmap"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/xdr"
)

func readSpec(ctx context.Context, wasmFile string) (*contractspec.Spec, error) {
	wasm, err := os.ReadFile(wasmFile)
	if err != nil {
		return nil, err
	}
	return contractspec.FromWasm(ctx, wasm)
}

func describeFunc(f xdr.ScSpecFunctionV0) *orderedmap.OrderedMap {
	d := orderedmap.New()
	d.Set("name", string(f.Name))
	if f.Doc != "" {
		d.Set("doc", f.Doc)
	}
	d.Set("inputs", lo.Map(f.Inputs, func(in xdr.ScSpecFunctionInputV0, _ int) *orderedmap.OrderedMap {
		i := orderedmap.New()
		i.Set("name", in.Name)
		i.Set("type", contractspec.TypeName(in.Type))
		return i
	}))
	d.Set("outputs", lo.Map(f.Outputs, func(t xdr.ScSpecTypeDef, _ int) string {
		return contractspec.TypeName(t)
	}))
	return d
}

func describeSpec(spec *contractspec.Spec) *orderedmap.OrderedMap {
	d := orderedmap.New()
	d.Set("functions", lo.Map(spec.Funcs(), func(f xdr.ScSpecFunctionV0, _ int) *orderedmap.OrderedMap {
		return describeFunc(f)
	}))
	d.Set("errors", lo.Map(spec.ErrorCases(), func(c xdr.ScSpecUdtErrorEnumCaseV0, _ int) *orderedmap.OrderedMap {
		e := orderedmap.New()
		e.Set("code", uint32(c.Value))
		e.Set("name", c.Name)
		if c.Doc != "" {
			e.Set("doc", c.Doc)
		}
		return e
	}))
	return d
}

func (c *cli) specCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec <wasm-file>",
		Short: "List the functions and error cases of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readSpec(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, describeSpec(spec))
		},
	}
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <wasm-file> [function]",
		Short: "Print the JSON schema for the arguments of a contract function",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spec, err := readSpec(ctx, args[0])
			if err != nil {
				return err
			}
			fn := ""
			if len(args) > 1 {
				fn = args[1]
			}
			schema, err := spec.JSONSchema(ctx, fn)
			if err != nil {
				return err
			}
			return printJSON(cmd, schema)
		},
	}
}
