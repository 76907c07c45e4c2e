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
	"context"

	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/samber/lo"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// Spec is the parsed interface description of a contract: its functions and
// the user defined types they refer to. A Spec is immutable once built, and
// safe for concurrent use.
type Spec struct {
	entries []xdr.ScSpecEntry
	byName  map[string]*xdr.ScSpecEntry
	errors  map[uint32]ErrorType
}

// EntryName returns the name an entry is indexed under. Events are not
// indexed, as they share a namespace with functions.
func EntryName(e xdr.ScSpecEntry) (string, bool) {
	switch e.Kind {
	case xdr.ScSpecEntryKindScSpecEntryFunctionV0:
		if e.FunctionV0 != nil {
			return string(e.FunctionV0.Name), true
		}
	case xdr.ScSpecEntryKindScSpecEntryUdtStructV0:
		if e.UdtStructV0 != nil {
			return e.UdtStructV0.Name, true
		}
	case xdr.ScSpecEntryKindScSpecEntryUdtUnionV0:
		if e.UdtUnionV0 != nil {
			return e.UdtUnionV0.Name, true
		}
	case xdr.ScSpecEntryKindScSpecEntryUdtEnumV0:
		if e.UdtEnumV0 != nil {
			return e.UdtEnumV0.Name, true
		}
	case xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0:
		if e.UdtErrorEnumV0 != nil {
			return e.UdtErrorEnumV0.Name, true
		}
	}
	return "", false
}

func NewSpec(ctx context.Context, entries []xdr.ScSpecEntry) (*Spec, error) {
	if len(entries) == 0 {
		return nil, i18n.NewError(ctx, sbmsgs.MsgSpecNoEntries)
	}
	s := &Spec{
		entries: append([]xdr.ScSpecEntry{}, entries...),
		byName:  make(map[string]*xdr.ScSpecEntry, len(entries)),
		errors:  make(map[uint32]ErrorType),
	}
	for i := range s.entries {
		e := &s.entries[i]
		name, indexed := EntryName(*e)
		if !indexed {
			if e.Kind != xdr.ScSpecEntryKindScSpecEntryEventV0 {
				return nil, i18n.NewError(ctx, sbmsgs.MsgSpecInvalidEntry, i)
			}
			continue
		}
		if _, dup := s.byName[name]; dup {
			return nil, i18n.NewError(ctx, sbmsgs.MsgSpecDuplicateEntry, name)
		}
		s.byName[name] = e
		if e.UdtErrorEnumV0 != nil {
			for _, c := range e.UdtErrorEnumV0.Cases {
				s.errors[uint32(c.Value)] = errorType(c)
			}
		}
	}
	log.L(ctx).Debugf("Loaded contract spec with %d entries (%d functions)", len(s.entries), len(s.Funcs()))
	return s, nil
}

// NewSpecFromBase64 builds a spec from base64 encoded XDR entries
func NewSpecFromBase64(ctx context.Context, entries []string) (*Spec, error) {
	parsed := make([]xdr.ScSpecEntry, len(entries))
	for i, b64 := range entries {
		if err := xdr.SafeUnmarshalBase64(b64, &parsed[i]); err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgSpecInvalidEntry, i)
		}
	}
	return NewSpec(ctx, parsed)
}

// NewSpecFromXDRStream builds a spec from a concatenated stream of XDR
// entries, as stored in the custom section of a contract wasm
func NewSpecFromXDRStream(ctx context.Context, data []byte) (*Spec, error) {
	var entries []xdr.ScSpecEntry
	reader := bytes.NewReader(data)
	for reader.Len() > 0 {
		var entry xdr.ScSpecEntry
		if _, err := xdr.Unmarshal(reader, &entry); err != nil {
			return nil, i18n.WrapError(ctx, err, sbmsgs.MsgSpecInvalidEntry, len(entries))
		}
		entries = append(entries, entry)
	}
	return NewSpec(ctx, entries)
}

func errorType(c xdr.ScSpecUdtErrorEnumCaseV0) ErrorType {
	msg := c.Doc
	if msg == "" {
		msg = c.Name
	}
	return ErrorType{Name: c.Name, Message: msg}
}

// Entries returns every entry in declaration order
func (s *Spec) Entries() []xdr.ScSpecEntry {
	return s.entries
}

// EntriesBase64 returns every entry as base64 XDR, the form accepted by NewSpecFromBase64
func (s *Spec) EntriesBase64() ([]string, error) {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		b64, err := xdr.MarshalBase64(e)
		if err != nil {
			return nil, err
		}
		out[i] = b64
	}
	return out, nil
}

func (s *Spec) FindEntry(ctx context.Context, name string) (xdr.ScSpecEntry, error) {
	e, ok := s.byName[name]
	if !ok {
		return xdr.ScSpecEntry{}, i18n.NewError(ctx, sbmsgs.MsgSpecEntryNotFound, name)
	}
	return *e, nil
}

// findType looks up a user defined type, failing for functions
func (s *Spec) findType(ctx context.Context, name string) (*xdr.ScSpecEntry, error) {
	e, ok := s.byName[name]
	if !ok {
		return nil, i18n.NewError(ctx, sbmsgs.MsgSpecTypeNotFound, name)
	}
	if e.Kind == xdr.ScSpecEntryKindScSpecEntryFunctionV0 {
		return nil, i18n.NewError(ctx, sbmsgs.MsgSpecNotAType, name)
	}
	return e, nil
}

// Funcs returns the functions of the contract in declaration order
func (s *Spec) Funcs() []xdr.ScSpecFunctionV0 {
	return lo.FilterMap(s.entries, func(e xdr.ScSpecEntry, _ int) (xdr.ScSpecFunctionV0, bool) {
		if e.Kind != xdr.ScSpecEntryKindScSpecEntryFunctionV0 || e.FunctionV0 == nil {
			return xdr.ScSpecFunctionV0{}, false
		}
		return *e.FunctionV0, true
	})
}

func (s *Spec) GetFunc(ctx context.Context, name string) (*xdr.ScSpecFunctionV0, error) {
	e, err := s.FindEntry(ctx, name)
	if err != nil {
		return nil, err
	}
	if e.Kind != xdr.ScSpecEntryKindScSpecEntryFunctionV0 {
		return nil, i18n.NewError(ctx, sbmsgs.MsgSpecFunctionNotFound, name)
	}
	return e.FunctionV0, nil
}

// FuncArgsToScVals encodes named arguments into the positional values of a
// call, in the order the function declares its parameters. Optional
// parameters may be omitted.
func (s *Spec) FuncArgsToScVals(ctx context.Context, fn string, args map[string]any) ([]xdr.ScVal, error) {
	f, err := s.GetFunc(ctx, fn)
	if err != nil {
		return nil, err
	}
	vals := make([]xdr.ScVal, len(f.Inputs))
	for i, input := range f.Inputs {
		arg, ok := args[input.Name]
		if !ok && input.Type.Type != xdr.ScSpecTypeScSpecTypeOption {
			return nil, i18n.NewError(ctx, sbmsgs.MsgSpecMissingArgument, input.Name, fn)
		}
		if vals[i], err = s.encode(ctx, arg, input.Type, input.Name); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

// FuncResToNative decodes the return value of a function. A function with
// no declared outputs returns nil.
func (s *Spec) FuncResToNative(ctx context.Context, fn string, result xdr.ScVal) (any, error) {
	f, err := s.GetFunc(ctx, fn)
	if err != nil {
		return nil, err
	}
	if len(f.Outputs) == 0 {
		if result.Type != xdr.ScValTypeScvVoid {
			log.L(ctx).Warnf("Function %s declares no outputs but returned %s", fn, result.Type)
		}
		return nil, nil
	}
	return s.decode(ctx, result, f.Outputs[0], "result")
}

// FuncResToNativeBase64 decodes a base64 XDR return value
func (s *Spec) FuncResToNativeBase64(ctx context.Context, fn string, result string) (any, error) {
	var v xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(result, &v); err != nil {
		return nil, i18n.WrapError(ctx, err, sbmsgs.MsgSpecDecodeResultFailed, fn)
	}
	return s.FuncResToNative(ctx, fn, v)
}

// ErrorCases returns the cases of every error enum in the spec
func (s *Spec) ErrorCases() []xdr.ScSpecUdtErrorEnumCaseV0 {
	var cases []xdr.ScSpecUdtErrorEnumCaseV0
	for _, e := range s.entries {
		if e.Kind == xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0 && e.UdtErrorEnumV0 != nil {
			cases = append(cases, e.UdtErrorEnumV0.Cases...)
		}
	}
	return cases
}

// ErrorTypes maps each contract error code to its name and message
func (s *Spec) ErrorTypes() map[uint32]ErrorType {
	return s.errors
}
