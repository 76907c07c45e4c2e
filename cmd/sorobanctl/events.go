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

	"github.com/iancoleman/orderedmap"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/sdk/pkg/contractspec"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sorobanrpc"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/xdr"
)

type eventsFlags struct {
	start uint32
	limit uint
}

// decodeScVal gives the natural native form of an event topic or value, or
// the raw base64 if it cannot be parsed
func decodeScVal(ctx context.Context, b64 string) any {
	var v xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(b64, &v); err != nil {
		log.L(ctx).Warnf("Undecodable event value: %s", err)
		return b64
	}
	return contractspec.ScValToNativeUntyped(v)
}

func eventOutput(ctx context.Context, e *sorobanrpc.EventInfo) *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.Set("id", e.ID)
	o.Set("ledger", e.Ledger)
	o.Set("contractId", e.ContractID)
	o.Set("txHash", e.TxHash)
	topics := make([]any, len(e.Topic))
	for i, t := range e.Topic {
		topics[i] = decodeScVal(ctx, t)
	}
	o.Set("topics", topics)
	o.Set("value", decodeScVal(ctx, e.Value))
	return o
}

func (c *cli) eventsCmd() *cobra.Command {
	var f eventsFlags
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the events emitted by the configured contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			conn, err := c.connect(ctx)
			if err != nil {
				return err
			}
			req := &sorobanrpc.GetEventsRequest{
				StartLedger: f.start,
				Filters: []sorobanrpc.EventFilter{{
					Type:        "contract",
					ContractIDs: []string{conn.conf.ContractID},
				}},
			}
			if f.limit > 0 {
				req.Pagination = &sorobanrpc.EventPagination{Limit: f.limit}
			}
			res, err := conn.rpc.GetEvents(ctx, req)
			if err != nil {
				return err
			}
			events := make([]*orderedmap.OrderedMap, len(res.Events))
			for i := range res.Events {
				events[i] = eventOutput(ctx, &res.Events[i])
			}
			out := orderedmap.New()
			out.Set("latestLedger", res.LatestLedger)
			out.Set("cursor", res.Cursor)
			out.Set("events", events)
			return printJSON(cmd, out)
		},
	}
	c.addConfigFlag(cmd)
	cmd.Flags().Uint32Var(&f.start, "start", 0, "first ledger to search")
	cmd.Flags().UintVar(&f.limit, "limit", 0, "maximum number of events to return")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
