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
package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kaleido-io/sorobankit/common/pkg/i18n"
	"github.com/kaleido-io/sorobankit/common/pkg/log"
	"github.com/kaleido-io/sorobankit/common/pkg/sbmsgs"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sbresty"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sbtypes"
)

type RPCCode int64

const (
	RPCCodeParseError     RPCCode = -32700
	RPCCodeInvalidRequest RPCCode = -32600
	RPCCodeInvalidParams  RPCCode = -32602
	RPCCodeInternalError  RPCCode = -32603
)

type ErrorRPC interface {
	error
	RPCError() *RPCError
}

// Client makes JSON/RPC 2.0 calls. Params are sent positionally, unless a
// single param wrapped with ByName is supplied, in which case it is sent as
// the params object.
type Client interface {
	CallRPC(ctx context.Context, result interface{}, method string, params ...interface{}) ErrorRPC
}

type byName struct {
	obj interface{}
}

// ByName sends the supplied object (a struct or map) as named parameters
func ByName(obj interface{}) interface{} {
	return byName{obj: obj}
}

func NewHTTPClient(ctx context.Context, conf *sbconf.HTTPClientConfig) (Client, error) {
	rc, err := sbresty.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return WrapRestyClient(rc), nil
}

func WrapRestyClient(rc *resty.Client) Client {
	return &rpcClient{client: rc}
}

type rpcClient struct {
	client         *resty.Client
	requestCounter int64
}

type RPCRequest struct {
	JSONRpc string          `json:"jsonrpc"`
	ID      sbtypes.RawJSON `json:"id"`
	Method  string          `json:"method"`
	Params  sbtypes.RawJSON `json:"params,omitempty"`
}

type RPCError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    sbtypes.RawJSON `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

func (e *RPCError) RPCError() *RPCError {
	return e
}

type RPCResponse struct {
	JSONRpc string          `json:"jsonrpc"`
	ID      sbtypes.RawJSON `json:"id"`
	Result  sbtypes.RawJSON `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func (r *RPCResponse) Message() string {
	if r.Error != nil {
		return r.Error.Error()
	}
	return ""
}

func (rc *rpcClient) allocateRequestID(req *RPCRequest) string {
	reqID := fmt.Sprintf(`%.9d`, atomic.AddInt64(&rc.requestCounter, 1))
	req.ID = sbtypes.RawJSON(`"` + reqID + `"`)
	return reqID
}

func (rc *rpcClient) CallRPC(ctx context.Context, result interface{}, method string, params ...interface{}) ErrorRPC {
	rpcReq, rpcErr := buildRequest(ctx, method, params)
	if rpcErr != nil {
		return rpcErr
	}
	res, err := rc.SyncRequest(ctx, rpcReq)
	if err != nil {
		if res != nil && res.Error != nil && res.Error.Code != 0 {
			return res.Error
		}
		return &RPCError{Code: int64(RPCCodeInternalError), Message: err.Error()}
	}
	if err := json.Unmarshal(res.Result.Bytes(), result); err != nil {
		err = i18n.NewError(ctx, sbmsgs.MsgRPCClientResultParseFailed, result, err)
		return &RPCError{Code: int64(RPCCodeParseError), Message: err.Error()}
	}
	return nil
}

// SyncRequest sends one request and waits for the response. The response is
// populated on all paths, including errors.
func (rc *rpcClient) SyncRequest(ctx context.Context, rpcReq *RPCRequest) (*RPCResponse, error) {
	beReq := *rpcReq
	beReq.JSONRpc = "2.0"
	rpcTraceID := rc.allocateRequestID(&beReq)

	rpcRes := new(RPCResponse)

	log.L(ctx).Debugf("RPC[%s] --> %s", rpcTraceID, rpcReq.Method)
	if log.IsTraceEnabled() {
		log.L(ctx).Tracef("RPC[%s] INPUT: %s", rpcTraceID, sbtypes.JSONString(beReq))
	}
	rpcStartTime := time.Now()
	res, err := rc.client.R().
		SetContext(ctx).
		SetBody(beReq).
		SetResult(rpcRes).
		SetError(rpcRes).
		Post("")

	rpcRes.ID = rpcReq.ID
	if err != nil {
		err := i18n.NewError(ctx, sbmsgs.MsgRPCClientRequestFailed, err)
		log.L(ctx).Errorf("RPC[%s] <-- ERROR: %s", rpcTraceID, err)
		return RPCErrorResponse(err, rpcReq.ID, RPCCodeInternalError), err
	}
	if log.IsTraceEnabled() {
		log.L(ctx).Tracef("RPC[%s] OUTPUT: %s", rpcTraceID, sbtypes.JSONString(rpcRes))
	}
	// errors can come back with a 200 status code, as well as other codes
	if res.IsError() || rpcRes.Error != nil && rpcRes.Error.Code != 0 {
		rpcMsg := rpcRes.Message()
		errLog := rpcMsg
		if rpcMsg == "" {
			errLog = string(res.Body())
			rpcMsg = i18n.NewError(ctx, sbmsgs.MsgRPCClientRequestFailed, res.Status()).Error()
		}
		log.L(ctx).Errorf("RPC[%s] <-- [%d]: %s", rpcTraceID, res.StatusCode(), errLog)
		return rpcRes, errors.New(rpcMsg)
	}
	log.L(ctx).Infof("RPC[%s] <-- %s [%d] OK (%.2fms)", rpcTraceID, rpcReq.Method, res.StatusCode(), log.Since(rpcStartTime))
	return rpcRes, nil
}

func RPCErrorResponse(err error, id sbtypes.RawJSON, code RPCCode) *RPCResponse {
	return &RPCResponse{
		JSONRpc: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    int64(code),
			Message: err.Error(),
		},
	}
}

func buildRequest(ctx context.Context, method string, params []interface{}) (*RPCRequest, ErrorRPC) {
	req := &RPCRequest{
		JSONRpc: "2.0",
		Method:  method,
	}
	if len(params) == 1 {
		if named, ok := params[0].(byName); ok {
			b, err := json.Marshal(named.obj)
			if err != nil {
				return nil, NewRPCError(ctx, RPCCodeInvalidParams, sbmsgs.MsgRPCClientInvalidParam, 0, method, err)
			}
			req.Params = b
			return req, nil
		}
	}
	if len(params) == 0 {
		// Servers reject an empty params array for methods that take none
		return req, nil
	}
	positional := make([]json.RawMessage, len(params))
	for i, param := range params {
		b, err := json.Marshal(param)
		if err != nil {
			return nil, NewRPCError(ctx, RPCCodeInvalidParams, sbmsgs.MsgRPCClientInvalidParam, i, method, err)
		}
		positional[i] = b
	}
	req.Params, _ = json.Marshal(positional)
	return req, nil
}

func NewRPCError(ctx context.Context, code RPCCode, msg i18n.ErrorMessageKey, inserts ...interface{}) *RPCError {
	return &RPCError{Code: int64(code), Message: i18n.NewError(ctx, msg, inserts...).Error()}
}

func WrapRPCError(code RPCCode, err error) *RPCError {
	return &RPCError{Code: int64(code), Message: err.Error()}
}
