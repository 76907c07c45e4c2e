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
package rpctest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kaleido-io/sorobankit/sdk/pkg/rpcclient"
	"github.com/kaleido-io/sorobankit/sdk/pkg/sbtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Handler func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse)

// Method binds a handler to a JSON/RPC method name. Handlers are matched in
// order, so the same method can be listed more than once with Times set to
// script a sequence of responses.
type Method struct {
	Name    string
	Times   int
	Handler Handler
}

// Server is a JSON/RPC server for unit tests, that records every call
type Server struct {
	URL string

	t       *testing.T
	server  *httptest.Server
	mux     sync.Mutex
	methods []*Method
	used    map[*Method]int
	calls   []*rpcclient.RPCRequest
}

func NewServer(t *testing.T, methods ...Method) *Server {
	s := &Server{t: t, used: map[*Method]int{}}
	for i := range methods {
		s.methods = append(s.methods, &methods[i])
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	s.URL = s.server.URL
	t.Cleanup(s.server.Close)
	return s
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var rpcReq rpcclient.RPCRequest
	err := json.NewDecoder(r.Body).Decode(&rpcReq)
	assert.NoError(s.t, err)

	s.mux.Lock()
	s.calls = append(s.calls, &rpcReq)
	var handler Handler
	for _, m := range s.methods {
		if m.Name == rpcReq.Method && (m.Times == 0 || s.used[m] < m.Times) {
			s.used[m]++
			handler = m.Handler
			break
		}
	}
	s.mux.Unlock()

	status, rpcRes := 404, ErrorResponse(rpcReq.ID, fmt.Errorf("method not found: %s", rpcReq.Method))
	if handler != nil {
		status, rpcRes = handler(&rpcReq)
	}
	b, err := json.Marshal(rpcRes)
	require.NoError(s.t, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// Calls returns the methods called so far, in order
func (s *Server) Calls() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	names := make([]string, len(s.calls))
	for i, c := range s.calls {
		names[i] = c.Method
	}
	return names
}

// CallCount returns how many times the given method was called
func (s *Server) CallCount(method string) int {
	count := 0
	for _, m := range s.Calls() {
		if m == method {
			count++
		}
	}
	return count
}

// Result returns a handler that always succeeds with the given result
func Result(result interface{}) Handler {
	return func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
		return SuccessResponse(req.ID, result)
	}
}

// Fail returns a handler that always fails with the given message
func Fail(message string) Handler {
	return func(req *rpcclient.RPCRequest) (int, *rpcclient.RPCResponse) {
		return 500, ErrorResponse(req.ID, fmt.Errorf("%s", message))
	}
}

func ErrorResponse(id sbtypes.RawJSON, err error) *rpcclient.RPCResponse {
	return &rpcclient.RPCResponse{
		JSONRpc: "2.0",
		ID:      id,
		Error: &rpcclient.RPCError{
			Code:    int64(rpcclient.RPCCodeInternalError),
			Message: err.Error(),
		},
	}
}

func SuccessResponse(id sbtypes.RawJSON, result interface{}) (int, *rpcclient.RPCResponse) {
	b, err := json.Marshal(result)
	if err != nil {
		return 500, ErrorResponse(id, err)
	}
	return 200, &rpcclient.RPCResponse{
		JSONRpc: "2.0",
		ID:      id,
		Result:  b,
	}
}
