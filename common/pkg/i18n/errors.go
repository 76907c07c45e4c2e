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

package i18n

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

const maxInsertLength = 2048

// PDError is implemented by every error created through this package
type PDError interface {
	error
	MessageKey() ErrorMessageKey
	HTTPStatus() int
	StackTrace() string
}

type pdError struct {
	error
	msgKey     ErrorMessageKey
	httpStatus int
}

func (e *pdError) Unwrap() error {
	if e.error == nil {
		return nil
	}
	return errors.Unwrap(e.error)
}

func (e *pdError) MessageKey() ErrorMessageKey {
	return e.msgKey
}

func (e *pdError) HTTPStatus() int {
	return e.httpStatus
}

func (e *pdError) StackTrace() string {
	if e.error == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.error)
}

func truncateInserts(inserts []interface{}) []interface{} {
	for i, insert := range inserts {
		if s, ok := insert.(string); ok && len(s) > maxInsertLength {
			inserts[i] = s[0:maxInsertLength] + "..."
		}
	}
	return inserts
}

func newPDError(ctx context.Context, cause error, msg ErrorMessageKey, inserts ...interface{}) error {
	text := ExpandWithCode(ctx, MessageKey(msg), truncateInserts(inserts)...)
	var err error
	if cause != nil {
		err = pkgerrors.WithStack(&wrapped{msg: text + ": " + cause.Error(), cause: cause})
	} else {
		err = pkgerrors.New(text)
	}
	status, ok := GetStatusHint(string(msg))
	if !ok {
		status = http.StatusInternalServerError
	}
	return &pdError{error: err, msgKey: msg, httpStatus: status}
}

type wrapped struct {
	msg   string
	cause error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.cause }

// NewError creates a new error from a registered message key
func NewError(ctx context.Context, msg ErrorMessageKey, inserts ...interface{}) error {
	return newPDError(ctx, nil, msg, inserts...)
}

// WrapError creates a new error from a registered message key, appending the
// message of the cause. The cause remains reachable with errors.Is / errors.As
func WrapError(ctx context.Context, err error, msg ErrorMessageKey, inserts ...interface{}) error {
	return newPDError(ctx, err, msg, inserts...)
}

// IsMessage returns true if the error, or any error it wraps, was created
// from the given message key
func IsMessage(err error, msg ErrorMessageKey) bool {
	for err != nil {
		if pde, ok := err.(PDError); ok && pde.MessageKey() == msg {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
