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
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	err := NewError(context.Background(), TestError1, "x")
	assert.EqualError(t, err, "SB99001: Test error 1: x")
	assert.Nil(t, errors.Unwrap(err))
}

func TestNewErrorTruncate(t *testing.T) {
	err := NewError(context.Background(), TestError3, strings.Repeat("x", 3000))
	assert.Error(t, err)
	var pde PDError
	assert.Implements(t, &pde, err)
	assert.Equal(t, 400, err.(PDError).HTTPStatus())
	assert.Equal(t, TestError3, err.(PDError).MessageKey())
	assert.Less(t, len(err.Error()), 2100)
}

func TestWrapError(t *testing.T) {
	err := WrapError(context.Background(), fmt.Errorf("some error"), TestError1, "x")
	assert.EqualError(t, err, "SB99001: Test error 1: x: some error")
	assert.Equal(t, 500, err.(PDError).HTTPStatus())
	assert.Equal(t, TestError1, err.(PDError).MessageKey())
	assert.NotEmpty(t, err.(PDError).StackTrace())
}

func TestWrapErrorIsAs(t *testing.T) {
	err := WrapError(context.Background(), io.EOF, TestError2, "x")
	assert.ErrorIs(t, err, io.EOF)

	outer := WrapError(context.Background(), err, TestError1, "y")
	assert.True(t, IsMessage(outer, TestError1))
	assert.True(t, IsMessage(outer, TestError2))
	assert.False(t, IsMessage(outer, TestError3))
	assert.False(t, IsMessage(nil, TestError3))
}

func TestSafeStackFail(t *testing.T) {
	assert.Empty(t, (&pdError{}).StackTrace())
	assert.Nil(t, (&pdError{}).Unwrap())
}

func TestWrapNilError(t *testing.T) {
	err := WrapError(context.Background(), nil, TestError1, "x")
	assert.EqualError(t, err, "SB99001: Test error 1: x")
}
