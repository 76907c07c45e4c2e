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
package log

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaleido-io/sorobankit/config/pkg/confutil"
	"github.com/kaleido-io/sorobankit/config/pkg/sbconf"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogContext(t *testing.T) {
	ctx := WithLogField(context.Background(), "atx", "abc")
	assert.Equal(t, "abc", L(ctx).Data["atx"])
	assert.Equal(t, rootLogger, L(context.Background()))
}

func TestLogContextLimited(t *testing.T) {
	ctx := WithLogField(context.Background(), "hash", "0123456789012345678901234567890123456789012345678901234567890123456789")
	assert.Equal(t, "0123456789012345678901234567890123456789012345678901234567890...", L(ctx).Data["hash"])
}

func TestSettingLevels(t *testing.T) {
	defer SetLevel("info")
	for in, out := range map[string]string{
		"eRrOr":   "error",
		"WARNING": "warn",
		"warn":    "warn",
		"DEBUG":   "debug",
		"trace":   "trace",
		"info":    "info",
		"other":   "info",
	} {
		SetLevel(in)
		assert.Equal(t, out, GetLevel(), in)
	}
	SetLevel("trace")
	assert.True(t, IsDebugEnabled())
	assert.True(t, IsTraceEnabled())
	SetLevel("error")
	assert.False(t, IsDebugEnabled())
	assert.Equal(t, logrus.ErrorLevel, logrus.GetLevel())
}

func TestSetFormattingUTC(t *testing.T) {
	defer InitConfig(&sbconf.LogConfig{})
	InitConfig(&sbconf.LogConfig{
		DisableColor: confutil.P(true),
		UTC:          confutil.P(true),
	})
	L(context.Background()).Infof("time in UTC")
}

func TestSetFormattingOutputs(t *testing.T) {
	defer InitConfig(&sbconf.LogConfig{})
	for _, output := range []string{"stdout", "stderr"} {
		InitConfig(&sbconf.LogConfig{Output: confutil.P(output)})
		L(context.Background()).Infof("logging to %s", output)
	}
	InitConfig(&sbconf.LogConfig{Format: confutil.P("detailed")})
	L(context.Background()).Infof("code info included")
}

func TestSetFormattingJSON(t *testing.T) {
	defer InitConfig(&sbconf.LogConfig{})
	InitConfig(&sbconf.LogConfig{
		Format: confutil.P("json"),
		JSON: sbconf.LogJSONConfig{
			MessageField: confutil.P("msg"),
		},
	})
	buf := new(bytes.Buffer)
	logrus.SetOutput(buf)
	L(WithLogField(context.Background(), "method", "simulateTransaction")).Infof("JSON logs")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "JSON logs", line["msg"])
	assert.Equal(t, "simulateTransaction", line["method"])
	assert.NotEmpty(t, line["@timestamp"])
}

func TestSetFormattingFile(t *testing.T) {
	defer InitConfig(&sbconf.LogConfig{})
	logFile := filepath.Join(t.TempDir(), "sorobankit.log")
	InitConfig(&sbconf.LogConfig{
		Output: confutil.P("file"),
		File: sbconf.LogFileConfig{
			Filename: confutil.P(logFile),
		},
	})
	L(context.Background()).Infof("File logs")

	fi, err := os.Stat(logFile)
	require.NoError(t, err)
	assert.False(t, fi.IsDir())
}

func TestSince(t *testing.T) {
	assert.GreaterOrEqual(t, Since(time.Now().Add(-10*time.Millisecond)), 10.0)
}
