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
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// MessageKey is the key into the translation catalog for any message
type MessageKey string

// ErrorMessageKey is a MessageKey used for an error, which might carry a status hint
type ErrorMessageKey MessageKey

// ConfigMessageKey is a MessageKey describing a configuration field
type ConfigMessageKey MessageKey

type ctxLangKey struct{}

const defaultPrefix = "SB"

var (
	mux            sync.RWMutex
	defaultLang    = language.AmericanEnglish
	serverLang     = language.AmericanEnglish
	registered     = map[language.Tag]map[string]string{}
	statusHints    = map[string]int{}
	fieldTypes     = map[string]string{}
	prefixes       = map[string]string{defaultPrefix: "sorobankit"}
	prefixRegex    = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,3}$`)
	configKeyRegex = regexp.MustCompile(`^config\.`)
)

// RegisterPrefix allows an embedding application to add its own message
// catalog alongside the built-in one, with its own code prefix
func RegisterPrefix(prefix, description string) {
	mux.Lock()
	defer mux.Unlock()
	if !prefixRegex.MatchString(prefix) || prefix == defaultPrefix {
		panic(fmt.Sprintf("invalid message prefix '%s'", prefix))
	}
	if _, exists := prefixes[prefix]; exists {
		panic(fmt.Sprintf("duplicate message prefix '%s' (%s)", prefix, description))
	}
	prefixes[prefix] = description
}

func checkKey(key string, isConfig bool) {
	if isConfig {
		if !configKeyRegex.MatchString(key) {
			panic(fmt.Sprintf("config key '%s' must start with 'config.'", key))
		}
		return
	}
	for prefix := range prefixes {
		if strings.HasPrefix(key, prefix) {
			return
		}
	}
	panic(fmt.Sprintf("message key '%s' does not have a registered prefix", key))
}

func register(lang language.Tag, key, translation string) {
	mux.Lock()
	defer mux.Unlock()
	langKeys := registered[lang]
	if langKeys == nil {
		langKeys = map[string]string{}
		registered[lang] = langKeys
	}
	if _, dup := langKeys[key]; dup {
		panic(fmt.Sprintf("duplicate message key '%s' for language %s", key, lang))
	}
	langKeys[key] = translation
}

// PDM registers a message that is not an error
func PDM(lang language.Tag, key, translation string) MessageKey {
	checkKey(key, false)
	register(lang, key, translation)
	return MessageKey(key)
}

// PDE registers an error message, with an optional HTTP status hint
func PDE(lang language.Tag, key, translation string, statusHint ...int) ErrorMessageKey {
	checkKey(key, false)
	register(lang, key, translation)
	if len(statusHint) > 0 {
		mux.Lock()
		statusHints[key] = statusHint[0]
		mux.Unlock()
	}
	return ErrorMessageKey(key)
}

// PDC registers the description of a configuration field and its type
func PDC(lang language.Tag, key, translation, fieldType string) ConfigMessageKey {
	checkKey(key, true)
	register(lang, key, translation)
	mux.Lock()
	fieldTypes[key] = fieldType
	mux.Unlock()
	return ConfigMessageKey(key)
}

// SetLang sets the language used when the context does not carry one
func SetLang(lang string) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = defaultLang
	}
	mux.Lock()
	serverLang = tag
	mux.Unlock()
}

// WithLang returns a context that expands messages in the given language
func WithLang(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, ctxLangKey{}, lang)
}

func translationFor(ctx context.Context, key string) string {
	lang, ok := ctx.Value(ctxLangKey{}).(language.Tag)
	mux.RLock()
	defer mux.RUnlock()
	if !ok {
		lang = serverLang
	}
	if translation, ok := registered[lang][key]; ok {
		return translation
	}
	if translation, ok := registered[defaultLang][key]; ok {
		return translation
	}
	return key
}

// Expand formats the message in the language of the context, falling back
// to the default language where no translation is registered
func Expand(ctx context.Context, key MessageKey, inserts ...interface{}) string {
	return fmt.Sprintf(translationFor(ctx, string(key)), inserts...)
}

// ExpandWithCode is Expand with the message key prepended
func ExpandWithCode(ctx context.Context, key MessageKey, inserts ...interface{}) string {
	return fmt.Sprintf("%s: %s", key, Expand(ctx, key, inserts...))
}

func GetStatusHint(code string) (int, bool) {
	mux.RLock()
	defer mux.RUnlock()
	i, ok := statusHints[code]
	return i, ok
}

func GetFieldType(code string) (string, bool) {
	mux.RLock()
	defer mux.RUnlock()
	s, ok := fieldTypes[code]
	return s, ok
}
