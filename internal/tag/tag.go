// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
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

// Package tag parses the value of a struct field tag of the form
// `name,flag,key:value,key:'quoted, value'`.
package tag

import (
	"iter"
	"strings"
	"unicode"
)

// Tag is a parsed struct tag value.
type Tag struct {
	// Name is the part before the first comma.
	Name string
	opts string
}

// Parse splits s into the name and its options.
func Parse(s string) *Tag {
	name, opts, _ := strings.Cut(s, ",")
	return &Tag{Name: name, opts: opts}
}

// Opts iterates over the options in order of appearance. Flags yield an
// empty value. Commas inside single or double quotes do not separate options,
// and one layer of quotes is stripped from values.
func (t *Tag) Opts() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, part := range split(t.opts) {
			part = strings.TrimLeftFunc(part, unicode.IsSpace)
			if part == "" {
				continue
			}
			k, v, found := strings.Cut(part, ":")
			if found {
				v = unquote(v)
			}
			if !yield(strings.TrimRightFunc(k, unicode.IsSpace), v) {
				return
			}
		}
	}
}

// Lookup returns the value of option key and whether it is present.
func (t *Tag) Lookup(key string) (string, bool) {
	for k, v := range t.Opts() {
		if k == key {
			return v, true
		}
	}
	return "", false
}

// Has reports whether option key is present.
func (t *Tag) Has(key string) bool {
	_, ok := t.Lookup(key)
	return ok
}

// split cuts s at every comma that is not enclosed in quotes.
func split(s string) []string {
	var parts []string
	var q rune
	start := 0
	for i, r := range s {
		switch {
		case q != 0:
			if r == q {
				q = 0
			}
		case r == '\'' || r == '"':
			q = r
		case r == ',':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
