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

package tag_test

import (
	"maps"
	"testing"

	"github.com/deep-rent/components/internal/tag"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
	}{
		{``, ""},
		{`,optional`, ""},
		{`store`, "store"},
		{`store,optional`, "store"},
		{`db:primary,optional`, "db:primary"},
		{`cache,label:'a,b',optional`, "cache"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.wantName, tag.Parse(tc.input).Name)
		})
	}
}

func TestTag_Opts(t *testing.T) {
	tests := []struct {
		name string
		opts string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single flag", "optional", map[string]string{"optional": ""}},
		{
			"flags and values",
			"optional,label:primary",
			map[string]string{"optional": "", "label": "primary"},
		},
		{
			"single quoted comma",
			`label:'a,b',optional`,
			map[string]string{"label": "a,b", "optional": ""},
		},
		{
			"double quoted comma",
			`label:"a, b",optional`,
			map[string]string{"label": "a, b", "optional": ""},
		},
		{
			"quoted colon",
			`url:"postgres://localhost:5432",optional`,
			map[string]string{"url": "postgres://localhost:5432", "optional": ""},
		},
		{
			"whitespace",
			"  optional ,  label : main , extra  ",
			map[string]string{"optional": "", "label": " main ", "extra": ""},
		},
		{
			"empty value",
			"optional,label:",
			map[string]string{"optional": "", "label": ""},
		},
		{
			"empty parts",
			"optional,,label:x,",
			map[string]string{"optional": "", "label": "x"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := "name"
			if tc.opts != "" {
				s += "," + tc.opts
			}
			got := maps.Collect(tag.Parse(s).Opts())
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTag_Opts_StopsEarly(t *testing.T) {
	var keys []string
	for k := range tag.Parse(",a,b,c").Opts() {
		keys = append(keys, k)
		if k == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestTag_Lookup(t *testing.T) {
	p := tag.Parse(`,optional,label:'x,y'`)

	v, ok := p.Lookup("label")
	assert.True(t, ok)
	assert.Equal(t, "x,y", v)

	_, ok = p.Lookup("missing")
	assert.False(t, ok)

	assert.True(t, p.Has("optional"))
	assert.False(t, p.Has("required"))
	assert.False(t, tag.Parse("optional").Has("optional"))
}
