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

package component

import "reflect"

// index maps a capability to its providers in registration order.
type index map[reflect.Type][]*Descriptor

func newIndex(registry []*Descriptor) index {
	idx := make(index)
	for _, d := range registry {
		for _, t := range d.types {
			idx[t] = append(idx[t], d)
		}
	}
	return idx
}

// lookup returns the providers of t. The result must not be modified.
func (idx index) lookup(t reflect.Type) []*Descriptor {
	return idx[t]
}
