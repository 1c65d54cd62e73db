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

import "fmt"

// Lifetime governs how instances of a component are shared and who owns
// them.
type Lifetime uint8

const (
	Singleton Lifetime = iota // One shared instance, owned by the container.
	Transient                 // A fresh instance on every access.
	Instance                  // A value supplied at registration; never owned.
)

// String returns the lower-case name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	case Instance:
		return "instance"
	default:
		return fmt.Sprintf("lifetime(%d)", uint8(l))
	}
}

// apply makes a Lifetime usable as a BindOption.
func (l Lifetime) apply(d *Descriptor) {
	d.lifetime = l
}

// State is a stage in the life of a Container.
type State uint8

const (
	Unconfigured State = iota // Accepting registrations.
	Composed                  // Resolving components.
	Closed                    // Disposed; nothing can be resolved anymore.
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Composed:
		return "composed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}
