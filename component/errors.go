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

import (
	"errors"
	"reflect"
	"strings"
)

var (
	// ErrNotComposed is returned when a component is requested before the
	// container has been composed.
	ErrNotComposed = errors.New("container is not composed")

	// ErrComposed is the panic value of a registration attempted after the
	// container has been composed.
	ErrComposed = errors.New("container is already composed")

	// ErrClosed is returned when a component is requested from a closed
	// container.
	ErrClosed = errors.New("container is closed")

	// ErrUnresolvedDependencies is returned when a mandatory dependency has no
	// provider, or when a single-valued request matches several providers.
	ErrUnresolvedDependencies = errors.New("unresolved dependencies")

	// ErrCyclicDependency is returned when a component depends on itself,
	// directly or transitively.
	ErrCyclicDependency = errors.New("cyclic dependency")
)

// Error describes a failed resolution. It wraps one of the sentinel errors
// above, or the error returned by a constructor, and records the chain of
// components that were being constructed when the failure occurred.
type Error struct {
	// Type is the capability whose resolution failed.
	Type reflect.Type
	// Path lists the components under construction, outermost first.
	Path []reflect.Type
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Type != nil {
		b.WriteString(" (")
		b.WriteString(e.Type.String())
		b.WriteString(")")
	}
	if len(e.Path) != 0 {
		b.WriteString(" while resolving ")
		for i, t := range e.Path {
			if i != 0 {
				b.WriteString(" -> ")
			}
			b.WriteString(t.String())
		}
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
