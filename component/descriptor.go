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
	"fmt"
	"reflect"
	"slices"
)

// Descriptor is the registration record of a component: the capabilities it
// provides, its lifetime and the recipe used to build it. A Descriptor never
// changes after registration. Resolving the same capability twice yields the
// same Descriptor, regardless of its lifetime.
type Descriptor struct {
	owner    *Container
	self     reflect.Type
	types    []reflect.Type
	lifetime Lifetime
	recipe   recipe
	implicit bool
}

// Type returns the type of the component itself.
func (d *Descriptor) Type() reflect.Type {
	return d.self
}

// Types returns every capability the component provides. The first entry is
// always the component's own type.
func (d *Descriptor) Types() []reflect.Type {
	return slices.Clone(d.types)
}

// Provides reports whether the component satisfies capability t.
func (d *Descriptor) Provides(t reflect.Type) bool {
	return slices.Contains(d.types, t)
}

// Lifetime returns the lifetime of the component.
func (d *Descriptor) Lifetime() Lifetime {
	return d.lifetime
}

// Implicit reports whether the container created this descriptor on its own
// for an unregistered struct type.
func (d *Descriptor) Implicit() bool {
	return d.implicit
}

// Value materializes the component. Singletons are constructed on first
// access and cached; transients are constructed anew on every call.
func (d *Descriptor) Value() (any, error) {
	var v any
	err := d.owner.run(func(r *resolution) (err error) {
		v, err = r.materialize(d)
		return
	})
	return v, err
}

// String returns the component type and lifetime.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%v (%v)", d.self, d.lifetime)
}

// BindOption customizes a registration.
type BindOption interface {
	apply(d *Descriptor)
}

type bindFunc func(d *Descriptor)

func (f bindFunc) apply(d *Descriptor) { f(d) }

// As declares that the component provides capability I in addition to its
// own type. Registration panics if the component type is not assignable to I.
func As[I any]() BindOption {
	t := reflect.TypeFor[I]()
	return bindFunc(func(d *Descriptor) {
		if !d.self.AssignableTo(t) {
			panic(fmt.Sprintf("component: %v does not implement %v", d.self, t))
		}
		if !slices.Contains(d.types, t) {
			d.types = append(d.types, t)
		}
	})
}

// Inject declares a member dependency. After the component has been
// constructed, D is resolved like a constructor parameter and handed to set
// together with the new instance. Registration panics if the component type
// is not assignable to T.
//
//	c.Register(NewClient, component.Inject(func(c *Client, s Store) {
//		c.store = s
//	}))
func Inject[T, D any](set func(T, D)) BindOption {
	target := reflect.TypeFor[T]()
	s := newSlot(reflect.TypeFor[D]())
	return bindFunc(func(d *Descriptor) {
		if !d.self.AssignableTo(target) {
			panic(fmt.Sprintf(
				"component: member of %v cannot be injected into %v", target, d.self,
			))
		}
		d.recipe.members = append(d.recipe.members, member{
			slot: s,
			set: func(instance any, v reflect.Value) {
				dep, _ := v.Interface().(D)
				set(instance.(T), dep)
			},
		})
	})
}
