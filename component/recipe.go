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

	"github.com/deep-rent/components/internal/tag"
)

// TagKey is the struct tag that marks injectable fields of implicitly
// constructed components.
const TagKey = "inject"

var errorType = reflect.TypeFor[error]()

// Optional wraps a dependency that may have no provider. Declare a
// constructor parameter (or an injected member) as Optional[I] to receive an
// absent value instead of an error when nothing provides I.
type Optional[T any] struct {
	value T
	ok    bool
}

// Get returns the dependency and whether it was provided.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// OrZero returns the dependency, or the zero value of T if absent.
func (o Optional[T]) OrZero() T {
	return o.value
}

// Present reports whether the dependency was provided.
func (o Optional[T]) Present() bool {
	return o.ok
}

func (o *Optional[T]) elem() reflect.Type {
	return reflect.TypeFor[T]()
}

func (o *Optional[T]) fill(v reflect.Value) {
	o.value, _ = v.Interface().(T)
	o.ok = true
}

// optional is implemented by *Optional[T] for every T.
type optional interface {
	elem() reflect.Type
	fill(v reflect.Value)
}

var optionalType = reflect.TypeFor[optional]()

// cardinality tells how a slot is satisfied.
type cardinality uint8

const (
	one   cardinality = iota // Exactly one provider.
	maybe                    // At most one provider.
	many                     // Any number of providers.
)

// slot is a typed dependency requirement: a constructor parameter, an
// injected member or a tagged struct field.
type slot struct {
	typ   reflect.Type // Declared type.
	elem  reflect.Type // Requested capability.
	card  cardinality
	boxed bool // Declared as Optional[elem].
}

func newSlot(t reflect.Type) slot {
	switch {
	case reflect.PointerTo(t).Implements(optionalType):
		elem := reflect.New(t).Interface().(optional).elem()
		return slot{typ: t, elem: elem, card: maybe, boxed: true}
	case t.Kind() == reflect.Slice:
		return slot{typ: t, elem: t.Elem(), card: many}
	default:
		return slot{typ: t, elem: t, card: one}
	}
}

// zero returns the value assigned to the slot when nothing provides it.
func (s slot) zero() reflect.Value {
	return reflect.New(s.typ).Elem()
}

// member is a dependency assigned after construction.
type member struct {
	slot slot
	set  func(instance any, v reflect.Value)
}

// field is a tagged struct field of an implicit component.
type field struct {
	slot  slot
	index int
}

// recipe describes how a component is built. Exactly one of ctor, fields (for
// implicit components) or value (for instances) is meaningful.
type recipe struct {
	ctor     reflect.Value
	params   []slot
	fallible bool
	fields   []field
	members  []member
	value    any
}

// inspect derives a recipe from a constructor function. It panics if ctor is
// not a function of the form func(deps...) T or func(deps...) (T, error).
func inspect(ctor any) (reflect.Type, recipe) {
	fn := reflect.ValueOf(ctor)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		panic(fmt.Sprintf("component: constructor must be a function, got %T", ctor))
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		panic(fmt.Sprintf("component: constructor %v must not be variadic", ft))
	}

	r := recipe{ctor: fn}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		r.fallible = true
	default:
		panic(fmt.Sprintf(
			"component: constructor %v must return a value and an optional error", ft,
		))
	}

	r.params = make([]slot, ft.NumIn())
	for i := range ft.NumIn() {
		r.params[i] = newSlot(ft.In(i))
	}
	return ft.Out(0), r
}

// implicit derives a recipe for an unregistered struct type. It reports
// false if t is not a struct type, and fails if a tagged field cannot be
// injected.
func implicit(t reflect.Type) (recipe, bool, error) {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return recipe{}, false, nil
	}

	var r recipe
	for i := range st.NumField() {
		sf := st.Field(i)
		s, ok := sf.Tag.Lookup(TagKey)
		if !ok {
			continue
		}
		if !sf.IsExported() {
			return recipe{}, true, fmt.Errorf(
				"%w: field %s of %v is tagged but not exported",
				ErrUnresolvedDependencies, sf.Name, st,
			)
		}
		f := field{slot: newSlot(sf.Type), index: i}
		if tag.Parse(s).Has("optional") && f.slot.card == one {
			f.slot.card = maybe
		}
		r.fields = append(r.fields, f)
	}
	return r, true, nil
}

// call invokes the constructor, converting a panic into an error.
func (r *recipe) call(args []reflect.Value) (instance any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			instance = nil
			err = fmt.Errorf("panic during constructor call: %v", rec)
		}
	}()

	out := r.ctor.Call(args)
	if r.fallible && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}
