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
	"log/slog"
	"reflect"
	"slices"
)

// resolution is a single top-level resolution call chain. It carries the
// stack of components under construction, which is used to detect cycles.
// A resolution always runs while holding the build lock of its container.
type resolution struct {
	c     *Container
	idx   index
	stack []*Descriptor
}

// fail wraps err into an *Error for capability t at the current position of
// the call chain.
func (r *resolution) fail(t reflect.Type, err error) error {
	path := make([]reflect.Type, len(r.stack))
	for i, d := range r.stack {
		path[i] = d.self
	}
	return &Error{Type: t, Path: path, Err: err}
}

// single finds the one provider of t. It returns nil if there is none and
// required is false. Several providers are always an error.
func (r *resolution) single(t reflect.Type, required bool) (*Descriptor, error) {
	ds := r.idx.lookup(t)
	switch len(ds) {
	case 0:
		d, err := r.implicit(t)
		if err != nil || d != nil {
			return d, err
		}
		if required {
			return nil, r.fail(t, fmt.Errorf("%w: no provider", ErrUnresolvedDependencies))
		}
		return nil, nil
	case 1:
		return ds[0], nil
	default:
		return nil, r.fail(t, fmt.Errorf(
			"%w: %d providers for a single dependency", ErrUnresolvedDependencies, len(ds),
		))
	}
}

// implicit returns the implicit descriptor for an unregistered type t,
// creating and caching it if t can be constructed. It returns nil if t
// cannot be constructed.
func (r *resolution) implicit(t reflect.Type) (*Descriptor, error) {
	if d, ok := r.c.adHoc[t]; ok {
		return d, nil
	}
	ok, err := r.constructible(t, make(map[reflect.Type]bool))
	if err != nil || !ok {
		return nil, err
	}
	rc, _, _ := implicit(t)
	d := &Descriptor{
		owner:    r.c,
		self:     t,
		types:    []reflect.Type{t},
		lifetime: Singleton,
		recipe:   rc,
		implicit: true,
	}
	r.c.adHoc[t] = d
	r.c.logger.Debug("Implicit component created", slog.String("type", t.String()))
	return d, nil
}

// constructible reports whether the unregistered type t can be built, i.e.
// it is a struct type whose mandatory tagged fields all have a provider.
// Types in seen are assumed constructible; a cycle among them is reported
// once construction actually reaches it. A struct with a tagged field that
// cannot be injected is an error rather than a type without a recipe.
func (r *resolution) constructible(t reflect.Type, seen map[reflect.Type]bool) (bool, error) {
	if _, ok := r.c.adHoc[t]; ok || seen[t] {
		return true, nil
	}
	rc, ok, err := implicit(t)
	if err != nil {
		return false, r.fail(t, err)
	}
	if !ok {
		return false, nil
	}
	seen[t] = true
	for _, f := range rc.fields {
		if f.slot.card != one || len(r.idx.lookup(f.slot.elem)) != 0 {
			continue
		}
		if ok, err := r.constructible(f.slot.elem, seen); err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// verify checks that every direct dependency of d has a suitable provider,
// without constructing anything.
func (r *resolution) verify(d *Descriptor) error {
	slots := slices.Clone(d.recipe.params)
	for _, f := range d.recipe.fields {
		slots = append(slots, f.slot)
	}
	for _, m := range d.recipe.members {
		slots = append(slots, m.slot)
	}

	r.stack = append(r.stack, d)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()
	for _, s := range slots {
		if s.card == many {
			continue
		}
		if _, err := r.single(s.elem, s.card == one); err != nil {
			return err
		}
	}
	return nil
}

// materialize returns an instance of d, constructing it if necessary.
func (r *resolution) materialize(d *Descriptor) (any, error) {
	switch d.lifetime {
	case Instance:
		return d.recipe.value, nil
	case Singleton:
		if v, ok := r.c.store.cached(d); ok {
			return v, nil
		}
	}

	if slices.Contains(r.stack, d) {
		return nil, r.fail(d.self, ErrCyclicDependency)
	}
	r.stack = append(r.stack, d)
	v, err := r.construct(d)
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		return nil, err
	}

	order := r.c.store.put(d, v)
	r.c.logger.Debug(
		"Component constructed",
		slog.String("type", d.self.String()),
		slog.String("lifetime", d.lifetime.String()),
		slog.Uint64("order", order),
	)
	return v, nil
}

// construct runs the recipe of d, resolving its dependencies first and
// injecting its members afterwards.
func (r *resolution) construct(d *Descriptor) (any, error) {
	rc := &d.recipe

	var v any
	if rc.ctor.IsValid() {
		args := make([]reflect.Value, len(rc.params))
		for i, s := range rc.params {
			arg, err := r.value(s)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		var err error
		if v, err = rc.call(args); err != nil {
			return nil, r.fail(d.self, fmt.Errorf("construct %v: %w", d.self, err))
		}
	} else {
		ptr := d.self.Kind() == reflect.Pointer
		base := d.self
		if ptr {
			base = base.Elem()
		}
		p := reflect.New(base)
		for _, f := range rc.fields {
			fv, err := r.value(f.slot)
			if err != nil {
				return nil, err
			}
			p.Elem().Field(f.index).Set(fv)
		}
		if ptr {
			v = p.Interface()
		} else {
			v = p.Elem().Interface()
		}
	}

	for _, m := range rc.members {
		mv, err := r.value(m.slot)
		if err != nil {
			return nil, err
		}
		if err := assign(m, v, mv); err != nil {
			return nil, r.fail(d.self, fmt.Errorf("inject %v: %w", m.slot.typ, err))
		}
	}
	return v, nil
}

// value produces the argument for a dependency slot.
func (r *resolution) value(s slot) (reflect.Value, error) {
	switch s.card {
	case many:
		ds := r.idx.lookup(s.elem)
		out := reflect.MakeSlice(s.typ, 0, len(ds))
		for _, d := range ds {
			v, err := r.materialize(d)
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, valueOf(s.elem, v))
		}
		return out, nil

	case maybe:
		d, err := r.single(s.elem, false)
		if err != nil || d == nil {
			return s.zero(), err
		}
		v, err := r.materialize(d)
		if err != nil {
			return reflect.Value{}, err
		}
		if !s.boxed {
			return valueOf(s.elem, v), nil
		}
		p := reflect.New(s.typ)
		p.Interface().(optional).fill(valueOf(s.elem, v))
		return p.Elem(), nil

	default:
		d, err := r.single(s.elem, true)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := r.materialize(d)
		if err != nil {
			return reflect.Value{}, err
		}
		return valueOf(s.elem, v), nil
	}
}

// valueOf converts an instance into a reflect.Value of type t. A nil
// instance yields the zero value of t.
func valueOf(t reflect.Type, v any) reflect.Value {
	rv := reflect.New(t).Elem()
	if v != nil {
		rv.Set(reflect.ValueOf(v))
	}
	return rv
}

// assign calls the setter of m, converting a panic into an error.
func assign(m member, instance any, v reflect.Value) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during member injection: %v", rec)
		}
	}()

	m.set(instance, v)
	return nil
}
