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
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// config holds configuration options for a Container.
type config struct {
	name   string
	logger *slog.Logger
}

// Option configures a Container.
type Option func(*config)

// WithName sets the name under which the container reports itself in logs.
// If not set, a random UUID is used. Blank names are ignored.
func WithName(name string) Option {
	return func(cfg *config) {
		if name = strings.TrimSpace(name); name != "" {
			cfg.name = name
		}
	}
}

// WithLogger sets the logger used for diagnostics. If not set, the container
// defaults to slog.Default(). A nil value will be ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Container is the component container. Components are registered while the
// container is unconfigured, become resolvable once it has been composed and
// are disposed when it is closed. A Container is safe for concurrent use.
type Container struct {
	name   string
	logger *slog.Logger

	// mu guards state, registry and idx.
	mu       sync.RWMutex
	state    State
	registry []*Descriptor
	idx      index

	// build serializes materialization and guards adHoc and store. It is
	// always acquired before mu.
	build sync.Mutex
	adHoc map[reflect.Type]*Descriptor
	store *store
}

// New creates an unconfigured Container with the given options.
func New(opts ...Option) *Container {
	cfg := config{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = uuid.NewString()
	}

	return &Container{
		name:   cfg.name,
		logger: cfg.logger.With(slog.String("container", cfg.name)),
		adHoc:  make(map[reflect.Type]*Descriptor),
		store:  newStore(),
	}
}

// Name returns the name of the container.
func (c *Container) Name() string {
	return c.name
}

// State returns the current stage of the container.
func (c *Container) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Register adds a component built by ctor, which must be a function of the
// form func(deps...) T or func(deps...) (T, error). The component provides
// T and every capability declared with As. Its lifetime defaults to
// Singleton.
//
// Register panics if ctor is malformed, if an option does not fit the
// component, or if the container has already been composed.
func (c *Container) Register(ctor any, opts ...BindOption) *Container {
	self, rc := inspect(ctor)
	d := &Descriptor{
		owner:    c,
		self:     self,
		types:    []reflect.Type{self},
		lifetime: Singleton,
		recipe:   rc,
	}
	for _, opt := range opts {
		opt.apply(d)
	}
	if d.lifetime == Instance {
		panic(fmt.Sprintf("component: %v has a constructor; use RegisterInstance", self))
	}
	return c.add(d)
}

// RegisterInstance adds a component whose value v is already built. The
// component provides the dynamic type of v and every capability declared with
// As. The container never disposes v.
//
// RegisterInstance panics if v is nil, if an option does not fit the
// component, or if the container has already been composed.
func (c *Container) RegisterInstance(v any, opts ...BindOption) *Container {
	if v == nil {
		panic("component: instance must not be nil")
	}
	return c.supply(reflect.TypeOf(v), v, opts)
}

// Supply is like RegisterInstance, but registers v under its static type T.
// This allows a value to be registered by interface.
func Supply[T any](c *Container, v T, opts ...BindOption) *Container {
	return c.supply(reflect.TypeFor[T](), v, opts)
}

func (c *Container) supply(self reflect.Type, v any, opts []BindOption) *Container {
	d := &Descriptor{
		owner:  c,
		self:   self,
		types:  []reflect.Type{self},
		recipe: recipe{value: v},
	}
	for _, opt := range opts {
		opt.apply(d)
	}
	if len(d.recipe.members) != 0 {
		panic(fmt.Sprintf("component: members cannot be injected into instance %v", self))
	}
	if d.lifetime != Singleton && d.lifetime != Instance {
		panic(fmt.Sprintf("component: instance %v cannot be %v", self, d.lifetime))
	}
	d.lifetime = Instance
	return c.add(d)
}

func (c *Container) add(d *Descriptor) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Unconfigured {
		panic(fmt.Errorf("component: cannot register %v: %w", d.self, ErrComposed))
	}
	c.registry = append(c.registry, d)
	return c
}

// Compose finalizes the registrations and builds the capability index. The
// container accepts no further registrations afterwards. Calling Compose more
// than once has no effect.
func (c *Container) Compose() *Container {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Unconfigured {
		return c
	}
	c.idx = newIndex(c.registry)
	c.state = Composed
	c.logger.Debug("Container composed", slog.Int("components", len(c.registry)))
	return c
}

// run executes fn as a new resolution call chain under the build lock.
func (c *Container) run(fn func(r *resolution) error) error {
	c.build.Lock()
	defer c.build.Unlock()

	c.mu.RLock()
	state, idx := c.state, c.idx
	c.mu.RUnlock()

	switch state {
	case Unconfigured:
		return ErrNotComposed
	case Closed:
		return ErrClosed
	}
	return fn(&resolution{c: c, idx: idx})
}

// Resolve returns the Descriptor of the single component that provides
// capability t. If no component provides t and t cannot be constructed
// implicitly, Resolve returns (nil, nil). If several components provide t,
// Resolve fails with ErrUnresolvedDependencies; use ResolveMultiple instead.
//
// Singletons are materialized before Resolve returns, so construction errors
// surface here. Transients are materialized by each call to Value; Resolve
// only checks that each of their direct dependencies has a suitable
// provider. Failures deeper in the graph of a transient, and errors returned
// by its constructor, surface at Value.
func (c *Container) Resolve(t reflect.Type) (*Descriptor, error) {
	var d *Descriptor
	err := c.run(func(r *resolution) (err error) {
		d, err = r.single(t, false)
		switch {
		case err != nil || d == nil:
			return
		case d.lifetime == Transient:
			return r.verify(d)
		default:
			_, err = r.materialize(d)
			return
		}
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ResolveMultiple returns the Descriptors of all registered components that
// provide capability t, in registration order. The result may be empty.
func (c *Container) ResolveMultiple(t reflect.Type) ([]*Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.state {
	case Unconfigured:
		return nil, ErrNotComposed
	case Closed:
		return nil, ErrClosed
	}
	return slices.Clone(c.idx.lookup(t)), nil
}

// Close disposes all owned component instances in reverse construction order
// and closes the container. Instances supplied from the outside are left
// untouched. Failing disposal hooks do not stop the sequence; their errors
// are returned together. Calling Close more than once has no effect.
func (c *Container) Close() error {
	c.build.Lock()
	defer c.build.Unlock()

	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return nil
	}
	c.state = Closed
	c.mu.Unlock()

	err := c.store.dispose(c.logger)
	clear(c.adHoc)
	c.logger.Debug("Container closed")
	return err
}

// Resolve is the generic form of (*Container).Resolve.
func Resolve[T any](c *Container) (*Descriptor, error) {
	return c.Resolve(reflect.TypeFor[T]())
}

// ResolveMultiple is the generic form of (*Container).ResolveMultiple.
func ResolveMultiple[T any](c *Container) ([]*Descriptor, error) {
	return c.ResolveMultiple(reflect.TypeFor[T]())
}

// Get returns the component that provides T. Unlike Resolve, a missing
// provider is an error wrapping ErrUnresolvedDependencies.
func Get[T any](c *Container) (T, error) {
	var v any
	err := c.run(func(r *resolution) error {
		d, err := r.single(reflect.TypeFor[T](), true)
		if err != nil {
			return err
		}
		v, err = r.materialize(d)
		return err
	})
	if err != nil || v == nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// MustGet is like Get but panics if the component cannot be resolved.
func MustGet[T any](c *Container) T {
	v, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Use runs fn with the container and closes the container afterwards, on
// every exit path. If fn panics, the container is closed before the panic
// continues to unwind. Errors from fn and from Close are returned together.
func Use(c *Container, fn func(c *Container) error) (err error) {
	defer func() {
		err = multierr.Append(err, c.Close())
	}()
	return fn(c)
}
