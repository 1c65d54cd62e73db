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

// Package component provides a typed component container. It binds
// capabilities (interfaces or concrete types) to construction recipes,
// resolves object graphs on demand and releases the resources it owns in
// reverse construction order.
//
// # Usage
//
// Components are registered as constructor functions. The parameters of a
// constructor are its dependencies; the first result is the component itself,
// optionally followed by an error:
//
//	c := component.New(component.WithName("app")).
//		Register(NewDatabase, component.As[Store]()).
//		Register(NewHandler, component.Transient).
//		Compose()
//	defer c.Close()
//
//	h, err := component.Get[*Handler](c)
//
// A parameter of type []I receives every provider of I in registration
// order. A parameter of type Optional[I] receives an absent value if nothing
// provides I. Any other parameter must be satisfied by exactly one provider.
//
// # Lifetimes
//
// Singleton components are constructed once and cached. Transient components
// are constructed on every access. Instances passed to RegisterInstance or
// Supply are never constructed and never disposed by the container.
//
// # Implicit components
//
// A struct type (or pointer to a struct type) that is requested as a
// dependency but never registered is constructed implicitly as a singleton.
// Its exported fields tagged with `inject:""` are resolved like constructor
// parameters; `inject:",optional"` tolerates a missing provider. Tagging an
// unexported field is an error.
//
// # Disposal
//
// Close disposes every owned value implementing io.Closer (or a plain
// Close method) in reverse construction order, so a component is always closed
// before the components it depends on.
//
// # Concurrency
//
// A Container is safe for concurrent use. Materialization is serialized, so
// a constructor must not call back into its own container; declare the
// dependency as a parameter instead.
package component
