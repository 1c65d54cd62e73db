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
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"go.uber.org/multierr"
)

// entry is a value materialized by the container.
type entry struct {
	desc  *Descriptor
	value any
	order uint64
}

// store caches singletons and remembers every owned value that has to be
// disposed. It is guarded by the build lock of its container.
type store struct {
	singletons map[*Descriptor]*entry
	owned      []*entry
	seq        uint64
}

func newStore() *store {
	return &store{singletons: make(map[*Descriptor]*entry)}
}

// cached returns the singleton instance of d, if it was materialized.
func (s *store) cached(d *Descriptor) (any, bool) {
	e, ok := s.singletons[d]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// put records a freshly constructed value of d and returns its construction
// order.
func (s *store) put(d *Descriptor, v any) uint64 {
	s.seq++
	e := &entry{desc: d, value: v, order: s.seq}
	if d.lifetime == Singleton {
		s.singletons[d] = e
	}
	if d.lifetime != Instance && disposable(v) {
		s.owned = append(s.owned, e)
	}
	return e.order
}

// dispose closes all owned values, most recently constructed first. Each
// value is closed exactly once; failures do not stop the sequence and are
// returned together.
func (s *store) dispose(logger *slog.Logger) error {
	owned := s.owned
	s.owned = nil
	clear(s.singletons)

	slices.SortFunc(owned, func(a, b *entry) int {
		return cmp.Compare(b.order, a.order)
	})

	var errs error
	for _, e := range owned {
		if err := release(e.value); err != nil {
			logger.Error(
				"Failed to dispose component",
				slog.String("type", e.desc.self.String()),
				slog.Any("error", err),
			)
			errs = multierr.Append(errs, fmt.Errorf("dispose %v: %w", e.desc.self, err))
			continue
		}
		logger.Debug(
			"Component disposed",
			slog.String("type", e.desc.self.String()),
			slog.Uint64("order", e.order),
		)
	}
	return errs
}

// closer is a disposal hook that cannot fail.
type closer interface {
	Close()
}

func disposable(v any) bool {
	switch v.(type) {
	case io.Closer, closer:
		return true
	default:
		return false
	}
}

// release invokes the disposal hook of v, converting a panic into an error.
func release(v any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during close: %v", rec)
		}
	}()

	switch c := v.(type) {
	case io.Closer:
		return c.Close()
	case closer:
		c.Close()
	}
	return nil
}
