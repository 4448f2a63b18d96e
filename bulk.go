// Copyright 2024 The Cockroach Authors
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

package entryset

import (
	"iter"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FromItems constructs a Set holding the values produced by items. Values
// with duplicate keys resolve last-write-wins, exactly like Put. If the
// resulting table is much larger than the number of distinct keys (for
// instance because WithSizeHint counted duplicates) it is trimmed once
// construction finishes; later removals never shrink the table
// automatically.
func FromItems[V Keyed](cmp Comparer, items iter.Seq[V], options ...option[V]) (*Set[V], error) {
	if items == nil {
		return nil, ErrNilSource
	}
	s, err := newBulkSet(cmp, options)
	if err != nil {
		return nil, err
	}
	for v := range items {
		if _, err := s.Put(v); err != nil {
			return nil, err
		}
	}
	return s, s.finishBulk()
}

// FromPairs constructs a Set from key/value pairs. Each key must equal the
// key of its value under cmp; the pair form exists for sources such as
// map[string]V that are already indexed by key.
func FromPairs[V Keyed](cmp Comparer, pairs iter.Seq2[string, V], options ...option[V]) (*Set[V], error) {
	if pairs == nil {
		return nil, ErrNilSource
	}
	s, err := newBulkSet(cmp, options)
	if err != nil {
		return nil, err
	}
	for k, v := range pairs {
		if vk := v.Key(); !cmp.Equal(k, vk) {
			return nil, status.Errorf(codes.InvalidArgument,
				"entryset: pair key %q does not match value key %q", k, vk)
		}
		if _, err := s.Put(v); err != nil {
			return nil, err
		}
	}
	return s, s.finishBulk()
}

func newBulkSet[V Keyed](cmp Comparer, options []option[V]) (*Set[V], error) {
	s, err := newSet(cmp, options)
	if err != nil {
		return nil, err
	}
	if s.sizeHint > 0 {
		if err := s.initialize(s.sizeHint); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set[V]) finishBulk() error {
	if s.count > 0 && len(s.slots)/s.count > shrinkThreshold {
		if err := s.TrimExcess(); err != nil {
			return err
		}
	}
	s.finishBuild()
	return nil
}

// PutAll stores every value produced by items, as if by Put, and returns the
// number of keys that were not present before. Values stored before a
// failure (which can only be ErrCapacityExceeded) remain in the set.
func (s *Set[V]) PutAll(items iter.Seq[V]) (added int, err error) {
	if items == nil {
		return 0, ErrNilSource
	}
	if s.readOnly {
		return 0, ErrReadOnly
	}
	for v := range items {
		ok, err := s.Put(v)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// CopyTo copies the values of the set into dst in slot order and returns the
// number copied. dst must have room for Len() values.
func (s *Set[V]) CopyTo(dst []V) (int, error) {
	if len(dst) < s.count {
		return 0, status.Errorf(codes.InvalidArgument,
			"entryset: destination holds %d values, need %d", len(dst), s.count)
	}
	n := 0
	for i := 0; i < s.lastIndex; i++ {
		if slot := &s.slots[i]; !slot.isFree() {
			dst[n] = slot.value
			n++
		}
	}
	return n, nil
}
