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

import "iter"

// KeyView is a read-only view of the keys of a Set. It reflects later
// changes to the set.
type KeyView[V Keyed] struct {
	s *Set[V]
}

// Keys returns a view of the keys in s.
func (s *Set[V]) Keys() KeyView[V] {
	return KeyView[V]{s}
}

// Len returns the number of keys.
func (kv KeyView[V]) Len() int { return kv.s.Len() }

// Contains reports whether key is present.
func (kv KeyView[V]) Contains(key string) bool { return kv.s.Contains(key) }

// All returns a sequence over the keys, with the same modification rules as
// Set.All.
func (kv KeyView[V]) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for v := range kv.s.All() {
			if !yield(v.Key()) {
				return
			}
		}
	}
}

// ValueView is a read-only view of the values of a Set.
type ValueView[V Keyed] struct {
	s *Set[V]
}

// Values returns a view of the values in s.
func (s *Set[V]) Values() ValueView[V] {
	return ValueView[V]{s}
}

// Len returns the number of values.
func (vv ValueView[V]) Len() int { return vv.s.Len() }

// Contains reports whether a value with the key of v is present. The stored
// value is not compared to v.
func (vv ValueView[V]) Contains(v V) bool { return vv.s.Contains(v.Key()) }

// All returns a sequence over the values, with the same modification rules
// as Set.All.
func (vv ValueView[V]) All() iter.Seq[V] { return vv.s.All() }

// CopyTo copies the values into dst, as Set.CopyTo does.
func (vv ValueView[V]) CopyTo(dst []V) (int, error) { return vv.s.CopyTo(dst) }
