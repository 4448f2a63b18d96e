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

// Iterator is a single-use, forward-only traversal of the values in a Set,
// in slot order. It remembers the Set's version when it is created and stops
// with ErrConcurrentModification if the Set is structurally modified before
// the traversal finishes. Replacing the value of an existing key is not a
// structural modification.
//
//	it := s.Iter()
//	for it.Next() {
//	  use(it.Value())
//	}
//	if err := it.Err(); err != nil {
//	  ...
//	}
type Iterator[V Keyed] struct {
	s       *Set[V]
	version uint64
	index   int
	value   V
	err     error
	done    bool
}

// Iter returns an Iterator positioned before the first value of the set.
func (s *Set[V]) Iter() *Iterator[V] {
	return &Iterator[V]{s: s, version: s.version}
}

// Next advances to the next value and reports whether there is one. Once
// Next has returned false it keeps returning false.
func (it *Iterator[V]) Next() bool {
	if it.done {
		return false
	}
	if it.version != it.s.version {
		it.err = ErrConcurrentModification
		it.stop()
		return false
	}
	for it.index < it.s.lastIndex {
		slot := &it.s.slots[it.index]
		it.index++
		if !slot.isFree() {
			it.value = slot.value
			return true
		}
	}
	it.stop()
	return false
}

func (it *Iterator[V]) stop() {
	var zero V
	it.value = zero
	it.done = true
}

// Value returns the value at the current position. It returns the zero
// value before the first call to Next and after Next has returned false.
func (it *Iterator[V]) Value() V {
	return it.value
}

// Err returns ErrConcurrentModification if the traversal was cut short by a
// structural modification of the set, and nil otherwise.
func (it *Iterator[V]) Err() error {
	return it.err
}

// All returns a sequence over the values of the set for use with range:
//
//	for v := range s.All() {
//	  fmt.Printf("%s: %v\n", v.Key(), v)
//	}
//
// The loop panics with ErrConcurrentModification if the body structurally
// modifies the set, in the same way the runtime rejects concurrent writes to
// a builtin map. Use Iter to observe the error instead.
func (s *Set[V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		it := s.Iter()
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
		if err := it.Err(); err != nil {
			panic(err)
		}
	}
}
