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

import "log/slog"

// option provide an interface to do work on Set while it is being created.
type option[V Keyed] interface {
	apply(s *Set[V])
}

// Allocator specifies an interface for allocating and releasing memory used
// by a Set. The default allocator utilizes Go's builtin make() and allows the
// GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that slots and
// buckets be freed then Set.Close must be called in order to ensure
// FreeSlots and FreeBuckets are called.
type Allocator[V Keyed] interface {
	// AllocSlots should return a slice equivalent to make([]Slot[V], n).
	AllocSlots(n int) []Slot[V]

	// AllocBuckets should return a slice equivalent to make([]int32, n).
	AllocBuckets(n int) []int32

	// FreeSlots can optional release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by AllocSlots.
	FreeSlots(v []Slot[V])

	// FreeBuckets can optional release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocBuckets.
	FreeBuckets(v []int32)
}

type defaultAllocator[V Keyed] struct{}

func (defaultAllocator[V]) AllocSlots(n int) []Slot[V] {
	return make([]Slot[V], n)
}

func (defaultAllocator[V]) AllocBuckets(n int) []int32 {
	return make([]int32, n)
}

func (defaultAllocator[V]) FreeSlots(v []Slot[V]) {
}

func (defaultAllocator[V]) FreeBuckets(v []int32) {
}

type allocatorOption[V Keyed] struct {
	allocator Allocator[V]
}

func (op allocatorOption[V]) apply(s *Set[V]) {
	s.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Set[V].
func WithAllocator[V Keyed](allocator Allocator[V]) option[V] {
	return allocatorOption[V]{allocator}
}

type loggerOption[V Keyed] struct {
	logger *slog.Logger
}

func (op loggerOption[V]) apply(s *Set[V]) {
	s.logger = op.logger
}

// WithLogger is an option to receive debug records about growth, trimming
// and read-only transitions. Lookups and inserts that do not resize are
// never logged.
func WithLogger[V Keyed](logger *slog.Logger) option[V] {
	return loggerOption[V]{logger}
}

type readOnlyOption[V Keyed] struct{}

func (readOnlyOption[V]) apply(s *Set[V]) {
	s.freezeAfterBuild = true
}

// WithReadOnly is an option to make the Set read-only as soon as its
// constructor has populated it. For FromItems, FromPairs and Restore this
// happens after the source entries are inserted.
func WithReadOnly[V Keyed]() option[V] {
	return readOnlyOption[V]{}
}

type sizeHintOption[V Keyed] struct {
	n int
}

func (op sizeHintOption[V]) apply(s *Set[V]) {
	s.sizeHint = op.n
}

// WithSizeHint is an option giving the number of items the set is expected
// to hold, so that the table is allocated once up front. For FromItems and
// FromPairs it is the length of the source sequence; if the source holds
// many duplicate keys the table is trimmed after construction. New and
// Restore allocate at least the hinted capacity and never trim.
func WithSizeHint[V Keyed](n int) option[V] {
	return sizeHintOption[V]{n}
}
