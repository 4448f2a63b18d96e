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

// Package entryset is a hash set of self-keyed values with last-write-wins
// semantics: storing a value whose key is already present replaces the
// stored value in place instead of rejecting it. It is the structure a build
// engine wants for things like properties and metadata, where every value
// carries its own name and a later definition overrides an earlier one.
//
// # Layout
//
// A Set owns two parallel arrays of the same prime length: buckets and
// slots. A bucket holds a reference to the head of a chain of slots whose
// hashes fall into that bucket; each slot holds a 31-bit hash, the value and
// a reference to the next slot of its chain. Slots are handed out from the
// front of the slot array, tracked by a high-water mark (lastIndex):
//
//	buckets   [ -  3  -  1  - ]
//	slots     [ a  b  c  d  .  .  . ]
//	                       ^
//	                       lastIndex
//
// Collisions are resolved by chaining through the slot array rather than by
// open addressing, so a lookup touches one bucket and then only the slots
// that share it. New slots are linked in at the head of their chain.
//
// # Free list
//
// Removing an entry unlinks its slot from its chain and pushes the slot onto
// a free list that is threaded through the same next field. A free slot is
// recognised by its hash being freeHash, which lies outside the 31-bit range
// of live hashes. Inserts pop the free list before consuming fresh slots
// past lastIndex, and the table only grows when lastIndex reaches the
// capacity with the free list empty.
//
// # Sizing
//
// Capacities come from a ladder of primes (see primes.go). Growth picks the
// smallest prime greater than twice the entry count and fully rehashes.
// TrimExcess compacts the live entries into a new table of nextPrime(count).
// The table never shrinks on its own except right after bulk construction.
//
// # Enumeration
//
// Every structural change bumps a version counter. Iterators capture the
// version and refuse to advance once it has moved on, so an enumeration
// either sees a consistent table or fails with ErrConcurrentModification.
package entryset

import (
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	debug = false

	// freeHash marks a slot that is on the free list. Live hashes are masked
	// to 31 bits and are therefore never negative.
	freeHash int32 = -1
	hashMask       = 0x7FFFFFFF

	// Bulk construction trims the table when its capacity exceeds the entry
	// count by more than this factor.
	shrinkThreshold = 3
)

// slotRef refers to a slot by position. The zero value is noSlot, which lets
// a freshly allocated bucket array start out with every chain empty.
type slotRef int32

const noSlot slotRef = 0

func refTo(i int) slotRef {
	return slotRef(i + 1)
}

func (r slotRef) index() int {
	return int(r) - 1
}

// Slot holds a value along with its hash and the link to the next slot in
// either its chain or the free list.
type Slot[V Keyed] struct {
	hash  int32
	next  slotRef
	value V
}

func (s *Slot[V]) isFree() bool {
	return s.hash == freeHash
}

// Set is an unordered collection of Keyed values with Put, Get, Delete and
// iteration. At most one value per key (under the Set's Comparer) is stored;
// Put replaces an existing value with the same key.
//
// A Set is NOT goroutine-safe. Concurrent Get and Contains calls are safe as
// long as nothing mutates the Set at the same time.
type Set[V Keyed] struct {
	cmp Comparer
	// The allocator to use for the buckets and slots slices.
	allocator Allocator[V]
	logger    *slog.Logger

	// buckets and slots always have the same length: the capacity. Both are
	// nil until the first insert or a positive capacity hint.
	buckets []slotRef
	slots   []Slot[V]
	// The number of live entries.
	count int
	// lastIndex is the number of slots that have ever been handed out since
	// the table was allocated, cleared or emptied.
	lastIndex int
	// The head of the free list.
	freeList slotRef
	// version is bumped on every structural change.
	version  uint64
	readOnly bool

	freezeAfterBuild bool
	sizeHint         int
	grows            uint64
	trims            uint64
}

// New constructs a new Set with the specified comparer and initial
// capacity. If initialCapacity is 0 the set will start out with zero
// capacity and will allocate on the first insert. WithSizeHint raises the
// initial capacity to the hint when the hint is larger. The zero value for a
// Set is not usable.
func New[V Keyed](cmp Comparer, initialCapacity int, options ...option[V]) (*Set[V], error) {
	if initialCapacity < 0 {
		return nil, status.Errorf(codes.InvalidArgument,
			"entryset: negative initial capacity %d", initialCapacity)
	}
	s, err := newSet(cmp, options)
	if err != nil {
		return nil, err
	}
	if capacity := max(initialCapacity, s.sizeHint); capacity > 0 {
		if err := s.initialize(capacity); err != nil {
			return nil, err
		}
	}
	s.finishBuild()
	return s, nil
}

func newSet[V Keyed](cmp Comparer, options []option[V]) (*Set[V], error) {
	if cmp == nil {
		return nil, ErrNoComparer
	}
	s := &Set[V]{
		cmp:       cmp,
		allocator: defaultAllocator[V]{},
	}
	for _, op := range options {
		op.apply(s)
	}
	if s.sizeHint < 0 {
		return nil, status.Errorf(codes.InvalidArgument,
			"entryset: negative size hint %d", s.sizeHint)
	}
	return s, nil
}

// finishBuild applies the options that take effect once a constructor has
// populated the set.
func (s *Set[V]) finishBuild() {
	if s.freezeAfterBuild {
		s.MakeReadOnly()
	}
	s.checkInvariants()
}

// initialize allocates the bucket and slot arrays for at least capacity
// entries.
func (s *Set[V]) initialize(capacity int) error {
	size, err := nextPrime(capacity)
	if err != nil {
		return err
	}
	s.buckets, s.slots = s.alloc(size)
	s.freeList = noSlot
	return nil
}

func (s *Set[V]) alloc(size int) ([]slotRef, []Slot[V]) {
	buckets := unsafeConvertSlice[slotRef](s.allocator.AllocBuckets(size))
	slots := s.allocator.AllocSlots(size)
	return buckets, slots
}

// release hands the current arrays back to the allocator.
func (s *Set[V]) release() {
	if s.slots == nil {
		return
	}
	s.allocator.FreeSlots(s.slots)
	s.allocator.FreeBuckets(unsafeConvertSlice[int32](s.buckets))
	s.buckets, s.slots = nil, nil
}

// Close closes the set, releasing any memory back to its configured
// allocator. It is unnecessary to close a set using the default allocator.
// It is invalid to use a Set after it has been closed, though Close itself
// is idempotent. Close ends the set's lifetime and therefore ignores
// read-only: a closed read-only set reports no entries and stays read-only.
func (s *Set[V]) Close() {
	if s.allocator != nil {
		s.release()
	}
	s.count = 0
	s.lastIndex = 0
	s.freeList = noSlot
	s.allocator = nil
}

// hashOf returns the 31-bit hash of key. The empty key is an ordinary key
// and is hashed by the comparer like any other.
func (s *Set[V]) hashOf(key string) int32 {
	return int32(s.cmp.Hash(key) & hashMask)
}

func (s *Set[V]) bucketOf(h int32) int {
	return int(h) % len(s.buckets)
}

// find returns the index of the slot holding key, or -1.
func (s *Set[V]) find(key string) int {
	if s.buckets == nil {
		return -1
	}
	h := s.hashOf(key)
	for r := s.buckets[s.bucketOf(h)]; r != noSlot; {
		i := r.index()
		slot := &s.slots[i]
		if slot.hash == h && s.cmp.Equal(slot.value.Key(), key) {
			return i
		}
		r = slot.next
	}
	return -1
}

// Get retrieves the value stored under key, returning ok=false if the key is
// not present.
func (s *Set[V]) Get(key string) (value V, ok bool) {
	if i := s.find(key); i >= 0 {
		return s.slots[i].value, true
	}
	return value, false
}

// Contains reports whether a value is stored under key.
func (s *Set[V]) Contains(key string) bool {
	return s.find(key) >= 0
}

// Put stores v, replacing the value with the same key if there is one.
// added reports whether the key was not present before. Replacing a value
// keeps its slot and does not invalidate iterators.
func (s *Set[V]) Put(v V) (added bool, err error) {
	if s.readOnly {
		return false, ErrReadOnly
	}
	if s.buckets == nil {
		if err := s.initialize(0); err != nil {
			return false, err
		}
	}

	key := v.Key()
	h := s.hashOf(key)
	b := s.bucketOf(h)
	if debug {
		fmt.Printf("put(%q): hash=%08x bucket=%d\n", key, h, b)
	}

	for r := s.buckets[b]; r != noSlot; {
		slot := &s.slots[r.index()]
		if slot.hash == h && s.cmp.Equal(slot.value.Key(), key) {
			if debug {
				fmt.Printf("put(replacing): index=%d key=%q\n", r.index(), key)
			}
			slot.value = v
			s.checkInvariants()
			return false, nil
		}
		r = slot.next
	}

	var i int
	if s.freeList != noSlot {
		i = s.freeList.index()
		s.freeList = s.slots[i].next
		if debug {
			fmt.Printf("put(reusing): index=%d key=%q\n", i, key)
		}
	} else {
		if s.lastIndex == len(s.slots) {
			if err := s.grow(); err != nil {
				return false, err
			}
			b = s.bucketOf(h)
		}
		i = s.lastIndex
		s.lastIndex++
	}

	s.slots[i] = Slot[V]{hash: h, next: s.buckets[b], value: v}
	s.buckets[b] = refTo(i)
	s.count++
	s.version++
	s.checkInvariants()
	return true, nil
}

// Delete removes the value stored under key. It is a noop to delete a
// non-existent key; deleted reports whether anything was removed.
func (s *Set[V]) Delete(key string) (deleted bool, err error) {
	if s.readOnly {
		return false, ErrReadOnly
	}
	if s.buckets == nil {
		return false, nil
	}

	h := s.hashOf(key)
	b := s.bucketOf(h)
	prev := noSlot
	for r := s.buckets[b]; r != noSlot; {
		slot := &s.slots[r.index()]
		if slot.hash != h || !s.cmp.Equal(slot.value.Key(), key) {
			prev = r
			r = slot.next
			continue
		}

		if prev == noSlot {
			s.buckets[b] = slot.next
		} else {
			s.slots[prev.index()].next = slot.next
		}
		*slot = Slot[V]{hash: freeHash, next: s.freeList}
		s.count--
		s.version++
		if s.count == 0 {
			// Every slot below lastIndex is now free. Start handing them out
			// from the front again rather than walking the free list.
			s.lastIndex = 0
			s.freeList = noSlot
		} else {
			s.freeList = r
		}
		if debug {
			fmt.Printf("delete(%q): index=%d count=%d\n", key, r.index(), s.count)
		}
		s.checkInvariants()
		return true, nil
	}
	return false, nil
}

// Clear removes all values, retaining the allocated capacity.
func (s *Set[V]) Clear() error {
	if s.readOnly {
		return ErrReadOnly
	}
	if s.lastIndex > 0 {
		clear(s.slots[:s.lastIndex])
		clear(s.buckets)
		s.count = 0
		s.lastIndex = 0
		s.freeList = noSlot
	}
	s.version++
	s.checkInvariants()
	return nil
}

// TrimExcess shrinks the capacity to the smallest supported size that holds
// the current entries, compacting out free slots. An empty set releases its
// arrays entirely. Capacity never increases.
func (s *Set[V]) TrimExcess() error {
	if s.readOnly {
		return ErrReadOnly
	}
	oldCapacity := len(s.slots)
	if s.count == 0 {
		s.release()
		s.lastIndex = 0
		s.freeList = noSlot
	} else {
		size, err := nextPrime(s.count)
		if err != nil {
			return err
		}
		buckets, slots := s.alloc(size)
		n := 0
		for i := 0; i < s.lastIndex; i++ {
			old := &s.slots[i]
			if old.isFree() {
				continue
			}
			b := int(old.hash) % size
			slots[n] = Slot[V]{hash: old.hash, next: buckets[b], value: old.value}
			buckets[b] = refTo(n)
			n++
		}
		s.release()
		s.buckets, s.slots = buckets, slots
		s.lastIndex = n
		s.freeList = noSlot
	}
	s.version++
	s.trims++
	if s.logger != nil {
		s.logger.Debug("entryset: trimmed",
			capacityAttr(len(s.slots)), previousCapacityAttr(oldCapacity), countAttr(s.count))
	}
	s.checkInvariants()
	return nil
}

// grow replaces a full table with one sized growthTarget(count) and rehashes
// every entry. It is only called when no slot is free.
func (s *Set[V]) grow() error {
	size, err := growthTarget(s.count)
	if err != nil {
		return err
	}
	oldCapacity := len(s.slots)
	buckets, slots := s.alloc(size)
	copy(slots, s.slots[:s.lastIndex])
	for i := 0; i < s.lastIndex; i++ {
		b := int(slots[i].hash) % size
		slots[i].next = buckets[b]
		buckets[b] = refTo(i)
	}
	s.release()
	s.buckets, s.slots = buckets, slots
	s.version++
	s.grows++
	if s.logger != nil {
		s.logger.Debug("entryset: grew",
			capacityAttr(size), previousCapacityAttr(oldCapacity), countAttr(s.count))
	}
	return nil
}

// MakeReadOnly permanently forbids mutation. Every subsequent Put, Delete,
// Clear, TrimExcess and PutAll returns ErrReadOnly.
func (s *Set[V]) MakeReadOnly() {
	if s.readOnly {
		return
	}
	s.readOnly = true
	if s.logger != nil {
		s.logger.Debug("entryset: made read-only", countAttr(s.count), versionAttr(s.version))
	}
}

// ReadOnly reports whether MakeReadOnly has been called.
func (s *Set[V]) ReadOnly() bool {
	return s.readOnly
}

// Len returns the number of values in the set.
func (s *Set[V]) Len() int {
	return s.count
}

// Cap returns the number of slots currently allocated. It is always zero or
// a prime from the capacity ladder.
func (s *Set[V]) Cap() int {
	return len(s.slots)
}

// Comparer returns the comparer the set was constructed with.
func (s *Set[V]) Comparer() Comparer {
	return s.cmp
}

// Stats describes the shape of a Set.
type Stats struct {
	Len       int
	Capacity  int
	HighWater int
	Free      int
	Version   uint64
	Grows     uint64
	Trims     uint64
	ReadOnly  bool
}

// Stats returns a description of the set's current shape.
func (s *Set[V]) Stats() Stats {
	return Stats{
		Len:       s.count,
		Capacity:  len(s.slots),
		HighWater: s.lastIndex,
		Free:      s.lastIndex - s.count,
		Version:   s.version,
		Grows:     s.grows,
		Trims:     s.trims,
		ReadOnly:  s.readOnly,
	}
}

func (s *Set[V]) checkInvariants() {
	if invariants {
		if len(s.buckets) != len(s.slots) {
			panic(fmt.Sprintf("invariant failed: %d buckets but %d slots\n%s",
				len(s.buckets), len(s.slots), s.debugString()))
		}
		if c := len(s.slots); c != 0 && !isPrime(c) {
			panic(fmt.Sprintf("invariant failed: capacity %d is not prime\n%s", c, s.debugString()))
		}
		if s.count > s.lastIndex || s.lastIndex > len(s.slots) {
			panic(fmt.Sprintf("invariant failed: count=%d last-index=%d capacity=%d\n%s",
				s.count, s.lastIndex, len(s.slots), s.debugString()))
		}

		// For every live slot, verify the stored hash and that we can
		// retrieve the value using find. Count the free slots.
		var used, free int
		for i := 0; i < s.lastIndex; i++ {
			slot := &s.slots[i]
			if slot.isFree() {
				free++
				continue
			}
			key := slot.value.Key()
			if h := s.hashOf(key); h != slot.hash {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q stored hash %08x, expected %08x\n%s",
					i, key, slot.hash, h, s.debugString()))
			}
			if j := s.find(key); j != i {
				panic(fmt.Sprintf("invariant failed: slot(%d): %q found at %d\n%s",
					i, key, j, s.debugString()))
			}
			used++
		}
		if used != s.count {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but count is %d\n%s",
				used, s.count, s.debugString()))
		}

		// The free list must thread exactly through the free slots.
		var onList int
		for r := s.freeList; r != noSlot; r = s.slots[r.index()].next {
			if i := r.index(); i >= s.lastIndex || !s.slots[i].isFree() {
				panic(fmt.Sprintf("invariant failed: free list references slot %d\n%s", i, s.debugString()))
			}
			onList++
			if onList > free {
				panic(fmt.Sprintf("invariant failed: free list cycle\n%s", s.debugString()))
			}
		}
		if onList != free {
			panic(fmt.Sprintf("invariant failed: found %d free slots, but free list holds %d\n%s",
				free, onList, s.debugString()))
		}
	}
}

func (s *Set[V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  count=%d  last-index=%d  free-list=%d  version=%d\n",
		len(s.slots), s.count, s.lastIndex, s.freeList.index(), s.version)
	for i := range s.buckets {
		if r := s.buckets[i]; r != noSlot {
			fmt.Fprintf(&buf, "  bucket %4d: -> %d\n", i, r.index())
		}
	}
	for i := 0; i < s.lastIndex; i++ {
		slot := &s.slots[i]
		if slot.isFree() {
			fmt.Fprintf(&buf, "  %4d: free [next=%d]\n", i, slot.next.index())
		} else {
			fmt.Fprintf(&buf, "  %4d: %q [hash=%08x next=%d]\n", i, slot.value.Key(), slot.hash, slot.next.index())
		}
	}
	return buf.String()
}

func unsafeConvertSlice[Dest any, Src any](s []Src) []Dest {
	return unsafe.Slice((*Dest)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}
