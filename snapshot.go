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
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Entry is a key and its value as recorded in a Snapshot.
type Entry[V any] struct {
	Key   string `json:"key" yaml:"key"`
	Value V      `json:"value" yaml:"value"`
}

// Snapshot is the persistent form of a Set. The codec package encodes it as
// JSON or YAML.
type Snapshot[V any] struct {
	Version uint64 `json:"version" yaml:"version"`
	// Comparer is the Name of the set's comparer.
	Comparer string `json:"comparer" yaml:"comparer"`
	// Capacity is the number of slots the set had allocated. A set restored
	// from the snapshot is allocated with at least this capacity.
	Capacity int        `json:"capacity" yaml:"capacity"`
	ReadOnly bool       `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Entries  []Entry[V] `json:"entries" yaml:"entries"`
}

// Capture returns a snapshot of the set. Entries are recorded in slot order.
func (s *Set[V]) Capture() *Snapshot[V] {
	snap := &Snapshot[V]{
		Version:  s.version,
		Comparer: s.cmp.Name(),
		Capacity: len(s.slots),
		ReadOnly: s.readOnly,
		Entries:  make([]Entry[V], 0, s.count),
	}
	for i := 0; i < s.lastIndex; i++ {
		if slot := &s.slots[i]; !slot.isFree() {
			snap.Entries = append(snap.Entries, Entry[V]{Key: slot.value.Key(), Value: slot.value})
		}
	}
	return snap
}

// Restorer rebuilds a Set from a Snapshot in two phases. Restore allocates
// an empty set and holds on to the snapshot; Finalize populates the set. The
// gap lets a caller decoding a larger object graph hand out the *Set before
// the values it will hold have had their own references resolved.
type Restorer[V Keyed] struct {
	set  *Set[V]
	snap *Snapshot[V]
}

// Restore validates snap and allocates the set it describes without
// populating it. If cmp is nil the builtin comparer named by the snapshot is
// used. The recorded capacity is honoured up to four slots per entry, or 1024
// slots for small snapshots, and WithSizeHint can raise it. The snapshot must
// not be modified until Finalize has been called.
func Restore[V Keyed](snap *Snapshot[V], cmp Comparer, options ...option[V]) (*Restorer[V], error) {
	if snap == nil {
		return nil, ErrNilSource
	}
	if snap.Capacity < 0 {
		return nil, status.Errorf(codes.InvalidArgument,
			"entryset: snapshot has negative capacity %d", snap.Capacity)
	}
	if snap.Capacity > 0 && snap.Entries == nil {
		return nil, ErrMalformedSnapshot
	}
	if cmp == nil {
		if cmp = LookupComparer(snap.Comparer); cmp == nil {
			return nil, status.Errorf(codes.Internal,
				"entryset: no comparer available for snapshot comparer %q", snap.Comparer)
		}
	} else if snap.Comparer != "" && snap.Comparer != cmp.Name() {
		return nil, status.Errorf(codes.FailedPrecondition,
			"entryset: snapshot was captured with comparer %q, not %q", snap.Comparer, cmp.Name())
	}

	s, err := newSet(cmp, options)
	if err != nil {
		return nil, err
	}
	capacity := restoreCapacity(snap.Capacity, len(snap.Entries))
	if s.logger != nil && capacity < snap.Capacity {
		s.logger.Debug("entryset: bounded snapshot capacity",
			capacityAttr(capacity), previousCapacityAttr(snap.Capacity), countAttr(len(snap.Entries)))
	}
	if capacity = max(capacity, s.sizeHint); capacity > 0 {
		if err := s.initialize(capacity); err != nil {
			return nil, err
		}
	}
	return &Restorer[V]{set: s, snap: snap}, nil
}

// Snapshots holding fewer than maxRestoreSlack/(shrinkThreshold+1) entries
// may record a capacity of up to maxRestoreSlack.
const maxRestoreSlack = 1024

// restoreCapacity bounds the capacity recorded in a snapshot by the number
// of entries the snapshot carries, so that a corrupt or hostile capacity
// cannot force an arbitrarily large allocation.
func restoreCapacity(recorded, entries int) int {
	return min(recorded, max((shrinkThreshold+1)*entries, maxRestoreSlack))
}

// Set returns the set being restored. It is empty until Finalize succeeds
// and must not be modified before then.
func (r *Restorer[V]) Set() *Set[V] {
	return r.set
}

// Finalize populates the set from the snapshot and releases the snapshot.
// Every entry's key must match the key of its value. Calling Finalize again
// after it succeeded does nothing.
func (r *Restorer[V]) Finalize() error {
	if r.snap == nil {
		return nil
	}
	snap, s := r.snap, r.set
	for i := range snap.Entries {
		e := &snap.Entries[i]
		if vk := e.Value.Key(); !s.cmp.Equal(e.Key, vk) {
			return status.Errorf(codes.FailedPrecondition,
				"entryset: snapshot entry %d has key %q but its value has key %q", i, e.Key, vk)
		}
	}
	for i := range snap.Entries {
		if _, err := s.Put(snap.Entries[i].Value); err != nil {
			return err
		}
	}
	if snap.Version > s.version {
		s.version = snap.Version
	}
	if snap.ReadOnly {
		s.freezeAfterBuild = true
	}
	s.finishBuild()
	r.snap = nil
	return nil
}
