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
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCaptureRestore(t *testing.T) {
	src := mustNew(t, IgnoreCase, 0)
	for i := 0; i < 200; i++ {
		mustPut(t, src, "k"+strconv.Itoa(i), i)
	}
	for i := 0; i < 200; i += 7 {
		_, err := src.Delete("k" + strconv.Itoa(i))
		require.NoError(t, err)
	}

	snap := src.Capture()
	require.Equal(t, "ignore-case", snap.Comparer)
	require.Equal(t, src.Cap(), snap.Capacity)
	require.Len(t, snap.Entries, src.Len())

	r, err := Restore(snap, nil)
	require.NoError(t, err)
	shell := r.Set()
	require.EqualValues(t, 0, shell.Len())
	require.GreaterOrEqual(t, shell.Cap(), snap.Capacity)

	require.NoError(t, r.Finalize())
	dst := r.Set()
	require.Same(t, shell, dst)
	if diff := cmp.Diff(src.toBuiltinMap(itemVal), dst.toBuiltinMap(itemVal)); diff != "" {
		t.Fatalf("restored set differs (-src +dst):\n%s", diff)
	}
	require.Equal(t, IgnoreCase, dst.Comparer())
	// The capacity was seeded from the snapshot, so restoring never grew.
	require.EqualValues(t, 0, dst.Stats().Grows)
	require.Equal(t, src.Cap(), dst.Cap())
	require.GreaterOrEqual(t, dst.Stats().Version, snap.Version)

	// Finalize is idempotent.
	require.NoError(t, r.Finalize())
	require.Equal(t, src.Len(), dst.Len())
}

func TestCaptureRestoreReadOnly(t *testing.T) {
	src := mustNew(t, Ordinal, 0)
	mustPut(t, src, "a", 1)
	src.MakeReadOnly()

	r, err := Restore(src.Capture(), Ordinal)
	require.NoError(t, err)
	require.False(t, r.Set().ReadOnly())
	require.NoError(t, r.Finalize())
	require.True(t, r.Set().ReadOnly())

	r, err = Restore(mustNew(t, Ordinal, 0).Capture(), Ordinal, WithReadOnly[item]())
	require.NoError(t, err)
	require.NoError(t, r.Finalize())
	require.True(t, r.Set().ReadOnly())
}

func TestCaptureEmpty(t *testing.T) {
	for _, capacity := range []int{0, 10} {
		src := mustNew(t, Ordinal, capacity)
		snap := src.Capture()
		require.NotNil(t, snap.Entries)

		r, err := Restore(snap, nil)
		require.NoError(t, err)
		require.NoError(t, r.Finalize())
		require.EqualValues(t, 0, r.Set().Len())
		require.Equal(t, src.Cap(), r.Set().Cap())
	}
}

func TestRestoreErrors(t *testing.T) {
	_, err := Restore[item](nil, Ordinal)
	require.ErrorIs(t, err, ErrNilSource)

	_, err = Restore(&Snapshot[item]{Comparer: "ordinal", Capacity: 7}, nil)
	require.ErrorIs(t, err, ErrMalformedSnapshot)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	// Without a recorded capacity a missing entries list is just empty.
	r, err := Restore(&Snapshot[item]{Comparer: "ordinal"}, nil)
	require.NoError(t, err)
	require.NoError(t, r.Finalize())

	_, err = Restore(&Snapshot[item]{Comparer: "ordinal", Capacity: -1}, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = Restore(&Snapshot[item]{Comparer: "ordinal", Entries: []Entry[item]{}}, IgnoreCase)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = Restore(&Snapshot[item]{Comparer: "mystery", Entries: []Entry[item]{}}, nil)
	require.Equal(t, codes.Internal, status.Code(err))

	// A custom comparer can be supplied for a custom descriptor.
	_, err = Restore(&Snapshot[item]{Comparer: "const", Entries: []Entry[item]{}}, constHash{})
	require.NoError(t, err)

	r, err = Restore(&Snapshot[item]{
		Comparer: "ordinal",
		Entries: []Entry[item]{
			{Key: "a", Value: item{"a", 1}},
			{Key: "b", Value: item{"c", 2}},
		},
	}, nil)
	require.NoError(t, err)
	err = r.Finalize()
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
	require.EqualValues(t, 0, r.Set().Len())
}

func TestRestoreDuplicates(t *testing.T) {
	r, err := Restore(&Snapshot[item]{
		Comparer: "ordinal",
		Capacity: 3,
		Entries: []Entry[item]{
			{Key: "a", Value: item{"a", 1}},
			{Key: "b", Value: item{"b", 2}},
			{Key: "a", Value: item{"a", 3}},
		},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, r.Finalize())
	require.Equal(t, map[string]int{"a": 3, "b": 2}, r.Set().toBuiltinMap(itemVal))
}

func TestRestoreBoundsCapacity(t *testing.T) {
	entries := []Entry[item]{
		{Key: "a", Value: item{"a", 1}},
		{Key: "b", Value: item{"b", 2}},
	}
	testCases := []struct {
		recorded int
		entries  []Entry[item]
		expected int
	}{
		{2000000000, entries, 1103},
		{maxPrime, entries, 1103},
		{1024, entries, 1103},
		{431, entries, 431},
		{11, []Entry[item]{}, 11},
	}
	for _, c := range testCases {
		t.Run(strconv.Itoa(c.recorded), func(t *testing.T) {
			r, err := Restore(&Snapshot[item]{Comparer: "ordinal", Capacity: c.recorded, Entries: c.entries}, nil)
			require.NoError(t, err)
			require.Equal(t, c.expected, r.Set().Cap())
			require.NoError(t, r.Finalize())
			require.Equal(t, len(c.entries), r.Set().Len())
		})
	}

	// Large snapshots keep up to four slots per entry.
	many := make([]Entry[item], 1000)
	for i := range many {
		k := strconv.Itoa(i)
		many[i] = Entry[item]{Key: k, Value: item{k, i}}
	}
	r, err := Restore(&Snapshot[item]{Comparer: "ordinal", Capacity: 1 << 30, Entries: many}, nil)
	require.NoError(t, err)
	require.Equal(t, 4049, r.Set().Cap())
}

func TestRestoreSizeHint(t *testing.T) {
	snap := &Snapshot[item]{Comparer: "ordinal", Capacity: 3, Entries: []Entry[item]{}}
	r, err := Restore(snap, nil, WithSizeHint[item](100))
	require.NoError(t, err)
	require.Equal(t, 107, r.Set().Cap())
	require.NoError(t, r.Finalize())
	require.Equal(t, 107, r.Set().Cap())

	_, err = Restore(snap, nil, WithSizeHint[item](-1))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}
