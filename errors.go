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

// Errors returned by a Set carry a gRPC status code so that callers
// embedding a Set inside a service can propagate them unchanged. The codes
// partition the failures as follows:
//
//   - codes.InvalidArgument: bad input to a public operation. State is
//     untouched.
//   - codes.FailedPrecondition: the operation is not valid in the current
//     state (read-only set, stale iterator, inconsistent snapshot).
//   - codes.ResourceExhausted: the requested capacity exceeds maxPrime.
//   - codes.Internal: a programming error such as a missing Comparer.
//
// Use status.Code(err) to classify, or errors.Is against the sentinels
// below.
var (
	// ErrReadOnly is returned by every mutating operation once
	// MakeReadOnly has been called.
	ErrReadOnly = status.Error(codes.FailedPrecondition, "entryset: set is read-only")

	// ErrConcurrentModification is reported by an Iterator whose Set was
	// structurally modified after the Iterator was created.
	ErrConcurrentModification = status.Error(codes.FailedPrecondition,
		"entryset: set was modified during enumeration")

	// ErrMalformedSnapshot is returned by Restore when a snapshot records a
	// non-zero capacity but carries no entries.
	ErrMalformedSnapshot = status.Error(codes.FailedPrecondition,
		"entryset: snapshot has a capacity but no entries")

	// ErrCapacityExceeded is returned when a set would need to grow beyond
	// the largest supported prime capacity.
	ErrCapacityExceeded = status.Error(codes.ResourceExhausted, "entryset: capacity exceeded")

	// ErrNilSource is returned by bulk operations given a nil sequence.
	ErrNilSource = status.Error(codes.InvalidArgument, "entryset: source sequence is nil")

	// ErrNoComparer is returned when a Set is constructed without a
	// Comparer.
	ErrNoComparer = status.Error(codes.Internal, "entryset: no comparer configured")
)
