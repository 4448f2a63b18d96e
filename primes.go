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

// maxPrime is the largest capacity a Set will ever allocate. It is the
// largest prime below the maximum length of a slice of 32-bit slot
// references.
const maxPrime = 0x7FEFFFFD

// primes is the capacity ladder. Each step is roughly 1.2x the previous
// one, so that a growth to nextPrime(2*count+1) lands close to a doubling.
// Prime moduli keep chains short when hash codes share factors with the
// table size.
var primes = [...]int{
	3, 7, 11, 17, 23, 29, 37, 47, 59, 71, 89, 107, 131, 163, 197, 239, 293,
	353, 431, 521, 631, 761, 919, 1103, 1327, 1597, 1931, 2333, 2801, 3371,
	4049, 4861, 5839, 7013, 8419, 10103, 12143, 14591, 17519, 21023, 25229,
	30293, 36353, 43627, 52361, 62851, 75431, 90523, 108631, 130363, 156437,
	187751, 225307, 270371, 324449, 389357, 467237, 560689, 672827, 807403,
	968897, 1162687, 1395263, 1674319, 2009191, 2411033, 2893249, 3471899,
	4166287, 4999559, 5999471, 7199369,
}

// nextPrime returns the smallest supported capacity that is >= n.
func nextPrime(n int) (int, error) {
	if n < 0 {
		return 0, status.Errorf(codes.InvalidArgument, "entryset: negative capacity %d", n)
	}
	// The ladder is short enough that a linear scan beats a binary search
	// for the small sizes that dominate in practice.
	for _, p := range primes {
		if p >= n {
			return p, nil
		}
	}
	if n > maxPrime {
		return 0, ErrCapacityExceeded
	}
	// Past the end of the ladder fall back to trial division over odd
	// candidates.
	for c := n | 1; c <= maxPrime; c += 2 {
		if isPrime(c) {
			return c, nil
		}
	}
	return 0, ErrCapacityExceeded
}

// growthTarget returns the capacity to grow to when a full set holding count
// entries needs room for one more: the smallest supported prime strictly
// greater than 2*count.
func growthTarget(count int) (int, error) {
	if count > (maxPrime-1)/2 {
		if count >= maxPrime {
			return 0, ErrCapacityExceeded
		}
		// Doubling would overflow the ladder but there is still headroom.
		return maxPrime, nil
	}
	return nextPrime(2*count + 1)
}

func isPrime(c int) bool {
	if c&1 == 0 {
		return c == 2
	}
	for d := 3; d*d <= c; d += 2 {
		if c%d == 0 {
			return false
		}
	}
	return c > 1
}
