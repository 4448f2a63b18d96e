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
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestPrimeLadder(t *testing.T) {
	for i, p := range primes {
		require.True(t, isPrime(p), "%d", p)
		if i > 0 {
			require.Greater(t, p, primes[i-1])
		}
	}
	require.True(t, isPrime(maxPrime))
}

func TestNextPrime(t *testing.T) {
	testCases := []struct {
		n        int
		expected int
	}{
		{0, 3},
		{1, 3},
		{3, 3},
		{4, 7},
		{12, 17},
		{7199369, 7199369},
		// Past the ladder.
		{7199370, 7199371},
		{maxPrime, maxPrime},
	}
	for _, c := range testCases {
		p, err := nextPrime(c.n)
		require.NoError(t, err)
		require.EqualValues(t, c.expected, p, "nextPrime(%d)", c.n)
	}

	_, err := nextPrime(maxPrime + 1)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = nextPrime(-1)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGrowthTarget(t *testing.T) {
	for count := 0; count < 5000; count++ {
		p, err := growthTarget(count)
		require.NoError(t, err)
		require.Greater(t, p, 2*count)
		require.True(t, isPrime(p))
		// The target is the smallest ladder prime past 2*count.
		for _, q := range primes {
			if q > 2*count {
				require.Equal(t, q, p)
				break
			}
		}
	}

	p, err := growthTarget(maxPrime / 2)
	require.NoError(t, err)
	require.Equal(t, maxPrime, p)

	_, err = growthTarget(maxPrime)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}
