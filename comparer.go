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
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/cases"
)

// Keyed is implemented by every value stored in a Set. Key must return the
// same string for as long as the value is stored; the Set never derives or
// rewrites keys itself.
type Keyed interface {
	Key() string
}

// Comparer defines the equivalence relation and hash function over item
// keys. Equal(x, y) must imply Hash(x) == Hash(y). A Comparer must be safe
// for concurrent use because concurrent lookups share it.
//
// Lookups take a bare key, so finding an entry never requires constructing a
// value of the stored type.
type Comparer interface {
	Equal(x, y string) bool
	Hash(key string) uint32
	// Name identifies the comparer in snapshots. Restoring a snapshot
	// requires a comparer with the same name.
	Name() string
}

// Ordinal compares keys byte for byte.
var Ordinal Comparer = ordinal{}

// IgnoreCase compares keys under Unicode case folding.
var IgnoreCase Comparer = ignoreCase{}

// LookupComparer returns the builtin comparer with the given name, or nil.
func LookupComparer(name string) Comparer {
	switch name {
	case Ordinal.Name():
		return Ordinal
	case IgnoreCase.Name():
		return IgnoreCase
	}
	return nil
}

type ordinal struct{}

func (ordinal) Equal(x, y string) bool { return x == y }
func (ordinal) Hash(key string) uint32 { return uint32(xxhash.Sum64String(key)) }
func (ordinal) Name() string           { return "ordinal" }

// A cases.Caser carries state between calls and must not be shared, so
// folding goes through a pool.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

func fold(s string) string {
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	c.Reset()
	return c.String(s)
}

type ignoreCase struct{}

func (ignoreCase) Equal(x, y string) bool {
	if x == y {
		return true
	}
	return fold(x) == fold(y)
}

func (ignoreCase) Hash(key string) uint32 { return uint32(xxhash.Sum64String(fold(key))) }
func (ignoreCase) Name() string           { return "ignore-case" }
