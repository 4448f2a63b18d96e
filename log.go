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

// Log attribute keys, kept stable so that records from different sets can
// be aggregated.
const (
	keyCapacity         = "capacity"
	keyPreviousCapacity = "previous_capacity"
	keyCount            = "count"
	keyVersion          = "version"
)

func capacityAttr(n int) slog.Attr         { return slog.Int(keyCapacity, n) }
func previousCapacityAttr(n int) slog.Attr { return slog.Int(keyPreviousCapacity, n) }
func countAttr(n int) slog.Attr            { return slog.Int(keyCount, n) }
func versionAttr(v uint64) slog.Attr       { return slog.Uint64(keyVersion, v) }
