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

// Package codec encodes entryset snapshots as JSON or YAML.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/entryset"
	"github.com/sugawarayuuta/sonnet"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a snapshot.
type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses "json" or "yaml" (or "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return 0, status.Errorf(codes.InvalidArgument, "codec: unknown format %q", s)
}

// FormatFromPath infers the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return 0, status.Errorf(codes.InvalidArgument, "codec: %s has no extension", path)
	}
	return ParseFormat(ext[1:])
}

// Marshal encodes snap in format f.
func Marshal[V any](f Format, snap *entryset.Snapshot[V]) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case JSON:
		data, err = sonnet.Marshal(snap)
	case YAML:
		data, err = yaml.Marshal(snap)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "codec: unknown format %v", f)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal %v snapshot: %w", f, err)
	}
	return data, nil
}

// Unmarshal decodes a snapshot encoded in format f. A document without an
// entries field decodes to a snapshot with nil Entries, which Restore
// rejects if the snapshot records a capacity.
func Unmarshal[V any](f Format, data []byte) (*entryset.Snapshot[V], error) {
	snap := &entryset.Snapshot[V]{}
	var err error
	switch f {
	case JSON:
		err = sonnet.Unmarshal(data, snap)
	case YAML:
		err = yaml.Unmarshal(data, snap)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "codec: unknown format %v", f)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %v snapshot: %w", f, err)
	}
	return snap, nil
}
