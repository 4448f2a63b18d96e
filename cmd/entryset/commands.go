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

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/entryset"
	"github.com/cockroachdb/entryset/codec"
	"golang.org/x/sync/errgroup"
)

// property is the value type of snapshots handled by the command: a named
// string, as used for build properties and item metadata.
type property struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

func (p property) Key() string { return p.Name }

// load reads a snapshot file and restores it into a set.
func load(path string, root *CLI, logger *slog.Logger) (*entryset.Set[property], error) {
	f, err := codec.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := codec.Unmarshal[property](f, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var cmp entryset.Comparer
	if snap.Comparer == "" {
		cmp = entryset.Ordinal
		if root.IgnoreCase {
			cmp = entryset.IgnoreCase
		}
	}
	r, err := entryset.Restore(snap, cmp, entryset.WithLogger[property](logger.With("file", path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := r.Finalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r.Set(), nil
}

// InspectCmd prints the shape of snapshot files.
type InspectCmd struct {
	Files []string `arg:"" name:"file" help:"Snapshot files (.json, .yaml)" type:"existingfile"`
}

func (c *InspectCmd) Run(g *Global, root *CLI) error {
	sets := make([]*entryset.Set[property], len(c.Files))
	var eg errgroup.Group
	eg.SetLimit(4)
	for i, path := range c.Files {
		eg.Go(func() error {
			s, err := load(path, root, g.Logger)
			if err != nil {
				return err
			}
			sets[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, s := range sets {
		st := s.Stats()
		fmt.Fprintf(g.Stdout, "%s: entries=%d capacity=%d comparer=%s read-only=%t\n",
			c.Files[i], st.Len, st.Capacity, s.Comparer().Name(), st.ReadOnly)
		g.Logger.Debug("inspected snapshot", "file", c.Files[i], "version", st.Version)
	}
	return nil
}

// GetCmd prints a single value.
type GetCmd struct {
	File string `arg:"" help:"Snapshot file" type:"existingfile"`
	Key  string `arg:"" help:"Key to look up"`
}

func (c *GetCmd) Run(g *Global, root *CLI) error {
	s, err := load(c.File, root, g.Logger)
	if err != nil {
		return err
	}
	p, ok := s.Get(c.Key)
	if !ok {
		return fmt.Errorf("%s: key %q not found", c.File, c.Key)
	}
	fmt.Fprintln(g.Stdout, p.Value)
	return nil
}

// ConvertCmd rewrites a snapshot. Going through a set collapses duplicate
// keys last-write-wins and compacts the recorded capacity.
type ConvertCmd struct {
	In  string `arg:"" help:"Input snapshot" type:"existingfile"`
	Out string `arg:"" help:"Output snapshot; the extension selects the format"`
}

func (c *ConvertCmd) Run(g *Global, root *CLI) error {
	f, err := codec.FormatFromPath(c.Out)
	if err != nil {
		return err
	}
	s, err := load(c.In, root, g.Logger)
	if err != nil {
		return err
	}
	if !s.ReadOnly() {
		if err := s.TrimExcess(); err != nil {
			return err
		}
	}
	data, err := codec.Marshal(f, s.Capture())
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Out, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	g.Logger.Info("converted snapshot", "in", c.In, "out", c.Out, "format", f.String(), "entries", s.Len())
	return nil
}
