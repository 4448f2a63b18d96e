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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/entryset"
	"github.com/cockroachdb/entryset/codec"
	"github.com/stretchr/testify/require"
)

const propsJSON = `{
  "version": 5,
  "comparer": "ignore-case",
  "capacity": 7,
  "entries": [
    {"key": "Configuration", "value": {"name": "Configuration", "value": "Debug"}},
    {"key": "Platform", "value": {"name": "Platform", "value": "x64"}},
    {"key": "configuration", "value": {"name": "configuration", "value": "Release"}}
  ]
}`

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestInspect(t *testing.T) {
	props := writeFile(t, "props.json", propsJSON)
	empty := writeFile(t, "empty.yaml", "version: 0\ncomparer: ordinal\ncapacity: 0\nentries: []\n")

	out, err := runCLI(t, "inspect", props, empty)
	require.NoError(t, err)
	require.Equal(t,
		props+": entries=2 capacity=7 comparer=ignore-case read-only=false\n"+
			empty+": entries=0 capacity=0 comparer=ordinal read-only=false\n",
		out)
}

func TestGet(t *testing.T) {
	props := writeFile(t, "props.json", propsJSON)

	out, err := runCLI(t, "get", props, "CONFIGURATION")
	require.NoError(t, err)
	require.Equal(t, "Release\n", out)

	_, err = runCLI(t, "get", props, "OutDir")
	require.ErrorContains(t, err, `key "OutDir" not found`)
}

func TestGetIgnoreCaseFlag(t *testing.T) {
	props := writeFile(t, "props.yaml", `
entries:
  - key: Platform
    value: {name: Platform, value: x64}
`)
	_, err := runCLI(t, "get", props, "platform")
	require.Error(t, err)

	out, err := runCLI(t, "--ignore-case", "get", props, "platform")
	require.NoError(t, err)
	require.Equal(t, "x64\n", out)
}

func TestConvert(t *testing.T) {
	props := writeFile(t, "props.json", propsJSON)
	out := filepath.Join(filepath.Dir(props), "props.yaml")

	_, err := runCLI(t, "convert", props, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	snap, err := codec.Unmarshal[property](codec.YAML, data)
	require.NoError(t, err)
	require.Equal(t, entryset.IgnoreCase.Name(), snap.Comparer)
	require.Equal(t, 3, snap.Capacity)
	require.Len(t, snap.Entries, 2)

	got, err := runCLI(t, "get", out, "configuration")
	require.NoError(t, err)
	require.Equal(t, "Release\n", got)
}

func TestMalformed(t *testing.T) {
	props := writeFile(t, "props.json", `{"comparer": "ordinal", "capacity": 3}`)
	_, err := runCLI(t, "inspect", props)
	require.ErrorIs(t, err, entryset.ErrMalformedSnapshot)

	bad := writeFile(t, "props.txt", "")
	_, err = runCLI(t, "inspect", bad)
	require.ErrorContains(t, err, "unknown format")
}

func TestInspectOversizedCapacity(t *testing.T) {
	props := writeFile(t, "props.yaml", `
comparer: ordinal
capacity: 2000000000
entries:
  - key: Platform
    value: {name: Platform, value: x64}
`)
	out, err := runCLI(t, "inspect", props)
	require.NoError(t, err)
	require.Equal(t, props+": entries=1 capacity=1103 comparer=ordinal read-only=false\n", out)
}
