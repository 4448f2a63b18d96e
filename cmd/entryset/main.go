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

// Command entryset inspects and converts entryset snapshot files.
//
//	entryset inspect props.json other.yaml
//	entryset get props.json Configuration
//	entryset convert props.json props.yaml
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Global is bound into every command's Run method.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

// CLI holds the global flags and the subcommands.
type CLI struct {
	Verbose    bool   `short:"v" help:"Enable debug logging" env:"ENTRYSET_VERBOSE"`
	LogFormat  string `help:"Log format (text or json)" enum:"text,json" default:"text" env:"ENTRYSET_LOG_FORMAT"`
	IgnoreCase bool   `help:"Compare keys case-insensitively when a snapshot names no comparer" env:"ENTRYSET_IGNORE_CASE"`

	Inspect InspectCmd `cmd:"" help:"Print the shape of one or more snapshots"`
	Get     GetCmd     `cmd:"" help:"Print the value stored under a key"`
	Convert ConvertCmd `cmd:"" help:"Rewrite a snapshot, collapsing duplicate keys, in the format of the output extension"`
}

func (c *CLI) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// run parses args and executes the selected command, writing results to
// stdout and logs to stderr.
func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("entryset"),
		kong.Description("Inspect and convert entryset snapshots."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	logger := cli.logger(stderr)
	return ctx.Run(&Global{Logger: logger, Stdout: stdout}, &cli)
}

func main() {
	// A missing .env file is the common case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "entryset: loading .env: %v\n", err)
	}
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("entryset failed", "error", err)
		os.Exit(1)
	}
}
