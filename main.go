// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Certmigrate.
//
// Usage:
//
//	go run . [flags]
//	./certmigrate [flags]
//
// See --help for options.
package main

import (
	"os"

	"github.com/toeirei/certmigrate/internal/logging"
	"github.com/toeirei/certmigrate/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}
