// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Certmigrate using
// Cobra. It wires configuration and the live store, and delegates export,
// import planning and reporting to the internal packages. CLI code should
// remain thin.
package cli
