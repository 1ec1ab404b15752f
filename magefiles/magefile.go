// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the modelkit project using Mage.
//
// Usage:
//
//	mage build        Compile modelkit binary to bin/
//	mage test:all     Run all tests
//	mage test:unit    Run tests with -short
//	mage test:cover   Run all tests and write coverage.out
//	mage lint         Run golangci-lint
//	mage clean        Remove build artifacts
//	mage install      Install modelkit to GOPATH/bin
//	mage stats        Print Go LOC per package and documentation word counts
package main
