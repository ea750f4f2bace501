// Package main hosts the inlay CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into composition
// runs, dry-run plans, window validation, environment checks, run history
// queries, output-directory cleanup, and configuration scaffolding. It
// centralizes configuration resolution, logger construction, and ledger
// access so subcommands only translate flags into workflow requests and
// results into tables or JSON.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
