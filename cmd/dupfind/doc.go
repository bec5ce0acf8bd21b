// Package main hosts the dupfind CLI entrypoint and command graph.
//
// The root command scans one directory for duplicate files and applies the
// requested actions; the config subcommands scaffold and check TOML
// configuration. Scanning, grouping, and the actions themselves live in the
// internal packages; this package only resolves configuration, wires the
// logger and progress display, and maps failures onto exit codes.
package main
