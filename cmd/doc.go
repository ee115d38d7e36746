// Package cmd implements the command-line interface for oradix, an ordered
// radix-tree index over byte-addressable global memory.
//
// The package is organized into subpackages:
//
//   - tree: commands for operating on an in-process tree (put, get, del,
//     scan, list, structure, stats, and an interactive shell)
//   - util: shared utilities for command-line processing and configuration
//
// See oradix -help for a list of all commands.
package cmd
