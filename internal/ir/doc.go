// Package ir provides the canonical intermediate representation produced by
// lowering a template CST.
//
// This package contains the node types plus tree utilities (traversal,
// dumping, canonical JSON, content hashing). It imports nothing internal, so
// the compiler, CLI and harness can all depend on it.
//
// Key constraints:
//   - The node set is closed: Node has an unexported method
//   - Every node carries a 1-based source line; 0 means unknown
//   - Every non-leaf node exclusively owns its children (a tree, no sharing)
//   - Canonical JSON keys use snake_case
package ir
