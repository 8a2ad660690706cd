// Package integration feeds annotations from outside the editing core.
//
// Each source owns one sub-registry that it attaches to the shared
// annotation registry under a fixed key:
//
//   - tasks: TODO-style markers found by scanning buffer lines
//   - diff: added, modified and deleted lines from the working tree diff
//
// Sources replace their whole sub-registry in one batch so listeners see a
// single event per refresh. Rescans after edits go through a Debouncer.
//
// The git subpackage shells out to the git binary; diffmarks turns its
// unified diff into marks.
package integration
