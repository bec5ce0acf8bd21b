// Package preflight validates the scan root and the directories a run will
// touch before any work starts.
//
// CheckRoot is fatal: a missing root or one that is not a directory ends the
// run. The access checks in RunAll are advisory; a failed check is logged and
// the scan proceeds, recording per-path errors as it meets them.
package preflight
