// Package app wires the resolution pipeline together: spec tree loading,
// overlay resolution, build deduplication, plan emission, exports, and the
// optional dispatch to the build/test backends.
package app
