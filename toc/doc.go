// Package toc implements the table-of-contents node shape and the builder
// that constructs it while a value streams through the codec (spec.md §3,
// §4.4): small-object inlining, block grouping of small array elements, and
// the write/read (Builder/Parse) split that keeps the read side lazy.
package toc
