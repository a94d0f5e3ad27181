// Package types defines the shared data structures of the repoindex
// pipeline: chunks, per-file and per-repository context, persisted
// metadata records, stage status reports, and the error taxonomy used
// across stages.
package types
