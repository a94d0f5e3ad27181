// Package storage persists pipeline artifacts as path-addressed blobs:
// raw ingested source files, repository metadata, the chunk set, and
// commit tracking records. The BlobStore interface abstracts the byte
// transport; RepoStore layers the artifact schema on top of it.
package storage
