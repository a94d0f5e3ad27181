// Package extractor derives per-file structural context (imports,
// definitions, language extras) used to enrich chunk text before
// embedding. Extraction is regex-based, bounded, and never fails: a
// file the patterns cannot read simply yields a sparser context.
package extractor
