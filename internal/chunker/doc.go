// Package chunker splits source files into embeddable chunks. Files in
// languages with a semantic analyzer are cut along definition spans;
// everything else falls back to fixed-size line windows with overlap
// and boundary snapping. Every chunk carries an enriched rendering of
// its body prefixed with repository, file, and chunk context banners.
package chunker
