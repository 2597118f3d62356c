// Package reference parses camera reference files and imports them into a chunk.
//
// The format is configurable by column order (n label, x y z coordinates), delimiter
// and number of header rows to skip. Files are parsed and validated before the engine
// is asked to load them, so malformed rows surface as ParseError naming the row
// instead of an opaque engine failure.
package reference
