// Package ingest assembles configuration trees from layered sources (files,
// environment, flags, structs), resolves placeholders, and converts the
// merged tree into a typed config object through the schema pipeline.
package ingest
