// Package retrieval implements the local-first personal-knowledge retrieval
// engine: query routing, BM25 keyword search, hybrid fusion with a pluggable
// vector index, knowledge-graph expansion, a three-tier memory store, and a
// token-budgeted context assembler. Nothing in this package calls out to a
// language model; it only assembles the prompt block a caller submits to one.
package retrieval
