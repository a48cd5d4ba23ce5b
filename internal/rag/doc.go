// Package rag provides retrieval-augmented generation support: an embedded
// vector index over the sustainability knowledge corpus, the indexer that
// builds it from a docs directory, and the swappable handle the rest of the
// service reads it through.
//
// The index is rebuilt as a whole and swapped atomically at the handle level;
// concurrent readers always see either the old or the new fully-built index,
// never a partially-built one.
package rag
