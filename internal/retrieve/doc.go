// Package retrieve adapts the storage and web backends to the
// search.Retriever contract.
//
//   - [Dense]: embeds the query and searches the HNSW vector store
//   - [Sparse]: BM25 keyword search over SQLite FTS5 or Bleve
//   - [Web]: web search results scored for credibility
//   - [Merged]: several sparse-equivalent retrievers behind one name
//   - [Breaker]: a circuit breaker around any retriever
//
// Dense and Sparse resolve index IDs to passages through a
// [DocumentLookup], so the indexes only need to store IDs.
//
// All retrievers are safe for concurrent use.
package retrieve
