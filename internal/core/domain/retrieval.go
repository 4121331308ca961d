package domain

// RetrievalOptions configures a retrieval query.
type RetrievalOptions struct {
	// TopK is the maximum number of chunks to return. Must be >= 1.
	TopK int

	// Filter optionally narrows the candidate chunks by classification
	// label or report ID.
	Filter ReportFilter

	// MinScore drops results below this cosine similarity. The zero value
	// still excludes chunks pointing away from the query (negative
	// similarity).
	MinScore float64
}

// RetrievedChunk is a chunk paired with its similarity score for a query.
// Scores are cosine similarities in [-1, 1].
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
}
