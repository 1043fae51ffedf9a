package models

// Document is a single source ready for ingestion: raw text plus provenance.
type Document struct {
	SourceID string
	URL      string
	Text     string
}

// Chunk is a bounded segment of a document, the unit of embedding and retrieval.
type Chunk struct {
	Text        string
	Index       int
	TotalChunks int
	SourceID    string
	URL         string
	DerivedID   string
}

// Metadata is stored alongside every vector so a match is self-describing
// even when retrieved without its sibling chunks.
type Metadata struct {
	SourceID    string `json:"source_id"`
	URL         string `json:"url,omitempty"`
	Text        string `json:"text"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// Record is what the vector index stores. Re-upserting the same ID
// overwrites the prior vector and metadata.
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Match is a single similarity-search hit.
type Match struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// RetrievalResult is the read-path output handed to the answer generator.
type RetrievalResult struct {
	Matches        []Match
	TopScore       float32
	BelowThreshold bool
	IsAggregation  bool
	Entities       []string
}
