// Package domain defines the core business entities for reportchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Report: A scanned report moving through the ingestion pipeline
//   - Chunk: The unit of embedding and retrieval within a report
//   - ConversationTurn: One grounded exchange in a chat session
//   - RetrievedChunk: A chunk with its similarity score
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
