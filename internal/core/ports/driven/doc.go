// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - BlobStore: Raw report image persistence
//   - OCRService: Text extraction from images
//   - ClassifierService: Taxonomy labelling of extracted text
//   - EmbeddingService: Vector embeddings for chunks and queries
//   - ReportStore: Report, chunk and status persistence
//   - ConversationStore: Append-only chat turn log
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generation. Without it, chat is disabled and title
//     suggestion is skipped; ingestion and retrieval still work.
//   - PromptStore: Prompt template overrides. Without it, embedded
//     defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
