// Command reportchat ingests scanned medical reports and answers questions
// grounded in them.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/reportchat-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/reportchat-cli/internal/adapters/driven/blob/dropbox"
	"github.com/custodia-labs/reportchat-cli/internal/adapters/driven/blob/filesystem"
	configfile "github.com/custodia-labs/reportchat-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/reportchat-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/reportchat-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/reportchat-cli/internal/chunker"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportchat-cli/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("config store: %w", err)
	}

	prompts, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("prompt store: %w", err)
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()

	blobs, err := newBlobStore(cfg)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	aiServices, err := ai.NewServices(ai.Config{
		Provider:       cfg.GetString("ai.provider"),
		APIKey:         providerAPIKey(cfg),
		BaseURL:        cfg.GetString("ai.base_url"),
		ChatModel:      cfg.GetString("ai.model"),
		EmbeddingModel: cfg.GetString("ai.embedding_model"),
		OCRModel:       cfg.GetString("ai.ocr_model"),
		OCRAPIKey:      cfg.GetString("openai.api_key"),
		Prompts:        prompts,
	})
	if err != nil {
		return fmt.Errorf("ai services: %w (configure with 'reportchat config set-key <provider>')", err)
	}
	defer aiServices.Close()

	splitter, err := chunker.New(
		intOrDefault(cfg.GetInt("ingest.chunk_length"), chunker.DefaultMaxLength),
		intOrDefault(cfg.GetInt("ingest.chunk_overlap"), chunker.DefaultOverlap),
	)
	if err != nil {
		return fmt.Errorf("chunker: %w", err)
	}

	reports := store.ReportStore()
	conversations := store.ConversationStore()

	pipeline := services.NewIngestionPipeline(
		blobs,
		aiServices.OCR,
		aiServices.Classifier,
		aiServices.Embedding,
		reports,
		splitter,
	)
	pipeline.SetLLMService(aiServices.LLM)
	pipeline.SetPromptStore(prompts)
	if min := cfg.GetFloat("ingest.min_confidence"); min > 0 {
		pipeline.SetMinConfidence(min)
	}

	retrieval := services.NewRetrievalEngine(reports, aiServices.Embedding)

	chat := services.NewChatOrchestrator(retrieval, reports, aiServices.LLM, conversations, services.ChatConfig{
		TopK:         cfg.GetInt("chat.top_k"),
		MinRelevance: cfg.GetFloat("chat.min_relevance"),
		MaxTokens:    cfg.GetInt("chat.max_tokens"),
		Temperature:  cfg.GetFloat("chat.temperature"),
	})
	chat.SetPromptStore(prompts)

	reportManager := services.NewReportManager(reports, blobs)

	cli.SetServices(cli.Services{
		Ingest:    pipeline,
		Retrieval: retrieval,
		Chat:      chat,
		Report:    reportManager,
		Config:    cfg,
	})

	return cli.Execute()
}

// newBlobStore picks the image storage backend from configuration.
// Defaults to the local filesystem under ~/.reportchat/blobs.
func newBlobStore(cfg driven.ConfigStore) (driven.BlobStore, error) {
	switch cfg.GetString("blob.backend") {
	case "dropbox":
		return dropbox.NewBlobStore(dropbox.Config{
			Token: cfg.GetString("dropbox.api_key"),
			Root:  cfg.GetString("blob.dropbox_root"),
		})

	case "", "filesystem":
		dir := cfg.GetString("blob.dir")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(home, ".reportchat", "blobs")
		}
		return filesystem.NewBlobStore(dir)

	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.GetString("blob.backend"))
	}
}

// providerAPIKey resolves the API key for the configured provider,
// falling back to a generic ai.api_key entry.
func providerAPIKey(cfg driven.ConfigStore) string {
	if provider := cfg.GetString("ai.provider"); provider != "" {
		if key := cfg.GetString(provider + ".api_key"); key != "" {
			return key
		}
	}
	if key := cfg.GetString("ai.api_key"); key != "" {
		return key
	}
	return cfg.GetString("openai.api_key")
}

func intOrDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
