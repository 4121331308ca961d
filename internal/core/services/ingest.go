package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/reportchat-cli/internal/chunker"
	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportchat-cli/internal/logger"
	"github.com/custodia-labs/reportchat-cli/internal/retry"
)

// Ensure IngestionPipeline implements the interface.
var _ driving.IngestService = (*IngestionPipeline)(nil)

// DefaultMinOCRConfidence is the confidence below which extracted text is
// treated as garbled.
const DefaultMinOCRConfidence = 0.5

// DefaultStageTimeout bounds each external adapter call so a hung service
// surfaces as the stage's failure instead of stalling the pipeline.
const DefaultStageTimeout = 2 * time.Minute

// defaultSuggestTitlePrompt asks the LLM for a descriptive filename stem.
const defaultSuggestTitlePrompt = `Current filename: %s
Report text (excerpt):
%s

Task: Suggest a clear, short, descriptive filename (without extension).
Use Title_Case with underscores instead of spaces.
Respond with only the filename stem, no extension.`

// IngestionPipeline orchestrates the stages that turn a raw report image
// into searchable, classified, embedded content:
//
//	store image → OCR → classify → chunk → embed → persist
//
// Stages run in strict order per report; independent reports may be
// ingested concurrently. At most one ingestion per report ID is in flight
// at a time.
type IngestionPipeline struct {
	blobs      driven.BlobStore
	ocr        driven.OCRService
	classifier driven.ClassifierService
	embedder   driven.EmbeddingService
	reports    driven.ReportStore
	splitter   *chunker.Splitter

	llm     driven.LLMService // optional: title suggestion
	prompts driven.PromptStore

	retry         retry.Policy
	minConfidence float64
	stageTimeout  time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewIngestionPipeline creates the pipeline with its required collaborators.
func NewIngestionPipeline(
	blobs driven.BlobStore,
	ocr driven.OCRService,
	classifier driven.ClassifierService,
	embedder driven.EmbeddingService,
	reports driven.ReportStore,
	splitter *chunker.Splitter,
) *IngestionPipeline {
	return &IngestionPipeline{
		blobs:         blobs,
		ocr:           ocr,
		classifier:    classifier,
		embedder:      embedder,
		reports:       reports,
		splitter:      splitter,
		retry:         retry.Default(),
		minConfidence: DefaultMinOCRConfidence,
		stageTimeout:  DefaultStageTimeout,
		inflight:      make(map[string]struct{}),
	}
}

// SetLLMService enables LLM-assisted title suggestion. Optional; the
// pipeline works without it.
func (p *IngestionPipeline) SetLLMService(llm driven.LLMService) {
	p.llm = llm
}

// SetPromptStore sets the prompt store for customisable prompts.
func (p *IngestionPipeline) SetPromptStore(store driven.PromptStore) {
	p.prompts = store
}

// SetRetryPolicy overrides the adapter retry policy.
func (p *IngestionPipeline) SetRetryPolicy(policy retry.Policy) {
	p.retry = policy
}

// SetMinConfidence overrides the OCR confidence threshold.
func (p *IngestionPipeline) SetMinConfidence(min float64) {
	p.minConfidence = min
}

// SetStageTimeout overrides the per-stage adapter timeout.
func (p *IngestionPipeline) SetStageTimeout(d time.Duration) {
	p.stageTimeout = d
}

// Ingest runs the full pipeline for a new report image. The returned report
// always reflects the terminal status reached; when a stage fails, the
// report records the failure and the stage error is returned alongside it.
func (p *IngestionPipeline) Ingest(ctx context.Context, image []byte, meta domain.UploadMetadata) (*domain.Report, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}

	filename := meta.Filename
	if filename == "" {
		filename = "report"
	}
	mimeType := meta.MimeType
	if mimeType == "" {
		mimeType = inferMimeType(filename)
	}

	reportID := uuid.New().String()
	if err := p.begin(reportID); err != nil {
		return nil, err
	}
	defer p.end(reportID)

	logger.Section("Ingest")
	logger.Info("Report %s: %s (%s, %d bytes)", reportID, filename, mimeType, len(image))

	now := time.Now().UTC()
	report := &domain.Report{
		ID:        reportID,
		BlobKey:   domain.BlobKey(reportID, filename),
		Filename:  filename,
		MimeType:  mimeType,
		SizeBytes: int64(len(image)),
		Status:    domain.StatusIngesting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.reports.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create report record: %w", err)
	}

	return p.run(ctx, report, image)
}

// Resume restarts a failed ingestion at the first incomplete stage, reusing
// cached stage outputs. OCR and classification never run twice for the same
// input.
func (p *IngestionPipeline) Resume(ctx context.Context, reportID string) (*domain.Report, error) {
	report, err := p.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if !report.Status.Failed() {
		return report, fmt.Errorf("%w: report %s is %s, nothing to resume", domain.ErrInvalidInput, reportID, report.Status)
	}

	if err := p.begin(reportID); err != nil {
		return report, err
	}
	defer p.end(reportID)

	logger.Section("Resume")
	logger.Info("Report %s: resuming from %s", reportID, report.Status)

	switch report.Status {
	case domain.StatusFailedOCR:
		// The image is already durably stored; re-enter at OCR so the
		// blob stage never repeats.
		image, err := p.blobs.Get(ctx, report.BlobKey)
		if err != nil {
			return report, fmt.Errorf("fetch source image: %w", err)
		}
		report.FailureReason = ""
		return p.runFromOCR(ctx, report, image)

	case domain.StatusFailedClassification:
		report.FailureReason = ""
		if err := p.stageClassify(ctx, report); err != nil {
			return report, err
		}
		if err := p.stageEmbedAndPersist(ctx, report); err != nil {
			return report, err
		}
		return report, nil

	case domain.StatusFailedEmbedding, domain.StatusFailedPersistence:
		if report.Text == "" {
			// The blob write itself failed, so the source image was
			// never stored and the pipeline has nothing to resume from.
			return report, fmt.Errorf("%w: report %s has no stored image or text, re-ingest it", domain.ErrInvalidInput, reportID)
		}
		report.FailureReason = ""
		if err := p.stageEmbedAndPersist(ctx, report); err != nil {
			return report, err
		}
		return report, nil
	}

	return report, fmt.Errorf("%w: unexpected status %s", domain.ErrConsistency, report.Status)
}

// run executes the pipeline from the blob stage onward.
func (p *IngestionPipeline) run(ctx context.Context, report *domain.Report, image []byte) (*domain.Report, error) {
	if err := p.stageStoreImage(ctx, report, image); err != nil {
		return report, err
	}
	return p.runFromOCR(ctx, report, image)
}

// runFromOCR executes the pipeline from the OCR stage onward, for runs whose
// source image is already stored.
func (p *IngestionPipeline) runFromOCR(ctx context.Context, report *domain.Report, image []byte) (*domain.Report, error) {
	if err := p.stageOCR(ctx, report, image); err != nil {
		return report, err
	}
	p.suggestTitle(ctx, report)
	if err := p.stageClassify(ctx, report); err != nil {
		return report, err
	}
	if err := p.stageEmbedAndPersist(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

// stageStoreImage persists the raw image to the blob store.
func (p *IngestionPipeline) stageStoreImage(ctx context.Context, report *domain.Report, image []byte) error {
	err := p.retry.Do(ctx, "blob put", func(ctx context.Context) error {
		ctx, cancel := p.stageContext(ctx)
		defer cancel()
		if err := p.blobs.Put(ctx, report.BlobKey, image, report.MimeType); err != nil {
			return domain.NewAdapterError("blob", domain.ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return p.fail(ctx, report, domain.StatusFailedPersistence, err)
	}
	logger.Debug("Stored image at %s", report.BlobKey)
	return nil
}

// stageOCR extracts text from the image and caches it on the record.
func (p *IngestionPipeline) stageOCR(ctx context.Context, report *domain.Report, image []byte) error {
	var text string
	var confidence float64

	err := p.retry.Do(ctx, "ocr extract", func(ctx context.Context) error {
		ctx, cancel := p.stageContext(ctx)
		defer cancel()
		var err error
		text, confidence, err = p.ocr.Extract(ctx, image, report.MimeType)
		if err != nil {
			return domain.NewAdapterError("ocr", domain.ErrExtraction, err)
		}
		return nil
	})
	if err != nil {
		return p.fail(ctx, report, domain.StatusFailedOCR, err)
	}

	text = normaliseText(text)
	if text == "" || confidence < p.minConfidence {
		err := domain.NewAdapterError("ocr", domain.ErrExtraction,
			fmt.Errorf("empty or low-confidence text (confidence %.2f)", confidence))
		return p.fail(ctx, report, domain.StatusFailedOCR, err)
	}

	report.Text = text
	report.OCRConfidence = confidence
	logger.Debug("Extracted %d chars (confidence %.2f)", len(text), confidence)
	return p.advance(ctx, report, domain.StatusOCRDone)
}

// stageClassify assigns a taxonomy label to the cached text.
func (p *IngestionPipeline) stageClassify(ctx context.Context, report *domain.Report) error {
	var label string

	err := p.retry.Do(ctx, "classify", func(ctx context.Context) error {
		ctx, cancel := p.stageContext(ctx)
		defer cancel()
		var err error
		label, err = p.classifier.Classify(ctx, report.Text)
		if err != nil {
			return domain.NewAdapterError("classifier", domain.ErrClassification, err)
		}
		if !domain.ValidLabel(label) {
			return domain.NewAdapterError("classifier", domain.ErrClassification,
				fmt.Errorf("label %q outside taxonomy", label))
		}
		return nil
	})
	if err != nil {
		return p.fail(ctx, report, domain.StatusFailedClassification, err)
	}

	report.Classification = label
	logger.Debug("Classified as %s", label)
	return p.advance(ctx, report, domain.StatusClassified)
}

// stageEmbedAndPersist chunks the cached text, embeds every chunk and
// persists the chunk set. Chunking and embedding are deterministic given the
// same text, so retries regenerate an identical chunk set and the final
// upsert by (report ID, chunk index) keeps persistence idempotent.
func (p *IngestionPipeline) stageEmbedAndPersist(ctx context.Context, report *domain.Report) error {
	chunks := p.splitter.Split(report.ID, report.Text)
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	logger.Debug("Split into %d chunks", len(chunks))

	var vectors [][]float32
	err := p.retry.Do(ctx, "embed chunks", func(ctx context.Context) error {
		ctx, cancel := p.stageContext(ctx)
		defer cancel()
		var err error
		vectors, err = p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return domain.NewAdapterError("embedding", domain.ErrEmbedding, err)
		}
		if len(vectors) != len(chunks) {
			return domain.NewAdapterError("embedding", domain.ErrEmbedding,
				fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
		}
		return nil
	})
	if err != nil {
		return p.fail(ctx, report, domain.StatusFailedEmbedding, err)
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	if err := p.advance(ctx, report, domain.StatusEmbedded); err != nil {
		return err
	}

	if err := p.reports.UpsertChunks(ctx, chunks); err != nil {
		return p.fail(ctx, report, domain.StatusFailedPersistence, err)
	}
	logger.Info("Report %s persisted with %d chunks", report.ID, len(chunks))
	return p.advance(ctx, report, domain.StatusPersisted)
}

// suggestTitle asks the LLM for a descriptive filename. Best effort: any
// failure keeps the original name and never fails the pipeline.
func (p *IngestionPipeline) suggestTitle(ctx context.Context, report *domain.Report) {
	if p.llm == nil {
		return
	}

	prompt := defaultSuggestTitlePrompt
	if p.prompts != nil {
		if custom, err := p.prompts.Load(driven.PromptSuggestTitle); err == nil && custom != "" {
			if titleTemplateOK(custom) {
				prompt = custom
			} else {
				logger.Warn("Ignoring %s prompt override: template needs exactly two %%s placeholders", driven.PromptSuggestTitle)
			}
		}
	}

	ext := filepath.Ext(report.Filename)
	stem := strings.TrimSuffix(report.Filename, ext)
	excerpt := truncateRunes(report.Text, 2000)

	ctx, cancel := p.stageContext(ctx)
	defer cancel()
	suggestion, err := p.llm.Generate(ctx, fmt.Sprintf(prompt, stem, excerpt), driven.GenerateOptions{MaxTokens: 20})
	if err != nil {
		logger.Warn("Title suggestion failed: %v", err)
		return
	}
	suggestion = sanitiseFilename(suggestion)
	if suggestion == "" {
		return
	}
	report.Filename = suggestion + ext
	logger.Debug("Suggested filename %s", report.Filename)
}

// fail records a terminal stage failure on the report and returns the stage
// error. The failure is never thrown away: clients and operators inspect and
// retry via the record.
func (p *IngestionPipeline) fail(ctx context.Context, report *domain.Report, status domain.ReportStatus, stageErr error) error {
	report.Status = status
	report.FailureReason = stageErr.Error()
	report.UpdatedAt = time.Now().UTC()
	if err := p.reports.SaveReport(ctx, report); err != nil {
		logger.Error("Recording %s for report %s failed: %v", status, report.ID, err)
	}
	logger.Warn("Report %s: %s: %v", report.ID, status, stageErr)
	return fmt.Errorf("ingest report %s: %w", report.ID, stageErr)
}

// advance moves the report to the next status and persists the record, so
// completed stage outputs survive later failures.
func (p *IngestionPipeline) advance(ctx context.Context, report *domain.Report, status domain.ReportStatus) error {
	report.Status = status
	report.UpdatedAt = time.Now().UTC()
	if err := p.reports.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("save report at %s: %w", status, err)
	}
	return nil
}

// begin claims the in-flight slot for a report ID. A second ingestion for an
// ID already in flight is rejected rather than run concurrently.
func (p *IngestionPipeline) begin(reportID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.inflight[reportID]; ok {
		return fmt.Errorf("%w: report %s", domain.ErrIngestInProgress, reportID)
	}
	p.inflight[reportID] = struct{}{}
	return nil
}

func (p *IngestionPipeline) end(reportID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, reportID)
}

func (p *IngestionPipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.stageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.stageTimeout)
}

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// normaliseText collapses runs of spaces and trims each line, preserving
// paragraph breaks so the chunker can prefer them as boundaries.
func normaliseText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceRe.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// titleTemplateOK reports whether a title prompt template carries exactly
// the two %s placeholders (filename stem, text excerpt) the pipeline fills
// in. Anything else would leave Sprintf artifacts in the prompt.
func titleTemplateOK(tmpl string) bool {
	return strings.Count(tmpl, "%s") == 2 && strings.Count(tmpl, "%") == 2
}

// truncateRunes shortens s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var filenameRe = regexp.MustCompile(`[^A-Za-z0-9_\-]`)

// sanitiseFilename reduces an LLM suggestion to a safe filename stem.
func sanitiseFilename(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = filenameRe.ReplaceAllString(s, "")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

// inferMimeType guesses a content type from the file extension, defaulting
// to octet-stream for unknown extensions.
func inferMimeType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
