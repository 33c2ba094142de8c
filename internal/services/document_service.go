package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"

	"tabi/internal/models/db_models"
	"tabi/internal/models/request_models"
	"tabi/internal/models/response_models"
	"tabi/internal/repositories"
	"tabi/pkg/llm"
	"tabi/pkg/utils"
)

const (
	MaxDocumentBytes = 20 << 20
	ChunkSize        = 512
	ChunkOverlap     = 128
	CityInfoResults  = 5

	maxDocumentNameRunes = 64
	embedBatchSize       = 32
	jobIngest            = "ingest"
)

type DocumentServiceInterface interface {
	// Upload stores the document and ingests it in the background.
	Upload(ctx context.Context, accountID string, form request_models.UploadDocumentForm, fileName string, body io.Reader) (*response_models.DocumentResponse, error)
	// IngestSync stores and ingests a document before returning.
	IngestSync(ctx context.Context, name, fileName string, tags []string, body io.Reader) (*response_models.DocumentResponse, error)
	List(ctx context.Context, page, pageSize int) (*response_models.Page[response_models.DocumentResponse], error)
	Get(ctx context.Context, id string) (*response_models.DocumentResponse, error)
	Search(ctx context.Context, query string, limit int) ([]response_models.ChunkMatch, error)
	// CityInformation formats the closest chunks as a bullet list for the agents.
	CityInformation(ctx context.Context, query string) (string, error)
}

type DocumentService struct {
	docRepo  repositories.DocumentRepository
	embedder llm.Embedder
	jobs     JobSubmitter
}

func NewDocumentService(docRepo repositories.DocumentRepository, embedder llm.Embedder, jobs JobSubmitter) DocumentServiceInterface {
	return &DocumentService{docRepo: docRepo, embedder: embedder, jobs: jobs}
}

type upload struct {
	doc  *db_models.Document
	data []byte
	pdf  bool
}

func (s *DocumentService) prepare(ctx context.Context, owner *uuid.UUID, name, fileName string, tags []string, body io.Reader) (*upload, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxDocumentNameRunes {
		return nil, fmt.Errorf("%w: name must be 1 to %d characters", utils.ErrInvalidInput, maxDocumentNameRunes)
	}
	data, err := io.ReadAll(io.LimitReader(body, MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read document: %v", utils.ErrInvalidInput, err)
	}
	if len(data) > MaxDocumentBytes {
		return nil, utils.ErrDocumentTooLarge
	}
	isPDF, err := detectKind(fileName, data)
	if err != nil {
		return nil, err
	}

	doc := &db_models.Document{
		AccountID: owner,
		Name:      name,
		FileName:  filepath.Base(fileName),
		Status:    db_models.DocumentPending,
		Tags:      cleanTags(tags),
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, utils.ErrDatabaseError
	}
	return &upload{doc: doc, data: data, pdf: isPDF}, nil
}

func (s *DocumentService) Upload(ctx context.Context, accountID string, form request_models.UploadDocumentForm, fileName string, body io.Reader) (*response_models.DocumentResponse, error) {
	var owner *uuid.UUID
	if id, err := uuid.Parse(accountID); err == nil {
		owner = &id
	}
	up, err := s.prepare(ctx, owner, form.Name, fileName, form.Tags, body)
	if err != nil {
		return nil, err
	}
	id := up.doc.ID.String()
	abort := func(ctx context.Context, err error) {
		if mErr := s.docRepo.MarkFailed(ctx, id, truncateRunes(err.Error(), 500)); mErr != nil {
			log.Error().Err(mErr).Str("document_id", id).Msg("could not mark aborted document failed")
		}
	}
	if err := s.jobs.Submit(jobIngest, func(ctx context.Context) error { return s.ingest(ctx, up) }, abort); err != nil {
		_ = s.docRepo.MarkFailed(context.WithoutCancel(ctx), id, err.Error())
		return nil, err
	}
	log.Info().Str("document_id", id).Str("name", up.doc.Name).Int("bytes", len(up.data)).Msg("document queued")
	return toDocumentResponse(up.doc), nil
}

func (s *DocumentService) IngestSync(ctx context.Context, name, fileName string, tags []string, body io.Reader) (*response_models.DocumentResponse, error) {
	up, err := s.prepare(ctx, nil, name, fileName, tags, body)
	if err != nil {
		return nil, err
	}
	if err := s.ingest(ctx, up); err != nil {
		return nil, err
	}
	return s.Get(ctx, up.doc.ID.String())
}

// ingest extracts text, chunks it, embeds the chunks and stores them.
// The document ends up ready or failed.
func (s *DocumentService) ingest(ctx context.Context, up *upload) error {
	id := up.doc.ID.String()
	logger := log.With().Str("document_id", id).Logger()

	fail := func(err error) error {
		logger.Error().Err(err).Msg("document ingestion failed")
		if mErr := s.docRepo.MarkFailed(context.WithoutCancel(ctx), id, truncateRunes(err.Error(), 500)); mErr != nil {
			logger.Error().Err(mErr).Msg("could not mark document failed")
		}
		return err
	}

	text := string(up.data)
	if up.pdf {
		var err error
		if text, err = PDFText(up.data); err != nil {
			return fail(err)
		}
	}
	pieces := ChunkText(text, ChunkSize, ChunkOverlap)
	if len(pieces) == 0 {
		return fail(fmt.Errorf("%w: document has no text", utils.ErrInvalidInput))
	}

	chunks := make([]db_models.Chunk, 0, len(pieces))
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := min(start+embedBatchSize, len(pieces))
		vectors, err := s.embedder.Embed(ctx, pieces[start:end])
		if err != nil {
			return fail(fmt.Errorf("embed chunks %d-%d: %w", start, end, err))
		}
		if len(vectors) != end-start {
			return fail(fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), end-start))
		}
		for i, v := range vectors {
			chunks = append(chunks, db_models.Chunk{
				DocumentID: up.doc.ID,
				Position:   start + i,
				Content:    pieces[start+i],
				Embedding:  pgvector.NewVector(v),
			})
		}
	}

	if err := s.docRepo.ReplaceChunks(ctx, id, chunks); err != nil {
		return fail(fmt.Errorf("store chunks: %w", err))
	}
	if err := s.docRepo.MarkReady(ctx, id, len(chunks)); err != nil {
		return fail(fmt.Errorf("mark ready: %w", err))
	}
	up.doc.Status = db_models.DocumentReady
	up.doc.ChunkCount = len(chunks)
	logger.Info().Int("chunks", len(chunks)).Msg("document ready")
	return nil
}

func (s *DocumentService) List(ctx context.Context, page, pageSize int) (*response_models.Page[response_models.DocumentResponse], error) {
	docs, total, err := s.docRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	items := make([]response_models.DocumentResponse, 0, len(docs))
	for i := range docs {
		items = append(items, *toDocumentResponse(&docs[i]))
	}
	return &response_models.Page[response_models.DocumentResponse]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*response_models.DocumentResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrDocumentNotFound
	}
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if doc == nil {
		return nil, utils.ErrDocumentNotFound
	}
	return toDocumentResponse(doc), nil
}

func (s *DocumentService) Search(ctx context.Context, query string, limit int) ([]response_models.ChunkMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", utils.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = CityInfoResults
	}
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}
	rows, err := s.docRepo.NearestChunks(ctx, pgvector.NewVector(vectors[0]), limit)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	matches := make([]response_models.ChunkMatch, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, response_models.ChunkMatch{
			DocumentID: r.DocumentID.String(),
			Position:   r.Position,
			Content:    r.Content,
			Distance:   r.Distance,
		})
	}
	return matches, nil
}

func (s *DocumentService) CityInformation(ctx context.Context, query string) (string, error) {
	matches, err := s.Search(ctx, query, CityInfoResults)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "No information found.", nil
	}
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Content
	}
	return "- " + strings.Join(parts, "\n\n- "), nil
}

// ChunkText splits content into windows of size runes, each starting
// size-overlap runes after the previous one. Blank windows are dropped.
func ChunkText(content string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	stride := size - overlap
	if stride <= 0 {
		stride = size
	}
	runes := []rune(content)
	var out []string
	for cursor := 0; ; cursor += stride {
		end := cursor + size
		last := end > len(runes)
		if last {
			end = len(runes)
		}
		if piece := string(runes[cursor:end]); strings.TrimSpace(piece) != "" {
			out = append(out, piece)
		}
		if last {
			return out
		}
	}
}

// PDFText returns the plain text of every page joined with CRLF.
func PDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrUnsupportedDocument, err)
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\r\n"), nil
}

// detectKind accepts PDFs and UTF-8 text files.
func detectKind(fileName string, data []byte) (isPDF bool, err error) {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return true, nil
	}
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return false, fmt.Errorf("%w: file is not a valid PDF", utils.ErrUnsupportedDocument)
	}
	if len(data) == 0 {
		return false, fmt.Errorf("%w: document is empty", utils.ErrInvalidInput)
	}
	if !strings.HasPrefix(http.DetectContentType(data), "text/") || !utf8.Valid(data) {
		return false, fmt.Errorf("%w: upload a PDF or a UTF-8 text file", utils.ErrUnsupportedDocument)
	}
	return false, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, raw := range tags {
		for _, t := range strings.Split(raw, ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

func toDocumentResponse(d *db_models.Document) *response_models.DocumentResponse {
	tags := []string(d.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &response_models.DocumentResponse{
		ID:         d.ID.String(),
		Name:       d.Name,
		FileName:   d.FileName,
		Status:     string(d.Status),
		Error:      d.Error,
		ChunkCount: d.ChunkCount,
		Tags:       tags,
		CreatedAt:  d.CreatedAt,
	}
}
