package repositories

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"tabi/internal/models/db_models"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *db_models.Document) error
	FindByID(ctx context.Context, id string) (*db_models.Document, error)
	List(ctx context.Context, page, pageSize int) ([]db_models.Document, int64, error)
	MarkReady(ctx context.Context, id string, chunkCount int) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	// ReplaceChunks deletes any previous chunks of the document and inserts chunks in one transaction.
	ReplaceChunks(ctx context.Context, documentID string, chunks []db_models.Chunk) error
	NearestChunks(ctx context.Context, embedding pgvector.Vector, limit int) ([]ChunkDistance, error)
	// ResetStale fails documents whose ingestion was cut off by a restart.
	ResetStale(ctx context.Context) (int64, error)
}

type ChunkDistance struct {
	db_models.Chunk
	Distance float64
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *db_models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id string) (*db_models.Document, error) {
	var doc db_models.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, page, pageSize int) ([]db_models.Document, int64, error) {
	var (
		docs  []db_models.Document
		total int64
	)
	q := r.db.WithContext(ctx).Model(&db_models.Document{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&docs).Error
	return docs, total, err
}

func (r *documentRepository) MarkReady(ctx context.Context, id string, chunkCount int) error {
	return r.db.WithContext(ctx).Model(&db_models.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": db_models.DocumentReady, "chunk_count": chunkCount, "error": ""}).Error
}

func (r *documentRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&db_models.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": db_models.DocumentFailed, "error": errMsg}).Error
}

func (r *documentRepository) ResetStale(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db_models.Document{}).
		Where("status = ?", db_models.DocumentPending).
		Updates(map[string]any{"status": db_models.DocumentFailed, "error": "interrupted by a restart"})
	return res.RowsAffected, res.Error
}

func (r *documentRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []db_models.Chunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&db_models.Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, 100).Error
	})
}

// NearestChunks orders chunks of ready documents by cosine distance to embedding.
func (r *documentRepository) NearestChunks(ctx context.Context, embedding pgvector.Vector, limit int) ([]ChunkDistance, error) {
	var results []ChunkDistance

	query := `
        SELECT c.id, c.document_id, c.position, c.content, c.created_at,
               c.embedding <=> ? AS distance
        FROM chunks c
        JOIN documents d ON d.id = c.document_id
        WHERE d.status = ? AND d.deleted_at IS NULL
        ORDER BY c.embedding <=> ?
        LIMIT ?
    `

	err := r.db.WithContext(ctx).
		Raw(query, embedding, db_models.DocumentReady, embedding, limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
