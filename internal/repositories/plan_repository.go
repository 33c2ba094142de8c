package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tabi/internal/models/db_models"
)

type PlanRepository interface {
	Create(ctx context.Context, plan *db_models.Plan) error
	FindByID(ctx context.Context, id string) (*db_models.Plan, error)
	ListByAccount(ctx context.Context, accountID string, page, pageSize int) ([]db_models.Plan, int64, error)
	Update(ctx context.Context, plan *db_models.Plan) error
	MarkStatus(ctx context.Context, id string, status db_models.PlanStatus, errMsg string) error
	// ResetStale moves plans left processing by a crashed process to failed.
	ResetStale(ctx context.Context) (int64, error)
}

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, plan *db_models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *planRepository) FindByID(ctx context.Context, id string) (*db_models.Plan, error) {
	var plan db_models.Plan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) ListByAccount(ctx context.Context, accountID string, page, pageSize int) ([]db_models.Plan, int64, error) {
	var (
		plans []db_models.Plan
		total int64
	)
	q := r.db.WithContext(ctx).Model(&db_models.Plan{}).Where("account_id = ?", accountID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Select("id", "title", "status", "created_at", "completed_at").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&plans).Error
	if err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

func (r *planRepository) Update(ctx context.Context, plan *db_models.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *planRepository) MarkStatus(ctx context.Context, id string, status db_models.PlanStatus, errMsg string) error {
	return r.db.WithContext(ctx).Model(&db_models.Plan{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "error": errMsg}).Error
}

func (r *planRepository) ResetStale(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db_models.Plan{}).
		Where("status IN ?", []db_models.PlanStatus{db_models.PlanPending, db_models.PlanProcessing}).
		Updates(map[string]any{"status": db_models.PlanFailed, "error": "interrupted by a restart"})
	return res.RowsAffected, res.Error
}
