package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tabi/internal/models/db_models"
)

type UsageAggregate struct {
	Service  string
	Endpoint string
	Calls    int64
	Errors   int64
	AvgMs    float64
	CostUSD  float64
}

type UsageRepository interface {
	Insert(ctx context.Context, call *db_models.ApiCall) error
	Summary(ctx context.Context, since time.Time) ([]UsageAggregate, error)
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Insert(ctx context.Context, call *db_models.ApiCall) error {
	return r.db.WithContext(ctx).Create(call).Error
}

func (r *usageRepository) Summary(ctx context.Context, since time.Time) ([]UsageAggregate, error) {
	var rows []UsageAggregate
	err := r.db.WithContext(ctx).Model(&db_models.ApiCall{}).
		Select(`service, endpoint,
			count(*) AS calls,
			count(*) FILTER (WHERE status >= 400 OR status = 0) AS errors,
			avg(duration_ms) AS avg_ms,
			coalesce(sum(cost_usd), 0) AS cost_usd`).
		Where("created_at >= ?", since).
		Group("service, endpoint").
		Order("service, endpoint").
		Scan(&rows).Error
	return rows, err
}
