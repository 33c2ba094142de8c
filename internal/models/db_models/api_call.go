package db_models

import "time"

// ApiCall is one outbound request to a paid or rate limited API.
type ApiCall struct {
	ID         uint   `gorm:"primaryKey"`
	Service    string `gorm:"size:32;index:idx_api_calls_service_created"`
	Endpoint   string `gorm:"size:64"`
	Status     int
	DurationMs int64
	CostUSD    float64
	CreatedAt  time.Time `gorm:"index:idx_api_calls_service_created"`
}
