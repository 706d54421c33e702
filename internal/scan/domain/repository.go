package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock/repository_mock.go -package=mock

// CountFilter narrows Count. A nil Result counts every row.
type CountFilter struct {
	Result *int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, scan *Scan) error
	ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]Scan, error)
	Count(ctx context.Context, db *gorm.DB, filter CountFilter) (int64, error)
	ListCreatedAtBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]time.Time, error)
}
