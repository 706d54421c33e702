package repository

import (
	"context"
	"time"

	scandomain "github.com/smallbiznis/scanverify/internal/scan/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() scandomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, scan *scandomain.Scan) error {
	return db.WithContext(ctx).Create(scan).Error
}

func (r *repo) ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]scandomain.Scan, error) {
	var items []scandomain.Scan
	err := db.WithContext(ctx).
		Model(&scandomain.Scan{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter scandomain.CountFilter) (int64, error) {
	stmt := db.WithContext(ctx).Model(&scandomain.Scan{})
	if filter.Result != nil {
		stmt = stmt.Where("result = ?", *filter.Result)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) ListCreatedAtBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := db.WithContext(ctx).
		Model(&scandomain.Scan{}).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}
	return stamps, nil
}
