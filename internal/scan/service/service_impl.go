package service

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/scanverify/internal/clock"
	"github.com/smallbiznis/scanverify/internal/config"
	obsmetrics "github.com/smallbiznis/scanverify/internal/observability/metrics"
	scandomain "github.com/smallbiznis/scanverify/internal/scan/domain"
	"github.com/smallbiznis/scanverify/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	clock        clock.Clock
	repo         scandomain.Repository
	stats        *config.StatsConfigHolder
	metrics      *obsmetrics.Metrics
	queryTimeout time.Duration
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  scandomain.Repository

	Stats   *config.StatsConfigHolder `optional:"true"`
	DBCfg   db.Config                 `optional:"true"`
	Metrics *obsmetrics.Metrics       `optional:"true"`
}

func NewService(p ServiceParam) scandomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("scan.service"),

		clock:        p.Clock,
		repo:         p.Repo,
		stats:        p.Stats,
		metrics:      p.Metrics,
		queryTimeout: p.DBCfg.QueryTimeout,
	}
}

func (s *Service) RecordScan(ctx context.Context, req scandomain.RecordScanRequest) (*scandomain.RecordScanResponse, error) {
	if req.Barcode1 == "" {
		return nil, scandomain.ErrInvalidBarcode1
	}
	if req.Barcode2 == "" {
		return nil, scandomain.ErrInvalidBarcode2
	}

	scan := scandomain.Scan{
		Barcode1: req.Barcode1,
		Barcode2: req.Barcode2,
		Result:   scandomain.Compare(req.Barcode1, req.Barcode2),
	}

	ctx, cancel := db.WithQueryTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scan.CreatedAt = s.clock.Now().UTC()
		return s.repo.Insert(ctx, tx, &scan)
	}); err != nil {
		return nil, s.storageError(ctx, "record_scan", err)
	}

	label := scandomain.ResultLabel(scan.Result)
	s.metrics.RecordScan(ctx, metricResult(scan.Result))
	s.log.Debug("scan recorded",
		zap.Uint64("scan_id", scan.ID),
		zap.String("result", label),
	)

	return &scandomain.RecordScanResponse{
		Result: scan.Result,
		Label:  label,
	}, nil
}

func (s *Service) RecentScans(ctx context.Context, limit int) ([]scandomain.ScanResponse, error) {
	limit = s.normalizeLimit(limit)

	ctx, cancel := db.WithQueryTimeout(ctx, s.queryTimeout)
	defer cancel()

	items, err := s.repo.ListRecent(ctx, s.db, limit)
	if err != nil {
		return nil, s.storageError(ctx, "recent_scans", err)
	}

	resp := make([]scandomain.ScanResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toScanResponse(item))
	}
	return resp, nil
}

func (s *Service) GlobalStats(ctx context.Context) (*scandomain.GlobalStats, error) {
	ctx, cancel := db.WithQueryTimeout(ctx, s.queryTimeout)
	defer cancel()

	var stats scandomain.GlobalStats
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total, err := s.repo.Count(ctx, tx, scandomain.CountFilter{})
		if err != nil {
			return err
		}

		match := scandomain.ResultMatch
		passed, err := s.repo.Count(ctx, tx, scandomain.CountFilter{Result: &match})
		if err != nil {
			return err
		}

		stats.Total = total
		stats.Passed = passed
		stats.Failed = total - passed
		return nil
	}); err != nil {
		return nil, s.storageError(ctx, "global_stats", err)
	}

	return &stats, nil
}

func (s *Service) ShiftStats(ctx context.Context) (*scandomain.ShiftStats, error) {
	offset := s.stats.Get().LocalOffset()
	now := s.clock.Now().UTC()
	from, to := scandomain.LocalDayWindow(now, offset)

	ctx, cancel := db.WithQueryTimeout(ctx, s.queryTimeout)
	defer cancel()

	stamps, err := s.repo.ListCreatedAtBetween(ctx, s.db, from, to)
	if err != nil {
		return nil, s.storageError(ctx, "shift_stats", err)
	}

	stats := scandomain.BucketShifts(now, stamps, offset)
	return &stats, nil
}

func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		limit = s.stats.Get().RecentLimit
	}
	if limit <= 0 {
		limit = scandomain.DefaultRecentLimit
	}
	if limit > scandomain.MaxRecentLimit {
		limit = scandomain.MaxRecentLimit
	}
	return limit
}

func (s *Service) storageError(ctx context.Context, op string, err error) error {
	timeout := db.IsTimeoutErr(err) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	unavailable := !timeout && db.IsUnavailableErr(err)
	s.log.Warn("storage operation failed",
		zap.String("op", op),
		zap.Bool("timeout", timeout),
		zap.Bool("unavailable", unavailable),
		zap.Error(err),
	)
	storageErr := scandomain.NewStorageError(op, err, timeout)
	storageErr.Unavailable = unavailable
	return storageErr
}

func metricResult(result int) string {
	if result == scandomain.ResultMatch {
		return "match"
	}
	return "no_match"
}

func toScanResponse(scan scandomain.Scan) scandomain.ScanResponse {
	return scandomain.ScanResponse{
		ID:        scan.ID,
		Barcode1:  scan.Barcode1,
		Barcode2:  scan.Barcode2,
		Result:    scan.Result,
		CreatedAt: scan.CreatedAt.UTC(),
	}
}
