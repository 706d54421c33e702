package domain

import (
	"context"
	"time"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

type Service interface {
	RecordScan(ctx context.Context, req RecordScanRequest) (*RecordScanResponse, error)
	RecentScans(ctx context.Context, limit int) ([]ScanResponse, error)
	GlobalStats(ctx context.Context) (*GlobalStats, error)
	ShiftStats(ctx context.Context) (*ShiftStats, error)
}

type RecordScanRequest struct {
	Barcode1 string `json:"barcode1"`
	Barcode2 string `json:"barcode2"`
}

type RecordScanResponse struct {
	Result int    `json:"result"`
	Label  string `json:"label"`
}

type ScanResponse struct {
	ID        uint64    `json:"id"`
	Barcode1  string    `json:"barcode1"`
	Barcode2  string    `json:"barcode2"`
	Result    int       `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

type GlobalStats struct {
	Total  int64 `json:"total_scans"`
	Passed int64 `json:"total_passed"`
	Failed int64 `json:"total_failed"`
}

type ShiftCount struct {
	Shift Shift  `json:"-"`
	Name  string `json:"shift_name"`
	Count int64  `json:"scan_count"`
}

type ShiftStats struct {
	Shifts []ShiftCount `json:"shifts"`
}

// Total sums the three buckets.
func (s ShiftStats) Total() int64 {
	var total int64
	for _, shift := range s.Shifts {
		total += shift.Count
	}
	return total
}
