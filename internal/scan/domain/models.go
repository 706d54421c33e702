package domain

import "time"

// Scan is one recorded barcode comparison. Rows are append-only.
type Scan struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Barcode1  string    `json:"barcode1" gorm:"type:text;not null"`
	Barcode2  string    `json:"barcode2" gorm:"type:text;not null"`
	Result    int       `json:"result" gorm:"type:smallint;not null;check:chk_scans_result,result IN (0, 1)"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_scans_created_at"`
}

// TableName sets the database table name.
func (Scan) TableName() string { return "scans" }
