package model

import "time"

// ScanEvent records a single QR scan that went through the resolver.
type ScanEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	RouteID   string    `json:"route_id" gorm:"size:120;index"`
	Found     bool      `json:"found" gorm:"not null"`
	Enabled   bool      `json:"enabled" gorm:"not null"`
	Target    string    `json:"target" gorm:"type:text"`
	IP        string    `json:"ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

const (
	ScanStreamName     = "QR_SCANS"
	ScanStreamSubject  = "qr.scans"
	ScanConsumerName   = "scan-logger"
	ScanStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
