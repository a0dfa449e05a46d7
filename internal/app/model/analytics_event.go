package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Device classes recorded on analytics events and used in CPM rates.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceAll     = "all"
)

// AnalyticsEvent is one attributed visit of a short link. Rows are
// append-only; ID doubles as the dedup key for redelivered visits.
type AnalyticsEvent struct {
	ID        string          `json:"id" gorm:"type:uuid;primaryKey"`
	LinkID    string          `json:"linkId" gorm:"type:uuid;index;not null"`
	IPAddress string          `json:"ipAddress" gorm:"size:64"`
	UserAgent string          `json:"userAgent" gorm:"type:text"`
	Country   string          `json:"country" gorm:"size:8;index"`
	Device    string          `json:"device" gorm:"size:16"`
	Referrer  string          `json:"referrer" gorm:"type:text"`
	Earnings  decimal.Decimal `json:"earnings" gorm:"type:numeric(18,6);not null;default:0"`
	Timestamp time.Time       `json:"timestamp" gorm:"index;not null"`
}

// TableName keeps the historical table name.
func (AnalyticsEvent) TableName() string { return "link_analytics" }

// Visit is the request context captured at redirect time. It is the payload
// published on the visit stream in async attribution mode.
type Visit struct {
	EventID   string    `json:"id"`
	ShortCode string    `json:"short_code"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Country   string    `json:"country"`
	Device    string    `json:"device"`
	Referrer  string    `json:"referrer"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	VisitStreamName     = "VISITS"
	VisitStreamSubject  = "visits.events"
	VisitConsumerName   = "visit-attributor"
	VisitStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
