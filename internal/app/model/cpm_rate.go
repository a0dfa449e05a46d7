package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CpmRate prices one thousand visits for a (country, device) pair.
// Device is DeviceDesktop, DeviceMobile or DeviceAll.
type CpmRate struct {
	ID        string          `json:"id" gorm:"type:uuid;primaryKey"`
	Country   string          `json:"country" gorm:"size:8;not null;uniqueIndex:idx_cpm_rates_country_device"`
	Device    string          `json:"device" gorm:"size:16;not null;default:all;uniqueIndex:idx_cpm_rates_country_device"`
	Rate      decimal.Decimal `json:"rate" gorm:"type:numeric(12,2);not null"`
	// No column default: GORM would substitute it for false on insert.
	IsActive  bool            `json:"isActive" gorm:"not null"`
	UpdatedAt time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}
