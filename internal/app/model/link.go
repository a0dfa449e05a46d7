package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShortCodeLength is the fixed width of every issued short code.
const ShortCodeLength = 8

// Link describes a shortened URL and its cumulative monetization counters.
// UserID is nil for anonymous links.
type Link struct {
	ID            string          `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        *string         `json:"userId" gorm:"size:64;index"`
	OriginalURL   string          `json:"originalUrl" gorm:"type:text;not null"`
	ShortCode     string          `json:"shortCode" gorm:"size:8;uniqueIndex;not null"`
	Title         string          `json:"title,omitempty" gorm:"size:255"`
	Description   string          `json:"description,omitempty" gorm:"type:text"`
	IsActive      bool            `json:"isActive" gorm:"not null;default:true"`
	TotalViews    int64           `json:"totalViews" gorm:"not null;default:0"`
	TotalEarnings decimal.Decimal `json:"totalEarnings" gorm:"type:numeric(18,6);not null;default:0"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Owned reports whether the link belongs to a registered user.
func (l *Link) Owned() bool {
	return l.UserID != nil && *l.UserID != ""
}
