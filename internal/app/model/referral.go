package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral links a referrer to a user who signed up with their code.
type Referral struct {
	ID            string          `json:"id" gorm:"type:uuid;primaryKey"`
	ReferrerID    string          `json:"referrerId" gorm:"size:64;index;not null"`
	ReferredID    string          `json:"referredId" gorm:"size:64;uniqueIndex;not null"`
	Commission    decimal.Decimal `json:"commission" gorm:"type:numeric(18,6);not null;default:0"`
	TotalEarnings decimal.Decimal `json:"totalEarnings" gorm:"type:numeric(18,6);not null;default:0"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}
