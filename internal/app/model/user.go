package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User holds identity plus cumulative balances. PendingEarnings is the
// withdrawable balance; TotalEarnings only ever grows.
type User struct {
	ID              string          `json:"id" gorm:"size:64;primaryKey"`
	Email           string          `json:"email" gorm:"size:255;index"`
	Role            string          `json:"role" gorm:"size:16;not null;default:user"`
	IsActive        bool            `json:"isActive" gorm:"not null;default:true"`
	TotalEarnings   decimal.Decimal `json:"totalEarnings" gorm:"type:numeric(18,6);not null;default:0"`
	PendingEarnings decimal.Decimal `json:"pendingEarnings" gorm:"type:numeric(18,6);not null;default:0"`
	ReferralCode    string          `json:"referralCode" gorm:"size:32;uniqueIndex;not null"`
	ReferredBy      *string         `json:"referredBy" gorm:"size:64"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
