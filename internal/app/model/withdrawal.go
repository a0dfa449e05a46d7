package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal statuses. pending -> approved -> paid, pending -> rejected.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
	WithdrawalPaid     = "paid"
)

// Payout methods accepted for withdrawals.
const (
	MethodPayPal   = "paypal"
	MethodPayoneer = "payoneer"
	MethodBitcoin  = "bitcoin"
)

var withdrawalTransitions = map[string][]string{
	WithdrawalPending:  {WithdrawalApproved, WithdrawalRejected},
	WithdrawalApproved: {WithdrawalPaid},
}

// CanTransition reports whether a withdrawal may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range withdrawalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PreviousStatus returns the only status a withdrawal can reach status from.
func PreviousStatus(status string) (string, bool) {
	for from, targets := range withdrawalTransitions {
		for _, to := range targets {
			if to == status {
				return from, true
			}
		}
	}
	return "", false
}

// IsValidMethod reports whether method is a supported payout method.
func IsValidMethod(method string) bool {
	switch method {
	case MethodPayPal, MethodPayoneer, MethodBitcoin:
		return true
	}
	return false
}

// PaymentDetails is the method-specific payout destination, stored as jsonb.
type PaymentDetails map[string]any

// Value implements driver.Valuer.
func (d PaymentDetails) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *PaymentDetails) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("payment details: unsupported type %T", src)
	}
	return json.Unmarshal(raw, d)
}

// Withdrawal is a payout request against a user's held balance.
type Withdrawal struct {
	ID          string          `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      string          `json:"userId" gorm:"size:64;index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Method      string          `json:"method" gorm:"size:16;not null"`
	Details     PaymentDetails  `json:"details" gorm:"type:jsonb"`
	Status      string          `json:"status" gorm:"size:16;not null;default:pending;index"`
	AdminNotes  *string         `json:"adminNotes" gorm:"type:text"`
	RequestedAt time.Time       `json:"requestedAt" gorm:"not null"`
	ProcessedAt *time.Time      `json:"processedAt"`
}
