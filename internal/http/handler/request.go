package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ShortenRequest is the body of POST /api/shorten and POST /api/links.
type ShortenRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required,max=2048"`
	Title       string `json:"title" validate:"max=255"`
	Description string `json:"description" validate:"max=2000"`
}

// ShortenResponse is returned for an anonymous link.
type ShortenResponse struct {
	ShortURL    string `json:"shortUrl"`
	ShortCode   string `json:"shortCode"`
	OriginalURL string `json:"originalUrl"`
}

// StatusRequest toggles an entity on or off.
type StatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// WithdrawalRequest is the body of POST /api/withdrawals.
type WithdrawalRequest struct {
	Amount  decimal.Decimal      `json:"amount"`
	Method  string               `json:"method" validate:"required,oneof=paypal payoneer bitcoin"`
	Details model.PaymentDetails `json:"details"`
}

// WithdrawalDecisionRequest is the body of PATCH /api/admin/withdrawals/:id.
type WithdrawalDecisionRequest struct {
	Status     string  `json:"status" validate:"required,oneof=approved rejected paid"`
	AdminNotes *string `json:"adminNotes" validate:"omitempty,max=2000"`
}

// CpmRateRequest is the body of POST /api/admin/cpm-rates.
type CpmRateRequest struct {
	Country  string          `json:"country" validate:"required,min=2,max=8"`
	Device   string          `json:"device" validate:"omitempty,oneof=desktop mobile all"`
	Rate     decimal.Decimal `json:"rate"`
	IsActive *bool           `json:"isActive"`
}

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.New(validationMessage(fieldErrs[0]))
		}
		return err
	}
	return nil
}

func validationMessage(err validator.FieldError) string {
	field := jsonFieldName(err.Field())
	switch err.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + err.Param() + " characters"
	case "max":
		return field + " must be at most " + err.Param() + " characters"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(err.Param(), " ", ", ")
	default:
		return field + " is invalid"
	}
}

func jsonFieldName(name string) string {
	if name == "" {
		return name
	}
	if name == "OriginalURL" {
		return "originalUrl"
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// pagination reads ?page= (1-based) and ?limit=.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// timeRange reads ?from= and ?to= as RFC 3339 timestamps or dates. A
// date-only "to" covers the whole day.
func timeRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, err = parseTime(c.Query("from"), false); err != nil {
		return nil, nil, fmt.Errorf("from: %w", err)
	}
	if to, err = parseTime(c.Query("to"), true); err != nil {
		return nil, nil, fmt.Errorf("to: %w", err)
	}
	return from, to, nil
}

func parseTime(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, errors.New("expected RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
