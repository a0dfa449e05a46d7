package service

import (
	"strings"

	"github.com/sifan077/PayLink/internal/app/model"
)

// VisitClassifier derives the pricing dimensions of a visit from request data.
type VisitClassifier struct {
	DefaultCountry string
	MobileMarker   string
}

// NewVisitClassifier fills in the defaults for empty settings.
func NewVisitClassifier(defaultCountry, mobileMarker string) VisitClassifier {
	if defaultCountry == "" {
		defaultCountry = "US"
	}
	if mobileMarker == "" {
		mobileMarker = "Mobile"
	}
	return VisitClassifier{
		DefaultCountry: strings.ToUpper(defaultCountry),
		MobileMarker:   mobileMarker,
	}
}

// Country normalizes a geolocation header value. "XX" (unknown) and "T1"
// (Tor) are placeholders and fall back to the default country.
func (c VisitClassifier) Country(header string) string {
	country := strings.ToUpper(strings.TrimSpace(header))
	switch country {
	case "", "XX", "T1":
		return c.DefaultCountry
	}
	return country
}

// Device classifies a user agent as mobile or desktop.
func (c VisitClassifier) Device(userAgent string) string {
	if strings.Contains(userAgent, c.MobileMarker) {
		return model.DeviceMobile
	}
	return model.DeviceDesktop
}
