// Package phone normalizes lead phone numbers for the messaging providers.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers written without a country code
const DefaultRegion = "US"

// ErrEmpty is returned for blank input
var ErrEmpty = errors.New("phone number cannot be empty")

// Info describes a parsed number
type Info struct {
	Valid         bool   `json:"valid"`
	E164          string `json:"e164"`
	International string `json:"international"`
	Region        string `json:"region"`
	Mobile        bool   `json:"mobile"`
}

// Parse parses phone using region as the default country
func Parse(phone, region string) (*Info, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrEmpty
	}
	if region == "" {
		region = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	kind := phonenumbers.GetNumberType(parsed)
	return &Info{
		Valid:         phonenumbers.IsValidNumber(parsed),
		E164:          phonenumbers.Format(parsed, phonenumbers.E164),
		International: phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		Region:        phonenumbers.GetRegionCodeForNumber(parsed),
		Mobile:        kind == phonenumbers.MOBILE || kind == phonenumbers.FIXED_LINE_OR_MOBILE,
	}, nil
}

// ToE164 returns phone in E.164 form. Numbers the library cannot validate
// are passed through as "+digits" so providers can still reject them with
// their own error message.
func ToE164(phone, region string) (string, error) {
	info, err := Parse(phone, region)
	if err != nil {
		if errors.Is(err, ErrEmpty) {
			return "", err
		}
		return fallback(phone)
	}
	if !info.Valid {
		return fallback(phone)
	}
	return info.E164, nil
}

// WhatsAppID is the E.164 number without the leading plus, as the Cloud API expects
func WhatsAppID(phone, region string) (string, error) {
	e164, err := ToE164(phone, region)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(e164, "+"), nil
}

func fallback(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() < 7 {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	return "+" + b.String(), nil
}
