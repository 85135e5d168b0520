package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers written without a country code.
const DefaultRegion = "NG"

// NormalizePhone returns phone in E.164, or "" when it is not a valid number.
func NormalizePhone(phone string) string {
	return NormalizePhoneForRegion(phone, DefaultRegion)
}

func NormalizePhoneForRegion(phone, region string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
