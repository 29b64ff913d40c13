package sanitizer

import (
	"strings"

	"roomly/pkg/locale"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone returns the number in E.164 form, or "" when it is not a
// valid number. A number with a leading "+" must be valid on its own; a local
// number is tried against each of locale.PhoneRegions in order.
func NormalizePhone(phone string) string {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "tel:")
	if phone == "" {
		return ""
	}

	if strings.HasPrefix(phone, "+") {
		return formatIfValid(phone, "")
	}
	for _, region := range locale.PhoneRegions() {
		if e164 := formatIfValid(phone, region); e164 != "" {
			return e164
		}
	}
	return ""
}

func formatIfValid(phone, region string) string {
	num, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
