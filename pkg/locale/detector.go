package locale

import "strings"

// InferCountryFromPhone matches a phone number's international prefix
// against the supported countries. Returns nil when nothing matches.
func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)

	for _, country := range Countries {
		for _, prefix := range country.PhonePrefixes {
			if strings.HasPrefix(normalized, prefix) {
				return &country
			}
		}
	}

	return nil
}

// InferTimezoneFromPhone returns the default timezone for the phone's
// country, or UTC when the country is unknown.
func InferTimezoneFromPhone(phone string) string {
	if c := InferCountryFromPhone(phone); c != nil {
		return c.DefaultTimezone
	}
	return DefaultTimezone
}
