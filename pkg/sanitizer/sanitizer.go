package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reKeepLettersDigits = regexp.MustCompile(`[^0-9\p{L} ]+`)

	// Regions patient phone numbers are expected to come from.
	supportedRegions = []string{
		"BR",
		"PT",
		"US",
	}

	reValidPhone = regexp.MustCompile(`^(?:|\+?[1-9]\d{7,14})$`)

	rePhoneSeparators = regexp.MustCompile(`[\s().-]+`)
)

func trimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SanitizeChannelLabel normalizes a free-text acquisition-channel label the
// way booking records store it: trimmed, single-spaced, lowercase, letters
// and digits only. Channel matching is a string comparison, so both sides
// must go through the same pipeline.
func SanitizeChannelLabel(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reKeepLettersDigits.ReplaceAllString(s, "") },
		TrimAndNormalize,
	}
	return p.Apply(input)
}

// SanitizePhone normalizes to E.164 against the supported regions after
// stripping formatting separators. Returns the stripped input when it does
// not look like a phone at all, and "" when it looks like one but cannot
// be parsed.
func SanitizePhone(phone string) string {
	phone = rePhoneSeparators.ReplaceAllString(strings.TrimSpace(phone), "")

	if phone == "" || !reValidPhone.MatchString(phone) {
		return phone
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
