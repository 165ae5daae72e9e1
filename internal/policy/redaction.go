package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
)

// MaskCallerID hides a phone number in log output, keeping the last two
// digits so adjacent log lines for the same caller remain correlatable.
func MaskCallerID(number string) string {
	if number == "" {
		return "<unknown>"
	}
	digits := 0
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits <= 2 {
		return "***"
	}
	masked := []rune(number)
	seen := 0
	for i := len(masked) - 1; i >= 0; i-- {
		if masked[i] < '0' || masked[i] > '9' {
			continue
		}
		seen++
		if seen > 2 {
			masked[i] = '*'
		}
	}
	return string(masked)
}

// RedactContact masks phone numbers and email addresses embedded in free
// text, for answer content that ends up in log lines.
func RedactContact(input string) (redacted string, changed bool) {
	out := emailPattern.ReplaceAllString(input, "[REDACTED_EMAIL]")
	changed = out != input

	next := phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
	changed = changed || next != out

	return next, changed
}
