package records

import "strings"

// dateOnly truncates an ISO timestamp such as "2024-03-05T00:00:00.000Z" to
// the "2024-03-05" accepted by date inputs.
func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}
