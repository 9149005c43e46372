// Package permission matches granted permission names against required ones.
// Names are colon separated, e.g. "sso:apps:manage"; a trailing '*' in a
// granted name matches any suffix.
package permission

import "strings"

// AppsManage guards the application administration routes.
const AppsManage = "sso:apps:manage"

// Matches reports whether any granted permission covers required.
func Matches(granted []string, required string) bool {
	required = strings.TrimSpace(required)
	if required == "" {
		return false
	}
	for _, g := range granted {
		if resourceMatches(strings.TrimSpace(g), required) {
			return true
		}
	}
	return false
}

// MatchesAll reports whether every required permission is covered.
func MatchesAll(granted []string, required ...string) bool {
	for _, r := range required {
		if !Matches(granted, r) {
			return false
		}
	}
	return true
}

// resourceMatches: exact (case-insensitive), or prefix when the granted name ends with '*'
func resourceMatches(granted, required string) bool {
	if granted == "" {
		return false
	}
	if strings.EqualFold(granted, required) {
		return true
	}
	if strings.HasSuffix(granted, "*") {
		prefix := strings.ToLower(strings.TrimSuffix(granted, "*"))
		return strings.HasPrefix(strings.ToLower(required), prefix)
	}
	return false
}
