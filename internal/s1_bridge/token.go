package s1_bridge

import (
	"regexp"
	"strings"
)

var (
	// 이름 끝의 괄호 구간: "ABC Global Fund (US1234567890)"
	trailingParenPattern = regexp.MustCompile(`\(([^()]*)\)\s*$`)

	isinPattern = regexp.MustCompile(`^[A-Z0-9]{12}$`)
)

// ExtractToken returns the trailing parenthesised segment of a feeder name,
// trimmed and uppercased. ok is false when there is no suffix or it is empty.
func ExtractToken(name string) (token string, ok bool) {
	m := trailingParenPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return "", false
	}
	token = strings.ToUpper(strings.TrimSpace(m[1]))
	if token == "" {
		return "", false
	}
	return token, true
}

// ISINCandidate strips spaces from a token and accepts it only as exactly
// 12 uppercase alphanumerics. Non-ISIN tokens never resolve a bridge link.
func ISINCandidate(token string) (string, bool) {
	clean := strings.ReplaceAll(token, " ", "")
	if !isinPattern.MatchString(clean) {
		return "", false
	}
	return clean, true
}

// NormalizeISIN uppercases and removes all whitespace
func NormalizeISIN(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), "")
}
