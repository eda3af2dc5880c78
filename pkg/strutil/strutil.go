// Package strutil 문자열 처리 유틸리티를 제공합니다.
package strutil

import (
	"strings"
	"unicode/utf8"
)

// Mask 토큰, 키 등 민감한 값을 로그에 남길 수 있도록 가립니다.
//
//	"" -> "", "abc" -> "***", "abcdefgh" -> "abcd***", "abcdefghijklmnop" -> "abcd***mnop"
func Mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 3:
		return "***"
	case len(s) <= 12:
		return s[:4] + "***"
	default:
		return s[:4] + "***" + s[len(s)-4:]
	}
}

// SplitAndTrim 구분자로 나눈 뒤 공백을 제거하고 빈 항목을 버립니다. 결과가 없으면 nil을 반환합니다.
func SplitAndTrim(s, sep string) []string {
	var result []string
	for _, token := range strings.Split(s, sep) {
		if token = strings.TrimSpace(token); token != "" {
			result = append(result, token)
		}
	}
	return result
}

// Truncate 문자열을 최대 maxRunes 글자로 자르고, 잘린 경우 말줄임표(…)를 붙입니다.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)
	return string(runes[:maxRunes]) + "…"
}
