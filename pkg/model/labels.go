package model

import (
	"strings"
	"unicode"
)

var labelAcronyms = map[string]string{
	"id":  "ID",
	"url": "URL",
	"ip":  "IP",
}

// DefaultLabeler turns a field key into a human label: `doctor.full_name`
// becomes "Doctor Full Name" and `createdAt` becomes "Created At".
func DefaultLabeler(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})
	parts := make([]string, 0, len(words))
	for _, word := range words {
		for _, piece := range splitCamelCase(word) {
			parts = append(parts, labelWord(piece))
		}
	}
	return strings.Join(parts, " ")
}

func splitCamelCase(word string) []string {
	runes := []rune(word)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		if (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsLetter(prev) && unicode.IsDigit(cur)) ||
			(unicode.IsDigit(prev) && unicode.IsLetter(cur)) {
			out = append(out, string(runes[start:i]))
			start = i
		}
	}
	return append(out, string(runes[start:]))
}

func labelWord(word string) string {
	lower := strings.ToLower(word)
	if acronym, ok := labelAcronyms[lower]; ok {
		return acronym
	}
	runes := []rune(lower)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
