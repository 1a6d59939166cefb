package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reListSplit = regexp.MustCompile(`[,;]`)
)

// NormalizeSpaces composes accents to NFC, maps NBSP to a plain space and
// collapses runs of whitespace.
func NormalizeSpaces(input string) string {
	s := norm.NFC.String(input)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// HeaderKey is the lookup form of a header cell: lowercase, trimmed, with the
// trailing "*" required-marker removed. Accents are kept.
func HeaderKey(input string) string {
	s := strings.ToLower(NormalizeSpaces(input))
	s = strings.TrimRight(s, "*")
	return strings.TrimSpace(s)
}

// SplitList splits on "," or ";", trims each part and drops empties.
func SplitList(input string) []string {
	parts := reListSplit.Split(input, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
