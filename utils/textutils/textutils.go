// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils normalizes the free text found in user supplied CSV files.
package textutils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding removes accents, lowercases and trims s.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// ContainsAll reports whether the folded form of s contains every word.
func ContainsAll(s string, words ...string) bool {
	folded := LowerASCIIFolding(s)
	for _, w := range words {
		if !strings.Contains(folded, w) {
			return false
		}
	}

	return true
}

// FormatInt groups the digits of n by thousands with commas.
func FormatInt(n int64) string {
	digits := strconv.FormatUint(absUint(n), 10)

	var b strings.Builder
	if n < 0 {
		b.WriteByte('-')
	}

	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}

	b.WriteString(digits[:lead])

	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}

	return b.String()
}

func absUint(n int64) uint64 {
	if n < 0 {
		return uint64(-(n + 1)) + 1
	}

	return uint64(n)
}

// FormatFloat renders v in its shortest decimal form, the way it is written
// to the annotated CSV.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
