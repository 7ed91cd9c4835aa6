// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"crypto/rand"
	"regexp"
	"strings"
)

// nonAlphanumeric matches every run of characters that isn't a lowercase
// ASCII letter or digit.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// suffixAlphabet is lowercase base36 so suffixed slugs stay slug-shaped.
const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// SuffixLength is the number of random characters appended by WithSuffix.
const SuffixLength = 6

// Generate creates a URL-friendly slug from the given string.
// Example: "Dave's Plumbing & Sons!!" → "dave-s-plumbing-sons"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// WithSuffix returns Generate(s) followed by a hyphen and a short random
// suffix. Two calls with the same input almost certainly differ; callers
// that need a hard guarantee still rely on the unique index.
func WithSuffix(s string) string {
	base := Generate(s)
	suffix := randomSuffix(SuffixLength)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// randomSuffix draws n characters from suffixAlphabet.
func randomSuffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("slug: crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(b)
}
