// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm canonicalizes free text before keyword and concept matching.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// dashes are replaced by spaces so "difference-in-differences" and
// "difference in differences" compare equal.
var dashes = strings.NewReplacer(
	"-", " ",
	"\u2010", " ", // hyphen
	"\u2011", " ", // non-breaking hyphen
	"\u2012", " ", // figure dash
	"\u2013", " ", // en dash
	"\u2014", " ", // em dash
	"\u2015", " ", // horizontal bar
	"\u2212", " ", // minus sign
	"\u00ad", "", // soft hyphen
)

// Normalize returns s in NFKC form, lowercased, with dash characters
// replaced by spaces and whitespace runs collapsed to a single space.
// It is total: the empty string maps to the empty string.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = dashes.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Tag normalizes a classifier tag or concept name. Underscores are treated
// as word separators so "labor_economics" matches "Labor economics".
func Tag(s string) string {
	return Normalize(strings.ReplaceAll(s, "_", " "))
}
