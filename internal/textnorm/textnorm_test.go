// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"lowercase and trim", "  Income Inequality  ", "income inequality"},
		{"hyphen", "Difference-in-Differences", "difference in differences"},
		{"en dash", "1990\u20132000", "1990 2000"},
		{"em dash", "wages\u2014and hours", "wages and hours"},
		{"non-breaking hyphen", "self\u2011employment", "self employment"},
		{"collapse runs", "labor   market\n\nshocks", "labor market shocks"},
		{"ligature folded", "\ufb01eld experiment", "field experiment"},
		{"soft hyphen removed", "eco\u00adnomics", "economics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTag(t *testing.T) {
	if got := Tag("Labor_Economics"); got != "labor economics" {
		t.Errorf("Tag() = %q, want %q", got, "labor economics")
	}
}
