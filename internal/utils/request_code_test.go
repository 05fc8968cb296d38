package utils

import (
	"regexp"
	"testing"
)

func TestSanitizeModel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Camry", "CAMRY"},
		{"Model 3", "MODEL3"},
		{"C-Class!", "CCLASS"},
		{"", "UNK"},
		{"---", "UNK"},
		{"SuperLongModelNameThatKeepsGoing", "SUPERLONGMODELNAMETH"},
	}

	for _, c := range cases {
		if got := SanitizeModel(c.in); got != c.want {
			t.Errorf("SanitizeModel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMakeAbbrev(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Toyota", "TOY"},
		{"BMW", "BMW"},
		{"VW", "VWX"},
		{"K", "KXX"},
		{"", "XXX"},
		{"4x4 Motors", "XMO"},
	}

	for _, c := range cases {
		if got := MakeAbbrev(c.in); got != c.want {
			t.Errorf("MakeAbbrev(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatRequestCode(t *testing.T) {
	code := FormatRequestCode("Camry", "Toyota", 1)
	if code != "CAMRY_TOY_001" {
		t.Errorf("FormatRequestCode = %q, want CAMRY_TOY_001", code)
	}

	pattern := regexp.MustCompile(`^CAMRY_TOY_\d{3}$`)
	if !pattern.MatchString(code) {
		t.Errorf("code %q does not match expected pattern", code)
	}

	// Sequence numbers above 999 widen the segment instead of wrapping
	wide := FormatRequestCode("Camry", "Toyota", 1042)
	if wide != "CAMRY_TOY_1042" {
		t.Errorf("FormatRequestCode = %q, want CAMRY_TOY_1042", wide)
	}
}

func TestParseSequence(t *testing.T) {
	seq, err := ParseSequence("CAMRY_TOY_042")
	if err != nil {
		t.Fatalf("ParseSequence failed: %v", err)
	}
	if seq != 42 {
		t.Errorf("ParseSequence = %d, want 42", seq)
	}

	// Model sanitization never emits underscores, so the last segment
	// is always the sequence
	seq, err = ParseSequence("MODEL3_TES_107")
	if err != nil {
		t.Fatalf("ParseSequence failed: %v", err)
	}
	if seq != 107 {
		t.Errorf("ParseSequence = %d, want 107", seq)
	}

	if _, err := ParseSequence("garbage"); err == nil {
		t.Error("ParseSequence should reject malformed codes")
	}
	if _, err := ParseSequence("CAMRY_TOY_9A"); err == nil {
		t.Error("ParseSequence should reject non-numeric sequence")
	}
}
