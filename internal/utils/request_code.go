package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Request codes look like CAMRY_TOY_001:
//   MODEL - sanitized vehicle model, alphanumeric uppercase, max 20 chars
//   MAKE3 - first 3 letters of the make, right-padded with X
//   SEQ   - zero-padded global sequence number

const (
	maxModelLen    = 20
	defaultModel   = "UNK"
	makeAbbrevLen  = 3
	makeAbbrevPad  = "X"
	minSeqDigits   = 3
	codeFieldCount = 3
)

// SanitizeModel strips a vehicle model down to uppercase alphanumerics
func SanitizeModel(model string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(model) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() >= maxModelLen {
			break
		}
	}
	if b.Len() == 0 {
		return defaultModel
	}
	return b.String()
}

// MakeAbbrev returns the first 3 letters of the make, uppercased and
// right-padded with X when shorter
func MakeAbbrev(make string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(make) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
		if b.Len() >= makeAbbrevLen {
			break
		}
	}
	abbrev := b.String()
	for len(abbrev) < makeAbbrevLen {
		abbrev += makeAbbrevPad
	}
	return abbrev
}

// FormatRequestCode builds the human-readable request identifier
func FormatRequestCode(model, make string, seq int64) string {
	return fmt.Sprintf("%s_%s_%03d", SanitizeModel(model), MakeAbbrev(make), seq)
}

// ParseSequence extracts the embedded sequence number from a request code
func ParseSequence(code string) (int64, error) {
	parts := strings.Split(code, "_")
	if len(parts) < codeFieldCount {
		return 0, errors.New("invalid request code")
	}
	seqPart := parts[len(parts)-1]
	if len(seqPart) < minSeqDigits {
		return 0, errors.New("invalid sequence segment")
	}
	seq, err := strconv.ParseInt(seqPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence segment: %w", err)
	}
	return seq, nil
}
