// Package strength scores password strength on a 0–5 scale.
package strength

import "unicode"

// MinLength is the length below which a password cannot score above 1.
const MinLength = 8

// Score rates a password from 0 (unusable) to 5 (excellent). It is pure and
// total: every string, including the empty string, maps to a score.
//
// Points come from length tiers (<8: 0, 8–11: 1, 12–15: 2, 16+: 3) plus one
// point per character class present (lowercase, uppercase, digit, symbol),
// capped at 5. Passwords shorter than MinLength, or built from a single
// character class, are capped at 1 regardless of length — a 20-character run
// of one character is still a weak password.
func Score(password string) int {
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, symbol} {
		if present {
			classes++
		}
	}

	length := len(password)
	score := lengthTier(length) + classes
	if score > 5 {
		score = 5
	}
	if (length < MinLength || classes <= 1) && score > 1 {
		score = 1
	}
	return score
}

func lengthTier(length int) int {
	switch {
	case length >= 16:
		return 3
	case length >= 12:
		return 2
	case length >= MinLength:
		return 1
	default:
		return 0
	}
}
