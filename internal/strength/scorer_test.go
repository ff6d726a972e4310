package strength

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     int
	}{
		{"empty", "", 0},
		{"single class short", "abc", 1},
		{"common lowercase word", "password", 1},
		{"short but mixed", "abc123", 1},
		{"short all classes", "aB3!", 1},
		{"long single character run", strings.Repeat("a", 20), 1},
		{"long two classes", "abcdefgh1234", 4},
		{"moderate all classes", "Aa1!bcde", 5},
		{"sixteen chars all classes", "Xk9!mPq2wRt5#vYz", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.password))
		})
	}
}

func TestScore_OrderingProperty(t *testing.T) {
	assert.Less(t, Score("password"), Score("Tr0ub4dor&3"))
}

func TestScore_TotalOverArbitraryBytes(t *testing.T) {
	// Non-UTF8 and control bytes must not panic and must stay in range.
	inputs := []string{"\x00\xff\xfe", "\t\n\r", "日本語パスワード", string([]byte{0x80, 0x81})}
	for _, in := range inputs {
		s := Score(in)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 5)
	}
}

func TestScore_Bounds(t *testing.T) {
	assert.Equal(t, 0, Score(""))
	assert.Equal(t, 5, Score("N7#qLw2$Zr9@Xv4kB"))
}
