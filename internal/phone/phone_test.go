package phone

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	valid := []string{"+14155550123", "+12345678", "+123456789012345", "+919876543210"}
	invalid := []string{
		"",
		"+",
		"14155550123",
		"+1234567",
		"+1234567890123456",
		"+1415555012a",
		"+1 4155550123",
		"++14155550123",
		"+١٢٣٤٥٦٧٨٩",
		"+14155550123\n",
	}

	for _, s := range valid {
		assert.True(t, IsValid(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsValid(s), s)
	}
}

func TestIsValid_MatchesPattern(t *testing.T) {
	re := regexp.MustCompile(`^\+[0-9]{8,15}$`)
	for n := 0; n <= 18; n++ {
		for _, body := range []string{strings.Repeat("7", n), strings.Repeat("7", n) + "x"} {
			for _, s := range []string{"+" + body, body} {
				assert.Equal(t, re.MatchString(s), IsValid(s), s)
			}
		}
	}
}
