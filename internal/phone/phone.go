// Package phone validates international phone numbers before they reach
// the network.
package phone

// IsValid reports whether s is "+" followed by 8 to 15 ASCII digits.
func IsValid(s string) bool {
	if len(s) < 9 || len(s) > 16 || s[0] != '+' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
