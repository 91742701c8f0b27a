package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "wireless mouse", Normalize("  Wireless   Mouse "))
	assert.Equal(t, "a b c", Normalize("A\tB\nC"))
	assert.Equal(t, "", Normalize("   \t\n "))
	assert.Equal(t, "already normal", Normalize("already normal"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"wireless", "mouse", "2"}, Tokenize("Wireless Mouse, 2!"))
	assert.Equal(t, []string{"usb_c", "hub"}, Tokenize("USB_C hub"))
	assert.Nil(t, Tokenize("!!! ---"))
	assert.Nil(t, Tokenize(""))
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"wireless", "wirless", 1},
		{"mouse", "mouse", 0},
		{"flaw", "lawn", 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Levenshtein(c.a, c.b), "Levenshtein(%q, %q)", c.a, c.b)
	}
}

func TestBoundedLevenshtein(t *testing.T) {
	assert.Equal(t, 1, BoundedLevenshtein("wireless", "wirless", 2))
	assert.Equal(t, 0, BoundedLevenshtein("mouse", "mouse", 2))
	// Distances beyond the threshold saturate at threshold+1.
	assert.Equal(t, 3, BoundedLevenshtein("kitten", "sitting", 2))
	assert.Equal(t, 2, BoundedLevenshtein("abcdefgh", "abc", 1))
}

func TestBoundedMatchesExactWithinThreshold(t *testing.T) {
	words := []string{"mouse", "house", "horse", "mousse", "keyboard", "kayboard"}
	for _, a := range words {
		for _, b := range words {
			exact := Levenshtein(a, b)
			bounded := BoundedLevenshtein(a, b, 2)
			if exact <= 2 {
				assert.Equal(t, exact, bounded, "%q vs %q", a, b)
			} else {
				assert.Equal(t, 3, bounded, "%q vs %q", a, b)
			}
		}
	}
}

func TestToLower(t *testing.T) {
	assert.Equal(t, "hello world", ToLower("Hello WORLD"))
	assert.Equal(t, "123-abc", ToLower("123-ABC"))
}
