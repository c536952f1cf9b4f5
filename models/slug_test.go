package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Machine Learning & AI  ", "machine-learning-ai"},
		{"already-a-slug", "already-a-slug"},
		{"Multiple---separators!!!here", "multiple-separators-here"},
		{"Trailing punctuation?", "trailing-punctuation"},
		{"", ""},
		{"!!!", ""},
		{"Ilmiy Maqola 2025", "ilmiy-maqola-2025"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}

func TestSlugifyMax(t *testing.T) {
	assert.Equal(t, "hello", SlugifyMax("Hello World", 5))
	// A cut that lands on a hyphen drops it.
	assert.Equal(t, "hello", SlugifyMax("Hello World", 6))
	assert.Equal(t, "hello-world", SlugifyMax("Hello World", 200))
}
