package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorFullName(t *testing.T) {
	a := Author{FirstName: "Aziza", LastName: "Karimova"}
	assert.Equal(t, "Aziza Karimova", a.FullName())

	a.MiddleName = "Botir qizi"
	assert.Equal(t, "Aziza Botir qizi Karimova", a.FullName())
}

func TestAuthorCitationName(t *testing.T) {
	a := Author{FirstName: "Aziza", LastName: "Karimova"}
	assert.Equal(t, "Karimova, A.", a.CitationName())

	a.MiddleName = "Botir"
	assert.Equal(t, "Karimova, A. B.", a.CitationName())
}

func TestHasUsableEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"aziza@univ.uz", true},
		{"  aziza@univ.uz  ", true},
		{"", false},
		{"not-an-address", false},
		// Synthesized placeholders never receive mail.
		{"aziza.karimova@example.com", false},
	}
	for _, tc := range cases {
		a := Author{Email: tc.email}
		assert.Equal(t, tc.want, a.HasUsableEmail(), "email %q", tc.email)
	}
}

func TestSynthesizeEmail(t *testing.T) {
	assert.Equal(t, "aziza.karimova@example.com", SynthesizeEmail("Aziza", "Karimova"))
	assert.Equal(t, "john-paul.o-brien@example.com", SynthesizeEmail("John Paul", "O'Brien"))

	a := Author{Email: SynthesizeEmail("Aziza", "Karimova")}
	assert.False(t, a.HasUsableEmail())
}
