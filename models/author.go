package models

import (
	"fmt"
	"strings"
	"time"
)

// Author represents a contributing author. The email is the identity key; when
// an author is created without one, a placeholder is synthesized from the name
// to satisfy the unique constraint.
type Author struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FirstName  string `json:"first_name" gorm:"not null"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name" gorm:"not null"`

	Affiliation string `json:"affiliation,omitempty"`
	Department  string `json:"department,omitempty"`
	Position    string `json:"position,omitempty"`

	AcademicTitle  string `json:"academic_title,omitempty"`
	AcademicDegree string `json:"academic_degree,omitempty"`

	Email   string `json:"email" gorm:"uniqueIndex;not null"`
	Website string `json:"website,omitempty"`

	ORCID           string `json:"orcid,omitempty" gorm:"size:50"`
	GoogleScholarID string `json:"google_scholar_id,omitempty" gorm:"size:50"`

	Bio      string `json:"bio,omitempty" gorm:"type:text"`
	IsActive bool   `json:"is_active" gorm:"default:true;index"`
}

func (Author) TableName() string { return "authors" }

// FullName returns "First Middle Last" with the middle name omitted when empty.
func (a *Author) FullName() string {
	if a.MiddleName != "" {
		return fmt.Sprintf("%s %s %s", a.FirstName, a.MiddleName, a.LastName)
	}
	return fmt.Sprintf("%s %s", a.FirstName, a.LastName)
}

// CitationName returns the "Last, F. M." form used in reference lists.
func (a *Author) CitationName() string {
	first := initialOf(a.FirstName)
	if a.MiddleName != "" {
		return fmt.Sprintf("%s, %s. %s.", a.LastName, first, initialOf(a.MiddleName))
	}
	return fmt.Sprintf("%s, %s.", a.LastName, first)
}

// HasUsableEmail reports whether the stored address can actually receive mail.
// Synthesized placeholder addresses are not usable.
func (a *Author) HasUsableEmail() bool {
	email := strings.TrimSpace(a.Email)
	return email != "" && strings.Contains(email, "@") && !strings.HasSuffix(email, "@example.com")
}

// SynthesizeEmail builds the placeholder address for authors without one.
func SynthesizeEmail(firstName, lastName string) string {
	return fmt.Sprintf("%s.%s@example.com", Slugify(firstName), Slugify(lastName))
}

func initialOf(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) == 0 {
		return ""
	}
	return string(r[0])
}
