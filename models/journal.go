package models

import (
	"time"

	"gorm.io/datatypes"
)

// Journal represents a scholarly journal published on the portal.
type Journal struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title        string `json:"title" gorm:"uniqueIndex;not null"`
	Initials     string `json:"initials,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Slug         string `json:"slug" gorm:"uniqueIndex;size:100;not null"`

	Description     string `json:"description,omitempty" gorm:"type:text"`
	MetaDescription string `json:"meta_description,omitempty" gorm:"size:160"`
	MetaKeywords    string `json:"meta_keywords,omitempty"`

	// Supported languages, e.g. ["en","uz","ru"]
	Languages     datatypes.JSON `json:"languages,omitempty" gorm:"type:jsonb"`
	PrimaryLocale string         `json:"primary_locale" gorm:"default:'en'"`

	Publisher    string `json:"publisher,omitempty"`
	ISSNPrint    string `json:"issn_print,omitempty" gorm:"size:20"`
	ISSNOnline   string `json:"issn_online,omitempty" gorm:"size:20"`
	ContactEmail string `json:"contact_email,omitempty"`
	Website      string `json:"website,omitempty"`

	IsActive     bool `json:"is_active" gorm:"default:true"`
	IsOpenAccess bool `json:"is_open_access" gorm:"default:true"`

	Issues []Issue `json:"issues,omitempty" gorm:"foreignKey:JournalID"`
}

func (Journal) TableName() string { return "journals" }
