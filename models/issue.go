package models

import (
	"fmt"
	"time"
)

// Issue represents a single numbered issue of a journal.
// At most one issue per journal may be flagged active at a time; the admin
// save path clears previously active rows inside the same transaction.
type Issue struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JournalID uint     `json:"journal_id" gorm:"index:idx_issues_unique,unique;not null"`
	Journal   *Journal `json:"journal,omitempty" gorm:"foreignKey:JournalID"`

	Volume int `json:"volume" gorm:"index:idx_issues_unique,unique;not null"`
	Number int `json:"number" gorm:"index:idx_issues_unique,unique;not null"`
	Year   int `json:"year" gorm:"index:idx_issues_unique,unique;not null"`

	// Optional special issue title and editorial note.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty" gorm:"type:text"`

	DatePublished time.Time `json:"date_published"`
	IsPublished   bool      `json:"is_published" gorm:"default:false"`
	IsActive      bool      `json:"is_active" gorm:"default:false;index"`

	MetaDescription string `json:"meta_description,omitempty" gorm:"size:160"`

	Articles []Article `json:"articles,omitempty" gorm:"foreignKey:IssueID"`
}

func (Issue) TableName() string { return "issues" }

// FullCitation returns the citation fragment for this issue, e.g. "Vol.3, No.2 (2025)".
func (i *Issue) FullCitation() string {
	return fmt.Sprintf("Vol.%d, No.%d (%d)", i.Volume, i.Number, i.Year)
}
