package models

import "time"

// ArticleSubmission is a prospective author's manuscript submission request.
type ArticleSubmission struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	AuthorName  string `json:"author_name" gorm:"not null"`
	Email       string `json:"email" gorm:"not null"`
	Phone       string `json:"phone,omitempty" gorm:"size:15"`
	Field       string `json:"field,omitempty"`
	Description string `json:"description,omitempty" gorm:"type:text"`
}

func (ArticleSubmission) TableName() string { return "article_submissions" }
