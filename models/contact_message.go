package models

import "time"

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Name    string `json:"name" gorm:"not null"`
	Email   string `json:"email" gorm:"not null"`
	Subject string `json:"subject" gorm:"size:200"`
	Message string `json:"message" gorm:"type:text;not null"`
}

func (ContactMessage) TableName() string { return "contact_messages" }
