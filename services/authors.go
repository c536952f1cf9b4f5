package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"journal-portal/models"
)

// AuthorInput is one entry of an article's submitted author list. Either an
// existing AuthorID or enough name data to create the author by email.
type AuthorInput struct {
	AuthorID uint `json:"author_id"`

	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Affiliation string `json:"affiliation"`
	ORCID       string `json:"orcid"`

	Order           int  `json:"order"`
	IsCorresponding bool `json:"is_corresponding"`
}

// AuthorService resolves and maintains author records, keyed by email.
type AuthorService struct {
	DB *gorm.DB
}

func NewAuthorService(db *gorm.DB) *AuthorService {
	return &AuthorService{DB: db}
}

// CreateOrUpdate finds the author by ID or email and updates the supplied
// profile fields, creating the record when none exists. An input without an
// email gets a synthesized placeholder address so the unique key holds.
func (s *AuthorService) CreateOrUpdate(in AuthorInput) (*models.Author, error) {
	if in.AuthorID > 0 {
		var author models.Author
		if err := s.DB.First(&author, in.AuthorID).Error; err != nil {
			return nil, fmt.Errorf("author %d: %w", in.AuthorID, err)
		}
		return &author, nil
	}

	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("author entry requires first and last name")
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = models.SynthesizeEmail(in.FirstName, in.LastName)
	}

	var author models.Author
	err := s.DB.Where("email = ?", email).First(&author).Error
	switch {
	case err == nil:
		author.FirstName = in.FirstName
		author.MiddleName = in.MiddleName
		author.LastName = in.LastName
		if in.Affiliation != "" {
			author.Affiliation = in.Affiliation
		}
		if in.ORCID != "" {
			author.ORCID = in.ORCID
		}
		if err := s.DB.Save(&author).Error; err != nil {
			return nil, err
		}
		return &author, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		author = models.Author{
			FirstName:   in.FirstName,
			MiddleName:  in.MiddleName,
			LastName:    in.LastName,
			Email:       email,
			Affiliation: in.Affiliation,
			ORCID:       in.ORCID,
			IsActive:    true,
		}
		if err := s.DB.Create(&author).Error; err != nil {
			return nil, err
		}
		return &author, nil
	default:
		return nil, err
	}
}

// ReplaceArticleAuthors swaps an article's author list for the submitted one,
// preserving the submitted order, inside a single transaction.
func (s *AuthorService) ReplaceArticleAuthors(articleID uint, inputs []AuthorInput) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		txService := &AuthorService{DB: tx}

		if err := tx.Where("article_id = ?", articleID).Delete(&models.ArticleAuthor{}).Error; err != nil {
			return err
		}
		for i, in := range inputs {
			author, err := txService.CreateOrUpdate(in)
			if err != nil {
				return err
			}
			order := in.Order
			if order == 0 {
				order = i
			}
			row := models.ArticleAuthor{
				ArticleID:       articleID,
				AuthorID:        author.ID,
				Order:           order,
				IsCorresponding: in.IsCorresponding,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ActiveRecipientEmails returns the usable addresses for the bulk mailer,
// either for all active authors or only the selected IDs.
func (s *AuthorService) ActiveRecipientEmails(authorIDs []uint) ([]string, error) {
	query := s.DB.Model(&models.Author{}).Where("is_active = ?", true)
	if len(authorIDs) > 0 {
		query = query.Where("id IN ?", authorIDs)
	}

	var authors []models.Author
	if err := query.Find(&authors).Error; err != nil {
		return nil, err
	}

	var emails []string
	for i := range authors {
		if authors[i].HasUsableEmail() {
			emails = append(emails, strings.TrimSpace(authors[i].Email))
		}
	}
	return emails, nil
}
