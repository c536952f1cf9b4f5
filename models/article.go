package models

import (
	"fmt"
	"strings"
	"time"
)

// Article represents a published scholarly article.
//
// DiplomaSent is monotonic: it flips to true at most once, on the first
// false→true transition of IsPublished, and is never reset.
type Article struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title    string `json:"title" gorm:"size:500;not null"`
	Subtitle string `json:"subtitle,omitempty" gorm:"size:300"`
	Abstract string `json:"abstract,omitempty" gorm:"type:text"`
	Keywords string `json:"keywords,omitempty"`

	// Raw reference list as submitted.
	References string `json:"references,omitempty" gorm:"type:text"`

	IssueID *uint  `json:"issue_id,omitempty" gorm:"index"`
	Issue   *Issue `json:"issue,omitempty" gorm:"foreignKey:IssueID"`

	DatePublished time.Time `json:"date_published"`

	DOI       string `json:"doi,omitempty" gorm:"size:100;uniqueIndex"`
	Slug      string `json:"slug" gorm:"uniqueIndex;size:200;not null"`
	FirstPage int    `json:"first_page,omitempty"`
	LastPage  int    `json:"last_page,omitempty"`

	OpenAccess  bool `json:"open_access" gorm:"default:true"`
	Featured    bool `json:"featured" gorm:"default:false;index"`
	IsPublished bool `json:"is_published" gorm:"default:false;index"`
	DiplomaSent bool `json:"diploma_sent" gorm:"default:false"`

	Views     int `json:"views" gorm:"default:0"`
	Downloads int `json:"downloads" gorm:"default:0"`

	Language string `json:"language" gorm:"size:10;default:'en'"`

	ArticleAuthors []ArticleAuthor `json:"article_authors,omitempty" gorm:"foreignKey:ArticleID"`
}

func (Article) TableName() string { return "articles" }

// PageRange returns "first-last" or an empty string when pages are unset.
func (a *Article) PageRange() string {
	if a.FirstPage > 0 && a.LastPage > 0 {
		return fmt.Sprintf("%d-%d", a.FirstPage, a.LastPage)
	}
	return ""
}

// PublicURL builds the canonical public URL: {site}/{journal_slug}/{article_slug}/.
// Articles without an issue fall back to the "journal" path segment.
func (a *Article) PublicURL(siteDomain string) string {
	journalSlug := "journal"
	if a.Issue != nil && a.Issue.Journal != nil && a.Issue.Journal.Slug != "" {
		journalSlug = a.Issue.Journal.Slug
	}
	return fmt.Sprintf("%s/%s/%s/", strings.TrimRight(siteDomain, "/"), journalSlug, a.Slug)
}

// Citation renders the article reference in the portal's standard format,
// listing at most six authors before "et al.".
func (a *Article) Citation() string {
	var names []string
	for i, aa := range a.ArticleAuthors {
		if i == 6 {
			names = append(names, "et al.")
			break
		}
		if aa.Author != nil {
			names = append(names, aa.Author.CitationName())
		}
	}

	journalInfo := "Unpublished"
	if a.Issue != nil && a.Issue.Journal != nil {
		journalInfo = fmt.Sprintf("%s, %s", a.Issue.Journal.Title, a.Issue.FullCitation())
	}

	out := fmt.Sprintf("%s (%d). %s. %s", strings.Join(names, ", "), a.DatePublished.Year(), a.Title, journalInfo)
	if pr := a.PageRange(); pr != "" {
		out += ", pp. " + pr
	}
	if a.DOI != "" {
		out += ". DOI: " + a.DOI
	}
	return out
}
