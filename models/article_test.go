package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIssueFullCitation(t *testing.T) {
	issue := Issue{Volume: 3, Number: 2, Year: 2025}
	assert.Equal(t, "Vol.3, No.2 (2025)", issue.FullCitation())
}

func TestArticlePageRange(t *testing.T) {
	a := Article{FirstPage: 12, LastPage: 29}
	assert.Equal(t, "12-29", a.PageRange())

	assert.Equal(t, "", (&Article{}).PageRange())
	assert.Equal(t, "", (&Article{FirstPage: 12}).PageRange())
}

func TestArticlePublicURL(t *testing.T) {
	a := Article{
		Slug: "deep-learning-review",
		Issue: &Issue{
			Journal: &Journal{Slug: "imfaktor"},
		},
	}
	assert.Equal(t, "https://imfaktor.uz/imfaktor/deep-learning-review/",
		a.PublicURL("https://imfaktor.uz"))

	// Trailing slash on the domain is normalized.
	assert.Equal(t, "https://imfaktor.uz/imfaktor/deep-learning-review/",
		a.PublicURL("https://imfaktor.uz/"))

	// No issue means the generic journal segment.
	orphan := Article{Slug: "orphan-article"}
	assert.Equal(t, "https://imfaktor.uz/journal/orphan-article/",
		orphan.PublicURL("https://imfaktor.uz"))
}

func TestArticleCitation(t *testing.T) {
	a := Article{
		Title:         "Neural Machine Translation for Uzbek",
		DatePublished: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		FirstPage:     12,
		LastPage:      29,
		DOI:           "10.1000/xyz123",
		Issue: &Issue{
			Volume: 3, Number: 2, Year: 2025,
			Journal: &Journal{Title: "Impact Factor"},
		},
		ArticleAuthors: []ArticleAuthor{
			{Author: &Author{FirstName: "Aziza", LastName: "Karimova"}},
			{Author: &Author{FirstName: "Bekzod", MiddleName: "T", LastName: "Yusupov"}},
		},
	}

	got := a.Citation()
	assert.Equal(t,
		"Karimova, A., Yusupov, B. T. (2025). Neural Machine Translation for Uzbek. Impact Factor, Vol.3, No.2 (2025), pp. 12-29. DOI: 10.1000/xyz123",
		got)
}

func TestArticleCitationEtAl(t *testing.T) {
	var rows []ArticleAuthor
	for i := 0; i < 8; i++ {
		rows = append(rows, ArticleAuthor{Author: &Author{FirstName: "A", LastName: "Author"}})
	}
	a := Article{
		Title:          "Large Collaboration",
		DatePublished:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ArticleAuthors: rows,
	}

	got := a.Citation()
	assert.Contains(t, got, "et al.")
	// Six named authors, then the et al. marker.
	assert.Equal(t, 6, strings.Count(got, "Author, A."))
	assert.Contains(t, got, "Unpublished")
}
