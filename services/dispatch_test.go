package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"journal-portal/models"
)

type fakeAuthorStore struct {
	rows []models.ArticleAuthor
	err  error
}

func (f *fakeAuthorStore) ListByArticle(articleID uint) ([]models.ArticleAuthor, error) {
	return f.rows, f.err
}

type fakeFlagStore struct {
	marked []uint
	err    error
}

func (f *fakeFlagStore) MarkDiplomaSent(articleID uint) error {
	if f.err != nil {
		return f.err
	}
	f.marked = append(f.marked, articleID)
	return nil
}

type fakeRenderer struct {
	jobs    []CertificateJob
	failFor map[uint]bool // author IDs whose render fails
}

func (f *fakeRenderer) Render(job CertificateJob) (string, error) {
	if f.failFor[job.AuthorID] {
		return "", fmt.Errorf("render failed")
	}
	f.jobs = append(f.jobs, job)
	return job.OutputPath, nil
}

type sentMail struct {
	to          string
	subject     string
	body        string
	attachments []string
}

type fakeAttachmentSender struct {
	sent    []sentMail
	failFor map[string]bool // recipient addresses whose send fails
}

func (f *fakeAttachmentSender) SendWithAttachment(to, subject, textBody string, attachments ...string) error {
	if f.failFor[to] {
		return fmt.Errorf("smtp rejected")
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: textBody, attachments: attachments})
	return nil
}

func newDispatchFixture(rows []models.ArticleAuthor) (*DispatchService, *fakeFlagStore, *fakeRenderer, *fakeAttachmentSender) {
	flags := &fakeFlagStore{}
	renderer := &fakeRenderer{failFor: map[uint]bool{}}
	sender := &fakeAttachmentSender{failFor: map[string]bool{}}
	svc := NewDispatchService(
		&fakeAuthorStore{rows: rows}, flags, renderer, sender, zap.NewNop(),
		"https://imfaktor.uz", "/media/diploma/original.png", "/media/diploma",
	)
	return svc, flags, renderer, sender
}

func publishedArticle() *models.Article {
	return &models.Article{
		ID:            7,
		Title:         "Neural Machine Translation for Uzbek",
		Slug:          "neural-machine-translation-for-uzbek",
		IsPublished:   true,
		DatePublished: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Issue: &models.Issue{
			Number:  2,
			Journal: &models.Journal{Title: "Impact Factor", Slug: "imfaktor"},
		},
	}
}

func authorRow(id uint, first, last, email string) models.ArticleAuthor {
	return models.ArticleAuthor{
		ArticleID: 7,
		AuthorID:  id,
		Author:    &models.Author{ID: id, FirstName: first, LastName: last, Email: email},
	}
}

func TestHandlePublishTransitionFires(t *testing.T) {
	rows := []models.ArticleAuthor{
		authorRow(1, "Aziza", "Karimova", "aziza@univ.uz"),
		authorRow(2, "Bekzod", "Yusupov", "bekzod@univ.uz"),
	}
	svc, flags, renderer, sender := newDispatchFixture(rows)
	article := publishedArticle()

	fired, stats, err := svc.HandlePublishTransition(false, article)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, article.DiplomaSent)
	assert.Equal(t, []uint{7}, flags.marked)

	assert.Equal(t, DispatchStats{Authors: 2, Attempted: 2, Sent: 2}, stats)
	require.Len(t, renderer.jobs, 2)
	assert.Equal(t, "/media/diploma/diploma_7_1.png", renderer.jobs[0].OutputPath)
	assert.Equal(t, "https://imfaktor.uz/imfaktor/neural-machine-translation-for-uzbek/", renderer.jobs[0].ArticleURL)
	assert.Equal(t, "2025-03-10", renderer.jobs[0].PubDate)

	require.Len(t, sender.sent, 2)
	first := sender.sent[0]
	assert.Equal(t, "aziza@univ.uz", first.to)
	assert.Equal(t, "Tabriklaymiz! Sizning maqolangiz nashr etildi: Neural Machine Translation for Uzbek", first.subject)
	assert.Contains(t, first.body, "Assalomu alaykum, Aziza Karimova!")
	assert.Contains(t, first.body, "«Impact Factor» jurnalining 2-sonida")
	assert.Equal(t, []string{"/media/diploma/diploma_7_1.png"}, first.attachments)
}

func TestHandlePublishTransitionNoOps(t *testing.T) {
	cases := []struct {
		name         string
		oldPublished bool
		article      models.Article
	}{
		{"already published", true, models.Article{ID: 1, IsPublished: true}},
		{"unpublishing", true, models.Article{ID: 1, IsPublished: false}},
		{"still draft", false, models.Article{ID: 1, IsPublished: false}},
		{"diploma already sent", false, models.Article{ID: 1, IsPublished: true, DiplomaSent: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, flags, _, sender := newDispatchFixture(nil)
			fired, stats, err := svc.HandlePublishTransition(tc.oldPublished, &tc.article)
			require.NoError(t, err)
			assert.False(t, fired)
			assert.Equal(t, DispatchStats{}, stats)
			assert.Empty(t, flags.marked)
			assert.Empty(t, sender.sent)
		})
	}
}

func TestHandlePublishTransitionFlagWriteFails(t *testing.T) {
	svc, flags, _, sender := newDispatchFixture(nil)
	flags.err = fmt.Errorf("db down")
	article := publishedArticle()

	fired, _, err := svc.HandlePublishTransition(false, article)
	assert.Error(t, err)
	assert.False(t, fired)
	// Flag reverts so a later save does not persist an unsent marker.
	assert.False(t, article.DiplomaSent)
	assert.Empty(t, sender.sent)
}

func TestDispatchSkipsUnusableEmails(t *testing.T) {
	rows := []models.ArticleAuthor{
		authorRow(1, "Aziza", "Karimova", "aziza@univ.uz"),
		authorRow(2, "Bekzod", "Yusupov", "bekzod.yusupov@example.com"), // placeholder
		authorRow(3, "Dilnoza", "Saidova", ""),
	}
	svc, _, renderer, sender := newDispatchFixture(rows)

	stats := svc.Dispatch(publishedArticle())
	assert.Equal(t, DispatchStats{Authors: 3, Skipped: 2, Attempted: 1, Sent: 1}, stats)
	require.Len(t, renderer.jobs, 1)
	assert.Equal(t, uint(1), renderer.jobs[0].AuthorID)
	require.Len(t, sender.sent, 1)
}

func TestDispatchContinuesAfterFailures(t *testing.T) {
	rows := []models.ArticleAuthor{
		authorRow(1, "Aziza", "Karimova", "aziza@univ.uz"),
		authorRow(2, "Bekzod", "Yusupov", "bekzod@univ.uz"),
		authorRow(3, "Dilnoza", "Saidova", "dilnoza@univ.uz"),
	}
	svc, _, renderer, sender := newDispatchFixture(rows)
	renderer.failFor[1] = true      // render fails for the first author
	sender.failFor["bekzod@univ.uz"] = true // send fails for the second

	stats := svc.Dispatch(publishedArticle())
	assert.Equal(t, DispatchStats{Authors: 3, Attempted: 3, Sent: 1, Failed: 2}, stats)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "dilnoza@univ.uz", sender.sent[0].to)
}

func TestDispatchWithoutIssueFallsBack(t *testing.T) {
	rows := []models.ArticleAuthor{authorRow(1, "Aziza", "Karimova", "aziza@univ.uz")}
	svc, _, _, sender := newDispatchFixture(rows)

	article := publishedArticle()
	article.Issue = nil

	stats := svc.Dispatch(article)
	assert.Equal(t, 1, stats.Sent)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "«Noma’lum jurnal» jurnalining ?-sonida")
}
