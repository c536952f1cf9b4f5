package services

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"journal-portal/models"
)

// Renderer produces a certificate file for one job.
type Renderer interface {
	Render(job CertificateJob) (string, error)
}

// AttachmentSender delivers a plain-text email with file attachments.
type AttachmentSender interface {
	SendWithAttachment(to, subject, textBody string, attachments ...string) error
}

// ArticleAuthorStore lists the ordered author rows of an article.
type ArticleAuthorStore interface {
	ListByArticle(articleID uint) ([]models.ArticleAuthor, error)
}

// ArticleFlagStore persists the one-way diploma_sent marker.
type ArticleFlagStore interface {
	MarkDiplomaSent(articleID uint) error
}

// DispatchStats summarizes one diploma fan-out.
type DispatchStats struct {
	Authors   int // author rows on the article
	Skipped   int // authors without a usable email
	Attempted int // render+send attempts
	Sent      int
	Failed    int
}

// DispatchService renders and emails publication certificates to every author
// of an article after its publish transition. Failures for one author are
// logged and do not abort the remaining authors; there is no retry.
type DispatchService struct {
	authors  ArticleAuthorStore
	flags    ArticleFlagStore
	renderer Renderer
	sender   AttachmentSender
	log      *zap.Logger

	siteDomain   string
	templatePath string
	outputDir    string
}

func NewDispatchService(
	authors ArticleAuthorStore,
	flags ArticleFlagStore,
	renderer Renderer,
	sender AttachmentSender,
	log *zap.Logger,
	siteDomain, templatePath, outputDir string,
) *DispatchService {
	return &DispatchService{
		authors:      authors,
		flags:        flags,
		renderer:     renderer,
		sender:       sender,
		log:          log,
		siteDomain:   siteDomain,
		templatePath: templatePath,
		outputDir:    outputDir,
	}
}

// HandlePublishTransition fires the diploma dispatch exactly once per article,
// on the false→true transition of is_published. The diploma_sent flag is
// persisted before any send is attempted, so a retried admin request cannot
// double-send; a dispatch that then fails leaves the flag set with no retry
// path. All other transitions are no-ops. It reports whether dispatch fired.
func (s *DispatchService) HandlePublishTransition(oldPublished bool, article *models.Article) (bool, DispatchStats, error) {
	if oldPublished || !article.IsPublished || article.DiplomaSent {
		return false, DispatchStats{}, nil
	}

	article.DiplomaSent = true
	if err := s.flags.MarkDiplomaSent(article.ID); err != nil {
		article.DiplomaSent = false
		return false, DispatchStats{}, fmt.Errorf("mark diploma sent: %w", err)
	}

	stats := s.Dispatch(article)
	s.log.Info("diploma dispatch finished",
		zap.Uint("article_id", article.ID),
		zap.String("title", article.Title),
		zap.Int("authors", stats.Authors),
		zap.Int("sent", stats.Sent),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
	)
	return true, stats, nil
}

// Dispatch walks the article's authors in publication order and renders and
// emails one certificate each. Authors without a usable address are skipped
// silently.
func (s *DispatchService) Dispatch(article *models.Article) DispatchStats {
	journalName := "Noma’lum jurnal"
	issueLabel := "?"
	if article.Issue != nil {
		issueLabel = fmt.Sprintf("%d", article.Issue.Number)
		if article.Issue.Journal != nil {
			journalName = article.Issue.Journal.Title
		}
	}
	articleURL := article.PublicURL(s.siteDomain)
	pubDate := article.DatePublished.Format(pubDateLayout)

	rows, err := s.authors.ListByArticle(article.ID)
	if err != nil {
		s.log.Error("list article authors failed",
			zap.Uint("article_id", article.ID),
			zap.String("title", article.Title),
			zap.Error(err),
		)
		return DispatchStats{}
	}

	stats := DispatchStats{Authors: len(rows)}
	for _, row := range rows {
		author := row.Author
		if author == nil || !author.HasUsableEmail() {
			stats.Skipped++
			continue
		}

		stats.Attempted++
		job := CertificateJob{
			ArticleID:    article.ID,
			AuthorID:     author.ID,
			AuthorName:   author.FullName(),
			JournalName:  journalName,
			IssueLabel:   issueLabel,
			ArticleURL:   articleURL,
			PubDate:      pubDate,
			TemplatePath: s.templatePath,
			OutputPath:   filepath.Join(s.outputDir, fmt.Sprintf("diploma_%d_%d.png", article.ID, author.ID)),
		}

		diplomaPath, err := s.renderer.Render(job)
		if err != nil {
			stats.Failed++
			s.log.Error("diploma render failed",
				zap.Uint("article_id", article.ID),
				zap.String("title", article.Title),
				zap.Uint("author_id", author.ID),
				zap.Error(err),
			)
			continue
		}

		subject := fmt.Sprintf("Tabriklaymiz! Sizning maqolangiz nashr etildi: %s", article.Title)
		body := fmt.Sprintf(
			"Assalomu alaykum, %s!\n\nSizning maqolangiz «%s» jurnalining %s-sonida nashr qilindi.\n\nBatafsil maqola: %s",
			author.FullName(), journalName, issueLabel, articleURL,
		)

		if err := s.sender.SendWithAttachment(author.Email, subject, body, diplomaPath); err != nil {
			stats.Failed++
			s.log.Error("diploma email failed",
				zap.Uint("article_id", article.ID),
				zap.String("title", article.Title),
				zap.String("to", author.Email),
				zap.Error(err),
			)
			continue
		}
		stats.Sent++
	}
	return stats
}

// GormArticleStore backs the dispatcher's store interfaces with the portal DB.
type GormArticleStore struct {
	DB *gorm.DB
}

func (s *GormArticleStore) ListByArticle(articleID uint) ([]models.ArticleAuthor, error) {
	var rows []models.ArticleAuthor
	err := s.DB.Preload("Author").
		Where("article_id = ?", articleID).
		Order("author_order asc").
		Find(&rows).Error
	return rows, err
}

func (s *GormArticleStore) MarkDiplomaSent(articleID uint) error {
	return s.DB.Model(&models.Article{}).
		Where("id = ?", articleID).
		Update("diploma_sent", true).Error
}
