package services

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"journal-portal/models"
)

// sitemapURL is one <url> entry of the sitemap.
type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapService generates the portal's sitemap.xml and robots.txt from the
// published journals, issues and articles.
type SitemapService struct {
	db         *gorm.DB
	siteDomain string
	log        *zap.Logger
}

func NewSitemapService(db *gorm.DB, siteDomain string, log *zap.Logger) *SitemapService {
	return &SitemapService{db: db, siteDomain: strings.TrimRight(siteDomain, "/"), log: log}
}

// Generate renders the sitemap XML for all publicly visible pages.
func (s *SitemapService) Generate() ([]byte, error) {
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	today := time.Now().Format("2006-01-02")

	set.URLs = append(set.URLs, sitemapURL{
		Loc: s.siteDomain + "/", LastMod: today, ChangeFreq: "daily", Priority: "1.0",
	})

	var journals []models.Journal
	if err := s.db.Where("is_active = ?", true).Find(&journals).Error; err != nil {
		return nil, fmt.Errorf("load journals: %w", err)
	}
	for _, j := range journals {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/%s/", s.siteDomain, j.Slug),
			LastMod:    j.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	var articles []models.Article
	if err := s.db.Preload("Issue.Journal").
		Where("is_published = ?", true).
		Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	for i := range articles {
		a := &articles[i]
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        a.PublicURL(s.siteDomain),
			LastMod:    a.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "monthly",
			Priority:   "0.6",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// WriteTo regenerates the sitemap and writes it to path. Used by the nightly
// cron job and after admin mutations.
func (s *SitemapService) WriteTo(path string) error {
	data, err := s.Generate()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	s.log.Info("sitemap written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// Robots renders robots.txt pointing crawlers at the sitemap.
func (s *SitemapService) Robots() string {
	lines := []string{
		"User-agent: *",
		"Allow: /",
		"Disallow: /admin/",
		"",
		fmt.Sprintf("Sitemap: %s/sitemap.xml", s.siteDomain),
		"",
	}
	return strings.Join(lines, "\n")
}
