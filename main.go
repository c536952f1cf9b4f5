package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"journal-portal/config"
	"journal-portal/mailer"
	"journal-portal/models"
	"journal-portal/providers/telegram"
	"journal-portal/services"
	"journal-portal/storage"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	diplomasSentCounter   prometheus.Counter
	diplomasFailedCounter prometheus.Counter
	bulkBatchesCounter    prometheus.Counter
	submissionsCounter    prometheus.Counter
)

func init() {
	diplomasSentCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "diplomas_sent_total",
		Help: "Total number of diploma emails delivered to authors.",
	})
	diplomasFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "diplomas_failed_total",
		Help: "Total number of diploma render or send failures.",
	})
	bulkBatchesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulk_mail_batches_sent_total",
		Help: "Total number of bulk mail batches handed to the SMTP server.",
	})
	submissionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "article_submissions_total",
		Help: "Total number of article submissions received.",
	})
	prometheus.MustRegister(diplomasSentCounter, diplomasFailedCounter, bulkBatchesCounter, submissionsCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to portal database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.Journal{}, &models.Issue{},
		&models.Author{}, &models.Article{}, &models.ArticleAuthor{},
		&models.ArticleSubmission{}, &models.ContactMessage{},
	)

	// Setup Services
	smtp := mailer.New(cfg)
	renderer := services.NewDiplomaRenderer(
		cfg.DiplomaBoldFont,
		cfg.DiplomaFont,
		filepath.Join(cfg.MediaRoot, "qr_codes"),
		logging,
	)
	articleStore := &services.GormArticleStore{DB: db}
	dispatchService := services.NewDispatchService(
		articleStore, articleStore, renderer, smtp, logging,
		cfg.SiteDomain, cfg.DiplomaTemplate, filepath.Join(cfg.MediaRoot, "diploma"),
	)
	bulkService := services.NewBulkMailService(smtp, cfg.MailBatchSize, logging)
	authorService := services.NewAuthorService(db)
	sitemapService := services.NewSitemapService(db, cfg.SiteDomain, logging)
	notifier := telegram.NewNotifier(cfg, logging)

	var s3Client *awss3.Client
	if cfg.S3URL != "" {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
	} else {
		logging.Warn("S3 not configured, certificate archiving disabled")
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	setupJournalRoutes(router, db, logging)
	setupArticleRoutes(router, db, cfg, logging)
	setupAuthorRoutes(router, db, logging)
	setupSearchRoutes(router, db, logging)
	setupSeoRoutes(router, sitemapService, logging)
	setupSubmissionRoutes(router, db, notifier, logging)

	// Admin routes behind the API key
	admin := router.Group("/admin", apiKeyAuthMiddleware(cfg))
	setupAdminJournalRoutes(admin, db, logging)
	setupAdminIssueRoutes(admin, db, logging)
	setupAdminAuthorRoutes(admin, db, authorService, logging)
	setupAdminArticleRoutes(admin, db, authorService, dispatchService, logging)
	setupAdminMailRoutes(admin, authorService, bulkService, logging)
	setupAdminCertificateRoutes(admin, db, cfg, renderer, s3Client, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.SitemapCronSchedule, func() {
		logging.Info("Running scheduled sitemap regeneration...")
		if err := sitemapService.WriteTo(cfg.SitemapPath); err != nil {
			logging.Error("Sitemap cron job failed", zap.Error(err))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupJournalRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/journals")

	rg.GET("/", func(c *gin.Context) {
		var journals []models.Journal
		if err := db.Where("is_active = ?", true).Order("title asc").Find(&journals).Error; err != nil {
			log.Error("Database query for journals failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, journals)
	})

	rg.GET("/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		var journal models.Journal
		err := db.Preload("Issues", "is_published = ?", true).
			Where("slug = ?", slug).First(&journal).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
				return
			}
			log.Error("DB error fetching journal", zap.String("slug", slug), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, journal)
	})

	// Issue detail with its published articles
	rg.GET("/:slug/issues/:year/:volume/:number", func(c *gin.Context) {
		slug := c.Param("slug")
		year, _ := strconv.Atoi(c.Param("year"))
		volume, _ := strconv.Atoi(c.Param("volume"))
		number, _ := strconv.Atoi(c.Param("number"))

		var journal models.Journal
		if err := db.Where("slug = ?", slug).First(&journal).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
			return
		}

		var issue models.Issue
		err := db.Preload("Articles", "is_published = ?", true).
			Where("journal_id = ? AND year = ? AND volume = ? AND number = ?", journal.ID, year, volume, number).
			First(&issue).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
				return
			}
			log.Error("DB error fetching issue", zap.String("slug", slug), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, issue)
	})
}

func setupArticleRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/articles")

	rg.GET("/", func(c *gin.Context) {
		query := db.Model(&models.Article{}).Where("articles.is_published = ?", true)

		if year := c.Query("year"); year != "" {
			if y, err := strconv.Atoi(year); err == nil {
				query = query.Where("EXTRACT(YEAR FROM articles.date_published) = ?", y)
			}
		}
		if c.Query("featured") == "true" {
			query = query.Where("featured = ?", true)
		}
		if c.Query("open_access") == "true" {
			query = query.Where("open_access = ?", true)
		}
		if issueID := c.Query("issue_id"); issueID != "" {
			query = query.Where("issue_id = ?", issueID)
		}
		if journalSlug := c.Query("journal"); journalSlug != "" {
			query = query.Select("articles.*").
				Joins("JOIN issues ON issues.id = articles.issue_id").
				Joins("JOIN journals ON journals.id = issues.journal_id").
				Where("journals.slug = ?", journalSlug)
		}
		limit := 50
		if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 200 {
			limit = l
		}

		var articles []models.Article
		if err := query.Order("articles.date_published desc, articles.created_at desc").Limit(limit).Find(&articles).Error; err != nil {
			log.Error("Database query for articles failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, articles)
	})

	rg.GET("/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		var article models.Article
		err := db.Preload("Issue.Journal").
			Preload("ArticleAuthors", func(tx *gorm.DB) *gorm.DB { return tx.Order("author_order asc") }).
			Preload("ArticleAuthors.Author").
			Where("slug = ? AND is_published = ?", slug, true).
			First(&article).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			log.Error("DB error fetching article", zap.String("slug", slug), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"article":  article,
			"citation": article.Citation(),
			"url":      article.PublicURL(cfg.SiteDomain),
		})
	})

	// View counter, fire-and-forget from the reader page
	rg.POST("/:slug/view", func(c *gin.Context) {
		slug := c.Param("slug")
		res := db.Model(&models.Article{}).
			Where("slug = ?", slug).
			UpdateColumn("views", gorm.Expr("views + 1"))
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}

func setupAuthorRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	router.GET("/authors/:id", func(c *gin.Context) {
		id := c.Param("id")
		var author models.Author
		if err := db.First(&author, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "author not found"})
				return
			}
			log.Error("DB error fetching author", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var articles []models.Article
		err := db.Select("articles.*").
			Joins("JOIN article_authors aa ON aa.article_id = articles.id").
			Where("aa.author_id = ? AND articles.is_published = ?", author.ID, true).
			Order("articles.date_published desc").
			Find(&articles).Error
		if err != nil {
			log.Error("DB error fetching author articles", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"author":    author,
			"full_name": author.FullName(),
			"articles":  articles,
		})
	})
}

func setupSearchRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	router.GET("/search/articles", func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
			return
		}

		pattern := "%" + q + "%"
		var articles []models.Article
		err := db.Where("is_published = ?", true).
			Where("title ILIKE ? OR abstract ILIKE ? OR keywords ILIKE ?", pattern, pattern, pattern).
			Order("date_published desc").
			Limit(100).
			Find(&articles).Error
		if err != nil {
			log.Error("Article search failed", zap.String("q", q), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"query": q, "count": len(articles), "results": articles})
	})
}

func setupSeoRoutes(router *gin.Engine, sitemapService *services.SitemapService, log *zap.Logger) {
	router.GET("/sitemap.xml", func(c *gin.Context) {
		data, err := sitemapService.Generate()
		if err != nil {
			log.Error("Sitemap generation failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "sitemap unavailable")
			return
		}
		c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
	})

	router.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, sitemapService.Robots())
	})
}

func setupSubmissionRoutes(router *gin.Engine, db *gorm.DB, notifier *telegram.Notifier, log *zap.Logger) {
	router.POST("/submissions", func(c *gin.Context) {
		var sub models.ArticleSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(sub.AuthorName) == "" || !strings.Contains(sub.Email, "@") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "author_name and a valid email are required"})
			return
		}
		if err := db.Create(&sub).Error; err != nil {
			log.Error("Failed to save submission", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save submission"})
			return
		}
		submissionsCounter.Inc()

		go func(sub models.ArticleSubmission) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			if err := notifier.NotifySubmission(ctx, &sub); err != nil {
				log.Error("Telegram submission alert failed", zap.Uint("submission_id", sub.ID), zap.Error(err))
			}
		}(sub)

		c.JSON(http.StatusCreated, sub)
	})

	router.POST("/contact", func(c *gin.Context) {
		var msg models.ContactMessage
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(msg.Message) == "" || !strings.Contains(msg.Email, "@") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message and a valid email are required"})
			return
		}
		if err := db.Create(&msg).Error; err != nil {
			log.Error("Failed to save contact message", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
			return
		}
		c.JSON(http.StatusCreated, msg)
	})
}

func setupAdminJournalRoutes(rg *gin.RouterGroup, db *gorm.DB, log *zap.Logger) {
	rg.POST("/journals", func(c *gin.Context) {
		var journal models.Journal
		if err := c.ShouldBindJSON(&journal); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(journal.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}
		if journal.Slug == "" {
			journal.Slug = models.SlugifyMax(journal.Title, 100)
		}
		if err := db.Create(&journal).Error; err != nil {
			log.Error("Failed to create journal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create journal"})
			return
		}
		c.JSON(http.StatusCreated, journal)
	})

	rg.PUT("/journals/:id", func(c *gin.Context) {
		id := c.Param("id")
		var journal models.Journal
		if err := db.First(&journal, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var updateData map[string]interface{}
		if err := c.ShouldBindJSON(&updateData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		delete(updateData, "id")

		if err := db.Model(&journal).Updates(updateData).Error; err != nil {
			log.Error("Failed to update journal", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update journal"})
			return
		}
		c.JSON(http.StatusOK, journal)
	})
}

func setupAdminIssueRoutes(rg *gin.RouterGroup, db *gorm.DB, log *zap.Logger) {
	type issueRequest struct {
		JournalID       uint   `json:"journal_id" binding:"required"`
		Volume          int    `json:"volume" binding:"required"`
		Number          int    `json:"number" binding:"required"`
		Year            int    `json:"year" binding:"required"`
		Title           string `json:"title"`
		Description     string `json:"description"`
		DatePublished   string `json:"date_published"`
		IsPublished     bool   `json:"is_published"`
		IsActive        bool   `json:"is_active"`
		MetaDescription string `json:"meta_description"`
	}

	rg.POST("/issues", func(c *gin.Context) {
		var req issueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		issue := models.Issue{
			JournalID:       req.JournalID,
			Volume:          req.Volume,
			Number:          req.Number,
			Year:            req.Year,
			Title:           req.Title,
			Description:     req.Description,
			DatePublished:   parseDateOrNow(req.DatePublished),
			IsPublished:     req.IsPublished,
			IsActive:        req.IsActive,
			MetaDescription: req.MetaDescription,
		}

		// A newly active issue demotes any previously active one of the same
		// journal inside the same transaction.
		err := db.Transaction(func(tx *gorm.DB) error {
			if issue.IsActive {
				if err := tx.Model(&models.Issue{}).
					Where("journal_id = ? AND is_active = ?", issue.JournalID, true).
					Update("is_active", false).Error; err != nil {
					return err
				}
			}
			return tx.Create(&issue).Error
		})
		if err != nil {
			log.Error("Failed to create issue", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create issue"})
			return
		}
		c.JSON(http.StatusCreated, issue)
	})

	rg.PUT("/issues/:id", func(c *gin.Context) {
		id := c.Param("id")
		var issue models.Issue
		if err := db.First(&issue, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var updateData map[string]interface{}
		if err := c.ShouldBindJSON(&updateData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		delete(updateData, "id")
		delete(updateData, "journal_id")

		becomesActive, _ := updateData["is_active"].(bool)
		err := db.Transaction(func(tx *gorm.DB) error {
			if becomesActive && !issue.IsActive {
				if err := tx.Model(&models.Issue{}).
					Where("journal_id = ? AND is_active = ? AND id <> ?", issue.JournalID, true, issue.ID).
					Update("is_active", false).Error; err != nil {
					return err
				}
			}
			return tx.Model(&issue).Updates(updateData).Error
		})
		if err != nil {
			log.Error("Failed to update issue", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update issue"})
			return
		}
		c.JSON(http.StatusOK, issue)
	})
}

func setupAdminAuthorRoutes(rg *gin.RouterGroup, db *gorm.DB, authorService *services.AuthorService, log *zap.Logger) {
	rg.GET("/authors", func(c *gin.Context) {
		query := db.Model(&models.Author{})
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			pattern := "%" + search + "%"
			query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
		}

		var authors []models.Author
		if err := query.Order("last_name asc, first_name asc").Find(&authors).Error; err != nil {
			log.Error("Database query for authors failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, authors)
	})

	rg.POST("/authors", func(c *gin.Context) {
		var in services.AuthorInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		in.AuthorID = 0 // creation endpoint never reuses an ID

		author, err := authorService.CreateOrUpdate(in)
		if err != nil {
			log.Error("Failed to create author", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create author"})
			return
		}
		c.JSON(http.StatusCreated, author)
	})
}

func setupAdminArticleRoutes(rg *gin.RouterGroup, db *gorm.DB, authorService *services.AuthorService, dispatchService *services.DispatchService, log *zap.Logger) {
	type articleRequest struct {
		Title         *string `json:"title"`
		Subtitle      *string `json:"subtitle"`
		Abstract      *string `json:"abstract"`
		Keywords      *string `json:"keywords"`
		References    *string `json:"references"`
		IssueID       *uint   `json:"issue_id"`
		DatePublished *string `json:"date_published"`
		DOI           *string `json:"doi"`
		FirstPage     *int    `json:"first_page"`
		LastPage      *int    `json:"last_page"`
		OpenAccess    *bool   `json:"open_access"`
		Featured      *bool   `json:"featured"`
		IsPublished   *bool   `json:"is_published"`
		Language      *string `json:"language"`

		Authors []services.AuthorInput `json:"authors"`
	}

	applyFields := func(article *models.Article, req *articleRequest) {
		if req.Title != nil {
			article.Title = *req.Title
		}
		if req.Subtitle != nil {
			article.Subtitle = *req.Subtitle
		}
		if req.Abstract != nil {
			article.Abstract = *req.Abstract
		}
		if req.Keywords != nil {
			article.Keywords = *req.Keywords
		}
		if req.References != nil {
			article.References = *req.References
		}
		if req.IssueID != nil {
			article.IssueID = req.IssueID
		}
		if req.DatePublished != nil {
			article.DatePublished = parseDateOrNow(*req.DatePublished)
		}
		if req.DOI != nil {
			article.DOI = *req.DOI
		}
		if req.FirstPage != nil {
			article.FirstPage = *req.FirstPage
		}
		if req.LastPage != nil {
			article.LastPage = *req.LastPage
		}
		if req.OpenAccess != nil {
			article.OpenAccess = *req.OpenAccess
		}
		if req.Featured != nil {
			article.Featured = *req.Featured
		}
		if req.IsPublished != nil {
			article.IsPublished = *req.IsPublished
		}
		if req.Language != nil {
			article.Language = *req.Language
		}
	}

	// runPublishTransition fires the diploma pipeline on the false→true edge.
	// A dispatch problem never fails the admin request; it is logged and the
	// metrics are bumped.
	runPublishTransition := func(oldPublished bool, article *models.Article) {
		// Dispatch needs the journal context for the certificate text.
		if article.IssueID != nil && article.Issue == nil {
			var issue models.Issue
			if err := db.Preload("Journal").First(&issue, *article.IssueID).Error; err == nil {
				article.Issue = &issue
			}
		}

		fired, stats, err := dispatchService.HandlePublishTransition(oldPublished, article)
		if err != nil {
			log.Error("Failed to send diploma emails",
				zap.Uint("article_id", article.ID),
				zap.String("title", article.Title),
				zap.Error(err),
			)
			return
		}
		if fired {
			diplomasSentCounter.Add(float64(stats.Sent))
			diplomasFailedCounter.Add(float64(stats.Failed))
		}
	}

	rg.POST("/articles", func(c *gin.Context) {
		var req articleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}

		var article models.Article
		applyFields(&article, &req)
		article.Slug = models.SlugifyMax(article.Title, 200)
		article.DiplomaSent = false
		if article.DatePublished.IsZero() {
			article.DatePublished = time.Now()
		}

		if err := db.Create(&article).Error; err != nil {
			log.Error("Failed to create article", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create article"})
			return
		}

		if len(req.Authors) > 0 {
			if err := authorService.ReplaceArticleAuthors(article.ID, req.Authors); err != nil {
				log.Error("Failed to attach article authors", zap.Uint("article_id", article.ID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to attach authors"})
				return
			}
		}

		// A newly created article that is already published counts as a
		// false→true transition.
		runPublishTransition(false, &article)

		c.JSON(http.StatusCreated, article)
	})

	rg.PUT("/articles/:id", func(c *gin.Context) {
		id := c.Param("id")
		var article models.Article
		if err := db.Preload("Issue.Journal").First(&article, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			log.Error("DB error checking for article on PUT", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var req articleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		oldPublished := article.IsPublished
		applyFields(&article, &req)

		if err := db.Save(&article).Error; err != nil {
			log.Error("Failed to update article", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update article"})
			return
		}

		if req.Authors != nil {
			if err := authorService.ReplaceArticleAuthors(article.ID, req.Authors); err != nil {
				log.Error("Failed to replace article authors", zap.Uint("article_id", article.ID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to replace authors"})
				return
			}
		}

		runPublishTransition(oldPublished, &article)

		c.JSON(http.StatusOK, article)
	})
}

func setupAdminMailRoutes(rg *gin.RouterGroup, authorService *services.AuthorService, bulkService *services.BulkMailService, log *zap.Logger) {
	rg.POST("/message-authors", func(c *gin.Context) {
		var req struct {
			SendToAll bool   `json:"send_to_all"`
			AuthorIDs []uint `json:"author_ids"`
			Subject   string `json:"subject" binding:"required"`
			Message   string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "subject and message are required"})
			return
		}
		if !req.SendToAll && len(req.AuthorIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "select authors or set send_to_all"})
			return
		}

		ids := req.AuthorIDs
		if req.SendToAll {
			ids = nil
		}
		recipients, err := authorService.ActiveRecipientEmails(ids)
		if err != nil {
			log.Error("Failed to load recipients", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if len(recipients) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no valid email addresses among the chosen recipients"})
			return
		}

		batchesSent, err := bulkService.SendBulk(recipients, strings.TrimSpace(req.Subject), strings.TrimSpace(req.Message))
		bulkBatchesCounter.Add(float64(batchesSent))
		if err != nil {
			log.Error("Bulk mail failed", zap.Int("batches_sent", batchesSent), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":        fmt.Sprintf("error sending message: %v", err),
				"batches_sent": batchesSent,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"recipients":   len(recipients),
			"batches_sent": batchesSent,
		})
	})
}

func setupAdminCertificateRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, renderer *services.DiplomaRenderer, s3Client *awss3.Client, log *zap.Logger) {
	// Re-render all certificates of an article and archive them to S3.
	// Independent of the one-shot diploma dispatch.
	rg.POST("/articles/:id/certificates/upload", func(c *gin.Context) {
		if s3Client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "S3 storage not configured"})
			return
		}

		id := c.Param("id")
		var article models.Article
		err := db.Preload("Issue.Journal").
			Preload("ArticleAuthors", func(tx *gorm.DB) *gorm.DB { return tx.Order("author_order asc") }).
			Preload("ArticleAuthors.Author").
			First(&article, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		journalName := "Noma’lum jurnal"
		issueLabel := "?"
		if article.Issue != nil {
			issueLabel = strconv.Itoa(article.Issue.Number)
			if article.Issue.Journal != nil {
				journalName = article.Issue.Journal.Title
			}
		}

		var links []string
		for _, row := range article.ArticleAuthors {
			if row.Author == nil {
				continue
			}
			job := services.CertificateJob{
				ArticleID:    article.ID,
				AuthorID:     row.Author.ID,
				AuthorName:   row.Author.FullName(),
				JournalName:  journalName,
				IssueLabel:   issueLabel,
				ArticleURL:   article.PublicURL(cfg.SiteDomain),
				PubDate:      article.DatePublished.Format("2006-01-02"),
				TemplatePath: cfg.DiplomaTemplate,
				OutputPath:   filepath.Join(cfg.MediaRoot, "diploma", fmt.Sprintf("diploma_%d_%d.png", article.ID, row.Author.ID)),
			}

			path, err := renderer.Render(job)
			if err != nil {
				log.Error("Certificate render failed", zap.Uint("article_id", article.ID), zap.Uint("author_id", row.Author.ID), zap.Error(err))
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.Error("Certificate read failed", zap.String("path", path), zap.Error(err))
				continue
			}
			link, err := storage.UploadCertificate(c.Request.Context(), s3Client, cfg, article.ID, filepath.Base(path), data)
			if err != nil {
				log.Error("Certificate upload failed", zap.String("path", path), zap.Error(err))
				continue
			}
			links = append(links, link)
		}

		c.JSON(http.StatusOK, gin.H{"uploaded": len(links), "links": links})
	})
}

// parseDateOrNow parses YYYY-MM-DD dates from request bodies; anything else
// falls back to the current date.
func parseDateOrNow(s string) time.Time {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d
	}
	return time.Now()
}
