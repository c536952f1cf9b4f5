package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration parameters read from environment variables.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"8080"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Public site base URL, used for article URLs in QR codes and sitemap entries.
	SiteDomain string `envconfig:"SITE_DOMAIN" default:"https://imfaktor.uz"`

	// Media directory for the diploma template, rendered certificates and QR assets.
	MediaRoot       string `envconfig:"MEDIA_ROOT" default:"./media"`
	DiplomaTemplate string `envconfig:"DIPLOMA_TEMPLATE" default:"./media/diploma/original.png"`
	DiplomaBoldFont string `envconfig:"DIPLOMA_BOLD_FONT" default:"./media/diploma/DejaVuSans-Bold.ttf"`
	DiplomaFont     string `envconfig:"DIPLOMA_FONT" default:"./media/diploma/DejaVuSans.ttf"`

	// SMTP transport
	SMTPHost  string `envconfig:"SMTP_HOST" required:"true"`
	SMTPPort  int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser  string `envconfig:"SMTP_USER"`
	SMTPPass  string `envconfig:"SMTP_PASSWORD"`
	EmailFrom string `envconfig:"EMAIL_FROM" required:"true"`

	// Recipients per outgoing BCC message when messaging many authors at once.
	MailBatchSize int `envconfig:"MAIL_BATCH_SIZE" default:"50"`

	// Telegram notifications for new article submissions.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`

	// S3 storage for rendered certificates.
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION"`
	S3Bucket string `envconfig:"S3_BUCKET"`

	// Cron schedule for sitemap regeneration.
	SitemapCronSchedule string `envconfig:"SITEMAP_CRON_SCHEDULE" default:"0 3 * * *"`
	SitemapPath         string `envconfig:"SITEMAP_PATH" default:"./media/sitemap.xml"`
}

// DSN returns the data source name for the PostgreSQL connection.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
