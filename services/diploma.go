package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Layout fractions relative to the template dimensions. The template is a
// fixed single-page landscape certificate.
const (
	authorNameY = 0.33
	infoBlockY  = 0.44
	qrLeftX     = 0.826
	qrTopY      = 0.70
	qrSize      = 0.157 // of template width
	dateCenterX = 0.905
	dateY       = 0.935

	authorFontPts = 42
	infoFontPts   = 26
	dateFontPts   = 16

	qrPixels = 256
)

// pubDateLayout is the expected wire format of a certificate job's date.
const pubDateLayout = "2006-01-02"

// CertificateJob carries everything needed to render one certificate. Jobs
// are built per author per dispatch and discarded after the send.
type CertificateJob struct {
	ArticleID uint
	AuthorID  uint

	AuthorName  string
	JournalName string
	IssueLabel  string
	ArticleURL  string
	// PubDate in YYYY-MM-DD form; empty or unparsable values fall back to today.
	PubDate string

	TemplatePath string
	OutputPath   string
}

// DiplomaRenderer renders publication certificates from a template image.
type DiplomaRenderer struct {
	boldFontPath string
	fontPath     string
	qrDir        string
	log          *zap.Logger
}

// NewDiplomaRenderer creates a renderer. QR assets are written below qrDir,
// one file per job, keyed by article and author IDs.
func NewDiplomaRenderer(boldFontPath, fontPath, qrDir string, log *zap.Logger) *DiplomaRenderer {
	return &DiplomaRenderer{
		boldFontPath: boldFontPath,
		fontPath:     fontPath,
		qrDir:        qrDir,
		log:          log,
	}
}

// Render produces the certificate for one job and returns the output path.
// Template, font and filesystem errors propagate; the caller decides whether
// the surrounding dispatch continues.
func (r *DiplomaRenderer) Render(job CertificateJob) (string, error) {
	tpl, err := gg.LoadImage(job.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("load diploma template: %w", err)
	}

	dc := gg.NewContextForImage(tpl)
	w := float64(dc.Width())
	h := float64(dc.Height())

	// Author name, upper-cased, centered, bold.
	if err := dc.LoadFontFace(r.boldFontPath, authorFontPts); err != nil {
		return "", fmt.Errorf("load bold font: %w", err)
	}
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(strings.ToUpper(job.AuthorName), w/2, h*authorNameY, 0.5, 0.5)

	// Bilingual announcement block below the name.
	info := fmt.Sprintf("«%s» ЖУРНАЛИНИНГ\n%s-СОНИДА ИЛМИЙ МАҚОЛАСИ ЧОП ЭТИЛГАНЛИГИ УЧУН",
		job.JournalName, job.IssueLabel)
	if err := dc.LoadFontFace(r.boldFontPath, infoFontPts); err != nil {
		return "", fmt.Errorf("load bold font: %w", err)
	}
	dc.SetRGB255(0, 51, 153)
	dc.DrawStringWrapped(info, w/2, h*infoBlockY, 0.5, 0.5, w*0.8, 1.4, gg.AlignCenter)

	if job.ArticleURL != "" {
		qrPath, err := r.writeQR(job)
		if err != nil {
			return "", err
		}
		qrImg, err := gg.LoadPNG(qrPath)
		if err != nil {
			return "", fmt.Errorf("load qr image: %w", err)
		}
		dc.DrawImage(qrImg, int(w*qrLeftX), int(h*qrTopY))
	}

	// Publication date near the QR position.
	if err := dc.LoadFontFace(r.fontPath, dateFontPts); err != nil {
		return "", fmt.Errorf("load font: %w", err)
	}
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(formatPubDate(job.PubDate), w*dateCenterX, h*dateY, 0.5, 0.5)

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := dc.SavePNG(job.OutputPath); err != nil {
		return "", fmt.Errorf("save diploma: %w", err)
	}

	r.log.Info("diploma rendered",
		zap.Uint("article_id", job.ArticleID),
		zap.Uint("author_id", job.AuthorID),
		zap.String("output", job.OutputPath),
	)
	return job.OutputPath, nil
}

// writeQR encodes the article URL into a job-scoped PNG and returns its path.
func (r *DiplomaRenderer) writeQR(job CertificateJob) (string, error) {
	if err := os.MkdirAll(r.qrDir, 0o755); err != nil {
		return "", fmt.Errorf("create qr dir: %w", err)
	}
	qrPath := filepath.Join(r.qrDir, fmt.Sprintf("qr_%d_%d.png", job.ArticleID, job.AuthorID))

	// A fixed edge keeps the QR scannable across template resolutions.
	if err := qrcode.WriteFile(job.ArticleURL, qrcode.Medium, qrPixels, qrPath); err != nil {
		return "", fmt.Errorf("write qr code: %w", err)
	}
	return qrPath, nil
}

// formatPubDate renders the date line. A missing or malformed date never
// fails the render; it is replaced by the current date.
func formatPubDate(pubDate string) string {
	d, err := time.Parse(pubDateLayout, pubDate)
	if err != nil {
		d = time.Now()
	}
	return d.Format("02.01.2006") + " йил."
}
