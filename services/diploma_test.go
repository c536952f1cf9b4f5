package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatPubDate(t *testing.T) {
	assert.Equal(t, "10.03.2025 йил.", formatPubDate("2025-03-10"))
	assert.Equal(t, "02.01.2006 йил.", formatPubDate("2006-01-02"))

	// Malformed dates fall back to today instead of failing the render.
	today := time.Now().Format("02.01.2006") + " йил."
	assert.Equal(t, today, formatPubDate(""))
	assert.Equal(t, today, formatPubDate("10/03/2025"))
}

func TestWriteQRJobScopedPath(t *testing.T) {
	qrDir := filepath.Join(t.TempDir(), "qr_codes")
	r := NewDiplomaRenderer("", "", qrDir, zap.NewNop())

	job := CertificateJob{
		ArticleID:  7,
		AuthorID:   3,
		ArticleURL: "https://imfaktor.uz/imfaktor/some-article/",
	}
	path, err := r.writeQR(job)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(qrDir, "qr_7_3.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// A second job never overwrites the first job's asset.
	job.AuthorID = 4
	path2, err := r.writeQR(job)
	require.NoError(t, err)
	assert.NotEqual(t, path, path2)
}
