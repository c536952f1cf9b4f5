package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRobots(t *testing.T) {
	svc := NewSitemapService(nil, "https://imfaktor.uz/", zap.NewNop())

	got := svc.Robots()
	assert.Contains(t, got, "User-agent: *")
	assert.Contains(t, got, "Disallow: /admin/")
	assert.Contains(t, got, "Sitemap: https://imfaktor.uz/sitemap.xml")
}
