package services

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DefaultMailBatchSize is the number of BCC recipients per outgoing message.
const DefaultMailBatchSize = 50

var (
	htmlTagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// BatchSender sends one BCC message per batch over a single connection.
type BatchSender interface {
	SendBatches(batches [][]string, subject, textBody, htmlBody string) (int, error)
}

// BulkMailService delivers one HTML announcement to many authors in fixed-size
// BCC batches. A failing batch aborts the whole operation; batches already
// sent are not tracked, so a retry re-sends them.
type BulkMailService struct {
	sender    BatchSender
	batchSize int
	log       *zap.Logger
}

func NewBulkMailService(sender BatchSender, batchSize int, log *zap.Logger) *BulkMailService {
	if batchSize <= 0 {
		batchSize = DefaultMailBatchSize
	}
	return &BulkMailService{sender: sender, batchSize: batchSize, log: log}
}

// SendBulk cleans the recipient list, derives the plain-text fallback body and
// sends the batches. It returns the number of batches sent.
func (s *BulkMailService) SendBulk(recipients []string, subject, htmlBody string) (int, error) {
	valid := cleanRecipients(recipients)
	if len(valid) == 0 {
		return 0, fmt.Errorf("no valid recipient addresses")
	}

	textBody := htmlToPlainText(htmlBody)
	batches := chunkList(valid, s.batchSize)

	s.log.Info("sending bulk mail",
		zap.Int("recipients", len(valid)),
		zap.Int("batches", len(batches)),
		zap.String("subject", subject),
	)

	sent, err := s.sender.SendBatches(batches, subject, textBody, htmlBody)
	if err != nil {
		s.log.Error("bulk mail aborted",
			zap.Int("batches_sent", sent),
			zap.Int("batches_total", len(batches)),
			zap.Error(err),
		)
		return sent, err
	}
	return sent, nil
}

// cleanRecipients trims, drops malformed addresses (no '@') and deduplicates
// case-insensitively, keeping the first spelling seen. The result is sorted.
func cleanRecipients(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	var out []string
	for _, addr := range recipients {
		addr = strings.TrimSpace(addr)
		if addr == "" || !strings.Contains(addr, "@") {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// htmlToPlainText converts an HTML body into the plain-text alternative:
// tags stripped, entities unescaped, whitespace collapsed.
func htmlToPlainText(htmlBody string) string {
	plain := htmlTagRe.ReplaceAllString(htmlBody, " ")
	plain = html.UnescapeString(plain)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(plain, " "))
}

func chunkList(items []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
