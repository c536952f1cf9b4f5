package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBatchSender struct {
	batches  [][]string
	subject  string
	textBody string
	htmlBody string

	failAfter int // batches to accept before failing; -1 means never fail
}

func (f *fakeBatchSender) SendBatches(batches [][]string, subject, textBody, htmlBody string) (int, error) {
	f.subject = subject
	f.textBody = textBody
	f.htmlBody = htmlBody
	for i, batch := range batches {
		if f.failAfter >= 0 && i == f.failAfter {
			return i, fmt.Errorf("smtp: connection reset")
		}
		f.batches = append(f.batches, batch)
	}
	return len(batches), nil
}

func newFakeSender() *fakeBatchSender { return &fakeBatchSender{failAfter: -1} }

func TestSendBulkBatching(t *testing.T) {
	sender := newFakeSender()
	svc := NewBulkMailService(sender, 50, zap.NewNop())

	var recipients []string
	for i := 0; i < 120; i++ {
		recipients = append(recipients, fmt.Sprintf("author%03d@univ.uz", i))
	}

	sent, err := svc.SendBulk(recipients, "Yangi son chiqdi", "<p>Assalomu alaykum!</p>")
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	require.Len(t, sender.batches, 3)
	assert.Len(t, sender.batches[0], 50)
	assert.Len(t, sender.batches[1], 50)
	assert.Len(t, sender.batches[2], 20)
}

func TestSendBulkCleansRecipients(t *testing.T) {
	sender := newFakeSender()
	svc := NewBulkMailService(sender, 50, zap.NewNop())

	recipients := []string{
		"Aziza@univ.uz",
		"aziza@univ.uz", // case-insensitive duplicate, first spelling wins
		"  bekzod@univ.uz  ",
		"not-an-address",
		"",
	}

	sent, err := svc.SendBulk(recipients, "Subject", "<p>Body</p>")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, sender.batches, 1)
	assert.Equal(t, []string{"Aziza@univ.uz", "bekzod@univ.uz"}, sender.batches[0])
}

func TestSendBulkNoValidRecipients(t *testing.T) {
	sender := newFakeSender()
	svc := NewBulkMailService(sender, 50, zap.NewNop())

	sent, err := svc.SendBulk([]string{"", "nope"}, "Subject", "<p>Body</p>")
	assert.Error(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, sender.batches)
}

func TestSendBulkAbortsOnBatchFailure(t *testing.T) {
	sender := &fakeBatchSender{failAfter: 1}
	svc := NewBulkMailService(sender, 2, zap.NewNop())

	recipients := []string{"a@x.uz", "b@x.uz", "c@x.uz", "d@x.uz", "e@x.uz"}
	sent, err := svc.SendBulk(recipients, "Subject", "<p>Body</p>")
	assert.Error(t, err)
	assert.Equal(t, 1, sent)
}

func TestSendBulkDerivesPlainText(t *testing.T) {
	sender := newFakeSender()
	svc := NewBulkMailService(sender, 50, zap.NewNop())

	html := "<h1>Yangiliklar</h1><p>Salom &amp; xush kelibsiz!</p>"
	_, err := svc.SendBulk([]string{"a@x.uz"}, "Subject", html)
	require.NoError(t, err)
	assert.Equal(t, html, sender.htmlBody)
	assert.Equal(t, "Yangiliklar Salom & xush kelibsiz!", sender.textBody)
}

func TestHTMLToPlainText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<b>Hello &amp; welcome</b>", "Hello & welcome"},
		{"<p>Line one</p>\n<p>Line   two</p>", "Line one Line two"},
		{"plain already", "plain already"},
		{"<div><span>nested</span></div>", "nested"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, htmlToPlainText(tc.in), "input %q", tc.in)
	}
}

func TestChunkList(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	chunks := chunkList(items, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "b"}, chunks[0])
	assert.Equal(t, []string{"e"}, chunks[2])

	assert.Nil(t, chunkList(nil, 2))
}

func TestNewBulkMailServiceDefaultBatchSize(t *testing.T) {
	svc := NewBulkMailService(newFakeSender(), 0, zap.NewNop())
	assert.Equal(t, DefaultMailBatchSize, svc.batchSize)
}
