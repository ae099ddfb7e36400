package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quizmind_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalDocumentService(t *testing.T) (*DocumentService, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: dir}}
	return NewDocumentService(NewStorageService(cfg)), dir
}

func TestIngestTxtDocument(t *testing.T) {
	svc, dir := newLocalDocumentService(t)

	view, err := svc.Ingest(context.Background(), 1, "go-notes.txt",
		strings.NewReader("goroutines and channels"), 23, "text/plain")
	require.NoError(t, err)

	assert.Equal(t, "go-notes", view.Topic)
	assert.Equal(t, "goroutines and channels", view.Content)
	assert.True(t, strings.HasPrefix(view.URL, "/uploads/documents/1/"))

	// 原件落到本地存储
	matches, err := filepath.Glob(filepath.Join(dir, "documents", "1", "*.txt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "goroutines and channels", string(data))
}

func TestIngestPdfPrefixesContent(t *testing.T) {
	svc, _ := newLocalDocumentService(t)

	view, err := svc.Ingest(context.Background(), 2, "biology.pdf",
		strings.NewReader("raw pdf bytes"), 13, "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "biology", view.Topic)
	assert.True(t, strings.HasPrefix(view.Content, "[PDF Content from: biology.pdf]\n"))
	assert.Contains(t, view.Content, "raw pdf bytes")
}

func TestIngestTruncatesExcerpt(t *testing.T) {
	svc, _ := newLocalDocumentService(t)

	long := strings.Repeat("a", documentExcerptLen+50)
	view, err := svc.Ingest(context.Background(), 1, "long.txt",
		strings.NewReader(long), int64(len(long)), "text/plain")
	require.NoError(t, err)

	assert.Len(t, view.Content, documentExcerptLen)
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	svc, _ := newLocalDocumentService(t)

	_, err := svc.Ingest(context.Background(), 1, "malware.exe",
		strings.NewReader("x"), 1, "application/octet-stream")
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}
