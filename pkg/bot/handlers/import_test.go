package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/smith3v/vocab-srs/pkg/db"
)

func TestDefaultHandlerImportsCSV(t *testing.T) {
	env := newTestEnv(t)
	env.client.respond("getFile", `{"ok":true,"result":{"file_id":"file-1","file_path":"documents/words.csv"}}`)
	env.files.body = "term,translation\nhond,dog\nkat,cat\n,missing\n"

	env.handlers.DefaultHandler(context.Background(), env.bot, newTestDocumentUpdate("words.csv", "file-1", 500))

	got := env.client.lastMessageText(t)
	if got != "Imported 2 new words, updated 0 words, skipped 1 rows." {
		t.Fatalf("unexpected import reply %q", got)
	}
	if len(env.files.urls) != 1 || !strings.HasSuffix(env.files.urls[0], "/file/bottest-token/documents/words.csv") {
		t.Fatalf("unexpected download urls %v", env.files.urls)
	}

	var count int64
	env.gdb.Model(&db.Word{}).Where("user_id = ?", 500).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 words, got %d", count)
	}
}

func TestDefaultHandlerRejectsUnsupportedFile(t *testing.T) {
	env := newTestEnv(t)

	env.handlers.DefaultHandler(context.Background(), env.bot, newTestDocumentUpdate("words.pdf", "file-2", 501))

	got := env.client.lastMessageText(t)
	if !strings.Contains(got, "Unsupported file") {
		t.Fatalf("unexpected reply %q", got)
	}
	if len(env.files.urls) != 0 {
		t.Fatalf("expected no download")
	}
}

func TestDefaultHandlerRejectsLargeFile(t *testing.T) {
	env := newTestEnv(t)
	update := newTestDocumentUpdate("words.csv", "file-3", 502)
	update.Message.Document.FileSize = MaxImportBytes + 1

	env.handlers.DefaultHandler(context.Background(), env.bot, update)

	got := env.client.lastMessageText(t)
	if !strings.Contains(got, "too large") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestDefaultHandlerDownloadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.client.respond("getFile", `{"ok":true,"result":{"file_id":"file-4","file_path":"documents/words.csv"}}`)
	env.files.status = http.StatusNotFound

	env.handlers.DefaultHandler(context.Background(), env.bot, newTestDocumentUpdate("words.csv", "file-4", 503))

	got := env.client.lastMessageText(t)
	if !strings.Contains(got, "Failed to download") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestDefaultHandlerNothingToImport(t *testing.T) {
	env := newTestEnv(t)
	env.client.respond("getFile", `{"ok":true,"result":{"file_id":"file-5","file_path":"documents/empty.csv"}}`)
	env.files.body = "term,translation\n"

	env.handlers.DefaultHandler(context.Background(), env.bot, newTestDocumentUpdate("empty.csv", "file-5", 504))

	got := env.client.lastMessageText(t)
	if !strings.Contains(got, "No valid words") {
		t.Fatalf("unexpected reply %q", got)
	}
}
