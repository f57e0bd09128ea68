package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/importexport"
)

func TestHandleExportRejectsNonPrivateChat(t *testing.T) {
	env := newTestEnv(t)
	update := newTestUpdate("/export", 400)
	update.Message.Chat.Type = models.ChatTypeGroup

	env.handlers.HandleExport(context.Background(), env.bot, update)

	got := env.client.lastMessageText(t)
	if !strings.Contains(got, "only in private chat") {
		t.Fatalf("expected private chat warning, got %q", got)
	}
}

func TestHandleExportEmptyVocabulary(t *testing.T) {
	env := newTestEnv(t)

	env.handlers.HandleExport(context.Background(), env.bot, newTestUpdate("/export", 401))

	got := env.client.lastMessageText(t)
	if !strings.Contains(got, "no vocabulary") {
		t.Fatalf("expected empty vocabulary message, got %q", got)
	}
}

func TestHandleExportSendsDocument(t *testing.T) {
	env := newTestEnv(t)
	env.importWords(t, 402,
		importexport.Entry{Term: "uno", Translation: "one"},
		importexport.Entry{Term: "hello", Translation: "world"},
	)

	env.handlers.HandleExport(context.Background(), env.bot, newTestUpdate("/export", 402))

	if docs := env.client.requestsTo("sendDocument"); len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	content, filename := env.client.lastMultipartField(t, "document")
	if filename != "vocabulary-20240310.csv" {
		t.Fatalf("unexpected filename %q", filename)
	}
	lines := strings.Split(strings.TrimPrefix(content, "\ufeff"), "\r\n")
	if lines[0] != "term,translation,status,ease_factor,interval_days,repetitions,next_review,last_reviewed" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "hello,world,learning,2.50,1,0,,") {
		t.Fatalf("expected words sorted by term, got %q", lines[1])
	}
	caption, _ := env.client.lastMultipartField(t, "caption")
	if caption != "Your vocabulary export (2 words)." {
		t.Fatalf("unexpected caption %q", caption)
	}
}
