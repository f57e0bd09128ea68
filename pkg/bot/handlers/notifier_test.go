package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/smith3v/vocab-srs/pkg/session"
)

func TestNotifierSendReminder(t *testing.T) {
	env := newTestEnv(t)
	n := NewNotifier(env.bot)

	if err := n.SendReminder(context.Background(), 800, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := env.client.lastMessageText(t)
	if !strings.Contains(got, "3 words waiting") {
		t.Fatalf("unexpected reminder %q", got)
	}
}

func TestNotifierWarnsOncePerSession(t *testing.T) {
	env := newTestEnv(t)
	n := NewNotifier(env.bot)

	if !n.firstWarning("s-1") {
		t.Fatalf("expected first warning to be sent")
	}
	if n.firstWarning("s-1") {
		t.Fatalf("expected repeated warning to be dropped")
	}
	if !n.firstWarning("s-2") {
		t.Fatalf("expected warning for another session")
	}

	if err := n.sendWarning(context.Background(), session.Warning{UserID: 801, SessionID: "s-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := env.client.lastMessageText(t); !strings.Contains(got, "could not be saved") {
		t.Fatalf("unexpected warning %q", got)
	}
}
