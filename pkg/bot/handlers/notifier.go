package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/session"
)

const (
	warningSendTimeout = 10 * time.Second
	maxWarnedSessions  = 1024
)

// Notifier sends messages that are not replies to an update: daily
// reminders and persistence warnings.
type Notifier struct {
	b *bot.Bot

	mu     sync.Mutex
	warned map[string]struct{}
}

func NewNotifier(b *bot.Bot) *Notifier {
	return &Notifier{
		b:      b,
		warned: make(map[string]struct{}),
	}
}

func (n *Notifier) SendReminder(ctx context.Context, userID int64, due int) error {
	_, err := n.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   fmt.Sprintf("You have %d words waiting for review. Send /review to start.", due),
	})
	return err
}

// PersistenceWarning is a session.WarningHandler. It runs on dispatcher
// workers, so the message is sent from its own goroutine.
func (n *Notifier) PersistenceWarning(w session.Warning) {
	logger.Warn("background write failed", "op", w.Op, "user_id", w.UserID, "session_id", w.SessionID, "word_id", w.WordID, "error", w.Err)
	if !n.firstWarning(w.SessionID) {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), warningSendTimeout)
		defer cancel()
		if err := n.sendWarning(ctx, w); err != nil {
			logger.Error("failed to send persistence warning", "user_id", w.UserID, "error", err)
		}
	}()
}

// firstWarning reports whether the session has not been warned yet.
func (n *Notifier) firstWarning(sessionID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.warned[sessionID]; ok {
		return false
	}
	if len(n.warned) >= maxWarnedSessions {
		clear(n.warned)
	}
	n.warned[sessionID] = struct{}{}
	return true
}

func (n *Notifier) sendWarning(ctx context.Context, w session.Warning) error {
	_, err := n.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: w.UserID,
		Text:   "Some of your progress could not be saved. You can keep studying; affected words may come up again.",
	})
	return err
}
