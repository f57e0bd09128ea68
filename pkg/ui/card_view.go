package ui

import (
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/srs"
)

// RenderCard formats a card as MarkdownV2 with the translation behind a
// spoiler.
func RenderCard(card srs.DueWord, position, total int) string {
	header := fmt.Sprintf("Card %d/%d", position, total)
	if card.NeverReviewed() {
		header += " · new"
	} else if card.DaysOverdue > 0 {
		header += fmt.Sprintf(" · %d days overdue", card.DaysOverdue)
	}
	return fmt.Sprintf("_%s_\n%s → ||%s||",
		bot.EscapeMarkdown(header),
		bot.EscapeMarkdown(card.Term),
		bot.EscapeMarkdown(card.Translation),
	)
}

// QualityKeyboard lays out the six grades in two rows, failing grades first.
func QualityKeyboard(token string) (*models.InlineKeyboardMarkup, error) {
	rows := make([][]models.InlineKeyboardButton, 2)
	for q := srs.QualityBlackout; q <= srs.QualityPerfect; q++ {
		data, err := BuildQualityCallback(token, q)
		if err != nil {
			return nil, err
		}
		row := 0
		if q.Passed() {
			row = 1
		}
		rows[row] = append(rows[row], models.InlineKeyboardButton{
			Text:         fmt.Sprintf("%d %s", int(q), q.Label()),
			CallbackData: data,
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func ResolvedCardText(prompt string, q srs.Quality) string {
	label := bot.EscapeMarkdown(fmt.Sprintf("→ %d %s", int(q), q.Label()))
	if prompt == "" {
		return label
	}
	return fmt.Sprintf("%s\n%s", prompt, label)
}
