package bot

import (
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goreforced/YCTNewsBot-TG/internal/articles"
	"github.com/goreforced/YCTNewsBot-TG/internal/workflow"
)

// renderArticle собирает HTML-текст статьи: заголовок, пересказ, ссылка
func renderArticle(a articles.Article) string {
	return "<b>" + html.EscapeString(a.Title) + "</b>\n\n" +
		html.EscapeString(a.Summary) + "\n\n" +
		"<a href='" + a.Link + "'>Источник</a>"
}

// reviewKeyboard — полный набор кнопок карточки статьи
func reviewKeyboard(itemID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonApprove, workflow.ActionApprove.CallbackData(itemID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonEdit, workflow.ActionEdit.CallbackData(itemID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonReject, workflow.ActionReject.CallbackData(itemID)),
		),
	)
}

// keepTitleKeyboard — кнопка "оставить как есть" при редактировании заголовка
func keepTitleKeyboard(itemID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonKeepTitle, workflow.ActionKeepTitle.CallbackData(itemID)),
		),
	)
}

// keepSummaryKeyboard — кнопка "оставить как есть" при редактировании пересказа
func keepSummaryKeyboard(itemID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonKeepSummary, workflow.ActionKeepSummary.CallbackData(itemID)),
		),
	)
}

// emptyKeyboard убирает кнопки у обработанной карточки
func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	}
}

// chunkText режет текст на куски не длиннее limit рун.
// По возможности режет по границе строки
func chunkText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		// Ищем перенос строки в хвосте куска, чтобы не резать посередине слова
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
		if len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}

	return chunks
}
