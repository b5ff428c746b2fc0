package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goreforced/YCTNewsBot-TG/internal/logging"
	"github.com/goreforced/YCTNewsBot-TG/internal/workflow"
)

// handleCallback обрабатывает нажатие inline-кнопки на карточке статьи.
// Каждый callback подтверждается, даже если элемент уже обработан
func (bot *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		bot.answerCallback(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID

	if !bot.admins.IsAdmin(chatID) {
		bot.answerCallback(cb.ID, textAccessDenied)
		return
	}

	action, itemID, err := workflow.ParseAction(cb.Data)
	if err != nil {
		logging.LogMinorError("handleCallback", "разбор callback data", err)
		bot.answerCallback(cb.ID, "Неизвестное действие")
		return
	}

	logging.LogRequest(logging.RequestData{
		Command:  "callback:" + action.String(),
		Username: cb.Message.Chat.UserName,
		ID:       chatID,
	})

	res, err := bot.wf.HandleControl(ctx, chatID, itemID, action)
	if err != nil {
		bot.answerControlFailure(cb, err)
		return
	}

	switch res.Status {
	case workflow.StatusPublished:
		bot.answerCallback(cb.ID, textPublished)
		bot.stripKeyboard(chatID, cb.Message.MessageID)
		bot.messages <- tgbotapi.NewMessage(chatID, textPublished)

	case workflow.StatusDiscarded:
		bot.answerCallback(cb.ID, textDiscarded)
		bot.stripKeyboard(chatID, cb.Message.MessageID)

	case workflow.StatusAwaitingTitle:
		bot.answerCallback(cb.ID, "")
		prompt := tgbotapi.NewMessage(chatID, textPromptTitle)
		prompt.ReplyMarkup = keepTitleKeyboard(res.Item.ID)
		bot.messages <- prompt

	case workflow.StatusAwaitingSummary:
		bot.answerCallback(cb.ID, "")
		prompt := tgbotapi.NewMessage(chatID, textPromptSummary)
		prompt.ReplyMarkup = keepSummaryKeyboard(res.Item.ID)
		bot.messages <- prompt

	case workflow.StatusPending:
		bot.answerCallback(cb.ID, "")
		bot.rerenderCard(res.Item)
	}
}

// answerControlFailure превращает типизированный отказ workflow
// в ответ пользователю
func (bot *Bot) answerControlFailure(cb *tgbotapi.CallbackQuery, err error) {
	chatID := cb.Message.Chat.ID

	switch workflow.ReasonOf(err) {
	case workflow.ReasonNotFound:
		// Повторный клик или клик по давно обработанной карточке
		bot.answerCallback(cb.ID, textNotFound)
		bot.stripKeyboard(chatID, cb.Message.MessageID)

	case workflow.ReasonDuplicate:
		// Статью уже опубликовал другой чат
		bot.answerCallback(cb.ID, textDuplicate)
		bot.stripKeyboard(chatID, cb.Message.MessageID)

	case workflow.ReasonDelivery:
		bot.answerCallback(cb.ID, "")
		bot.sendErrorToUser(err.Error()+". Статья осталась на проверке, попробуйте ещё раз", chatID)

	case workflow.ReasonInvalidState:
		bot.answerCallback(cb.ID, "Сначала завершите редактирование")

	default:
		bot.answerCallback(cb.ID, "")
		bot.sendErrorToUser(err.Error(), chatID)
	}
}

// answerCallback подтверждает callback, чтобы у пользователя
// пропали "часики" на кнопке
func (bot *Bot) answerCallback(callbackID, text string) {
	if _, err := bot.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logging.LogMinorError("answerCallback", "подтверждение callback", err)
	}
}

// stripKeyboard убирает кнопки у обработанной карточки
func (bot *Bot) stripKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, emptyKeyboard())
	bot.messages <- edit
}
