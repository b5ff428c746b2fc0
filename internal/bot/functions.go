package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5" // Telegram api

	"github.com/goreforced/YCTNewsBot-TG/internal/logging"
)

// getCurrentTime возвращает текущее время
func getCurrentTime() string {
	return time.Now().Format("02.01.2006 15:04:05")
}

// logErrorAndNotify логгирует ошибку и отправляет пользователю информацию об ошибке
func (bot *Bot) logErrorAndNotify(data logging.ErrorData) {
	logging.LogError(data)

	text := "Что-то пошло не так. Время: " + getCurrentTime()
	message := tgbotapi.NewMessage(data.UserID, text)
	bot.messages <- message
}

// sendErrorToUser отправляет пользователю сообщение об ошибке
// (некорректный формат данных, отправленный пользователем, и т.п.)
func (bot *Bot) sendErrorToUser(text string, userID int64) {
	message := tgbotapi.NewMessage(userID, "Ошибка: "+text)
	bot.messages <- message
}
