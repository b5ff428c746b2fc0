package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5" // Telegram api

	"github.com/goreforced/YCTNewsBot-TG/internal/logging"
	"github.com/goreforced/YCTNewsBot-TG/internal/workflow"
)

// help отправляет справочную информацию
func (bot *Bot) help(msg *tgbotapi.Message) {
	message := tgbotapi.NewMessage(msg.Chat.ID, helpText)
	message.ParseMode = tgbotapi.ModeHTML
	bot.messages <- message
}

// news получает свежие статьи и отправляет их на проверку.
// По-умолчанию количество берётся из конфигурации,
// но можно указать другое: /news 5
func (bot *Bot) news(ctx context.Context, msg *tgbotapi.Message) {
	limit := bot.cfg.Fetch.Limit
	if args := msg.CommandArguments(); args != "" {
		if n, err := strconv.Atoi(args); err == nil && n > 0 {
			limit = n
		}
	}

	bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, "🔎 Ищу свежие статьи...")

	items, err := bot.wf.FetchCandidates(ctx, msg.Chat.ID, limit)
	if err != nil {
		bot.logErrorAndNotify(logging.ErrorData{
			Error:    err,
			Username: msg.Chat.UserName,
			UserID:   msg.Chat.ID,
			Command:  "/news",
			AddInfo:  "попытка получить статьи на проверку"})
		return
	}

	if len(items) == 0 {
		bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, textNoNews)
		return
	}

	for _, item := range items {
		bot.sendCard(*item)
	}
}

// post публикует статью без проверки: по ссылке из аргумента
// или самую свежую из лент
func (bot *Bot) post(ctx context.Context, msg *tgbotapi.Message) {
	link := strings.TrimSpace(msg.CommandArguments())
	if link == "" {
		entries, err := bot.feeds.FetchAll(ctx)
		if err != nil {
			bot.logErrorAndNotify(logging.ErrorData{
				Error:    err,
				Username: msg.Chat.UserName,
				UserID:   msg.Chat.ID,
				Command:  "/post",
				AddInfo:  "попытка получить RSS-ленты"})
			return
		}
		if len(entries) == 0 {
			bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, textNoNews)
			return
		}
		link = entries[0].Link
	}

	a, err := bot.wf.PublishSingle(ctx, link)
	if err != nil {
		switch workflow.ReasonOf(err) {
		case workflow.ReasonDuplicate:
			bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, textDuplicate)
		default:
			bot.sendErrorToUser(err.Error(), msg.Chat.ID)
		}
		return
	}

	bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, textPublished+" — "+a.Link)
}

// list показывает все опубликованные статьи
func (bot *Bot) list(msg *tgbotapi.Message) {
	all, err := bot.store.All()
	if err != nil {
		bot.logErrorAndNotify(logging.ErrorData{
			Error:    err,
			Username: msg.Chat.UserName,
			UserID:   msg.Chat.ID,
			Command:  "/list",
			AddInfo:  "попытка получить список статей"})
		return
	}

	if len(all) == 0 {
		bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, textStoreEmpty)
		return
	}

	text := "<b>Опубликованные статьи:</b>\n"
	for i, a := range all {
		text += fmt.Sprintf("%d) <a href='%s'>%s</a> (%s, %s)\n",
			i+1, a.Link, html.EscapeString(a.Title), a.Source, a.FetchedAt.Format("02.01.2006"))
	}

	for _, chunk := range chunkText(text, messageLimit) {
		message := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		message.ParseMode = tgbotapi.ModeHTML
		message.DisableWebPagePreview = true
		bot.messages <- message
	}
}

// clear очищает базу опубликованных статей
func (bot *Bot) clear(msg *tgbotapi.Message) {
	if err := bot.store.ClearAll(); err != nil {
		bot.logErrorAndNotify(logging.ErrorData{
			Error:    err,
			Username: msg.Chat.UserName,
			UserID:   msg.Chat.ID,
			Command:  "/clear",
			AddInfo:  "попытка очистить базу"})
		return
	}

	bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, textStoreCleared)
}

// status показывает состояние бота: ленты, каналы, админы,
// количество опубликованных статей и режим автопостинга
func (bot *Bot) status(msg *tgbotapi.Message) {
	count, err := bot.store.Count()
	if err != nil {
		count = -1
	}
	admins, _ := bot.admins.Admins()
	channels, _ := bot.admins.Channels()

	var b strings.Builder
	b.WriteString("<b>Состояние бота</b>\n\n")

	b.WriteString("RSS-ленты:\n")
	for _, url := range bot.cfg.Feeds {
		b.WriteString("* " + url + "\n")
	}

	b.WriteString("\nКаналы для публикации:\n")
	if len(channels) == 0 {
		b.WriteString("* не настроены\n")
	}
	for _, id := range channels {
		b.WriteString("* " + strconv.FormatInt(id, 10) + "\n")
	}

	b.WriteString(fmt.Sprintf("\nАдминов: %d\n", len(admins)))
	b.WriteString(fmt.Sprintf("Опубликовано статей: %d\n", count))
	b.WriteString(fmt.Sprintf("Статей на проверке: %d\n", bot.wf.PendingCount(msg.Chat.ID)))

	b.WriteString("\n⏰ Автопостинг: ")
	if bot.autopost.Running() {
		b.WriteString(fmt.Sprintf("включён (раз в %d мин.)", bot.autopost.Interval()))
	} else {
		b.WriteString("выключен")
	}

	message := tgbotapi.NewMessage(msg.Chat.ID, b.String())
	message.ParseMode = tgbotapi.ModeHTML
	message.DisableWebPagePreview = true
	bot.messages <- message
}

// autoOn включает автопостинг. Можно указать интервал: /auto_on 30
func (bot *Bot) autoOn(msg *tgbotapi.Message) {
	if args := msg.CommandArguments(); args != "" {
		n, err := strconv.ParseUint(args, 10, 64)
		if err != nil || n == 0 {
			bot.sendErrorToUser("интервал должен быть положительным числом минут", msg.Chat.ID)
			return
		}
		bot.autopost.SetInterval(n)
	}

	bot.autopost.Start()
	logging.LogEvent("Автопостинг включён")

	text := fmt.Sprintf("%s (раз в %d мин.)", textAutoStarted, bot.autopost.Interval())
	bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, text)
}

// autoOff выключает автопостинг
func (bot *Bot) autoOff(msg *tgbotapi.Message) {
	bot.autopost.Stop()
	logging.LogEvent("Автопостинг выключен")
	bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, textAutoStopped)
}

// addAdmin добавляет админа: /add_admin 123456
func (bot *Bot) addAdmin(msg *tgbotapi.Message) {
	bot.changeRegistry(msg, bot.admins.AddAdmin, "Админ добавлен")
}

// delAdmin удаляет админа: /del_admin 123456
func (bot *Bot) delAdmin(msg *tgbotapi.Message) {
	id, ok := bot.parseIDArgument(msg)
	if !ok {
		return
	}
	if id == msg.Chat.ID {
		bot.sendErrorToUser("нельзя удалить самого себя", msg.Chat.ID)
		return
	}
	if err := bot.admins.DelAdmin(id); err != nil {
		bot.sendErrorToUser(err.Error(), msg.Chat.ID)
		return
	}
	bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, "Админ удалён")
}

// addChannel добавляет канал для публикаций: /add_channel -100123456
func (bot *Bot) addChannel(msg *tgbotapi.Message) {
	bot.changeRegistry(msg, bot.admins.AddChannel, "Канал добавлен")
}

// delChannel удаляет канал: /del_channel -100123456
func (bot *Bot) delChannel(msg *tgbotapi.Message) {
	bot.changeRegistry(msg, bot.admins.DelChannel, "Канал удалён")
}

func (bot *Bot) changeRegistry(msg *tgbotapi.Message, op func(int64) error, done string) {
	id, ok := bot.parseIDArgument(msg)
	if !ok {
		return
	}
	if err := op(id); err != nil {
		bot.sendErrorToUser(err.Error(), msg.Chat.ID)
		return
	}
	bot.messages <- tgbotapi.NewMessage(msg.Chat.ID, done)
}

func (bot *Bot) parseIDArgument(msg *tgbotapi.Message) (int64, bool) {
	args := strings.TrimSpace(msg.CommandArguments())
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		bot.sendErrorToUser("нужен числовой id (пример: /add_admin 123456)", msg.Chat.ID)
		return 0, false
	}
	return id, true
}
