package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5" // Telegram api

	"github.com/goreforced/YCTNewsBot-TG/internal/admindb"
	"github.com/goreforced/YCTNewsBot-TG/internal/articlesdb"
	"github.com/goreforced/YCTNewsBot-TG/internal/config"
	"github.com/goreforced/YCTNewsBot-TG/internal/logging" // логгирование
	"github.com/goreforced/YCTNewsBot-TG/internal/schedule"
	"github.com/goreforced/YCTNewsBot-TG/internal/workflow"
)

// Таймаут обработки одного входящего события
const updateTimeout = 2 * time.Minute

// Bot — надстройка над tgbotapi.BotAPI: принимает события,
// гоняет их через workflow и отвечает пользователю
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      config.Config
	wf       *workflow.Workflow
	store    *articlesdb.DB
	admins   *admindb.DB
	feeds    workflow.FeedSource
	messages chan tgbotapi.Chattable
	autopost *schedule.Job
}

// NewBot инициализирует бота
func NewBot(api *tgbotapi.BotAPI, cfg config.Config, wf *workflow.Workflow,
	store *articlesdb.DB, admins *admindb.DB, feeds workflow.FeedSource) *Bot {

	api.Buffer = 12 * 50

	bot := &Bot{
		api:      api,
		cfg:      cfg,
		wf:       wf,
		store:    store,
		admins:   admins,
		feeds:    feeds,
		messages: make(chan tgbotapi.Chattable, 300),
	}
	bot.autopost = schedule.NewJob(cfg.Autopost.IntervalMinutes, bot.autoPostOnce)

	return bot
}

// Start запускает приём событий и блокируется до отмены ctx
func (bot *Bot) Start(ctx context.Context) error {
	updates, err := bot.updatesChannel()
	if err != nil {
		return err
	}

	go bot.sendWrapper(bot.cfg.Telegram.Rate)

	if bot.cfg.Autopost.Enabled {
		bot.autopost.Start()
		logging.LogEvent("Автопостинг включён из конфигурации")
	}

	for {
		select {
		case <-ctx.Done():
			logging.LogEvent("Остановка приёма событий")
			bot.api.StopReceivingUpdates()
			bot.autopost.Stop()
			return nil
		case update := <-updates:
			go bot.distributeUpdate(ctx, update)
		}
	}
}

// updatesChannel выбирает способ получения событий: webhook, если задан
// его URL, иначе long polling
func (bot *Bot) updatesChannel() (tgbotapi.UpdatesChannel, error) {
	webhook := bot.cfg.Telegram.Webhook
	if webhook.URL == "" {
		bot.api.Request(tgbotapi.DeleteWebhookConfig{})

		updateConfig := tgbotapi.NewUpdate(0)
		updateConfig.Timeout = 60
		return bot.api.GetUpdatesChan(updateConfig), nil
	}

	path := "/" + bot.api.Token
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(webhook.URL, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("bot: некорректный webhook URL: %w", err)
	}
	if _, err := bot.api.Request(wh); err != nil {
		return nil, fmt.Errorf("bot: не получилось зарегистрировать webhook: %w", err)
	}

	updates := bot.api.ListenForWebhook(path)

	listen := webhook.Listen
	if listen == "" {
		listen = ":8080"
	}
	go func() {
		if err := http.ListenAndServe(listen, nil); err != nil {
			logging.LogFatalError("updatesChannel", "webhook-сервер упал", err)
		}
	}()

	return updates, nil
}

// distributeUpdate обрабатывает одно входящее событие
func (bot *Bot) distributeUpdate(parent context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(parent, updateTimeout)
	defer cancel()

	if update.CallbackQuery != nil {
		bot.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}
	message := update.Message

	if message.IsCommand() {
		if !bot.distributeCommands(ctx, message) {
			reply := tgbotapi.NewMessage(message.Chat.ID, textWrongCommand)
			reply.ReplyToMessageID = message.MessageID
			bot.messages <- reply
		}
		return
	}

	if bot.denyNonAdmin(message) {
		return
	}

	if message.Text != "" {
		bot.handleText(ctx, message)
	}
}

// denyNonAdmin отвечает отказом не-админу. Возвращает true, если доступ закрыт
func (bot *Bot) denyNonAdmin(message *tgbotapi.Message) bool {
	if bot.admins.IsAdmin(message.Chat.ID) {
		return false
	}

	text := fmt.Sprintf("Wrong ID: %d Username: %s Text: %s",
		message.Chat.ID, message.Chat.UserName, message.Text)
	logging.LogEvent(text)

	bot.messages <- tgbotapi.NewMessage(message.Chat.ID, textAccessDenied)
	return true
}

// distributeCommands распределяет команды по обработчикам.
// /help и /start доступны всем, остальные команды только админам.
// Если команда не распознана, возвращается false
func (bot *Bot) distributeCommands(ctx context.Context, message *tgbotapi.Message) bool {
	command := message.Command()

	logging.LogRequest(logging.RequestData{
		Command:  "/" + command,
		Username: message.Chat.UserName,
		ID:       message.Chat.ID,
	})

	if command == "help" || command == "start" {
		bot.help(message)
		return true
	}

	if bot.denyNonAdmin(message) {
		return true
	}

	switch command {
	case "news":
		bot.news(ctx, message)
	case "post":
		bot.post(ctx, message)
	case "list":
		bot.list(message)
	case "clear":
		bot.clear(message)
	case "status":
		bot.status(message)
	case "auto_on":
		bot.autoOn(message)
	case "auto_off":
		bot.autoOff(message)
	case "add_admin":
		bot.addAdmin(message)
	case "del_admin":
		bot.delAdmin(message)
	case "add_channel":
		bot.addChannel(message)
	case "del_channel":
		bot.delChannel(message)
	default:
		return false
	}

	return true
}

// handleText передаёт свободный текст workflow (редактирование заголовка
// или пересказа). Непотреблённый текст — просто неизвестная команда
func (bot *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	res, err := bot.wf.HandleTextInput(ctx, message.Chat.ID, strings.TrimSpace(message.Text))
	if err != nil {
		bot.sendErrorToUser(err.Error(), message.Chat.ID)
		return
	}
	if !res.Consumed {
		reply := tgbotapi.NewMessage(message.Chat.ID, textWrongCommand)
		reply.ReplyToMessageID = message.MessageID
		bot.messages <- reply
		return
	}

	switch res.Status {
	case workflow.StatusAwaitingSummary:
		prompt := tgbotapi.NewMessage(message.Chat.ID, textPromptSummary)
		prompt.ReplyMarkup = keepSummaryKeyboard(res.Item.ID)
		bot.messages <- prompt
	case workflow.StatusPending:
		bot.rerenderCard(res.Item)
	}
}

// rerenderCard обновляет карточку статьи после редактирования:
// новый текст и полный набор кнопок
func (bot *Bot) rerenderCard(item workflow.Item) {
	if item.MessageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(
			item.ChatID, item.MessageID, renderArticle(item.Article), reviewKeyboard(item.ID))
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = true
		bot.messages <- edit
		return
	}

	// Карточки ещё не было — отправляем новую
	bot.sendCard(item)
}

// sendCard отправляет карточку статьи с кнопками и запоминает id сообщения
func (bot *Bot) sendCard(item workflow.Item) {
	msg := tgbotapi.NewMessage(item.ChatID, renderArticle(item.Article))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = reviewKeyboard(item.ID)

	sent, err := bot.api.Send(msg)
	if err != nil {
		logging.LogMinorError("sendCard", fmt.Sprintf("chatID: %d", item.ChatID), err)
		return
	}
	bot.wf.SetMessageID(item.ChatID, item.ID, sent.MessageID)
}

// autoPostOnce — одна итерация автопостинга, вызывается планировщиком
func (bot *Bot) autoPostOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	a, err := bot.wf.AutoPost(ctx)
	if err != nil {
		logging.LogMinorError("autoPostOnce", "автопостинг", err)
		return
	}
	if a == nil {
		return
	}
	logging.LogEvent("Автопостинг: опубликована статья " + a.Link)
}

// send отправляет сообщение
func (bot *Bot) send(msg tgbotapi.Chattable) {
	_, err := bot.api.Send(msg)
	if err != nil {
		if err.Error() != "Forbidden: bot was blocked by the user" &&
			err.Error() != "Forbidden: user is deactivated" {
			logging.LogMinorError("send", "отправка сообщения", err)
		}
	}
}

// sendWrapper — обёртка над bot.send()
// Отправляет сообщения раз в rate миллисекунд
func (bot *Bot) sendWrapper(milliseconds uint64) {
	if milliseconds == 0 {
		milliseconds = 500
	}
	rate := time.Duration(milliseconds) * time.Millisecond
	limiter := time.Tick(rate)
	for message := range bot.messages {
		<-limiter
		go bot.send(message)
	}
}
