package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/goreforced/YCTNewsBot-TG/internal/admindb"
	"github.com/goreforced/YCTNewsBot-TG/internal/articlesdb"
	"github.com/goreforced/YCTNewsBot-TG/internal/bot"
	"github.com/goreforced/YCTNewsBot-TG/internal/config"
	"github.com/goreforced/YCTNewsBot-TG/internal/feed"
	"github.com/goreforced/YCTNewsBot-TG/internal/logging"
	"github.com/goreforced/YCTNewsBot-TG/internal/summarize"
	"github.com/goreforced/YCTNewsBot-TG/internal/workflow"
)

func main() {
	// Получение конфигурационной информации
	if err := godotenv.Load(); err != nil {
		log.Print("Файл .env не найден, используем переменные окружения")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Инициализация логгера
	if err := logging.Initialize(cfg.Debug, cfg.Sentry.DSN); err != nil {
		log.Fatal(err)
	}
	defer logging.Close()
	logging.LogEvent("Старт программы")

	// Инициализация базы опубликованных статей
	articleStore, err := articlesdb.Open(cfg.Storage.ArticlesPath)
	if err != nil {
		logging.LogFatalError("main", "попытка открыть базу данных статей", err)
	}
	defer articleStore.Close()

	// Инициализация базы админов и каналов
	adminStore, err := admindb.Open(cfg.Storage.AdminPath)
	if err != nil {
		logging.LogFatalError("main", "попытка открыть базу данных админов", err)
	}
	defer adminStore.Close()

	if err := adminStore.Seed(cfg.Telegram.Admins, cfg.Telegram.Channels); err != nil {
		logging.LogFatalError("main", "попытка записать админов из конфигурации", err)
	}

	// Инициализация бота
	logging.LogEvent("Инициализация бота")
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logging.LogFatalError("main", "попытка залогиниться в бота", err)
	}
	api.Debug = cfg.Debug

	feeds := feed.NewFetcher(cfg.Feeds, cfg.Fetch.Timeout())
	wf := workflow.New(workflow.Deps{
		Feeds:      feeds,
		Summarizer: summarize.New(cfg.OpenRouter),
		Publisher:  bot.NewChannelPublisher(api, adminStore),
		Store:      articleStore,
	})
	newsBot := bot.NewBot(api, cfg, wf, articleStore, adminStore, feeds)

	// Перехватываем сигналы:
	// SIGTERM для сервера (htop kill 15), SIGINT для Windows (Ctrl+C)
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		cancel()
	}()

	// Запуск бота
	logging.LogEvent("Запуск бота")
	if err := newsBot.Start(ctx); err != nil {
		logging.LogFatalError("main", "попытка запустить бота", err)
	}

	logging.LogEvent("Остановка работы")
}
