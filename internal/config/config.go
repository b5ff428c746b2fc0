package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "YCTNEWSBOT_CONFIG"

	botTokenEnv      = "TELEGRAM_BOT_TOKEN"
	channelIDEnv     = "TELEGRAM_CHANNEL_ID"
	openRouterKeyEnv = "OPENROUTER_API_KEY"
	sentryDSNEnv     = "SENTRY_DSN"
)

// Config содержит конфигурационную информацию всей программы
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Feeds      []string         `yaml:"feeds"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Autopost   AutopostConfig   `yaml:"autopost"`
	Storage    StorageConfig    `yaml:"storage"`
	Sentry     SentryConfig     `yaml:"sentry"`
	Debug      bool             `yaml:"debug"`
}

// TelegramConfig — token бота, каналы для публикаций и список админов
type TelegramConfig struct {
	Token    string        `yaml:"token"`
	Channels []int64       `yaml:"channels"`
	Admins   []int64       `yaml:"admins"`
	Webhook  WebhookConfig `yaml:"webhook"`
	// Задержка между отправкой сообщений (мс)
	Rate uint64 `yaml:"rate"`
}

// WebhookConfig включает режим webhook. Если URL пуст — long polling
type WebhookConfig struct {
	URL    string `yaml:"url"`
	Listen string `yaml:"listen"`
}

// OpenRouterConfig определяет, как обращаться к API суммаризации
type OpenRouterConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	Referer        string `yaml:"referer"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxTitleLen    int    `yaml:"maxTitleLen"`
	MaxSummaryLen  int    `yaml:"maxSummaryLen"`
}

// Timeout возвращает таймаут одного запроса к API
func (c OpenRouterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FetchConfig — параметры получения статей из RSS-лент
type FetchConfig struct {
	Limit          int `yaml:"limit"`
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

// Timeout возвращает таймаут получения одной RSS-ленты
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AutopostConfig — параметры автоматической публикации по расписанию
type AutopostConfig struct {
	Enabled         bool   `yaml:"enabled"`
	IntervalMinutes uint64 `yaml:"intervalMinutes"`
}

// StorageConfig — пути к базам данных
type StorageConfig struct {
	ArticlesPath string `yaml:"articlesPath"`
	AdminPath    string `yaml:"adminPath"`
}

// SentryConfig — отправка ошибок в Sentry (выключена, если DSN пуст)
type SentryConfig struct {
	DSN string `yaml:"dsn"`
}

// Load читает YAML-файл (если есть) и применяет переменные окружения.
// Отсутствие файла — не ошибка: остаются значения по умолчанию
func Load() (Config, error) {
	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = "config.yml"
	}

	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: не получилось распарсить %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: не получилось прочитать %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(botTokenEnv); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv(channelIDEnv); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.Channels = append(c.Telegram.Channels, id)
		}
	}
	if v := os.Getenv(openRouterKeyEnv); v != "" {
		c.OpenRouter.APIKey = v
	}
	if v := os.Getenv(sentryDSNEnv); v != "" {
		c.Sentry.DSN = v
	}
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return errors.New("config: token бота не задан (telegram.token или " + botTokenEnv + ")")
	}
	if len(c.Feeds) == 0 {
		return errors.New("config: не задано ни одной RSS-ленты")
	}
	if c.Fetch.Limit <= 0 {
		c.Fetch.Limit = defaultConfig().Fetch.Limit
	}
	if c.Autopost.IntervalMinutes == 0 {
		c.Autopost.IntervalMinutes = defaultConfig().Autopost.IntervalMinutes
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Telegram: TelegramConfig{
			Rate: 500,
		},
		OpenRouter: OpenRouterConfig{
			Endpoint:       "https://openrouter.ai/api/v1/chat/completions",
			Model:          "deepseek/deepseek-chat",
			Referer:        "https://github.com/goreforced/YCTNewsBot-TG",
			TimeoutSeconds: 60,
			MaxTitleLen:    100,
			MaxSummaryLen:  3900,
		},
		Feeds: []string{"https://www.tomshardware.com/feeds/all"},
		Fetch: FetchConfig{
			Limit:          3,
			TimeoutSeconds: 20,
		},
		Autopost: AutopostConfig{
			Enabled:         false,
			IntervalMinutes: 60,
		},
		Storage: StorageConfig{
			ArticlesPath: "data/articles.db",
			AdminPath:    "data/admins.db",
		},
	}
}
