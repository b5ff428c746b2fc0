package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goreforced/YCTNewsBot-TG/internal/admindb"
	"github.com/goreforced/YCTNewsBot-TG/internal/articles"
)

// ChannelPublisher доставляет готовые статьи во все зарегистрированные каналы.
// Реализует workflow.Publisher
type ChannelPublisher struct {
	api      *tgbotapi.BotAPI
	channels *admindb.DB
}

// NewChannelPublisher возвращает новый ChannelPublisher
func NewChannelPublisher(api *tgbotapi.BotAPI, channels *admindb.DB) *ChannelPublisher {
	return &ChannelPublisher{api: api, channels: channels}
}

// Publish отправляет статью во все каналы.
// Сбой любого канала считается сбоем доставки целиком
func (p *ChannelPublisher) Publish(ctx context.Context, a articles.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ids, err := p.channels.Channels()
	if err != nil {
		return fmt.Errorf("список каналов: %w", err)
	}
	if len(ids) == 0 {
		return errors.New("не настроен ни один канал для публикации")
	}

	for _, chatID := range ids {
		for _, chunk := range chunkText(renderArticle(a), messageLimit) {
			msg := tgbotapi.NewMessage(chatID, chunk)
			msg.ParseMode = tgbotapi.ModeHTML
			msg.DisableWebPagePreview = true
			if _, err := p.api.Send(msg); err != nil {
				return fmt.Errorf("канал %d: %w", chatID, err)
			}
		}
	}

	return nil
}
